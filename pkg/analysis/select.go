package analysis

import (
	"fmt"

	"github.com/edp1096/toy-acdc/pkg/netlist"
)

// FromNetlist picks the analysis named by the netlist directive.
func FromNetlist(data *netlist.NetlistData, opts ...Option) (Analysis, error) {
	switch data.Analysis {
	case netlist.AnalysisOP:
		return NewOP(opts...), nil

	case netlist.AnalysisAC:
		param := data.ACParam
		spacing, err := ParseSpacing(param.Sweep)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSpacing(spacing))
		return NewFrequencyResponse(param.FStart, param.FStop, param.Points, opts...), nil

	case netlist.AnalysisDC:
		param := data.DCParam
		return NewDCTransfer(param.Source, param.Start, param.Stop, param.Increment, opts...), nil
	}

	return nil, fmt.Errorf("unsupported analysis type %v", data.Analysis)
}
