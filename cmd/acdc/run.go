package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edp1096/toy-acdc/internal/bodeplot"
	"github.com/edp1096/toy-acdc/pkg/analysis"
	"github.com/edp1096/toy-acdc/pkg/circuit"
	"github.com/edp1096/toy-acdc/pkg/device"
	"github.com/edp1096/toy-acdc/pkg/netlist"
)

func runNetlist(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// 1. Read and parse netlist
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading netlist: %w", err)
	}
	data, err := netlist.Parse(string(content))
	if err != nil {
		return err
	}
	logger.Debug("parsed netlist",
		zap.String("title", data.Title),
		zap.Int("elements", len(data.Elements)),
		zap.Stringer("analysis", data.Analysis))

	// 2. Setup circuit
	ckt, err := circuit.FromNetlist(data, logger)
	if err != nil {
		return fmt.Errorf("building circuit: %w", err)
	}

	// 3. Setup analyzer
	n := cfg.SweepWorkers()
	if workers > 0 {
		n = workers
	}
	analyzer, err := analysis.FromNetlist(data, analysis.WithLogger(logger), analysis.WithWorkers(n))
	if err != nil {
		return err
	}

	if printSystem || cfg.Output.PrintSystem {
		if err := analysis.PrintSystem(out, ckt, firstStatus(data), logger); err != nil {
			return fmt.Errorf("assembling system: %w", err)
		}
	}

	if err := analyzer.Setup(ckt); err != nil {
		return fmt.Errorf("analysis setup failed: %w", err)
	}

	// 4. Run analysis
	if err := analyzer.Execute(); err != nil {
		return fmt.Errorf("analysis execution failed: %w", err)
	}

	// 5. Print result
	printResults(out, analyzer.GetResults())

	path := plotPath
	if path == "" {
		path = cfg.Output.Plot
	}
	if fr, ok := analyzer.(*analysis.FrequencyResponse); ok && path != "" {
		if err := writeBode(path, ckt, fr); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nBode plot written to %s\n", path)
	}

	return nil
}

// firstStatus is the circuit status of the first system the analysis solves.
func firstStatus(data *netlist.NetlistData) *device.CircuitStatus {
	switch data.Analysis {
	case netlist.AnalysisAC:
		return &device.CircuitStatus{Mode: device.ACAnalysis, Frequency: data.ACParam.FStart}
	case netlist.AnalysisDC:
		return &device.CircuitStatus{Mode: device.DCSweep}
	}
	return &device.CircuitStatus{Mode: device.OperatingPointAnalysis}
}

func writeBode(path string, ckt *circuit.Circuit, fr *analysis.FrequencyResponse) error {
	sweep := fr.Sweep()

	traces := make([]bodeplot.Trace, 0, len(sweep.Voltages))
	for i, series := range sweep.Voltages {
		traces = append(traces, bodeplot.Trace{
			Name:   fmt.Sprintf("V(%s)", ckt.Index().NodeName(i+1)),
			Values: series,
		})
	}

	opts := bodeplot.Options{
		Title: ckt.Name(),
		LogX:  fr.Spacing() != analysis.Linear,
	}
	if err := bodeplot.Bode(path, sweep.Frequencies, traces, opts); err != nil {
		return fmt.Errorf("plotting: %w", err)
	}
	return nil
}
