package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/edp1096/toy-acdc/pkg/util"
)

// signalNames splits result keys into sorted V(...) and I(...) names, after
// trimming suffix. Keys without the suffix are skipped when one is given.
func signalNames(results map[string][]float64, suffix string) (voltages, currents []string) {
	for name := range results {
		if suffix != "" && !strings.HasSuffix(name, suffix) {
			continue
		}
		base := strings.TrimSuffix(name, suffix)
		switch {
		case strings.HasPrefix(base, "V("):
			voltages = append(voltages, base)
		case strings.HasPrefix(base, "I("):
			currents = append(currents, base)
		}
	}
	sort.Strings(voltages)
	sort.Strings(currents)
	return voltages, currents
}

func printResults(w io.Writer, results map[string][]float64) {
	fmt.Fprintln(w, "\nAnalysis Results:")
	fmt.Fprintln(w, "================")

	// AC
	if freqs, isAC := results["FREQ"]; isAC {
		fmt.Fprintf(w, "\nAC Analysis Results (%d frequency points):\n", len(freqs))
		fmt.Fprintln(w, "Frequency      Node Voltages (Magnitude/Phase)        Branch Currents (Magnitude/Phase)")
		fmt.Fprintln(w, "-----------------------------------------------------------------------------")

		voltageNames, currentNames := signalNames(results, "_MAG")
		names := append(voltageNames, currentNames...)

		for i, freq := range freqs {
			fmt.Fprintf(w, "%-13s", util.FormatFrequency(freq))
			for _, name := range names {
				mag, phase := results[name+"_MAG"][i], results[name+"_PHASE"][i]
				fmt.Fprintf(w, "%s  ", util.FormatMagnitudePhase(name, mag, phase))
			}
			fmt.Fprintln(w)
		}
		return
	}

	// DC Sweep
	if sweep, isDC := results["SWEEP1"]; isDC {
		fmt.Fprintf(w, "\nDC Sweep Analysis Results (%d points):\n", len(sweep))
		fmt.Fprintln(w, "Sweep Values    Node Voltages        Branch Currents")
		fmt.Fprintln(w, "------------------------------------------------")

		voltageNames, currentNames := signalNames(results, "")
		for i := range sweep {
			fmt.Fprintf(w, "%-12s  ", util.FormatValueFactor(sweep[i], ""))
			for _, name := range voltageNames {
				fmt.Fprintf(w, "%s=%s  ", name, util.FormatValueFactor(results[name][i], "V"))
			}
			for _, name := range currentNames {
				fmt.Fprintf(w, "%s=%s  ", name, util.FormatValueFactor(results[name][i], "A"))
			}
			fmt.Fprintln(w)
		}
		return
	}

	// Operating point
	voltageNames, currentNames := signalNames(results, "")
	fmt.Fprintln(w, "\nNode Voltages:")
	for _, name := range voltageNames {
		fmt.Fprintf(w, "%s = %s\n", name, util.FormatValueFactor(results[name][0], "V"))
	}
	fmt.Fprintln(w, "\nBranch Currents:")
	for _, name := range currentNames {
		fmt.Fprintf(w, "%s = %s\n", name, util.FormatValueFactor(results[name][0], "A"))
	}
}
