package bodeplot

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/edp1096/toy-acdc/pkg/analysis"
)

// Trace is one named complex series sampled at the sweep frequencies.
type Trace struct {
	Name   string
	Values []complex128
}

type Options struct {
	Title  string
	LogX   bool // decade and octave sweeps
	Width  vg.Length
	Height vg.Length
}

// Bode writes a PNG with magnitude (dB) above phase (degrees). Samples that
// have no finite value, such as 0 V in dB, are left out of the curve.
func Bode(path string, freqs []float64, traces []Trace, opts Options) error {
	if len(traces) == 0 {
		return fmt.Errorf("no traces to plot")
	}
	if opts.Width == 0 {
		opts.Width = 8 * vg.Inch
	}
	if opts.Height == 0 {
		opts.Height = 6 * vg.Inch
	}

	mag := newAxes(opts.Title, "Magnitude (dB)", opts.LogX)
	phase := newAxes("", "Phase (deg)", opts.LogX)

	for i, tr := range traces {
		if len(tr.Values) != len(freqs) {
			return fmt.Errorf("trace %s: %d samples for %d frequencies", tr.Name, len(tr.Values), len(freqs))
		}

		magLine, err := plotter.NewLine(points(freqs, analysis.Decibels(tr.Values), opts.LogX))
		if err != nil {
			return fmt.Errorf("trace %s magnitude: %w", tr.Name, err)
		}
		phaseLine, err := plotter.NewLine(points(freqs, analysis.PhaseDegrees(tr.Values), opts.LogX))
		if err != nil {
			return fmt.Errorf("trace %s phase: %w", tr.Name, err)
		}
		magLine.Color = plotutil.Color(i)
		phaseLine.Color = plotutil.Color(i)

		mag.Add(magLine)
		phase.Add(phaseLine)
		mag.Legend.Add(tr.Name, magLine)
	}

	img := vgimg.New(opts.Width, opts.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 2}
	canvases := plot.Align([][]*plot.Plot{{mag}, {phase}}, tiles, dc)
	mag.Draw(canvases[0][0])
	phase.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot: %w", err)
	}
	defer f.Close()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return fmt.Errorf("writing plot: %w", err)
	}
	return f.Close()
}

func newAxes(title, ylabel string, logX bool) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	if logX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return p
}

func points(freqs, ys []float64, logX bool) plotter.XYs {
	pts := make(plotter.XYs, 0, len(freqs))
	for i, f := range freqs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) || (logX && f <= 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: f, Y: ys[i]})
	}
	return pts
}
