package bodeplot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-acdc/pkg/analysis"
)

func TestBodeWritesPNG(t *testing.T) {
	s := analysis.NewACSweep(10, 1e5, 10, analysis.WithSpacing(analysis.Decade))
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 1, 0))
	require.NoError(t, s.AddResistor(1, 2, 1e3))
	require.NoError(t, s.AddCapacitor(2, 0, 1e-6))
	res, err := s.Solve()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bode.png")
	err = Bode(path, res.Frequencies, []Trace{
		{Name: "V(1)", Values: res.Voltages[0]},
		{Name: "V(2)", Values: res.Voltages[1]},
	}, Options{Title: "rc low pass", LogX: true})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestBodeSkipsNonFinite(t *testing.T) {
	freqs := []float64{1, 2, 3}
	path := filepath.Join(t.TempDir(), "zero.png")
	err := Bode(path, freqs, []Trace{{Name: "V(x)", Values: []complex128{0, 1, 1i}}}, Options{})
	require.NoError(t, err)

	pts := points(freqs, analysis.Decibels([]complex128{0, 1, 1i}), false)
	assert.Len(t, pts, 2)
}

func TestBodeRejectsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")

	err := Bode(path, []float64{1, 2}, []Trace{{Name: "V(x)", Values: []complex128{1}}}, Options{})
	assert.ErrorContains(t, err, "V(x)")

	assert.Error(t, Bode(path, []float64{1}, nil, Options{}))
}
