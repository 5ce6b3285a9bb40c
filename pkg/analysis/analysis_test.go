package analysis

import (
	"bytes"
	"math"
	"math/cmplx"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edp1096/toy-acdc/pkg/circuit"
	"github.com/edp1096/toy-acdc/pkg/device"
	"github.com/edp1096/toy-acdc/pkg/matrix"
	"github.com/edp1096/toy-acdc/pkg/mna"
	"github.com/edp1096/toy-acdc/pkg/netlist"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestVoltageDivider(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddIndependentVoltageSource(1, 0, 0, 5))
	require.NoError(t, dc.AddResistor(1, 2, 4.7))
	require.NoError(t, dc.AddResistor(2, 0, 4.7))

	v, i, err := dc.Solve()
	require.NoError(t, err)
	require.Len(t, v, 2)
	require.Len(t, i, 1)

	assert.InDelta(t, 2.5, v[1], 1e-9)
	assert.InDelta(t, 5.0, v[0], 1e-9)
}

func TestResistorLadder(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddResistor(1, 0, 50))
	require.NoError(t, dc.AddResistor(2, 1, 50))
	require.NoError(t, dc.AddIndependentVoltageSource(2, 0, 0, 5))

	v, i, err := dc.Solve()
	require.NoError(t, err)

	want := []float64{2.5, 5.0, -0.05}
	got := append(append([]float64{}, v...), i...)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("solution mismatch (-want +got):\n%s", diff)
	}
}

func TestFloatingNodeIsSingular(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddIndependentVoltageSource(1, 0, 0, 1))
	require.NoError(t, dc.AddResistor(1, 0, 1e3))
	// Node 2 only sees a capacitor, which is open at DC.
	require.NoError(t, dc.AddCapacitor(1, 2, 1e-6))

	_, _, err := dc.Solve()
	require.Error(t, err)
	assert.ErrorIs(t, err, matrix.ErrSingular)
}

func TestCurrentSourceOnlyNodeIsSingular(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddIndependentCurrentSource(0, 1, 1e-3))

	_, _, err := dc.Solve()
	assert.ErrorIs(t, err, matrix.ErrSingular)
}

func TestCurrentSourceIntoResistor(t *testing.T) {
	dc := NewDC()
	// 2 mA leaves ground through the source and enters node 1.
	require.NoError(t, dc.AddIndependentCurrentSource(0, 1, 2e-3))
	require.NoError(t, dc.AddResistor(1, 0, 1e3))

	v, i, err := dc.Solve()
	require.NoError(t, err)
	assert.Empty(t, i)
	assert.InDelta(t, 2.0, v[0], 1e-12)
}

func TestGroup2CurrentSource(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddIndependentCurrentSource(0, 1, 2e-3, WithBranch(0)))
	require.NoError(t, dc.AddResistor(1, 0, 1e3))

	v, i, err := dc.Solve()
	require.NoError(t, err)
	require.Len(t, i, 1)
	assert.InDelta(t, 2.0, v[0], 1e-12)
	assert.InDelta(t, 2e-3, i[0], 1e-15)
}

func TestSingleCapacitorAC(t *testing.T) {
	const c = 1e-9
	ac := NewAC(100)
	require.NoError(t, ac.AddIndependentVoltageSource(1, 0, 0, 5, 0))
	require.NoError(t, ac.AddCapacitor(1, 0, c))

	v, i, err := ac.Solve()
	require.NoError(t, err)

	omega := 2 * math.Pi * 100
	assert.InDelta(t, 5.0, cmplx.Abs(v[0]), 1e-9)
	assert.InDelta(t, omega*c*5, cmplx.Abs(i[0]), 1e-15)
	// Source current is -jωCV.
	assert.InDelta(t, -90.0, PhaseDegrees(i)[0], 1e-9)
}

func TestSolveTwice(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddIndependentVoltageSource(1, 0, 0, 1))
	require.NoError(t, dc.AddResistor(1, 0, 1))

	_, _, err := dc.Solve()
	require.NoError(t, err)

	_, _, err = dc.Solve()
	assert.ErrorIs(t, err, ErrAlreadySolved)
	assert.ErrorIs(t, dc.AddResistor(1, 0, 1), ErrAlreadySolved)

	s := NewACSweep(1, 2, 3)
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 1, 0))
	require.NoError(t, s.AddResistor(1, 0, 1))
	_, err = s.Solve()
	require.NoError(t, err)
	_, err = s.Solve()
	assert.ErrorIs(t, err, ErrAlreadySolved)
}

func TestRejectedElementFailsSolve(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddIndependentVoltageSource(1, 0, 0, 1))
	require.NoError(t, dc.AddResistor(1, 0, 1e3))
	require.NoError(t, dc.AddResistor(2, 0, 1e3))

	err := dc.AddVCVS(2, 0, 1, 1, 1, 3)
	require.ErrorIs(t, err, mna.ErrSameNode)

	v, i, err := dc.Solve()
	assert.ErrorIs(t, err, mna.ErrSameNode)
	assert.ErrorContains(t, err, "E1")
	assert.Nil(t, v)
	assert.Nil(t, i)
}

func TestExecuteOnce(t *testing.T) {
	data, err := netlist.Parse("rc\nV1 in 0 1 AC 1\nR1 in out 1k\nC1 out 0 1u\n")
	require.NoError(t, err)
	ckt, err := circuit.FromNetlist(data, nil)
	require.NoError(t, err)

	analyses := map[string]Analysis{
		"op": NewOP(),
		"ac": NewFrequencyResponse(1, 2, 3),
		"dc": NewDCTransfer("V1", 0, 1, 0.5),
	}
	for name, an := range analyses {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, an.Setup(ckt))
			require.NoError(t, an.Execute())
			before := seriesLen(an.GetResults())
			require.NotZero(t, before)

			assert.ErrorIs(t, an.Execute(), ErrAlreadySolved)
			assert.Equal(t, before, seriesLen(an.GetResults()))
		})
	}
}

func seriesLen(results map[string][]float64) int {
	n := 0
	for _, series := range results {
		n += len(series)
	}
	return n
}

func TestControlledSources(t *testing.T) {
	tests := []struct {
		name  string
		build func(dc *DCAnalysis) error
		want  float64
	}{
		{
			name: "VCVS",
			build: func(dc *DCAnalysis) error {
				return dc.AddVCVS(2, 0, 1, 0, 1, 3)
			},
			want: 3,
		},
		{
			name: "VCCS",
			build: func(dc *DCAnalysis) error {
				return dc.AddVCCS(2, 0, 1, 0, 1e-3)
			},
			want: -1,
		},
		{
			name: "CCCS",
			build: func(dc *DCAnalysis) error {
				return dc.AddCCCS(2, 0, 0, 2)
			},
			want: 2,
		},
		{
			name: "CCVS",
			build: func(dc *DCAnalysis) error {
				return dc.AddCCVS(2, 0, 1, 0, 500)
			},
			want: -0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 1 V across 1 kΩ, so the source carries -1 mA on edge 0.
			dc := NewDC()
			require.NoError(t, dc.AddIndependentVoltageSource(1, 0, 0, 1))
			require.NoError(t, dc.AddResistor(1, 0, 1e3))
			require.NoError(t, dc.AddResistor(2, 0, 1e3))
			require.NoError(t, tt.build(dc))

			v, i, err := dc.Solve()
			require.NoError(t, err)
			assert.InDelta(t, -1e-3, i[0], 1e-15)
			assert.InDelta(t, tt.want, v[1], 1e-9)
		})
	}
}

func TestInductorAtDC(t *testing.T) {
	dc := NewDC()
	require.NoError(t, dc.AddIndependentVoltageSource(1, 0, 0, 1))
	require.NoError(t, dc.AddInductor(1, 2, 1e-3, WithBranch(1)))
	require.NoError(t, dc.AddResistor(2, 0, 100))

	v, i, err := dc.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v[1], 1e-12, "inductor is a short at DC")
	assert.InDelta(t, 0.01, i[1], 1e-12)
}

func TestFrequencies(t *testing.T) {
	tests := []struct {
		name    string
		spacing Spacing
		start   float64
		stop    float64
		n       int
		want    []float64
	}{
		{"linear half open", Linear, 1, 2, 3, []float64{1, 4.0 / 3, 5.0 / 3}},
		{"linear single", Linear, 10, 20, 1, []float64{10}},
		{"decade", Decade, 1, 100, 1, []float64{1, 10, 100}},
		{"decade two per", Decade, 1, 10, 2, []float64{1, math.Sqrt(10), 10}},
		{"octave", Octave, 100, 800, 1, []float64{100, 200, 400, 800}},
		{"octave stops short", Octave, 100, 700, 1, []float64{100, 200, 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Frequencies(tt.spacing, tt.start, tt.stop, tt.n)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(1e-12, 0)); diff != "" {
				t.Errorf("frequencies mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFrequenciesRejectsBadInput(t *testing.T) {
	_, err := Frequencies(Linear, 1, 2, 0)
	assert.Error(t, err)

	_, err = Frequencies(Decade, 0, 100, 10)
	assert.Error(t, err)

	_, err = Frequencies(Linear, 2, 1, 3)
	assert.Error(t, err)
}

func TestParseSpacing(t *testing.T) {
	for _, s := range []Spacing{Linear, Decade, Octave} {
		got, err := ParseSpacing(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseSpacing("dec")
	require.NoError(t, err)
	assert.Equal(t, Decade, got)

	_, err = ParseSpacing("log")
	assert.Error(t, err)
}

func TestSweepShape(t *testing.T) {
	s := NewACSweep(1, 2, 3)
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 1, 0))
	require.NoError(t, s.AddResistor(1, 2, 1e3))
	require.NoError(t, s.AddCapacitor(2, 0, 1e-6))

	res, err := s.Solve()
	require.NoError(t, err)

	require.Len(t, res.Frequencies, 3)
	require.Len(t, res.Voltages, 2)
	require.Len(t, res.Currents, 1)
	for _, series := range res.Voltages {
		assert.Len(t, series, 3)
	}
	assert.Len(t, res.Currents[0], 3)
}

func rcLowPass(t *testing.T, workers int) *SweepResult {
	t.Helper()

	s := NewACSweep(10, 1e5, 20, WithSpacing(Decade), WithWorkers(workers))
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 1, 0))
	require.NoError(t, s.AddResistor(1, 2, 1e3))
	require.NoError(t, s.AddCapacitor(2, 0, 1e-6))

	res, err := s.Solve()
	require.NoError(t, err)
	return res
}

func TestParallelSweepMatchesSequential(t *testing.T) {
	seq := rcLowPass(t, 1)
	par := rcLowPass(t, 8)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("parallel sweep differs (-seq +par):\n%s", diff)
	}

	rc := 1e3 * 1e-6
	for k, f := range seq.Frequencies {
		want := 1 / complex(1, 2*math.Pi*f*rc)
		assert.InDelta(t, 0.0, cmplx.Abs(seq.Voltages[1][k]-want), 1e-9, "f=%g", f)
	}
}

func TestSweepReportsSampleError(t *testing.T) {
	s := NewACSweep(1, 10, 4, WithWorkers(2))
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 1, 0))
	require.NoError(t, s.AddCapacitor(1, 2, 1e-6))

	// A node held only by a capacitor is fine away from DC.
	_, err := s.Solve()
	require.NoError(t, err)

	s = NewACSweep(1, 10, 4, WithWorkers(2))
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 1, 0))
	require.NoError(t, s.AddIndependentCurrentSource(0, 2, 1, 0))
	_, err = s.Solve()
	assert.ErrorIs(t, err, matrix.ErrSingular)
	assert.ErrorContains(t, err, "f=")
}

func TestSweepValues(t *testing.T) {
	got, err := SweepValues(0, 1, 0.25)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1}, got, 1e-12)

	got, err = SweepValues(5, 0, -2.5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2.5, 0}, got, 1e-12)

	got, err = SweepValues(3, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, got)

	_, err = SweepValues(0, 1, 0)
	assert.Error(t, err)

	_, err = SweepValues(0, 1, -0.1)
	assert.Error(t, err)
}

func TestDCSweep(t *testing.T) {
	s := NewDCSweep("Vin", 0, 10, 2.5)
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 3, WithName("Vin")))
	require.NoError(t, s.AddResistor(1, 2, 1e3))
	require.NoError(t, s.AddResistor(2, 0, 1e3))

	res, err := s.Solve()
	require.NoError(t, err)

	require.Len(t, res.Values, 5)
	assert.InDeltaSlice(t, []float64{0, 1.25, 2.5, 3.75, 5}, res.Voltages[1], 1e-12)
	assert.InDeltaSlice(t, []float64{0, -1.25e-3, -2.5e-3, -3.75e-3, -5e-3}, res.Currents[0], 1e-15)

	_, err = s.Solve()
	assert.ErrorIs(t, err, ErrAlreadySolved)
}

func TestDCSweepUnknownSource(t *testing.T) {
	s := NewDCSweep("V9", 0, 1, 1)
	require.NoError(t, s.AddIndependentVoltageSource(1, 0, 0, 1))
	require.NoError(t, s.AddResistor(1, 0, 1))

	_, err := s.Solve()
	assert.ErrorContains(t, err, "V9")
}

func TestBode(t *testing.T) {
	series := []complex128{0, 1i, -1, complex(3, 4)}

	assert.Equal(t, []float64{0, 1, 1, 5}, Magnitude(series))
	assert.InDeltaSlice(t, []float64{0, 90, 180, 53.13010235415598}, PhaseDegrees(series), 1e-9)

	db := Decibels([]complex128{10, 0.1, 0})
	assert.InDelta(t, 20.0, db[0], 1e-12)
	assert.InDelta(t, -20.0, db[1], 1e-12)
	assert.True(t, math.IsInf(db[2], -1))
}

func runNetlist(t *testing.T, src string, opts ...Option) map[string][]float64 {
	t.Helper()

	data, err := netlist.Parse(src)
	require.NoError(t, err)
	ckt, err := circuit.FromNetlist(data, nil)
	require.NoError(t, err)

	an, err := FromNetlist(data, opts...)
	require.NoError(t, err)
	require.NoError(t, an.Setup(ckt))
	require.NoError(t, an.Execute())

	return an.GetResults()
}

func TestOperatingPointFromNetlist(t *testing.T) {
	results := runNetlist(t, `divider
V1 in 0 5
R1 in out 4.7
R2 out 0 4.7
.op
.end
`)

	assert.InDelta(t, 2.5, results["V(out)"][0], 1e-9)
	assert.InDelta(t, 5.0, results["V(in)"][0], 1e-9)
	assert.InDelta(t, -5/9.4, results["I(V1)"][0], 1e-12)
	assert.InDelta(t, 2.5/4.7, results["I(R2)"][0], 1e-12)
}

func TestFrequencyResponseFromNetlist(t *testing.T) {
	results := runNetlist(t, `rc low pass
V1 in 0 AC 1
R1 in out 1k
C1 out 0 1u
.ac dec 10 10 100k
`, WithWorkers(4))

	freqs := results["FREQ"]
	require.Len(t, freqs, 41)
	assert.InDelta(t, 10.0, freqs[0], 1e-9)
	assert.InDelta(t, 1e5, freqs[40], 1e-6)

	mag := results["V(out)_MAG"]
	phase := results["V(out)_PHASE"]
	require.Len(t, mag, len(freqs))
	require.Len(t, phase, len(freqs))

	for k, f := range freqs {
		wrc := 2 * math.Pi * f * 1e-3
		assert.InDelta(t, 1/math.Sqrt(1+wrc*wrc), mag[k], 1e-9, "f=%g", f)
		assert.InDelta(t, -math.Atan(wrc)*180/math.Pi, phase[k], 1e-6, "f=%g", f)
	}
}

func TestDCTransferFromNetlist(t *testing.T) {
	results := runNetlist(t, `sweep
Vin in 0 1
R1 in out 1k
R2 out 0 3k
.dc Vin 0 4 1
`)

	assert.InDeltaSlice(t, []float64{0, 1, 2, 3, 4}, results["SWEEP1"], 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.75, 1.5, 2.25, 3}, results["V(out)"], 1e-12)
}

func TestDCTransferRestoresSource(t *testing.T) {
	data, err := netlist.Parse("restore\nVin 1 0 7\nR1 1 0 1k\n.dc Vin 0 1 0.5\n")
	require.NoError(t, err)
	ckt, err := circuit.FromNetlist(data, nil)
	require.NoError(t, err)

	an := NewDCTransfer("Vin", 0, 1, 0.5)
	require.NoError(t, an.Setup(ckt))
	require.NoError(t, an.Execute())

	dev, ok := ckt.GetDevice("Vin")
	require.True(t, ok)
	assert.Equal(t, 7.0, dev.GetValue())
}

func TestDCTransferRejectsPassive(t *testing.T) {
	data, err := netlist.Parse("bad\nV1 1 0 1\nR1 1 0 1k\n")
	require.NoError(t, err)
	ckt, err := circuit.FromNetlist(data, nil)
	require.NoError(t, err)

	assert.ErrorContains(t, NewDCTransfer("R1", 0, 1, 1).Setup(ckt), "not an independent source")
	assert.ErrorContains(t, NewDCTransfer("V7", 0, 1, 1).Setup(ckt), "not found")
}

func TestNonlinearDeviceRejected(t *testing.T) {
	data, err := netlist.Parse("diode\nV1 1 0 1\nR1 1 2 1k\nD1 2 0 dmod\n.model dmod D(is=1e-14)\n.op\n")
	require.NoError(t, err)
	ckt, err := circuit.FromNetlist(data, nil)
	require.NoError(t, err)

	op := NewOP()
	require.NoError(t, op.Setup(ckt))
	assert.ErrorContains(t, op.Execute(), "D1")
}

func TestPrintSystem(t *testing.T) {
	data, err := netlist.Parse("print\nV1 1 0 5\nR1 1 2 1k\nC1 2 0 1u\n")
	require.NoError(t, err)
	ckt, err := circuit.FromNetlist(data, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintSystem(&buf, ckt, &device.CircuitStatus{Mode: device.OperatingPointAnalysis}, nil))
	assert.Contains(t, buf.String(), "Circuit Equations (3x3)")
	assert.Contains(t, buf.String(), "= 5")

	buf.Reset()
	status := &device.CircuitStatus{Mode: device.ACAnalysis, Frequency: 1e3}
	require.NoError(t, PrintSystem(&buf, ckt, status, nil))
	assert.Contains(t, buf.String(), "j")
}
