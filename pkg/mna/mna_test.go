package mna

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymmetricGroup1IsMirrored(t *testing.T) {
	pairs := [][2]int{{1, 2}, {2, 1}, {1, 3}, {3, 2}, {4, 1}}
	for _, p := range pairs {
		m := NewMatrix[float64]()
		require.NoError(t, m.AddSymmetricGroup1(p[0], p[1], 2, -2))

		a, b := p[0]-1, p[1]-1
		assert.Equal(t, m.Get(a, b), m.Get(b, a), "pair %v", p)
		assert.Equal(t, -2.0, m.Get(a, b))
		assert.Equal(t, 2.0, m.Get(a, a))
		assert.Equal(t, 2.0, m.Get(b, b))
	}
}

func TestStampsAccumulate(t *testing.T) {
	m := NewMatrix[float64]()
	require.NoError(t, m.AddSymmetricGroup1(1, 2, 0.5, -0.5))
	require.NoError(t, m.AddSymmetricGroup1(1, 2, 0.25, -0.25))

	assert.Equal(t, 0.75, m.Get(0, 0))
	assert.Equal(t, -0.75, m.Get(0, 1))
}

func TestGroundIsEliminated(t *testing.T) {
	b := NewBuilder[float64](nil)
	require.NoError(t, b.AddSymmetricGroup1(1, 0, 1, -1))
	require.NoError(t, b.AddSymmetricGroup1(0, 2, 3, -3))
	require.NoError(t, b.AddSymmetricGroup2(0, 2, 0, 1, -1, 0))
	require.NoError(t, b.AddRHSGroup1(0, 7))

	sys, err := b.Assemble()
	require.NoError(t, err)

	// Two nodes and one edge, nothing else.
	a := sys.Matrix()
	assert.Equal(t, 3, a.Rows())
	assert.Equal(t, 3, a.Cols())
	assert.Equal(t, 1.0, a.Get(0, 0))
	assert.Equal(t, 3.0, a.Get(1, 1))
	assert.Equal(t, 0.0, a.Get(0, 1))
	assert.Equal(t, -1.0, a.Get(1, 2))
	assert.Equal(t, -1.0, a.Get(2, 1))
	assert.Equal(t, []float64{0, 0, 0}, sys.RHS())
}

func TestSameNodeRejected(t *testing.T) {
	m := NewMatrix[float64]()

	assert.ErrorIs(t, m.AddSymmetricGroup1(2, 2, 1, -1), ErrSameNode)
	assert.ErrorIs(t, m.AddSymmetricGroup2(0, 0, 0, 1, -1, 0), ErrSameNode)
	assert.ErrorIs(t, m.AddUnsymmetricRightGroup2(1, 1, 0, 1, -1, 0), ErrSameNode)
	assert.ErrorIs(t, m.AddTransconductance(1, 2, 3, 3, 1), ErrSameNode)
	assert.ErrorIs(t, m.AddSymmetricGroup1(-1, 2, 1, -1), ErrInvalidIndex)
	assert.ErrorIs(t, m.AddGroup2Value(0, -1, 1), ErrInvalidIndex)

	assert.Zero(t, m.NumVoltageNodes(), "rejected stamps do not grow dimensions")
	assert.Zero(t, m.NumCurrentEdges())
}

func TestDimensionTracking(t *testing.T) {
	m := NewMatrix[float64]()
	require.NoError(t, m.AddSymmetricGroup1(3, 1, 1, -1))
	assert.Equal(t, 3, m.NumVoltageNodes())
	assert.Equal(t, 0, m.NumCurrentEdges())

	require.NoError(t, m.AddSymmetricGroup2(1, 0, 2, 1, -1, 0))
	assert.Equal(t, 3, m.NumCurrentEdges())

	m.Reserve(5, -1)
	assert.Equal(t, 5, m.NumVoltageNodes())

	a, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, 8, a.Rows())
	assert.Equal(t, 8, a.Cols())
}

func TestAssembleLayout(t *testing.T) {
	// 50 ohm 1-0, 50 ohm 2-1, 5V source 2-0 on edge 0.
	const g = 1.0 / 50
	b := NewBuilder[float64](nil)
	require.NoError(t, b.AddSymmetricGroup1(1, 0, g, -g))
	require.NoError(t, b.AddSymmetricGroup1(2, 1, g, -g))
	require.NoError(t, b.AddSymmetricGroup2(2, 0, 0, 1, -1, 0))
	require.NoError(t, b.AddRHSGroup2(0, 5))

	sys, err := b.Assemble()
	require.NoError(t, err)

	want := [][]float64{
		{2 * g, -g, 0},
		{-g, g, 1},
		{0, 1, 0},
	}
	assert.Equal(t, want, sys.Matrix().Dense())
	assert.Equal(t, []float64{0, 0, 5}, sys.RHS())

	sol, err := sys.Solve()
	require.NoError(t, err)

	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff([]float64{2.5, 5}, sol.Voltages, opt); diff != "" {
		t.Errorf("voltages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{-0.05}, sol.Currents, opt); diff != "" {
		t.Errorf("currents (-want +got):\n%s", diff)
	}
}

func TestBuilderConsumedByAssemble(t *testing.T) {
	b := NewBuilder[complex128](nil)
	require.NoError(t, b.AddSymmetricGroup1(1, 0, 1, -1))

	_, err := b.Assemble()
	require.NoError(t, err)

	assert.ErrorIs(t, b.AddSymmetricGroup1(1, 0, 1, -1), ErrConsumed)
	assert.ErrorIs(t, b.AddRHSGroup1(1, 1), ErrConsumed)
	_, err = b.Assemble()
	assert.ErrorIs(t, err, ErrConsumed)

	b.Reserve(9, 4)
	assert.Equal(t, 1, b.NumVoltageNodes(), "a consumed builder does not grow")
	assert.Zero(t, b.NumCurrentEdges())
}

func TestSystemSolvesOnce(t *testing.T) {
	b := NewBuilder[float64](nil)
	require.NoError(t, b.AddSymmetricGroup1(1, 0, 1, -1))
	require.NoError(t, b.AddRHSGroup1(1, 2))

	sys, err := b.Assemble()
	require.NoError(t, err)

	sol, err := sys.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, sol.Voltages[0], 1e-12)
	assert.Empty(t, sol.Currents)

	_, err = sys.Solve()
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestRHSInjectionReservesNode(t *testing.T) {
	b := NewBuilder[float64](nil)
	require.NoError(t, b.AddSymmetricGroup1(1, 0, 1, -1))
	require.NoError(t, b.AddRHSGroup1(3, 1))

	sys, err := b.Assemble()
	require.NoError(t, err)
	assert.Equal(t, 3, sys.NumVoltageNodes)
	assert.Equal(t, []float64{0, 0, 1}, sys.RHS())
}

func TestControlledStamps(t *testing.T) {
	m := NewMatrix[float64]()
	require.NoError(t, m.AddTransconductance(1, 2, 3, 0, 0.1))
	assert.Equal(t, 0.1, m.Get(0, 2))
	assert.Equal(t, -0.1, m.Get(1, 2))

	require.NoError(t, m.AddUnsymmetricBottomGroup2(1, 2, 0, -3, 3, 0))
	nv := m.NumVoltageNodes()
	assert.Equal(t, -3.0, m.Get(nv, 0))
	assert.Equal(t, 3.0, m.Get(nv, 1))
	assert.Equal(t, 0.0, m.Get(0, nv), "bottom stamp leaves the top-right block alone")

	require.NoError(t, m.AddGroup2Value(0, 1, -2))
	assert.Equal(t, -2.0, m.Get(nv, nv+1))
	assert.Equal(t, 2, m.NumCurrentEdges())
}

func TestPrint(t *testing.T) {
	b := NewBuilder[float64](nil)
	require.NoError(t, b.AddSymmetricGroup1(1, 0, 0.5, -0.5))
	require.NoError(t, b.AddSymmetricGroup2(1, 0, 0, 1, -1, 0))
	require.NoError(t, b.AddRHSGroup2(0, 3))

	sys, err := b.Assemble()
	require.NoError(t, err)

	var buf bytes.Buffer
	sys.Print(&buf)
	assert.Contains(t, buf.String(), "Circuit Equations (2x2)")
	assert.Contains(t, buf.String(), "Equation 1:  +0.5*x1  +1*x2 = 0")
	assert.Contains(t, buf.String(), "Equation 2:  +1*x1 = 3")
}
