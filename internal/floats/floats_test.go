package floats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// assertSeries compares float slices treating NaN as equal to NaN.
func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func TestShift(t *testing.T) {
	v := []float64{1, 2, 3, 4}

	assertSeries(t, []float64{nan, 1, 2, 3}, Shift(v, 1))
	assertSeries(t, []float64{3, 4, nan, nan}, Shift(v, -2))
	assertSeries(t, v, Shift(v, 0))
	assertSeries(t, []float64{nan, nan, nan, nan}, Shift(v, 5))
}

func TestRollingMean(t *testing.T) {
	v := []float64{1, 2, 3, 4, 5}

	assertSeries(t, []float64{nan, nan, 2, 3, 4}, RollingMean(v, 3))
	assertSeries(t, v, RollingMean(v, 1))
	assertSeries(t, []float64{nan, nan, nan, nan, nan}, RollingMean(v, 6))
}

func TestRollingMean_NaNWindow(t *testing.T) {
	v := []float64{1, nan, 3, 4, 5}

	// Any window touching the NaN is NaN itself.
	assertSeries(t, []float64{nan, nan, nan, nan, 4}, RollingMean(v, 3))
}

func TestRollingStd(t *testing.T) {
	v := []float64{2, 4, 6, 8}

	got := RollingStd(v, 3)
	assertSeries(t, []float64{nan, nan, 2, 2}, got)

	// Width 1 has no sample deviation.
	assertSeries(t, []float64{nan, nan, nan, nan}, RollingStd(v, 1))
}

func TestRollingMax(t *testing.T) {
	v := []float64{3, 1, 4, 1, 5}

	assertSeries(t, []float64{nan, 3, 4, 4, 5}, RollingMax(v, 2))
	assertSeries(t, []float64{nan, nan, 4, 4, 5}, RollingMax(v, 3))
}

func TestRollingDot(t *testing.T) {
	v := []float64{1, 2, 3, 4}
	exps := []float64{0.5, 0.25}

	// out[i] = v[i-1]*0.5 + v[i]*0.25
	assertSeries(t, []float64{nan, 1.0, 1.75, 2.5}, RollingDot(v, exps))
}

func TestExpanding(t *testing.T) {
	v := []float64{2, 4, 6}

	assertSeries(t, []float64{nan, 3, 4}, ExpandingMean(v, 2))
	assertSeries(t, []float64{2, 3, 4}, ExpandingMean(v, 1))
	assertSeries(t, []float64{nan, math.Sqrt(2), 2}, ExpandingStd(v, 2))
}

func TestExpanding_SkipsNaN(t *testing.T) {
	v := []float64{2, nan, 4, 6}

	// NaN rows neither count toward minPeriods nor poison later prefixes.
	assertSeries(t, []float64{nan, nan, 3, 4}, ExpandingMean(v, 2))
	assertSeries(t, []float64{nan, nan, math.Sqrt(2), 2}, ExpandingStd(v, 2))
}

func TestCumMax(t *testing.T) {
	v := []float64{1, 3, 2, nan, 5, 4}

	assertSeries(t, []float64{1, 3, 3, 3, 5, 5}, CumMax(v))
	assertSeries(t, []float64{nan, 1, 1}, CumMax([]float64{nan, 1, 0.5}))
}

func TestLogs(t *testing.T) {
	assertSeries(t, []float64{0, 1}, Log([]float64{1, math.E}))
	assertSeries(t, []float64{0, 2}, Log10([]float64{1, 100}))
	assert.True(t, math.IsNaN(Log([]float64{-1})[0]))
}

func TestCoalesceNz(t *testing.T) {
	a := []float64{1, nan, 3}
	b := []float64{9, 2, 9}

	assertSeries(t, []float64{1, 2, 3}, Coalesce(a, b))
	assertSeries(t, []float64{1, 0, 3}, Nz(a))
}

func TestFills(t *testing.T) {
	v := []float64{nan, 1, nan, nan, 4, nan}

	assertSeries(t, []float64{nan, 1, 1, 1, 4, 4}, ForwardFill(v))
	assertSeries(t, []float64{1, 1, 4, 4, 4, nan}, BackFill(v))
}

func TestInterpLinear(t *testing.T) {
	// Uneven x spacing weights the gap toward the nearer neighbor.
	x := []float64{0, 1, 4}
	v := []float64{10, nan, 40}

	assertSeries(t, []float64{10, 17.5, 40}, InterpLinear(x, v))
}

func TestInterpLinear_Edges(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	v := []float64{nan, 1, 2, nan}

	// Leading NaN stays, trailing NaN takes the last known value.
	assertSeries(t, []float64{nan, 1, 2, 2}, InterpLinear(x, v))
}

func TestInterpQuadratic(t *testing.T) {
	// Points on y = x^2 recover the parabola exactly.
	x := []float64{0, 1, 2, 3}
	v := []float64{0, 1, nan, 9}

	assertSeries(t, []float64{0, 1, 4, 9}, InterpQuadratic(x, v))
}

func TestInterpQuadratic_FallsBackToLinear(t *testing.T) {
	x := []float64{0, 1, 2}
	v := []float64{0, nan, 4}

	assertSeries(t, []float64{0, 2, 4}, InterpQuadratic(x, v))
}

func TestNaNs(t *testing.T) {
	got := NaNs(3)
	require.Len(t, got, 3)
	for _, x := range got {
		assert.True(t, math.IsNaN(x))
	}
}
