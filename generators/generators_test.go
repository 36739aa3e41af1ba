package generators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/internal/errors"
)

func TestPiAxisDefault(t *testing.T) {
	spec := DefaultPiAxis()
	require.Equal(t, 5, spec.Len())

	want := []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2, 2 * math.Pi}
	for i := range want {
		assert.InDelta(t, want[i], spec.Ticks[i], 1e-12)
	}
	assert.Equal(t, []string{
		"0", `$\frac{1}{2}\pi$`, `$\pi$`, `$\frac{3}{2}\pi$`, `$2\pi$`,
	}, spec.Labels)
}

func TestPiAxisNegative(t *testing.T) {
	spec, err := PiAxis(-math.Pi, math.Pi, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`$-\pi$`, `$-\frac{1}{2}\pi$`, "0", `$\frac{1}{2}\pi$`, `$\pi$`,
	}, spec.Labels)
}

func TestPiAxisThirds(t *testing.T) {
	spec, err := PiAxis(0, math.Pi, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", `$\frac{1}{3}\pi$`, `$\frac{2}{3}\pi$`, `$\pi$`}, spec.Labels)
}

func TestPiAxisTooFewTicks(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		_, err := PiAxis(0, 1, n)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInsufficientData))
	}
}

func TestLimitDenominator(t *testing.T) {
	tests := []struct {
		v        float64
		max      int64
		num, den int64
	}{
		{math.Pi, 10, 22, 7},
		{math.Pi, 100, 311, 99},
		{0.5, 10, 1, 2},
		{-0.75, 10, -3, 4},
		{0.33333333, 10, 1, 3},
		{3, 10, 3, 1},
	}
	for _, tt := range tests {
		r := LimitDenominator(tt.v, tt.max)
		assert.Equal(t, tt.num, r.Num().Int64(), "%v", tt.v)
		assert.Equal(t, tt.den, r.Denom().Int64(), "%v", tt.v)
	}
}

func TestExpandLinspace(t *testing.T) {
	got := ExpandLinspace(0, 10, 3)
	require.Len(t, got, 3)
	assert.InDeltaSlice(t, []float64{0, 5.5, 11}, got, 1e-12)

	got = ExpandLinspace(-10, -2, 2)
	assert.InDeltaSlice(t, []float64{-11, -1.8}, got, 1e-12)

	assert.Equal(t, []float64{-1.1}, ExpandLinspace(-1, 5, 1))
	assert.Nil(t, ExpandLinspace(0, 1, 0))
}

func TestGeneratorsAreIdempotent(t *testing.T) {
	a, _ := PiAxis(0, 4*math.Pi, 9)
	b, _ := PiAxis(0, 4*math.Pi, 9)
	assert.Equal(t, a, b)
	assert.Equal(t, ExpandLinspace(1, 2, 7), ExpandLinspace(1, 2, 7))
}
