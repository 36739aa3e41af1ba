package uncertain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		sig  int
		want string
	}{
		{"standard error", New(2, 1/math.Sqrt(3)), 3, "2.000+/-0.577"},
		{"two digits", New(9.81234, 0.0123), 2, "9.812+/-0.012"},
		{"integer deviation", New(1234.5, 56), 1, "1230+/-60"},
		{"negative nominal", New(-3.14159, 0.02), 1, "-3.14+/-0.02"},
		{"large", New(1234567, 1234), 2, "(1.2346+/-0.0012)e+06"},
		{"small", New(1.5e-6, 2e-8), 1, "(1.50+/-0.02)e-06"},
		{"exact", Exact(2.5), 3, "2.5+/-0"},
		{"sig floor", New(1, 0.26), 0, "1.0+/-0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Format(tt.sig))
		})
	}
}

func TestStringUsesDefaultDigits(t *testing.T) {
	assert.Equal(t, "2.00+/-0.58", New(2, 1/math.Sqrt(3)).String())
}

func TestLaTeX(t *testing.T) {
	assert.Equal(t, `2.000 \pm 0.577`, New(2, 1/math.Sqrt(3)).LaTeX(3))
	assert.Equal(t, `\left(1.2346 \pm 0.0012\right) \times 10^{6}`, New(1234567, 1234).LaTeX(2))
}

func TestParse(t *testing.T) {
	v, err := Parse("9.81 +/- 0.02")
	require.NoError(t, err)
	assert.Equal(t, 9.81, v.Nominal())
	assert.InDelta(t, 0.02, v.StdDev(), 1e-15)

	v, err = Parse("3±0.5")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v.StdDev(), 1e-15)

	v, err = Parse("42")
	require.NoError(t, err)
	assert.True(t, v.IsExact())

	for _, bad := range []string{"", "abc", "1+/-x", "y+/-1", "1+/--2"} {
		_, err := Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
