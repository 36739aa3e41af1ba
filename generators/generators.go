// Package generators builds axis tick sets and padded sample ranges for plots.
package generators

import (
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/floats"

	"physlab/domain/plot"
	"physlab/internal/errors"
)

// MaxPiDenominator bounds the fractions used in π tick labels
const MaxPiDenominator = 10

// PiAxis returns count evenly spaced ticks over [start, end] with labels
// written as fractions of π
func PiAxis(start, end float64, count int) (plot.AxisSpec, error) {
	if count < 2 {
		return plot.AxisSpec{}, errors.InsufficientData(fmt.Sprintf("pi axis needs at least 2 ticks, got %d", count))
	}

	step := (end - start) / float64(count-1)
	spec := plot.AxisSpec{
		Ticks:  make([]float64, count),
		Labels: make([]string, count),
	}
	for i := 0; i < count; i++ {
		tick := start + step*float64(i)
		spec.Ticks[i] = tick
		spec.Labels[i] = PiLabel(tick)
	}
	return spec, nil
}

// DefaultPiAxis is PiAxis(0, 2π, 5)
func DefaultPiAxis() plot.AxisSpec {
	spec, _ := PiAxis(0, 2*math.Pi, 5)
	return spec
}

// PiLabel renders v as a LaTeX multiple of π, e.g. "$\frac{3}{2}\pi$"
func PiLabel(v float64) string {
	r := LimitDenominator(v/math.Pi, MaxPiDenominator)
	num, den := r.Num(), r.Denom()

	switch {
	case num.Sign() == 0:
		return "0"
	case den.IsInt64() && den.Int64() == 1:
		switch num.Int64() {
		case 1:
			return `$\pi$`
		case -1:
			return `$-\pi$`
		}
		return fmt.Sprintf(`$%s\pi$`, num)
	case num.Sign() < 0:
		return fmt.Sprintf(`$-\frac{%s}{%s}\pi$`, new(big.Int).Neg(num), den)
	}
	return fmt.Sprintf(`$\frac{%s}{%s}\pi$`, num, den)
}

// LimitDenominator returns the closest fraction to v whose denominator is
// at most maxDen, walking the continued-fraction convergents of the exact
// binary value of v
func LimitDenominator(v float64, maxDen int64) *big.Rat {
	exact := new(big.Rat)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return exact
	}
	exact.SetFloat64(v)
	limit := big.NewInt(maxDen)
	if exact.Denom().Cmp(limit) <= 0 {
		return exact
	}

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(exact.Num())
	d := new(big.Int).Set(exact.Denom())
	for {
		// d stays positive, so Euclidean division floors
		a := new(big.Int).Div(n, d)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(limit) > 0 {
			break
		}
		p2 := new(big.Int).Add(p0, new(big.Int).Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, p2, q2
		n, d = d, new(big.Int).Sub(n, new(big.Int).Mul(a, d))
	}

	k := new(big.Int).Div(new(big.Int).Sub(limit, q0), q1)
	bound1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	bound2 := new(big.Rat).SetFrac(p1, q1)

	dist1 := new(big.Rat).Abs(new(big.Rat).Sub(bound1, exact))
	dist2 := new(big.Rat).Abs(new(big.Rat).Sub(bound2, exact))
	if dist2.Cmp(dist1) <= 0 {
		return bound2
	}
	return bound1
}

// ExpandLinspace returns count evenly spaced points over the range widened
// by 10% of each bound's magnitude: [lo − 0.1·|lo|, hi + 0.1·|hi|]
func ExpandLinspace(lo, hi float64, count int) []float64 {
	lower := lo - math.Abs(lo*0.1)
	upper := hi + math.Abs(hi*0.1)
	switch {
	case count <= 0:
		return nil
	case count == 1:
		return []float64{lower}
	}
	return floats.Span(make([]float64, count), lower, upper)
}
