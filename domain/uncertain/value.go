// Package uncertain implements measured quantities: a nominal value paired
// with a standard deviation, with first-order propagation through
// arithmetic.
//
// Every value created with New is an independent variable with its own
// identity. Derived values remember how strongly they depend on each
// independent variable, so correlated expressions such as x-x or x/x come
// out exact instead of doubling the error.
package uncertain

import (
	"fmt"
	"math"

	"physlab/domain/core"
	"physlab/internal/errors"
)

// Value is an immutable uncertain number. The zero Value is exactly 0.
type Value struct {
	nominal float64
	// terms maps each independent variable to ∂value/∂variable · σ(variable)
	terms map[core.VariableID]float64
}

// New creates an independent uncertain value. A negative deviation is
// taken by magnitude.
func New(nominal, stdDev float64) Value {
	stdDev = math.Abs(stdDev)
	if stdDev == 0 {
		return Exact(nominal)
	}
	return Value{
		nominal: nominal,
		terms:   map[core.VariableID]float64{core.NewVariableID(): stdDev},
	}
}

// Exact creates a value with no uncertainty
func Exact(nominal float64) Value {
	return Value{nominal: nominal}
}

// From coerces a dynamically typed input into a Value
func From(v any) (Value, error) {
	switch t := v.(type) {
	case Value:
		return t, nil
	case *Value:
		if t != nil {
			return *t, nil
		}
	}
	return Value{}, errors.InvalidKind(fmt.Sprintf("expected an uncertain value, got %T", v))
}

// Nominal returns the nominal value
func (v Value) Nominal() float64 {
	return v.nominal
}

// StdDev returns the propagated standard deviation
func (v Value) StdDev() float64 {
	return math.Sqrt(v.Variance())
}

// Variance returns the squared standard deviation
func (v Value) Variance() float64 {
	var sum float64
	for _, t := range v.terms {
		sum += t * t
	}
	return sum
}

// IsExact reports whether the value carries no uncertainty
func (v Value) IsExact() bool {
	return v.Variance() == 0
}

// RelativeError returns σ/|nominal|, +Inf for a zero nominal with nonzero σ
func (v Value) RelativeError() float64 {
	s := v.StdDev()
	if s == 0 {
		return 0
	}
	return s / math.Abs(v.nominal)
}

// Covariance returns the covariance of two values through shared variables
func Covariance(a, b Value) float64 {
	var sum float64
	for id, ta := range a.terms {
		if tb, ok := b.terms[id]; ok {
			sum += ta * tb
		}
	}
	return sum
}

// Correlation returns the correlation coefficient of two values, 0 when
// either is exact
func Correlation(a, b Value) float64 {
	sa, sb := a.StdDev(), b.StdDev()
	if sa == 0 || sb == 0 {
		return 0
	}
	return Covariance(a, b) / (sa * sb)
}

// linear builds nominal with terms da·a.terms + db·b.terms
func linear(nominal float64, da float64, a Value, db float64, b Value) Value {
	if len(a.terms) == 0 && len(b.terms) == 0 {
		return Exact(nominal)
	}
	terms := make(map[core.VariableID]float64, len(a.terms)+len(b.terms))
	for id, t := range a.terms {
		terms[id] += da * t
	}
	for id, t := range b.terms {
		terms[id] += db * t
	}
	return Value{nominal: nominal, terms: terms}
}

func unary(nominal, d float64, a Value) Value {
	return linear(nominal, d, a, 0, Value{})
}

// Add returns v + o
func (v Value) Add(o Value) Value {
	return linear(v.nominal+o.nominal, 1, v, 1, o)
}

// Sub returns v - o
func (v Value) Sub(o Value) Value {
	return linear(v.nominal-o.nominal, 1, v, -1, o)
}

// Mul returns v · o
func (v Value) Mul(o Value) Value {
	return linear(v.nominal*o.nominal, o.nominal, v, v.nominal, o)
}

// Div returns v / o
func (v Value) Div(o Value) Value {
	return linear(v.nominal/o.nominal, 1/o.nominal, v, -v.nominal/(o.nominal*o.nominal), o)
}

// Neg returns -v
func (v Value) Neg() Value {
	return unary(-v.nominal, -1, v)
}

// Scale returns k · v
func (v Value) Scale(k float64) Value {
	return unary(k*v.nominal, k, v)
}

// Shift returns v + k
func (v Value) Shift(k float64) Value {
	return unary(v.nominal+k, 1, v)
}

// Pow returns v^p for a constant exponent
func (v Value) Pow(p float64) Value {
	if p == 0 {
		return Exact(1)
	}
	return unary(math.Pow(v.nominal, p), p*math.Pow(v.nominal, p-1), v)
}

// PowValue returns v^o where both base and exponent are uncertain
func (v Value) PowValue(o Value) Value {
	if o.IsExact() {
		return v.Pow(o.nominal)
	}
	n := math.Pow(v.nominal, o.nominal)
	return linear(n, o.nominal*math.Pow(v.nominal, o.nominal-1), v, n*math.Log(v.nominal), o)
}

// Sqrt returns √v
func (v Value) Sqrt() Value {
	r := math.Sqrt(v.nominal)
	return unary(r, 0.5/r, v)
}

// Abs returns |v|
func (v Value) Abs() Value {
	if v.nominal < 0 {
		return v.Neg()
	}
	return v
}

// Sin returns sin(v)
func (v Value) Sin() Value {
	return unary(math.Sin(v.nominal), math.Cos(v.nominal), v)
}

// Cos returns cos(v)
func (v Value) Cos() Value {
	return unary(math.Cos(v.nominal), -math.Sin(v.nominal), v)
}

// Tan returns tan(v)
func (v Value) Tan() Value {
	c := math.Cos(v.nominal)
	return unary(math.Tan(v.nominal), 1/(c*c), v)
}

// Asin returns asin(v)
func (v Value) Asin() Value {
	return unary(math.Asin(v.nominal), 1/math.Sqrt(1-v.nominal*v.nominal), v)
}

// Acos returns acos(v)
func (v Value) Acos() Value {
	return unary(math.Acos(v.nominal), -1/math.Sqrt(1-v.nominal*v.nominal), v)
}

// Atan returns atan(v)
func (v Value) Atan() Value {
	return unary(math.Atan(v.nominal), 1/(1+v.nominal*v.nominal), v)
}

// Sinh returns sinh(v)
func (v Value) Sinh() Value {
	return unary(math.Sinh(v.nominal), math.Cosh(v.nominal), v)
}

// Cosh returns cosh(v)
func (v Value) Cosh() Value {
	return unary(math.Cosh(v.nominal), math.Sinh(v.nominal), v)
}

// Tanh returns tanh(v)
func (v Value) Tanh() Value {
	t := math.Tanh(v.nominal)
	return unary(t, 1-t*t, v)
}

// Exp returns e^v
func (v Value) Exp() Value {
	e := math.Exp(v.nominal)
	return unary(e, e, v)
}

// Log returns the natural logarithm of v
func (v Value) Log() Value {
	return unary(math.Log(v.nominal), 1/v.nominal, v)
}

// Nominals extracts the nominal values of a slice
func Nominals(vs []Value) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v.nominal
	}
	return out
}

// StdDevs extracts the standard deviations of a slice
func StdDevs(vs []Value) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v.StdDev()
	}
	return out
}
