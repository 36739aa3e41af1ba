package uncertain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"physlab/internal/errors"
)

// DefaultSigDigits is the number of significant digits String uses for the
// deviation
const DefaultSigDigits = 2

// String formats with DefaultSigDigits, e.g. "2.00+/-0.58"
func (v Value) String() string {
	return v.Format(DefaultSigDigits)
}

// Format rounds the deviation to sig significant digits and the nominal
// value to the same decimal place: New(2, 0.57735).Format(3) is
// "2.000+/-0.577". Very large or small magnitudes share a common exponent:
// "(1.23+/-0.05)e+06".
func (v Value) Format(sig int) string {
	return v.format(sig, "+/-", func(body string, exp int) string {
		return fmt.Sprintf("(%s)e%+03d", body, exp)
	})
}

// LaTeX formats like Format but with \pm and a \times 10^{k} factor
func (v Value) LaTeX(sig int) string {
	return v.format(sig, ` \pm `, func(body string, exp int) string {
		return fmt.Sprintf(`\left(%s\right) \times 10^{%d}`, body, exp)
	})
}

func (v Value) format(sig int, sep string, withExp func(string, int) string) string {
	if sig < 1 {
		sig = 1
	}
	n, s := v.nominal, v.StdDev()
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) || math.IsNaN(n) || math.IsInf(n, 0) {
		return strconv.FormatFloat(n, 'g', -1, 64) + sep + strconv.FormatFloat(s, 'g', -1, 64)
	}

	ref := math.Max(math.Abs(n), s)
	refExp := int(math.Floor(math.Log10(ref)))
	if refExp >= 6 || refExp <= -5 {
		factor := math.Pow(10, float64(refExp))
		return withExp(formatPair(n/factor, s/factor, sig, sep), refExp)
	}
	return formatPair(n, s, sig, sep)
}

func formatPair(n, s float64, sig int, sep string) string {
	sExp := int(math.Floor(math.Log10(s)))
	decimals := sig - 1 - sExp
	if decimals < 0 {
		q := math.Pow(10, float64(-decimals))
		n = math.Round(n/q) * q
		s = math.Round(s/q) * q
		decimals = 0
	}
	return strconv.FormatFloat(n, 'f', decimals, 64) + sep + strconv.FormatFloat(s, 'f', decimals, 64)
}

// Parse reads "x+/-dx" or "x±dx" into an independent value. A bare number
// parses as exact.
func Parse(s string) (Value, error) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"+/-", "±"} {
		if i := strings.Index(s, sep); i >= 0 {
			n, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
			if err != nil {
				return Value{}, errors.InvalidInput(fmt.Sprintf("invalid nominal value in %q", s))
			}
			d, err := strconv.ParseFloat(strings.TrimSpace(s[i+len(sep):]), 64)
			if err != nil {
				return Value{}, errors.InvalidInput(fmt.Sprintf("invalid deviation in %q", s))
			}
			if d < 0 {
				return Value{}, errors.InvalidInput(fmt.Sprintf("negative deviation in %q", s))
			}
			return New(n, d), nil
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, errors.InvalidInput(fmt.Sprintf("invalid uncertain value %q", s))
	}
	return Exact(n), nil
}
