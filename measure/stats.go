// Package measure holds the statistics helpers of a lab report: standard
// error of repeated measurements, weighted combination of results, error
// propagation, n-sigma agreement and chi-squared goodness of fit.
package measure

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"physlab/domain/uncertain"
	"physlab/internal/errors"
)

// MeasurementsDeviation summarises n repeated measurements of the same
// quantity as mean ± s/√n, s being the Bessel-corrected sample deviation
func MeasurementsDeviation(samples []float64) (uncertain.Value, error) {
	if len(samples) < 2 {
		return uncertain.Value{}, errors.InsufficientData(fmt.Sprintf("need at least 2 measurements, got %d", len(samples)))
	}
	mean, err := stats.Mean(samples)
	if err != nil {
		return uncertain.Value{}, errors.Wrap(err, "mean of measurements")
	}
	sd, err := stats.StandardDeviationSample(samples)
	if err != nil {
		return uncertain.Value{}, errors.Wrap(err, "deviation of measurements")
	}
	return uncertain.New(mean, sd/math.Sqrt(float64(len(samples)))), nil
}

// WeightedMean combines independent results of the same quantity with
// inverse-variance weights. The combined deviation is 1/√Σ(1/σᵢ²) whatever
// the correlation between the inputs, so the result is a fresh independent
// value.
func WeightedMean(results ...uncertain.Value) (uncertain.Value, error) {
	if len(results) == 0 {
		return uncertain.Value{}, errors.InsufficientData("no results to combine")
	}

	total, weighted := 0.0, 0.0
	for i, r := range results {
		if r.IsExact() {
			return uncertain.Value{}, errors.InvalidKind(fmt.Sprintf("result %d has no deviation and cannot be weighted", i))
		}
		w := 1 / r.Variance()
		total += w
		weighted += w * r.Nominal()
	}
	return uncertain.New(weighted/total, 1/math.Sqrt(total)), nil
}

// ResultsSumWithDeviation is WeightedMean over dynamically typed input.
// Every element must be an uncertain value.
func ResultsSumWithDeviation(results []any) (uncertain.Value, error) {
	values := make([]uncertain.Value, len(results))
	for i, r := range results {
		v, err := uncertain.From(r)
		if err != nil {
			return uncertain.Value{}, errors.Wrapf(err, "result %d", i)
		}
		values[i] = v
	}
	return WeightedMean(values...)
}

// NSigma is the distance between two measurements in units of their
// combined deviation; values under 3 are conventionally in agreement
func NSigma(a, sa, b, sb float64) float64 {
	return math.Abs(a-b) / math.Sqrt(sa*sa+sb*sb)
}

// NSigmaValues is NSigma for two independent uncertain values
func NSigmaValues(a, b uncertain.Value) float64 {
	return NSigma(a.Nominal(), a.StdDev(), b.Nominal(), b.StdDev())
}
