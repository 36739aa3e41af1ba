package measure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"physlab/domain/plot"
	"physlab/internal/errors"
)

// Model is a fit function evaluated at x with a parameter vector
type Model = func(x float64, params []float64) float64

// ChiSquaredResult describes goodness of fit
type ChiSquaredResult struct {
	ChiSquared float64 `json:"chi_squared"`
	DOF        int     `json:"dof"`
	Reduced    float64 `json:"reduced"`
	// PValue is the probability of a χ² at least this large under the model
	PValue float64 `json:"p_value"`
}

// ChiSquared returns Σ((yᵢ − f(xᵢ))/σᵢ)² / (n − p). A single yErr value
// applies to every point.
func ChiSquared(x, y, params, yErr []float64, model Model) (float64, error) {
	res, err := ChiSquaredTest(x, y, params, yErr, model)
	if err != nil {
		return 0, err
	}
	return res.Reduced, nil
}

// ChiSquaredTest is ChiSquared with the raw sum, degrees of freedom and
// upper-tail p-value
func ChiSquaredTest(x, y, params, yErr []float64, model Model) (ChiSquaredResult, error) {
	n := len(x)
	switch {
	case model == nil:
		return ChiSquaredResult{}, errors.InvalidInput("no model function")
	case len(y) != n:
		return ChiSquaredResult{}, errors.InvalidInput(fmt.Sprintf("x has %d points but y has %d", n, len(y)))
	case len(yErr) != 1 && len(yErr) != n:
		return ChiSquaredResult{}, errors.InvalidInput(fmt.Sprintf("y error needs 1 or %d values, got %d", n, len(yErr)))
	case n <= len(params):
		return ChiSquaredResult{}, errors.InsufficientData(fmt.Sprintf("%d points leave no degrees of freedom for %d parameters", n, len(params)))
	}

	chi := 0.0
	for i := range x {
		sigma := plot.ErrAt(yErr, i)
		if sigma == 0 {
			return ChiSquaredResult{}, errors.InvalidInput(fmt.Sprintf("y error of point %d is zero", i))
		}
		r := (y[i] - model(x[i], params)) / sigma
		chi += r * r
	}

	dof := n - len(params)
	return ChiSquaredResult{
		ChiSquared: chi,
		DOF:        dof,
		Reduced:    chi / float64(dof),
		PValue:     pValue(chi, dof),
	}, nil
}

func pValue(chi float64, dof int) float64 {
	if math.IsNaN(chi) {
		return math.NaN()
	}
	return distuv.ChiSquared{K: float64(dof)}.Survival(chi)
}
