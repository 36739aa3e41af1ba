package ports

import (
	"context"
)

// ModelFunc evaluates a fit model at x for the given parameter vector
type ModelFunc func(x float64, params []float64) float64

// FitRequest describes one nonlinear least-squares problem
type FitRequest struct {
	Model ModelFunc
	X, Y  []float64
	// Guess seeds the solver. When nil, NumParams ones are used.
	Guess     []float64
	NumParams int
	// Sigma weights residuals as (y - f)/sigma; empty means unweighted
	Sigma []float64
	// MaxEvaluations caps model evaluations; zero selects the adapter default
	MaxEvaluations int
}

// FitResult carries best-fit parameters and their covariance. Cov is
// always scaled by the residual variance, so Sigma acts as relative weights.
type FitResult struct {
	Params      []float64
	Cov         [][]float64
	ResidualSS  float64
	Evaluations int
	Converged   bool
}

// FitterPort is the nonlinear least-squares capability
type FitterPort interface {
	CurveFit(ctx context.Context, req FitRequest) (*FitResult, error)
}
