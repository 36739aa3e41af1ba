// Package solver implements ports.FitterPort with a Levenberg–Marquardt
// least-squares solver on gonum matrices and finite-difference Jacobians.
package solver

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"physlab/internal"
	"physlab/internal/errors"
	"physlab/ports"
)

const (
	// DefaultMaxEvaluations is the evaluation budget when neither the
	// request nor the solver sets one
	DefaultMaxEvaluations = 100000

	initialLambda = 1e-3
	maxLambda     = 1e16
	costTol       = 1.49012e-8
	stepTol       = 1.49012e-8
)

// LevenbergMarquardt fits models by damped Gauss-Newton iteration
type LevenbergMarquardt struct {
	maxEvaluations int
	logger         *internal.Logger
}

// NewLevenbergMarquardt creates a solver; maxEvaluations <= 0 selects
// DefaultMaxEvaluations
func NewLevenbergMarquardt(maxEvaluations int, logger *internal.Logger) *LevenbergMarquardt {
	if maxEvaluations <= 0 {
		maxEvaluations = DefaultMaxEvaluations
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &LevenbergMarquardt{maxEvaluations: maxEvaluations, logger: logger}
}

var _ ports.FitterPort = (*LevenbergMarquardt)(nil)

// problem is one validated request with its evaluation counter
type problem struct {
	req   ports.FitRequest
	n, p  int
	evals int
	limit int
}

// residuals writes (yᵢ − f(xᵢ, params))/σᵢ into dst
func (pr *problem) residuals(dst, params []float64) {
	pr.evals++
	for i, x := range pr.req.X {
		r := pr.req.Y[i] - pr.req.Model(x, params)
		if s := sigmaAt(pr.req.Sigma, i); s != 0 {
			r /= s
		}
		dst[i] = r
	}
}

func sigmaAt(sigma []float64, i int) float64 {
	switch len(sigma) {
	case 0:
		return 1
	case 1:
		return sigma[0]
	}
	return sigma[i]
}

func cost(r []float64) float64 {
	return floats.Dot(r, r)
}

// CurveFit finds the parameters minimising Σ((y − f(x))/σ)². The returned
// covariance is (JᵀJ)⁻¹ scaled by the residual variance SSR/(n − p).
func (s *LevenbergMarquardt) CurveFit(ctx context.Context, req ports.FitRequest) (*ports.FitResult, error) {
	pr, guess, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	params := append([]float64(nil), guess...)
	r := make([]float64, pr.n)
	pr.residuals(r, params)
	c := cost(r)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return nil, errors.FitFailed(fmt.Errorf("model is not finite at the initial guess %v", guess))
	}

	lambda := initialLambda
	jac := mat.NewDense(pr.n, pr.p, nil)
	trial := make([]float64, pr.p)
	rTrial := make([]float64, pr.n)
	converged := c == 0

	for !converged {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.WithCode(errors.CodeFitFailed, err), "fit cancelled")
		}
		if pr.evals >= pr.limit {
			return nil, errors.FitFailed(fmt.Errorf("optimal parameters not found: %d function evaluations reached", pr.evals))
		}

		pr.jacobian(jac, params, r)
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		grad := mat.NewVecDense(pr.p, nil)
		grad.MulVec(jac.T(), mat.NewVecDense(pr.n, r))

		improved := false
		for lambda <= maxLambda {
			damped := mat.DenseCopyOf(&jtj)
			for i := 0; i < pr.p; i++ {
				d := jtj.At(i, i)
				if d == 0 {
					d = 1
				}
				damped.Set(i, i, jtj.At(i, i)+lambda*d)
			}

			var step mat.VecDense
			if err := step.SolveVec(damped, grad); err != nil {
				// an ill-conditioned system still yields a usable step
				if _, ok := err.(mat.Condition); !ok {
					lambda *= 10
					continue
				}
			}
			for i := range trial {
				trial[i] = params[i] - step.AtVec(i)
			}
			pr.residuals(rTrial, trial)
			cTrial := cost(rTrial)

			if !math.IsNaN(cTrial) && cTrial < c {
				converged = c-cTrial <= costTol*c || smallStep(step.RawVector().Data, params)
				copy(params, trial)
				copy(r, rTrial)
				c = cTrial
				lambda = math.Max(lambda/10, 1e-12)
				improved = true
				break
			}
			lambda *= 10
			if pr.evals >= pr.limit {
				break
			}
		}
		if !improved {
			// no downhill step exists at any damping: a minimum
			converged = pr.evals < pr.limit
		}
		if c == 0 {
			converged = true
		}
	}

	pr.jacobian(jac, params, r)
	res := &ports.FitResult{
		Params:      params,
		Cov:         covariance(jac, c, pr.n, pr.p),
		ResidualSS:  c,
		Evaluations: pr.evals,
		Converged:   converged,
	}
	s.logger.Debug("[LevenbergMarquardt] fit converged after %d evaluations, SSR=%g, params=%v", pr.evals, c, params)
	return res, nil
}

func (s *LevenbergMarquardt) validate(req ports.FitRequest) (*problem, []float64, error) {
	n := len(req.X)
	switch {
	case req.Model == nil:
		return nil, nil, errors.InvalidInput("no model function")
	case len(req.Y) != n:
		return nil, nil, errors.InvalidInput(fmt.Sprintf("x has %d points but y has %d", n, len(req.Y)))
	case len(req.Sigma) > 1 && len(req.Sigma) != n:
		return nil, nil, errors.InvalidInput(fmt.Sprintf("sigma needs 1 or %d values, got %d", n, len(req.Sigma)))
	}

	guess := req.Guess
	if guess == nil {
		if req.NumParams <= 0 {
			return nil, nil, errors.InvalidInput("neither an initial guess nor a parameter count was given")
		}
		guess = make([]float64, req.NumParams)
		for i := range guess {
			guess[i] = 1
		}
	}
	p := len(guess)
	if p == 0 {
		return nil, nil, errors.InvalidInput("model has no parameters")
	}
	if n < p {
		return nil, nil, errors.InsufficientData(fmt.Sprintf("%d points cannot determine %d parameters", n, p))
	}
	for i, sg := range req.Sigma {
		if sg == 0 {
			return nil, nil, errors.InvalidInput(fmt.Sprintf("sigma of point %d is zero", i))
		}
	}

	limit := req.MaxEvaluations
	if limit <= 0 {
		limit = s.maxEvaluations
	}
	return &problem{req: req, n: n, p: p, limit: limit}, guess, nil
}

// jacobian fills dst with ∂rᵢ/∂pⱼ by forward differences. Parameters are
// rescaled to unit magnitude first so the step is relative.
func (pr *problem) jacobian(dst *mat.Dense, params, origin []float64) {
	scale := make([]float64, len(params))
	unit := make([]float64, len(params))
	for i, v := range params {
		scale[i] = math.Abs(v)
		if scale[i] < 1e-8 {
			scale[i] = 1
		}
		unit[i] = v / scale[i]
	}
	buf := make([]float64, len(params))
	f := func(y, u []float64) {
		for i := range u {
			buf[i] = u[i] * scale[i]
		}
		pr.residuals(y, buf)
	}
	fd.Jacobian(dst, f, unit, &fd.JacobianSettings{
		Formula:     fd.Forward,
		OriginValue: origin,
		Step:        1.49012e-8,
	})
	for j, sc := range scale {
		for i := 0; i < pr.n; i++ {
			dst.Set(i, j, dst.At(i, j)/sc)
		}
	}
}

func smallStep(step, params []float64) bool {
	return floats.Norm(step, 2) <= stepTol*(floats.Norm(params, 2)+stepTol)
}

// covariance returns pinv(JᵀJ)·SSR/(n − p) through the SVD of J, dropping
// singular values below numerical precision. With no spare degrees of
// freedom every entry is +Inf.
func covariance(jac *mat.Dense, ssr float64, n, p int) [][]float64 {
	out := make([][]float64, p)
	for i := range out {
		out[i] = make([]float64, p)
	}
	fill := func(v float64) [][]float64 {
		for i := range out {
			for j := range out[i] {
				out[i][j] = v
			}
		}
		return out
	}
	if n <= p {
		return fill(math.Inf(1))
	}

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		return fill(math.Inf(1))
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	threshold := 2.220446049250313e-16 * float64(max(n, p)) * values[0]
	scale := ssr / float64(n-p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			sum := 0.0
			for k, sv := range values {
				if sv <= threshold {
					continue
				}
				sum += v.At(i, k) * v.At(j, k) / (sv * sv)
			}
			out[i][j] = sum * scale
		}
	}
	return out
}
