package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/internal/errors"
	"physlab/ports"
)

func lineModel(x float64, p []float64) float64 { return p[0]*x + p[1] }

func decayModel(x float64, p []float64) float64 { return p[0] * math.Exp(-p[1]*x) }

func TestCurveFitExactLine(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 1
	}

	res, err := NewLevenbergMarquardt(0, nil).CurveFit(context.Background(), ports.FitRequest{
		Model: lineModel, X: x, Y: y, NumParams: 2,
	})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 2, res.Params[0], 1e-6)
	assert.InDelta(t, 1, res.Params[1], 1e-6)
	assert.InDelta(t, 0, res.ResidualSS, 1e-12)
}

func TestCurveFitCovarianceMatchesLeastSquares(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	noise := []float64{0.1, -0.12, 0.05, -0.03, 0.08, -0.1, 0.02, -0.04}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 1 + noise[i]
	}

	res, err := NewLevenbergMarquardt(0, nil).CurveFit(context.Background(), ports.FitRequest{
		Model: lineModel, X: x, Y: y, Guess: []float64{1, 0},
	})
	require.NoError(t, err)

	// closed-form ordinary least squares
	n := float64(len(x))
	var sx, sy, sxx, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	slope := (n*sxy - sx*sy) / (n*sxx - sx*sx)
	intercept := (sy - slope*sx) / n
	ssr := 0.0
	for i := range x {
		r := y[i] - slope*x[i] - intercept
		ssr += r * r
	}
	sxxc := sxx - sx*sx/n
	varSlope := ssr / (n - 2) / sxxc

	assert.InDelta(t, slope, res.Params[0], 1e-6)
	assert.InDelta(t, intercept, res.Params[1], 1e-6)
	assert.InDelta(t, ssr, res.ResidualSS, 1e-9)
	assert.InEpsilon(t, varSlope, res.Cov[0][0], 1e-4)
	assert.InDelta(t, res.Cov[0][1], res.Cov[1][0], 1e-12)
}

func TestCurveFitNonlinear(t *testing.T) {
	x := make([]float64, 30)
	y := make([]float64, 30)
	for i := range x {
		x[i] = float64(i) * 0.2
		y[i] = decayModel(x[i], []float64{3, 0.5})
	}

	res, err := NewLevenbergMarquardt(0, nil).CurveFit(context.Background(), ports.FitRequest{
		Model: decayModel, X: x, Y: y, Guess: []float64{2, 0.4}, Sigma: []float64{0.1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 3, res.Params[0], 1e-5)
	assert.InDelta(t, 0.5, res.Params[1], 1e-5)
	assert.Greater(t, res.Evaluations, 1)
}

func TestCurveFitSingularCovarianceWithoutSpareDOF(t *testing.T) {
	res, err := NewLevenbergMarquardt(0, nil).CurveFit(context.Background(), ports.FitRequest{
		Model: lineModel, X: []float64{0, 1}, Y: []float64{1, 3}, NumParams: 2,
	})
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Cov[0][0], 1))
}

func TestCurveFitValidation(t *testing.T) {
	lm := NewLevenbergMarquardt(0, nil)
	ctx := context.Background()

	tests := map[string]struct {
		req  ports.FitRequest
		code string
	}{
		"nil model":      {ports.FitRequest{X: []float64{1}, Y: []float64{1}, NumParams: 1}, errors.CodeInvalidInput},
		"length":         {ports.FitRequest{Model: lineModel, X: []float64{1, 2}, Y: []float64{1}, NumParams: 2}, errors.CodeInvalidInput},
		"no params":      {ports.FitRequest{Model: lineModel, X: []float64{1, 2}, Y: []float64{1, 2}}, errors.CodeInvalidInput},
		"too few points": {ports.FitRequest{Model: lineModel, X: []float64{1}, Y: []float64{1}, NumParams: 2}, errors.CodeInsufficientData},
		"sigma length":   {ports.FitRequest{Model: lineModel, X: []float64{1, 2, 3}, Y: []float64{1, 2, 3}, NumParams: 2, Sigma: []float64{1, 1}}, errors.CodeInvalidInput},
		"zero sigma":     {ports.FitRequest{Model: lineModel, X: []float64{1, 2, 3}, Y: []float64{1, 2, 3}, NumParams: 2, Sigma: []float64{0}}, errors.CodeInvalidInput},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := lm.CurveFit(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestCurveFitBudgetExhausted(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{3, 1.8, 1.1, 0.67, 0.4}
	_, err := NewLevenbergMarquardt(0, nil).CurveFit(context.Background(), ports.FitRequest{
		Model: decayModel, X: x, Y: y, Guess: []float64{1, 1}, MaxEvaluations: 2,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFitFailed))
}

func TestCurveFitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLevenbergMarquardt(0, nil).CurveFit(ctx, ports.FitRequest{
		Model: lineModel, X: []float64{0, 1, 2}, Y: []float64{1, 2, 4}, NumParams: 2,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFitFailed))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "fit cancelled: context canceled", err.Error())
}
