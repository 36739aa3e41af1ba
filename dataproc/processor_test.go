package dataproc

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/adapters/peaks"
	"physlab/adapters/solver"
	"physlab/domain/plot"
	"physlab/internal/errors"
	"physlab/internal/testkit"
)

func newProcessor() *Processor {
	return NewProcessor(solver.NewLevenbergMarquardt(0, nil), peaks.NewLookahead(0), nil, nil)
}

func TestFitSinRecoversParameters(t *testing.T) {
	gen := testkit.NewLabDataGenerator(testkit.DefaultLabConfig())
	s := gen.Sine(2, math.Pi, 0.3, 1)

	fit, err := newProcessor().FitSin(context.Background(), s.X, s.Y)
	require.NoError(t, err)

	assert.InDelta(t, 2, fit.Amp, 0.02)
	assert.InDelta(t, math.Pi, fit.Omega, 0.01)
	assert.InDelta(t, 0.3, fit.Phase, 0.02)
	assert.InDelta(t, 1, fit.Offset, 0.01)
	assert.InDelta(t, 0.5, fit.Freq, 0.002)
	assert.InDelta(t, 2, fit.Period, 0.01)
	assert.InDelta(t, math.Pi, fit.Raw.Guess[1], 1e-9)
	assert.Equal(t, 0.0, fit.Raw.Guess[2])
	assert.Greater(t, fit.MaxCov, 0.0)

	// the evaluator reproduces the samples within the noise level
	for i, v := range fit.EvalAll(s.X) {
		assert.InDelta(t, s.Y[i], v, 0.1)
	}
	assert.Equal(t, fit.Eval(s.X[7]), fit.EvalAll(s.X)[7])

	params := fit.Uncertain()
	require.Len(t, params, 4)
	assert.Equal(t, fit.Amp, params[0].Nominal())
	assert.Greater(t, params[0].StdDev(), 0.0)
}

func TestFitSinValidation(t *testing.T) {
	p := newProcessor()
	ctx := context.Background()

	_, err := p.FitSin(ctx, []float64{0, 1, 2}, []float64{0, 1, 0})
	assert.True(t, errors.IsCode(err, errors.CodeInsufficientData))

	_, err = p.FitSin(ctx, []float64{0, 1, 2, 3}, []float64{0, 1})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	_, err = p.FitSin(ctx, []float64{1, 1, 2, 3}, []float64{0, 1, 0, 1})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	_, err = NewProcessor(nil, nil, nil, nil).FitSin(ctx, []float64{0, 1, 2, 3}, []float64{0, 1, 0, 1})
	assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
}

func TestSineGuess(t *testing.T) {
	n := 64
	tt := make([]float64, n)
	y := make([]float64, n)
	for i := range tt {
		tt[i] = float64(i) * 0.125
		y[i] = 3 + math.Sin(2*math.Pi*1*tt[i])
	}
	guess, err := sineGuess(tt, y)
	require.NoError(t, err)
	assert.InDelta(t, 1, guess[0], 1e-9)
	assert.InDelta(t, 2*math.Pi, guess[1], 1e-9)
	assert.InDelta(t, 3, guess[3], 1e-9)
}

func sinSamples() (x, y []float64) {
	for i := 0; i < 1000; i++ {
		v := float64(i) * 0.01
		x = append(x, v)
		y = append(y, math.Sin(math.Pi*v))
	}
	return x, y
}

func TestDetectMaximaAndMinima(t *testing.T) {
	x, y := sinSamples()
	yCopy := append([]float64(nil), y...)
	p := newProcessor()

	maxima, err := p.DetectMaxima(x, y, 20)
	require.NoError(t, err)
	minima, err := p.DetectMinima(x, y, 20)
	require.NoError(t, err)

	assert.Equal(t, [2]string{"x", "y"}, maxima.Columns)
	require.Equal(t, 5, maxima.Len())
	require.Equal(t, 5, minima.Len())
	for i, want := range []float64{0.5, 2.5, 4.5, 6.5, 8.5} {
		assert.InDelta(t, want, maxima.Rows[i].X, 1e-9)
		assert.InDelta(t, 1, maxima.Rows[i].Y, 1e-9)
	}
	for i, want := range []float64{1.5, 3.5, 5.5, 7.5, 9.5} {
		assert.InDelta(t, want, minima.Rows[i].X, 1e-9)
		assert.InDelta(t, -1, minima.Rows[i].Y, 1e-9)
	}
	assert.Equal(t, yCopy, y)
}

func TestDetectDefaultsAndErrors(t *testing.T) {
	x, y := sinSamples()
	p := newProcessor()

	// the default lookahead of 100 samples still separates peaks 200 apart
	maxima, err := p.DetectMaxima(x, y, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, maxima.Len())
	// the minimum at 9.5 falls inside the final window
	minima, err := p.DetectMinima(x, y, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, minima.Len())

	_, err = p.DetectMaxima(x, y[:10], 5)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	_, err = p.DetectMinima(x, y, -1)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	_, err = NewProcessor(nil, nil, nil, nil).DetectMinima(x, y, 5)
	assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))

	_, err = NewProcessor(nil, failingDetector{}, nil, nil).DetectMaxima(x, y, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "peak detection failed")
}

type failingDetector struct{}

func (failingDetector) Detect(x, y []float64, lookahead int) ([]plot.Point, []plot.Point, error) {
	return nil, nil, stderrors.New("boom")
}

func TestFreqOverTime(t *testing.T) {
	got := FreqOverTime([]float64{0, 1, 3, 6})
	require.Len(t, got, 3)
	assert.InDelta(t, 1, got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)
	assert.InDelta(t, 1.0/3, got[2], 1e-12)

	assert.Equal(t, []float64{1}, FreqOverTime([]float64{5, 4}))
	assert.True(t, math.IsInf(FreqOverTime([]float64{2, 2})[0], 1))
	assert.Empty(t, FreqOverTime([]float64{1}))
	assert.Equal(t, FreqOverTime([]float64{0, 1, 3, 6}), got)
}

func TestWolframQuery(t *testing.T) {
	engine := &testkit.FakeKnowledgeEngine{Result: testkit.SampleKnowledgeResult()}
	p := NewProcessor(nil, nil, engine, nil)

	res, err := p.WolframQuery(context.Background(), "integrate x^2")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"integrate x^2"}, engine.Queries)

	engine.Err = stderrors.New("connection reset")
	_, err = p.WolframQuery(context.Background(), "x")
	assert.True(t, errors.IsCode(err, errors.CodeExternalService))

	engine.Err = errors.InvalidInput("empty query")
	_, err = p.WolframQuery(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	_, err = NewProcessor(nil, nil, nil, nil).WolframQuery(context.Background(), "x")
	assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
}
