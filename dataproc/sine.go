package dataproc

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/dsp/fourier"

	"physlab/domain/uncertain"
	"physlab/internal/errors"
	"physlab/ports"
)

// SineRaw keeps the solver's view of a sine fit: the seed, the refined
// parameter vector [amp, omega, phase, offset] and its covariance
type SineRaw struct {
	Guess  []float64
	Params []float64
	Cov    [][]float64
}

// SineFit is amp·sin(omega·t + phase) + offset fitted to samples
type SineFit struct {
	Amp    float64
	Omega  float64
	Phase  float64
	Offset float64
	Freq   float64
	Period float64
	// MaxCov is the largest entry of the covariance matrix
	MaxCov float64
	Raw    SineRaw
}

// Eval evaluates the fitted sinusoid at t
func (f *SineFit) Eval(t float64) float64 {
	return sine(t, []float64{f.Amp, f.Omega, f.Phase, f.Offset})
}

// EvalAll evaluates the fitted sinusoid at every t
func (f *SineFit) EvalAll(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = f.Eval(t)
	}
	return out
}

// Uncertain returns amp, omega, phase and offset with deviations from the
// covariance diagonal
func (f *SineFit) Uncertain() []uncertain.Value {
	out := make([]uncertain.Value, len(f.Raw.Params))
	for i, v := range f.Raw.Params {
		out[i] = uncertain.New(v, math.Sqrt(f.Raw.Cov[i][i]))
	}
	return out
}

func sine(t float64, p []float64) float64 {
	return p[0]*math.Sin(p[1]*t+p[2]) + p[3]
}

// FitSin fits a sinusoid to uniformly spaced samples. The frequency seed is
// the strongest non-DC FFT bin, the amplitude seed √2·std(y), the phase
// seed 0 and the offset seed mean(y).
func (p *Processor) FitSin(ctx context.Context, t, y []float64) (*SineFit, error) {
	if p.fitter == nil {
		return nil, errors.ConfigInvalid("no fitter configured")
	}
	guess, err := sineGuess(t, y)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("[DataProc] sine seed amp=%.4g omega=%.4g offset=%.4g", guess[0], guess[1], guess[3])

	res, err := p.fitter.CurveFit(ctx, ports.FitRequest{
		Model: sine,
		X:     t,
		Y:     y,
		Guess: guess,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sine fit failed")
	}

	a, w, ph, c := res.Params[0], res.Params[1], res.Params[2], res.Params[3]
	freq := w / (2 * math.Pi)
	fit := &SineFit{
		Amp:    a,
		Omega:  w,
		Phase:  ph,
		Offset: c,
		Freq:   freq,
		Period: 1 / freq,
		MaxCov: maxEntry(res.Cov),
		Raw: SineRaw{
			Guess:  guess,
			Params: res.Params,
			Cov:    res.Cov,
		},
	}
	p.logger.Info("[DataProc] sine fit: amp=%.4g omega=%.4g phase=%.4g offset=%.4g after %d evaluations",
		a, w, ph, c, res.Evaluations)
	return fit, nil
}

// sineGuess computes the FFT seed, assuming uniform spacing t[1]-t[0]
func sineGuess(t, y []float64) ([]float64, error) {
	if len(t) != len(y) {
		return nil, errors.InvalidInput(fmt.Sprintf("t and y lengths differ: %d vs %d", len(t), len(y)))
	}
	if len(t) < 4 {
		return nil, errors.InsufficientData(fmt.Sprintf("a sine fit needs at least 4 samples, got %d", len(t)))
	}
	dt := t[1] - t[0]
	if dt == 0 || math.IsNaN(dt) {
		return nil, errors.InvalidInput("sample spacing t[1]-t[0] must be non-zero")
	}

	fft := fourier.NewFFT(len(y))
	coeffs := fft.Coefficients(nil, y)
	best, bestMag := 1, -1.0
	for k := 1; k < len(coeffs); k++ {
		if mag := cmplx.Abs(coeffs[k]); mag > bestMag {
			best, bestMag = k, mag
		}
	}
	freq := math.Abs(fft.Freq(best) / dt)

	std, err := stats.StandardDeviationPopulation(y)
	if err != nil {
		return nil, errors.Wrap(err, "standard deviation")
	}
	mean, err := stats.Mean(y)
	if err != nil {
		return nil, errors.Wrap(err, "mean")
	}
	return []float64{math.Sqrt2 * std, 2 * math.Pi * freq, 0, mean}, nil
}

func maxEntry(m [][]float64) float64 {
	out := math.Inf(-1)
	for _, row := range m {
		for _, v := range row {
			if v > out {
				out = v
			}
		}
	}
	return out
}
