package testkit

import (
	"math"
	"math/rand"
)

// LabGeneratorConfig configures the synthetic measurement generator
type LabGeneratorConfig struct {
	Points int     `json:"points"`
	Start  float64 `json:"start"`
	Step   float64 `json:"step"`
	Noise  float64 `json:"noise"` // standard deviation of additive gaussian noise
	Seed   int64   `json:"seed"`
}

// DefaultLabConfig returns sensible defaults for synthetic lab data
func DefaultLabConfig() LabGeneratorConfig {
	return LabGeneratorConfig{
		Points: 200,
		Start:  0,
		Step:   0.05,
		Noise:  0.02,
		Seed:   42,
	}
}

// Series is one generated data set with its per-point y error
type Series struct {
	X    []float64
	Y    []float64
	YErr []float64
}

// LabDataGenerator produces deterministic noisy measurements of known
// functions, so fits can be checked against the true parameters
type LabDataGenerator struct {
	config LabGeneratorConfig
	rng    *rand.Rand
}

// NewLabDataGenerator creates a new generator
func NewLabDataGenerator(config LabGeneratorConfig) *LabDataGenerator {
	return &LabDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// generate samples f on the configured grid and adds noise
func (g *LabDataGenerator) generate(f func(x float64) float64) Series {
	s := Series{
		X:    make([]float64, g.config.Points),
		Y:    make([]float64, g.config.Points),
		YErr: make([]float64, g.config.Points),
	}
	for i := range s.X {
		x := g.config.Start + float64(i)*g.config.Step
		s.X[i] = x
		s.Y[i] = f(x) + g.rng.NormFloat64()*g.config.Noise
		s.YErr[i] = g.config.Noise
	}
	return s
}

// Sine samples amp·sin(omega·t + phase) + offset
func (g *LabDataGenerator) Sine(amp, omega, phase, offset float64) Series {
	return g.generate(func(t float64) float64 {
		return amp*math.Sin(omega*t+phase) + offset
	})
}

// Line samples slope·x + intercept
func (g *LabDataGenerator) Line(slope, intercept float64) Series {
	return g.generate(func(x float64) float64 {
		return slope*x + intercept
	})
}

// Decay samples amp·exp(−t/tau)
func (g *LabDataGenerator) Decay(amp, tau float64) Series {
	return g.generate(func(t float64) float64 {
		return amp * math.Exp(-t/tau)
	})
}

// DampedOscillation samples amp·exp(−t/tau)·cos(omega·t), a trace with
// well separated maxima and minima of shrinking height
func (g *LabDataGenerator) DampedOscillation(amp, tau, omega float64) Series {
	return g.generate(func(t float64) float64 {
		return amp * math.Exp(-t/tau) * math.Cos(omega*t)
	})
}

// Repeated returns n readings of the same quantity
func (g *LabDataGenerator) Repeated(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value + g.rng.NormFloat64()*g.config.Noise
	}
	return out
}
