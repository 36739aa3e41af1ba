// Package dataproc holds the higher level analyses built on the fitting,
// peak detection and knowledge-engine ports: sinusoid fitting, extrema
// extraction, event frequency estimation and knowledge queries.
package dataproc

import (
	"context"
	"fmt"
	"math"

	"physlab/domain/knowledge"
	"physlab/domain/plot"
	"physlab/internal"
	"physlab/internal/errors"
	"physlab/ports"
)

// DefaultSensitivity is the lookahead used when the caller passes zero
const DefaultSensitivity = 100

// Processor runs analyses against the injected capabilities. Any port may
// be nil when the corresponding operation is not used.
type Processor struct {
	fitter ports.FitterPort
	peaks  ports.PeakDetectorPort
	engine ports.KnowledgeEnginePort
	logger *internal.Logger
}

// NewProcessor creates a processor
func NewProcessor(fitter ports.FitterPort, peaks ports.PeakDetectorPort, engine ports.KnowledgeEnginePort, logger *internal.Logger) *Processor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Processor{
		fitter: fitter,
		peaks:  peaks,
		engine: engine,
		logger: logger,
	}
}

// DetectMaxima returns the local maxima of y(x) as an x/y table. Larger
// sensitivity values need a longer run of lower samples after a candidate
// and therefore report fewer, more significant peaks.
func (p *Processor) DetectMaxima(x, y []float64, sensitivity int) (plot.PeakTable, error) {
	maxima, _, err := p.detect(x, y, sensitivity)
	if err != nil {
		return plot.PeakTable{}, err
	}
	return plot.NewPeakTable(maxima), nil
}

// DetectMinima returns the local minima of y(x) as an x/y table
func (p *Processor) DetectMinima(x, y []float64, sensitivity int) (plot.PeakTable, error) {
	_, minima, err := p.detect(x, y, sensitivity)
	if err != nil {
		return plot.PeakTable{}, err
	}
	return plot.NewPeakTable(minima), nil
}

// detect validates and copies both inputs the same way for maxima and minima
func (p *Processor) detect(x, y []float64, sensitivity int) ([]plot.Point, []plot.Point, error) {
	if p.peaks == nil {
		return nil, nil, errors.ConfigInvalid("no peak detector configured")
	}
	if len(x) != len(y) {
		return nil, nil, errors.InvalidInput(fmt.Sprintf("x and y lengths differ: %d vs %d", len(x), len(y)))
	}
	if sensitivity < 0 {
		return nil, nil, errors.InvalidInput(fmt.Sprintf("sensitivity must not be negative, got %d", sensitivity))
	}
	if sensitivity == 0 {
		sensitivity = DefaultSensitivity
	}

	xs := append([]float64(nil), x...)
	ys := append([]float64(nil), y...)

	maxima, minima, err := p.peaks.Detect(xs, ys, sensitivity)
	if err != nil {
		return nil, nil, errors.Wrap(err, "peak detection failed")
	}
	p.logger.Debug("[DataProc] %d samples, lookahead %d: %d maxima, %d minima", len(xs), sensitivity, len(maxima), len(minima))
	return maxima, minima, nil
}

// FreqOverTime converts n event timestamps into n-1 instantaneous
// frequencies 1/|t[i+1]-t[i]|. Repeated timestamps give +Inf.
func FreqOverTime(timestamps []float64) []float64 {
	if len(timestamps) < 2 {
		return []float64{}
	}
	out := make([]float64, len(timestamps)-1)
	for i := range out {
		out[i] = 1 / math.Abs(timestamps[i+1]-timestamps[i])
	}
	return out
}

// WolframQuery forwards a natural-language query to the knowledge engine.
// Failures are not retried.
func (p *Processor) WolframQuery(ctx context.Context, text string) (*knowledge.Result, error) {
	if p.engine == nil {
		return nil, errors.ConfigInvalid("no knowledge engine configured")
	}
	res, err := p.engine.Query(ctx, text)
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.ExternalServiceError("wolfram", err)
	}
	p.logger.Info("[DataProc] query %q: success=%t, %d pods", text, res.Success, len(res.Pods))
	return res, nil
}
