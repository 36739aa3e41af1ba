// Package peaks implements ports.PeakDetectorPort with the lookahead
// extremum search commonly used on oscilloscope and sensor traces.
package peaks

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"physlab/domain/plot"
	"physlab/internal/errors"
	"physlab/ports"
)

// Lookahead confirms a candidate extremum once the next lookahead samples
// all stay on the far side of it. Delta additionally requires the signal
// to move away by at least that amount, suppressing jitter.
type Lookahead struct {
	Delta float64
}

// NewLookahead creates a detector with the given minimum peak depth
func NewLookahead(delta float64) *Lookahead {
	return &Lookahead{Delta: delta}
}

var _ ports.PeakDetectorPort = (*Lookahead)(nil)

// Detect returns the confirmed maxima and minima as (x, y) points. The
// first confirmed extremum is discarded because the scan cannot tell it
// from the signal's starting slope, and the last lookahead samples are
// never candidates.
func (d *Lookahead) Detect(x, y []float64, lookahead int) ([]plot.Point, []plot.Point, error) {
	switch {
	case len(x) != len(y):
		return nil, nil, errors.InvalidInput(fmt.Sprintf("x has %d points but y has %d", len(x), len(y)))
	case lookahead < 1:
		return nil, nil, errors.InvalidInput(fmt.Sprintf("lookahead must be at least 1, got %d", lookahead))
	case d.Delta < 0 || math.IsNaN(d.Delta):
		return nil, nil, errors.InvalidInput("delta must be a non-negative number")
	}

	length := len(y)
	maxima := []plot.Point{}
	minima := []plot.Point{}
	// order in which extrema were found, true for a maximum
	var found []bool

	mn, mx := math.Inf(1), math.Inf(-1)
	var mnPos, mxPos float64
	for i := 0; i < length-lookahead; i++ {
		xi, yi := x[i], y[i]
		if yi > mx {
			mx, mxPos = yi, xi
		}
		if yi < mn {
			mn, mnPos = yi, xi
		}

		if yi < mx-d.Delta && !math.IsInf(mx, 1) {
			if floats.Max(y[i:i+lookahead]) < mx {
				maxima = append(maxima, plot.Point{X: mxPos, Y: mx})
				found = append(found, true)
				mx, mn = math.Inf(1), math.Inf(1)
				if i+lookahead >= length {
					break
				}
				continue
			}
		}

		if yi > mn+d.Delta && !math.IsInf(mn, -1) {
			if floats.Min(y[i:i+lookahead]) > mn {
				minima = append(minima, plot.Point{X: mnPos, Y: mn})
				found = append(found, false)
				mn, mx = math.Inf(-1), math.Inf(-1)
				if i+lookahead >= length {
					break
				}
			}
		}
	}

	if len(found) > 0 {
		if found[0] {
			maxima = maxima[1:]
		} else {
			minima = minima[1:]
		}
	}
	return maxima, minima, nil
}
