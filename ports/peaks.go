package ports

import (
	"physlab/domain/plot"
)

// PeakDetectorPort finds local extrema. Lookahead is the number of samples
// that must follow a candidate before it is accepted; larger values are
// less sensitive to noise.
type PeakDetectorPort interface {
	Detect(x, y []float64, lookahead int) (maxima, minima []plot.Point, err error)
}
