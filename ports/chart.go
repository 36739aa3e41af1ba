package ports

import (
	"context"
	"io"

	"physlab/domain/plot"
)

// ChartRendererPort turns a figure into an encoded image
type ChartRendererPort interface {
	Render(w io.Writer, fig *plot.Figure, format plot.Format) error
}

// FrameSinkPort receives successive live frames; each replaces the last
type FrameSinkPort interface {
	Publish(ctx context.Context, frame plot.Frame) error
}
