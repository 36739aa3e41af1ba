package graph

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"physlab/domain/plot"
	"physlab/domain/table"
	"physlab/internal"
	"physlab/internal/errors"
	"physlab/ports"
)

// Live-refresh defaults
const (
	DefaultRefreshInterval = time.Second
	DefaultSheet           = "Sheet1"
)

// DynamicDraw re-reads the first two columns of sheet every interval,
// redraws them as a scatter plot and publishes the frame to sink, which
// replaces whatever it showed before. It returns nil once ctx is cancelled
// and the first read, render or publish error otherwise.
func (g *Grapher) DynamicDraw(ctx context.Context, path string, interval time.Duration, sheet string, sink ports.FrameSinkPort) error {
	if g.reader == nil {
		return errors.ConfigInvalid("no sheet reader configured")
	}
	if sink == nil {
		return errors.InvalidInput("no frame sink")
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	g.logger.Info("[Graph] live drawing %s (sheet %q) every %s", path, sheet, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seq := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		published, err := g.drawFrame(ctx, path, sheet, seq+1, sink)
		if err != nil {
			return err
		}
		if published {
			seq++
		}

		select {
		case <-ctx.Done():
			g.logger.Info("[Graph] live drawing stopped after %d frame(s)", seq)
			return nil
		case <-ticker.C:
		}
	}
}

// drawFrame publishes one frame and reports whether it did; a sheet that
// has headers but no rows yet is skipped
func (g *Grapher) drawFrame(ctx context.Context, path, sheet string, seq int, sink ports.FrameSinkPort) (bool, error) {
	tbl, err := g.reader.ReadTable(ctx, path, sheet)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", path)
	}
	fig, err := g.liveFigure(tbl, path)
	if err != nil {
		return false, err
	}
	if len(fig.Scatters[0].X) == 0 {
		g.logger.Debug("[Graph] %s has no rows yet", path)
		return false, nil
	}

	format := g.theme.Format
	if format == "" {
		format = plot.FormatPNG
	}
	var buf bytes.Buffer
	if err := g.Render(&buf, fig, format); err != nil {
		return false, errors.Wrap(err, "failed to render live frame")
	}

	frame := plot.NewFrame(seq, buf.Bytes(), format, time.Now())
	if err := sink.Publish(ctx, frame); err != nil {
		return false, errors.Wrap(err, "failed to publish live frame")
	}
	g.logger.Trace("[Graph] frame %d (%s, %d bytes)", seq, frame.Hash.Short(), len(frame.Data))
	return true, nil
}

// liveFigure builds the scatter of the first two columns
func (g *Grapher) liveFigure(tbl *table.Table, path string) (*plot.Figure, error) {
	x, y, err := tbl.XY()
	if err != nil {
		return nil, err
	}
	fig := plot.NewFigure(g.theme.Width, g.theme.Height)
	fig.Title = filepath.Base(path)
	if len(tbl.Headers) >= 2 {
		fig.XLabel, fig.YLabel = tbl.Headers[0], tbl.Headers[1]
	}
	fig.FontSize = g.theme.FontSize()
	fig.AddScatter(plot.Scatter{X: x, Y: y, Color: g.theme.DataColor, EdgeColor: g.theme.DataEdgeColor, Size: g.theme.PointSize})
	return fig, nil
}

// FileSink keeps the latest frame in a single file, replacing it atomically
// so viewers never see a half-written image
type FileSink struct {
	path   string
	logger *internal.Logger
}

// NewFileSink creates a sink writing to path
func NewFileSink(path string, logger *internal.Logger) *FileSink {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileSink{path: path, logger: logger}
}

var _ ports.FrameSinkPort = (*FileSink)(nil)

// Publish writes the frame next to the target and renames it into place
func (s *FileSink) Publish(ctx context.Context, frame plot.Frame) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".frame-*")
	if err != nil {
		return errors.IOError(fmt.Sprintf("failed to create temp file in %s", dir), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(frame.Data); err != nil {
		tmp.Close()
		return errors.IOError("failed to write frame", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.IOError("failed to close frame", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.IOError(fmt.Sprintf("failed to replace %s", s.path), err)
	}
	s.logger.Debug("[FileSink] frame %d written to %s", frame.Seq, s.path)
	return nil
}
