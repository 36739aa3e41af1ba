package graph

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"physlab/domain/plot"
	"physlab/internal/errors"
)

// Render encodes one figure with the configured renderer
func (g *Grapher) Render(w io.Writer, fig *plot.Figure, format plot.Format) error {
	if g.renderer == nil {
		return errors.ConfigInvalid("no chart renderer configured")
	}
	if format == "" {
		format = g.theme.Format
	}
	return g.renderer.Render(w, fig, format)
}

// Save writes the main and residual figures to dir as <prefix>.<ext> and
// <prefix>_residuals.<ext>, rendering both concurrently. It returns the
// paths written.
func (g *Grapher) Save(ctx context.Context, res *Result, dir, prefix string) ([]string, error) {
	if res == nil || res.Main == nil {
		return nil, errors.InvalidInput("nothing to save")
	}
	format := g.theme.Format
	if format == "" {
		format = plot.FormatPNG
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to create %s", dir), err)
	}

	figures := []*plot.Figure{res.Main}
	paths := []string{filepath.Join(dir, fmt.Sprintf("%s.%s", prefix, format))}
	if res.Residuals != nil {
		figures = append(figures, res.Residuals)
		paths = append(paths, filepath.Join(dir, fmt.Sprintf("%s_residuals.%s", prefix, format)))
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i := range figures {
		fig, path := figures[i], paths[i]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.saveFigure(fig, path, format)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	g.logger.Info("[Graph] saved %d figure(s) to %s", len(paths), dir)
	return paths, nil
}

func (g *Grapher) saveFigure(fig *plot.Figure, path string, format plot.Format) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.IOError(fmt.Sprintf("failed to create %s", path), err)
	}
	if err := g.Render(file, fig, format); err != nil {
		file.Close()
		return errors.Wrapf(err, "failed to render %s", filepath.Base(path))
	}
	if err := file.Close(); err != nil {
		return errors.IOError(fmt.Sprintf("failed to close %s", path), err)
	}
	return nil
}
