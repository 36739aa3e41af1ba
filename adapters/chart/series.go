package chart

import (
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"

	"physlab/domain/plot"
)

// bandSeries fills the area between two curves. It reports bounded values
// so go-chart sizes the y range to include both edges.
type bandSeries struct {
	name         string
	x            []float64
	lower, upper []float64
	style        gochart.Style
}

func (b *bandSeries) GetName() string             { return b.name }
func (b *bandSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (b *bandSeries) GetStyle() gochart.Style     { return b.style }
func (b *bandSeries) Len() int                    { return len(b.x) }

func (b *bandSeries) GetBoundedValues(i int) (x, y1, y2 float64) {
	return b.x[i], b.lower[i], b.upper[i]
}

func (b *bandSeries) Validate() error {
	if len(b.x) == 0 {
		return fmt.Errorf("band %q has no points", b.name)
	}
	if len(b.lower) != len(b.x) || len(b.upper) != len(b.x) {
		return fmt.Errorf("band %q: x, lower and upper lengths differ", b.name)
	}
	return nil
}

func (b *bandSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, defaults gochart.Style) {
	cb, cl := canvasBox.Bottom, canvasBox.Left
	r.SetFillColor(b.style.FillColor)
	r.SetStrokeWidth(0)

	r.MoveTo(cl+xrange.Translate(b.x[0]), cb-yrange.Translate(b.upper[0]))
	for i := 1; i < len(b.x); i++ {
		r.LineTo(cl+xrange.Translate(b.x[i]), cb-yrange.Translate(b.upper[i]))
	}
	for i := len(b.x) - 1; i >= 0; i-- {
		r.LineTo(cl+xrange.Translate(b.x[i]), cb-yrange.Translate(b.lower[i]))
	}
	r.Close()
	r.Fill()
	r.ResetStyle()
}

// errorBarSeries draws capped vertical and horizontal error bars
type errorBarSeries struct {
	bars  plot.ErrorBars
	style gochart.Style
}

const capHalfWidth = 4

func (e *errorBarSeries) GetName() string             { return "error bars" }
func (e *errorBarSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (e *errorBarSeries) GetStyle() gochart.Style     { return e.style }
func (e *errorBarSeries) Len() int                    { return len(e.bars.X) }

func (e *errorBarSeries) GetBoundedValues(i int) (x, y1, y2 float64) {
	dy := plot.ErrAt(e.bars.YErr, i)
	return e.bars.X[i], e.bars.Y[i] - dy, e.bars.Y[i] + dy
}

func (e *errorBarSeries) Validate() error {
	if len(e.bars.X) != len(e.bars.Y) {
		return fmt.Errorf("error bars: x and y lengths differ")
	}
	return nil
}

func (e *errorBarSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, defaults gochart.Style) {
	cb, cl := canvasBox.Bottom, canvasBox.Left
	e.style.GetStrokeOptions().WriteDrawingOptionsToRenderer(r)

	for i := range e.bars.X {
		x, y := e.bars.X[i], e.bars.Y[i]
		px := cl + xrange.Translate(x)
		py := cb - yrange.Translate(y)

		if dy := plot.ErrAt(e.bars.YErr, i); dy > 0 {
			top := cb - yrange.Translate(y+dy)
			bottom := cb - yrange.Translate(y-dy)
			r.MoveTo(px, top)
			r.LineTo(px, bottom)
			r.MoveTo(px-capHalfWidth, top)
			r.LineTo(px+capHalfWidth, top)
			r.MoveTo(px-capHalfWidth, bottom)
			r.LineTo(px+capHalfWidth, bottom)
		}
		if dx := plot.ErrAt(e.bars.XErr, i); dx > 0 {
			left := cl + xrange.Translate(x-dx)
			right := cl + xrange.Translate(x+dx)
			r.MoveTo(left, py)
			r.LineTo(right, py)
			r.MoveTo(left, py-capHalfWidth)
			r.LineTo(left, py+capHalfWidth)
			r.MoveTo(right, py-capHalfWidth)
			r.LineTo(right, py+capHalfWidth)
		}
	}
	r.Stroke()
	r.ResetStyle()
}

// scatterSeries draws filled markers with a separate edge colour
type scatterSeries struct {
	name  string
	x, y  []float64
	style gochart.Style
}

func (s *scatterSeries) GetName() string             { return s.name }
func (s *scatterSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (s *scatterSeries) GetStyle() gochart.Style     { return s.style }
func (s *scatterSeries) Len() int                    { return len(s.x) }

func (s *scatterSeries) GetValues(i int) (float64, float64) {
	return s.x[i], s.y[i]
}

func (s *scatterSeries) Validate() error {
	if len(s.x) != len(s.y) {
		return fmt.Errorf("scatter %q: x and y lengths differ", s.name)
	}
	return nil
}

func (s *scatterSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, defaults gochart.Style) {
	cb, cl := canvasBox.Bottom, canvasBox.Left
	r.SetFillColor(s.style.DotColor)
	r.SetStrokeColor(s.style.StrokeColor)
	r.SetStrokeWidth(1)
	for i := range s.x {
		r.Circle(s.style.DotWidth/2, cl+xrange.Translate(s.x[i]), cb-yrange.Translate(s.y[i]))
		r.FillStroke()
	}
	r.ResetStyle()
}
