// Package chart renders plot.Figure values with go-chart. Layers the library
// has no series for (confidence bands, error bars, edged markers) are
// custom series drawing straight onto the go-chart renderer.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"physlab/domain/plot"
	"physlab/internal"
	"physlab/internal/errors"
	"physlab/internal/texfmt"
	"physlab/ports"
)

// Renderer draws figures using the configured theme for anything the
// figure leaves unset
type Renderer struct {
	theme  plot.Theme
	logger *internal.Logger
}

// NewRenderer creates a go-chart backed renderer
func NewRenderer(theme plot.Theme, logger *internal.Logger) *Renderer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Renderer{theme: theme, logger: logger}
}

var _ ports.ChartRendererPort = (*Renderer)(nil)

// Render encodes fig as PNG or SVG into w
func (r *Renderer) Render(w io.Writer, fig *plot.Figure, format plot.Format) error {
	if fig == nil {
		return errors.InvalidInput("nil figure")
	}
	if fig.Empty() {
		return errors.InsufficientData("figure has no drawable layers")
	}
	provider, err := rendererFor(format)
	if err != nil {
		return err
	}

	c := r.build(fig)
	if err := c.Render(provider, w); err != nil {
		return errors.Wrap(err, "failed to render chart")
	}
	r.logger.Debug("[ChartRenderer] rendered %q as %s (%dx%d, %d series)", firstLine(fig.Title), format, c.Width, c.Height, len(c.Series))
	return nil
}

func rendererFor(format plot.Format) (gochart.RendererProvider, error) {
	switch format {
	case plot.FormatPNG, "":
		return gochart.PNG, nil
	case plot.FormatSVG:
		return gochart.SVG, nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported chart format %q", format))
	}
}

// build translates the figure into a go-chart chart
func (r *Renderer) build(fig *plot.Figure) gochart.Chart {
	width, height := fig.Width, fig.Height
	if width <= 0 {
		width = r.theme.Width
	}
	if height <= 0 {
		height = r.theme.Height
	}
	fontSize := fig.FontSize
	if fontSize <= 0 {
		fontSize = r.theme.FontSize()
	}
	tickSize := fig.TickFontSize
	if tickSize <= 0 {
		tickSize = fontSize * 0.8
	}

	titleLines := texfmt.Lines(fig.Title)
	if fig.Title == "" {
		titleLines = nil
	}
	topPad := 20 + int(float64(len(titleLines))*fontSize*1.5)

	xMin, xMax, yMin, yMax := bounds(fig)

	c := gochart.Chart{
		Width:  width,
		Height: height,
		Background: gochart.Style{
			FillColor: color(r.theme.Background, drawing.ColorWhite),
			Padding:   gochart.Box{Top: topPad, Left: 20, Right: 40, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:      texfmt.Plain(fig.XLabel),
			NameStyle: gochart.Style{FontSize: fontSize},
			Style:     gochart.Style{FontSize: tickSize},
			Range:     axisRange(fig.XRange, xMin, xMax),
			Ticks:     ticks(fig.XTicks),
		},
		YAxis: gochart.YAxis{
			Name:      texfmt.Plain(fig.YLabel),
			NameStyle: gochart.Style{FontSize: fontSize},
			Style:     gochart.Style{FontSize: tickSize},
			Range:     axisRange(fig.YRange, yMin, yMax),
			Ticks:     ticks(fig.YTicks),
		},
	}
	grid := r.gridStyle()
	c.XAxis.GridMajorStyle, c.XAxis.GridMinorStyle = grid, grid
	c.YAxis.GridMajorStyle, c.YAxis.GridMinorStyle = grid, grid

	// Draw order: bands under lines under error bars under markers
	for _, b := range fig.Bands {
		c.Series = append(c.Series, r.band(b))
	}
	for _, l := range fig.Lines {
		c.Series = append(c.Series, r.line(l))
	}
	for _, e := range fig.ErrorBars {
		if e.Visible {
			c.Series = append(c.Series, r.errorBars(e))
		}
	}
	for _, s := range fig.Scatters {
		c.Series = append(c.Series, r.scatter(s))
	}

	c.Elements = []gochart.Renderable{
		titleElement(titleLines, fontSize, width),
		annotationElement(fig.Annotations, fontSize, width, height),
	}
	return c
}

func (r *Renderer) gridStyle() gochart.Style {
	if !r.theme.Grid {
		return gochart.Style{Hidden: true}
	}
	return gochart.Style{
		StrokeColor: color(r.theme.GridColor, drawing.ColorFromHex("dddddd")),
		StrokeWidth: 1,
	}
}

func (r *Renderer) line(l plot.Line) gochart.Series {
	width := l.Width
	if width <= 0 {
		width = 2
	}
	return gochart.ContinuousSeries{
		Name:    l.Name,
		XValues: l.X,
		YValues: l.Y,
		Style: gochart.Style{
			StrokeColor: color(l.Color, color(r.theme.FitColor, drawing.ColorBlack)),
			StrokeWidth: width,
		},
	}
}

func (r *Renderer) band(b plot.Band) gochart.Series {
	alpha := b.Alpha
	if alpha <= 0 {
		alpha = r.theme.BandAlpha
	}
	fill := withAlpha(color(b.Color, color(r.theme.BandColor, drawing.ColorBlue)), alpha)
	return &bandSeries{
		name:  b.Name,
		x:     b.X,
		lower: b.Lower,
		upper: b.Upper,
		style: gochart.Style{FillColor: fill},
	}
}

func (r *Renderer) errorBars(e plot.ErrorBars) gochart.Series {
	alpha := e.Alpha
	if alpha <= 0 {
		alpha = r.theme.ErrorBarAlpha
	}
	stroke := withAlpha(color(e.Color, color(r.theme.ErrorBarColor, drawing.ColorRed)), alpha)
	return &errorBarSeries{
		bars:  e,
		style: gochart.Style{StrokeColor: stroke, StrokeWidth: 1.5},
	}
}

func (r *Renderer) scatter(s plot.Scatter) gochart.Series {
	size := s.Size
	if size <= 0 {
		size = r.theme.PointSize
	}
	if size <= 0 {
		size = 5
	}
	return &scatterSeries{
		name: s.Name,
		x:    s.X,
		y:    s.Y,
		style: gochart.Style{
			StrokeWidth: gochart.Disabled,
			DotWidth:    size,
			DotColor:    color(s.Color, color(r.theme.DataColor, drawing.ColorRed)),
			StrokeColor: color(s.EdgeColor, color(r.theme.DataEdgeColor, drawing.ColorBlack)),
		},
	}
}

// bounds returns the data extent across every layer. NaNs are skipped.
func bounds(fig *plot.Figure) (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	add := func(x, y float64) {
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return
		}
		xMin, xMax = math.Min(xMin, x), math.Max(xMax, x)
		yMin, yMax = math.Min(yMin, y), math.Max(yMax, y)
	}
	for _, s := range fig.Scatters {
		for i := range s.X {
			if i < len(s.Y) {
				add(s.X[i], s.Y[i])
			}
		}
	}
	for _, l := range fig.Lines {
		for i := range l.X {
			if i < len(l.Y) {
				add(l.X[i], l.Y[i])
			}
		}
	}
	for _, b := range fig.Bands {
		for i := range b.X {
			if i < len(b.Lower) && i < len(b.Upper) {
				add(b.X[i], b.Lower[i])
				add(b.X[i], b.Upper[i])
			}
		}
	}
	return xMin, xMax, yMin, yMax
}

// axisRange honours a fixed range and otherwise widens a degenerate data
// extent, which go-chart cannot translate
func axisRange(fixed *plot.Range, lo, hi float64) gochart.Range {
	if fixed != nil {
		return &gochart.ContinuousRange{Min: fixed.Min, Max: fixed.Max}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.1, 1)
		return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	return nil
}

func ticks(spec *plot.AxisSpec) []gochart.Tick {
	if spec == nil || spec.Len() == 0 {
		return nil
	}
	out := make([]gochart.Tick, spec.Len())
	for i, v := range spec.Ticks {
		label := ""
		if i < len(spec.Labels) {
			label = texfmt.Plain(spec.Labels[i])
		}
		out[i] = gochart.Tick{Value: v, Label: label}
	}
	return out
}

func titleElement(lines []string, fontSize float64, width int) gochart.Renderable {
	return func(r gochart.Renderer, canvasBox gochart.Box, defaults gochart.Style) {
		if len(lines) == 0 {
			return
		}
		r.SetFont(defaults.Font)
		r.SetFontColor(drawing.ColorBlack)
		r.SetFontSize(fontSize)
		y := 10
		for _, line := range lines {
			box := r.MeasureText(line)
			y += box.Height() + int(fontSize*0.4)
			r.Text(line, width/2-box.Width()/2, y)
		}
	}
}

// annotationElement places text at figure-fraction coordinates with (0,0)
// at the bottom-left corner
func annotationElement(annotations []plot.Annotation, fontSize float64, width, height int) gochart.Renderable {
	return func(r gochart.Renderer, canvasBox gochart.Box, defaults gochart.Style) {
		for _, a := range annotations {
			size := a.FontSize
			if size <= 0 {
				size = fontSize
			}
			r.SetFont(defaults.Font)
			r.SetFontColor(drawing.ColorBlack)
			r.SetFontSize(size)
			x := int(a.X * float64(width))
			y := int((1 - a.Y) * float64(height))
			for _, line := range texfmt.Lines(a.Text) {
				box := r.MeasureText(line)
				r.Text(line, x, y)
				y += box.Height() + int(size*0.4)
			}
		}
	}
}

func color(hex string, fallback drawing.Color) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if hex == "" {
		return fallback
	}
	return drawing.ColorFromHex(hex)
}

func withAlpha(c drawing.Color, alpha float64) drawing.Color {
	if alpha <= 0 || alpha >= 1 {
		return c
	}
	return c.WithAlpha(uint8(math.Round(alpha * 255)))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
