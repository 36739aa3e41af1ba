package plot

// Scatter draws markers at each (X[i], Y[i])
type Scatter struct {
	Name      string
	X, Y      []float64
	Color     string
	EdgeColor string
	Size      float64
}

// Line draws a polyline through (X[i], Y[i])
type Line struct {
	Name  string
	X, Y  []float64
	Color string
	Width float64
}

// Band fills the area between Lower and Upper over X
type Band struct {
	Name         string
	X            []float64
	Lower, Upper []float64
	Color        string
	Alpha        float64
}

// ErrorBars draws symmetric error bars around (X[i], Y[i]). XErr and YErr
// hold either one value per point or a single broadcast value; empty means
// no bar in that direction.
type ErrorBars struct {
	X, Y       []float64
	XErr, YErr []float64
	Color      string
	Alpha      float64
	Visible    bool
}

// Annotation is free text placed at figure-fraction coordinates, (0,0)
// being the bottom-left corner.
type Annotation struct {
	X, Y     float64
	Text     string
	FontSize float64
}

// Figure is the chart handle passed to customization hooks and renderers
type Figure struct {
	Title        string
	XLabel       string
	YLabel       string
	Width        int
	Height       int
	FontSize     float64
	TickFontSize float64

	Scatters    []Scatter
	Lines       []Line
	Bands       []Band
	ErrorBars   []ErrorBars
	Annotations []Annotation

	XRange *Range
	YRange *Range
	XTicks *AxisSpec
	YTicks *AxisSpec
}

// NewFigure creates an empty figure of the given pixel size
func NewFigure(width, height int) *Figure {
	return &Figure{Width: width, Height: height}
}

// AddScatter appends a scatter layer
func (f *Figure) AddScatter(s Scatter) *Figure {
	f.Scatters = append(f.Scatters, s)
	return f
}

// AddLine appends a line layer
func (f *Figure) AddLine(l Line) *Figure {
	f.Lines = append(f.Lines, l)
	return f
}

// AddBand appends a fill-between layer
func (f *Figure) AddBand(b Band) *Figure {
	f.Bands = append(f.Bands, b)
	return f
}

// AddErrorBars appends an error bar layer
func (f *Figure) AddErrorBars(e ErrorBars) *Figure {
	f.ErrorBars = append(f.ErrorBars, e)
	return f
}

// Annotate places text at figure-fraction coordinates
func (f *Figure) Annotate(x, y float64, text string, fontSize float64) *Figure {
	f.Annotations = append(f.Annotations, Annotation{X: x, Y: y, Text: text, FontSize: fontSize})
	return f
}

// SetErrorBarsVisible toggles every error bar layer
func (f *Figure) SetErrorBarsVisible(visible bool) {
	for i := range f.ErrorBars {
		f.ErrorBars[i].Visible = visible
	}
}

// SetXRange fixes the x axis interval
func (f *Figure) SetXRange(min, max float64) {
	f.XRange = &Range{Min: min, Max: max}
}

// SetYRange fixes the y axis interval
func (f *Figure) SetYRange(min, max float64) {
	f.YRange = &Range{Min: min, Max: max}
}

// Empty reports whether the figure has no drawable layers
func (f *Figure) Empty() bool {
	return len(f.Scatters) == 0 && len(f.Lines) == 0 && len(f.Bands) == 0
}

// ErrAt returns the i-th error from a per-point or broadcast error slice
func ErrAt(errs []float64, i int) float64 {
	switch {
	case len(errs) == 0:
		return 0
	case len(errs) == 1:
		return errs[0]
	case i < len(errs):
		return errs[i]
	default:
		return 0
	}
}
