// Package plot holds the renderer-independent chart model: figures and their
// layers, axis specifications, peak tables and the styling theme.
package plot

// Format selects the encoding a renderer produces
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// Point is a single (x, y) coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AxisSpec overrides tick rendering on one axis. Ticks and Labels are
// positionally aligned.
type AxisSpec struct {
	Ticks  []float64 `json:"ticks"`
	Labels []string  `json:"labels"`
}

// Len returns the number of ticks
func (a AxisSpec) Len() int {
	return len(a.Ticks)
}

// PeakTable is a two-column record of detected extrema
type PeakTable struct {
	Columns [2]string `json:"columns"`
	Rows    []Point   `json:"rows"`
}

// NewPeakTable wraps rows with the standard "x"/"y" column names
func NewPeakTable(rows []Point) PeakTable {
	if rows == nil {
		rows = []Point{}
	}
	return PeakTable{Columns: [2]string{"x", "y"}, Rows: rows}
}

// Len returns the number of rows
func (t PeakTable) Len() int {
	return len(t.Rows)
}

// Xs returns the first column
func (t PeakTable) Xs() []float64 {
	out := make([]float64, len(t.Rows))
	for i, p := range t.Rows {
		out[i] = p.X
	}
	return out
}

// Ys returns the second column
func (t PeakTable) Ys() []float64 {
	out := make([]float64, len(t.Rows))
	for i, p := range t.Rows {
		out[i] = p.Y
	}
	return out
}

// Range is a closed axis interval
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
