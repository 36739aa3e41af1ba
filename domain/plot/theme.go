package plot

// Theme is the explicit styling configuration handed to the graph and
// renderer. Colours are hex strings without the leading '#'.
type Theme struct {
	FontScale     float64 `json:"font_scale"`
	BaseFontSize  float64 `json:"base_font_size"`
	Grid          bool    `json:"grid"`
	Background    string  `json:"background"`
	GridColor     string  `json:"grid_color"`
	DataColor     string  `json:"data_color"`
	DataEdgeColor string  `json:"data_edge_color"`
	FitColor      string  `json:"fit_color"`
	BandColor     string  `json:"band_color"`
	BandAlpha     float64 `json:"band_alpha"`
	ErrorBarColor string  `json:"error_bar_color"`
	ErrorBarAlpha float64 `json:"error_bar_alpha"`
	PointSize     float64 `json:"point_size"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Format        Format  `json:"format"`
}

// DefaultTheme is a white background with a light grid, red markers with
// black edges, a black fit line and a midnight-blue confidence band.
func DefaultTheme() Theme {
	return Theme{
		FontScale:     2.0,
		BaseFontSize:  10,
		Grid:          true,
		Background:    "ffffff",
		GridColor:     "dddddd",
		DataColor:     "ff0000",
		DataEdgeColor: "000000",
		FitColor:      "000000",
		BandColor:     "191970",
		BandAlpha:     0.15,
		ErrorBarColor: "ff0000",
		ErrorBarAlpha: 0.6,
		PointSize:     7,
		Width:         2000,
		Height:        1000,
		Format:        FormatPNG,
	}
}

// FontSize returns the scaled base font size
func (t Theme) FontSize() float64 {
	scale := t.FontScale
	if scale <= 0 {
		scale = 1
	}
	base := t.BaseFontSize
	if base <= 0 {
		base = 10
	}
	return base * scale
}
