package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/domain/plot"
	"physlab/internal/errors"
	"physlab/internal/testkit"
)

func sampleFigure() *plot.Figure {
	s := testkit.NewLabDataGenerator(testkit.LabGeneratorConfig{Points: 30, Step: 0.2, Noise: 0.05, Seed: 3}).Line(2, 1)
	fig := plot.NewFigure(640, 320)
	fig.Title = "Line fit\n$\\chi^2 = 0.98$"
	fig.XLabel = "$t$ [s]"
	fig.YLabel = "$x$ [m]"

	fitY := make([]float64, len(s.X))
	lower := make([]float64, len(s.X))
	upper := make([]float64, len(s.X))
	for i, x := range s.X {
		fitY[i] = 2*x + 1
		lower[i] = fitY[i] - 0.1
		upper[i] = fitY[i] + 0.1
	}
	fig.AddBand(plot.Band{X: s.X, Lower: lower, Upper: upper}).
		AddLine(plot.Line{X: s.X, Y: fitY}).
		AddErrorBars(plot.ErrorBars{X: s.X, Y: s.Y, YErr: s.YErr, XErr: []float64{0.05}, Visible: true}).
		AddScatter(plot.Scatter{X: s.X, Y: s.Y}).
		Annotate(0.7, 0.8, "a = 2.00±0.01\nb = 1.0±0.1", 10)
	fig.XTicks = &plot.AxisSpec{Ticks: []float64{0, 3, 6}, Labels: []string{"0", "$\\pi$", "$2\\pi$"}}
	return fig
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(plot.DefaultTheme(), nil).Render(&buf, sampleFigure(), plot.FormatPNG)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 320, cfg.Height)
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(plot.DefaultTheme(), nil).Render(&buf, sampleFigure(), plot.FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderUsesThemeSize(t *testing.T) {
	theme := plot.DefaultTheme()
	theme.Width, theme.Height = 300, 200
	theme.Grid = false

	fig := &plot.Figure{}
	fig.AddScatter(plot.Scatter{X: []float64{1, 2, 3}, Y: []float64{1, 4, 9}})

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(theme, nil).Render(&buf, fig, plot.FormatPNG))
	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestRenderSinglePoint(t *testing.T) {
	fig := plot.NewFigure(200, 200)
	fig.AddScatter(plot.Scatter{X: []float64{2}, Y: []float64{5}})

	var buf bytes.Buffer
	assert.NoError(t, NewRenderer(plot.DefaultTheme(), nil).Render(&buf, fig, plot.FormatPNG))
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer(plot.DefaultTheme(), nil)
	var buf bytes.Buffer

	err := r.Render(&buf, nil, plot.FormatPNG)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	err = r.Render(&buf, plot.NewFigure(100, 100), plot.FormatPNG)
	assert.True(t, errors.IsCode(err, errors.CodeInsufficientData))

	err = r.Render(&buf, sampleFigure(), plot.Format("gif"))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestAxisRange(t *testing.T) {
	assert.Nil(t, axisRange(nil, 0, 10))

	fixed := axisRange(&plot.Range{Min: -1, Max: 11}, 0, 10)
	assert.Equal(t, -1.0, fixed.GetMin())
	assert.Equal(t, 11.0, fixed.GetMax())

	widened := axisRange(nil, 5, 5)
	assert.Less(t, widened.GetMin(), 5.0)
	assert.Greater(t, widened.GetMax(), 5.0)
}

func TestTicksConvertLabels(t *testing.T) {
	got := ticks(&plot.AxisSpec{Ticks: []float64{0, 1}, Labels: []string{"0", "$\\pi$"}})
	require.Len(t, got, 2)
	assert.Equal(t, "π", got[1].Label)
	assert.Nil(t, ticks(nil))
}
