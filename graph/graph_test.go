package graph

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/adapters/chart"
	"physlab/adapters/solver"
	"physlab/domain/plot"
	"physlab/domain/table"
	"physlab/internal/errors"
	"physlab/internal/testkit"
)

func lineModel() *Model {
	return &Model{
		Func:       func(x float64, p []float64) float64 { return p[0]*x + p[1] },
		ParamNames: []string{"a", "b"},
	}
}

func newGrapher(reader *testkit.FakeSheetReader) (*Grapher, *testkit.FakeRenderer) {
	renderer := &testkit.FakeRenderer{}
	var g *Grapher
	if reader == nil {
		g = NewGrapher(solver.NewLevenbergMarquardt(0, nil), renderer, nil, plot.DefaultTheme(), nil)
	} else {
		g = NewGrapher(solver.NewLevenbergMarquardt(0, nil), renderer, reader, plot.DefaultTheme(), nil)
	}
	return g, renderer
}

func noisyLine() testkit.Series {
	cfg := testkit.LabGeneratorConfig{Points: 40, Start: 1, Step: 0.25, Noise: 0.05, Seed: 11}
	return testkit.NewLabDataGenerator(cfg).Line(2, 1)
}

func TestGraphItWithFit(t *testing.T) {
	s := noisyLine()
	g, _ := newGrapher(nil)
	opts := DefaultOptions()
	opts.Title = "Spring"
	opts.Units = []string{" N/m"}

	res, err := g.GraphIt(context.Background(), s.X, s.Y, lineModel(), opts)
	require.NoError(t, err)

	require.Len(t, res.Params, 2)
	assert.Equal(t, []string{"a", "b"}, res.ParamNames)
	assert.InDelta(t, 2, res.Params[0].Nominal(), 0.05)
	assert.InDelta(t, 1, res.Params[1].Nominal(), 0.1)
	assert.Greater(t, res.Params[0].StdDev(), 0.0)
	assert.Nil(t, res.ChiSquared, "no y error means no chi squared")
	assert.Equal(t, "Spring", res.Main.Title)

	main := res.Main
	require.Len(t, main.Lines, 1)
	assert.Len(t, main.Lines[0].X, 3*len(s.X))
	require.Len(t, main.Bands, 1)
	assert.Greater(t, main.Bands[0].Upper[0]-main.Bands[0].Lower[0], 0.0)
	require.Len(t, main.Annotations, 1)
	assert.Contains(t, main.Annotations[0].Text, "a = ")
	assert.Contains(t, main.Annotations[0].Text, " N/m\nb = ")
	assert.Equal(t, 0.8, main.Annotations[0].X)
	require.Len(t, main.Scatters, 1)
	require.Len(t, main.ErrorBars, 1)
	assert.False(t, main.ErrorBars[0].Visible)

	// x axis spans the 10% widened data range
	assert.InDelta(t, 0.9, main.XRange.Min, 1e-12)
	assert.InDelta(t, 1.1*s.X[len(s.X)-1], main.XRange.Max, 1e-12)

	require.NotNil(t, res.Residuals)
	assert.Equal(t, "Residuals Plot of Spring", res.Residuals.Title)
	assert.Equal(t, 500, res.Residuals.Height)
	require.Len(t, res.Residuals.Scatters, 1)
	resid := res.Residuals.Scatters[0].Y
	for _, r := range resid {
		assert.GreaterOrEqual(t, r, res.Residuals.YRange.Min)
		assert.LessOrEqual(t, r, res.Residuals.YRange.Max)
	}
}

func TestGraphItChiSquared(t *testing.T) {
	s := noisyLine()
	g, _ := newGrapher(nil)
	opts := DefaultOptions()
	opts.Title = "Line"
	opts.YErr = []float64{0.05}

	res, err := g.GraphIt(context.Background(), s.X, s.Y, lineModel(), opts)
	require.NoError(t, err)
	require.NotNil(t, res.ChiSquared)
	assert.InDelta(t, 1, *res.ChiSquared, 0.6)
	assert.Contains(t, res.Main.Title, "Line\n$\\chi^2 = ")
	assert.Contains(t, res.Residuals.Title, "Residuals Plot of Line\n$\\chi^2")
}

func TestGraphItSkipsUnusableChiSquared(t *testing.T) {
	s := noisyLine()
	g, _ := newGrapher(nil)
	opts := DefaultOptions()
	opts.Title = "Line"
	opts.YErr = make([]float64, len(s.X))
	for i := range opts.YErr {
		opts.YErr[i] = 0.05
	}
	opts.YErr[3] = 0

	res, err := g.GraphIt(context.Background(), s.X, s.Y, lineModel(), opts)
	require.NoError(t, err)
	assert.Nil(t, res.ChiSquared)
	assert.NotContains(t, res.Main.Title, "chi^2")
	assert.Len(t, res.Params, 2)
	assert.NotNil(t, res.Residuals)
}

func TestGraphItWithoutModel(t *testing.T) {
	g, _ := newGrapher(nil)
	opts := DefaultOptions()
	opts.XScale = &plot.AxisSpec{Ticks: []float64{0, 1}, Labels: []string{"0", "1"}}

	res, err := g.GraphIt(context.Background(), []float64{0, 1, 2}, []float64{1, 3, 2}, nil, opts)
	require.NoError(t, err)
	assert.Nil(t, res.Params)
	assert.Nil(t, res.Residuals)
	assert.Nil(t, res.ChiSquared)
	assert.Empty(t, res.Main.Lines)
	assert.Empty(t, res.Main.Bands)
	assert.Empty(t, res.Main.Annotations)
	assert.Same(t, opts.XScale, res.Main.XTicks)
	assert.InDelta(t, 2.2, res.Main.XRange.Max, 1e-12)
}

func TestGraphItHooks(t *testing.T) {
	s := noisyLine()
	g, _ := newGrapher(nil)
	opts := DefaultOptions()
	opts.MainHook = func(fig *plot.Figure) error {
		fig.SetErrorBarsVisible(true)
		fig.SetYRange(0, 20)
		return nil
	}
	var residualCalls int
	opts.ResidualHook = func(fig *plot.Figure) error {
		residualCalls++
		return nil
	}

	res, err := g.GraphIt(context.Background(), s.X, s.Y, lineModel(), opts)
	require.NoError(t, err)
	assert.True(t, res.Main.ErrorBars[0].Visible)
	assert.Equal(t, &plot.Range{Min: 0, Max: 20}, res.Main.YRange)
	assert.Equal(t, 1, residualCalls)

	opts.MainHook = func(*plot.Figure) error { return stderrors.New("bad hook") }
	_, err = g.GraphIt(context.Background(), s.X, s.Y, lineModel(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main figure hook failed")
}

func TestGraphItValidation(t *testing.T) {
	g, _ := newGrapher(nil)
	ctx := context.Background()
	opts := DefaultOptions()

	_, err := g.GraphIt(ctx, []float64{1, 2}, []float64{1}, nil, opts)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	_, err = g.GraphIt(ctx, nil, nil, nil, opts)
	assert.True(t, errors.IsCode(err, errors.CodeInsufficientData))

	bad := lineModel()
	bad.ParamNames = nil
	_, err = g.GraphIt(ctx, []float64{1, 2, 3}, []float64{1, 2, 3}, bad, opts)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))

	bad = lineModel()
	bad.Guess = []float64{1}
	_, err = g.GraphIt(ctx, []float64{1, 2, 3}, []float64{1, 2, 3}, bad, opts)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestModelFromExpression(t *testing.T) {
	m, err := ModelFromExpression("a*x + b", "x", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.ParamNames)
	assert.Equal(t, 7.0, m.Func(3, []float64{2, 1}))

	_, err = ModelFromExpression("a*x + c", "x", []string{"a"})
	assert.Error(t, err)
}

func TestSaveWritesBothFigures(t *testing.T) {
	s := noisyLine()
	theme := plot.DefaultTheme()
	theme.Width, theme.Height = 400, 200
	g := NewGrapher(solver.NewLevenbergMarquardt(0, nil), chart.NewRenderer(theme, nil), nil, theme, nil)

	opts := DefaultOptions()
	opts.Width, opts.Height, opts.ResidualHeight = 400, 200, 100
	res, err := g.GraphIt(context.Background(), s.X, s.Y, lineModel(), opts)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := g.Save(context.Background(), res, dir, "spring")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "spring.png"), filepath.Join(dir, "spring_residuals.png")}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	_, err = g.Save(context.Background(), nil, dir, "x")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestDynamicDrawPublishesUntilCancelled(t *testing.T) {
	cfg := testkit.LabGeneratorConfig{Points: 5, Step: 1, Seed: 2}
	gen := testkit.NewLabDataGenerator(cfg)
	reader := testkit.NewFakeSheetReader(
		testkit.TableFromSeries(gen.Line(1, 0), "t", "v"),
		testkit.TableFromSeries(gen.Line(2, 0), "t", "v"),
	)
	g, renderer := newGrapher(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &testkit.RecordingSink{Limit: 3, Cancel: cancel}

	err := g.DynamicDraw(ctx, "/data/run.xlsx", time.Millisecond, "", sink)
	require.NoError(t, err)

	frames := sink.Frames()
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, i+1, f.Seq)
		assert.False(t, f.Hash.IsEmpty())
		assert.Equal(t, plot.FormatPNG, f.Format)
	}
	assert.Equal(t, []string{"Sheet1", "Sheet1", "Sheet1"}, reader.Sheets())

	figs := renderer.Figures()
	require.Len(t, figs, 3)
	assert.Equal(t, "run.xlsx", figs[0].Title)
	assert.Equal(t, "t", figs[0].XLabel)
	assert.Equal(t, "v", figs[0].YLabel)
}

func TestDynamicDrawWaitsForRows(t *testing.T) {
	empty := &table.Table{Source: "memory", Sheet: "Sheet1", Headers: []string{"t", "v"}}
	gen := testkit.NewLabDataGenerator(testkit.LabGeneratorConfig{Points: 4, Step: 1, Seed: 3})
	reader := testkit.NewFakeSheetReader(empty, empty, testkit.TableFromSeries(gen.Line(1, 0), "t", "v"))
	g, _ := newGrapher(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &testkit.RecordingSink{Limit: 2, Cancel: cancel}

	require.NoError(t, g.DynamicDraw(ctx, "run.xlsx", time.Millisecond, "", sink))

	frames := sink.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, 1, frames[0].Seq)
	assert.Equal(t, 2, frames[1].Seq)
	assert.Equal(t, 4, reader.Calls())
}

func TestDynamicDrawReadFailurePropagates(t *testing.T) {
	reader := testkit.NewFakeSheetReader()
	reader.Err = errors.IOError("XLSX file not found", nil)
	g, _ := newGrapher(reader)

	err := g.DynamicDraw(context.Background(), "missing.xlsx", time.Millisecond, "Sheet1", &testkit.RecordingSink{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIO))
}

func TestDynamicDrawValidation(t *testing.T) {
	g, _ := newGrapher(nil)
	err := g.DynamicDraw(context.Background(), "f.xlsx", 0, "", &testkit.RecordingSink{})
	assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))

	g, _ = newGrapher(testkit.NewFakeSheetReader())
	err = g.DynamicDraw(context.Background(), "f.xlsx", 0, "", nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestFileSinkReplacesFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.png")
	sink := NewFileSink(path, nil)

	require.NoError(t, sink.Publish(context.Background(), plot.NewFrame(1, []byte("first"), plot.FormatPNG, time.Now())))
	require.NoError(t, sink.Publish(context.Background(), plot.NewFrame(2, []byte("second"), plot.FormatPNG, time.Now())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
