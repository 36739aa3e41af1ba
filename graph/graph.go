// Package graph fits data, annotates the result and turns it into figures:
// a main chart with the fitted curve, confidence band and parameter legend,
// and an optional residual chart. It also runs the live-refresh loop that
// redraws a spreadsheet as it is edited.
package graph

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"physlab/domain/plot"
	"physlab/domain/uncertain"
	"physlab/generators"
	"physlab/internal"
	"physlab/internal/errors"
	"physlab/measure"
	"physlab/ports"
	"physlab/symbolic"
)

// FitEvaluations is the evaluation budget for GraphIt fits
const FitEvaluations = 100000

// Model is a fit function with named parameters
type Model struct {
	Func       ports.ModelFunc
	ParamNames []string
	// Guess seeds the fit; nil starts every parameter at 1
	Guess []float64
}

// ModelFromExpression compiles an expression such as "a*exp(-x/tau)+c"
// into a model of x with the given parameters
func ModelFromExpression(text, x string, params []string) (*Model, error) {
	f, err := symbolic.Compile(text, x, params)
	if err != nil {
		return nil, err
	}
	return &Model{Func: f, ParamNames: append([]string(nil), params...)}, nil
}

// Hook customizes a figure after it is built
type Hook func(fig *plot.Figure) error

// Options control what GraphIt draws
type Options struct {
	Title  string
	XLabel string
	YLabel string

	// XErr and YErr hold one value per point or a single broadcast value
	XErr []float64
	YErr []float64
	// ResidualXErr and ResidualYErr are the residual chart's error bars
	ResidualXErr []float64
	ResidualYErr []float64

	ShowBand      bool
	ShowResiduals bool
	ShowChi       bool
	ShowParams    bool
	ShowErrorBars bool

	SigDigits int
	// CoeffX and CoeffY place the parameter legend in figure fractions
	CoeffX, CoeffY float64
	// Units are appended to each legend line, aligned with ParamNames
	Units []string

	XScale *plot.AxisSpec
	YScale *plot.AxisSpec

	Width, Height  int
	ResidualHeight int
	TickFontSize   float64
	LegendFontSize float64

	MainHook     Hook
	ResidualHook Hook
}

// DefaultOptions returns band, residuals, chi squared and legend enabled,
// three significant digits and the legend at (0.8, 0.8)
func DefaultOptions() Options {
	return Options{
		ShowBand:       true,
		ShowResiduals:  true,
		ShowChi:        true,
		ShowParams:     true,
		SigDigits:      3,
		CoeffX:         0.8,
		CoeffY:         0.8,
		Width:          2000,
		Height:         1000,
		ResidualHeight: 500,
		TickFontSize:   25,
		LegendFontSize: 20,
	}
}

// Result is the outcome of GraphIt. Params is nil when no model was given.
type Result struct {
	Params     []uncertain.Value
	ParamNames []string
	Main       *plot.Figure
	Residuals  *plot.Figure
	ChiSquared *float64
}

// Grapher builds and renders figures
type Grapher struct {
	fitter   ports.FitterPort
	renderer ports.ChartRendererPort
	reader   ports.SheetReaderPort
	theme    plot.Theme
	logger   *internal.Logger
}

// NewGrapher creates a grapher. The reader is only needed by DynamicDraw.
func NewGrapher(fitter ports.FitterPort, renderer ports.ChartRendererPort, reader ports.SheetReaderPort, theme plot.Theme, logger *internal.Logger) *Grapher {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Grapher{
		fitter:   fitter,
		renderer: renderer,
		reader:   reader,
		theme:    theme,
		logger:   logger,
	}
}

// fitOutcome carries what the fit contributes to the figures
type fitOutcome struct {
	params []float64
	sigma  []float64
	modelX []float64
}

// GraphIt plots y(x), fitting model when it is non-nil
func (g *Grapher) GraphIt(ctx context.Context, x, y []float64, model *Model, opts Options) (*Result, error) {
	if len(x) != len(y) {
		return nil, errors.InvalidInput(fmt.Sprintf("x has %d points but y has %d", len(x), len(y)))
	}
	if len(x) == 0 {
		return nil, errors.InsufficientData("no data to plot")
	}
	x = append([]float64(nil), x...)
	y = append([]float64(nil), y...)

	title := opts.Title
	main := g.newFigure(opts.Width, opts.Height, opts)
	res := &Result{}

	var fit *fitOutcome
	if model != nil {
		var err error
		fit, err = g.fit(ctx, x, y, model)
		if err != nil {
			return nil, err
		}
		res.ParamNames = append([]string(nil), model.ParamNames...)
		res.Params = make([]uncertain.Value, len(fit.params))
		for i := range fit.params {
			res.Params[i] = uncertain.New(fit.params[i], fit.sigma[i])
		}

		main.AddLine(plot.Line{Name: "fit", X: fit.modelX, Y: evalAll(model.Func, fit.modelX, fit.params), Color: g.theme.FitColor})

		if opts.ShowChi {
			if !hasErrors(opts.YErr) {
				g.logger.Info("[Graph] No stat. error data provided, skipping chi squared calculation")
			} else {
				if chi, err := measure.ChiSquared(x, y, fit.params, opts.YErr, model.Func); err != nil {
					g.logger.Warn("[Graph] Skipping chi squared: %v", err)
				} else {
					res.ChiSquared = &chi
					title += fmt.Sprintf("\n$\\chi^2 = %s$", formatChi(chi, opts.SigDigits))
				}
			}
		}

		if opts.ShowBand {
			upper := evalAll(model.Func, fit.modelX, shifted(fit.params, fit.sigma, 1))
			lower := evalAll(model.Func, fit.modelX, shifted(fit.params, fit.sigma, -1))
			main.AddBand(plot.Band{Name: "1σ", X: fit.modelX, Lower: lower, Upper: upper, Color: g.theme.BandColor, Alpha: g.theme.BandAlpha})
		}

		if opts.ShowParams {
			legend := paramLegend(model.ParamNames, res.Params, opts.Units, opts.SigDigits)
			main.Annotate(opts.CoeffX, opts.CoeffY, legend, opts.LegendFontSize)
		}
	}

	main.AddErrorBars(plot.ErrorBars{X: x, Y: y, XErr: opts.XErr, YErr: opts.YErr, Color: g.theme.ErrorBarColor, Alpha: g.theme.ErrorBarAlpha, Visible: opts.ShowErrorBars})
	main.AddScatter(plot.Scatter{Name: "data", X: x, Y: y, Color: g.theme.DataColor, EdgeColor: g.theme.DataEdgeColor, Size: g.theme.PointSize})
	main.Title = title
	main.XTicks = opts.XScale
	main.YTicks = opts.YScale

	// the x axis always spans the widened data range the fit is drawn over
	lo, hi := floats.Min(x), floats.Max(x)
	span := generators.ExpandLinspace(lo, hi, 2)
	main.SetXRange(span[0], span[1])

	if opts.MainHook != nil {
		if err := opts.MainHook(main); err != nil {
			return nil, errors.Wrap(err, "main figure hook failed")
		}
	}
	res.Main = main

	if opts.ShowResiduals && fit != nil {
		resid, err := g.residualFigure(x, y, model, fit, title, opts)
		if err != nil {
			return nil, err
		}
		res.Residuals = resid
	}

	g.logger.Debug("[Graph] %d points, fitted=%t, residuals=%t", len(x), fit != nil, res.Residuals != nil)
	return res, nil
}

func (g *Grapher) fit(ctx context.Context, x, y []float64, model *Model) (*fitOutcome, error) {
	if model.Func == nil {
		return nil, errors.InvalidInput("model has no function")
	}
	if len(model.ParamNames) == 0 {
		return nil, errors.InvalidInput("model needs parameter names")
	}
	if model.Guess != nil && len(model.Guess) != len(model.ParamNames) {
		return nil, errors.InvalidInput(fmt.Sprintf("model has %d parameter names but %d guesses", len(model.ParamNames), len(model.Guess)))
	}
	if g.fitter == nil {
		return nil, errors.ConfigInvalid("no fitter configured")
	}

	fr, err := g.fitter.CurveFit(ctx, ports.FitRequest{
		Model:          model.Func,
		X:              x,
		Y:              y,
		Guess:          model.Guess,
		NumParams:      len(model.ParamNames),
		MaxEvaluations: FitEvaluations,
	})
	if err != nil {
		return nil, errors.Wrap(err, "fit failed")
	}

	sigma := make([]float64, len(fr.Params))
	for i := range sigma {
		sigma[i] = math.Sqrt(fr.Cov[i][i])
	}
	return &fitOutcome{
		params: fr.Params,
		sigma:  sigma,
		modelX: generators.ExpandLinspace(floats.Min(x), floats.Max(x), len(x)*3),
	}, nil
}

// residualFigure plots y − f(x) with its own error bars and a y range
// padded by half of each extreme residual
func (g *Grapher) residualFigure(x, y []float64, model *Model, fit *fitOutcome, title string, opts Options) (*plot.Figure, error) {
	resid := make([]float64, len(x))
	for i := range x {
		resid[i] = y[i] - model.Func(x[i], fit.params)
	}

	fig := g.newFigure(opts.Width, opts.ResidualHeight, opts)
	fig.Title = "Residuals Plot of " + title
	fig.AddErrorBars(plot.ErrorBars{X: x, Y: resid, XErr: opts.ResidualXErr, YErr: opts.ResidualYErr, Color: g.theme.ErrorBarColor, Alpha: g.theme.ErrorBarAlpha, Visible: hasErrors(opts.ResidualXErr) || hasErrors(opts.ResidualYErr)})
	fig.AddScatter(plot.Scatter{Name: "residuals", X: x, Y: resid, Color: g.theme.DataColor, EdgeColor: g.theme.DataEdgeColor, Size: g.theme.PointSize})
	fig.AddLine(plot.Line{Name: "zero", X: []float64{fit.modelX[0], fit.modelX[len(fit.modelX)-1]}, Y: []float64{0, 0}, Color: g.theme.GridColor, Width: 1})
	fig.SetXRange(fit.modelX[0], fit.modelX[len(fit.modelX)-1])

	lo, hi := floats.Min(resid), floats.Max(resid)
	lo -= math.Abs(lo * 0.5)
	hi += math.Abs(hi * 0.5)
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	fig.SetYRange(lo, hi)

	if opts.ResidualHook != nil {
		if err := opts.ResidualHook(fig); err != nil {
			return nil, errors.Wrap(err, "residual figure hook failed")
		}
	}
	return fig, nil
}

func (g *Grapher) newFigure(width, height int, opts Options) *plot.Figure {
	if width <= 0 {
		width = g.theme.Width
	}
	if height <= 0 {
		height = g.theme.Height
	}
	fig := plot.NewFigure(width, height)
	fig.XLabel = opts.XLabel
	fig.YLabel = opts.YLabel
	fig.FontSize = g.theme.FontSize()
	fig.TickFontSize = opts.TickFontSize
	return fig
}

func evalAll(f ports.ModelFunc, xs, params []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f(x, params)
	}
	return out
}

func shifted(params, sigma []float64, sign float64) []float64 {
	out := make([]float64, len(params))
	for i := range params {
		out[i] = params[i] + sign*sigma[i]
	}
	return out
}

func hasErrors(errs []float64) bool {
	for _, e := range errs {
		if e != 0 {
			return true
		}
	}
	return false
}

func paramLegend(names []string, values []uncertain.Value, units []string, sig int) string {
	var sb strings.Builder
	for i, v := range values {
		unit := ""
		if i < len(units) {
			unit = units[i]
		}
		fmt.Fprintf(&sb, "%s = %s%s\n", names[i], v.Format(sig), unit)
	}
	return sb.String()
}

func formatChi(chi float64, sig int) string {
	if sig < 1 {
		sig = 3
	}
	return fmt.Sprintf("%.*g", sig+1, chi)
}
