package main

import (
	"context"
	"fmt"
	"math"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"physlab/adapters/excel"
	"physlab/dataproc"
	"physlab/domain/plot"
	"physlab/generators"
	"physlab/graph"
	"physlab/internal/container"
	"physlab/internal/errors"
	"physlab/measure"
	"physlab/symbolic"
	"physlab/ui"
)

var sineParamNames = []string{"amp", "omega", "phase", "offset"}

// readColumns reads every numeric column of a sheet, requiring at least min
func readColumns(ctx context.Context, c *container.Container, path string, min int) ([][]float64, error) {
	t, err := c.Reader.ReadTable(ctx, path, c.Config.Live.Sheet)
	if err != nil {
		return nil, err
	}
	if len(t.Headers) < min {
		return nil, errors.InvalidInput(fmt.Sprintf("%s needs at least %d columns, found %d", path, min, len(t.Headers)))
	}
	idx := make([]int, len(t.Headers))
	for i := range idx {
		idx[i] = i
	}
	return t.Numeric(idx...)
}

func newChi2Cmd(flags *globalFlags) *cobra.Command {
	var model string
	var params []string
	var values []float64

	cmd := &cobra.Command{
		Use:   "chi2 [file]",
		Short: "Reduced chi squared of a model against x, y, y-error columns",
		Example: `  physlab chi2 data.xlsx --model "a*x+b" --params a,b --values 2,1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(params) != len(values) {
				return errors.InvalidInput(fmt.Sprintf("%d parameter names but %d values", len(params), len(values)))
			}
			c, err := setup(flags)
			if err != nil {
				return err
			}
			cols, err := readColumns(cmd.Context(), c, args[0], 3)
			if err != nil {
				return err
			}
			f, err := symbolic.Compile(model, "x", params)
			if err != nil {
				return err
			}
			res, err := measure.ChiSquaredTest(cols[0], cols[1], values, cols[2], f)
			if err != nil {
				return err
			}
			color := "green"
			if math.Abs(res.Reduced-1) > 0.5 {
				color = "red"
			}
			msg := fmt.Sprintf("chi2/dof = %.4g (chi2 = %.4g, dof = %d, p = %.3g)", res.Reduced, res.ChiSquared, res.DOF, res.PValue)
			return printer(flags, cmd.OutOrStdout()).PrintColorBold(msg, color)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model expression in x and the parameters")
	cmd.Flags().StringSliceVar(&params, "params", nil, "Parameter names")
	cmd.Flags().Float64SliceVar(&values, "values", nil, "Parameter values, aligned with --params")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newFreqCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "freq [file]",
		Short: "Frequencies between consecutive timestamps in the first column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(flags)
			if err != nil {
				return err
			}
			cols, err := readColumns(cmd.Context(), c, args[0], 1)
			if err != nil {
				return err
			}
			for i, f := range dataproc.FreqOverTime(cols[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.6g\n", i+1, f)
			}
			return nil
		},
	}
}

func newPeaksCmd(flags *globalFlags) *cobra.Command {
	var sensitivity int
	var minima bool
	var out string

	cmd := &cobra.Command{
		Use:   "peaks [file]",
		Short: "Detect maxima (or minima) in x, y columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(flags)
			if err != nil {
				return err
			}
			cols, err := readColumns(cmd.Context(), c, args[0], 2)
			if err != nil {
				return err
			}

			detect := c.Processor.DetectMaxima
			if minima {
				detect = c.Processor.DetectMinima
			}
			table, err := detect(cols[0], cols[1], sensitivity)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s\t%s\n", table.Columns[0], table.Columns[1])
			for _, p := range table.Rows {
				fmt.Fprintf(w, "%.6g\t%.6g\n", p.X, p.Y)
			}
			if out != "" {
				if err := excel.WritePeakTable(out, table); err != nil {
					return err
				}
				c.Logger.Info("Wrote %d peaks to %s", table.Len(), out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&sensitivity, "sensitivity", 0, "Lookahead in samples (0 selects the default)")
	cmd.Flags().BoolVar(&minima, "minima", false, "Detect minima instead of maxima")
	cmd.Flags().StringVar(&out, "out", "", "Also write the table to this .xlsx or .csv file")
	return cmd
}

func newFitSinCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fitsin [file]",
		Short: "Fit amp·sin(omega·t + phase) + offset to t, y columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(flags)
			if err != nil {
				return err
			}
			cols, err := readColumns(cmd.Context(), c, args[0], 2)
			if err != nil {
				return err
			}
			fit, err := c.Processor.FitSin(cmd.Context(), cols[0], cols[1])
			if err != nil {
				return err
			}

			p := printer(flags, cmd.OutOrStdout())
			for i, v := range fit.Uncertain() {
				if err := p.PrintNamedValue(sineParamNames[i], v, flags.sig); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "frequency = %.6g\nperiod = %.6g\nmax covariance = %.3g\n", fit.Freq, fit.Period, fit.MaxCov)
			return nil
		},
	}
}

func newFitCmd(flags *globalFlags) *cobra.Command {
	var (
		model, title, xlabel, ylabel, outDir, prefix string
		params, units                                []string
		guess                                        []float64
		piAxis, noResiduals, noBand, errorBars       bool
	)

	cmd := &cobra.Command{
		Use:   "fit [file]",
		Short: "Fit a model to x, y[, y-error[, x-error]] columns and save the charts",
		Example: `  physlab fit spring.xlsx --model "k*x+b" --params k,b --title "Hooke" --out charts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(flags)
			if err != nil {
				return err
			}
			cols, err := readColumns(cmd.Context(), c, args[0], 2)
			if err != nil {
				return err
			}

			opts := graph.DefaultOptions()
			opts.Title, opts.XLabel, opts.YLabel = title, xlabel, ylabel
			opts.SigDigits = flags.sig
			opts.Units = units
			opts.ShowResiduals = !noResiduals
			opts.ShowBand = !noBand
			opts.ShowErrorBars = errorBars
			if len(cols) > 2 {
				opts.YErr = cols[2]
				opts.ResidualYErr = cols[2]
			}
			if len(cols) > 3 {
				opts.XErr = cols[3]
			}
			if piAxis {
				lo, hi := minMax(cols[0])
				spec, err := generators.PiAxis(lo, hi, 5)
				if err != nil {
					return err
				}
				opts.XScale = &spec
			}

			var m *graph.Model
			if model != "" {
				m, err = graph.ModelFromExpression(model, "x", params)
				if err != nil {
					return err
				}
				m.Guess = guess
			}

			res, err := c.Grapher.GraphIt(cmd.Context(), cols[0], cols[1], m, opts)
			if err != nil {
				return err
			}

			p := printer(flags, cmd.OutOrStdout())
			for i, v := range res.Params {
				if err := p.PrintNamedValue(res.ParamNames[i], v, flags.sig); err != nil {
					return err
				}
			}
			if res.ChiSquared != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "chi2/dof = %.4g\n", *res.ChiSquared)
			}

			if prefix == "" {
				prefix = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			paths, err := c.Grapher.Save(cmd.Context(), res, outDir, prefix)
			if err != nil {
				return err
			}
			for _, path := range paths {
				c.Logger.Info("Saved %s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model expression in x and the parameters; empty draws data only")
	cmd.Flags().StringSliceVar(&params, "params", nil, "Parameter names")
	cmd.Flags().Float64SliceVar(&guess, "guess", nil, "Initial parameter guess")
	cmd.Flags().StringSliceVar(&units, "units", nil, "Units appended to each parameter in the legend")
	cmd.Flags().StringVar(&title, "title", "", "Chart title")
	cmd.Flags().StringVar(&xlabel, "xlabel", "", "X axis label")
	cmd.Flags().StringVar(&ylabel, "ylabel", "", "Y axis label")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory for the rendered charts")
	cmd.Flags().StringVar(&prefix, "prefix", "", "File name prefix (default: input base name)")
	cmd.Flags().BoolVar(&piAxis, "pi-axis", false, "Label x ticks as multiples of π")
	cmd.Flags().BoolVar(&noResiduals, "no-residuals", false, "Skip the residuals chart")
	cmd.Flags().BoolVar(&noBand, "no-band", false, "Skip the confidence band")
	cmd.Flags().BoolVar(&errorBars, "error-bars", false, "Draw error bars on the main chart")
	return cmd
}

func newLiveCmd(flags *globalFlags) *cobra.Command {
	var interval time.Duration
	var out, addr string
	var serve bool

	cmd := &cobra.Command{
		Use:   "live [file]",
		Short: "Redraw a scatter plot of a growing sheet until interrupted",
		Long: `Re-read the first two columns of the file on every tick and render
them as a scatter plot. Frames go to an image file, or with --serve to a
browser page that updates as new frames arrive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(flags)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = c.Config.Live.RefreshInterval
			}
			if addr == "" {
				addr = c.Config.Live.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !serve {
				if out == "" {
					out = "live." + string(formatOf(c))
				}
				return c.Grapher.DynamicDraw(ctx, args[0], interval, c.Config.Live.Sheet, graph.NewFileSink(out, c.Logger))
			}

			server, err := ui.NewServer(filepath.Base(args[0]), c.Logger)
			if err != nil {
				return err
			}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return server.Start(gctx, addr) })
			g.Go(func() error {
				return c.Grapher.DynamicDraw(gctx, args[0], interval, c.Config.Live.Sheet, server)
			})
			return g.Wait()
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from LIVE_REFRESH)")
	cmd.Flags().StringVar(&out, "out", "", "Image file receiving each frame")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve frames to a browser instead of a file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for --serve (default from LIVE_ADDR)")
	return cmd
}

func newWolframCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "wolfram [query...]",
		Short:   "Ask the Wolfram Alpha engine and show every result image",
		Example: `  physlab wolfram integrate x^2 sin x`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(flags)
			if err != nil {
				return err
			}
			res, err := c.Processor.WolframQuery(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printer(flags, cmd.OutOrStdout()).PrintWolfram(res)
		},
	}
}

func formatOf(c *container.Container) plot.Format {
	if f := c.Config.Plot.Theme.Format; f != "" {
		return f
	}
	return plot.FormatPNG
}

func minMax(xs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range xs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}
