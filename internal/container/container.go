// Package container wires configuration into the adapters and services the
// command line tools use.
package container

import (
	"physlab/adapters/chart"
	"physlab/adapters/excel"
	"physlab/adapters/peaks"
	"physlab/adapters/solver"
	"physlab/adapters/wolfram"
	"physlab/dataproc"
	"physlab/graph"
	"physlab/internal"
	"physlab/internal/config"
	"physlab/internal/errors"
	"physlab/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	Fitter   ports.FitterPort
	Peaks    ports.PeakDetectorPort
	Reader   ports.SheetReaderPort
	Engine   ports.KnowledgeEnginePort
	Renderer ports.ChartRendererPort

	// Services
	Processor *dataproc.Processor
	Grapher   *graph.Grapher
}

// New creates a container from configuration
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.initAdapters()
	c.initServices()

	logger.Debug("[Container] initialized (theme %s, max evaluations %d)", cfg.Plot.Theme.Format, cfg.Fit.MaxEvaluations)
	return c, nil
}

func (c *Container) initAdapters() {
	c.Fitter = solver.NewLevenbergMarquardt(c.Config.Fit.MaxEvaluations, c.Logger)
	c.Peaks = peaks.NewLookahead(0)
	c.Reader = excel.NewDataReader(c.Logger)
	c.Engine = wolfram.NewClient(c.Config.Wolfram, c.Logger)
	c.Renderer = chart.NewRenderer(c.Config.Plot.Theme, c.Logger)
}

func (c *Container) initServices() {
	c.Processor = dataproc.NewProcessor(c.Fitter, c.Peaks, c.Engine, c.Logger)
	c.Grapher = graph.NewGrapher(c.Fitter, c.Renderer, c.Reader, c.Config.Plot.Theme, c.Logger)
}

