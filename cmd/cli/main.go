package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"physlab/display"
	"physlab/internal/config"
	"physlab/internal/container"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	html     bool
	logLevel string
	sheet    string
	sig      int
}

func main() {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "physlab",
		Short:         "Analysis helpers for physics lab measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&flags.html, "html", false, "Write HTML with MathJax markup instead of terminal text")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override LOG_LEVEL (ERROR, WARN, INFO, DEBUG, TRACE)")
	rootCmd.PersistentFlags().StringVar(&flags.sheet, "sheet", "", "Worksheet to read (default from LIVE_SHEET)")
	rootCmd.PersistentFlags().IntVar(&flags.sig, "sig", 3, "Significant digits of printed deviations")

	rootCmd.AddCommand(
		newPiAxisCmd(flags),
		newExpandCmd(flags),
		newMeanCmd(flags),
		newCombineCmd(flags),
		newNSigmaCmd(flags),
		newPropagateCmd(flags),
		newChi2Cmd(flags),
		newFreqCmd(flags),
		newPeaksCmd(flags),
		newFitSinCmd(flags),
		newFitCmd(flags),
		newLiveCmd(flags),
		newWolframCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and wires the container
func setup(flags *globalFlags) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.sheet != "" {
		cfg.Live.Sheet = flags.sheet
	}
	return container.New(cfg)
}

func printer(flags *globalFlags, w io.Writer) *display.Printer {
	if flags.html {
		return display.NewPrinter(w, display.ModeHTML)
	}
	return display.NewPrinter(w, display.ModeTerminal)
}
