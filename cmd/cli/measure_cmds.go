package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"physlab/domain/uncertain"
	"physlab/generators"
	"physlab/measure"
)

func newPiAxisCmd(flags *globalFlags) *cobra.Command {
	var start, end float64
	var count int

	cmd := &cobra.Command{
		Use:   "piaxis",
		Short: "Print tick positions labelled as fractions of π",
		Example: `  physlab piaxis --start 0 --end 6.283185307 --count 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := generators.PiAxis(start, end, count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, tick := range spec.Ticks {
				fmt.Fprintf(out, "%-12.6g %s\n", tick, spec.Labels[i])
			}
			return nil
		},
	}

	def := generators.DefaultPiAxis()
	cmd.Flags().Float64Var(&start, "start", def.Ticks[0], "First tick")
	cmd.Flags().Float64Var(&end, "end", def.Ticks[len(def.Ticks)-1], "Last tick")
	cmd.Flags().IntVar(&count, "count", def.Len(), "Number of ticks")
	return cmd
}

func newExpandCmd(flags *globalFlags) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "expand [lo] [hi]",
		Short: "Print evenly spaced points over a range widened by 10%",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nums, err := parseFloats(args)
			if err != nil {
				return err
			}
			for _, v := range generators.ExpandLinspace(nums[0], nums[1], count) {
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'g', -1, 64))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 50, "Number of points")
	return cmd
}

func newMeanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mean [measurement...]",
		Short: "Mean and standard error of repeated measurements",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := parseFloats(args)
			if err != nil {
				return err
			}
			v, err := measure.MeasurementsDeviation(samples)
			if err != nil {
				return err
			}
			return printer(flags, cmd.OutOrStdout()).PrintValue(v, flags.sig)
		},
	}
}

func newCombineCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "combine [value+/-err...]",
		Short:   "Inverse-variance weighted mean of independent results",
		Example: `  physlab combine 9.81+/-0.02 9.79+/-0.05`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(args)
			if err != nil {
				return err
			}
			v, err := measure.WeightedMean(values...)
			if err != nil {
				return err
			}
			return printer(flags, cmd.OutOrStdout()).PrintValue(v, flags.sig)
		},
	}
}

func newNSigmaCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "nsigma [a+/-da] [b+/-db]",
		Short:   "Distance between two results in combined standard deviations",
		Example: `  physlab nsigma 9.81+/-0.02 9.70+/-0.04`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(args)
			if err != nil {
				return err
			}
			n := measure.NSigmaValues(values[0], values[1])
			color := "green"
			if n >= 3 {
				color = "red"
			}
			return printer(flags, cmd.OutOrStdout()).PrintColorBold(fmt.Sprintf("N-sigma = %.3g", n), color)
		},
	}
}

func newPropagateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "propagate [equation] [name=value+/-err...]",
		Short: "Propagate deviations through an equation and show the formula",
		Long: `Print the propagation formula built from partial derivatives of the
equation, then the propagated value for the given inputs. Names given
without a value only take part in the formula.`,
		Example: `  physlab propagate "m*g*h" m=1.2+/-0.01 g=9.81 h=0.5+/-0.002`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			equation := args[0]
			names := make([]string, 0, len(args)-1)
			values := make(map[string]uncertain.Value, len(args)-1)
			for _, arg := range args[1:] {
				name, raw, hasValue := strings.Cut(arg, "=")
				name = strings.TrimSpace(name)
				names = append(names, name)
				if !hasValue {
					continue
				}
				v, err := uncertain.Parse(raw)
				if err != nil {
					return err
				}
				values[name] = v
			}

			p := printer(flags, cmd.OutOrStdout())
			formula, err := measure.PartialDerivatives(equation, names)
			if err != nil {
				return err
			}
			if err := p.PrintLatex(formula); err != nil {
				return err
			}
			if len(values) < len(names) {
				return nil
			}
			v, err := measure.PropagateError(equation, values)
			if err != nil {
				return err
			}
			return p.PrintValue(v, flags.sig)
		},
	}
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func parseValues(args []string) ([]uncertain.Value, error) {
	out := make([]uncertain.Value, len(args))
	for i, a := range args {
		v, err := uncertain.Parse(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
