package measure

import (
	"fmt"
	"strings"

	"physlab/domain/uncertain"
	"physlab/internal/errors"
	"physlab/symbolic"
)

// PartialDerivatives builds the LaTeX formula of the propagated deviation
// of equation over the listed variables:
//
//	$\sqrt{((∂f/∂x)\Delta x)^2 + ((∂f/∂y)\Delta y)^2}$
func PartialDerivatives(equation string, variables []string) (string, error) {
	if len(variables) == 0 {
		return "", errors.InvalidInput("no variables to differentiate by")
	}
	expr, err := symbolic.Parse(equation)
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", equation)
	}

	terms := make([]string, len(variables))
	for i, v := range variables {
		d := expr.Diff(v)
		terms[i] = fmt.Sprintf(`((%s)\Delta %s)^2`, d.LaTeX(), symbolic.SymbolLaTeX(v))
	}
	return `$\sqrt{` + strings.Join(terms, " + ") + `}$`, nil
}

// PropagateError evaluates equation over uncertain inputs, the numeric
// counterpart of PartialDerivatives
func PropagateError(equation string, values map[string]uncertain.Value) (uncertain.Value, error) {
	expr, err := symbolic.Parse(equation)
	if err != nil {
		return uncertain.Value{}, errors.Wrapf(err, "parse %q", equation)
	}
	return symbolic.EvalUncertain(expr, values)
}
