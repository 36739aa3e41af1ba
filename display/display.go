// Package display formats results for people: bold coloured text, typeset
// formulas and knowledge-engine images, either as HTML for notebook style
// frontends or as ANSI text for a terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"physlab/domain/knowledge"
	"physlab/domain/uncertain"
	"physlab/internal/errors"
	"physlab/internal/texfmt"
)

// Mode selects the output flavour
type Mode int

const (
	// ModeHTML renders markdown to HTML with MathJax delimiters
	ModeHTML Mode = iota
	// ModeTerminal writes ANSI escapes and plain-text formulas
	ModeTerminal
)

// GoodRelativeError is the relative error PrintValue shows in green
const GoodRelativeError = 0.02

var ansiColors = map[string]string{
	"black":   "30",
	"red":     "31",
	"green":   "32",
	"yellow":  "33",
	"blue":    "34",
	"magenta": "35",
	"cyan":    "36",
	"white":   "37",
}

// Printer writes formatted output to w
type Printer struct {
	w    io.Writer
	mode Mode
}

// NewPrinter creates a printer
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode}
}

// PrintColorBold writes text in bold and the given colour
func (p *Printer) PrintColorBold(text, color string) error {
	if p.mode == ModeTerminal {
		code := "1"
		if c, ok := ansiColors[strings.ToLower(color)]; ok {
			code += ";" + c
		}
		return p.write(fmt.Sprintf("\x1b[%sm%s\x1b[0m\n", code, text))
	}
	md := fmt.Sprintf(`<span style="color: %s">**%s**</span>`, color, text)
	return p.write(string(toHTML(md)))
}

// PrintLatex typesets a formula. Surrounding $ delimiters are optional.
func (p *Printer) PrintLatex(text string) error {
	body := strings.Trim(strings.TrimSpace(text), "$")
	if body == "" {
		return errors.InvalidInput("empty formula")
	}
	if p.mode == ModeTerminal {
		return p.write(texfmt.Plain("$"+body+"$") + "\n")
	}
	return p.write(string(toHTML("$$" + body + "$$\n")))
}

// PrintWolfram shows every image of every pod, whether the pod carries one
// subpod or several
func (p *Printer) PrintWolfram(res *knowledge.Result) error {
	if res == nil {
		return errors.InvalidInput("no query result")
	}
	if !res.Success {
		return p.PrintColorBold(fmt.Sprintf("No result for %q", res.Input), "red")
	}

	var sb strings.Builder
	for _, pod := range res.Pods {
		if p.mode == ModeTerminal {
			fmt.Fprintf(&sb, "%s:\n", pod.Title)
		} else {
			fmt.Fprintf(&sb, "**%s**\n\n", pod.Title)
		}
		for _, sub := range pod.Subpods {
			if sub.Image == nil || sub.Image.Src == "" {
				continue
			}
			if p.mode == ModeTerminal {
				fmt.Fprintf(&sb, "  %s %s\n", sub.Image.Alt, sub.Image.Src)
			} else {
				fmt.Fprintf(&sb, "![%s](%s)\n\n", sub.Image.Alt, sub.Image.Src)
			}
		}
	}
	if p.mode == ModeTerminal {
		return p.write(sb.String())
	}
	return p.write(string(toHTML(sb.String())))
}

// PrintValue shows a measurement in green when its relative error is at
// most GoodRelativeError and in red otherwise
func (p *Printer) PrintValue(v uncertain.Value, sig int) error {
	return p.PrintColorBold(v.Format(sig), valueColor(v))
}

// PrintNamedValue is PrintValue with a "name = " prefix
func (p *Printer) PrintNamedValue(name string, v uncertain.Value, sig int) error {
	return p.PrintColorBold(name+" = "+v.Format(sig), valueColor(v))
}

func valueColor(v uncertain.Value) string {
	if v.RelativeError() <= GoodRelativeError {
		return "green"
	}
	return "red"
}

func (p *Printer) write(s string) error {
	if _, err := io.WriteString(p.w, s); err != nil {
		return errors.IOError("failed to write output", err)
	}
	return nil
}

// htmlFlags leaves text verbatim: smartypants would turn "--" into a dash,
// "1/2" into a fraction and straight quotes into curly ones
const htmlFlags = html.CommonFlags&^(html.Smartypants|html.SmartypantsFractions|html.SmartypantsDashes|html.SmartypantsLatexDashes) | html.HrefTargetBlank

// toHTML renders markdown; parsers keep state so each call gets its own
func toHTML(md string) []byte {
	ps := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	return markdown.ToHTML([]byte(md), ps, renderer)
}
