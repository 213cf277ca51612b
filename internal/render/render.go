package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

// Renderer writes pipelines, descriptors and results.
type Renderer struct {
	styles  Styles
	printer *message.Printer
	indent  string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyles replaces the style set.
func WithStyles(s Styles) Option {
	return func(r *Renderer) { r.styles = s }
}

// WithColor selects ColorStyles when enabled and PlainStyles otherwise.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		if enabled {
			r.styles = ColorStyles()
		} else {
			r.styles = PlainStyles()
		}
	}
}

// WithLanguage sets the locale used for number grouping.
func WithLanguage(tag language.Tag) Option {
	return func(r *Renderer) { r.printer = message.NewPrinter(tag) }
}

// New creates a plain English renderer, adjusted by opts.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		styles:  PlainStyles(),
		printer: message.NewPrinter(language.English),
		indent:  "  ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FormatValue renders a record value for display. Whole numbers print
// without decimals, other numbers with two, both grouped for the locale.
func (r *Renderer) FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case bool:
		return fmt.Sprint(x)
	case float64:
		return r.formatNumber(x)
	case float32:
		return r.formatNumber(float64(x))
	case int:
		return r.printer.Sprintf("%d", x)
	case int64:
		return r.printer.Sprintf("%d", x)
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func (r *Renderer) formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return r.printer.Sprintf("%d", int64(f))
	}
	return r.printer.Sprintf("%.2f", f)
}

// Tree writes the step graph rooted at root.
func (r *Renderer) Tree(w io.Writer, root engine.Step) error {
	t := engine.Walk(root, NewTreeRenderer(r))
	_, err := io.WriteString(w, t.String())
	return err
}

// Results writes one row per output descriptor: label, reference and value.
// A list-mode output shows the option text matching its value.
func (r *Renderer) Results(w io.Writer, outputs []ir.IODescriptor, results map[string]any) error {
	rows := make([][]string, 0, len(outputs))
	for _, d := range outputs {
		value, ok := results[d.Reference]
		cell := "-"
		if ok {
			cell = r.styles.apply(r.styles.Value, r.optionText(d, value))
		}
		rows = append(rows, []string{
			r.styles.apply(r.styles.Label, d.DisplayText),
			r.styles.apply(r.styles.Key, d.Reference),
			cell,
		})
	}
	return r.table(w, nil, rows)
}

// Descriptors writes one row per descriptor with its kind and constraints.
func (r *Renderer) Descriptors(w io.Writer, ds []ir.IODescriptor) error {
	header := []string{"REFERENCE", "KIND", "LABEL", "CONSTRAINTS"}
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{
			r.styles.apply(r.styles.Key, d.Reference),
			d.ValueKind,
			r.styles.apply(r.styles.Label, d.DisplayText),
			r.styles.apply(r.styles.Muted, r.constraints(d)),
		})
	}
	return r.table(w, header, rows)
}

func (r *Renderer) optionText(d ir.IODescriptor, value any) string {
	if d.ValidationMode == ir.ValidationModeList {
		for _, opt := range d.Properties.Options {
			if fmt.Sprint(opt.Value) == fmt.Sprint(value) && opt.Text != "" {
				return opt.Text
			}
		}
	}
	return r.FormatValue(value)
}

func (r *Renderer) constraints(d ir.IODescriptor) string {
	var parts []string
	if d.ValidationMode == ir.ValidationModeList {
		opts := make([]string, 0, len(d.Properties.Options))
		for _, o := range d.Properties.Options {
			opts = append(opts, r.FormatValue(o.Value))
		}
		parts = append(parts, "one of "+strings.Join(opts, ", "))
	}
	p := d.Properties
	switch {
	case p.Min != nil && p.Max != nil:
		parts = append(parts, r.FormatValue(*p.Min)+".."+r.FormatValue(*p.Max))
	case p.Min != nil:
		parts = append(parts, ">= "+r.FormatValue(*p.Min))
	case p.Max != nil:
		parts = append(parts, "<= "+r.FormatValue(*p.Max))
	}
	return strings.Join(parts, "; ")
}

// table writes rows with columns padded to their widest cell.
func (r *Renderer) table(w io.Writer, header []string, rows [][]string) error {
	all := rows
	if header != nil {
		styled := make([]string, len(header))
		for i, h := range header {
			styled[i] = r.styles.apply(r.styles.Heading, h)
		}
		all = append([][]string{styled}, rows...)
	}

	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], width(cell))
		}
	}

	var b strings.Builder
	for _, row := range all {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(cell)
			line.WriteString(strings.Repeat(" ", widths[i]-width(cell)))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
