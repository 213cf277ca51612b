package render

import (
	"fmt"
	"strings"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

// TreeRenderer is a Visitor that prints one line per step, indenting the
// children of each composite.
type TreeRenderer struct {
	engine.BaseVisitor

	r     *Renderer
	depth int
	b     strings.Builder
}

// NewTreeRenderer creates a tree visitor that formats with r.
func NewTreeRenderer(r *Renderer) *TreeRenderer {
	return &TreeRenderer{r: r}
}

// String returns the rendered tree.
func (t *TreeRenderer) String() string {
	return t.b.String()
}

func (t *TreeRenderer) line(step engine.Step, detail string) {
	s := t.r.styles
	t.b.WriteString(strings.Repeat(t.r.indent, t.depth))
	t.b.WriteString(s.apply(s.Kind, string(step.Kind())))
	if detail != "" {
		t.b.WriteString(" ")
		t.b.WriteString(detail)
	}
	t.b.WriteString("\n")
}

func (t *TreeRenderer) label(step engine.Step, primary string) string {
	name := step.Name()
	if name == "" || name == primary {
		return ""
	}
	return "  " + t.r.styles.apply(t.r.styles.Muted, "# "+name)
}

func (t *TreeRenderer) keys(keys []string) string {
	styled := make([]string, len(keys))
	for i, k := range keys {
		styled[i] = t.r.styles.apply(t.r.styles.Key, k)
	}
	return strings.Join(styled, ", ")
}

func (t *TreeRenderer) VisitArithmetic(s *engine.ArithmeticStep) {
	detail := fmt.Sprintf("%s <- %s", t.keys([]string{s.ResultKey}), t.keys(s.InputKeys))
	t.line(s, detail+t.label(s, s.ResultKey))
}

func (t *TreeRenderer) VisitTable(s *engine.TableStep) {
	detail := fmt.Sprintf("%s <- %s[%s]", t.keys([]string{s.ResultKey}), t.keys([]string{s.TableKey}), t.keys(s.InputKeys))
	t.line(s, detail+t.label(s, s.ResultKey))
}

func (t *TreeRenderer) VisitInput(s *engine.InputDefinition) {
	t.line(s, t.descriptor(s.Descriptor)+t.label(s, s.Descriptor.Reference))
}

func (t *TreeRenderer) VisitOutput(s *engine.OutputDefinition) {
	t.line(s, t.descriptor(s.Descriptor)+t.label(s, s.Descriptor.Reference))
}

func (t *TreeRenderer) descriptor(d ir.IODescriptor) string {
	info := d.ValueKind
	if c := t.r.constraints(d); c != "" {
		info += ", " + c
	}
	return fmt.Sprintf("%s (%s)", t.keys([]string{d.Reference}), info)
}

func (t *TreeRenderer) VisitConstant(s *engine.ConstantStep) {
	if s.ResourcePath() == "" {
		t.line(s, t.keys(s.Keys())+t.label(s, ""))
		return
	}

	target := "*"
	switch {
	case s.ResourceKey() != "":
		target = t.keys([]string{s.ResourceKey()})
	case s.Loaded():
		target = t.keys(s.Keys())
	}
	detail := fmt.Sprintf("%s -> %s", t.r.styles.apply(t.r.styles.Label, s.ResourcePath()), target)
	if q := s.Query(); q != "" {
		detail += " " + t.r.styles.apply(t.r.styles.Muted, "query "+q)
	}
	t.line(s, detail+t.label(s, ""))
}

func (t *TreeRenderer) EnterComposite(s *engine.CompositeStep) {
	t.line(s, s.Name())
	t.depth++
}

func (t *TreeRenderer) ExitComposite(*engine.CompositeStep) {
	t.depth--
}
