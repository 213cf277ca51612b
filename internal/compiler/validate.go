package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/taxflow/internal/engine"
)

// Validation error codes (E100-E199)
const (
	ErrReadBeforeWrite    = "E101" // key read before any step writes it
	ErrDuplicateWrite     = "E102" // key written by two steps
	ErrOutputUndefined    = "E103" // output references a key nothing writes
	ErrDuplicateReference = "E104" // input or output declared twice
	ErrEmptyComposite     = "E105" // composite without children
)

// ValidationError is a static problem in a step graph.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate walks a built graph and reports key-flow problems that would
// fail at execution time. Returns all errors found (does not fail-fast).
//
// Keys written by resource-backed constant steps without a fixed key are
// unknown until load time; after such a step, read-before-write checks are
// suspended.
func Validate(root engine.Step) []ValidationError {
	return engine.Walk(root, newFlowChecker()).errs
}

// flowChecker simulates record writes in traversal order.
type flowChecker struct {
	engine.BaseVisitor
	written map[string]string
	inputs  map[string]bool
	outputs map[string]bool
	path    []string
	index   []int
	opaque  bool
	errs    []ValidationError
}

func newFlowChecker() *flowChecker {
	return &flowChecker{
		written: make(map[string]string),
		inputs:  make(map[string]bool),
		outputs: make(map[string]bool),
	}
}

// where names the current step as composite names plus sibling index.
func (c *flowChecker) where(s engine.Step) string {
	parts := append([]string(nil), c.path...)
	label := s.Name()
	if label == "" {
		label = string(s.Kind())
	}
	if n := len(c.index); n > 0 {
		label = fmt.Sprintf("%s#%d", label, c.index[n-1])
		c.index[n-1]++
	}
	parts = append(parts, label)
	return strings.Join(parts, "/")
}

func (c *flowChecker) read(field, key string) {
	if c.opaque {
		return
	}
	if _, ok := c.written[key]; !ok {
		c.errs = append(c.errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("key %q is read before any step writes it", key),
			Code:    ErrReadBeforeWrite,
		})
	}
}

func (c *flowChecker) write(field, key string) {
	if prev, ok := c.written[key]; ok {
		c.errs = append(c.errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("key %q is already written by %s", key, prev),
			Code:    ErrDuplicateWrite,
		})
		return
	}
	c.written[key] = field
}

func (c *flowChecker) VisitArithmetic(s *engine.ArithmeticStep) {
	field := c.where(s)
	for _, key := range s.InputKeys {
		c.read(field, key)
	}
	c.write(field, s.ResultKey)
}

func (c *flowChecker) VisitTable(s *engine.TableStep) {
	field := c.where(s)
	c.read(field, s.TableKey)
	for _, key := range s.InputKeys {
		c.read(field, key)
	}
	c.write(field, s.ResultKey)
}

func (c *flowChecker) VisitInput(s *engine.InputDefinition) {
	field := c.where(s)
	ref := s.Reference()
	if c.inputs[ref] {
		c.errs = append(c.errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("input %q is declared more than once", ref),
			Code:    ErrDuplicateReference,
		})
		return
	}
	c.inputs[ref] = true
	// Inputs are seeded by the caller before the first step runs.
	if _, ok := c.written[ref]; !ok {
		c.written[ref] = field
	}
}

func (c *flowChecker) VisitOutput(s *engine.OutputDefinition) {
	field := c.where(s)
	ref := s.Reference()
	if c.outputs[ref] {
		c.errs = append(c.errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("output %q is declared more than once", ref),
			Code:    ErrDuplicateReference,
		})
		return
	}
	c.outputs[ref] = true
	if _, ok := c.written[ref]; !ok && !c.opaque {
		c.errs = append(c.errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("output %q is never written", ref),
			Code:    ErrOutputUndefined,
		})
	}
}

func (c *flowChecker) VisitConstant(s *engine.ConstantStep) {
	field := c.where(s)
	if s.ResourcePath() != "" && s.ResourceKey() == "" && !s.Loaded() {
		c.opaque = true
		return
	}
	for _, key := range s.Keys() {
		c.write(field, key)
	}
}

func (c *flowChecker) EnterComposite(s *engine.CompositeStep) {
	field := c.where(s)
	if s.Len() == 0 {
		c.errs = append(c.errs, ValidationError{
			Field:   field,
			Message: "composite has no children",
			Code:    ErrEmptyComposite,
		})
	}
	name := s.Name()
	if name == "" {
		name = field[strings.LastIndex(field, "/")+1:]
	}
	c.path = append(c.path, name)
	c.index = append(c.index, 0)
}

func (c *flowChecker) ExitComposite(*engine.CompositeStep) {
	c.path = c.path[:len(c.path)-1]
	c.index = c.index[:len(c.index)-1]
}
