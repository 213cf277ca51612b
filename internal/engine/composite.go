package engine

import "slices"

// CompositeStep holds an ordered list of child steps and threads the record
// through them in order. It exclusively owns its children: a step can be
// attached to at most one composite and the graph stays a tree.
type CompositeStep struct {
	StepCore
	children []Step
}

// NewCompositeStep creates an empty composite.
func NewCompositeStep(name string) *CompositeStep {
	return &CompositeStep{StepCore: StepCore{name: name}}
}

func (c *CompositeStep) Kind() Kind { return KindComposite }

// Add appends child. It fails with INVALID_GRAPH when child is nil, is c
// itself, is already attached elsewhere, or contains c.
func (c *CompositeStep) Add(child Step) error {
	if child == nil {
		return NewInvalidGraphError("cannot attach a nil step")
	}
	if child.core() == c.core() {
		return NewInvalidGraphError("a composite cannot contain itself")
	}
	if child.core().attached {
		return NewInvalidGraphError("step is already attached to a composite")
	}
	if sub, ok := child.(*CompositeStep); ok && sub.contains(c) {
		return NewInvalidGraphError("attachment would create a cycle")
	}
	child.core().attached = true
	c.children = append(c.children, child)
	return nil
}

// contains reports whether target appears anywhere below c.
func (c *CompositeStep) contains(target *CompositeStep) bool {
	for _, child := range c.children {
		sub, ok := child.(*CompositeStep)
		if !ok {
			continue
		}
		if sub == target || sub.contains(target) {
			return true
		}
	}
	return false
}

// Children returns the children in execution order.
func (c *CompositeStep) Children() []Step {
	return slices.Clone(c.children)
}

// Len returns the number of direct children.
func (c *CompositeStep) Len() int {
	return len(c.children)
}

// Execute runs each child in order, stopping at the first failure. The
// child's error is returned unchanged.
func (c *CompositeStep) Execute(rec *Record) (*Record, error) {
	var err error
	for _, child := range c.children {
		rec, err = child.Execute(rec)
		if err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Accept calls EnterComposite, accepts each child in order, then
// ExitComposite.
func (c *CompositeStep) Accept(v Visitor) Visitor {
	v.EnterComposite(c)
	for _, child := range c.children {
		child.Accept(v)
	}
	v.ExitComposite(c)
	return v
}
