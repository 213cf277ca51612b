package engine

import "github.com/roach88/taxflow/internal/ir"

// InputCollector gathers input definitions in traversal order.
type InputCollector struct {
	BaseVisitor
	Inputs []ir.IODescriptor
}

func (c *InputCollector) VisitInput(s *InputDefinition) {
	c.Inputs = append(c.Inputs, s.Descriptor)
}

// OutputCollector gathers output definitions in traversal order.
type OutputCollector struct {
	BaseVisitor
	Outputs []ir.IODescriptor
}

func (c *OutputCollector) VisitOutput(s *OutputDefinition) {
	c.Outputs = append(c.Outputs, s.Descriptor)
}

// CollectInputs returns the input descriptors declared under root.
func CollectInputs(root Step) []ir.IODescriptor {
	return Walk(root, &InputCollector{}).Inputs
}

// CollectOutputs returns the output descriptors declared under root.
func CollectOutputs(root Step) []ir.IODescriptor {
	return Walk(root, &OutputCollector{}).Outputs
}
