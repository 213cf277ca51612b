package engine

// Visitor observes a step graph. Each concrete step kind dispatches to
// exactly one method; composites bracket their children with
// EnterComposite and ExitComposite.
//
// Embed BaseVisitor to implement only the methods a traversal needs.
type Visitor interface {
	VisitArithmetic(s *ArithmeticStep)
	VisitTable(s *TableStep)
	VisitInput(s *InputDefinition)
	VisitOutput(s *OutputDefinition)
	VisitConstant(s *ConstantStep)
	EnterComposite(s *CompositeStep)
	ExitComposite(s *CompositeStep)
}

// BaseVisitor implements every Visitor method as a no-op.
type BaseVisitor struct{}

func (BaseVisitor) VisitArithmetic(*ArithmeticStep) {}
func (BaseVisitor) VisitTable(*TableStep)           {}
func (BaseVisitor) VisitInput(*InputDefinition)     {}
func (BaseVisitor) VisitOutput(*OutputDefinition)   {}
func (BaseVisitor) VisitConstant(*ConstantStep)     {}
func (BaseVisitor) EnterComposite(*CompositeStep)   {}
func (BaseVisitor) ExitComposite(*CompositeStep)    {}

// Walk traverses root with v and returns v.
func Walk[V Visitor](root Step, v V) V {
	root.Accept(v)
	return v
}

// KindCounter counts steps per kind.
type KindCounter struct {
	BaseVisitor
	Counts map[Kind]int
}

// NewKindCounter creates an empty counter.
func NewKindCounter() *KindCounter {
	return &KindCounter{Counts: make(map[Kind]int)}
}

func (k *KindCounter) VisitArithmetic(*ArithmeticStep) { k.Counts[KindArithmetic]++ }
func (k *KindCounter) VisitTable(*TableStep)           { k.Counts[KindTable]++ }
func (k *KindCounter) VisitInput(*InputDefinition)     { k.Counts[KindInput]++ }
func (k *KindCounter) VisitOutput(*OutputDefinition)   { k.Counts[KindOutput]++ }
func (k *KindCounter) VisitConstant(*ConstantStep)     { k.Counts[KindConstant]++ }
func (k *KindCounter) EnterComposite(*CompositeStep)   { k.Counts[KindComposite]++ }
