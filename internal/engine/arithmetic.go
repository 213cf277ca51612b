package engine

// ArithmeticFunc computes a result from positional numeric inputs.
type ArithmeticFunc func(args ...float64) (float64, error)

// TableFunc computes a result from a table value and positional numeric inputs.
type TableFunc func(table any, args ...float64) (float64, error)

// ArithmeticStep resolves its input keys to finite numbers, applies a pure
// function and writes the result under ResultKey.
type ArithmeticStep struct {
	StepCore
	ResultKey string
	InputKeys []string
	Func      ArithmeticFunc
}

// NewArithmeticStep creates an arithmetic step.
func NewArithmeticStep(name, resultKey string, fn ArithmeticFunc, inputKeys ...string) *ArithmeticStep {
	return &ArithmeticStep{
		StepCore:  StepCore{name: name},
		ResultKey: resultKey,
		InputKeys: inputKeys,
		Func:      fn,
	}
}

func (s *ArithmeticStep) Kind() Kind { return KindArithmetic }

// Execute implements Step.
func (s *ArithmeticStep) Execute(rec *Record) (*Record, error) {
	args, err := s.numbers(rec, s.InputKeys)
	if err != nil {
		return rec, err
	}
	result, err := s.Func(args...)
	if err != nil {
		return rec, err
	}
	if err := s.writeNumber(rec, s.ResultKey, result); err != nil {
		return rec, err
	}
	return rec, nil
}

// Accept implements Step.
func (s *ArithmeticStep) Accept(v Visitor) Visitor {
	v.VisitArithmetic(s)
	return v
}

// TableStep is an arithmetic step whose first input is a table value rather
// than a number. The remaining inputs follow the arithmetic contract.
type TableStep struct {
	StepCore
	ResultKey string
	TableKey  string
	InputKeys []string
	Func      TableFunc
}

// NewTableStep creates a table step.
func NewTableStep(name, resultKey string, fn TableFunc, tableKey string, inputKeys ...string) *TableStep {
	return &TableStep{
		StepCore:  StepCore{name: name},
		ResultKey: resultKey,
		TableKey:  tableKey,
		InputKeys: inputKeys,
		Func:      fn,
	}
}

func (s *TableStep) Kind() Kind { return KindTable }

// Execute implements Step.
func (s *TableStep) Execute(rec *Record) (*Record, error) {
	table, err := rec.Get(s.TableKey)
	if err != nil {
		return rec, err
	}
	args, err := s.numbers(rec, s.InputKeys)
	if err != nil {
		return rec, err
	}
	result, err := s.Func(table, args...)
	if err != nil {
		return rec, err
	}
	if err := s.writeNumber(rec, s.ResultKey, result); err != nil {
		return rec, err
	}
	return rec, nil
}

// Accept implements Step.
func (s *TableStep) Accept(v Visitor) Visitor {
	v.VisitTable(s)
	return v
}
