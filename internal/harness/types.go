package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Record is the final record snapshot. On failure it holds every key
	// written before the failing step; it is empty if the pipeline never ran.
	Record map[string]any `json:"record"`

	// Outputs maps each declared output reference to its value. Empty when
	// the run failed.
	Outputs map[string]any `json:"outputs"`

	// ErrorCode and ErrorKey describe the run failure, if any.
	ErrorCode string `json:"error_code,omitempty"`
	ErrorKey  string `json:"error_key,omitempty"`

	// Errors lists unmet expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Record:  map[string]any{},
		Outputs: map[string]any{},
		Errors:  []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
