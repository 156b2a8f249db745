package harness

// Sample is one property element after a frame was evaluated.
type Sample struct {
	Frame  float64 `json:"frame"`
	Entity string  `json:"entity"`
	Path   string  `json:"path"`
	Index  int     `json:"index"`
	Value  float64 `json:"value"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the scene validated and every assertion held.
	Pass bool `json:"pass"`

	// Errors holds validation issues and assertion failures in the order
	// they were found. Empty if Pass is true.
	Errors []string `json:"errors"`

	// Samples are the properties of the scenario's entities after each
	// evaluated frame.
	Samples []Sample `json:"samples"`

	// Evaluations counts entity evaluations over the whole run.
	Evaluations int64 `json:"evaluations"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Samples: []Sample{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
