package harness

import (
	"github.com/roach88/feedsync/internal/domain"
	"github.com/roach88/feedsync/internal/store"
	"github.com/roach88/feedsync/internal/testutil"
)

// StepOutcome records what one step returned.
type StepOutcome struct {
	Op      string `json:"op"`
	OK      bool   `json:"ok"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Applied bool   `json:"applied"`
	// Version is the snapshot version after the step.
	Version int64 `json:"version"`
	// Tickets counts the sequence numbers the step drew: one per dispatch
	// and one per journaled completion.
	Tickets int `json:"tickets"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps holds one outcome per scenario step, in order.
	Steps []StepOutcome `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Snapshot is the engine state after the last step.
	Snapshot *domain.Snapshot `json:"snapshot"`

	// Requests are the requests the fake API received.
	Requests []testutil.RecordedRequest `json:"-"`

	// Journal is the request journal after the last step.
	Journal []store.JournalEntry `json:"journal"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step outcome.
func (r *Result) AddStep(o StepOutcome) {
	r.Steps = append(r.Steps, o)
}
