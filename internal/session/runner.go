package session

import (
	"fmt"

	"permalens/internal/assessment"
	"permalens/internal/dimension"
)

// Saver is the slice of the store the runner needs for persisting
// working values. Abstracted for testability.
type Saver interface {
	UpsertResponse(p assessment.UpsertResponseParams) (*assessment.Response, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithAutosave controls whether Advance persists the current question's
// working values before moving. Autosave-on-advance is the default
// flow; deferred flows disable it and call Commit before finalizing.
// Both are configurations of the one engine, not two engines.
func WithAutosave(enabled bool) Option {
	return func(r *Runner) {
		r.autosave = enabled
	}
}

// Runner drives a session state through its transitions and owns the
// single side effect navigation has: writing the current question's
// values through the store on forward advancement.
type Runner struct {
	state    State
	saver    Saver
	autosave bool
}

// NewRunner wraps a session state with its save side effect.
func NewRunner(state State, saver Saver, opts ...Option) *Runner {
	r := &Runner{state: state, saver: saver, autosave: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current session state value.
func (r *Runner) State() State {
	return r.state
}

// Autosave reports whether Advance persists values. Deferred-write
// callers check this to know a Commit is still owed.
func (r *Runner) Autosave() bool {
	return r.autosave
}

// Start begins the session at the first question.
func (r *Runner) Start() {
	r.state = Start(r.state)
}

// SetValue records a slider value for the current question.
func (r *Runner) SetValue(ctx dimension.Context, v int) error {
	next, err := SetValue(r.state, ctx, v)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

// Advance persists the current question's values (when autosave is on)
// and moves the cursor forward. At the last question the cursor stays
// put but the save still runs, so a re-answered final question is never
// lost. A failed save leaves the cursor where it was.
func (r *Runner) Advance() error {
	if r.state.Status != StatusInProgress {
		return fmt.Errorf("session: cannot advance a %s session", r.state.Status)
	}
	if r.autosave {
		if err := r.saveCurrent(); err != nil {
			return err
		}
	}
	r.state = Forward(r.state)
	return nil
}

// Retreat moves the cursor back without saving — only forward
// advancement commits values.
func (r *Runner) Retreat() {
	r.state = Retreat(r.state)
}

// Commit writes every question's working values through the store, for
// deferred-write flows that skip per-question autosave.
func (r *Runner) Commit() error {
	for _, q := range r.state.Questions {
		v := r.state.Values[q.ID]
		if _, err := r.saver.UpsertResponse(assessment.UpsertResponseParams{
			SubmissionID: r.state.SubmissionID,
			QuestionID:   q.ID,
			Personal:     &v.Personal,
			Work:         &v.Work,
		}); err != nil {
			return fmt.Errorf("session: commit values: %w", err)
		}
	}
	return nil
}

// Complete marks the session terminal. Called after the finalizer has
// closed the submission, never by navigation.
func (r *Runner) Complete() {
	r.state = Complete(r.state)
}

func (r *Runner) saveCurrent() error {
	q, ok := Current(r.state)
	if !ok {
		return nil
	}
	v := r.state.Values[q.ID]
	if _, err := r.saver.UpsertResponse(assessment.UpsertResponseParams{
		SubmissionID: r.state.SubmissionID,
		QuestionID:   q.ID,
		Personal:     &v.Personal,
		Work:         &v.Work,
	}); err != nil {
		return fmt.Errorf("session: autosave: %w", err)
	}
	return nil
}
