// Package session tracks one user's walk through the questionnaire.
//
// The session state is an explicit value owned by the caller, and every
// transition is a pure function from state to state — no ambient
// globals, so flows are deterministic to test without a rendering
// environment. The Runner pairs a state value with the store for the
// one side effect navigation has: autosave-on-advance.
package session

import (
	"fmt"

	"permalens/internal/assessment"
	"permalens/internal/dimension"
)

// --- Status enum ---

// Status tracks the session lifecycle. Completed is terminal and is
// only ever reached through the finalizer flow — navigation never
// completes a session on its own.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// --- State ---

// Values is the working slider pair for one question.
type Values struct {
	Personal int `json:"personal"`
	Work     int `json:"work"`
}

// State is one session's full state: the question list fixed at start,
// the cursor, and the working values per question.
type State struct {
	SubmissionID string                `json:"submission_id"`
	Status       Status                `json:"status"`
	Questions    []assessment.Question `json:"questions"`
	Index        int                   `json:"index"`
	Values       map[int64]Values      `json:"values"`
}

// New builds a NotStarted session over a fixed question list, with
// every question's working values seeded to its scale midpoint.
func New(submissionID string, questions []assessment.Question) State {
	qs := make([]assessment.Question, len(questions))
	copy(qs, questions)

	values := make(map[int64]Values, len(qs))
	for _, q := range qs {
		mid := q.Midpoint()
		values[q.ID] = Values{Personal: mid, Work: mid}
	}

	return State{
		SubmissionID: submissionID,
		Status:       StatusNotStarted,
		Questions:    qs,
		Values:       values,
	}
}

// Start moves a NotStarted session to InProgress at the first question.
// Starting an already-started session is a no-op.
func Start(s State) State {
	if s.Status != StatusNotStarted {
		return s
	}
	s.Status = StatusInProgress
	s.Index = 0
	return s
}

// Current returns the question under the cursor, or false when the
// session has no questions.
func Current(s State) (assessment.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return assessment.Question{}, false
	}
	return s.Questions[s.Index], true
}

// AtLast reports whether the cursor sits on the final question.
func AtLast(s State) bool {
	return len(s.Questions) > 0 && s.Index == len(s.Questions)-1
}

// SetValue records a slider value for the current question. Values
// outside the question's scale bounds fail and leave the state
// untouched — never silently clamped. The returned state shares nothing
// mutable with the input.
func SetValue(s State, ctx dimension.Context, v int) (State, error) {
	q, ok := Current(s)
	if !ok {
		return s, fmt.Errorf("session: no current question")
	}
	if !q.InRange(v) {
		return s, fmt.Errorf("session: %w: value %d outside [%d, %d]",
			assessment.ErrOutOfRange, v, q.ScaleStart, q.ScaleEnd)
	}

	values := make(map[int64]Values, len(s.Values))
	for id, val := range s.Values {
		values[id] = val
	}
	cur := values[q.ID]
	switch ctx {
	case dimension.Personal:
		cur.Personal = v
	case dimension.Work:
		cur.Work = v
	default:
		return s, fmt.Errorf("session: unknown context %q", ctx)
	}
	values[q.ID] = cur
	s.Values = values
	return s, nil
}

// Forward moves the cursor one question ahead, clamped at the last
// question. Saving is the Runner's concern; the transition is pure.
func Forward(s State) State {
	if s.Index < len(s.Questions)-1 {
		s.Index++
	}
	return s
}

// Retreat moves the cursor back one question, clamped at the first.
func Retreat(s State) State {
	if s.Index > 0 {
		s.Index--
	}
	return s
}

// Complete marks the session terminal.
func Complete(s State) State {
	s.Status = StatusCompleted
	return s
}
