package assessment

import "errors"

// Sentinel errors for the adapter's failure taxonomy. Callers match
// with errors.Is; the presentation layer owns turning these into
// user-facing messages.
var (
	// ErrSubmissionNotFound means the submission id has no row. The
	// core never fabricates a record to paper over a missing one.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrQuestionNotFound means the question id has no row.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrNoResponses means an assessment with zero answered questions
	// cannot be scored.
	ErrNoResponses = errors.New("submission has no responses")

	// ErrOutOfRange means a value lies outside the question's scale
	// bounds. Out-of-range values are rejected, never silently clamped.
	ErrOutOfRange = errors.New("response value out of range")

	// ErrPersistence wraps primary-write and store-availability
	// failures. State is left unchanged on this class, so retries are
	// safe.
	ErrPersistence = errors.New("persistence failure")
)
