package assessment

import (
	"errors"
	"fmt"

	"permalens/internal/dimension"
	"permalens/internal/scoring"
)

// Finalizer marks a submission complete: it fetches the raw response
// set, scores it, replaces the derived dimension_results rows, and only
// then writes the completed timestamp. The strict ordering makes a
// crash mid-finalization retryable — the submission stays in progress
// with disposable partial results until the last step lands.
type Finalizer struct {
	store *Store
}

// NewFinalizer creates a Finalizer over the store.
func NewFinalizer(store *Store) *Finalizer {
	return &Finalizer{store: store}
}

// Finalize scores and closes a submission. Finalizing an
// already-completed submission is a safe no-op on the timestamp that
// still recomputes and re-persists the derived rows, which is how
// recompute-on-demand works.
func (f *Finalizer) Finalize(submissionID string) (*FinalizationResult, error) {
	sub, err := f.store.GetSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	alreadyCompleted := sub.CompletedAt != nil

	responses, err := f.store.FetchResponses(submissionID)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("assessment: %w: %s", ErrNoResponses, submissionID)
	}

	result := scoring.Score(ScoringInput(responses))

	if err := f.store.ReplaceDimensionResults(submissionID, ResultRows(submissionID, result)); err != nil {
		return nil, err
	}
	if err := f.store.MarkCompleted(submissionID); err != nil {
		return nil, err
	}

	sub, err = f.store.GetSubmission(submissionID)
	if err != nil {
		return nil, err
	}

	start, end := scaleBounds(responses)
	return &FinalizationResult{
		Submission:       sub,
		Scores:           result,
		Insights:         scoring.Insights(result, start, end),
		AlreadyCompleted: alreadyCompleted,
	}, nil
}

// Recompute regenerates scores and insights from raw responses without
// touching the stored rows or the completed timestamp. Raw responses
// are authoritative; this is always a pure recomputation.
func (f *Finalizer) Recompute(submissionID string) (*FinalizationResult, error) {
	sub, err := f.store.GetSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	responses, err := f.store.FetchResponses(submissionID)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("assessment: %w: %s", ErrNoResponses, submissionID)
	}

	result := scoring.Score(ScoringInput(responses))
	start, end := scaleBounds(responses)
	return &FinalizationResult{
		Submission:       sub,
		Scores:           result,
		Insights:         scoring.Insights(result, start, end),
		AlreadyCompleted: sub.CompletedAt != nil,
	}, nil
}

// IsRetryable reports whether a finalization failure is worth retrying
// as-is: persistence failures leave state unchanged, while not-found
// and empty-submission failures will not fix themselves.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// ScoringInput converts fetched responses into the scoring engine's
// input shape.
func ScoringInput(responses []FetchedResponse) []scoring.Response {
	input := make([]scoring.Response, len(responses))
	for i, r := range responses {
		input[i] = scoring.Response{
			Dimension: r.Dimension,
			Personal:  r.Personal,
			Work:      r.Work,
		}
	}
	return input
}

// ResultRows flattens a scoring result into dimension_results rows: one
// row per (dimension, context) cell with a present mean, plus the
// composite rows tagged with the reserved pseudo-code.
func ResultRows(submissionID string, result scoring.Result) []DimensionResult {
	var rows []DimensionResult
	appendCells := func(ds scoring.DimensionScore) {
		if ds.Personal != nil {
			rows = append(rows, DimensionResult{
				SubmissionID: submissionID,
				Dimension:    ds.Dimension,
				Context:      dimension.Personal,
				Score:        *ds.Personal,
			})
		}
		if ds.Work != nil {
			rows = append(rows, DimensionResult{
				SubmissionID: submissionID,
				Dimension:    ds.Dimension,
				Context:      dimension.Work,
				Score:        *ds.Work,
			})
		}
	}
	for _, ds := range result.PerDimension {
		appendCells(ds)
	}
	appendCells(result.Composite)
	return rows
}

// scaleBounds picks the scale for insight thresholds from the fetched
// set. The product ships a uniform scale per question set; the first
// response's bounds stand for all of them.
func scaleBounds(responses []FetchedResponse) (int, int) {
	if len(responses) == 0 {
		return 0, 10
	}
	return responses[0].ScaleStart, responses[0].ScaleEnd
}
