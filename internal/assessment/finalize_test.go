package assessment_test

import (
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"

	"permalens/internal/assessment"
	"permalens/internal/dimension"
	"permalens/internal/scoring"
)

// answer writes one response, failing the test on error.
func answer(t *testing.T, s *assessment.Store, subID string, q assessment.Question, personal, work *int) {
	t.Helper()
	if _, err := s.UpsertResponse(assessment.UpsertResponseParams{
		SubmissionID: subID,
		QuestionID:   q.ID,
		Personal:     personal,
		Work:         work,
	}); err != nil {
		t.Fatalf("answer question %d: %v", q.ID, err)
	}
}

// questionsByDimension indexes the seeded bank by code.
func questionsByDimension(t *testing.T, s *assessment.Store) map[dimension.Code][]assessment.Question {
	t.Helper()
	qs, err := s.ActiveQuestions()
	if err != nil {
		t.Fatal(err)
	}
	byDim := make(map[dimension.Code][]assessment.Question)
	for _, q := range qs {
		byDim[q.Dimension] = append(byDim[q.Dimension], q)
	}
	return byDim
}

func TestFinalize_HappyPath(t *testing.T) {
	s := newTestStore(t)
	sub := startSubmission(t, s)
	byDim := questionsByDimension(t, s)

	answer(t, s, sub.ID, byDim[dimension.PositiveEmotion][0], intp(8), intp(6))
	answer(t, s, sub.ID, byDim[dimension.Vitality][0], intp(2), intp(9))

	result, err := assessment.NewFinalizer(s).Finalize(sub.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if result.Submission.CompletedAt == nil {
		t.Error("submission should be completed after finalize")
	}
	if result.AlreadyCompleted {
		t.Error("first finalize should report AlreadyCompleted=false")
	}

	p := result.Scores.Dimension(dimension.PositiveEmotion)
	if p == nil || p.Personal == nil || *p.Personal != 8 || p.Work == nil || *p.Work != 6 {
		t.Errorf("P score = %+v, want personal 8 work 6", p)
	}

	// Derived rows stored: P personal/work, V personal/work, composite
	// personal/work (composite = P alone, V is not a constituent).
	rows, err := s.DimensionResults(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("stored %d result rows, want 6: %+v", len(rows), rows)
	}
	byCell := make(map[string]float64)
	for _, r := range rows {
		byCell[string(r.Dimension)+"/"+string(r.Context)] = r.Score
	}
	if byCell["PERMA/personal"] != 8 || byCell["PERMA/work"] != 6 {
		t.Errorf("composite rows = %v, want personal 8 work 6", byCell)
	}
}

func TestFinalize_TwiceIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	sub := startSubmission(t, s)
	byDim := questionsByDimension(t, s)
	answer(t, s, sub.ID, byDim[dimension.Meaning][0], intp(9), intp(3))

	fin := assessment.NewFinalizer(s)
	first, err := fin.Finalize(sub.ID)
	if err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	second, err := fin.Finalize(sub.ID)
	if err != nil {
		t.Fatalf("second finalize must be a safe no-op: %v", err)
	}

	if !second.AlreadyCompleted {
		t.Error("second finalize should report AlreadyCompleted=true")
	}
	if *second.Submission.CompletedAt != *first.Submission.CompletedAt {
		t.Error("completed timestamp must never change once set")
	}
	if !reflect.DeepEqual(first.Scores, second.Scores) {
		t.Error("repeated finalization produced different scores")
	}

	rows, err := s.DimensionResults(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	// M personal+work, composite personal+work — no duplicates.
	if len(rows) != 4 {
		t.Errorf("stored %d result rows after re-finalize, want 4", len(rows))
	}
}

func TestFinalize_NoResponses(t *testing.T) {
	s := newTestStore(t)
	sub := startSubmission(t, s)

	_, err := assessment.NewFinalizer(s).Finalize(sub.ID)
	if !errors.Is(err, assessment.ErrNoResponses) {
		t.Errorf("error should wrap ErrNoResponses, got: %v", err)
	}

	// The submission stays open.
	got, err := s.GetSubmission(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedAt != nil {
		t.Error("unscoreable submission must not be marked completed")
	}
}

func TestFinalize_UnknownSubmission(t *testing.T) {
	s := newTestStore(t)

	_, err := assessment.NewFinalizer(s).Finalize("no-such-id")
	if !errors.Is(err, assessment.ErrSubmissionNotFound) {
		t.Errorf("error should wrap ErrSubmissionNotFound, got: %v", err)
	}
}

func TestFinalize_CrashMidwayIsRetryable(t *testing.T) {
	s := newTestStore(t)
	sub := startSubmission(t, s)
	byDim := questionsByDimension(t, s)
	answer(t, s, sub.ID, byDim[dimension.Engagement][0], intp(7), nil)

	// Persisting derived rows fails before the timestamp is written.
	s.SetExecHook(func(db assessment.Execer, query string, args ...any) (sql.Result, error) {
		if strings.Contains(query, "INSERT INTO dimension_results") {
			return nil, errors.New("database is locked")
		}
		return db.Exec(query, args...)
	})

	fin := assessment.NewFinalizer(s)
	_, err := fin.Finalize(sub.ID)
	if !errors.Is(err, assessment.ErrPersistence) {
		t.Fatalf("expected persistence failure, got: %v", err)
	}
	if !assessment.IsRetryable(err) {
		t.Error("persistence failure should be retryable")
	}

	// Side effects are ordered: the submission is still in progress.
	got, err := s.GetSubmission(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedAt != nil {
		t.Fatal("crash before results persisted must leave the submission in progress")
	}

	// Retry with the store healthy again.
	s.SetExecHook(nil)
	result, err := fin.Finalize(sub.ID)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if result.Submission.CompletedAt == nil {
		t.Error("retry should complete the submission")
	}
}

func TestFinalize_InsightsFromScores(t *testing.T) {
	s := newTestStore(t)
	sub := startSubmission(t, s)
	byDim := questionsByDimension(t, s)

	// Strong and imbalanced: personal 9, work 3.
	answer(t, s, sub.ID, byDim[dimension.Meaning][0], intp(9), intp(3))

	result, err := assessment.NewFinalizer(s).Finalize(sub.ID)
	if err != nil {
		t.Fatal(err)
	}

	kinds := make(map[scoring.InsightKind]bool)
	for _, in := range result.Insights {
		if in.Dimension == dimension.Meaning {
			kinds[in.Kind] = true
		}
	}
	if !kinds[scoring.KindStrength] || !kinds[scoring.KindOpportunity] || !kinds[scoring.KindImbalance] {
		t.Errorf("insight kinds = %v, want strength, opportunity, and imbalance", kinds)
	}
}

func TestRecompute_DoesNotComplete(t *testing.T) {
	s := newTestStore(t)
	sub := startSubmission(t, s)
	byDim := questionsByDimension(t, s)
	answer(t, s, sub.ID, byDim[dimension.Relationships][0], intp(6), intp(6))

	fin := assessment.NewFinalizer(s)
	result, err := fin.Recompute(sub.ID)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if result.AlreadyCompleted {
		t.Error("in-progress submission should not report completed")
	}

	got, err := s.GetSubmission(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedAt != nil {
		t.Error("recompute must not mark the submission completed")
	}

	// No derived rows were written either.
	rows, err := s.DimensionResults(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("recompute wrote %d rows, want 0", len(rows))
	}
}

func TestRecompute_AfterExtraResponseDiverges(t *testing.T) {
	// Raw responses are authoritative: a response written after
	// finalization shows up in the recompute even though the stored
	// rows are stale.
	s := newTestStore(t)
	sub := startSubmission(t, s)
	byDim := questionsByDimension(t, s)

	answer(t, s, sub.ID, byDim[dimension.Accomplishment][0], intp(4), nil)
	fin := assessment.NewFinalizer(s)
	if _, err := fin.Finalize(sub.ID); err != nil {
		t.Fatal(err)
	}

	answer(t, s, sub.ID, byDim[dimension.Accomplishment][1], intp(8), nil)

	result, err := fin.Recompute(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	a := result.Scores.Dimension(dimension.Accomplishment)
	if a == nil || a.Personal == nil || *a.Personal != 6 {
		t.Errorf("recomputed A personal = %+v, want 6", a)
	}
}
