package assessment

import (
	"permalens/internal/dimension"
	"permalens/internal/scoring"
)

// Question is an item in the questionnaire, asked once per context.
// Questions are created and retired by an external content-management
// process and are read-only to this core.
type Question struct {
	ID            int64          `json:"id"`
	Text          string         `json:"text"`
	Dimension     dimension.Code `json:"dimension"`
	PersonalLabel string         `json:"personal_label"`
	WorkLabel     string         `json:"work_label"`
	ScaleStart    int            `json:"scale_start"`
	ScaleEnd      int            `json:"scale_end"`
	AnchorLow     string         `json:"anchor_low"`
	AnchorHigh    string         `json:"anchor_high"`
	DisplayOrder  int            `json:"display_order"`
	Active        bool           `json:"active"`
}

// InRange reports whether a value lies within the question's scale.
func (q Question) InRange(v int) bool {
	return v >= q.ScaleStart && v <= q.ScaleEnd
}

// Midpoint is the neutral slider position a session starts from.
func (q Question) Midpoint() int {
	return q.ScaleStart + (q.ScaleEnd-q.ScaleStart)/2
}

// Submission is one user's single attempt at the full questionnaire.
// CompletedAt, once set, is never cleared — finalization is one-way.
type Submission struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// Response is one answered question within one submission, carrying up
// to two values. A nil value means that context was never answered,
// which is distinct from any stored number. At most one Response exists
// per (submission, question) pair.
type Response struct {
	ID           int64  `json:"id"`
	SubmissionID string `json:"submission_id"`
	QuestionID   int64  `json:"question_id"`
	Personal     *int   `json:"personal_value,omitempty"`
	Work         *int   `json:"work_value,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// FetchedResponse embeds a Response with its question's dimension code
// and scale bounds, as read back by FetchResponses.
type FetchedResponse struct {
	Response
	Dimension  dimension.Code `json:"dimension"`
	ScaleStart int            `json:"scale_start"`
	ScaleEnd   int            `json:"scale_end"`
}

// UpsertResponseParams holds the input for writing one response. Nil
// pointer fields are "not supplied": they never overwrite a previously
// stored value for the other context, since some flows commit one
// slider at a time.
type UpsertResponseParams struct {
	SubmissionID string `json:"submission_id"`
	QuestionID   int64  `json:"question_id"`
	Personal     *int   `json:"personal_value,omitempty"`
	Work         *int   `json:"work_value,omitempty"`
}

// DimensionResult is one derived mean score for a (dimension, context)
// cell within a submission. The rows are a disposable cache: raw
// responses stay authoritative and the whole set is regenerated on
// every recompute.
type DimensionResult struct {
	SubmissionID string            `json:"submission_id"`
	Dimension    dimension.Code    `json:"dimension"`
	Context      dimension.Context `json:"context"`
	Score        float64           `json:"score"`
}

// FinalizationResult is what Finalize hands back to the caller.
type FinalizationResult struct {
	Submission *Submission       `json:"submission"`
	Scores     scoring.Result    `json:"scores"`
	Insights   []scoring.Insight `json:"insights"`
	// AlreadyCompleted is true when this call was a recompute of a
	// previously finalized submission.
	AlreadyCompleted bool `json:"already_completed"`
}

// Stats holds aggregate assessment statistics.
type Stats struct {
	TotalSubmissions     int `json:"total_submissions"`
	CompletedSubmissions int `json:"completed_submissions"`
	TotalResponses       int `json:"total_responses"`
	ActiveQuestions      int `json:"active_questions"`
}
