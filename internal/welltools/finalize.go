package welltools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"permalens/internal/assessment"
)

// FinalizeTool handles the assessment_finalize MCP tool.
type FinalizeTool struct {
	finalizer *assessment.Finalizer
	sessions  *Sessions
}

// NewFinalizeTool creates a FinalizeTool with the given finalizer and
// session registry.
func NewFinalizeTool(finalizer *assessment.Finalizer, sessions *Sessions) *FinalizeTool {
	return &FinalizeTool{finalizer: finalizer, sessions: sessions}
}

// Definition returns the MCP tool definition for assessment_finalize.
func (t *FinalizeTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_finalize",
		mcp.WithDescription(
			"Score a submission and mark it completed. Computes per-dimension means, the overall composite, and insights. Safe to retry after a transient failure.",
		),
		mcp.WithString("submission_id",
			mcp.Required(),
			mcp.Description("Submission returned by assessment_start"),
		),
	)
}

// Handle processes the assessment_finalize tool call.
func (t *FinalizeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("submission_id", "")
	if id == "" {
		return mcp.NewToolResultError("submission_id is required"), nil
	}

	// Deferred-write sessions still hold their answers in memory; flush
	// them before scoring.
	runner, hasRunner := t.sessions.Get(id)
	if hasRunner && !runner.Autosave() {
		if err := runner.Commit(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save answers: %v", err)), nil
		}
	}

	result, err := t.finalizer.Finalize(id)
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrSubmissionNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("submission %s not found", id)), nil
		case errors.Is(err, assessment.ErrNoResponses):
			return mcp.NewToolResultError("no responses recorded — the submission stays open"), nil
		case assessment.IsRetryable(err):
			return mcp.NewToolResultError(fmt.Sprintf("finalize failed, retry assessment_finalize: %v", err)), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("failed to finalize: %v", err)), nil
		}
	}

	if hasRunner {
		runner.Complete()
		t.sessions.Remove(id)
	}

	var sb strings.Builder
	if result.AlreadyCompleted {
		sb.WriteString("## Assessment Results (recomputed)\n\n")
	} else {
		sb.WriteString("## Assessment Results\n\n")
	}
	sb.WriteString(fmt.Sprintf("- **Submission**: %s\n", result.Submission.ID))
	if result.Submission.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed**: %s\n", *result.Submission.CompletedAt))
	}
	sb.WriteString("\n")
	sb.WriteString(renderScores(result.Scores))
	sb.WriteString("\n### Insights\n\n")
	sb.WriteString(renderInsights(result.Insights))
	return mcp.NewToolResultText(sb.String()), nil
}
