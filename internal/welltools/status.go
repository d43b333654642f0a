package welltools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"permalens/internal/assessment"
)

// StatusTool handles the assessment_status MCP tool.
type StatusTool struct {
	store    *assessment.Store
	sessions *Sessions
}

// NewStatusTool creates a StatusTool with the given store and session
// registry.
func NewStatusTool(store *assessment.Store, sessions *Sessions) *StatusTool {
	return &StatusTool{store: store, sessions: sessions}
}

// Definition returns the MCP tool definition for assessment_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_status",
		mcp.WithDescription(
			"Show the state of a submission: progress through the questionnaire, saved responses, and whether it has been finalized.",
		),
		mcp.WithString("submission_id",
			mcp.Required(),
			mcp.Description("Submission returned by assessment_start"),
		),
	)
}

// Handle processes the assessment_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("submission_id", "")
	if id == "" {
		return mcp.NewToolResultError("submission_id is required"), nil
	}
	sub, err := t.store.GetSubmission(id)
	if err != nil {
		if errors.Is(err, assessment.ErrSubmissionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("submission %s not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load submission: %v", err)), nil
	}
	responses, err := t.store.FetchResponses(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load responses: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Submission Status\n\n")
	sb.WriteString(fmt.Sprintf("- **Submission**: %s\n", sub.ID))
	sb.WriteString(fmt.Sprintf("- **User**: %s\n", sub.UserID))
	sb.WriteString(fmt.Sprintf("- **Started**: %s\n", sub.CreatedAt))
	if sub.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed**: %s\n", *sub.CompletedAt))
	} else {
		sb.WriteString("- **Completed**: no\n")
	}
	sb.WriteString(fmt.Sprintf("- **Saved responses**: %d\n", len(responses)))

	if runner, ok := t.sessions.Get(id); ok {
		st := runner.State()
		sb.WriteString(fmt.Sprintf("- **Session**: %s, question %d of %d\n", st.Status, st.Index+1, len(st.Questions)))
	} else {
		sb.WriteString("- **Session**: none in this process\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
