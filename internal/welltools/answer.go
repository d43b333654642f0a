package welltools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"permalens/internal/assessment"
	"permalens/internal/dimension"
	"permalens/internal/session"
)

// AnswerTool handles the assessment_answer MCP tool.
type AnswerTool struct {
	store    *assessment.Store
	sessions *Sessions
}

// NewAnswerTool creates an AnswerTool with the given store and session
// registry.
func NewAnswerTool(store *assessment.Store, sessions *Sessions) *AnswerTool {
	return &AnswerTool{store: store, sessions: sessions}
}

// Definition returns the MCP tool definition for assessment_answer.
func (t *AnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_answer",
		mcp.WithDescription(
			"Answer the current question of an in-progress assessment. Set the personal and/or work value, then advance to the next question.",
		),
		mcp.WithString("submission_id",
			mcp.Required(),
			mcp.Description("Submission returned by assessment_start"),
		),
		mcp.WithNumber("personal",
			mcp.Description("Rating for the personal-life context"),
		),
		mcp.WithNumber("work",
			mcp.Description("Rating for the work context"),
		),
		mcp.WithBoolean("advance",
			mcp.Description("Move to the next question after setting values (default true)"),
		),
	)
}

// Handle processes the assessment_answer tool call.
func (t *AnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("submission_id", "")
	if id == "" {
		return mcp.NewToolResultError("submission_id is required"), nil
	}
	runner, ok := t.sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no active session for submission %s — call assessment_start first", id)), nil
	}

	personal, hasPersonal := optIntArg(req, "personal")
	work, hasWork := optIntArg(req, "work")
	if !hasPersonal && !hasWork {
		return mcp.NewToolResultError("provide at least one of personal or work"), nil
	}

	if hasPersonal {
		if err := runner.SetValue(dimension.Personal, personal); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set personal value: %v", err)), nil
		}
	}
	if hasWork {
		if err := runner.SetValue(dimension.Work, work); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set work value: %v", err)), nil
		}
	}

	if boolArg(req, "advance", true) {
		wasLast := session.AtLast(runner.State())
		if err := runner.Advance(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to advance: %v", err)), nil
		}
		if wasLast {
			return mcp.NewToolResultText("All questions answered. Call assessment_finalize to score the submission.\n"), nil
		}
	}
	return mcp.NewToolResultText(renderQuestion(runner.State())), nil
}
