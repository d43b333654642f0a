package welltools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// BackTool handles the assessment_back MCP tool.
type BackTool struct {
	sessions *Sessions
}

// NewBackTool creates a BackTool with the given session registry.
func NewBackTool(sessions *Sessions) *BackTool {
	return &BackTool{sessions: sessions}
}

// Definition returns the MCP tool definition for assessment_back.
func (t *BackTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_back",
		mcp.WithDescription(
			"Go back to the previous question of an in-progress assessment. Moving back never writes anything.",
		),
		mcp.WithString("submission_id",
			mcp.Required(),
			mcp.Description("Submission returned by assessment_start"),
		),
	)
}

// Handle processes the assessment_back tool call.
func (t *BackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("submission_id", "")
	if id == "" {
		return mcp.NewToolResultError("submission_id is required"), nil
	}
	runner, ok := t.sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no active session for submission %s", id)), nil
	}
	runner.Retreat()
	return mcp.NewToolResultText(renderQuestion(runner.State())), nil
}
