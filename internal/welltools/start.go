package welltools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"permalens/internal/assessment"
	"permalens/internal/session"
)

// StartTool handles the assessment_start MCP tool.
type StartTool struct {
	store    *assessment.Store
	sessions *Sessions
}

// NewStartTool creates a StartTool with the given store and session
// registry.
func NewStartTool(store *assessment.Store, sessions *Sessions) *StartTool {
	return &StartTool{store: store, sessions: sessions}
}

// Definition returns the MCP tool definition for assessment_start.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_start",
		mcp.WithDescription(
			"Start a new well-being assessment for a user. Returns the submission ID and the first question.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Identifier of the user taking the assessment"),
		),
		mcp.WithBoolean("autosave",
			mcp.Description("Persist each answer on advance (default true). When false, answers are written in one batch at finalize."),
		),
	)
}

// Handle processes the assessment_start tool call.
func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	autosave := boolArg(req, "autosave", true)

	sub, err := t.store.StartSubmission(userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start submission: %v", err)), nil
	}
	questions, err := t.store.ActiveQuestions()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load questions: %v", err)), nil
	}
	if len(questions) == 0 {
		return mcp.NewToolResultError("no active questions in the question bank"), nil
	}

	runner := session.NewRunner(session.New(sub.ID, questions), t.store, session.WithAutosave(autosave))
	runner.Start()
	t.sessions.Put(sub.ID, runner)

	var sb strings.Builder
	sb.WriteString("## Assessment Started\n\n")
	sb.WriteString(fmt.Sprintf("- **Submission**: %s\n", sub.ID))
	sb.WriteString(fmt.Sprintf("- **Questions**: %d\n", len(questions)))
	if !autosave {
		sb.WriteString("- **Mode**: deferred (answers written at finalize)\n")
	}
	sb.WriteString("\n")
	sb.WriteString(renderQuestion(runner.State()))
	return mcp.NewToolResultText(sb.String()), nil
}
