package welltools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"permalens/internal/assessment"
)

// ResultsTool handles the assessment_results MCP tool.
type ResultsTool struct {
	finalizer *assessment.Finalizer
}

// NewResultsTool creates a ResultsTool with the given finalizer.
func NewResultsTool(finalizer *assessment.Finalizer) *ResultsTool {
	return &ResultsTool{finalizer: finalizer}
}

// Definition returns the MCP tool definition for assessment_results.
func (t *ResultsTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_results",
		mcp.WithDescription(
			"Show a submission's scores and insights, recomputed from the raw responses. Works for open and completed submissions and never writes anything.",
		),
		mcp.WithString("submission_id",
			mcp.Required(),
			mcp.Description("Submission to report on"),
		),
	)
}

// Handle processes the assessment_results tool call.
func (t *ResultsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("submission_id", "")
	if id == "" {
		return mcp.NewToolResultError("submission_id is required"), nil
	}
	result, err := t.finalizer.Recompute(id)
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrSubmissionNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("submission %s not found", id)), nil
		case errors.Is(err, assessment.ErrNoResponses):
			return mcp.NewToolResultError("no responses recorded yet"), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("failed to compute results: %v", err)), nil
		}
	}

	var sb strings.Builder
	sb.WriteString("## Assessment Results\n\n")
	sb.WriteString(fmt.Sprintf("- **Submission**: %s\n", result.Submission.ID))
	if result.Submission.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed**: %s\n", *result.Submission.CompletedAt))
	} else {
		sb.WriteString("- **Completed**: no (scores are provisional)\n")
	}
	sb.WriteString("\n")
	sb.WriteString(renderScores(result.Scores))
	sb.WriteString("\n### Insights\n\n")
	sb.WriteString(renderInsights(result.Insights))
	return mcp.NewToolResultText(sb.String()), nil
}
