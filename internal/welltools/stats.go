package welltools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"permalens/internal/assessment"
)

// StatsTool handles the assessment_stats MCP tool.
type StatsTool struct {
	store *assessment.Store
}

// NewStatsTool creates a StatsTool with the given store.
func NewStatsTool(store *assessment.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for assessment_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_stats",
		mcp.WithDescription(
			"Show assessment statistics — submission counts, stored responses, and active questions.",
		),
	)
}

// Handle processes the assessment_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Assessment Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Submissions**: %d\n", stats.TotalSubmissions))
	sb.WriteString(fmt.Sprintf("- **Completed**: %d\n", stats.CompletedSubmissions))
	sb.WriteString(fmt.Sprintf("- **Responses**: %d\n", stats.TotalResponses))
	sb.WriteString(fmt.Sprintf("- **Active questions**: %d\n", stats.ActiveQuestions))
	return mcp.NewToolResultText(sb.String()), nil
}
