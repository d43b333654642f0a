// Package welltools provides MCP tool handlers for the assessment core.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (assessment.Store, Sessions) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// The tools are the presentation layer over the assessment library: all
// scoring and persistence rules live below, and the handlers only parse
// arguments and render results.
package welltools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"permalens/internal/session"
)

// Sessions tracks the in-flight runner per submission. The runner holds
// the explicit session state the UI used to keep as ambient component
// state.
type Sessions struct {
	mu     sync.Mutex
	active map[string]*session.Runner
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{active: make(map[string]*session.Runner)}
}

// Put registers the runner for a submission.
func (s *Sessions) Put(submissionID string, r *session.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[submissionID] = r
}

// Get returns the runner for a submission, if one is in flight.
func (s *Sessions) Get(submissionID string) (*session.Runner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[submissionID]
	return r, ok
}

// Remove drops a finished runner.
func (s *Sessions) Remove(submissionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, submissionID)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// optIntArg extracts an optional integer argument, reporting whether it
// was supplied (JSON numbers are float64).
func optIntArg(req mcp.CallToolRequest, key string) (int, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// renderQuestion formats the question under the session cursor.
func renderQuestion(st session.State) string {
	q, ok := session.Current(st)
	if !ok {
		return "No questions in this session."
	}
	v := st.Values[q.ID]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Question %d of %d\n\n", st.Index+1, len(st.Questions)))
	sb.WriteString(fmt.Sprintf("%s\n\n", q.Text))
	sb.WriteString(fmt.Sprintf("Scale: %d (%s) to %d (%s)\n\n", q.ScaleStart, q.AnchorLow, q.ScaleEnd, q.AnchorHigh))
	sb.WriteString(fmt.Sprintf("- **%s**: %d\n", q.PersonalLabel, v.Personal))
	sb.WriteString(fmt.Sprintf("- **%s**: %d\n", q.WorkLabel, v.Work))
	if session.AtLast(st) {
		sb.WriteString("\nThis is the last question. Answer it, then call assessment_finalize.\n")
	}
	return sb.String()
}
