// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete store and
// finalizer and injects them into the tool handlers. No business logic
// lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"permalens/internal/assessment"
	"permalens/internal/welltools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all assessment tools
// registered.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(cfg assessment.Config) (*server.MCPServer, func(), error) {
	store, err := assessment.New(cfg)
	if err != nil {
		return nil, noop, fmt.Errorf("creating assessment store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: assessment store close: %v", err)
		}
	}

	finalizer := assessment.NewFinalizer(store)
	sessions := welltools.NewSessions()

	s := server.NewMCPServer(
		"permalens",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Lifecycle tools ---

	startTool := welltools.NewStartTool(store, sessions)
	s.AddTool(startTool.Definition(), startTool.Handle)

	answerTool := welltools.NewAnswerTool(store, sessions)
	s.AddTool(answerTool.Definition(), answerTool.Handle)

	backTool := welltools.NewBackTool(sessions)
	s.AddTool(backTool.Definition(), backTool.Handle)

	statusTool := welltools.NewStatusTool(store, sessions)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Scoring & reporting tools ---

	finalizeTool := welltools.NewFinalizeTool(finalizer, sessions)
	s.AddTool(finalizeTool.Definition(), finalizeTool.Handle)

	resultsTool := welltools.NewResultsTool(finalizer)
	s.AddTool(resultsTool.Definition(), resultsTool.Handle)

	statsTool := welltools.NewStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	return s, cleanup, nil
}

// noop is the default cleanup when store creation failed.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to run an assessment.
func serverInstructions() string {
	return `You have access to PermaLens, a well-being assessment MCP server.

## What it does

PermaLens runs a PERMA-V well-being questionnaire: twelve questions
across six dimensions (Positive Emotion, Engagement, Relationships,
Meaning, Accomplishment, Vitality), each rated twice — once for the
user's personal life and once for work. Finalizing a submission scores
every dimension per context, computes an overall well-being index, and
derives strengths, growth opportunities, and work/life imbalances.

## How to run an assessment

1. Call assessment_start with a user_id. It returns the submission ID
   and the first question.
2. For each question, ask the user for both ratings, then call
   assessment_answer with the submission_id and the personal and work
   values. The tool saves the answer and returns the next question.
3. Use assessment_back if the user wants to revise an earlier answer.
   Going back never loses saved answers.
4. After the last question, call assessment_finalize. It returns the
   score table and insights.
5. assessment_results re-derives scores from the raw answers at any
   time, including mid-assessment, without closing the submission.

## Rules

- Ratings must stay within the question's printed scale. Out-of-range
  values are rejected, never clamped — ask the user again.
- A skipped context is simply absent from the scores. Never substitute
  zero for an unanswered question.
- If assessment_finalize reports a retryable failure, call it again —
  finalization is safe to repeat.`
}
