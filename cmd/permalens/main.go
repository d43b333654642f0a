// PermaLens: well-being assessment MCP server
//
// An MCP server that integrates with any AI tool speaking the protocol
// and guides a user through a dual-context PERMA-V well-being
// questionnaire, scoring each dimension for personal life and work.
//
// Usage:
//
//	permalens serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"permalens/internal/assessment"
	plserver "permalens/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("permalens v%s\n", plserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg := assessment.DefaultConfig()
	if dir := os.Getenv("PERMALENS_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	s, cleanup, err := plserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. The stdio server also exits when
	// its stdin closes.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		os.Exit(0)
	}()

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `PermaLens v%s — Well-Being Assessment MCP Server

Usage:
  permalens serve    Start the MCP server (stdio transport)

Environment:
  PERMALENS_DATA_DIR   Override the data directory (default ~/.permalens)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "permalens": {
        "command": "permalens",
        "args": ["serve"]
      }
    }
  }
`, plserver.Version)
}
