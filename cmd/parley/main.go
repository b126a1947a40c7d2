// Command parley is a terminal chat client for a local Ollama server. It
// streams replies, hides the model's reasoning and can run the first code
// block of a reply.
//
// Usage:
//
//	parley [flags]              interactive session
//	parley ask [flags] PROMPT   one question, reply on stdout
//	parley models [flags]       list the server's models
//
// Flags:
//
//	--config string   Path to the config file (default ~/.parley/config.toml)
//	--url string      Ollama base URL
//	--model string    Model to use
//	--auto-execute    Run the first code block of every reply
//	--verbose         Log at debug level
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand(env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	})
	return cmd.ExecuteContext(ctx)
}
