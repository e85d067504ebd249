// Command amend corrects misspelled and garbled text with a language model.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackzampolin/amend/internal/agent"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process status: 2 when a correction
// run aborted, 1 for any other failure.
func exitCode(err error) int {
	var runErr *agent.RunError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &runErr), errors.Is(err, errRunsFailed):
		return 2
	default:
		return 1
	}
}
