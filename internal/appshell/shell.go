// Package appshell runs a command's RunContext under a signal-aware context
// and exits with its code.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"annostream/internal/exitcode"
)

// Main never returns. With no arguments it asks the command for help.
func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	argv := os.Args[1:]
	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	code := run(ctx, argv, os.Stdout, os.Stderr)
	// a signal that arrived after the last record still counts as canceled
	if ctx.Err() != nil && code == exitcode.Success {
		code = exitcode.Canceled
	}

	stop()
	os.Exit(code)
}
