// Package exitcode maps run outcomes to process exit codes.
package exitcode

import (
	"context"
	"errors"
	"io/fs"
)

const (
	Success      = 0
	Failure      = 1
	UsageError   = 2
	IOError      = 3
	FileNotFound = 4
	InvalidInput = 5
	Canceled     = 130
)

// Coder is implemented by errors that know their own exit code.
type Coder interface {
	ExitCode() int
}

// FromError returns the exit code for err. Cancellation wins over anything
// else wrapped alongside it.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}
	var c Coder
	if errors.As(err, &c) {
		return c.ExitCode()
	}
	var pe *fs.PathError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return FileNotFound
	case errors.As(err, &pe):
		return IOError
	}
	return Failure
}
