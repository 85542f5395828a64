package pipeline

import (
	"errors"
	"fmt"

	"annostream/internal/exitcode"
)

// RecordError attaches the offending input record to a failure. Chromosome is
// empty when the record could not be parsed far enough to know it.
type RecordError struct {
	Line       string
	Chromosome string
	Position   int
	Err        error
}

func (e *RecordError) Error() string {
	if e.Chromosome == "" {
		return fmt.Sprintf("%v\ninput line: %s", e.Err, e.Line)
	}
	return fmt.Sprintf("%s:%d: %v\ninput line: %s", e.Chromosome, e.Position, e.Err, e.Line)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ExitCode distinguishes output failures from bad input.
func (e *RecordError) ExitCode() int {
	var oe *OutputError
	if errors.As(e.Err, &oe) {
		return oe.ExitCode()
	}
	return exitcode.InvalidInput
}

// OutputError is a failed write to the document or one of the mirrors.
type OutputError struct {
	Sink string
	Err  error
}

func (e *OutputError) Error() string { return fmt.Sprintf("write %s: %v", e.Sink, e.Err) }
func (e *OutputError) Unwrap() error { return e.Err }
func (e *OutputError) ExitCode() int { return exitcode.IOError }
