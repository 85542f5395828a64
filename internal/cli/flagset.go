package cli

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"annostream/internal/exitcode"
)

// NewFlagSet returns a clean FlagSet with ContinueOnError.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {}
	return fs
}

// InputError is a rejected command line. Flag names the offending flag.
type InputError struct {
	Flag    string
	Msg     string
	Missing bool // a named path does not exist
}

func (e *InputError) Error() string { return fmt.Sprintf("--%s: %s", e.Flag, e.Msg) }

func (e *InputError) ExitCode() int {
	if e.Missing {
		return exitcode.FileNotFound
	}
	return exitcode.UsageError
}

func required(flag, value, what string) error {
	if value == "" {
		return &InputError{Flag: flag, Msg: what + " is required"}
	}
	return nil
}

// fileExists checks a regular input file. "-" (stdin) is accepted when
// stdin is true.
func fileExists(flag, path, what string, stdin bool) error {
	if err := required(flag, path, what); err != nil {
		return err
	}
	if stdin && path == "-" {
		return nil
	}
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &InputError{Flag: flag, Msg: fmt.Sprintf("%s %q does not exist", what, path), Missing: true}
	case err != nil:
		return &InputError{Flag: flag, Msg: err.Error()}
	case st.IsDir():
		return &InputError{Flag: flag, Msg: fmt.Sprintf("%s %q is a directory", what, path)}
	}
	return nil
}

func dirExists(flag, path, what string) error {
	if err := required(flag, path, what); err != nil {
		return err
	}
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &InputError{Flag: flag, Msg: fmt.Sprintf("%s %q does not exist", what, path), Missing: true}
	case err != nil:
		return &InputError{Flag: flag, Msg: err.Error()}
	case !st.IsDir():
		return &InputError{Flag: flag, Msg: fmt.Sprintf("%s %q is not a directory", what, path)}
	}
	return nil
}

// parentExists checks that an output prefix can be created.
func parentExists(flag, prefix, what string) error {
	if err := required(flag, prefix, what); err != nil {
		return err
	}
	return dirExists(flag, filepath.Dir(prefix), what+" directory")
}
