// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/go-kit/log/level"

	"annostream/internal/cli"
	"annostream/internal/exitcode"
	"annostream/internal/logging"
	"annostream/internal/version"
	"annostream/internal/writers"
)

// flushed flushes buffered usage or version text. A closed pipe on stdout is
// not an error.
func flushed(outw *bufio.Writer, stderr io.Writer, code int) int {
	if err := outw.Flush(); writers.IsBrokenPipe(err) {
		return exitcode.Success
	} else if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitcode.IOError
	}
	return code
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	fs := cli.NewAnnotateFlagSet("annostream")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		fs.SetOutput(outw)
		if errors.Is(err, flag.ErrHelp) {
			fs.Usage()
			return flushed(outw, stderr, exitcode.Success)
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.Usage()
		code := exitcode.FromError(err)
		if code == exitcode.Failure {
			// flag syntax errors carry no code of their own
			code = exitcode.UsageError
		}
		return flushed(outw, stderr, code)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "annostream version %s\n", version.Version)
		return flushed(outw, stderr, exitcode.Success)
	}

	logger, err := logging.New(stderr, opts.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitcode.UsageError
	}

	err = annotate(parent, opts, stdout, logger)
	code := exitcode.FromError(err)
	switch {
	case err == nil:
	case code == exitcode.Canceled:
		level.Warn(logger).Log("msg", "canceled; partial output left on disk")
	case writers.IsBrokenPipe(err):
		return exitcode.Success
	default:
		level.Error(logger).Log("msg", "annotation failed", "err", err)
	}
	return code
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
