// Package saapp implements sautils, the supplementary-annotation builder.
// Each subcommand converts one external data source into a positional store.
package saapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-kit/log/level"

	"annostream/internal/exitcode"
	"annostream/internal/logging"
	"annostream/internal/version"
	"annostream/internal/writers"
)

type command struct {
	summary string
	run     func(ctx context.Context, argv []string, stdout, stderr io.Writer) int
}

var commands = map[string]command{
	"phylop": {summary: "build a PhyloP conservation store from wigFix", run: runPhylop},
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "sautils – supplementary annotation builder\n\nVersion: %s\n\nCommands:\n", version.Version)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-10s %s\n", n, commands[n].summary)
	}
	fmt.Fprintln(w, "\nRun 'sautils <command> --help' for command options.")
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	if len(argv) == 0 || argv[0] == "-h" || argv[0] == "--help" {
		outw := bufio.NewWriter(stdout)
		usage(outw)
		return flushed(outw, stderr, exitcode.Success)
	}
	if argv[0] == "-v" || argv[0] == "--version" {
		_, _ = fmt.Fprintf(stdout, "sautils version %s\n", version.Version)
		return exitcode.Success
	}
	cmd, ok := commands[strings.ToLower(argv[0])]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", argv[0])
		usage(stderr)
		return exitcode.UsageError
	}
	return cmd.run(parent, argv[1:], stdout, stderr)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func flushed(outw *bufio.Writer, stderr io.Writer, code int) int {
	if err := outw.Flush(); writers.IsBrokenPipe(err) {
		return exitcode.Success
	} else if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitcode.IOError
	}
	return code
}

// parseFailure prints a parse error (or the requested help) and returns the
// exit code.
func parseFailure(fs *flag.FlagSet, err error, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	fs.SetOutput(outw)
	if errors.Is(err, flag.ErrHelp) {
		fs.Usage()
		return flushed(outw, stderr, exitcode.Success)
	}
	_, _ = fmt.Fprintln(stderr, err)
	fs.Usage()
	code := exitcode.FromError(err)
	if code == exitcode.Failure {
		// flag package syntax errors
		code = exitcode.UsageError
	}
	return flushed(outw, stderr, code)
}

// finish logs err, if any, and maps it to an exit code.
func finish(stderr io.Writer, lvl string, err error) int {
	code := exitcode.FromError(err)
	if err == nil {
		return code
	}
	logger, lerr := logging.New(stderr, lvl)
	if lerr != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return code
	}
	if code == exitcode.Canceled {
		level.Warn(logger).Log("msg", "canceled; partial output left on disk")
	} else {
		level.Error(logger).Log("msg", "build failed", "err", err)
	}
	return code
}
