package jasixapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"annostream/internal/cli"
	"annostream/internal/exitcode"
	"annostream/internal/jsonutil"
	"annostream/internal/version"
	"annostream/internal/writers"
)

func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	fs := cli.NewJasixFlagSet("jasix")
	fs.SetOutput(io.Discard)
	opts, err := cli.ParseJasixArgs(fs, argv)
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
		_, _ = fmt.Fprintf(outw, "jasix version %s\n", version.Version)
		return flushed(outw, stderr, exitcode.Success)
	}

	if err := run(ctx, opts, outw); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitcode.FromError(err)
	}
	return flushed(outw, stderr, exitcode.Success)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func run(ctx context.Context, opts cli.JasixOptions, w io.Writer) error {
	d, err := OpenDocument(opts.In)
	if err != nil {
		return err
	}
	defer d.Close()

	if opts.Header {
		h, err := d.Header()
		if err != nil {
			return err
		}
		if err := jsonutil.EncodePretty(w, h); err != nil {
			return err
		}
	}
	if opts.Chromosomes {
		for _, name := range d.Chromosomes() {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return err
			}
		}
	}
	for _, q := range opts.Queries {
		err := d.Query(q, func(p string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(w, p)
			return err
		})
		if err != nil {
			return fmt.Errorf("query %s: %w", q, err)
		}
	}
	return nil
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
