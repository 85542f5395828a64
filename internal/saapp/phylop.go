package saapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"annostream/internal/cli"
	"annostream/internal/datasource"
	"annostream/internal/fasta"
	"annostream/internal/logging"
	"annostream/internal/positional"
	"annostream/internal/version"
	"annostream/internal/wigfix"
	"annostream/internal/writers"
)

// PhylopTag identifies PhyloP stores in their header.
const PhylopTag = "phylop"

func runPhylop(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewPhylopFlagSet("sautils phylop")
	fs.SetOutput(io.Discard)
	opts, err := cli.ParsePhylopArgs(fs, argv)
	if err != nil {
		return parseFailure(fs, err, stdout, stderr)
	}
	if opts.Version {
		_, _ = fmt.Fprintf(stdout, "sautils version %s\n", version.Version)
		return 0
	}
	logger, err := logging.New(stderr, opts.LogLevel)
	if err != nil {
		return finish(stderr, "", err)
	}
	_, err = BuildPhylop(ctx, opts, logger)
	return finish(stderr, opts.LogLevel, err)
}

// BuildPhylop writes <Name>_<Version>.npd and its .idx into opts.Out and
// returns the store path.
func BuildPhylop(ctx context.Context, opts cli.PhylopOptions, logger log.Logger) (path string, err error) {
	ref, err := fasta.LoadReference(opts.Ref)
	if err != nil {
		return "", fmt.Errorf("load reference: %w", err)
	}
	ver, err := datasource.ReadVersion(opts.In + datasource.VersionSuffix)
	if err != nil {
		return "", err
	}
	in, err := fasta.Open(opts.In)
	if err != nil {
		return "", err
	}
	defer in.Close()
	parser := wigfix.NewParser(in, ref)

	path = filepath.Join(opts.Out, ver.String()+positional.FileSuffix)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	idx, err := os.Create(path + positional.IndexSuffix)
	if err != nil {
		out.Close()
		return "", err
	}
	w, err := writers.NewPositionalWriter(writers.Destination{Mode: writers.ModeCompressed, Out: out, Index: idx})
	if err != nil {
		out.Close()
		idx.Close()
		return "", err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	level.Info(logger).Log("msg", "building store", "source", ver, "assembly", ref.Assembly, "out", path)
	if err := w.Open(positional.Header{
		Tag:           PhylopTag,
		SchemaVersion: positional.SchemaVersion,
		Assembly:      ref.Assembly,
		Version:       ver,
	}); err != nil {
		return "", err
	}
	if err := w.WriteItems(&ctxSource{ctx: ctx, src: parser}); err != nil {
		return "", err
	}
	level.Info(logger).Log("msg", "store complete", "scores", w.Count(), "skipped", parser.Skipped)
	return path, nil
}

// ctxSource stops a long conversion on cancellation, checking every
// checkEvery items.
type ctxSource struct {
	ctx context.Context
	src positional.Source
	n   int
}

const checkEvery = 1 << 16

func (c *ctxSource) Next() (positional.Item, error) {
	if c.n++; c.n%checkEvery == 0 {
		if err := c.ctx.Err(); err != nil {
			return positional.Item{}, err
		}
	}
	return c.src.Next()
}
