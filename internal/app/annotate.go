package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"annostream/internal/bgzf"
	"annostream/internal/cli"
	"annostream/internal/conservation"
	"annostream/internal/datasource"
	"annostream/internal/fasta"
	"annostream/internal/genome"
	"annostream/internal/pipeline"
	"annostream/internal/positional"
	"annostream/internal/vcf"
	"annostream/internal/version"
	"annostream/internal/writers"
)

// Output names derived from the --out prefix.
const (
	plainJSONSuffix = ".json"
	vcfSuffix       = ".vcf"
	gvcfSuffix      = ".g.vcf"
	gzSuffix        = ".gz"
)

const phylopInfoHeader = `##INFO=<ID=` + conservation.InfoKey + `,Number=1,Type=Float,Description="PhyloP conservation score">`

func annotate(ctx context.Context, opts cli.Options, stdout io.Writer, logger log.Logger) (err error) {
	ref, err := fasta.LoadReference(opts.Ref)
	if err != nil {
		return fmt.Errorf("load reference: %w", err)
	}
	level.Info(logger).Log("msg", "loaded reference", "assembly", ref.Assembly, "sequences", len(ref.Chromosomes))

	ann, closeStore, err := openAnnotator(opts.SA, ref)
	if err != nil {
		return err
	}
	defer closeStore()

	rd, err := vcf.Open(opts.In, ref)
	if err != nil {
		return err
	}
	defer rd.Close()

	// Validated inputs are all open; from here on files get created.
	dst, err := createDestination(opts, stdout)
	if err != nil {
		return err
	}
	jw, err := writers.NewJSONWriter(dst)
	if err != nil {
		closeAll(dst.Out, dst.Index)
		return err
	}
	defer func() {
		if cerr := jw.Close(); err == nil && cerr != nil {
			err = &pipeline.OutputError{Sink: "json", Err: cerr}
		}
	}()

	// The header goes out first so that every later failure still leaves a
	// terminated document behind.
	if err := jw.Open(writers.Header{
		Annotator:      "annostream " + version.Version,
		CreationTime:   time.Now().Format("2006-01-02 15:04:05"),
		GenomeAssembly: ref.Assembly,
		SchemaVersion:  writers.JSONSchemaVersion,
		DataVersion:    dataVersion(ann.DataSources()),
		DataSources:    ann.DataSources(),
		Samples:        rd.Samples(),
	}); err != nil {
		return &pipeline.OutputError{Sink: "json", Err: err}
	}

	headerLines := rd.HeaderLines()
	if len(ann.DataSources()) > 0 {
		headerLines = withInfoLine(headerLines, phylopInfoHeader)
	}
	vcfSink, closeVCF, err := createMirror(opts.VCF, opts.Out+vcfSuffix, !opts.Plain, headerLines)
	if err != nil {
		return err
	}
	defer closeVCF(&err)
	gvcfSink, closeGVCF, err := createMirror(opts.GVCF, opts.Out+gvcfSuffix, !opts.Plain, headerLines)
	if err != nil {
		return err
	}
	defer closeGVCF(&err)

	d := &pipeline.Driver{
		Reader:    rd,
		Annotator: ann,
		Writer:    jw,
		VCF:       vcfSink,
		GVCF:      gvcfSink,
		Logger:    logger,
		Metrics:   pipeline.NewMetrics(prometheus.NewRegistry()),
	}
	if _, err := d.Run(ctx); err != nil {
		return err
	}
	if rd.Skipped > 0 {
		level.Warn(logger).Log("msg", "skipped records on sequences missing from the reference", "records", rd.Skipped)
	}
	return nil
}

// openAnnotator opens the optional positional store and checks that it was
// built against the same assembly as the reference.
func openAnnotator(path string, ref *genome.Reference) (*conservation.Annotator, func(), error) {
	if path == "" {
		return conservation.New(nil), func() {}, nil
	}
	s, err := positional.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open positional store: %w", err)
	}
	if a := s.Header.Assembly; a != ref.Assembly && a != genome.UnknownAssembly && ref.Assembly != genome.UnknownAssembly {
		s.Close()
		return nil, nil, &cli.InputError{Flag: "sa", Msg: fmt.Sprintf("store assembly %s does not match reference assembly %s", a, ref.Assembly)}
	}
	return conservation.New(s, s.Header.Version), func() { _ = s.Close() }, nil
}

func createDestination(opts cli.Options, stdout io.Writer) (writers.Destination, error) {
	if opts.Out == cli.StdoutTarget {
		return writers.Destination{Mode: writers.ModePlain, Out: nopWriteCloser{stdout}}, nil
	}
	if opts.Plain {
		f, err := os.Create(opts.Out + plainJSONSuffix)
		if err != nil {
			return writers.Destination{}, err
		}
		return writers.Destination{Mode: writers.ModePlain, Out: f}, nil
	}
	out, err := os.Create(opts.Out + writers.JSONSuffix)
	if err != nil {
		return writers.Destination{}, err
	}
	idx, err := os.Create(opts.Out + writers.JSONSuffix + writers.JSONIndexSuffix)
	if err != nil {
		out.Close()
		return writers.Destination{}, err
	}
	return writers.Destination{Mode: writers.ModeCompressed, Out: out, Index: idx}, nil
}

// createMirror opens a pass-through mirror when enabled. The returned closer
// records a close failure into *err unless an earlier error is already set.
func createMirror(enabled bool, path string, compressed bool, header []string) (writers.OptionalSink, func(*error), error) {
	noop := func(*error) {}
	if !enabled {
		return writers.None(), noop, nil
	}
	if compressed {
		path += gzSuffix
	}
	f, err := os.Create(path)
	if err != nil {
		return writers.None(), noop, err
	}
	var w io.WriteCloser = f
	if compressed {
		w = bgzfFile{Writer: bgzf.NewWriter(f), f: f}
	}
	lw, err := writers.NewLineWriter(w, header)
	if err != nil {
		w.Close()
		return writers.None(), noop, err
	}
	return writers.Some(lw), func(errp *error) {
		if cerr := lw.Close(); *errp == nil && cerr != nil {
			*errp = &pipeline.OutputError{Sink: path, Err: cerr}
		}
	}, nil
}

// withInfoLine inserts line just before the #CHROM header.
func withInfoLine(header []string, line string) []string {
	out := make([]string, 0, len(header)+1)
	for i, h := range header {
		if strings.HasPrefix(h, "#CHROM") {
			out = append(out, line)
			return append(out, header[i:]...)
		}
		out = append(out, h)
	}
	return append(out, line)
}

func dataVersion(sources []datasource.Version) string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.String())
	}
	return strings.Join(names, ",")
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// bgzfFile closes the block stream (EOF marker) and then the file.
type bgzfFile struct {
	*bgzf.Writer
	f *os.File
}

func (b bgzfFile) Close() error {
	err := b.Writer.Close()
	if cerr := b.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func closeAll(cs ...io.Closer) {
	for _, c := range cs {
		if c != nil {
			_ = c.Close()
		}
	}
}
