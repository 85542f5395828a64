// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"annostream/internal/genome"
	"annostream/internal/writers"
)

var tracer = otel.Tracer("annostream/internal/pipeline")

// Mirror label values for annostream_mirror_lines_total.
const (
	MirrorVCF  = "vcf"
	MirrorGVCF = "gvcf"
)

// Position is one input record after parsing.
type Position struct {
	Chromosome genome.Chromosome
	Start      int
	RefAllele  string
	AltAlleles []string
	Fields     []string // raw tab-separated fields, unmodified
	Recomposed bool     // synthesized from several input records
}

func (p *Position) Coordinate() genome.Coordinate {
	return genome.Coordinate{Chromosome: p.Chromosome.Index, Position: p.Start}
}

// HasVariants reports whether any alternate allele carries variant content.
// Reference-only records (ALT "." or only symbolic reference alleles) do not.
func (p *Position) HasVariants() bool {
	for _, alt := range p.AltAlleles {
		if !IsReferenceOnly(alt, p.RefAllele) {
			return true
		}
	}
	return false
}

// IsReferenceOnly reports whether alt describes no change from ref.
func IsReferenceOnly(alt, ref string) bool {
	switch alt {
	case ".", "<NON_REF>", "<*>", "":
		return true
	}
	return alt == ref
}

// PositionReader yields positions in non-decreasing coordinate order and
// io.EOF at the end. Line returns the raw text of the record most recently
// read, including one that failed to parse.
type PositionReader interface {
	Next() (*Position, error)
	Line() string
}

// AnnotatedPosition is the annotation engine's result for one position.
// An empty JSON means nothing worth writing.
type AnnotatedPosition interface {
	JSON() string
	VCFLine() string
}

// Annotator is the annotation engine. Preload is called once per chromosome,
// before the first position on it.
type Annotator interface {
	Preload(ctx context.Context, ch genome.Chromosome) error
	Annotate(p *Position) (AnnotatedPosition, error)
	GeneAnnotations() []string
}

// EntryWriter receives indexed entries and the trailer. *writers.JSONWriter
// implements it.
type EntryWriter interface {
	WriteEntry(c genome.Coordinate, payload string) error
	WriteTrailer(items []string) error
}

var _ EntryWriter = (*writers.JSONWriter)(nil)

// Summary reports what one Run did.
type Summary struct {
	Positions   int
	Annotated   int
	Chromosomes int
	Elapsed     time.Duration
}

// Driver wires one reader, one annotator and one entry writer. VCF and GVCF
// are optional pass-through mirrors.
type Driver struct {
	Reader    PositionReader
	Annotator Annotator
	Writer    EntryWriter
	VCF       writers.OptionalSink
	GVCF      writers.OptionalSink
	Logger    log.Logger
	Metrics   *Metrics
}

// Run processes every position and finally writes the gene trailer. The
// context is checked between records; a preload in progress is not
// interrupted. On failure, entries already written stay in the output.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Driver.Run")
	defer span.End()

	if d.Logger == nil {
		d.Logger = log.NewNopLogger()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(prometheus.NewRegistry())
	}

	var (
		sum   Summary
		cur   cursor
		prog  progress
		start = time.Now()
	)
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		pos, err := d.Reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, d.fail(nil, err)
		}

		var changed bool
		if cur, changed = cur.step(pos.Chromosome); changed {
			prog.checkpoint(d.Logger, pos.Chromosome)
			if err := d.preload(ctx, pos.Chromosome); err != nil {
				return sum, d.fail(pos, err)
			}
			sum.Chromosomes++
			d.Metrics.Chromosomes.Inc()
		}

		annotated, err := d.process(pos)
		if err != nil {
			return sum, d.fail(pos, err)
		}
		if annotated {
			sum.Annotated++
			d.Metrics.Annotated.Inc()
		}
		sum.Positions++
		prog.positions++
		d.Metrics.Positions.Inc()
	}
	prog.checkpoint(d.Logger, genome.Chromosome{})

	if err := d.Writer.WriteTrailer(d.Annotator.GeneAnnotations()); err != nil {
		return sum, &OutputError{Sink: "genes", Err: err}
	}
	sum.Elapsed = time.Since(start)
	level.Info(d.Logger).Log("msg", "annotation complete", "positions", sum.Positions, "annotated", sum.Annotated,
		"chromosomes", sum.Chromosomes, "elapsed", sum.Elapsed)
	return sum, nil
}

// process annotates one position and routes the output. It reports whether an
// indexed entry was written.
func (d *Driver) process(pos *Position) (bool, error) {
	var js string
	var ap AnnotatedPosition
	if pos.HasVariants() {
		var err error
		if ap, err = d.Annotator.Annotate(pos); err != nil {
			return false, err
		}
		if ap != nil {
			js = ap.JSON()
		}
	}

	if js == "" {
		return false, d.mirror(d.GVCF, MirrorGVCF, strings.Join(pos.Fields, "\t"))
	}

	if err := d.Writer.WriteEntry(pos.Coordinate(), js); err != nil {
		return false, &OutputError{Sink: "json", Err: err}
	}
	if pos.Recomposed || (!d.VCF.Present() && !d.GVCF.Present()) {
		return true, nil
	}
	line := ap.VCFLine()
	if err := d.mirror(d.VCF, MirrorVCF, line); err != nil {
		return true, err
	}
	return true, d.mirror(d.GVCF, MirrorGVCF, line)
}

func (d *Driver) mirror(s writers.OptionalSink, name, line string) error {
	if !s.Present() {
		return nil
	}
	if err := s.WriteLine(line); err != nil {
		return &OutputError{Sink: name, Err: err}
	}
	d.Metrics.MirrorLines.WithLabelValues(name).Inc()
	return nil
}

func (d *Driver) preload(ctx context.Context, ch genome.Chromosome) error {
	ctx, span := tracer.Start(ctx, "pipeline.Annotator.Preload",
		trace.WithAttributes(attribute.String("chromosome", ch.UCSCName)))
	defer span.End()

	level.Debug(d.Logger).Log("msg", "preloading", "chromosome", ch.UCSCName)
	return d.Annotator.Preload(ctx, ch)
}

func (d *Driver) fail(pos *Position, err error) error {
	re := &RecordError{Line: d.Reader.Line(), Err: err}
	if pos != nil {
		re.Chromosome = pos.Chromosome.UCSCName
		re.Position = pos.Start
	}
	return re
}

// progress tracks the chromosome currently being annotated for logging.
type progress struct {
	name      string
	positions int
	since     time.Time
}

// checkpoint logs the finished chromosome, if any, and starts timing next.
func (p *progress) checkpoint(logger log.Logger, next genome.Chromosome) {
	if p.name != "" {
		level.Info(logger).Log("msg", "annotated chromosome", "chromosome", p.name,
			"positions", p.positions, "elapsed", time.Since(p.since).Round(time.Millisecond))
	}
	*p = progress{name: next.UCSCName, since: time.Now()}
}
