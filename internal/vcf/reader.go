// Package vcf reads VCF and gVCF records into pipeline positions, keeping the
// raw text of every line for error reporting.
package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"annostream/internal/fasta"
	"annostream/internal/genome"
	"annostream/internal/pipeline"
)

// Column indexes of the fixed VCF fields.
const (
	colChrom = iota
	colPos
	colID
	colRef
	colAlt
	colQual
	colFilter
	colInfo
	colFormat

	minColumns = colInfo + 1
)

var ErrUnsorted = errors.New("vcf: input is not sorted by coordinate")

// Reader implements pipeline.PositionReader.
type Reader struct {
	sc      *bufio.Scanner
	ref     *genome.Reference
	c       io.Closer
	header  []string
	samples []string

	line    string
	lineNo  int
	last    genome.Coordinate
	started bool
	done    map[int]bool

	// Skipped counts records on sequences absent from the reference.
	Skipped int
}

var _ pipeline.PositionReader = (*Reader)(nil)

// Open reads path ("-" for stdin, .gz inflated) and consumes its header.
func Open(path string, ref *genome.Reference) (*Reader, error) {
	rc, err := fasta.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(rc, ref)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.c = rc
	return r, nil
}

// NewReader consumes the header block of r up to and including #CHROM.
func NewReader(r io.Reader, ref *genome.Reference) (*Reader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 64<<20)
	vr := &Reader{sc: sc, ref: ref, done: map[int]bool{}}

	for sc.Scan() {
		vr.lineNo++
		text := sc.Text()
		if !strings.HasPrefix(text, "#") {
			return nil, fmt.Errorf("vcf: line %d: record before #CHROM header", vr.lineNo)
		}
		vr.header = append(vr.header, text)
		if strings.HasPrefix(text, "#CHROM") {
			if cols := strings.Split(text, "\t"); len(cols) > colFormat+1 {
				vr.samples = cols[colFormat+1:]
			}
			return vr, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("vcf: missing #CHROM header line")
}

// HeaderLines returns the header block verbatim, #CHROM line included.
func (r *Reader) HeaderLines() []string { return r.header }

func (r *Reader) Samples() []string { return r.samples }

// Line returns the raw text of the last record read.
func (r *Reader) Line() string { return r.line }

// Next parses the next record on a known chromosome.
func (r *Reader) Next() (*pipeline.Position, error) {
	for r.sc.Scan() {
		r.lineNo++
		r.line = r.sc.Text()
		if r.line == "" || strings.HasPrefix(r.line, "#") {
			continue
		}

		f := strings.Split(r.line, "\t")
		if len(f) < minColumns {
			return nil, fmt.Errorf("vcf: line %d: expected at least %d columns, found %d", r.lineNo, minColumns, len(f))
		}
		ch, ok := r.ref.Lookup(f[colChrom])
		if !ok {
			r.Skipped++
			continue
		}
		pos, err := strconv.Atoi(f[colPos])
		if err != nil || pos < 1 {
			return nil, fmt.Errorf("vcf: line %d: invalid position %q", r.lineNo, f[colPos])
		}
		if err := r.advance(genome.Coordinate{Chromosome: ch.Index, Position: pos}); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNo, err)
		}

		return &pipeline.Position{
			Chromosome: ch,
			Start:      pos,
			RefAllele:  f[colRef],
			AltAlleles: strings.Split(f[colAlt], ","),
			Fields:     f,
		}, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// advance enforces one contiguous, non-decreasing run per chromosome.
func (r *Reader) advance(c genome.Coordinate) error {
	if r.started {
		switch {
		case c.Chromosome == r.last.Chromosome && c.Position < r.last.Position:
			return ErrUnsorted
		case c.Chromosome != r.last.Chromosome:
			if r.done[c.Chromosome] {
				return ErrUnsorted
			}
			r.done[r.last.Chromosome] = true
		}
	}
	r.last, r.started = c, true
	return nil
}

func (r *Reader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}
