// Package wigfix parses UCSC fixedStep wiggle tracks (the PhyloP score
// distribution format) into positional store items.
package wigfix

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"annostream/internal/exitcode"
	"annostream/internal/genome"
	"annostream/internal/positional"
)

// ValueSize is the encoded size of one score.
const ValueSize = 4

// EncodeScore packs a score as a little-endian float32.
func EncodeScore(f float32) []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, ValueSize), math.Float32bits(f))
}

// DecodeScore reverses EncodeScore.
func DecodeScore(b []byte) (float32, error) {
	if len(b) != ValueSize {
		return 0, fmt.Errorf("wigfix: score value has %d bytes", len(b))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ErrUnsorted reports scores that go backwards on a chromosome or a
// chromosome whose blocks are split around another one.
var ErrUnsorted = errors.New("wigfix: input is not sorted by coordinate")

// Parser yields one item per score line. Blocks on chromosomes the reference
// does not know are skipped whole.
type Parser struct {
	sc   *bufio.Scanner
	ref  *genome.Reference
	line int

	chrom int
	pos   int
	step  int
	skip  bool
	ready bool

	last    genome.Coordinate
	emitted bool
	done    map[int]bool

	// Skipped counts score lines dropped for unknown chromosomes.
	Skipped int
}

var _ positional.Source = (*Parser)(nil)

func NewParser(r io.Reader, ref *genome.Reference) *Parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &Parser{sc: sc, ref: ref, done: make(map[int]bool)}
}

// Next returns the next scored coordinate, or io.EOF.
func (p *Parser) Next() (positional.Item, error) {
	for p.sc.Scan() {
		p.line++
		text := strings.TrimSpace(p.sc.Text())
		switch {
		case text == "" || text[0] == '#' || strings.HasPrefix(text, "track"):
			continue
		case strings.HasPrefix(text, "fixedStep"):
			if err := p.declare(text); err != nil {
				return positional.Item{}, err
			}
			continue
		case strings.HasPrefix(text, "variableStep"):
			return positional.Item{}, p.errorf("variableStep blocks are not supported")
		}

		if !p.ready {
			return positional.Item{}, p.errorf("score before any fixedStep declaration")
		}
		pos := p.pos
		p.pos += p.step
		if p.skip {
			p.Skipped++
			continue
		}
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return positional.Item{}, p.errorf("bad score %q", text)
		}
		c := genome.Coordinate{Chromosome: p.chrom, Position: pos}
		if err := p.advance(c); err != nil {
			return positional.Item{}, err
		}
		return positional.Item{Coordinate: c, Value: EncodeScore(float32(f))}, nil
	}
	if err := p.sc.Err(); err != nil {
		return positional.Item{}, err
	}
	return positional.Item{}, io.EOF
}

// declare handles "fixedStep chrom=chr1 start=10918 step=1 [span=1]".
func (p *Parser) declare(text string) error {
	var (
		chrom string
		start = -1
		step  = 1
	)
	for _, kv := range strings.Fields(text)[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p.errorf("malformed declaration field %q", kv)
		}
		var err error
		switch k {
		case "chrom":
			chrom = v
		case "start":
			start, err = strconv.Atoi(v)
		case "step":
			step, err = strconv.Atoi(v)
		}
		if err != nil {
			return p.errorf("bad %s value %q", k, v)
		}
	}
	if chrom == "" || start < 1 || step < 1 {
		return p.errorf("incomplete fixedStep declaration")
	}

	ch, ok := p.ref.Lookup(chrom)
	p.chrom, p.pos, p.step = ch.Index, start, step
	p.skip = !ok
	p.ready = true
	return nil
}

// advance keeps emitted coordinates strictly increasing within one
// contiguous run per chromosome.
func (p *Parser) advance(c genome.Coordinate) error {
	if p.emitted {
		switch {
		case c.Chromosome == p.last.Chromosome && c.Position <= p.last.Position:
			return p.errorf("position %d after %d: %w", c.Position, p.last.Position, ErrUnsorted)
		case c.Chromosome != p.last.Chromosome:
			if p.done[c.Chromosome] {
				ch, _ := p.ref.ByIndex(c.Chromosome)
				return p.errorf("%s seen again: %w", ch.UCSCName, ErrUnsorted)
			}
			p.done[p.last.Chromosome] = true
		}
	}
	p.last, p.emitted = c, true
	return nil
}

// LineError is a malformed or out-of-order input line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("wigfix: line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }
func (e *LineError) ExitCode() int { return exitcode.InvalidInput }

func (p *Parser) errorf(format string, args ...any) error {
	return &LineError{Line: p.line, Err: fmt.Errorf(format, args...)}
}
