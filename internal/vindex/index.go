package vindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"

	"annostream/internal/bgzf"
	"annostream/internal/genome"
)

var (
	// ErrTruncated means the index ended before its footer, typically because
	// the writing process died before disposal.
	ErrTruncated = errors.New("vindex: truncated index")
	ErrBadMagic  = errors.New("vindex: not an index file")
)

type run struct{ lo, hi int }

// Index is a loaded, read-only index.
type Index struct {
	sections []Section
	entries  []Entry
	runs     map[int]run
	order    []int
}

// Read decodes a complete index from r.
func Read(r io.Reader) (*Index, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("vindex: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if string(head) != magic {
		return nil, ErrBadMagic
	}

	idx := &Index{runs: map[int]run{}}
	var last Entry
	for {
		kind, err := br.ReadByte()
		if err == io.EOF {
			return nil, ErrTruncated
		}
		if err != nil {
			return nil, fmt.Errorf("vindex: %w", err)
		}
		switch kind {
		case recEntry:
			e, err := readEntry(br, last)
			if err != nil {
				return nil, err
			}
			idx.entries = append(idx.entries, e)
			last = e
		case recSection:
			s, err := readSection(br)
			if err != nil {
				return nil, err
			}
			idx.sections = append(idx.sections, s)
		case recFooter:
			n, err := binary.ReadUvarint(br)
			if err != nil {
				return nil, truncated(err)
			}
			if n != uint64(len(idx.entries)) {
				return nil, fmt.Errorf("vindex: footer counts %d entries, found %d", n, len(idx.entries))
			}
			if err := idx.buildRuns(); err != nil {
				return nil, err
			}
			return idx, nil
		default:
			return nil, fmt.Errorf("vindex: unknown record type %q", kind)
		}
	}
}

func readEntry(br *bufio.Reader, last Entry) (Entry, error) {
	var v [3]int64
	for i := range v {
		x, err := binary.ReadVarint(br)
		if err != nil {
			return Entry{}, truncated(err)
		}
		v[i] = x
	}
	e := Entry{Offset: bgzf.VirtualOffset(int64(last.Offset) + v[2])}
	e.Chromosome = last.Chromosome + int(v[0])
	if v[0] == 0 {
		e.Position = last.Position + int(v[1])
	} else {
		e.Position = int(v[1])
	}
	return e, nil
}

func readSection(br *bufio.Reader) (Section, error) {
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return Section{}, truncated(err)
	}
	tag := make([]byte, n)
	if _, err := io.ReadFull(br, tag); err != nil {
		return Section{}, truncated(err)
	}
	begin, err := binary.ReadUvarint(br)
	if err != nil {
		return Section{}, truncated(err)
	}
	end, err := binary.ReadUvarint(br)
	if err != nil {
		return Section{}, truncated(err)
	}
	return Section{Tag: string(tag), Begin: bgzf.VirtualOffset(begin), End: bgzf.VirtualOffset(end)}, nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return fmt.Errorf("vindex: %w", err)
}

func (idx *Index) buildRuns() error {
	for i := 0; i < len(idx.entries); {
		ch := idx.entries[i].Chromosome
		j := i
		for j < len(idx.entries) && idx.entries[j].Chromosome == ch {
			j++
		}
		if _, dup := idx.runs[ch]; dup {
			return fmt.Errorf("vindex: entries for chromosome %d are not contiguous", ch)
		}
		idx.runs[ch] = run{lo: i, hi: j}
		idx.order = append(idx.order, ch)
		i = j
	}
	return nil
}

// Sections returns the section table in the order sections were closed.
func (idx *Index) Sections() []Section { return idx.sections }

// Section looks up a section by tag.
func (idx *Index) Section(tag string) (Section, bool) {
	for _, s := range idx.sections {
		if s.Tag == tag {
			return s, true
		}
	}
	return Section{}, false
}

// Entries returns all entries in emission order.
func (idx *Index) Entries() []Entry { return idx.entries }

// Chromosomes lists chromosome indexes in the order they appear.
func (idx *Index) Chromosomes() []int { return idx.order }

// Find returns the entry for exactly c.
func (idx *Index) Find(c genome.Coordinate) (Entry, bool) {
	es := idx.chromosome(c.Chromosome)
	i := sort.Search(len(es), func(i int) bool { return es[i].Position >= c.Position })
	if i < len(es) && es[i].Position == c.Position {
		return es[i], true
	}
	return Entry{}, false
}

// Range returns the entries on chromosome ch with from <= position <= to.
func (idx *Index) Range(ch, from, to int) []Entry {
	es := idx.chromosome(ch)
	lo := sort.Search(len(es), func(i int) bool { return es[i].Position >= from })
	hi := sort.Search(len(es), func(i int) bool { return es[i].Position > to })
	if lo >= hi {
		return nil
	}
	return es[lo:hi]
}

func (idx *Index) chromosome(ch int) []Entry {
	r, ok := idx.runs[ch]
	if !ok {
		return nil
	}
	return idx.entries[r.lo:r.hi]
}
