package positional

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"annostream/internal/bgzf"
	"annostream/internal/genome"
	"annostream/internal/vindex"
)

// Store answers point lookups against a positional store by seeking straight
// to the block holding the requested coordinate.
type Store struct {
	Header Header

	idx *vindex.Index
	rd  *bgzf.Reader
	br  *bufio.Reader
	c   io.Closer
}

// Open loads path and its companion index (path + IndexSuffix).
func Open(path string) (*Store, error) {
	ih, err := os.Open(path + IndexSuffix)
	if err != nil {
		return nil, err
	}
	idx, err := vindex.Read(ih)
	_ = ih.Close()
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", path, IndexSuffix, err)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(fh, idx)
	if err != nil {
		_ = fh.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.c = fh
	return s, nil
}

// NewStore reads the header section of data using idx.
func NewStore(data io.ReadSeeker, idx *vindex.Index) (*Store, error) {
	s := &Store{idx: idx, rd: bgzf.NewReader(data)}
	s.br = bufio.NewReader(s.rd)

	sec, ok := idx.Section(TagHeader)
	if !ok {
		return nil, fmt.Errorf("positional: index has no %q section", TagHeader)
	}
	if err := s.seek(sec.Begin); err != nil {
		return nil, err
	}
	h, err := ReadHeader(s.br)
	if err != nil {
		return nil, err
	}
	s.Header = h
	return s, nil
}

// HasChromosome reports whether any value was stored for chromosome ch.
func (s *Store) HasChromosome(ch int) bool {
	return len(s.idx.Range(ch, math.MinInt, math.MaxInt)) > 0
}

// Get returns the value stored at c.
func (s *Store) Get(c genome.Coordinate) ([]byte, bool, error) {
	e, ok := s.idx.Find(c)
	if !ok {
		return nil, false, nil
	}
	if err := s.seek(e.Offset); err != nil {
		return nil, false, err
	}
	it, err := ReadItem(s.br)
	if err != nil {
		return nil, false, err
	}
	if it.Coordinate != c {
		return nil, false, fmt.Errorf("positional: index points %v at record for %v", c, it.Coordinate)
	}
	return it.Value, true, nil
}

func (s *Store) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

func (s *Store) seek(off bgzf.VirtualOffset) error {
	if err := s.rd.Seek(off); err != nil {
		return err
	}
	s.br.Reset(s.rd)
	return nil
}
