// Package vindex builds and reads the companion index of a block-compressed
// output: a section table plus one (coordinate, virtual offset) entry per
// emitted record.
//
// Entries are streamed into a zstd-compressed destination as they arrive, so
// memory does not grow with the number of records. Because entries are written
// in emission order, all entries of one chromosome form a single contiguous run
// that the loader can binary-search.
package vindex

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"annostream/internal/bgzf"
	"annostream/internal/genome"
)

const (
	magic      = "VIDX\x01"
	recEntry   = 'E'
	recSection = 'S'
	recFooter  = 'Z'
)

// Section is a half-open [Begin, End) virtual range holding one named part of
// a document.
type Section struct {
	Tag   string
	Begin bgzf.VirtualOffset
	End   bgzf.VirtualOffset
}

// Entry locates the first byte of one record.
type Entry struct {
	genome.Coordinate
	Offset bgzf.VirtualOffset
}

// Builder accumulates entries and section bounds. It is not safe for
// concurrent use.
type Builder struct {
	dst     io.WriteCloser
	enc     *zstd.Encoder
	scratch []byte

	open  map[string]bgzf.VirtualOffset
	ended map[string]bool
	count uint64
	last  Entry

	err       error
	finalized bool
}

// NewBuilder writes the index to dst. dst is closed by Finalize.
func NewBuilder(dst io.WriteCloser) (*Builder, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("vindex: %w", err)
	}
	b := &Builder{
		dst:   dst,
		enc:   enc,
		open:  map[string]bgzf.VirtualOffset{},
		ended: map[string]bool{},
	}
	b.emit([]byte(magic))
	return b, b.err
}

// BeginSection marks the start of tag. Beginning a tag twice is a programming
// error and panics.
func (b *Builder) BeginSection(tag string, off bgzf.VirtualOffset) error {
	if _, ok := b.open[tag]; ok || b.ended[tag] {
		panic(fmt.Sprintf("vindex: section %q begun twice", tag))
	}
	b.open[tag] = off
	return b.err
}

// EndSection closes tag and records its bounds. Ending a tag that is not open
// panics.
func (b *Builder) EndSection(tag string, off bgzf.VirtualOffset) error {
	begin, ok := b.open[tag]
	if !ok {
		panic(fmt.Sprintf("vindex: section %q ended without being begun", tag))
	}
	delete(b.open, tag)
	b.ended[tag] = true

	buf := append(b.scratch[:0], recSection)
	buf = binary.AppendUvarint(buf, uint64(len(tag)))
	buf = append(buf, tag...)
	buf = binary.AppendUvarint(buf, uint64(begin))
	buf = binary.AppendUvarint(buf, uint64(off))
	b.scratch = buf
	b.emit(buf)
	return b.err
}

// Add appends an entry. Callers must add coordinates in non-decreasing order;
// the builder does not check, and an unordered index answers range queries
// incorrectly.
func (b *Builder) Add(c genome.Coordinate, off bgzf.VirtualOffset) error {
	if b.err != nil {
		return b.err
	}
	buf := append(b.scratch[:0], recEntry)
	buf = binary.AppendVarint(buf, int64(c.Chromosome-b.last.Chromosome))
	if c.Chromosome == b.last.Chromosome {
		buf = binary.AppendVarint(buf, int64(c.Position-b.last.Position))
	} else {
		buf = binary.AppendVarint(buf, int64(c.Position))
	}
	buf = binary.AppendVarint(buf, int64(off)-int64(b.last.Offset))
	b.scratch = buf
	b.last = Entry{Coordinate: c, Offset: off}
	b.count++
	b.emit(buf)
	return b.err
}

// Finalize writes the footer, flushes the compressed stream and closes the
// destination. Later calls return the first result again.
func (b *Builder) Finalize() error {
	if b.finalized {
		return b.err
	}
	b.finalized = true
	for tag := range b.open {
		panic(fmt.Sprintf("vindex: finalize with section %q still open", tag))
	}
	buf := binary.AppendUvarint([]byte{recFooter}, b.count)
	b.emit(buf)
	if err := b.enc.Close(); err != nil && b.err == nil {
		b.err = fmt.Errorf("vindex: flush: %w", err)
	}
	if err := b.dst.Close(); err != nil && b.err == nil {
		b.err = fmt.Errorf("vindex: close: %w", err)
	}
	return b.err
}

// Len is the number of entries added so far.
func (b *Builder) Len() int { return int(b.count) }

func (b *Builder) emit(p []byte) {
	if b.err != nil {
		return
	}
	if _, err := b.enc.Write(p); err != nil {
		b.err = fmt.Errorf("vindex: write: %w", err)
	}
}
