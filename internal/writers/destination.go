package writers

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"annostream/internal/bgzf"
	"annostream/internal/genome"
	"annostream/internal/vindex"
)

// Mode selects how a document reaches disk.
type Mode int

const (
	// ModeCompressed writes BGZF blocks and a companion index.
	ModeCompressed Mode = iota
	// ModePlain writes uncompressed text and no index.
	ModePlain
)

func (m Mode) String() string {
	switch m {
	case ModeCompressed:
		return "compressed"
	case ModePlain:
		return "plain"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "compressed" or "plain".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "compressed":
		return ModeCompressed, nil
	case "plain":
		return ModePlain, nil
	}
	return 0, fmt.Errorf("unknown output mode %q", s)
}

// Destination bundles the handles a writer takes ownership of.
type Destination struct {
	Mode  Mode
	Out   io.WriteCloser
	Index io.WriteCloser // required for ModeCompressed, unused for ModePlain
}

type sink interface {
	io.Writer
	Position() bgzf.VirtualOffset
	Close() error
}

type indexer interface {
	BeginSection(tag string, off bgzf.VirtualOffset) error
	EndSection(tag string, off bgzf.VirtualOffset) error
	Add(c genome.Coordinate, off bgzf.VirtualOffset) error
	Finalize() error
}

// plainSink counts bytes; its positions are raw byte offsets.
type plainSink struct {
	bw *bufio.Writer
	n  int64
}

func (p *plainSink) Write(b []byte) (int, error) {
	n, err := p.bw.Write(b)
	p.n += int64(n)
	return n, err
}

func (p *plainSink) Position() bgzf.VirtualOffset { return bgzf.VirtualOffset(p.n) }
func (p *plainSink) Close() error                 { return p.bw.Flush() }

type nopIndex struct{}

func (nopIndex) BeginSection(string, bgzf.VirtualOffset) error   { return nil }
func (nopIndex) EndSection(string, bgzf.VirtualOffset) error     { return nil }
func (nopIndex) Add(genome.Coordinate, bgzf.VirtualOffset) error { return nil }
func (nopIndex) Finalize() error                                 { return nil }

func open(dst Destination) (sink, indexer, error) {
	if dst.Out == nil {
		return nil, nil, errors.New("writers: destination has no output")
	}
	switch dst.Mode {
	case ModePlain:
		return &plainSink{bw: bufio.NewWriterSize(dst.Out, 64<<10)}, nopIndex{}, nil
	case ModeCompressed:
		if dst.Index == nil {
			return nil, nil, errors.New("writers: compressed output needs an index destination")
		}
		b, err := vindex.NewBuilder(dst.Index)
		if err != nil {
			return nil, nil, err
		}
		return bgzf.NewWriter(dst.Out), b, nil
	}
	return nil, nil, fmt.Errorf("writers: unsupported mode %v", dst.Mode)
}
