package bgzf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// BlockSize is the largest payload packed into one block. It leaves headroom
// so an incompressible block still fits the 16-bit BSIZE field.
const BlockSize = 0xff00

const (
	headerSize  = 18
	trailerSize = 8
	bsizeOffset = 16
	maxBlock    = 1 << 16
)

// eofMarker is the empty block that terminates a well-formed stream.
var eofMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00,
	0x00, 0xff, 0x06, 0x00, 0x42, 0x43, 0x02, 0x00,
	0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// Writer is an append-only block-compressing sink. It is not safe for
// concurrent use.
type Writer struct {
	w          io.Writer
	gz         *gzip.Writer
	buf        []byte
	cbuf       bytes.Buffer
	blockStart int64
	err        error
	closed     bool
}

// NewWriter returns a Writer using the default compression level.
func NewWriter(w io.Writer) *Writer {
	bw, _ := NewWriterLevel(w, gzip.DefaultCompression)
	return bw
}

// NewWriterLevel returns a Writer with the given gzip level.
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	gz, err := gzip.NewWriterLevel(io.Discard, level)
	if err != nil {
		return nil, fmt.Errorf("bgzf: %w", err)
	}
	return &Writer{w: w, gz: gz, buf: make([]byte, 0, BlockSize)}, nil
}

// Position returns the virtual offset of the next byte to be written.
func (w *Writer) Position() VirtualOffset {
	return MakeVirtualOffset(w.blockStart, len(w.buf))
}

// Write appends p, emitting compressed blocks as they fill. A failure while
// emitting a block is returned here and from every later call.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.closed {
		return 0, errors.New("bgzf: write to closed writer")
	}
	n := 0
	for len(p) > 0 {
		take := BlockSize - len(w.buf)
		if take > len(p) {
			take = len(p)
		}
		w.buf = append(w.buf, p[:take]...)
		p = p[take:]
		n += take
		if len(w.buf) == BlockSize {
			if err := w.flushBlock(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush emits the partially filled block, if any.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf) == 0 {
		return nil
	}
	return w.flushBlock()
}

// Close flushes pending data and appends the EOF marker block. It does not
// close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	if err := w.Flush(); err != nil {
		w.closed = true
		return err
	}
	w.closed = true
	if _, err := w.w.Write(eofMarker); err != nil {
		w.err = fmt.Errorf("bgzf: write eof block: %w", err)
		return w.err
	}
	w.blockStart += int64(len(eofMarker))
	return nil
}

func (w *Writer) flushBlock() error {
	w.cbuf.Reset()
	w.gz.Reset(&w.cbuf)
	w.gz.Header.Extra = []byte{'B', 'C', 2, 0, 0, 0}
	w.gz.Header.OS = 0xff
	if _, err := w.gz.Write(w.buf); err != nil {
		w.err = fmt.Errorf("bgzf: compress block: %w", err)
		return w.err
	}
	if err := w.gz.Close(); err != nil {
		w.err = fmt.Errorf("bgzf: compress block: %w", err)
		return w.err
	}
	block := w.cbuf.Bytes()
	if len(block) > maxBlock {
		w.err = fmt.Errorf("bgzf: compressed block of %d bytes exceeds %d", len(block), maxBlock)
		return w.err
	}
	binary.LittleEndian.PutUint16(block[bsizeOffset:], uint16(len(block)-1))

	if _, err := w.w.Write(block); err != nil {
		w.err = fmt.Errorf("bgzf: write block at %d: %w", w.blockStart, err)
		return w.err
	}
	w.blockStart += int64(len(block))
	if w.blockStart > MaxBlockAddress {
		w.err = ErrOffsetOverflow
		return w.err
	}
	w.buf = w.buf[:0]
	return nil
}
