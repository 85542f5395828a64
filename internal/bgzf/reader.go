package bgzf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ErrCorrupt reports a block whose header does not describe a BGZF member.
var ErrCorrupt = errors.New("bgzf: corrupt block header")

// Reader decompresses a BGZF stream from any virtual offset.
type Reader struct {
	r  io.ReadSeeker
	gz *gzip.Reader

	raw   []byte
	data  []byte // decompressed contents of the loaded block
	pos   int    // read cursor within data
	block int64  // file offset of the loaded block, -1 if none
	next  int64  // file offset of the block after it
}

// NewReader positions a reader at the start of the stream.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{r: r, block: -1, raw: make([]byte, maxBlock)}
}

// Seek moves the read cursor to v. Seeking inside the loaded block does not
// touch the underlying reader.
func (r *Reader) Seek(v VirtualOffset) error {
	if v.Block() != r.block {
		if err := r.load(v.Block()); err != nil {
			return err
		}
	}
	if v.Within() > len(r.data) {
		return fmt.Errorf("bgzf: offset %s past end of %d-byte block", v, len(r.data))
	}
	r.pos = v.Within()
	return nil
}

// Position is the virtual offset of the next byte Read will return.
func (r *Reader) Position() VirtualOffset {
	if r.block < 0 {
		return 0
	}
	if r.pos == len(r.data) {
		return MakeVirtualOffset(r.next, 0)
	}
	return MakeVirtualOffset(r.block, r.pos)
}

// At reports whether the next byte Read returns is at v. The end of the loaded
// block and the start of the following one are the same place.
func (r *Reader) At(v VirtualOffset) bool {
	if r.Position() == v {
		return true
	}
	return r.block >= 0 && v.Block() == r.block && v.Within() == r.pos
}

// Read implements io.Reader, crossing block boundaries as needed.
func (r *Reader) Read(p []byte) (int, error) {
	if r.block < 0 {
		if err := r.load(0); err != nil {
			return 0, err
		}
	}
	for r.pos == len(r.data) {
		if err := r.load(r.next); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *Reader) load(at int64) error {
	if _, err := r.r.Seek(at, io.SeekStart); err != nil {
		return fmt.Errorf("bgzf: seek %d: %w", at, err)
	}
	hdr := r.raw[:headerSize]
	if _, err := io.ReadFull(r.r, hdr); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("bgzf: read block header at %d: %w", at, err)
	}
	if hdr[0] != 0x1f || hdr[1] != 0x8b || hdr[3]&0x04 == 0 || hdr[12] != 'B' || hdr[13] != 'C' {
		return fmt.Errorf("%w at %d", ErrCorrupt, at)
	}
	size := int(binary.LittleEndian.Uint16(hdr[bsizeOffset:])) + 1
	if size < headerSize+trailerSize {
		return fmt.Errorf("%w at %d: block size %d", ErrCorrupt, at, size)
	}
	if _, err := io.ReadFull(r.r, r.raw[headerSize:size]); err != nil {
		return fmt.Errorf("bgzf: read block at %d: %w", at, err)
	}

	src := bytes.NewReader(r.raw[:size])
	if r.gz == nil {
		gz, err := gzip.NewReader(src)
		if err != nil {
			return fmt.Errorf("bgzf: block at %d: %w", at, err)
		}
		r.gz = gz
	} else if err := r.gz.Reset(src); err != nil {
		return fmt.Errorf("bgzf: block at %d: %w", at, err)
	}
	r.gz.Multistream(false)

	var out bytes.Buffer
	out.Grow(BlockSize)
	if _, err := io.Copy(&out, r.gz); err != nil {
		return fmt.Errorf("bgzf: inflate block at %d: %w", at, err)
	}
	r.data = out.Bytes()
	r.pos = 0
	r.block = at
	r.next = at + int64(size)
	return nil
}
