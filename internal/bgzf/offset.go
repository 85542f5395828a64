// Package bgzf writes and reads block-compressed gzip streams whose blocks are
// independently decompressible, addressed by virtual offsets.
//
// A stream is a sequence of gzip members. Each member carries the "BC" extra
// subfield holding its own compressed size, so a reader can hop from block to
// block without inflating anything, then inflate only the block it needs.
package bgzf

import (
	"errors"
	"fmt"
)

const (
	withinBits = 16
	withinMask = 1<<withinBits - 1

	// MaxBlockAddress is the largest compressed block start a VirtualOffset can hold.
	MaxBlockAddress = 1<<(64-withinBits) - 1
)

// ErrOffsetOverflow is returned once the compressed stream grows past MaxBlockAddress.
var ErrOffsetOverflow = errors.New("bgzf: block address exceeds 48 bits")

// VirtualOffset packs the file offset of a compressed block (high 48 bits) with
// a byte offset inside that block's decompressed contents (low 16 bits).
type VirtualOffset uint64

// MakeVirtualOffset combines a block start and an intra-block offset.
func MakeVirtualOffset(block int64, within int) VirtualOffset {
	return VirtualOffset(uint64(block)<<withinBits | uint64(within)&withinMask)
}

// Block is the file offset where the compressed block starts.
func (v VirtualOffset) Block() int64 { return int64(v >> withinBits) }

// Within is the offset into the decompressed block.
func (v VirtualOffset) Within() int { return int(v & withinMask) }

func (v VirtualOffset) String() string { return fmt.Sprintf("%d:%d", v.Block(), v.Within()) }
