// Package positional defines the compact binary positional store: a header
// record followed by one length-prefixed value per genomic coordinate, kept in
// a block-compressed stream with a coordinate-keyed companion index.
package positional

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"annostream/internal/datasource"
	"annostream/internal/genome"
)

const (
	Magic = "NPD\x01"

	// Section tags used in the companion index.
	TagHeader  = "header"
	TagPayload = "payload"

	// SchemaVersion is bumped whenever the record layout changes.
	SchemaVersion = 1

	FileSuffix  = ".npd"
	IndexSuffix = ".idx"
)

var ErrBadMagic = errors.New("positional: not a positional store")

// Header is the provenance record at the start of every store.
type Header struct {
	Tag           string // data-source type, e.g. "phylop"
	SchemaVersion int
	Assembly      string
	Version       datasource.Version
}

// Item is one value at one coordinate.
type Item struct {
	genome.Coordinate
	Value []byte
}

// Source yields items in non-decreasing coordinate order and io.EOF at the end.
type Source interface {
	Next() (Item, error)
}

// AppendHeader encodes h, magic included.
func AppendHeader(dst []byte, h Header) []byte {
	dst = append(dst, Magic...)
	dst = appendString(dst, h.Tag)
	dst = binary.AppendUvarint(dst, uint64(h.SchemaVersion))
	dst = appendString(dst, h.Assembly)
	dst = appendString(dst, h.Version.Name)
	dst = appendString(dst, h.Version.Version)
	dst = appendString(dst, h.Version.ReleaseDate)
	dst = appendString(dst, h.Version.Description)
	return dst
}

// ReadHeader decodes a header written by AppendHeader.
func ReadHeader(r *bufio.Reader) (Header, error) {
	m := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, m); err != nil || string(m) != Magic {
		return Header{}, ErrBadMagic
	}
	var h Header
	var err error
	if h.Tag, err = readString(r); err != nil {
		return h, err
	}
	sv, err := binary.ReadUvarint(r)
	if err != nil {
		return h, fmt.Errorf("positional: header: %w", err)
	}
	h.SchemaVersion = int(sv)
	for _, dst := range []*string{&h.Assembly, &h.Version.Name, &h.Version.Version, &h.Version.ReleaseDate, &h.Version.Description} {
		if *dst, err = readString(r); err != nil {
			return h, err
		}
	}
	return h, nil
}

// AppendItem encodes one payload record.
func AppendItem(dst []byte, it Item) []byte {
	dst = binary.AppendUvarint(dst, uint64(it.Chromosome))
	dst = binary.AppendUvarint(dst, uint64(it.Position))
	dst = binary.AppendUvarint(dst, uint64(len(it.Value)))
	return append(dst, it.Value...)
}

// ReadItem decodes the payload record starting at the reader's position.
func ReadItem(r *bufio.Reader) (Item, error) {
	var v [3]uint64
	for i := range v {
		x, err := binary.ReadUvarint(r)
		if err != nil {
			if i == 0 && err == io.EOF {
				return Item{}, io.EOF
			}
			return Item{}, fmt.Errorf("positional: record: %w", err)
		}
		v[i] = x
	}
	it := Item{Coordinate: genome.Coordinate{Chromosome: int(v[0]), Position: int(v[1])}, Value: make([]byte, v[2])}
	if _, err := io.ReadFull(r, it.Value); err != nil {
		return Item{}, fmt.Errorf("positional: record value: %w", err)
	}
	return it, nil
}

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func readString(r *bufio.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", fmt.Errorf("positional: header: %w", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("positional: header: %w", err)
	}
	return string(b), nil
}
