// Package jasixapp implements jasix, which reads an indexed annotation
// document back by section or by genomic region.
package jasixapp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"annostream/internal/bgzf"
	"annostream/internal/cli"
	"annostream/internal/genome"
	"annostream/internal/vindex"
	"annostream/internal/writers"
)

// Document is an opened <doc>.json.gz with its .jsi index.
type Document struct {
	f   *os.File
	rd  *bgzf.Reader
	idx *vindex.Index

	// names resolves chromosome names from entry payloads to index keys.
	names *genome.Reference
	keys  []int
}

func OpenDocument(path string) (*Document, error) {
	ih, err := os.Open(path + writers.JSONIndexSuffix)
	if err != nil {
		return nil, err
	}
	idx, err := vindex.Read(ih)
	ih.Close()
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", path, writers.JSONIndexSuffix, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d := &Document{f: f, rd: bgzf.NewReader(f), idx: idx}
	if err := d.loadNames(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (d *Document) Close() error { return d.f.Close() }

// Header returns the raw header object.
func (d *Document) Header() (json.RawMessage, error) {
	sec, ok := d.idx.Section(writers.TagHeader)
	if !ok {
		return nil, fmt.Errorf("index has no %q section", writers.TagHeader)
	}
	var buf bytes.Buffer
	if err := d.copySection(&buf, sec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Chromosomes lists the chromosome names present, in document order.
func (d *Document) Chromosomes() []string {
	out := make([]string, 0, len(d.names.Chromosomes))
	for _, ch := range d.names.Chromosomes {
		out = append(out, ch.EnsemblName)
	}
	return out
}

// Query calls fn with the payload of every entry inside r, in order.
func (d *Document) Query(r cli.Region, fn func(payload string) error) error {
	ch, ok := d.names.Lookup(r.Chromosome)
	if !ok {
		return nil
	}
	end := r.End
	if end == 0 {
		end = math.MaxInt
	}
	entries := d.idx.Range(d.keys[ch.Index], r.Start, end)
	if len(entries) == 0 {
		return nil
	}
	// entries of one run are consecutive lines of the positions array
	br, err := d.at(entries[0].Offset)
	if err != nil {
		return err
	}
	for range entries {
		p, err := readPayload(br)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// loadNames reads the "chromosome" field of the first entry of every run.
func (d *Document) loadNames() error {
	var names []string
	for _, key := range d.idx.Chromosomes() {
		first := d.idx.Range(key, math.MinInt, math.MaxInt)[0]
		br, err := d.at(first.Offset)
		if err != nil {
			return err
		}
		p, err := readPayload(br)
		if err != nil {
			return err
		}
		var e struct {
			Chromosome string `json:"chromosome"`
		}
		if err := json.Unmarshal([]byte(p), &e); err != nil || e.Chromosome == "" {
			return fmt.Errorf("entry at %s has no chromosome name", first.Offset)
		}
		names = append(names, e.Chromosome)
		d.keys = append(d.keys, key)
	}
	d.names = genome.NewReference("", names)
	return nil
}

func (d *Document) at(off bgzf.VirtualOffset) (*bufio.Reader, error) {
	if err := d.rd.Seek(off); err != nil {
		return nil, err
	}
	return bufio.NewReader(d.rd), nil
}

func (d *Document) copySection(w io.Writer, s vindex.Section) error {
	if err := d.rd.Seek(s.Begin); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	one := make([]byte, 1)
	for !d.rd.At(s.End) {
		if _, err := io.ReadFull(d.rd, one); err != nil {
			return fmt.Errorf("section %s: %w", s.Tag, err)
		}
		_ = bw.WriteByte(one[0])
	}
	return bw.Flush()
}

// readPayload reads one entry line, dropping its separator.
func readPayload(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, ","), nil
}
