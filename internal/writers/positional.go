package writers

import (
	"errors"
	"io"

	"annostream/internal/genome"
	"annostream/internal/positional"
)

// PositionalWriter writes a single-track binary store: a header section and a
// payload section of length-prefixed values, one per coordinate. It has no
// trailer.
type PositionalWriter struct {
	doc     *document
	scratch []byte
	count   int
}

// NewPositionalWriter takes ownership of dst.
func NewPositionalWriter(dst Destination) (*PositionalWriter, error) {
	d, err := newDocument(dst)
	if err != nil {
		return nil, err
	}
	return &PositionalWriter{doc: d}, nil
}

// State reports where the writer is in its lifecycle.
func (w *PositionalWriter) State() State { return w.doc.state }

// Count is the number of values written.
func (w *PositionalWriter) Count() int { return w.count }

// Open writes the header record.
func (w *PositionalWriter) Open(h positional.Header) error {
	if w.doc.state != Unopened {
		w.doc.misuse("Open")
	}
	w.doc.begin(positional.TagHeader)
	w.doc.write(positional.AppendHeader(nil, h))
	w.doc.end(positional.TagHeader)
	w.doc.state = HeaderWritten
	return w.doc.err
}

// WriteEntry appends value at c. An empty value is skipped.
func (w *PositionalWriter) WriteEntry(c genome.Coordinate, value []byte) error {
	if len(value) == 0 {
		return w.doc.err
	}
	switch w.doc.state {
	case HeaderWritten:
		w.doc.begin(positional.TagPayload)
		w.doc.state = PositionsOpen
	case PositionsOpen:
	default:
		w.doc.misuse("WriteEntry")
	}
	w.scratch = positional.AppendItem(w.scratch[:0], positional.Item{Coordinate: c, Value: value})
	w.doc.add(c)
	w.doc.write(w.scratch)
	if w.doc.err == nil {
		w.count++
	}
	return w.doc.err
}

// WriteItems drains src until io.EOF.
func (w *PositionalWriter) WriteItems(src positional.Source) error {
	for {
		it, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.WriteEntry(it.Coordinate, it.Value); err != nil {
			return err
		}
	}
}

// Close ends the payload section (recording it empty if nothing was written),
// flushes and releases. Safe to call more than once.
func (w *PositionalWriter) Close() error {
	switch w.doc.state {
	case Closed:
		return w.doc.closeErr
	case HeaderWritten:
		w.doc.begin(positional.TagPayload)
		fallthrough
	case PositionsOpen:
		w.doc.end(positional.TagPayload)
		w.doc.state = PositionsClosed
	}
	return w.doc.release()
}
