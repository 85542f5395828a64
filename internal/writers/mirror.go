package writers

import (
	"bufio"
	"io"
)

// LineSink receives one unindexed text line per call.
type LineSink interface {
	WriteLine(line string) error
}

// LineWriter is a pass-through text mirror (VCF or GVCF). Header lines are
// written once at construction; records follow verbatim.
type LineWriter struct {
	bw     *bufio.Writer
	c      io.Closer
	closed bool
}

// NewLineWriter takes ownership of w.
func NewLineWriter(w io.WriteCloser, headerLines []string) (*LineWriter, error) {
	lw := &LineWriter{bw: bufio.NewWriterSize(w, 64<<10), c: w}
	for _, h := range headerLines {
		if err := lw.WriteLine(h); err != nil {
			return nil, err
		}
	}
	return lw, nil
}

func (l *LineWriter) WriteLine(line string) error {
	if _, err := l.bw.WriteString(line); err != nil {
		return err
	}
	return l.bw.WriteByte('\n')
}

// Close flushes and closes the underlying handle.
func (l *LineWriter) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.bw.Flush()
	if cerr := l.c.Close(); err == nil {
		err = cerr
	}
	return err
}

// OptionalSink is a mirror that may not be configured. Check Present once per
// record instead of comparing against nil.
type OptionalSink struct {
	sink LineSink
}

// Some wraps a configured mirror.
func Some(s LineSink) OptionalSink { return OptionalSink{sink: s} }

// None is the absent mirror.
func None() OptionalSink { return OptionalSink{} }

func (o OptionalSink) Present() bool { return o.sink != nil }

// WriteLine forwards to the mirror; on an absent mirror it does nothing.
func (o OptionalSink) WriteLine(line string) error {
	if o.sink == nil {
		return nil
	}
	return o.sink.WriteLine(line)
}
