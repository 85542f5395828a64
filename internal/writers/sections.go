package writers

import (
	"fmt"
	"io"

	"annostream/internal/genome"
)

// State is a writer's position in its section lifecycle. Transitions only move
// forward.
type State int

const (
	Unopened State = iota
	HeaderWritten
	PositionsOpen
	PositionsClosed
	TrailerOpen
	TrailerClosed
	Closed
)

var stateNames = [...]string{
	Unopened:        "unopened",
	HeaderWritten:   "header-written",
	PositionsOpen:   "positions-open",
	PositionsClosed: "positions-closed",
	TrailerOpen:     "trailer-open",
	TrailerClosed:   "trailer-closed",
	Closed:          "closed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// document is the state machine shared by every indexed writer. The first
// write or index failure is kept and returned by every later call.
type document struct {
	out   io.WriteCloser
	index io.WriteCloser
	sink  sink
	idx   indexer

	state    State
	err      error
	closeErr error
}

func newDocument(dst Destination) (*document, error) {
	s, idx, err := open(dst)
	if err != nil {
		return nil, err
	}
	return &document{out: dst.Out, index: dst.Index, sink: s, idx: idx}, nil
}

// misuse panics: calling the section API out of order is a bug in the caller.
func (d *document) misuse(op string) {
	panic(fmt.Sprintf("writers: %s called in state %s", op, d.state))
}

func (d *document) write(p []byte) {
	if d.err != nil {
		return
	}
	if _, err := d.sink.Write(p); err != nil {
		d.err = err
	}
}

func (d *document) writeString(s string) { d.write([]byte(s)) }

func (d *document) begin(tag string) {
	if err := d.idx.BeginSection(tag, d.sink.Position()); err != nil && d.err == nil {
		d.err = err
	}
}

func (d *document) end(tag string) {
	if err := d.idx.EndSection(tag, d.sink.Position()); err != nil && d.err == nil {
		d.err = err
	}
}

func (d *document) add(c genome.Coordinate) {
	if d.err != nil {
		return
	}
	if err := d.idx.Add(c, d.sink.Position()); err != nil {
		d.err = err
	}
}

// release flushes the sink, finalizes the index and closes every handle, even
// after a failure. It runs once; later calls repeat its result.
func (d *document) release() error {
	if d.state == Closed {
		return d.closeErr
	}
	d.state = Closed
	first := d.err
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	keep(d.sink.Close())
	keep(d.idx.Finalize())
	keep(d.out.Close())
	if _, ok := d.idx.(nopIndex); ok && d.index != nil {
		keep(d.index.Close())
	}
	d.closeErr = first
	return first
}
