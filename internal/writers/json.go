package writers

import (
	"errors"
	"fmt"
	"strings"

	"annostream/internal/datasource"
	"annostream/internal/genome"
	"annostream/internal/jsonutil"
)

// Section tags of the JSON document.
const (
	TagHeader    = "header"
	TagPositions = "positions"
	TagGenes     = "genes"

	// JSONSchemaVersion is the document schema reported in every header.
	JSONSchemaVersion = 6

	JSONSuffix      = ".json.gz"
	JSONIndexSuffix = ".jsi"
)

// ErrMultilinePayload rejects an entry that would span more than one line.
var ErrMultilinePayload = errors.New("writers: entry payload contains a newline")

// Header is the provenance block written once at the top of a document.
type Header struct {
	Annotator      string               `json:"annotator"`
	CreationTime   string               `json:"creationTime"`
	GenomeAssembly string               `json:"genomeAssembly"`
	SchemaVersion  int                  `json:"schemaVersion"`
	DataVersion    string               `json:"dataVersion"`
	DataSources    []datasource.Version `json:"dataSources"`
	Samples        []string             `json:"samples,omitempty"`
}

// JSONWriter streams the Header/Positions/Genes document:
//
//	{"header":{...},"positions":[
//	<entry>,
//	<entry>
//	],"genes":[
//	<gene>
//	]}
//
// Section bounds cover the header object, the entries (with their separators)
// and the gene items. Every entry is indexed at its first byte.
type JSONWriter struct {
	doc *document
}

// NewJSONWriter takes ownership of dst. Close must be called on every path.
func NewJSONWriter(dst Destination) (*JSONWriter, error) {
	d, err := newDocument(dst)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{doc: d}, nil
}

// State reports where the writer is in its lifecycle.
func (w *JSONWriter) State() State { return w.doc.state }

// Open writes the header section and the positions prelude.
func (w *JSONWriter) Open(h Header) error {
	if w.doc.state != Unopened {
		w.doc.misuse("Open")
	}
	if h.DataSources == nil {
		h.DataSources = []datasource.Version{}
	}
	hdr, err := jsonutil.Marshal(h)
	if err != nil {
		return err
	}
	w.doc.writeString(`{"` + TagHeader + `":`)
	w.doc.begin(TagHeader)
	w.doc.write(hdr)
	w.doc.end(TagHeader)
	w.doc.writeString(`,"` + TagPositions + `":[` + "\n")
	w.doc.state = HeaderWritten
	return w.doc.err
}

// WriteEntry appends one position. The payload must be a single line, since
// readers find the end of an entry at the next newline. An empty payload is
// skipped without an index entry.
func (w *JSONWriter) WriteEntry(c genome.Coordinate, payload string) error {
	if payload == "" {
		return w.doc.err
	}
	if strings.ContainsRune(payload, '\n') {
		return fmt.Errorf("%w at %v", ErrMultilinePayload, c)
	}
	switch w.doc.state {
	case HeaderWritten:
		w.doc.begin(TagPositions)
		w.doc.state = PositionsOpen
	case PositionsOpen:
		w.doc.writeString(",\n")
	default:
		w.doc.misuse("WriteEntry")
	}
	w.doc.add(c)
	w.doc.writeString(payload)
	return w.doc.err
}

// ClosePositions ends the positions array. With no entries written the
// section is recorded as empty. Calling it again is a no-op.
func (w *JSONWriter) ClosePositions() error {
	switch w.doc.state {
	case Unopened:
		w.doc.misuse("ClosePositions")
	case HeaderWritten:
		w.doc.begin(TagPositions)
		fallthrough
	case PositionsOpen:
		w.doc.end(TagPositions)
		w.doc.writeString("\n]")
		w.doc.state = PositionsClosed
	}
	return w.doc.err
}

// WriteTrailer closes the positions array if needed and writes the genes
// array. A nil slice omits the genes key. It may be called once.
func (w *JSONWriter) WriteTrailer(genes []string) error {
	if w.doc.state == Unopened || w.doc.state >= TrailerOpen {
		w.doc.misuse("WriteTrailer")
	}
	if err := w.ClosePositions(); err != nil {
		return err
	}
	if genes == nil {
		w.doc.state = TrailerClosed
		return w.doc.err
	}
	w.doc.writeString(`,"` + TagGenes + `":[` + "\n")
	w.doc.begin(TagGenes)
	w.doc.state = TrailerOpen
	for i, g := range genes {
		if i > 0 {
			w.doc.writeString(",\n")
		}
		w.doc.writeString(g)
	}
	w.doc.end(TagGenes)
	w.doc.writeString("\n]")
	w.doc.state = TrailerClosed
	return w.doc.err
}

// Close terminates the document, flushes the sink, finalizes the index and
// releases both handles. It is safe to call more than once.
func (w *JSONWriter) Close() error {
	switch w.doc.state {
	case Closed:
		return w.doc.closeErr
	case HeaderWritten, PositionsOpen:
		_ = w.ClosePositions()
	}
	if w.doc.state != Unopened {
		w.doc.writeString("}\n")
	}
	return w.doc.release()
}
