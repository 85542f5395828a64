// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"annostream/internal/genome"
)

// IndexSuffix names the samtools faidx sidecar. When present, sequence names
// are taken from it instead of scanning the whole FASTA.
const IndexSuffix = ".fai"

// assemblyKey marks the assembly token in a FASTA header, e.g.
// ">chr1 AS:GRCh38 LN:248956422".
const assemblyKey = "AS:"

// Record is one FASTA header line.
type Record struct {
	ID       string
	Assembly string // empty when the header carries no AS: token
}

// Headers reads every header line of path in file order. Sequence lines are
// skipped without being buffered.
func Headers(path string) ([]Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []Record
	r := bufio.NewReaderSize(rc, 1<<20)
	for {
		line, err := r.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			// long sequence line; only the first chunk can start with '>'
			for err == bufio.ErrBufferFull {
				_, err = r.ReadSlice('\n')
			}
			line = nil
		}
		if len(line) > 0 && line[0] == '>' {
			if rec, ok := parseHeader(string(line[1:])); ok {
				out = append(out, rec)
			}
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// LoadReference builds the chromosome table for path. The assembly is the
// first AS: token seen, or genome.UnknownAssembly.
func LoadReference(path string) (*genome.Reference, error) {
	var (
		recs []Record
		err  error
	)
	if _, serr := os.Stat(path + IndexSuffix); serr == nil && path != "-" {
		recs, err = faiNames(path + IndexSuffix)
		if err == nil {
			// the index drops header comments; pull the assembly from the first record
			if first, ferr := firstHeader(path); ferr == nil && len(recs) > 0 {
				recs[0].Assembly = first.Assembly
			}
		}
	} else {
		recs, err = Headers(path)
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(recs))
	assembly := ""
	for _, r := range recs {
		names = append(names, r.ID)
		if assembly == "" {
			assembly = r.Assembly
		}
	}
	return genome.NewReference(assembly, names), nil
}

func parseHeader(s string) (Record, bool) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return Record{}, false
	}
	rec := Record{ID: f[0]}
	for _, tok := range f[1:] {
		if strings.HasPrefix(tok, assemblyKey) {
			rec.Assembly = strings.TrimPrefix(tok, assemblyKey)
			break
		}
	}
	return rec, true
}

func firstHeader(path string) (Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return Record{}, err
	}
	defer rc.Close()
	line, err := bufio.NewReader(rc).ReadString('\n')
	if err != nil && err != io.EOF {
		return Record{}, err
	}
	if !strings.HasPrefix(line, ">") {
		return Record{}, io.ErrUnexpectedEOF
	}
	rec, _ := parseHeader(line[1:])
	return rec, nil
}

func faiNames(path string) ([]Record, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var out []Record
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		name, _, _ := strings.Cut(sc.Text(), "\t")
		if name != "" {
			out = append(out, Record{ID: name})
		}
	}
	return out, sc.Err()
}

/* ---------------- small helpers ---------------- */

// openReader opens path, "-" for stdin, transparently inflating .gz input.
func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	}
	return fh, nil
}

// Open is openReader for other line-oriented inputs (wigFix, VCF).
func Open(path string) (io.ReadCloser, error) { return openReader(path) }
