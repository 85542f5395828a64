package writers

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"annostream/internal/bgzf"
	"annostream/internal/vindex"
)

type memFile struct {
	bytes.Buffer
	closed bool
}

func (m *memFile) Close() error { m.closed = true; return nil }

func compressedDest() (Destination, *memFile, *memFile) {
	out, idx := &memFile{}, &memFile{}
	return Destination{Mode: ModeCompressed, Out: out, Index: idx}, out, idx
}

func inflate(t *testing.T, data []byte) string {
	t.Helper()
	b, err := io.ReadAll(bgzf.NewReader(bytes.NewReader(data)))
	require.NoError(t, err)
	return string(b)
}

func loadIndex(t *testing.T, f *memFile) *vindex.Index {
	t.Helper()
	idx, err := vindex.Read(bytes.NewReader(f.Bytes()))
	require.NoError(t, err)
	return idx
}

// between decodes the bytes in [begin, end) without reading anything before begin.
func between(t *testing.T, data []byte, begin, end bgzf.VirtualOffset) string {
	t.Helper()
	r := bgzf.NewReader(bytes.NewReader(data))
	require.NoError(t, r.Seek(begin))
	var out []byte
	one := make([]byte, 1)
	for !r.At(end) {
		_, err := r.Read(one)
		require.NoError(t, err, "ran past %s", end)
		out = append(out, one[0])
	}
	return string(out)
}

func tags(idx *vindex.Index) []string {
	var out []string
	for _, s := range idx.Sections() {
		out = append(out, s.Tag)
	}
	return out
}
