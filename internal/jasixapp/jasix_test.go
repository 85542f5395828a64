package jasixapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"annostream/internal/cli"
	"annostream/internal/exitcode"
	"annostream/internal/genome"
	"annostream/internal/writers"
)

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out"+writers.JSONSuffix)
	out, err := os.Create(path)
	require.NoError(t, err)
	idx, err := os.Create(path + writers.JSONIndexSuffix)
	require.NoError(t, err)

	w, err := writers.NewJSONWriter(writers.Destination{Mode: writers.ModeCompressed, Out: out, Index: idx})
	require.NoError(t, err)
	require.NoError(t, w.Open(writers.Header{Annotator: "annostream test", GenomeAssembly: "GRCh38", SchemaVersion: 6}))
	for ch, name := range []string{"1", "2", "X"} {
		for p := 1; p <= 2000; p++ {
			payload := fmt.Sprintf(`{"chromosome":"%s","position":%d}`, name, p*10)
			require.NoError(t, w.WriteEntry(genome.Coordinate{Chromosome: ch, Position: p * 10}, payload))
		}
	}
	require.NoError(t, w.WriteTrailer([]string{`"GENEA"`}))
	require.NoError(t, w.Close())
	return path
}

func TestDocumentQueries(t *testing.T) {
	d, err := OpenDocument(writeDoc(t))
	require.NoError(t, err)
	defer d.Close()

	require.Equal(t, []string{"1", "2", "X"}, d.Chromosomes())

	h, err := d.Header()
	require.NoError(t, err)
	var hdr writers.Header
	require.NoError(t, json.Unmarshal(h, &hdr))
	require.Equal(t, "GRCh38", hdr.GenomeAssembly)

	var got []string
	collect := func(p string) error { got = append(got, p); return nil }
	require.NoError(t, d.Query(cli.Region{Chromosome: "chr2", Start: 95, End: 121}, collect))
	require.Equal(t, []string{
		`{"chromosome":"2","position":100}`,
		`{"chromosome":"2","position":110}`,
		`{"chromosome":"2","position":120}`,
	}, got)

	got = nil
	require.NoError(t, d.Query(cli.Region{Chromosome: "X", Start: 19990}, collect))
	require.Equal(t, []string{`{"chromosome":"X","position":19990}`, `{"chromosome":"X","position":20000}`}, got)

	got = nil
	require.NoError(t, d.Query(cli.Region{Chromosome: "Y", Start: 1}, collect))
	require.Empty(t, got)
}

func TestRunPrintsHeaderAndQuery(t *testing.T) {
	path := writeDoc(t)
	var stdout, stderr bytes.Buffer
	code := RunContext(context.Background(), []string{"--in", path, "--header", "-q", "1:10-20"}, &stdout, &stderr)
	require.Equal(t, exitcode.Success, code, stderr.String())

	out := stdout.String()
	require.Contains(t, out, "\n  \"genomeAssembly\": \"GRCh38\",\n")
	require.True(t, strings.HasSuffix(out, `{"chromosome":"1","position":10}`+"\n"+`{"chromosome":"1","position":20}`+"\n"), out)
}

func TestRunRejectsMissingIndex(t *testing.T) {
	path := writeDoc(t)
	require.NoError(t, os.Remove(path+writers.JSONIndexSuffix))
	var stdout, stderr bytes.Buffer
	code := RunContext(context.Background(), []string{"--in", path, "--header"}, &stdout, &stderr)
	require.Equal(t, exitcode.FileNotFound, code)
	require.Contains(t, stderr.String(), "--in")
}
