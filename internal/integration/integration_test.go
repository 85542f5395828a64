// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"annostream/internal/app"
	"annostream/internal/bgzf"
	"annostream/internal/cli"
	"annostream/internal/exitcode"
	"annostream/internal/jasixapp"
	"annostream/internal/saapp"
	"annostream/internal/vindex"
	"annostream/internal/writers"
)

const vcfHeader = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12878\n"

const vcfBody = "chr1\t100\t.\tA\tG\t50\tPASS\tDP=9\tGT\t0/1\n" +
	"chr1\t150\t.\tC\t<NON_REF>\t.\t.\tEND=160\tGT\t0/0\n" +
	"chr2\t5\trs1\tA\tT\t.\tPASS\t.\tGT\t1/1\n"

type fixture struct {
	dir, ref, vcf, store string
}

func write(t *testing.T, fn, data string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
	return fn
}

func setup(t *testing.T, body string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir: dir,
		ref: write(t, filepath.Join(dir, "ref.fa"), ">chr1 AS:GRCh38\nACGT\n>chr2\nACGT\n"),
		vcf: write(t, filepath.Join(dir, "in.vcf"), vcfHeader+body),
	}
	wig := write(t, filepath.Join(dir, "phylop.wigFix"), "fixedStep chrom=chr1 start=99 step=1\n0.5\n2.25\n-1\n")
	write(t, wig+".version", "NAME=PhyloP\nVERSION=100way\nDATE=2015-05-01\n")

	var err error
	f.store, err = saapp.BuildPhylop(context.Background(), cli.PhylopOptions{Ref: f.ref, In: wig, Out: dir}, log.NewNopLogger())
	require.NoError(t, err)
	return f
}

func readBGZF(t *testing.T, path string) string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	b, err := io.ReadAll(bgzf.NewReader(fh))
	require.NoError(t, err)
	return string(b)
}

func TestEndToEnd(t *testing.T) {
	f := setup(t, vcfBody)
	prefix := filepath.Join(f.dir, "out")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--in", f.vcf, "--ref", f.ref, "--sa", f.store, "--out", prefix,
		"--vcf", "--gvcf", "--log-level", "error",
	}, &out, &errBuf)
	require.Equal(t, exitcode.Success, code, errBuf.String())

	var doc struct {
		Header    writers.Header    `json:"header"`
		Positions []json.RawMessage `json:"positions"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBGZF(t, prefix+writers.JSONSuffix)), &doc))
	require.Equal(t, "GRCh38", doc.Header.GenomeAssembly)
	require.Equal(t, []string{"NA12878"}, doc.Header.Samples)
	require.Len(t, doc.Header.DataSources, 1)
	require.Equal(t, "PhyloP_100way", doc.Header.DataVersion)
	require.Len(t, doc.Positions, 2)
	require.JSONEq(t, `{"chromosome":"1","position":100,"refAllele":"A","altAlleles":["G"],"phylopScore":2.25}`, string(doc.Positions[0]))
	require.JSONEq(t, `{"chromosome":"2","position":5,"refAllele":"A","altAlleles":["T"]}`, string(doc.Positions[1]))

	ih, err := os.Open(prefix + writers.JSONSuffix + writers.JSONIndexSuffix)
	require.NoError(t, err)
	idx, err := vindex.Read(ih)
	ih.Close()
	require.NoError(t, err)
	require.Len(t, idx.Entries(), 2)

	vcf := readBGZF(t, prefix+".vcf.gz")
	require.Contains(t, vcf, "##INFO=<ID=phyloP,")
	require.Contains(t, vcf, "chr1\t100\t.\tA\tG\t50\tPASS\tDP=9;phyloP=2.25\tGT\t0/1\n")
	require.NotContains(t, vcf, "<NON_REF>")

	gvcf := readBGZF(t, prefix+".g.vcf.gz")
	require.Contains(t, gvcf, "chr1\t150\t.\tC\t<NON_REF>\t.\t.\tEND=160\tGT\t0/0\n")
	require.Equal(t, 3, strings.Count(gvcf, "\nchr"))

	var jout, jerr bytes.Buffer
	code = jasixapp.Run([]string{"--in", prefix + writers.JSONSuffix, "-q", "2"}, &jout, &jerr)
	require.Equal(t, exitcode.Success, code, jerr.String())
	require.JSONEq(t, string(doc.Positions[1]), strings.TrimSpace(jout.String()))
}

func TestPlainToStdout(t *testing.T) {
	f := setup(t, vcfBody)
	var out, errBuf bytes.Buffer
	code := app.Run([]string{"--in", f.vcf, "--ref", f.ref, "--out", "-", "--log-level", "error"}, &out, &errBuf)
	require.Equal(t, exitcode.Success, code, errBuf.String())

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Contains(t, doc, "positions")
	require.NotContains(t, doc, "genes")
	require.NotContains(t, out.String(), "phylopScore")

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), "out"), e.Name())
	}
}

func TestMalformedRecordReportsLine(t *testing.T) {
	bad := "chr1\tnotanumber\t.\tA\tG\t.\t.\t.\tGT\t0/1"
	f := setup(t, "chr1\t100\t.\tA\tG\t50\tPASS\t.\tGT\t0/1\n"+bad+"\n")
	prefix := filepath.Join(f.dir, "out")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{"--in", f.vcf, "--ref", f.ref, "--out", prefix}, &out, &errBuf)
	require.Equal(t, exitcode.InvalidInput, code)
	require.Contains(t, errBuf.String(), "notanumber")

	// the entry before the bad record is still readable
	var doc struct {
		Positions []json.RawMessage `json:"positions"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBGZF(t, prefix+writers.JSONSuffix)), &doc))
	require.Len(t, doc.Positions, 1)
}

func TestCanceledRunExits130(t *testing.T) {
	f := setup(t, vcfBody)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := app.RunContext(ctx, []string{"--in", f.vcf, "--ref", f.ref, "--out", filepath.Join(f.dir, "out")}, io.Discard, io.Discard)
	require.Equal(t, exitcode.Canceled, code)
}

func TestAssemblyMismatchIsUsageError(t *testing.T) {
	f := setup(t, vcfBody)
	other := write(t, filepath.Join(f.dir, "grch37.fa"), ">1 AS:GRCh37\nACGT\n")

	var out, errBuf bytes.Buffer
	code := app.Run([]string{"--in", f.vcf, "--ref", other, "--sa", f.store, "--out", filepath.Join(f.dir, "out")}, &out, &errBuf)
	require.Equal(t, exitcode.UsageError, code)
	require.Contains(t, errBuf.String(), "GRCh37")
	_, err := os.Stat(filepath.Join(f.dir, "out"+writers.JSONSuffix))
	require.True(t, os.IsNotExist(err))
}

func TestMirrorCreateFailureLeavesTerminatedDocument(t *testing.T) {
	f := setup(t, vcfBody)
	prefix := filepath.Join(f.dir, "out")
	require.NoError(t, os.Mkdir(prefix+".g.vcf.gz", 0o755))

	var out, errBuf bytes.Buffer
	code := app.Run([]string{"--in", f.vcf, "--ref", f.ref, "--out", prefix, "--vcf", "--gvcf"}, &out, &errBuf)
	require.Equal(t, exitcode.IOError, code)

	var doc struct {
		Header    writers.Header    `json:"header"`
		Positions []json.RawMessage `json:"positions"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBGZF(t, prefix+writers.JSONSuffix)), &doc))
	require.Equal(t, "GRCh38", doc.Header.GenomeAssembly)
	require.Empty(t, doc.Positions)
	require.Contains(t, readBGZF(t, prefix+".vcf.gz"), "#CHROM")
}
