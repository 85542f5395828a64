package saapp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"annostream/internal/cli"
	"annostream/internal/exitcode"
	"annostream/internal/genome"
	"annostream/internal/positional"
	"annostream/internal/wigfix"
)

const wig = `fixedStep chrom=chr1 start=10 step=1
0.25
-2
fixedStep chrom=chrUn_x start=1 step=1
7
fixedStep chrom=chr2 start=5 step=2
1.5
`

func inputs(t *testing.T) (ref, in, out string) {
	t.Helper()
	dir := t.TempDir()
	ref = filepath.Join(dir, "ref.fa")
	in = filepath.Join(dir, "hg38.phyloP.wigFix")
	out = filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(ref, []byte(">chr1 AS:GRCh38\nACGT\n>chr2\nACGT\n"), 0o644))
	require.NoError(t, os.WriteFile(in, []byte(wig), 0o644))
	require.NoError(t, os.WriteFile(in+".version", []byte("NAME=PhyloP\nVERSION=hg38\nDATE=2015-05-01\n"), 0o644))
	require.NoError(t, os.Mkdir(out, 0o755))
	return ref, in, out
}

func TestBuildPhylop(t *testing.T) {
	ref, in, out := inputs(t)
	path, err := BuildPhylop(context.Background(), cli.PhylopOptions{Ref: ref, In: in, Out: out}, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "PhyloP_hg38.npd"), path)
	require.FileExists(t, path+positional.IndexSuffix)

	s, err := positional.Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, PhylopTag, s.Header.Tag)
	require.Equal(t, "GRCh38", s.Header.Assembly)
	require.Equal(t, "2015-05-01", s.Header.Version.ReleaseDate)

	for c, want := range map[genome.Coordinate]float32{
		{Chromosome: 0, Position: 10}: 0.25,
		{Chromosome: 0, Position: 11}: -2,
		{Chromosome: 1, Position: 5}:  1.5,
	} {
		raw, ok, err := s.Get(c)
		require.NoError(t, err)
		require.True(t, ok, c)
		got, err := wigfix.DecodeScore(raw)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestPhylopCommandValidatesBeforeWriting(t *testing.T) {
	ref, in, out := inputs(t)
	var stdout, stderr bytes.Buffer
	code := RunContext(context.Background(), []string{"phylop", "--ref", ref, "--in", in + ".missing", "--out", out}, &stdout, &stderr)
	require.Equal(t, exitcode.FileNotFound, code)
	require.Contains(t, stderr.String(), "--in")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPhylopCommandSucceeds(t *testing.T) {
	ref, in, out := inputs(t)
	var stdout, stderr bytes.Buffer
	code := RunContext(context.Background(), []string{"phylop", "-r", ref, "-i", in, "-o", out, "--log-level", "error"}, &stdout, &stderr)
	require.Equal(t, exitcode.Success, code, stderr.String())
	require.FileExists(t, filepath.Join(out, "PhyloP_hg38.npd"))
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, exitcode.UsageError, RunContext(context.Background(), []string{"dbsnp"}, &stdout, &stderr))
	require.Equal(t, exitcode.Success, RunContext(context.Background(), nil, &stdout, &stderr))
	require.Contains(t, stdout.String(), "phylop")
}

func TestPhylopRejectsUnsortedScores(t *testing.T) {
	for name, tc := range map[string]struct{ body, line string }{
		"backwards": {"fixedStep chrom=chr1 start=100 step=1\n1\n2\nfixedStep chrom=chr1 start=10 step=1\n3\n", "line 5"},
		"split":     {"fixedStep chrom=chr1 start=1 step=1\n1\nfixedStep chrom=chr2 start=1 step=1\n2\nfixedStep chrom=chr1 start=9 step=1\n3\n", "line 6"},
	} {
		t.Run(name, func(t *testing.T) {
			ref, in, out := inputs(t)
			require.NoError(t, os.WriteFile(in, []byte(tc.body), 0o644))

			_, err := BuildPhylop(context.Background(), cli.PhylopOptions{Ref: ref, In: in, Out: out}, log.NewNopLogger())
			require.ErrorIs(t, err, wigfix.ErrUnsorted)

			var stdout, stderr bytes.Buffer
			code := RunContext(context.Background(), []string{"phylop", "-r", ref, "-i", in, "-o", out}, &stdout, &stderr)
			require.Equal(t, exitcode.InvalidInput, code)
			require.Contains(t, stderr.String(), tc.line)
		})
	}
}
