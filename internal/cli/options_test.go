// internal/cli/options_test.go
package cli

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"annostream/internal/exitcode"
)

type fixture struct {
	dir, vcf, ref, store, wig string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:   dir,
		vcf:   filepath.Join(dir, "in.vcf"),
		ref:   filepath.Join(dir, "ref.fa"),
		store: filepath.Join(dir, "PhyloP_hg38.npd"),
		wig:   filepath.Join(dir, "hg38.phyloP100way.wigFix.gz"),
	}
	for _, p := range []string{f.vcf, f.ref, f.store, f.store + ".idx", f.wig, f.wig + ".version"} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return f
}

// requireFlagError checks that err names flag and maps to code.
func requireFlagError(t *testing.T, err error, flagName string, code int) {
	t.Helper()
	var ie *InputError
	require.True(t, errors.As(err, &ie), "got %v", err)
	require.Equal(t, flagName, ie.Flag)
	require.Contains(t, err.Error(), "--"+flagName)
	require.Equal(t, code, exitcode.FromError(err))
}

func TestAnnotateOptionsOK(t *testing.T) {
	f := newFixture(t)
	o, err := ParseArgs(NewAnnotateFlagSet("annostream"), []string{
		"-i", f.vcf, "--ref", f.ref, "--sa", f.store, "-o", filepath.Join(f.dir, "out"), "--vcf",
	})
	require.NoError(t, err)
	require.Equal(t, f.vcf, o.In)
	require.True(t, o.VCF)
	require.False(t, o.Plain)
	require.Equal(t, "info", o.LogLevel)
}

func TestAnnotateStdoutImpliesPlain(t *testing.T) {
	f := newFixture(t)
	o, err := ParseArgs(NewAnnotateFlagSet("annostream"), []string{"--in", "-", "--ref", f.ref, "--out", "-"})
	require.NoError(t, err)
	require.True(t, o.Plain)

	_, err = ParseArgs(NewAnnotateFlagSet("annostream"), []string{"--in", f.vcf, "--ref", f.ref, "--out", "-", "--gvcf"})
	requireFlagError(t, err, "out", exitcode.UsageError)
}

func TestAnnotateOptionErrors(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "out")
	cases := []struct {
		name string
		args []string
		flag string
		code int
	}{
		{"missing in", []string{"--ref", f.ref, "--out", out}, "in", exitcode.UsageError},
		{"absent in", []string{"--in", f.vcf + ".nope", "--ref", f.ref, "--out", out}, "in", exitcode.FileNotFound},
		{"missing ref", []string{"--in", f.vcf, "--out", out}, "ref", exitcode.UsageError},
		{"store without index", []string{"--in", f.vcf, "--ref", f.ref, "--sa", f.vcf, "--out", out}, "sa", exitcode.FileNotFound},
		{"missing out", []string{"--in", f.vcf, "--ref", f.ref}, "out", exitcode.UsageError},
		{"out dir absent", []string{"--in", f.vcf, "--ref", f.ref, "--out", filepath.Join(f.dir, "nope", "out")}, "out", exitcode.FileNotFound},
		{"bad level", []string{"--in", f.vcf, "--ref", f.ref, "--out", out, "--log-level", "loud"}, "log-level", exitcode.UsageError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseArgs(NewAnnotateFlagSet("annostream"), tc.args)
			requireFlagError(t, err, tc.flag, tc.code)
		})
	}
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	require.Len(t, entries, 6, "validation must not create files")
}

func TestHelpAndVersion(t *testing.T) {
	_, err := ParseArgs(NewAnnotateFlagSet("annostream"), []string{"-h"})
	require.ErrorIs(t, err, flag.ErrHelp)

	o, err := ParseArgs(NewAnnotateFlagSet("annostream"), []string{"--version"})
	require.NoError(t, err)
	require.True(t, o.Version)
}

func TestPhylopOptions(t *testing.T) {
	f := newFixture(t)
	o, err := ParsePhylopArgs(NewPhylopFlagSet("phylop"), []string{"-r", f.ref, "-i", f.wig, "-o", f.dir})
	require.NoError(t, err)
	require.Equal(t, f.wig, o.In)

	cases := []struct {
		args []string
		flag string
		code int
	}{
		{[]string{"-i", f.wig, "-o", f.dir}, "ref", exitcode.UsageError},
		{[]string{"-r", f.ref + ".missing", "-i", f.wig, "-o", f.dir}, "ref", exitcode.FileNotFound},
		{[]string{"-r", f.ref, "-o", f.dir}, "in", exitcode.UsageError},
		{[]string{"-r", f.ref, "-i", f.vcf, "-o", f.dir}, "in", exitcode.FileNotFound}, // no .version sidecar
		{[]string{"-r", f.ref, "-i", f.wig}, "out", exitcode.UsageError},
		{[]string{"-r", f.ref, "-i", f.wig, "-o", f.ref}, "out", exitcode.UsageError},
		{[]string{"-r", f.ref, "-i", f.wig, "-o", filepath.Join(f.dir, "absent")}, "out", exitcode.FileNotFound},
	}
	for _, tc := range cases {
		_, err := ParsePhylopArgs(NewPhylopFlagSet("phylop"), tc.args)
		requireFlagError(t, err, tc.flag, tc.code)
	}
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("chr1:1,000-2,000")
	require.NoError(t, err)
	require.Equal(t, Region{Chromosome: "chr1", Start: 1000, End: 2000}, r)

	r, err = ParseRegion("2:500")
	require.NoError(t, err)
	require.Equal(t, Region{Chromosome: "2", Start: 500, End: 500}, r)

	r, err = ParseRegion("X")
	require.NoError(t, err)
	require.Equal(t, Region{Chromosome: "X", Start: 1}, r)

	for _, bad := range []string{"", ":5", "1:x", "1:10-5", "1:0"} {
		_, err := ParseRegion(bad)
		require.Error(t, err, bad)
	}
}

func TestJasixOptions(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "out.json.gz")
	require.NoError(t, os.WriteFile(doc, nil, 0o644))

	_, err := ParseJasixArgs(NewJasixFlagSet("jasix"), []string{"--in", doc, "--header"})
	requireFlagError(t, err, "in", exitcode.FileNotFound)

	require.NoError(t, os.WriteFile(doc+JSONIndexSuffix, nil, 0o644))
	o, err := ParseJasixArgs(NewJasixFlagSet("jasix"), []string{"--in", doc, "-q", "1:5-10", "-q", "2"})
	require.NoError(t, err)
	require.Len(t, o.Queries, 2)

	_, err = ParseJasixArgs(NewJasixFlagSet("jasix"), []string{"--in", doc})
	requireFlagError(t, err, "query", exitcode.UsageError)
	_, err = ParseJasixArgs(NewJasixFlagSet("jasix"), []string{"--in", doc, "-q", "1:x"})
	requireFlagError(t, err, "query", exitcode.UsageError)
}
