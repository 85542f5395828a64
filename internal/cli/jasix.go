package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// JSONIndexSuffix mirrors writers.JSONIndexSuffix; cli does not import writers.
const JSONIndexSuffix = ".jsi"

// Region is a closed, 1-based query interval. End 0 means to the end of the
// chromosome.
type Region struct {
	Chromosome string
	Start      int
	End        int
}

func (r Region) String() string {
	if r.End == 0 {
		return fmt.Sprintf("%s:%d-", r.Chromosome, r.Start)
	}
	return fmt.Sprintf("%s:%d-%d", r.Chromosome, r.Start, r.End)
}

// ParseRegion accepts "chr", "chr:pos" and "chr:start-end".
func ParseRegion(s string) (Region, error) {
	name, span, hasSpan := strings.Cut(s, ":")
	if name == "" {
		return Region{}, fmt.Errorf("region %q has no chromosome", s)
	}
	r := Region{Chromosome: name, Start: 1}
	if !hasSpan {
		return r, nil
	}
	from, to, isRange := strings.Cut(strings.ReplaceAll(span, ",", ""), "-")
	start, err := strconv.Atoi(from)
	if err != nil || start < 1 {
		return Region{}, fmt.Errorf("region %q: bad start %q", s, from)
	}
	r.Start, r.End = start, start
	if isRange {
		end, err := strconv.Atoi(to)
		if err != nil || end < start {
			return Region{}, fmt.Errorf("region %q: bad end %q", s, to)
		}
		r.End = end
	}
	return r, nil
}

// JasixOptions holds the jasix command line.
type JasixOptions struct {
	In          string
	Header      bool
	Chromosomes bool
	Queries     []Region
	LogLevel    string
	Version     bool
}

func NewJasixFlagSet(name string) *flag.FlagSet {
	fs := NewFlagSet(name)
	installUsage(fs, name, "query an indexed annotation document", func(out io.Writer, def func(string) string) {
		fmt.Fprintf(out, "Usage:\n  %s --in out.json.gz [--header] [--query chr1:100-200 ...]\n", name)
		fmt.Fprintln(out, "\nOptions:")
		fmt.Fprintf(out, "  -i, --in file               Compressed JSON document (index at <in>%s) [*]\n", JSONIndexSuffix)
		fmt.Fprintf(out, "      --header                Print the header pretty-printed [%s]\n", def("header"))
		fmt.Fprintf(out, "  -l, --list                  List chromosomes present in the index [%s]\n", def("list"))
		fmt.Fprintln(out, "  -q, --query region          chr, chr:pos or chr:start-end (repeatable)")
	})
	return fs
}

func ParseJasixArgs(fs *flag.FlagSet, argv []string) (JasixOptions, error) {
	var opt JasixOptions
	var help bool
	var queries sliceValue

	fs.StringVar(&opt.In, "in", "", "compressed JSON document")
	fs.StringVar(&opt.In, "i", "", "alias of --in")
	fs.BoolVar(&opt.Header, "header", false, "print header")
	fs.BoolVar(&opt.Chromosomes, "list", false, "list chromosomes")
	fs.BoolVar(&opt.Chromosomes, "l", false, "alias of --list")
	fs.Var(&queries, "query", "region query (repeatable)")
	fs.Var(&queries, "q", "alias of --query")
	registerMisc(fs, &opt.LogLevel, &opt.Version, &help)

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	if err := fileExists("in", opt.In, "JSON document", false); err != nil {
		return opt, err
	}
	if err := fileExists("in", opt.In+JSONIndexSuffix, "JSON index", false); err != nil {
		return opt, err
	}
	for _, q := range queries {
		r, err := ParseRegion(q)
		if err != nil {
			return opt, &InputError{Flag: "query", Msg: err.Error()}
		}
		opt.Queries = append(opt.Queries, r)
	}
	if !opt.Header && !opt.Chromosomes && len(opt.Queries) == 0 {
		return opt, &InputError{Flag: "query", Msg: "nothing to do: give --header, --list or --query"}
	}
	return opt, nil
}

// sliceValue allows repeatable string flags.
type sliceValue []string

func (s *sliceValue) String() string     { return strings.Join(*s, ",") }
func (s *sliceValue) Set(v string) error { *s = append(*s, v); return nil }
