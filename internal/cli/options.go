// internal/cli/options.go
package cli

import (
	"flag"
	"fmt"
	"io"

	"annostream/internal/logging"
	"annostream/internal/positional"
)

// StdoutTarget as --out writes a plain document to standard output.
const StdoutTarget = "-"

// Options holds the annostream command line.
type Options struct {
	// Input
	In  string // VCF, "-" for stdin
	Ref string // reference FASTA
	SA  string // optional positional store (.npd)

	// Output
	Out   string // prefix: <out>.json.gz + <out>.json.gz.jsi, or "-"
	VCF   bool
	GVCF  bool
	Plain bool

	LogLevel string
	Version  bool
}

// NewAnnotateFlagSet returns a FlagSet with the annostream usage text.
func NewAnnotateFlagSet(name string) *flag.FlagSet {
	fs := NewFlagSet(name)
	installUsage(fs, name, "indexed variant annotation", func(out io.Writer, def func(string) string) {
		fmt.Fprintf(out, "Usage:\n  %s --in input.vcf.gz --ref genome.fa --out prefix [options]\n", name)
		fmt.Fprintln(out, "\nInput:")
		fmt.Fprintln(out, "  -i, --in file               Input VCF (.gz ok) or '-' for STDIN [*]")
		fmt.Fprintln(out, "  -r, --ref file              Reference FASTA (.fai used when present) [*]")
		fmt.Fprintln(out, "      --sa file               PhyloP positional store (.npd)")
		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintln(out, "  -o, --out prefix            Output prefix, or '-' for plain JSON on STDOUT [*]")
		fmt.Fprintf(out, "      --plain                 Write uncompressed JSON without an index [%s]\n", def("plain"))
		fmt.Fprintf(out, "      --vcf                   Also write an annotated VCF [%s]\n", def("vcf"))
		fmt.Fprintf(out, "      --gvcf                  Also write an annotated gVCF [%s]\n", def("gvcf"))
	})
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
// Validation touches the filesystem read-only; nothing is created.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.In, "in", "", "input VCF")
	fs.StringVar(&opt.In, "i", "", "alias of --in")
	fs.StringVar(&opt.Ref, "ref", "", "reference FASTA")
	fs.StringVar(&opt.Ref, "r", "", "alias of --ref")
	fs.StringVar(&opt.SA, "sa", "", "positional store")
	fs.StringVar(&opt.Out, "out", "", "output prefix")
	fs.StringVar(&opt.Out, "o", "", "alias of --out")
	fs.BoolVar(&opt.Plain, "plain", false, "uncompressed output")
	fs.BoolVar(&opt.VCF, "vcf", false, "write VCF mirror")
	fs.BoolVar(&opt.GVCF, "gvcf", false, "write gVCF mirror")
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
	if fs.NArg() > 0 {
		return opt, &InputError{Flag: "in", Msg: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}
	return opt, opt.validate()
}

func (o *Options) validate() error {
	if err := fileExists("in", o.In, "input VCF", true); err != nil {
		return err
	}
	if err := fileExists("ref", o.Ref, "reference FASTA", false); err != nil {
		return err
	}
	if o.SA != "" {
		if err := fileExists("sa", o.SA, "positional store", false); err != nil {
			return err
		}
		if err := fileExists("sa", o.SA+positional.IndexSuffix, "positional store index", false); err != nil {
			return err
		}
	}
	if o.Out == StdoutTarget {
		if o.VCF || o.GVCF {
			return &InputError{Flag: "out", Msg: "--vcf and --gvcf need a file prefix, not STDOUT"}
		}
		o.Plain = true
	} else if err := parentExists("out", o.Out, "output prefix"); err != nil {
		return err
	}
	if !logging.ValidLevel(o.LogLevel) {
		return &InputError{Flag: "log-level", Msg: fmt.Sprintf("unknown level %q", o.LogLevel)}
	}
	return nil
}
