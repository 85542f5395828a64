package cli

import (
	"flag"
	"fmt"
	"io"

	"annostream/internal/datasource"
	"annostream/internal/logging"
)

// PhylopOptions holds the "sautils phylop" command line.
type PhylopOptions struct {
	Ref      string
	In       string
	Out      string
	LogLevel string
	Version  bool
}

func NewPhylopFlagSet(name string) *flag.FlagSet {
	fs := NewFlagSet(name)
	installUsage(fs, name, "build a PhyloP positional store", func(out io.Writer, _ func(string) string) {
		fmt.Fprintf(out, "Usage:\n  %s --ref genome.fa --in phylop.wigFix.gz --out dir\n", name)
		fmt.Fprintln(out, "\nRequired:")
		fmt.Fprintln(out, "  -r, --ref file              Reference FASTA [*]")
		fmt.Fprintln(out, "  -i, --in file               PhyloP wigFix (.gz ok) with a .version sidecar [*]")
		fmt.Fprintln(out, "  -o, --out dir               Output directory [*]")
	})
	return fs
}

// ParsePhylopArgs parses and validates. Every path is checked before the
// caller creates any output.
func ParsePhylopArgs(fs *flag.FlagSet, argv []string) (PhylopOptions, error) {
	var opt PhylopOptions
	var help bool

	fs.StringVar(&opt.Ref, "ref", "", "reference FASTA")
	fs.StringVar(&opt.Ref, "r", "", "alias of --ref")
	fs.StringVar(&opt.In, "in", "", "PhyloP wigFix")
	fs.StringVar(&opt.In, "i", "", "alias of --in")
	fs.StringVar(&opt.Out, "out", "", "output directory")
	fs.StringVar(&opt.Out, "o", "", "alias of --out")
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

	if err := fileExists("ref", opt.Ref, "reference FASTA", false); err != nil {
		return opt, err
	}
	if err := fileExists("in", opt.In, "PhyloP wigFix file", false); err != nil {
		return opt, err
	}
	if err := fileExists("in", opt.In+datasource.VersionSuffix, "PhyloP version file", false); err != nil {
		return opt, err
	}
	if err := dirExists("out", opt.Out, "output directory"); err != nil {
		return opt, err
	}
	if !logging.ValidLevel(opt.LogLevel) {
		return opt, &InputError{Flag: "log-level", Msg: fmt.Sprintf("unknown level %q", opt.LogLevel)}
	}
	return opt, nil
}
