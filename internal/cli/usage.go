package cli

import (
	"flag"
	"fmt"
	"io"

	"annostream/internal/version"
)

// installUsage sets a Usage handler that prints a banner, the tool-specific
// body and the miscellaneous block shared by every command.
func installUsage(fs *flag.FlagSet, name, summary string, body func(out io.Writer, def func(string) string)) {
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}

		fmt.Fprintf(out, "%s – %s\n\n", name, summary)
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)
		body(out, def)

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintf(out, "      --log-level string      Log level: debug | info | warn | error [%s]\n", def("log-level"))
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
}

// registerMisc wires the flags printed by the miscellaneous block.
func registerMisc(fs *flag.FlagSet, logLevel *string, ver, help *bool) {
	fs.StringVar(logLevel, "log-level", "info", "log level")
	fs.BoolVar(ver, "version", false, "print version and exit")
	fs.BoolVar(ver, "v", false, "alias of --version")
	fs.BoolVar(help, "help", false, "show help")
	fs.BoolVar(help, "h", false, "alias of --help")
}
