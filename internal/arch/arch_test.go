// ./internal/arch/arch_test.go
package arch

import (
	"bytes"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"testing"
)

const module = "annostream/"

type pkg struct {
	ImportPath string
	Imports    []string
	Standard   bool
}

// matches treats a trailing slash as a prefix and anything else as an exact
// package path, so "internal/app" does not catch "internal/appshell".
func matches(dep, ban string) bool {
	if strings.HasSuffix(ban, "/") {
		return strings.HasPrefix(dep, ban)
	}
	return dep == ban
}

func TestImportBoundaries(t *testing.T) {
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Dir = "../.."
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("go list: %v", err)
	}
	dec := json.NewDecoder(&out)

	apps := []string{
		"annostream/internal/cli", "annostream/internal/app",
		"annostream/internal/saapp", "annostream/internal/jasixapp", "annostream/cmd/",
	}
	with := func(extra ...string) []string { return append(append([]string{}, apps...), extra...) }

	bans := map[string][]string{
		"annostream/internal/bgzf": with(
			"annostream/internal/vindex", "annostream/internal/writers",
			"annostream/internal/positional", "annostream/internal/pipeline",
		),
		"annostream/internal/vindex": with(
			"annostream/internal/writers", "annostream/internal/positional", "annostream/internal/pipeline",
		),
		"annostream/internal/positional": with(
			"annostream/internal/writers", "annostream/internal/pipeline",
		),
		"annostream/internal/writers": with(
			"annostream/internal/pipeline", "annostream/internal/vcf", "annostream/internal/conservation",
		),
		"annostream/internal/pipeline": with(
			"annostream/internal/vcf", "annostream/internal/conservation", "annostream/internal/fasta",
		),
		"annostream/internal/vcf":          with(),
		"annostream/internal/conservation": with("annostream/internal/vcf"),
		"annostream/internal/wigfix":       with("annostream/internal/writers", "annostream/internal/pipeline"),
		"annostream/internal/fasta":        with("annostream/internal/writers", "annostream/internal/pipeline"),
	}

	var violations []string
	seen := 0
	for {
		var p pkg
		if err := dec.Decode(&p); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.HasPrefix(p.ImportPath, module) {
			continue
		}
		seen++
		forbidden, ok := bans[p.ImportPath]
		if !ok {
			continue
		}
		for _, dep := range p.Imports {
			if !strings.HasPrefix(dep, module) {
				continue
			}
			for _, ban := range forbidden {
				if matches(dep, ban) {
					violations = append(violations, p.ImportPath+" → "+dep)
				}
			}
		}
	}

	if seen < len(bans) {
		t.Fatalf("go list saw %d module packages, expected at least %d", seen, len(bans))
	}
	if len(violations) > 0 {
		t.Fatalf("import boundary violations:\n  %s", strings.Join(violations, "\n  "))
	}
}
