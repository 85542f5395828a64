// Package datasource describes the provenance of annotation data sources.
package datasource

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// VersionSuffix names the sidecar next to a source file: genome.wigFix.gz.version.
const VersionSuffix = ".version"

// Version identifies one release of a data source. It is carried in output
// headers and in positional store headers.
type Version struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	ReleaseDate string `json:"releaseDate"`
}

func (v Version) String() string { return v.Name + "_" + v.Version }

// ReadVersion parses a KEY=VALUE sidecar (NAME, VERSION, DATE, DESCRIPTION).
// NAME and VERSION are required.
func ReadVersion(path string) (Version, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Version{}, err
	}
	defer fh.Close()

	var v Version
	sc := bufio.NewScanner(fh)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, val, ok := strings.Cut(text, "=")
		if !ok {
			return Version{}, fmt.Errorf("%s:%d: expected KEY=VALUE, got %q", path, line, text)
		}
		val = strings.TrimSpace(val)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "NAME":
			v.Name = val
		case "VERSION":
			v.Version = val
		case "DATE":
			v.ReleaseDate = val
		case "DESCRIPTION":
			v.Description = val
		}
	}
	if err := sc.Err(); err != nil {
		return Version{}, fmt.Errorf("%s: %w", path, err)
	}
	if v.Name == "" || v.Version == "" {
		return Version{}, errors.New(path + ": NAME and VERSION are required")
	}
	return v, nil
}
