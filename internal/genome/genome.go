// Package genome holds the coordinate model shared by readers, writers and the
// index: chromosomes, genomic coordinates and the reference name table.
package genome

import (
	"fmt"
	"strings"
)

// UnknownAssembly is reported when a reference carries no assembly tag.
const UnknownAssembly = "Unknown"

// Chromosome identifies one reference sequence. Index is its position in the
// reference and defines sort order.
type Chromosome struct {
	UCSCName    string // "chr1"
	EnsemblName string // "1"
	Index       int
}

// Coordinate is a (chromosome index, position) pair. Positions are 1-based.
type Coordinate struct {
	Chromosome int
	Position   int
}

// Compare orders by chromosome index, then position.
func (c Coordinate) Compare(o Coordinate) int {
	switch {
	case c.Chromosome < o.Chromosome:
		return -1
	case c.Chromosome > o.Chromosome:
		return 1
	case c.Position < o.Position:
		return -1
	case c.Position > o.Position:
		return 1
	}
	return 0
}

func (c Coordinate) Less(o Coordinate) bool { return c.Compare(o) < 0 }

func (c Coordinate) String() string { return fmt.Sprintf("%d:%d", c.Chromosome, c.Position) }

// Reference maps sequence names (UCSC and Ensembl style) to chromosomes.
type Reference struct {
	Assembly    string
	Chromosomes []Chromosome
	byName      map[string]Chromosome
}

// NewReference builds a reference from sequence names in file order.
func NewReference(assembly string, names []string) *Reference {
	if assembly == "" {
		assembly = UnknownAssembly
	}
	r := &Reference{Assembly: assembly, byName: make(map[string]Chromosome, 2*len(names))}
	for i, n := range names {
		ch := Chromosome{UCSCName: ucscName(n), EnsemblName: ensemblName(n), Index: i}
		r.Chromosomes = append(r.Chromosomes, ch)
		r.byName[ch.UCSCName] = ch
		r.byName[ch.EnsemblName] = ch
		r.byName[n] = ch
	}
	return r
}

// Lookup resolves a sequence name in either naming convention.
func (r *Reference) Lookup(name string) (Chromosome, bool) {
	ch, ok := r.byName[name]
	if ok {
		return ch, true
	}
	ch, ok = r.byName[ensemblName(name)]
	return ch, ok
}

// ByIndex returns the chromosome at index i.
func (r *Reference) ByIndex(i int) (Chromosome, bool) {
	if i < 0 || i >= len(r.Chromosomes) {
		return Chromosome{}, false
	}
	return r.Chromosomes[i], true
}

func ensemblName(n string) string {
	s := strings.TrimPrefix(n, "chr")
	if s == "M" {
		return "MT"
	}
	return s
}

func ucscName(n string) string {
	if strings.HasPrefix(n, "chr") {
		return n
	}
	if n == "MT" {
		return "chrM"
	}
	return "chr" + n
}
