// Package conservation annotates positions with PhyloP conservation scores
// looked up in a positional store.
package conservation

import (
	"context"
	"fmt"
	"strings"

	"annostream/internal/datasource"
	"annostream/internal/genome"
	"annostream/internal/jsonutil"
	"annostream/internal/pipeline"
	"annostream/internal/positional"
	"annostream/internal/wigfix"
)

// InfoKey is the INFO field added to converted VCF lines.
const InfoKey = "phyloP"

const infoColumn = 7

// ScoreStore is the lookup side of a positional store.
type ScoreStore interface {
	HasChromosome(ch int) bool
	Get(c genome.Coordinate) ([]byte, bool, error)
}

var _ ScoreStore = (*positional.Store)(nil)

// Annotator implements pipeline.Annotator. A nil store yields positions with
// no score.
type Annotator struct {
	store   ScoreStore
	sources []datasource.Version
	loaded  bool
}

var _ pipeline.Annotator = (*Annotator)(nil)

func New(store ScoreStore, sources ...datasource.Version) *Annotator {
	return &Annotator{store: store, sources: sources}
}

// DataSources lists the versions of the stores consulted, for the header.
func (a *Annotator) DataSources() []datasource.Version { return a.sources }

// Preload checks whether the store has any score on ch so that chromosomes
// without data skip the per-position lookup.
func (a *Annotator) Preload(_ context.Context, ch genome.Chromosome) error {
	a.loaded = a.store != nil && a.store.HasChromosome(ch.Index)
	return nil
}

type entry struct {
	Chromosome  string   `json:"chromosome"`
	Position    int      `json:"position"`
	RefAllele   string   `json:"refAllele"`
	AltAlleles  []string `json:"altAlleles"`
	PhylopScore *float32 `json:"phylopScore,omitempty"`
}

func (a *Annotator) Annotate(p *pipeline.Position) (pipeline.AnnotatedPosition, error) {
	var score *float32
	if a.loaded {
		raw, ok, err := a.store.Get(p.Coordinate())
		if err != nil {
			return nil, err
		}
		if ok {
			f, err := wigfix.DecodeScore(raw)
			if err != nil {
				return nil, err
			}
			score = &f
		}
	}

	js, err := jsonutil.Marshal(entry{
		Chromosome:  p.Chromosome.EnsemblName,
		Position:    p.Start,
		RefAllele:   p.RefAllele,
		AltAlleles:  p.AltAlleles,
		PhylopScore: score,
	})
	if err != nil {
		return nil, err
	}
	return &annotated{json: string(js), pos: p, score: score}, nil
}

// GeneAnnotations is always nil: conservation scores carry no gene records.
func (a *Annotator) GeneAnnotations() []string { return nil }

type annotated struct {
	json  string
	pos   *pipeline.Position
	score *float32
}

func (a *annotated) JSON() string { return a.json }

// VCFLine is the input record with the score appended to INFO.
func (a *annotated) VCFLine() string {
	if a.score == nil || len(a.pos.Fields) <= infoColumn {
		return strings.Join(a.pos.Fields, "\t")
	}
	f := append([]string(nil), a.pos.Fields...)
	kv := fmt.Sprintf("%s=%g", InfoKey, *a.score)
	if f[infoColumn] == "." || f[infoColumn] == "" {
		f[infoColumn] = kv
	} else {
		f[infoColumn] += ";" + kv
	}
	return strings.Join(f, "\t")
}
