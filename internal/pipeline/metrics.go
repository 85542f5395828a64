package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the driver's progress counters.
type Metrics struct {
	Positions   prometheus.Counter
	Annotated   prometheus.Counter
	MirrorLines *prometheus.CounterVec
	Chromosomes prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	positions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annostream_positions_total",
		Help: "Total input positions processed",
	})

	annotated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annostream_annotated_positions_total",
		Help: "Total positions written as indexed entries",
	})

	mirrorLines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annostream_mirror_lines_total",
		Help: "Total lines written to pass-through mirrors",
	}, []string{"mirror"})

	chromosomes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annostream_chromosomes_total",
		Help: "Total chromosomes preloaded",
	})

	reg.MustRegister(positions, annotated, mirrorLines, chromosomes)

	return &Metrics{
		Positions:   positions,
		Annotated:   annotated,
		MirrorLines: mirrorLines,
		Chromosomes: chromosomes,
	}
}
