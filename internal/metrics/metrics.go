// Package metrics exports the outcome of a run in the Prometheus text
// format so a node_exporter textfile collector can pick it up.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "takedown"

// Run is the outcome of one pipeline run.
type Run struct {
	Records    int
	Domains    int
	Resolved   int
	Unresolved int
	Duration   time.Duration
}

// Registry builds a registry holding one gauge per Run field.
func Registry(r Run) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, v float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		g.Set(v)
		reg.MustRegister(g)
	}

	gauge("records_total", "Number of flattened infringing records.", float64(r.Records))
	gauge("domains_total", "Number of distinct infringing domains.", float64(r.Domains))
	gauge("domains_resolved", "Number of domains that resolved to an address.", float64(r.Resolved))
	gauge("domains_unresolved", "Number of domains that failed to resolve.", float64(r.Unresolved))
	gauge("run_duration_seconds", "Wall-clock duration of the run.", r.Duration.Seconds())

	return reg
}

// WriteTextfile atomically writes the run gauges to path.
func WriteTextfile(path string, r Run) error {
	if err := prometheus.WriteToTextfile(path, Registry(r)); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
