package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus creates the registry used by the metrics HTTP server,
// with the standard process/go collectors plus any additional ones.
func SetupPrometheus(additionalCollectors ...prometheus.Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	for _, c := range additionalCollectors {
		registry.MustRegister(c)
	}
	return registry
}
