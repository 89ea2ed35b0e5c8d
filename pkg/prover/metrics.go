// Copyright 2025 Certen Protocol

package prover

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus instrumentation the prover exposes for
// its own operations. Each Prover owns its own registry rather than
// registering into the global default, so multiple Provers (e.g. one
// per backend) can coexist in the same process.
type metrics struct {
	registry *prometheus.Registry

	proveLatency     *prometheus.HistogramVec
	proveFailures    *prometheus.CounterVec
	certCacheQueries prometheus.Counter
	certCacheHits    prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()

	m := &metrics{
		registry: registry,
		proveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nitro_prover",
			Name:      "gen_proof_seconds",
			Help:      "Wall-clock time spent generating a proof, by shape.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"shape"}),
		proveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nitro_prover",
			Name:      "gen_proof_failures_total",
			Help:      "Number of GenProof calls that returned an error, by shape.",
		}, []string{"shape"}),
		certCacheQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nitro_prover",
			Name:      "cert_cache_queries_total",
			Help:      "Number of batched cert-cache lookups sent to the contract.",
		}),
		certCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nitro_prover",
			Name:      "cert_cache_hits_total",
			Help:      "Number of report certificate chains for which a non-zero trusted prefix came back.",
		}),
	}

	registry.MustRegister(m.proveLatency, m.proveFailures, m.certCacheQueries, m.certCacheHits)
	return m
}

// Registry exposes the prover's Prometheus registry so callers can wire
// it into their own /metrics handler.
func (p *Prover) Registry() *prometheus.Registry {
	return p.metrics.registry
}
