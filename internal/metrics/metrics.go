// Package metrics registers the prometheus collectors the channel
// core reports, generalizing vms/avm/index/metrics.go's single
// numTxsIndexed histogram into the counter/gauge set a running
// channel operator exposes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector the channel core updates. Zero value
// is not usable; construct with New.
type Metrics struct {
	BundlesApplied     prometheus.Counter
	UTXOsCreated       prometheus.Counter
	UTXOsSpent         prometheus.Counter
	AuthFailuresByCode *prometheus.CounterVec
	ProviderAttestations prometheus.Counter
	Supply             prometheus.Gauge
}

// New constructs and registers the collector set under namespace.
func New(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		BundlesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundles_applied_total",
			Help:      "Number of bundles committed by BundleEngine.Process",
		}),
		UTXOsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utxos_created_total",
			Help:      "Number of UTXOs created across all committed bundles",
		}),
		UTXOsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utxos_spent_total",
			Help:      "Number of UTXOs spent across all committed bundles",
		}),
		AuthFailuresByCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Number of AuthEngine.Check failures, labeled by stable error code",
		}, []string{"code"}),
		ProviderAttestations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attestations_total",
			Help:      "Number of provider signatures accepted by AuthEngine.Check",
		}),
		Supply: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_supply",
			Help:      "Current in-channel liability, as tracked by Operator.Supply",
		}),
	}

	collectors := []prometheus.Collector{
		m.BundlesApplied, m.UTXOsCreated, m.UTXOsSpent,
		m.AuthFailuresByCode, m.ProviderAttestations, m.Supply,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
