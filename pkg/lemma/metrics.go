package lemma

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts resolutions per language and rule. A nil *Metrics records
// nothing.
type Metrics struct {
	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when it is not
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lemmata_resolutions_total",
				Help: "Tokens lemmatized, by language and deciding rule.",
			},
			[]string{"language", "source"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lemmata_transducer_failures_total",
				Help: "Analyzer errors and panics swallowed during lemmatization.",
			},
			[]string{"language"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.resolutions, m.failures)
	}
	return m
}

func (m *Metrics) observe(lang string, src Source) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(lang, src.String()).Inc()
}

func (m *Metrics) failure(lang string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(lang).Inc()
}
