package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg          *prom.Registry
	stepDuration prom.Histogram
	stepOutcomes *prom.CounterVec
	buildResults *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stepDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mozmill",
			Name:      "step_duration_seconds",
			Help:      "Duration of mozmill step processes",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}),
		stepOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mozmill",
			Name:      "step_outcomes_total",
			Help:      "Step outcomes by result",
		}, []string{"outcome"}),
		buildResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mozmill",
			Name:      "builds_total",
			Help:      "Finished builds by final result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.stepDuration, pr.stepOutcomes, pr.buildResults)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(d time.Duration) {
	p.stepDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepOutcome(outcome string) {
	p.stepOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncBuildResult(result string) {
	p.buildResults.WithLabelValues(result).Inc()
}

// Handler serves the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
