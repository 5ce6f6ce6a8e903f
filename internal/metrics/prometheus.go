package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "hoist"

// Records observations as Prometheus metrics.
type Prometheus struct {
	registry      *prom.Registry
	phaseDuration *prom.HistogramVec
	phaseResults  *prom.CounterVec
	operations    *prom.CounterVec
}

// Creates a recorder with its own registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prom.NewRegistry(),
		phaseDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of pipeline phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"}),
		phaseResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "phase_results_total",
			Help:      "Phase results by outcome",
		}, []string{"phase", "result"}),
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Provider operations by success/failure",
		}, []string{"operation", "result"}),
	}
	p.registry.MustRegister(p.phaseDuration, p.phaseResults, p.operations)
	return p
}

// Returns the registry holding the recorder's metrics.
func (p *Prometheus) Registry() *prom.Registry {
	return p.registry
}

func (p *Prometheus) ObservePhaseDuration(phase string, d time.Duration) {
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *Prometheus) IncPhaseResult(phase string, result Result) {
	p.phaseResults.WithLabelValues(phase, string(result)).Inc()
}

func (p *Prometheus) IncOperation(op string, success bool) {
	res := "failed"
	if success {
		res = "success"
	}
	p.operations.WithLabelValues(op, res).Inc()
}

// Writes all metrics to path in the text exposition format.
//
// The file is replaced atomically; its directory is created if missing.
func (p *Prometheus) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
