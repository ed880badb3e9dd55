// Package metrics exposes Prometheus collectors for the setup service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsStarted counts setup runs started.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "setup_runs_started_total",
		Help: "Number of setup runs started.",
	})

	// RunsCompleted counts setup runs that reached the complete event.
	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "setup_runs_completed_total",
		Help: "Number of setup runs completed successfully.",
	})

	// RunsFailed counts failed setup runs by failing step id.
	RunsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "setup_runs_failed_total",
		Help: "Number of failed setup runs, labeled by the failing step.",
	}, []string{"step"})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
