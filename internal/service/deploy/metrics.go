package deploy

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
)

var (
	metricsOnce   sync.Once
	outcomeTotal  *prometheus.CounterVec
	pollExhausted prometheus.Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		outcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nextgenweb",
			Subsystem: "deploy",
			Name:      "outcomes_total",
			Help:      "Deployments by terminal outcome",
		}, []string{"status"})
		if err := prometheus.Register(outcomeTotal); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				outcomeTotal = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}

		pollExhausted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nextgenweb",
			Subsystem: "deploy",
			Name:      "poll_exhausted_total",
			Help:      "Poll loops that ran out of attempts before a terminal state",
		})
		if err := prometheus.Register(pollExhausted); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				pollExhausted = are.ExistingCollector.(prometheus.Counter)
			}
		}
	})
}

func recordOutcome(status domain.DeploymentStatus) {
	initMetrics()
	outcomeTotal.WithLabelValues(string(status)).Inc()
}

func recordPollExhausted() {
	initMetrics()
	pollExhausted.Inc()
}
