package runner

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/orchard/pkg/domain"
)

// Iteration outcomes used as the "outcome" label.
const (
	OutcomeOK    = "ok"
	OutcomeSoft  = "soft"
	OutcomeFatal = "fatal"
)

// Metrics holds the Prometheus collectors of a runner.
type Metrics struct {
	Iterations        *prometheus.CounterVec
	IterationDuration *prometheus.HistogramVec
	Runs              *prometheus.CounterVec
	Actions           *prometheus.CounterVec
	StateVisits       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_iterations_total",
				Help: "Total number of test iterations by outcome",
			},
			[]string{"test", "outcome"},
		),
		IterationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orchard_iteration_duration_seconds",
				Help:    "Duration of test iterations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"test"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_runs_total",
				Help: "Total number of finished runs by status",
			},
			[]string{"test", "status"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_actions_total",
				Help: "Total number of finished actions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		StateVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_state_visits_total",
				Help: "Total number of state entries",
			},
			[]string{"state_model", "state"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Iterations, m.IterationDuration, m.Runs, m.Actions, m.StateVisits)
	}
	return m
}

// Hooks returns lifecycle hooks that count actions and state visits, then call next.
func (m *Metrics) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionStarting: next.OnActionStarting,
		OnActionFinished: func(ctx context.Context, e *domain.ActionEvent) {
			outcome := "ok"
			switch {
			case e.Skipped:
				outcome = "skipped"
			case domain.IsSoft(e.Err):
				outcome = OutcomeSoft
			case e.Err != nil:
				outcome = "error"
			}
			m.Actions.WithLabelValues(string(e.Kind), outcome).Inc()
			if next.OnActionFinished != nil {
				next.OnActionFinished(ctx, e)
			}
		},
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			m.StateVisits.WithLabelValues(e.StateModel, e.State).Inc()
			if next.OnStateEnter != nil {
				next.OnStateEnter(ctx, e)
			}
		},
		OnStateLeave: next.OnStateLeave,
	}
}

func (m *Metrics) observeIteration(test, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Iterations.WithLabelValues(test, outcome).Inc()
	m.IterationDuration.WithLabelValues(test).Observe(d.Seconds())
}

func (m *Metrics) observeRun(test string, status domain.RunStatus) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(test, string(status)).Inc()
}
