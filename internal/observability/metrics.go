// Package observability exposes engine lifecycle events as prometheus
// metrics. Metrics attach to the executor through domain.Hooks, so the
// engine core stays free of any metrics dependency.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tideloom/tideloom/pkg/domain"
)

// Metrics holds the engine collectors.
type Metrics struct {
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	tasksActive  prometheus.Gauge
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tideloom",
			Name:      "tasks_total",
			Help:      "Tasks executed, by kind and outcome.",
		}, []string{"kind", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tideloom",
			Name:      "task_duration_seconds",
			Help:      "Task execution latency, by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		tasksActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tideloom",
			Name:      "tasks_inflight",
			Help:      "Tasks currently executing.",
		}),
	}
	reg.MustRegister(m.tasksTotal, m.taskDuration, m.tasksActive)
	return m
}

// Hooks adapts the collectors to the executor's lifecycle callbacks.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnTaskStart: func(ctx context.Context, ev *domain.TaskEvent) {
			m.tasksActive.Inc()
		},
		OnTaskEnd: func(ctx context.Context, ev *domain.TaskEvent) {
			m.tasksActive.Dec()
			m.tasksTotal.WithLabelValues(string(ev.Kind), "ok").Inc()
			m.taskDuration.WithLabelValues(string(ev.Kind)).Observe(ev.Duration.Seconds())
		},
		OnTaskError: func(ctx context.Context, ev *domain.TaskEvent) {
			m.tasksActive.Dec()
			m.tasksTotal.WithLabelValues(string(ev.Kind), "error").Inc()
			m.taskDuration.WithLabelValues(string(ev.Kind)).Observe(ev.Duration.Seconds())
		},
	}
}
