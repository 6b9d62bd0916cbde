package executive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vthunder/cube/internal/focus"
)

// Metrics exposes Prometheus collectors for the cube's control loop.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	modeTransitions *prometheus.CounterVec
	remindersFired  prometheus.Counter
	hardwareFaults  *prometheus.CounterVec
	taskFailures    *prometheus.CounterVec
	reg             prometheus.Registerer
}

// MustNewMetrics registers the collectors with reg (default registry when
// nil). Registration errors panic, the same as promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		modeTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cube",
				Subsystem: "executive",
				Name:      "mode_transitions_total",
				Help:      "Attention mode changes by target mode and reason.",
			},
			[]string{"mode", "reason"},
		),
		remindersFired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cube",
				Subsystem: "executive",
				Name:      "reminders_fired_total",
				Help:      "Reminders delivered by Tick.",
			},
		),
		hardwareFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cube",
				Subsystem: "executive",
				Name:      "hardware_faults_total",
				Help:      "Actuator commands that failed, by operation.",
			},
			[]string{"op"},
		),
		taskFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cube",
				Subsystem: "focus",
				Name:      "task_failures_total",
				Help:      "Queued tasks that returned an error or panicked, by priority.",
			},
			[]string{"priority"},
		),
		reg: reg,
	}
	reg.MustRegister(m.modeTransitions, m.remindersFired, m.hardwareFaults, m.taskFailures)
	return m
}

// WatchQueue exports the queue depth as a gauge
func (m *Metrics) WatchQueue(q *focus.Queue) {
	if m == nil || q == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "cube",
			Subsystem: "focus",
			Name:      "queue_depth",
			Help:      "Tasks waiting in the priority queue.",
		},
		func() float64 { return float64(q.Len()) },
	))
}

// ObserveTaskFailure is suitable as a focus.Worker error handler
func (m *Metrics) ObserveTaskFailure(err *focus.TaskExecutionError) {
	if m == nil || err == nil {
		return
	}
	m.taskFailures.WithLabelValues(err.Priority.String()).Inc()
}

func (m *Metrics) observeTransition(mode, reason string) {
	if m == nil {
		return
	}
	m.modeTransitions.WithLabelValues(mode, reason).Inc()
}

func (m *Metrics) observeReminders(n int) {
	if m == nil || n == 0 {
		return
	}
	m.remindersFired.Add(float64(n))
}

func (m *Metrics) observeFault(op string) {
	if m == nil {
		return
	}
	m.hardwareFaults.WithLabelValues(op).Inc()
}
