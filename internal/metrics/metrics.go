package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	transitions     *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	grades          *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "live_session_transitions_total",
				Help: "Teacher actions on live sessions by outcome",
			},
			[]string{"action", "outcome"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "live_submissions_total",
				Help: "Student submissions by outcome",
			},
			[]string{"outcome"},
		),
		grades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "live_manual_grades_total",
				Help: "Manually graded short answer responses",
			},
			[]string{"result"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2},
			},
			[]string{"method", "endpoint"},
		),
	}
	m.registry.MustRegister(m.transitions, m.submissions, m.grades, m.requests, m.requestDuration)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Transition(action string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome(err)).Inc()
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Grade(isCorrect bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	if isCorrect {
		result = "correct"
	}
	m.grades.WithLabelValues(result).Inc()
}

func (m *Metrics) Request(method, endpoint, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, endpoint, status).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(seconds)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
