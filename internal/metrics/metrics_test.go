package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRecordOutcomes(t *testing.T) {
	m := New()
	m.Transition("start", nil)
	m.Transition("next", errors.New("boom"))
	m.Submission("submitted")
	m.Submission("submitted")
	m.Grade(true)

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("start", "ok")); got != 1 {
		t.Fatalf("expected 1 ok start, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("next", "error")); got != 1 {
		t.Fatalf("expected 1 failed next, got %v", got)
	}
	if got := testutil.ToFloat64(m.submissions.WithLabelValues("submitted")); got != 2 {
		t.Fatalf("expected 2 submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.grades.WithLabelValues("correct")); got != 1 {
		t.Fatalf("expected 1 correct grade, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Transition("start", nil)
	m.Submission("submitted")
	m.Grade(false)
	m.Request("GET", "/healthz", "200", 0.01)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.Submission("already_submitted")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `live_submissions_total{outcome="already_submitted"} 1`) {
		t.Fatalf("expected submission counter in output, got:\n%s", rec.Body.String())
	}
}
