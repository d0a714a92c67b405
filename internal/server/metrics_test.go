package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agbru/cpuwatch/internal/logging"
	"github.com/agbru/cpuwatch/internal/metrics"
)

func exposition(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.WritePrometheus(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	return rec.Body.String()
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		method   string
		status   int
		wantLine string
	}{
		{"teapot", http.MethodGet, http.StatusTeapot, `cpuwatch_requests_total{code="418",method="GET"} 1`},
		{"ok", http.MethodGet, http.StatusOK, `cpuwatch_requests_total{code="200",method="GET"} 1`},
		{"implicit ok", http.MethodHead, 0, `cpuwatch_requests_total{code="200",method="HEAD"} 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Server{metrics: metrics.New()}
			called := false
			h := s.metricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
			})
			h(httptest.NewRecorder(), httptest.NewRequest(tt.method, "/api/cpus/json", http.NoBody))

			if !called {
				t.Fatal("next handler was not called")
			}
			body := exposition(t, s.metrics)
			if !strings.Contains(body, tt.wantLine) {
				t.Errorf("missing %q in exposition:\n%s", tt.wantLine, body)
			}
			if !strings.Contains(body, "cpuwatch_active_requests 0") {
				t.Error("in-flight gauge should be back to 0")
			}
		})
	}
}

func TestHandleMetrics(t *testing.T) {
	t.Parallel()
	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodPost, http.StatusMethodNotAllowed},
		{http.MethodPut, http.StatusMethodNotAllowed},
		{http.MethodDelete, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()
			s := &Server{metrics: metrics.New(), logger: newTestLogger()}
			rec := httptest.NewRecorder()
			s.handleMetrics(rec, httptest.NewRequest(tt.method, "/metrics", http.NoBody))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			switch {
			case tt.want == http.StatusMethodNotAllowed && rec.Header().Get("Allow") != "GET, HEAD":
				t.Errorf("Allow = %q", rec.Header().Get("Allow"))
			case tt.method == http.MethodGet && !strings.Contains(rec.Body.String(), "cpuwatch_"):
				t.Error("exposition should contain cpuwatch metrics")
			}
		})
	}
}

// testLogger discards everything.
type testLogger struct{}

func newTestLogger() *testLogger                                  { return &testLogger{} }
func (l *testLogger) Info(_ string, _ ...logging.Field)           {}
func (l *testLogger) Warn(_ string, _ ...logging.Field)           {}
func (l *testLogger) Error(_ string, _ error, _ ...logging.Field) {}
func (l *testLogger) Debug(_ string, _ ...logging.Field)          {}
func (l *testLogger) Printf(_ string, _ ...any)                   {}
func (l *testLogger) Println(_ ...any)                            {}
