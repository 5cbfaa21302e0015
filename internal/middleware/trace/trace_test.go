package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "viagem/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Format: "json", Output: &buf})
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, logger)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/budgets", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected generated id, got %q", seen)
	}
	if got := rr.Header().Get(RequestIDHeader); got != seen {
		t.Fatalf("response header %q does not match context id %q", got, seen)
	}
	if !strings.Contains(buf.String(), `"status_code":418`) || !strings.Contains(buf.String(), `"client_ip":"10.0.0.1"`) {
		t.Fatalf("completion log missing fields: %s", buf.String())
	}
	if got := m.GetMetrics(); got.TotalRequests != 1 || got.ServerErrors != 0 {
		t.Fatalf("unexpected metrics %+v", got)
	}
}

func TestInboundRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "absent", header: "", want: ""},
		{name: "kept", header: "abc-123", want: "abc-123"},
		{name: "control characters", header: "abc\x01", want: ""},
		{name: "too long", header: strings.Repeat("a", maxInboundIDLength+1), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(RequestIDHeader, tt.header)
			}
			if got := inboundRequestID(r); got != tt.want {
				t.Fatalf("inboundRequestID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddlewareCountsServerErrors(t *testing.T) {
	m := NewMiddleware(nil, applog.New(applog.Config{Output: &bytes.Buffer{}}))
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if got := m.GetMetrics(); got.TotalRequests != 3 || got.ServerErrors != 3 {
		t.Fatalf("unexpected metrics %+v", got)
	}
}
