package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Component: ComponentEngine})
	logger.WithComponent(ComponentJob).Info("hello", FieldUsername, "alice")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentJob {
		t.Fatalf("component = %v, want %s", rec[FieldComponent], ComponentJob)
	}
	if rec[FieldUsername] != "alice" {
		t.Fatalf("username = %v", rec[FieldUsername])
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
			w.WriteHeader(http.StatusTeapot)
		}))))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rr.Header().Get("X-Request-ID") != "req_1" {
		t.Fatalf("missing request id header")
	}
	out := buf.String()
	if !strings.Contains(out, "request_id=req_1") {
		t.Fatalf("request id not in logs: %s", out)
	}
	if !strings.Contains(out, "status_code=418") {
		t.Fatalf("status not in access log: %s", out)
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()) == nil {
		t.Fatal("expected fallback logger")
	}
}
