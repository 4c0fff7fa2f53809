package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAccessMiddlewareRecordsRoute(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWith(&buf, "debug", "json")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("no overlap"))
	})
	h := AccessMiddleware(l)(mux)
	req := httptest.NewRequest(http.MethodPost, "/api/track?format=gpx", strings.NewReader("<gpx/>"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one json record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "http_access" || rec["level"] != "INFO" || rec["component"] != "http" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec["pattern"] != "/api/" || rec["track_format"] != "gpx" || rec["status"] != float64(422) || rec["bytes"] != float64(10) {
		t.Fatalf("unexpected attrs %v", rec)
	}
}

func TestAccessLevel(t *testing.T) {
	cases := map[int]string{200: "DEBUG", 404: "INFO", 429: "INFO", 503: "ERROR"}
	for code, want := range cases {
		if got := accessLevel(code).String(); got != want {
			t.Fatalf("status %d: expected %s, got %s", code, want, got)
		}
	}
}
