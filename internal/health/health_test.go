package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func get(t *testing.T, h http.Handler, path string) (int, status) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var st status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return rec.Code, st
}

func TestHealthz_AlwaysOK(t *testing.T) {
	s := New(0)
	code, st := get(t, s.Handler(), "/healthz")
	if code != http.StatusOK || st.Status != "ok" {
		t.Errorf("expected 200 ok, got %d %q", code, st.Status)
	}
}

func TestReadyz(t *testing.T) {
	s := New(0)
	h := s.Handler()

	if code, _ := get(t, h, "/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before ready, got %d", code)
	}

	s.SetReady(true)
	s.SetComponent("http", true)
	s.SetComponent("grpc", false)
	code, st := get(t, h, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with a component down, got %d", code)
	}
	if st.Components["grpc"] != "not_ready" || st.Components["http"] != "ok" {
		t.Errorf("unexpected components %+v", st.Components)
	}

	s.SetComponent("grpc", true)
	if code, st := get(t, h, "/readyz"); code != http.StatusOK || st.Status != "ok" {
		t.Errorf("expected 200 ok, got %d %q", code, st.Status)
	}
}
