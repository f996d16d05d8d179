package local

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transcriber"
)

func TestTranscribe_QueryAndField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("task") != "transcribe" || q.Get("output") != "json" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("language") != "en" {
			t.Errorf("expected language en, got %q", q.Get("language"))
		}
		if q.Get("vad_filter") != "true" {
			t.Errorf("expected vad_filter=true, got %q", q.Get("vad_filter"))
		}
		if _, _, err := r.FormFile("audio_file"); err != nil {
			t.Errorf("missing audio_file part: %v", err)
		}
		fmt.Fprint(w, `{"text":"hello there","language":"en"}`)
	}))
	defer srv.Close()

	tr := New(config.LocalTranscriberConfig{Endpoint: srv.URL + "/asr", VADFilter: true, Timeout: 5 * time.Second}, "en-US")
	res, err := tr.Transcribe(t.Context(), []byte("x"), "audio/wav", transcriber.Opts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello there" || res.Language != "en" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestTranscribe_EmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"text":""}`)
	}))
	defer srv.Close()

	tr := New(config.LocalTranscriberConfig{Endpoint: srv.URL, Timeout: time.Second}, "")
	_, err := tr.Transcribe(t.Context(), []byte("x"), "audio/wav", transcriber.Opts{})
	if !errors.Is(err, transcriber.ErrUnintelligible) {
		t.Fatalf("expected ErrUnintelligible, got %v", err)
	}
}

func TestTranscribe_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := New(config.LocalTranscriberConfig{Endpoint: srv.URL, Timeout: time.Second}, "")
	_, err := tr.Transcribe(t.Context(), []byte("x"), "audio/wav", transcriber.Opts{})
	if !errors.Is(err, transcriber.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
