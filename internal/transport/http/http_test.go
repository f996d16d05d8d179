package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/capture"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/tts"
)

type fakeHandler struct {
	kit      *questions.Kit
	policy   string
	feedback string

	mu   sync.Mutex
	subs []*message.Submission
}

func (f *fakeHandler) Analyze(ctx context.Context, sub *message.Submission) (*message.AnalysisResult, error) {
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()

	_, question, err := f.kit.Question(sub.StageID, sub.QuestionIndex)
	if err != nil {
		return nil, err
	}
	res := &message.AnalysisResult{SubmissionID: "sub-1", Stage: sub.StageID, Question: question}
	if strings.TrimSpace(sub.Text) == "" && sub.Audio.Empty() {
		res.Warning = message.MsgEmptyAnswer
		return res, nil
	}
	res.Feedback = &message.Feedback{Text: f.feedback}
	return res, nil
}

func (f *fakeHandler) Transcribe(ctx context.Context, clip *message.AudioClip) message.Transcript {
	if clip.Empty() {
		return message.Transcript{Failure: message.FailureUnintelligible, Message: message.MsgUnintelligible}
	}
	text := fmt.Sprintf("%d bytes of %s", len(clip.Data), clip.ContentType)
	return message.Transcript{Text: text, Message: text}
}

func (f *fakeHandler) Listen(ctx context.Context, src capture.Source) message.Transcript {
	total := 0
	for {
		chunk, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return message.Transcript{Failure: message.FailureUnexpected, Message: err.Error()}
		}
		total += len(chunk)
	}
	if total == 0 {
		return message.Transcript{Failure: message.FailureTimeout, Message: message.MsgNoSpeech}
	}
	text := fmt.Sprintf("heard %d bytes", total)
	return message.Transcript{Text: text, Message: text}
}

func (f *fakeHandler) Kit() *questions.Kit { return f.kit }

func (f *fakeHandler) AnswerPolicy() string { return f.policy }

func (f *fakeHandler) lastSubmission(t *testing.T) *message.Submission {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		t.Fatal("no submission reached the handler")
	}
	return f.subs[len(f.subs)-1]
}

type fakeNarrator struct{}

func (fakeNarrator) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	return &tts.SynthesizeResult{Audio: []byte("RIFF" + text), ContentType: "audio/wav"}, nil
}

func (fakeNarrator) Close() error { return nil }

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *fakeHandler) {
	t.Helper()
	kit, err := questions.Default()
	if err != nil {
		t.Fatal(err)
	}
	h := &fakeHandler{kit: kit, policy: config.PolicyPreferAudio, feedback: "### 🟢 What You Did Well\nHonesty."}
	if opts.CaptureMode == "" {
		opts.CaptureMode = config.CaptureUpload
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	mux, err := New(0, opts).Handler(h)
	if err != nil {
		t.Fatalf("building routes: %v", err)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, h
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	page := string(body)
	for _, want := range []string{
		"OpenRouter API Key",
		"Core Values Cheatsheet",
		"Recruiter Screen",
		"Behavioral (STAR)",
		"Analyze STAR Format",
		"Accountability:",
		"Web Mode",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "Start Listening") {
		t.Error("upload mode page should not offer live listening")
	}
}

func TestIndexPage_LiveManualAccept(t *testing.T) {
	kit, _ := questions.Default()
	h := &fakeHandler{kit: kit, policy: config.PolicyManualAccept}
	mux, err := New(0, Options{CaptureMode: config.CaptureLive, SampleRate: 16000}).Handler(h)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	page := rec.Body.String()
	if !strings.Contains(page, "Start Listening") || !strings.Contains(page, "Use this transcription") {
		t.Error("live manual-accept page should offer listening and accepting")
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestStages(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/api/stages")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got StagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Stages) != 3 {
		t.Errorf("expected 3 stages, got %d", len(got.Stages))
	}
	if got.CaptureMode != config.CaptureUpload || got.AnswerPolicy != config.PolicyPreferAudio {
		t.Errorf("unexpected variant %q/%q", got.CaptureMode, got.AnswerPolicy)
	}
	if got.Narration {
		t.Error("narration should be off without a narrator")
	}
}

func TestAnalyze_JSON(t *testing.T) {
	srv, h := newTestServer(t, Options{})

	body := `{"stage":"recruiter","question_index":0,"text":"I like robots","api_key":"body-key"}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "header-key")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res message.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Feedback == nil || res.Feedback.Text != h.feedback {
		t.Errorf("expected verbatim feedback, got %+v", res.Feedback)
	}
	if !strings.Contains(res.FeedbackHTML, "<h3>") {
		t.Errorf("expected rendered heading, got %q", res.FeedbackHTML)
	}

	sub := h.lastSubmission(t)
	if sub.APIKey != "header-key" {
		t.Errorf("expected header key to win, got %q", sub.APIKey)
	}
	if sub.Text != "I like robots" || sub.StageID != "recruiter" {
		t.Errorf("unexpected submission %+v", sub)
	}
}

func TestAnalyze_Multipart(t *testing.T) {
	srv, h := newTestServer(t, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("stage", "behavioral")
	_ = mw.WriteField("question_index", "2")
	_ = mw.WriteField("text", "")
	_ = mw.WriteField("api_key", "form-key")
	part, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="audio"; filename="answer"`},
		"Content-Type":        {"audio/webm"},
	})
	_, _ = part.Write([]byte("webm-bytes"))
	_ = mw.Close()

	resp, err := http.Post(srv.URL+"/api/analyze", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	sub := h.lastSubmission(t)
	if sub.StageID != "behavioral" || sub.QuestionIndex != 2 || sub.APIKey != "form-key" {
		t.Errorf("unexpected submission %+v", sub)
	}
	if sub.Audio == nil || string(sub.Audio.Data) != "webm-bytes" || sub.Audio.ContentType != "audio/webm" {
		t.Errorf("unexpected audio %+v", sub.Audio)
	}
}

func TestAnalyze_EmptyAnswerWarning(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp, err := http.Post(srv.URL+"/api/analyze", "application/json",
		strings.NewReader(`{"stage":"technical","question_index":1,"text":"   "}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var res message.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Warning != message.MsgEmptyAnswer || res.Feedback != nil {
		t.Errorf("expected warning only, got %+v", res)
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		name, contentType, body string
	}{
		{"unknown stage", "application/json", `{"stage":"sales","text":"x"}`},
		{"bad index", "application/json", `{"stage":"recruiter","question_index":42,"text":"x"}`},
		{"bad json", "application/json", `{`},
		{"bad multipart", "multipart/form-data; boundary=nope", "garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/analyze", tt.contentType, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			var e ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
				t.Errorf("expected error body, got %+v (%v)", e, err)
			}
		})
	}
}

func TestTranscribe_RawBody(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp, err := http.Post(srv.URL+"/api/transcribe", "audio/wav", strings.NewReader("RIFFdata"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var tr message.Transcript
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatal(err)
	}
	if tr.Text != "8 bytes of audio/wav" {
		t.Errorf("unexpected transcript %+v", tr)
	}
}

func TestTranscribe_RecordedClipUnderEitherPolicy(t *testing.T) {
	for _, policy := range []string{config.PolicyPreferAudio, config.PolicyManualAccept} {
		t.Run(policy, func(t *testing.T) {
			srv, h := newTestServer(t, Options{})
			h.policy = policy

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, _ := mw.CreatePart(textproto.MIMEHeader{
				"Content-Disposition": {`form-data; name="audio"; filename="answer"`},
				"Content-Type":        {"audio/webm"},
			})
			_, _ = part.Write([]byte("webm-bytes"))
			_ = mw.Close()

			resp, err := http.Post(srv.URL+"/api/transcribe", mw.FormDataContentType(), &buf)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			var tr message.Transcript
			if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
				t.Fatal(err)
			}
			if tr.Text != "10 bytes of audio/webm" {
				t.Errorf("unexpected transcript %+v", tr)
			}
		})
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "no audio here")
	_ = mw.Close()

	resp, err := http.Post(srv.URL+"/api/transcribe", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Error != "missing audio field" {
		t.Errorf("expected missing audio field error, got %q", e.Error)
	}
}

func TestNarration(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv, _ := newTestServer(t, Options{})
		resp, err := http.Get(srv.URL + "/api/stages/recruiter/questions/0/audio")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		srv, h := newTestServer(t, Options{Narrator: fakeNarrator{}})
		resp, err := http.Get(srv.URL + "/api/stages/technical/questions/0/audio")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "audio/wav" {
			t.Fatalf("expected wav, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
		}
		_, q, _ := h.kit.Question("technical", 0)
		if string(body) != "RIFF"+q {
			t.Errorf("expected narration of the selected question, got %q", body)
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		srv, _ := newTestServer(t, Options{Narrator: fakeNarrator{}})
		resp, err := http.Get(srv.URL + "/api/stages/technical/questions/99/audio")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func dialListen(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/listen"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) liveEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt liveEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	return evt
}

func TestListen_StreamsUntilStop(t *testing.T) {
	srv, _ := newTestServer(t, Options{CaptureMode: config.CaptureLive, SampleRate: 16000})
	conn := dialListen(t, srv)

	if err := conn.WriteJSON(liveHello{Type: "hello", Encoding: "pcm_s16le", SampleRate: 16000}); err != nil {
		t.Fatal(err)
	}
	if evt := readEvent(t, conn); evt.Type != "listening" {
		t.Fatalf("expected listening, got %+v", evt)
	}

	_ = conn.WriteMessage(websocket.BinaryMessage, make([]byte, 320))
	_ = conn.WriteMessage(websocket.BinaryMessage, make([]byte, 160))
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`))

	evt := readEvent(t, conn)
	if evt.Type != "transcript" || evt.Transcript == nil {
		t.Fatalf("expected transcript, got %+v", evt)
	}
	if evt.Transcript.Text != "heard 480 bytes" {
		t.Errorf("unexpected transcript %+v", evt.Transcript)
	}
}

func TestListen_StopWithoutAudioReportsNoSpeech(t *testing.T) {
	srv, _ := newTestServer(t, Options{CaptureMode: config.CaptureLive, SampleRate: 16000})
	conn := dialListen(t, srv)

	if err := conn.WriteJSON(liveHello{Type: "hello", Encoding: "pcm_s16le", SampleRate: 16000}); err != nil {
		t.Fatal(err)
	}
	if evt := readEvent(t, conn); evt.Type != "listening" {
		t.Fatalf("expected listening, got %+v", evt)
	}
	// The browser sends stop when the microphone cannot be opened.
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`))

	evt := readEvent(t, conn)
	if evt.Type != "transcript" || evt.Transcript == nil {
		t.Fatalf("expected transcript, got %+v", evt)
	}
	if evt.Transcript.Message != message.MsgNoSpeech {
		t.Errorf("expected no-speech sentinel, got %+v", evt.Transcript)
	}
}

func TestListen_BadHello(t *testing.T) {
	srv, _ := newTestServer(t, Options{CaptureMode: config.CaptureLive, SampleRate: 16000})
	conn := dialListen(t, srv)

	if err := conn.WriteJSON(liveHello{Type: "hello", Encoding: "pcm_s16le", SampleRate: 44100}); err != nil {
		t.Fatal(err)
	}
	if evt := readEvent(t, conn); evt.Type != "error" {
		t.Fatalf("expected error event, got %+v", evt)
	}
}

func TestListen_DisabledInUploadMode(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/api/listen")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTransport_ReadyAfterBind(t *testing.T) {
	kit, err := questions.Default()
	if err != nil {
		t.Fatal(err)
	}
	h := &fakeHandler{kit: kit, policy: config.PolicyPreferAudio}
	tr := New(0, Options{CaptureMode: config.CaptureUpload, SampleRate: 16000})

	select {
	case <-tr.Ready():
		t.Fatal("expected transport not ready before Listen")
	default:
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- tr.Listen(ctx, h) }()

	select {
	case <-tr.Ready():
	case err := <-done:
		t.Fatalf("listen returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("transport never became ready")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not return after cancel")
	}
}
