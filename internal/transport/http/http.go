// Package http implements the HTTP/WebSocket transport for interviewcoach.
//
// This transport serves the practice UI, a small JSON API used by that UI,
// a WebSocket endpoint for live microphone capture, and the swagger docs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/MatDawit/GrayMatterSystemsInterviewPrep/docs"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/render"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transport"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/tts"
)

// maxUpload bounds request bodies carrying audio.
const maxUpload = 25 << 20

// apiKeyHeader carries the user's completion-service credential.
const apiKeyHeader = "X-API-Key"

// Options configures what the UI offers.
type Options struct {
	// CaptureMode is config.CaptureUpload or config.CaptureLive.
	CaptureMode string

	// SampleRate is the PCM rate expected on the live-capture socket.
	SampleRate int

	// Narrator reads questions aloud. Nil disables narration.
	Narrator tts.Synthesizer
}

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port   int
	opts   Options
	server *http.Server
	ready  chan struct{}
}

// New creates a new HTTP transport on the given port.
func New(port int, opts Options) *Transport {
	return &Transport{port: port, opts: opts, ready: make(chan struct{})}
}

// Ready is closed once the listener is bound.
func (t *Transport) Ready() <-chan struct{} { return t.ready }

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the route table for the given pipeline.
func (t *Transport) Handler(handler transport.Handler) (http.Handler, error) {
	ui, err := newUI(handler, t.opts)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	mux.Handle("GET /{$}", ui)
	mux.Handle("GET /static/", staticHandler())

	mux.HandleFunc("GET /api/stages", func(w http.ResponseWriter, r *http.Request) {
		t.handleStages(w, r, handler)
	})
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		t.handleAnalyze(w, r, handler)
	})
	mux.HandleFunc("POST /api/transcribe", func(w http.ResponseWriter, r *http.Request) {
		t.handleTranscribe(w, r, handler)
	})
	mux.HandleFunc("GET /api/listen", func(w http.ResponseWriter, r *http.Request) {
		t.handleListen(w, r, handler)
	})
	mux.HandleFunc("GET /api/stages/{stage}/questions/{index}/audio", func(w http.ResponseWriter, r *http.Request) {
		t.handleNarration(w, r, handler.Kit())
	})

	// Swagger UI serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux, nil
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	mux, err := t.Handler(handler)
	if err != nil {
		return fmt.Errorf("http routes: %w", err)
	}

	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", t.server.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	close(t.ready)
	slog.Info("http transport listening", "addr", lis.Addr().String(), "capture_mode", t.opts.CaptureMode)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.Serve(lis); err != http.ErrServerClosed {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// StagesResponse describes the kit and the active capture variant.
type StagesResponse struct {
	Context      questions.JobContext `json:"context"`
	Stages       []message.Stage      `json:"stages"`
	CaptureMode  string               `json:"capture_mode"`
	AnswerPolicy string               `json:"answer_policy"`
	Narration    bool                 `json:"narration"`
}

// AnalyzeRequest is the JSON form of an Analyze click.
type AnalyzeRequest struct {
	Stage         string `json:"stage" example:"recruiter"`
	QuestionIndex int    `json:"question_index" example:"0"`
	Text          string `json:"text" example:"I like robots"`

	// APIKey may be sent here instead of the X-API-Key header.
	APIKey string `json:"api_key,omitempty"`

	// Audio is a base64-encoded recording.
	Audio            []byte `json:"audio,omitempty" swaggertype:"string" format:"base64"`
	AudioContentType string `json:"audio_content_type,omitempty" example:"audio/wav"`
}

// ErrorResponse is returned for malformed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleStages serves GET /api/stages.
//
// @Summary     List interview stages
// @Description Returns the job context, the three stages with their fixed questions and labels,
// @Description and the capture variant this server is configured for.
// @Tags        stages
// @Produce     json
// @Success     200  {object}  StagesResponse
// @Router      /api/stages [get]
func (t *Transport) handleStages(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	kit := handler.Kit()
	writeJSON(w, http.StatusOK, StagesResponse{
		Context:      kit.Context,
		Stages:       kit.Stages,
		CaptureMode:  t.opts.CaptureMode,
		AnswerPolicy: handler.AnswerPolicy(),
		Narration:    t.opts.Narrator != nil,
	})
}

// handleAnalyze serves POST /api/analyze.
//
// @Summary     Analyze an answer
// @Description Accepts a typed answer and an optional recording, either as JSON or multipart/form-data
// @Description (fields stage, question_index, text, api_key and file audio). Under the prefer_audio policy a
// @Description successful transcription replaces the typed text. Adapter failures are reported inside the
// @Description 200 response as text; only malformed requests fail.
// @Tags        analyze
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Param       request    body    AnalyzeRequest  false  "Answer (JSON form)"
// @Param       X-API-Key  header  string          false  "OpenRouter API key"
// @Success     200  {object}  message.AnalysisResult
// @Failure     400  {object}  ErrorResponse  "Unknown stage, bad index, or unreadable body"
// @Router      /api/analyze [post]
func (t *Transport) handleAnalyze(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	sub, err := readSubmission(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := handler.Analyze(r.Context(), sub)
	if err != nil {
		slog.Info("rejected submission", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if result.Feedback != nil {
		html, err := render.Markdown(result.Feedback.Text)
		if err != nil {
			slog.Warn("rendering feedback", "submission_id", result.SubmissionID, "error", err)
		}
		result.FeedbackHTML = html
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTranscribe serves POST /api/transcribe.
//
// @Summary     Transcribe a recording
// @Description Runs one recognition attempt. The body is either multipart/form-data with file audio or the raw
// @Description audio bytes. Failures come back as a transcript carrying the user-facing error message.
// @Tags        transcribe
// @Accept      mpfd
// @Accept      audio/wav
// @Accept      audio/webm
// @Produce     json
// @Success     200  {object}  message.Transcript
// @Failure     400  {object}  ErrorResponse  "Unreadable body or missing audio field"
// @Router      /api/transcribe [post]
func (t *Transport) handleTranscribe(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	var clip *message.AudioClip
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
			return
		}
		c, err := formAudio(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if c == nil {
			writeError(w, http.StatusBadRequest, "missing audio field")
			return
		}
		clip = c
	} else {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading audio: "+err.Error())
			return
		}
		clip = &message.AudioClip{Data: data, ContentType: r.Header.Get("Content-Type")}
	}

	writeJSON(w, http.StatusOK, handler.Transcribe(r.Context(), clip))
}

// handleNarration serves GET /api/stages/{stage}/questions/{index}/audio.
//
// @Summary     Read a question aloud
// @Description Synthesizes the selected question as WAV. Returns 404 when narration is disabled.
// @Tags        stages
// @Produce     audio/wav
// @Param       stage  path  string   true  "Stage ID"
// @Param       index  path  integer  true  "Question index"
// @Success     200
// @Failure     404  {object}  ErrorResponse
// @Failure     502  {object}  ErrorResponse  "Narration backend failed"
// @Router      /api/stages/{stage}/questions/{index}/audio [get]
func (t *Transport) handleNarration(w http.ResponseWriter, r *http.Request, kit *questions.Kit) {
	if t.opts.Narrator == nil {
		writeError(w, http.StatusNotFound, "narration is disabled")
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid question index")
		return
	}
	_, question, err := kit.Question(r.PathValue("stage"), index)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	res, err := t.opts.Narrator.Synthesize(r.Context(), question, tts.SynthesizeOpts{})
	if err != nil {
		slog.Error("narration failed", "stage", r.PathValue("stage"), "index", index, "error", err)
		writeError(w, http.StatusBadGateway, "narration failed")
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio)))
	_, _ = w.Write(res.Audio)
}

// readSubmission decodes an Analyze request in either of its two forms.
func readSubmission(w http.ResponseWriter, r *http.Request) (*message.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	sub := &message.Submission{}
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		sub.StageID = r.FormValue("stage")
		if v := r.FormValue("question_index"); v != "" {
			idx, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid question_index %q", v)
			}
			sub.QuestionIndex = idx
		}
		sub.Text = r.FormValue("text")
		sub.APIKey = r.FormValue("api_key")
		clip, err := formAudio(r)
		if err != nil {
			return nil, err
		}
		sub.Audio = clip
	} else {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		sub.StageID = req.Stage
		sub.QuestionIndex = req.QuestionIndex
		sub.Text = req.Text
		sub.APIKey = req.APIKey
		if len(req.Audio) > 0 {
			sub.Audio = &message.AudioClip{Data: req.Audio, ContentType: req.AudioContentType}
		}
	}

	if key := r.Header.Get(apiKeyHeader); key != "" {
		sub.APIKey = key
	}
	return sub, nil
}

// formAudio reads the optional "audio" file from a parsed multipart form.
func formAudio(r *http.Request) (*message.AudioClip, error) {
	file, hdr, err := r.FormFile("audio")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading audio field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return &message.AudioClip{Data: data, ContentType: hdr.Header.Get("Content-Type")}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}
