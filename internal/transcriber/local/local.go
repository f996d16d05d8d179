// Package local implements the Transcriber interface against a self-hosted
// whisper-asr-webservice (POST /asr with query parameters).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transcriber"
)

// Transcriber uses a self-hosted whisper service.
type Transcriber struct {
	endpoint  string
	vadFilter bool
	language  string
	client    *http.Client
}

// New creates a new local transcriber from config.
func New(cfg config.LocalTranscriberConfig, language string) *Transcriber {
	return &Transcriber{
		endpoint:  cfg.Endpoint,
		vadFilter: cfg.VADFilter,
		language:  language,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "local" }

// Transcribe uploads the clip as multipart field "audio_file".
// API: POST /asr?task=transcribe&language=en&output=json&encode=true
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string, opts transcriber.Opts) (*transcriber.Result, error) {
	ctx, span := otel.Tracer("interviewcoach/transcriber").Start(ctx, "local.Transcribe", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio_file", "answer"+transcriber.ExtFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")

	lang := opts.Language
	if lang == "" {
		lang = t.language
	}
	if code := transcriber.LanguageCode(lang); code != "" {
		q.Set("language", code)
	}
	if opts.Prompt != "" {
		q.Set("initial_prompt", opts.Prompt)
	}
	if t.vadFilter {
		q.Set("vad_filter", "true")
	}

	reqURL := t.endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("whisper-asr request", "url", reqURL)

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, transcriber.RequestError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, transcriber.StatusError(resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding asr response: %w", err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, transcriber.ErrUnintelligible
	}

	slog.Debug("transcription complete", "backend", "local", "text_length", len(result.Text), "language", result.Language)
	return &transcriber.Result{
		Text:     result.Text,
		Language: result.Language,
	}, nil
}

// Close is a no-op for the local transcriber.
func (t *Transcriber) Close() error { return nil }
