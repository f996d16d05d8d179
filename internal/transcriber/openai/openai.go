// Package openai implements the Transcriber interface using an
// OpenAI-compatible Audio Transcription API (Whisper, gpt-4o-transcribe,
// Groq, or any server exposing /audio/transcriptions).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transcriber"
)

// Transcriber sends audio to an OpenAI-compatible transcription endpoint.
type Transcriber struct {
	url      string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

// New creates a new OpenAI transcriber from config.
func New(cfg config.OpenAITranscriberConfig, language string) *Transcriber {
	return &Transcriber{
		url:      strings.TrimRight(cfg.BaseURL, "/") + "/audio/transcriptions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		language: language,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe sends audio to the transcription API.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string, opts transcriber.Opts) (*transcriber.Result, error) {
	ctx, span := otel.Tracer("interviewcoach/transcriber").Start(ctx, "openai.Transcribe", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("audio.bytes", len(audio)), attribute.String("model", t.model))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "answer"+transcriber.ExtFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	_ = writer.WriteField("model", t.model)

	lang := opts.Language
	if lang == "" {
		lang = t.language
	}
	if code := transcriber.LanguageCode(lang); code != "" {
		_ = writer.WriteField("language", code)
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("prompt", opts.Prompt)
	}
	_ = writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

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
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, transcriber.ErrUnintelligible
	}

	slog.Debug("transcription complete", "backend", "openai", "text_length", len(result.Text))
	return &transcriber.Result{
		Text:     result.Text,
		Language: result.Language,
	}, nil
}

// Close is a no-op for the OpenAI transcriber.
func (t *Transcriber) Close() error { return nil }
