// Package coach turns a candidate's answer into structured interview feedback
// using an OpenAI-compatible Chat Completions API (OpenRouter by default).
//
// Each call is a single request: no retries, no backoff, no rate limiting.
// Failures come back as user-facing text in message.Feedback, never as errors.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
)

// Client calls the completion service.
type Client struct {
	chatURL      string
	model        string
	siteURL      string
	siteName     string
	systemPrompt string
	client       *http.Client
}

// New creates a coach client primed with the given job context.
func New(cfg config.CoachConfig, jc questions.JobContext) (*Client, error) {
	prompt, err := SystemPrompt(jc)
	if err != nil {
		return nil, err
	}
	return &Client{
		chatURL:      strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:        cfg.Model,
		siteURL:      cfg.SiteURL,
		siteName:     cfg.SiteName,
		systemPrompt: prompt,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "openai-compatible" }

// Model returns the model identifier sent with every request.
func (c *Client) Model() string { return c.model }

// SystemPrompt returns the rendered coaching persona.
func (c *Client) SystemPrompt() string { return c.systemPrompt }

// Feedback asks the model to critique one answer. The model's text is returned
// verbatim. An empty apiKey short-circuits without touching the network.
func (c *Client) Feedback(ctx context.Context, apiKey, stage, question, answer string) message.Feedback {
	if strings.TrimSpace(apiKey) == "" {
		return message.Feedback{Text: message.MsgMissingAPIKey, Failure: message.FeedbackMissingCredential}
	}

	ctx, span := otel.Tracer("interviewcoach/coach").Start(ctx, "coach.Feedback", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("stage", stage), attribute.String("model", c.model))

	content, err := c.complete(ctx, apiKey, []chatMessage{
		{Role: "system", Content: c.systemPrompt},
		{Role: "user", Content: UserMessage(stage, question, answer)},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		slog.Warn("coach request failed", "stage", stage, "error", err)
		return message.Feedback{Text: message.CoachError(err), Failure: message.FeedbackCompletion}
	}
	return message.Feedback{Text: content}
}

// Close is a no-op; connections are pooled by the http.Client.
func (c *Client) Close() error { return nil }

// --- Internal types and helpers ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) complete(ctx context.Context, apiKey string, messages []chatMessage) (string, error) {
	bodyBytes, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	// OpenRouter can report upstream failures inside a 200 body.
	if chatResp.Error != nil {
		return "", fmt.Errorf("chat error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices returned from chat API")
	}

	content := chatResp.Choices[0].Message.Content
	slog.Debug("coach response received", "text_length", len(content))
	return content, nil
}
