// Package transcriber defines the interface for speech-to-text backends and
// converts their results into user-facing transcripts.
//
// A transcription is a single recognition attempt: no retries, no caching.
// Backends report failures as errors wrapping one of the sentinels below;
// Outcome turns any result into a message.Transcript and never fails.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
)

var (
	// ErrUnintelligible means the service answered but recognized no words.
	ErrUnintelligible = errors.New("speech was unintelligible")

	// ErrUnavailable means the service could not be reached or refused the request.
	ErrUnavailable = errors.New("speech recognition service unavailable")

	// ErrNoSpeech means nobody started speaking before the listen timeout.
	ErrNoSpeech = errors.New("no speech before listen timeout")
)

// Opts controls transcription behavior.
type Opts struct {
	// Language is a BCP-47 or ISO-639-1 code (e.g., "en-US", "en").
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string
}

// Result is a successful recognition.
type Result struct {
	Text     string
	Language string
}

// Transcriber is the interface every speech-to-text backend implements.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Transcribe converts one audio clip to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts Opts) (*Result, error)

	// Close releases any resources held by the transcriber.
	Close() error
}

// Outcome maps a backend result to the transcript shown to the user.
func Outcome(res *Result, err error) message.Transcript {
	if err == nil && res != nil && strings.TrimSpace(res.Text) == "" {
		err = ErrUnintelligible
	}
	switch {
	case err == nil && res != nil:
		text := strings.TrimSpace(res.Text)
		return message.Transcript{Text: text, Language: res.Language, Message: text}
	case errors.Is(err, ErrNoSpeech):
		return message.Transcript{Failure: message.FailureTimeout, Message: message.MsgNoSpeech}
	case errors.Is(err, ErrUnintelligible):
		return message.Transcript{Failure: message.FailureUnintelligible, Message: message.MsgUnintelligible}
	case errors.Is(err, ErrUnavailable):
		return message.Transcript{Failure: message.FailureUnavailable, Message: message.MsgUnavailable}
	case err == nil:
		err = errors.New("no result")
	}
	return message.Transcript{Failure: message.FailureUnexpected, Message: message.AudioProcessingError(err)}
}

// Run performs exactly one recognition attempt and returns its outcome.
// Panics inside a backend are reported as unexpected failures.
func Run(ctx context.Context, t Transcriber, clip *message.AudioClip, opts Opts) (tr message.Transcript) {
	defer func() {
		if r := recover(); r != nil {
			tr = Outcome(nil, &panicError{value: r})
		}
	}()
	if clip.Empty() {
		return Outcome(nil, ErrUnintelligible)
	}
	return Outcome(t.Transcribe(ctx, clip.Data, clip.ContentType, opts))
}

type panicError struct{ value any }

func (e *panicError) Error() string {
	return fmt.Sprintf("transcriber panic: %v", e.value)
}

// StatusError classifies a non-200 response from a recognition service.
// Auth, quota and server-side failures count as the service being unavailable.
func StatusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w (status %d): %s", ErrUnavailable, status, body)
	default:
		return fmt.Errorf("transcription failed (status %d): %s", status, body)
	}
}

// RequestError wraps a transport-level failure.
func RequestError(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// LanguageCode reduces a BCP-47 tag like "en-US" to its ISO-639-1 prefix.
func LanguageCode(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// ExtFromContentType picks a file extension the upstream service will accept.
func ExtFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return ".m4a"
	default:
		return ".wav"
	}
}
