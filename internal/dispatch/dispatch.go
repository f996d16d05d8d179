// Package dispatch runs a submission through the coaching pipeline.
//
// Every Analyze click is one synchronous chain: optional transcription, an
// empty-answer guard, then at most one completion request. Adapter failures
// end up as text inside the result; only malformed submissions return errors.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/capture"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transcriber"
)

// ErrInvalidSubmission is returned for submissions naming an unknown stage or question.
var ErrInvalidSubmission = errors.New("invalid submission")

// Coach produces feedback for one answer.
type Coach interface {
	Feedback(ctx context.Context, apiKey, stage, question, answer string) message.Feedback
}

// Listener captures one phrase from a live stream.
type Listener interface {
	Listen(ctx context.Context, src capture.Source) (*message.AudioClip, error)
}

// Options tunes the dispatcher.
type Options struct {
	// AnswerPolicy is config.PolicyPreferAudio or config.PolicyManualAccept.
	AnswerPolicy string

	// Language is passed to the transcriber.
	Language string

	// Listener is required for live capture; nil disables Listen.
	Listener Listener
}

// Dispatcher is the central orchestration engine.
type Dispatcher struct {
	kit         *questions.Kit
	transcriber transcriber.Transcriber
	coach       Coach
	listener    Listener
	policy      string
	language    string
	vocabulary  string
	validate    *validator.Validate
}

// New creates a Dispatcher.
func New(kit *questions.Kit, tr transcriber.Transcriber, coach Coach, opts Options) *Dispatcher {
	policy := opts.AnswerPolicy
	if policy == "" {
		policy = config.PolicyPreferAudio
	}
	return &Dispatcher{
		kit:         kit,
		transcriber: tr,
		coach:       coach,
		listener:    opts.Listener,
		policy:      policy,
		language:    opts.Language,
		vocabulary:  kit.Vocabulary(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Kit returns the interview kit served by this dispatcher.
func (d *Dispatcher) Kit() *questions.Kit { return d.kit }

// AnswerPolicy returns the active answer policy.
func (d *Dispatcher) AnswerPolicy() string { return d.policy }

// Analyze processes a single submission.
func (d *Dispatcher) Analyze(ctx context.Context, sub *message.Submission) (*message.AnalysisResult, error) {
	start := time.Now()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	logger := slog.With("submission_id", sub.ID, "stage", sub.StageID)

	if err := d.validate.Struct(sub); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}
	stage, question, err := d.kit.Question(sub.StageID, sub.QuestionIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	ctx, span := otel.Tracer("interviewcoach/dispatch").Start(ctx, "dispatch.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", sub.ID), attribute.String("stage", stage.ID))

	result := &message.AnalysisResult{
		SubmissionID: sub.ID,
		Stage:        stage.ID,
		Question:     question,
	}

	// Step 1: pick the answer.
	answer, source := sub.Text, message.SourceText
	if !sub.Audio.Empty() {
		switch d.policy {
		case config.PolicyPreferAudio:
			logger.Debug("transcribing audio", "content_type", sub.Audio.ContentType, "bytes", len(sub.Audio.Data))
			tr := d.Transcribe(ctx, sub.Audio)
			result.Transcript = &tr
			if tr.OK() {
				answer, source = tr.Text, message.SourceAudio
			} else {
				logger.Info("transcription failed, keeping typed answer", "failure", tr.Failure)
			}
		default:
			logger.Debug("ignoring audio under manual-accept policy")
		}
	}

	// Step 2: refuse to analyze nothing.
	if strings.TrimSpace(answer) == "" {
		result.Warning = message.MsgEmptyAnswer
		logger.Info("empty answer, skipping analysis")
		return result, nil
	}
	result.Answer = answer
	result.AnswerSource = source

	// Step 3: ask the coach.
	fb := d.coach.Feedback(ctx, sub.APIKey, stage.PromptLabel, question, answer)
	result.Feedback = &fb

	logger.Info("analysis complete",
		"answer_source", source,
		"feedback_failure", fb.Failure,
		"duration", time.Since(start))
	return result, nil
}

// Transcribe runs one recognition attempt on a clip.
func (d *Dispatcher) Transcribe(ctx context.Context, clip *message.AudioClip) message.Transcript {
	if d.transcriber == nil {
		return transcriber.Outcome(nil, errors.New("no transcriber configured"))
	}
	tr := transcriber.Run(ctx, d.transcriber, clip, transcriber.Opts{Language: d.language, Prompt: d.vocabulary})
	slog.Debug("transcription outcome", "backend", d.transcriber.Name(), "ok", tr.OK(), "failure", tr.Failure)
	return tr
}

// Listen captures one phrase from a live stream and transcribes it.
func (d *Dispatcher) Listen(ctx context.Context, src capture.Source) message.Transcript {
	if d.listener == nil {
		return transcriber.Outcome(nil, errors.New("live capture is disabled"))
	}
	clip, err := d.listener.Listen(ctx, src)
	if errors.Is(err, capture.ErrWaitTimeout) {
		return transcriber.Outcome(nil, fmt.Errorf("%w: %w", transcriber.ErrNoSpeech, err))
	}
	if err != nil {
		return transcriber.Outcome(nil, err)
	}
	return d.Transcribe(ctx, clip)
}
