// Package message defines the core data types flowing through the coaching pipeline.
package message

import "fmt"

// User-facing strings. Adapter failures are reported with these instead of
// being propagated as errors.
const (
	MsgUnintelligible   = "Error: Could not understand audio."
	MsgUnavailable      = "Error: Speech recognition API unavailable."
	MsgNoSpeech         = "Error: No speech detected before the listening timeout."
	MsgMissingAPIKey    = "⚠️ Please enter your OpenRouter API Key in the sidebar."
	MsgEmptyAnswer      = "Please type or record an answer first."
	msgAudioProcessing  = "Error processing audio: %v"
	msgCoachUnreachable = "Error connecting to AI: %v"
)

// AudioProcessingError formats the catch-all transcription failure.
func AudioProcessingError(err error) string {
	return fmt.Sprintf(msgAudioProcessing, err)
}

// CoachError formats a completion-service failure.
func CoachError(err error) string {
	return fmt.Sprintf(msgCoachUnreachable, err)
}

// Stage is one question category with its fixed question list and UI labels.
type Stage struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Subheading  string   `json:"subheading" yaml:"subheading"`
	Caption     string   `json:"caption,omitempty" yaml:"caption"`
	SelectLabel string   `json:"select_label" yaml:"select_label"`
	AnswerLabel string   `json:"answer_label" yaml:"answer_label"`
	Button      string   `json:"button" yaml:"button"`
	Spinner     string   `json:"spinner" yaml:"spinner"`
	PromptLabel string   `json:"prompt_label" yaml:"prompt_label"` // stage name sent to the model
	Questions   []string `json:"questions" yaml:"questions"`
}

// AudioClip is a captured or uploaded recording.
type AudioClip struct {
	Data        []byte
	ContentType string
}

// Empty reports whether the clip carries no audio.
func (c *AudioClip) Empty() bool {
	return c == nil || len(c.Data) == 0
}

// Submission is one click of an Analyze button.
type Submission struct {
	// ID is a unique identifier for this submission (UUID).
	ID string `json:"id"`

	StageID       string `json:"stage" validate:"required"`
	QuestionIndex int    `json:"question_index" validate:"gte=0"`

	// Text is the typed answer.
	Text string `json:"text"`

	// Audio is an optional recorded answer.
	Audio *AudioClip `json:"-"`

	// APIKey is the user's completion-service credential. Held for the
	// duration of the request only.
	APIKey string `json:"-"`
}

// Failure classifies a transcription outcome.
type Failure string

const (
	FailureNone           Failure = ""
	FailureUnintelligible Failure = "unintelligible"
	FailureUnavailable    Failure = "unavailable"
	FailureTimeout        Failure = "timeout"
	FailureUnexpected     Failure = "unexpected"
)

// Transcript is the outcome of a single recognition attempt.
type Transcript struct {
	Text     string  `json:"text,omitempty"`
	Language string  `json:"language,omitempty"`
	Failure  Failure `json:"failure,omitempty"`

	// Message is the recognized text on success and the sentinel string otherwise.
	Message string `json:"message"`
}

// OK returns true if recognition produced text.
func (t Transcript) OK() bool {
	return t.Failure == FailureNone
}

// FeedbackFailure classifies a feedback outcome.
type FeedbackFailure string

const (
	FeedbackOK                FeedbackFailure = ""
	FeedbackMissingCredential FeedbackFailure = "missing_credential"
	FeedbackCompletion        FeedbackFailure = "completion"
)

// Feedback is the coaching text, or the error string shown in its place.
type Feedback struct {
	Text    string          `json:"text"`
	Failure FeedbackFailure `json:"failure,omitempty"`
}

// AnswerSource records which input ended up being analyzed.
type AnswerSource string

const (
	SourceText  AnswerSource = "text"
	SourceAudio AnswerSource = "audio"
)

// AnalysisResult is the outcome of processing a submission.
type AnalysisResult struct {
	SubmissionID string       `json:"submission_id"`
	Stage        string       `json:"stage"`
	Question     string       `json:"question"`
	Answer       string       `json:"answer,omitempty"`
	AnswerSource AnswerSource `json:"answer_source,omitempty"`

	// Transcript is set whenever audio was transcribed, successful or not.
	Transcript *Transcript `json:"transcript,omitempty"`

	// Warning is set when nothing was sent for analysis.
	Warning string `json:"warning,omitempty"`

	// Feedback is nil when no analysis was attempted.
	Feedback *Feedback `json:"feedback,omitempty"`

	// FeedbackHTML is Feedback.Text rendered for display.
	FeedbackHTML string `json:"feedback_html,omitempty"`
}
