// Package tts defines the interface for reading interview questions aloud.
package tts

import "context"

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Voice overrides the configured voice.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize returns the spoken text as a WAV file.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio.
	ContentType string

	SampleRate int
	Channels   int
}
