// Package transport defines the interface for pluggable request transports.
//
// Each transport (HTTP, gRPC) implements Transport and forwards requests to a
// Handler. The handler doesn't care how a submission arrived.
package transport

import (
	"context"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/capture"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
)

// Handler is the coaching pipeline as seen by a transport.
// *dispatch.Dispatcher satisfies it.
type Handler interface {
	// Analyze runs one Analyze click. Errors mean the request itself was malformed.
	Analyze(ctx context.Context, sub *message.Submission) (*message.AnalysisResult, error)

	// Transcribe runs one recognition attempt on a recorded clip.
	Transcribe(ctx context.Context, clip *message.AudioClip) message.Transcript

	// Listen captures one phrase from a live stream and transcribes it.
	Listen(ctx context.Context, src capture.Source) message.Transcript

	// Kit returns the interview kit being served.
	Kit() *questions.Kit

	// AnswerPolicy returns config.PolicyPreferAudio or config.PolicyManualAccept.
	AnswerPolicy() string
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts accepting requests and forwards them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Ready is closed once Listen has bound its port.
	Ready() <-chan struct{}

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
