// Package capture records a single spoken phrase from a live PCM stream.
//
// A listen waits for the stream's energy to rise above a threshold, then
// records until the speaker pauses or the phrase limit is reached. Durations
// are measured in audio time, not wall time, with a wall-clock guard so a
// stalled client cannot hold a listen open forever. Once started, a listen
// cannot be cancelled by the caller other than by closing the stream.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/audio"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
)

// ErrWaitTimeout is returned when no speech starts before the timeout.
var ErrWaitTimeout = errors.New("listening timed out while waiting for phrase to start")

// defaultGrace is added to the audio-time budget for network jitter.
const defaultGrace = 5 * time.Second

// Source yields chunks of mono 16-bit little-endian PCM. io.EOF ends the stream.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// Listener holds the bounds of a listen.
type Listener struct {
	SampleRate      int
	Timeout         time.Duration
	PhraseLimit     time.Duration
	PauseThreshold  time.Duration
	EnergyThreshold float64
	// Grace is the wall-clock slack over audio time. Zero means 5s.
	Grace time.Duration
}

// New creates a Listener from config.
func New(cfg config.CaptureConfig) *Listener {
	return &Listener{
		SampleRate:      cfg.SampleRate,
		Timeout:         cfg.Timeout,
		PhraseLimit:     cfg.PhraseLimit,
		PauseThreshold:  cfg.PauseThreshold,
		EnergyThreshold: cfg.EnergyThreshold,
	}
}

// Listen blocks until one phrase has been captured and returns it as WAV.
func (l *Listener) Listen(ctx context.Context, src Source) (*message.AudioClip, error) {
	grace := l.Grace
	if grace <= 0 {
		grace = defaultGrace
	}
	listenCtx, cancel := context.WithTimeout(ctx, l.Timeout+l.PhraseLimit+l.PauseThreshold+grace)
	defer cancel()
	// A source that sends nothing must not stretch the wait for speech.
	waitCtx, cancelWait := context.WithTimeout(listenCtx, l.Timeout+grace)
	defer cancelWait()

	var (
		phrase  bytes.Buffer
		carry   []byte
		waited  time.Duration
		silence time.Duration
		started bool
	)

loop:
	for {
		readCtx := listenCtx
		if !started {
			readCtx = waitCtx
		}
		chunk, err := src.Next(readCtx)
		switch {
		case errors.Is(err, io.EOF):
			break loop
		case err != nil && ctx.Err() == nil && readCtx.Err() != nil:
			slog.Debug("listen wall-clock limit reached", "started", started)
			break loop
		case err != nil:
			return nil, fmt.Errorf("reading audio: %w", err)
		}

		if len(carry) > 0 {
			chunk = append(carry, chunk...)
			carry = nil
		}
		if len(chunk)%audio.BytesPerSample != 0 {
			carry = []byte{chunk[len(chunk)-1]}
			chunk = chunk[:len(chunk)-1]
		}
		if len(chunk) == 0 {
			continue
		}

		d := audio.Duration(chunk, l.SampleRate)
		loud := audio.RMS(chunk) > l.EnergyThreshold

		if !started {
			if !loud {
				waited += d
				if waited >= l.Timeout {
					return nil, ErrWaitTimeout
				}
				continue
			}
			started = true
			slog.Debug("speech started", "waited", waited)
		}

		phrase.Write(chunk)
		if loud {
			silence = 0
		} else {
			silence += d
			if silence >= l.PauseThreshold {
				break
			}
		}
		if audio.Duration(phrase.Bytes(), l.SampleRate) >= l.PhraseLimit {
			break
		}
	}

	if !started {
		return nil, ErrWaitTimeout
	}

	pcm := phrase.Bytes()
	if limit := l.phraseLimitBytes(); len(pcm) > limit {
		pcm = pcm[:limit]
	}
	slog.Debug("phrase captured", "duration", audio.Duration(pcm, l.SampleRate))
	return &message.AudioClip{
		Data:        audio.WAV(pcm, l.SampleRate, 1, audio.BytesPerSample),
		ContentType: "audio/wav",
	}, nil
}

func (l *Listener) phraseLimitBytes() int {
	samples := int(l.PhraseLimit * time.Duration(l.SampleRate) / time.Second)
	return samples * audio.BytesPerSample
}
