package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transport"
)

const (
	helloTimeout  = 5 * time.Second
	maxFrameBytes = 1 << 20
	encodingPCM16 = "pcm_s16le"
)

// liveHello is the first frame a client sends on /api/listen.
type liveHello struct {
	Type       string `json:"type"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// liveEvent is a server-to-client frame on /api/listen.
type liveEvent struct {
	Type       string              `json:"type"` // listening, transcript, error
	Transcript *message.Transcript `json:"transcript,omitempty"`
	Message    string              `json:"message,omitempty"`
}

// handleListen serves GET /api/listen.
//
// The client sends a JSON hello, waits for a "listening" event, then streams
// binary frames of mono PCM16LE at the configured rate. A text frame
// {"type":"stop"} ends the stream early. The server answers with exactly one
// "transcript" event and closes.
//
// @Summary     Live microphone capture
// @Description WebSocket. Captures one phrase (bounded by the listening timeout, the phrase limit and the pause
// @Description threshold) and returns its transcript. No speech before the timeout yields the timeout message.
// @Tags        transcribe
// @Success     101
// @Failure     404  {object}  ErrorResponse  "Server is not in live capture mode"
// @Router      /api/listen [get]
func (t *Transport) handleListen(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	if t.opts.CaptureMode != config.CaptureLive {
		writeError(w, http.StatusNotFound, "live capture is disabled")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	messageType, frame, err := conn.ReadMessage()
	if err != nil {
		writeLiveError(conn, "failed to read hello")
		return
	}
	var hello liveHello
	if messageType != websocket.TextMessage || json.Unmarshal(frame, &hello) != nil || hello.Type != "hello" {
		writeLiveError(conn, "first frame must be hello")
		return
	}
	if hello.Encoding != encodingPCM16 || hello.SampleRate != t.opts.SampleRate {
		writeLiveError(conn, "audio must be pcm_s16le mono at the server sample rate")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	if err := conn.WriteJSON(liveEvent{Type: "listening"}); err != nil {
		return
	}

	tr := handler.Listen(r.Context(), &wsSource{conn: conn})
	slog.Debug("live listen finished", "ok", tr.OK(), "failure", tr.Failure)

	if err := conn.WriteJSON(liveEvent{Type: "transcript", Transcript: &tr}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func writeLiveError(conn *websocket.Conn, msg string) {
	_ = conn.WriteJSON(liveEvent{Type: "error", Message: msg})
}

// wsSource adapts a WebSocket to capture.Source.
type wsSource struct {
	conn *websocket.Conn
}

func (s *wsSource) Next(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(deadline)
	}
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		switch messageType {
		case websocket.BinaryMessage:
			return data, nil
		case websocket.TextMessage:
			var ctl struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &ctl) == nil && ctl.Type == "stop" {
				return nil, io.EOF
			}
		}
	}
}
