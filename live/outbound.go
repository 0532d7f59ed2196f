package live

import (
	"context"
	"fmt"

	"github.com/jayreddin/gemini-2-live-JR/logger"
)

// MIME types for the realtime media channel.
const (
	AudioPCMMimeType  = "audio/pcm;rate=16000"
	ImageJPEGMimeType = "image/jpeg"
)

// ToolResult is the outcome of one tool call requested by the model.
// Exactly one of Output and Error should be set.
type ToolResult struct {
	ID     string
	Output any
	Error  string
}

// SendText sends a user text turn and ends the turn.
func (s *Session) SendText(ctx context.Context, text string) error {
	return s.SendTextWithOptions(ctx, text, true)
}

// SendTextWithOptions sends a user text turn, optionally leaving the turn
// open for further content.
func (s *Session) SendTextWithOptions(ctx context.Context, text string, endOfTurn bool) error {
	if !s.ready("text") {
		return nil
	}
	msg := &clientMessage{
		ClientContent: &clientContent{
			Turns: []contentTurn{
				{Role: "user", Parts: []Part{TextPart(text)}},
			},
			TurnComplete: endOfTurn,
		},
	}
	return s.sendFrame(ctx, "client_content", msg)
}

// CompleteTurn ends the current user turn without sending further content.
func (s *Session) CompleteTurn(ctx context.Context) error {
	if !s.ready("complete_turn") {
		return nil
	}
	msg := &clientMessage{
		ClientContent: &clientContent{TurnComplete: true},
	}
	return s.sendFrame(ctx, "client_content", msg)
}

// SendAudioChunk streams one base64-encoded PCM chunk (16-bit little-endian,
// 16 kHz).
func (s *Session) SendAudioChunk(ctx context.Context, base64PCM string) error {
	return s.SendMediaChunk(ctx, AudioPCMMimeType, base64PCM)
}

// SendImageFrame streams one base64-encoded JPEG frame.
func (s *Session) SendImageFrame(ctx context.Context, base64JPEG string) error {
	return s.SendMediaChunk(ctx, ImageJPEGMimeType, base64JPEG)
}

// SendMediaChunk streams one base64-encoded media chunk with an explicit
// MIME type. When a media rate limit is configured the call waits its turn.
func (s *Session) SendMediaChunk(ctx context.Context, mimeType, base64Data string) error {
	if !s.ready("media") {
		return nil
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("media pacing: %w", err)
		}
	}
	msg := &clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []mediaChunk{{MimeType: mimeType, Data: base64Data}},
		},
	}
	return s.sendFrame(ctx, "realtime_input", msg)
}

// StartActivity marks the beginning of user activity. Only meaningful when
// automatic activity detection is disabled.
func (s *Session) StartActivity(ctx context.Context) error {
	if !s.ready("activity_start") {
		return nil
	}
	msg := &clientMessage{
		RealtimeInput: &realtimeInput{ActivityStart: &struct{}{}},
	}
	return s.sendFrame(ctx, "realtime_input", msg)
}

// EndActivity marks the end of user activity.
func (s *Session) EndActivity(ctx context.Context) error {
	if !s.ready("activity_end") {
		return nil
	}
	msg := &clientMessage{
		RealtimeInput: &realtimeInput{ActivityEnd: &struct{}{}},
	}
	return s.sendFrame(ctx, "realtime_input", msg)
}

// SendToolResult answers one tool call. A result with neither output nor
// error is rejected with ErrInvalidToolResponse regardless of session state:
// the shape itself is a caller contract violation, unlike the timing of the
// other sends.
func (s *Session) SendToolResult(ctx context.Context, result ToolResult) error {
	if result.Output == nil && result.Error == "" {
		return ErrInvalidToolResponse
	}
	if !s.ready("tool_response") {
		return nil
	}

	response := make(map[string]any, 1)
	if result.Error != "" {
		response["error"] = result.Error
	} else {
		response["output"] = result.Output
	}

	msg := &clientMessage{
		ToolResponse: &toolResponse{
			FunctionResponses: []functionResponse{
				{ID: result.ID, Response: response},
			},
		},
	}
	return s.sendFrame(ctx, "tool_response", msg)
}

// ready gates sends on handshake completion. A send before the handshake is
// a caller-timing bug, not a hard failure: it warns and the caller gets nil.
func (s *Session) ready(op string) bool {
	s.mu.Lock()
	done := s.setupDone
	s.mu.Unlock()
	if !done {
		logger.Warn("dropping send before setup completed",
			"session_id", s.id, "operation", op)
		return false
	}
	return true
}

// sendFrame serializes and transmits one outbound envelope. A missing
// transport and a transport that exists but is no longer open are distinct
// failures so log consumers can tell "never connected" from "closing".
func (s *Session) sendFrame(ctx context.Context, frameType string, msg *clientMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	ever := s.everHadConn
	s.mu.Unlock()

	if conn == nil {
		if !ever {
			return ErrTransportAbsent
		}
		return ErrTransportNotOpen
	}
	if !conn.IsConnected() {
		return ErrTransportNotOpen
	}

	if err := conn.SendJSON(msg); err != nil {
		return &TransportError{Op: frameType, Err: err}
	}
	outboundFramesTotal.WithLabelValues(frameType).Inc()
	return nil
}
