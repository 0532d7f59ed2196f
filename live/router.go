package live

import (
	"encoding/base64"

	"github.com/jayreddin/gemini-2-live-JR/events"
	"github.com/jayreddin/gemini-2-live-JR/logger"
)

// router classifies decoded inbound frames and republishes them on the bus.
// It runs on the read-loop goroutine only; a malformed frame is logged and
// skipped, never fatal to the session.
type router struct {
	sessionID string
	bus       *events.Bus

	// setup latches the handshake flag; returns false for duplicates.
	setup func() bool
}

func (r *router) route(data []byte) {
	msg, err := DecodeServerMessage(data)
	if err != nil {
		logger.Warn("skipping malformed inbound frame",
			"session_id", r.sessionID, "error", err, "size", len(data))
		droppedFramesTotal.WithLabelValues("malformed").Inc()
		return
	}

	switch {
	case msg.SetupComplete != nil:
		inboundFramesTotal.WithLabelValues("setup_complete").Inc()
		if !r.setup() {
			logger.Debug("ignoring duplicate setup acknowledgment", "session_id", r.sessionID)
			droppedFramesTotal.WithLabelValues("duplicate_setup").Inc()
			return
		}
		r.publish(EventSetupComplete, nil)

	case msg.ToolCall != nil:
		inboundFramesTotal.WithLabelValues("tool_call").Inc()
		// A tool call is indivisible: the full list goes out in one event.
		r.publish(EventToolCall, &ToolCallData{Calls: msg.ToolCall.FunctionCalls})

	case msg.ToolCallCancellation != nil:
		inboundFramesTotal.WithLabelValues("tool_call_cancellation").Inc()
		r.publish(EventToolCallCancellation, &ToolCallCancellationData{IDs: msg.ToolCallCancellation.IDs})

	case msg.ServerContent != nil:
		inboundFramesTotal.WithLabelValues("server_content").Inc()
		r.routeServerContent(msg.ServerContent)

	case msg.UsageMetadata != nil:
		inboundFramesTotal.WithLabelValues("usage").Inc()
		r.publish(EventUsage, msg.UsageMetadata)

	default:
		inboundFramesTotal.WithLabelValues("unrecognized").Inc()
		logger.Debug("unrecognized inbound frame", "session_id", r.sessionID, "size", len(data))
		r.publish(EventUnrecognized, &UnrecognizedData{Raw: msg.Raw()})
	}
}

func (r *router) routeServerContent(sc *ServerContent) {
	if sc.Interrupted {
		// An interrupted turn carries no usable content.
		r.publish(EventInterrupted, nil)
		return
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		r.publish(EventInputTranscription, &TranscriptionData{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		r.publish(EventOutputTranscription, &TranscriptionData{Text: sc.OutputTranscription.Text})
	}

	if sc.ModelTurn != nil {
		r.routeModelTurn(sc.ModelTurn.Parts)
	}

	if sc.GenerationComplete {
		r.publish(EventGenerationComplete, nil)
	}
	if sc.TurnComplete {
		r.publish(EventTurnComplete, nil)
	}
}

// routeModelTurn partitions the turn's parts into text, audio, and other,
// preserving order within each class. Text parts publish one event each;
// audio parts are base64-decoded per chunk, skipping chunks that fail to
// decode; whatever remains goes out as a single content event so listeners
// never see text or audio duplicated into the generic channel.
func (r *router) routeModelTurn(parts []Part) {
	var others []Part
	for i := range parts {
		p := parts[i]
		switch {
		case p.IsText():
			r.publish(EventText, &TextData{Text: p.Text})

		case p.IsAudio():
			decoded, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				logger.Warn("skipping undecodable audio chunk",
					"session_id", r.sessionID, "mime_type", p.InlineData.MimeType, "error", err)
				continue
			}
			audioBytesTotal.Add(float64(len(decoded)))
			r.publish(EventAudio, &AudioData{MimeType: p.InlineData.MimeType, Data: decoded})

		default:
			others = append(others, p)
		}
	}
	if len(others) > 0 {
		r.publish(EventContent, &ContentData{Parts: others})
	}
}

func (r *router) publish(eventType events.EventType, data any) {
	r.bus.Publish(&events.Event{
		Type:      eventType,
		SessionID: r.sessionID,
		Data:      data,
	})
}
