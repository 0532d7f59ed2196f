package live

import "github.com/jayreddin/gemini-2-live-JR/events"

// Named events published on the session's bus.
const (
	// EventError carries an *ErrorData for any transport or auth failure.
	EventError = events.EventType("error")
	// EventAuthFailed fires when a close is classified as a credential
	// rejection. EventDisconnected does not fire for the same close.
	EventAuthFailed = events.EventType("auth_failed")
	// EventDisconnected fires on any non-auth close or transport drop.
	EventDisconnected = events.EventType("disconnected")
	// EventSetupComplete fires once per connection when the handshake
	// acknowledgment arrives.
	EventSetupComplete = events.EventType("setupComplete")
	// EventToolCall carries a *ToolCallData with the full call list.
	EventToolCall = events.EventType("tool_call")
	// EventToolCallCancellation carries a *ToolCallCancellationData.
	EventToolCallCancellation = events.EventType("tool_call_cancellation")
	// EventInterrupted fires when the model's turn was cut off.
	EventInterrupted = events.EventType("interrupted")
	// EventTurnComplete marks the end of the model's turn.
	EventTurnComplete = events.EventType("turn_complete")
	// EventGenerationComplete marks the end of model generation.
	EventGenerationComplete = events.EventType("generation_complete")
	// EventText carries a *TextData per streamed text part.
	EventText = events.EventType("text")
	// EventAudio carries an *AudioData per decoded audio chunk.
	EventAudio = events.EventType("audio")
	// EventContent carries a *ContentData with parts that are neither text
	// nor audio.
	EventContent = events.EventType("content")
	// EventInputTranscription carries a *TranscriptionData of user speech.
	EventInputTranscription = events.EventType("input_transcription")
	// EventOutputTranscription carries a *TranscriptionData of model speech.
	EventOutputTranscription = events.EventType("output_transcription")
	// EventUsage carries a *UsageMetadata token count update.
	EventUsage = events.EventType("usage")
	// EventUnrecognized carries an *UnrecognizedData for diagnostic use.
	EventUnrecognized = events.EventType("unrecognized")
)

// ErrorData is the payload of EventError.
type ErrorData struct {
	Err error
}

// DisconnectData is the payload of EventDisconnected and EventAuthFailed.
type DisconnectData struct {
	Code   int
	Reason string
}

// TextData is the payload of EventText.
type TextData struct {
	Text string
}

// AudioData is the payload of EventAudio; Data holds the decoded bytes.
type AudioData struct {
	MimeType string
	Data     []byte
}

// ContentData is the payload of EventContent: the model-turn parts left over
// after text and audio parts were published on their own events.
type ContentData struct {
	Parts []Part
}

// ToolCallData is the payload of EventToolCall.
type ToolCallData struct {
	Calls []FunctionCall
}

// ToolCallCancellationData is the payload of EventToolCallCancellation.
type ToolCallCancellationData struct {
	IDs []string
}

// TranscriptionData is the payload of the transcription events.
type TranscriptionData struct {
	Text string
}

// UnrecognizedData is the payload of EventUnrecognized: the raw frame that
// decoded into no known variant.
type UnrecognizedData struct {
	Raw []byte
}
