package live

import (
	"encoding/json"
	"fmt"
)

// Outbound envelopes (BidiGenerateContentClientMessage). Exactly one field
// is set per frame.
type clientMessage struct {
	Setup         *setupPayload  `json:"setup,omitempty"`
	ClientContent *clientContent `json:"clientContent,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *toolResponse  `json:"toolResponse,omitempty"`
}

type clientContent struct {
	Turns        []contentTurn `json:"turns,omitempty"`
	TurnComplete bool          `json:"turnComplete"`
}

type contentTurn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type realtimeInput struct {
	MediaChunks   []mediaChunk `json:"mediaChunks,omitempty"`
	ActivityStart *struct{}    `json:"activityStart,omitempty"`
	ActivityEnd   *struct{}    `json:"activityEnd,omitempty"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type toolResponse struct {
	FunctionResponses []functionResponse `json:"functionResponses"`
}

type functionResponse struct {
	ID       string         `json:"id,omitempty"`
	Response map[string]any `json:"response"`
}

// ServerMessage is a decoded inbound frame (BidiGenerateContentServerMessage).
// At most one of the pointer fields is set; a frame with none set is
// unrecognized and carries only its raw payload.
type ServerMessage struct {
	SetupComplete        *SetupComplete        `json:"setupComplete,omitempty"`
	ServerContent        *ServerContent        `json:"serverContent,omitempty"`
	ToolCall             *ToolCall             `json:"toolCall,omitempty"`
	ToolCallCancellation *ToolCallCancellation `json:"toolCallCancellation,omitempty"`
	UsageMetadata        *UsageMetadata        `json:"usageMetadata,omitempty"`

	raw []byte
}

// SetupComplete acknowledges the setup frame (empty object on the wire).
type SetupComplete struct{}

// UnmarshalJSON accepts any payload shape; the acknowledgment carries no data
// and some server versions encode it as `true` instead of `{}`.
func (s *SetupComplete) UnmarshalJSON(_ []byte) error { return nil }

// ToolCall asks the client to execute one or more functions.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
}

// FunctionCall identifies one requested function execution.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolCallCancellation withdraws previously issued tool calls.
type ToolCallCancellation struct {
	IDs []string `json:"ids,omitempty"`
}

// ServerContent carries incremental model output and turn boundaries.
type ServerContent struct {
	ModelTurn           *ModelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// Transcription is speech-to-text of the user's or model's audio.
type Transcription struct {
	Text string `json:"text,omitempty"`
}

// UsageMetadata reports token consumption for the session so far.
type UsageMetadata struct {
	PromptTokenCount   int `json:"promptTokenCount,omitempty"`
	ResponseTokenCount int `json:"responseTokenCount,omitempty"`
	TotalTokenCount    int `json:"totalTokenCount,omitempty"`
}

// ModelTurn is an ordered sequence of content parts.
type ModelTurn struct {
	Parts []Part `json:"parts,omitempty"`
}

// Part is one content part of a turn. Text and inline data are decoded into
// fields; the raw JSON is retained so parts with unknown shapes round-trip
// losslessly when republished.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`

	raw json.RawMessage
}

// InlineData is base64-encoded media with its MIME type.
type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64
}

// TextPart builds a plain text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// IsText reports whether the part carries text content.
func (p *Part) IsText() bool { return p.Text != "" }

// IsAudio reports whether the part carries inline audio data.
func (p *Part) IsAudio() bool {
	return p.InlineData != nil && isAudioMIME(p.InlineData.MimeType)
}

// Raw returns the part's original wire JSON, or a re-encoding when the part
// was constructed locally.
func (p *Part) Raw() json.RawMessage {
	if p.raw != nil {
		return p.raw
	}
	data, err := json.Marshal(struct {
		Text       string      `json:"text,omitempty"`
		InlineData *InlineData `json:"inlineData,omitempty"`
	}{p.Text, p.InlineData})
	if err != nil {
		return nil
	}
	return data
}

func (p *Part) UnmarshalJSON(data []byte) error {
	type alias struct {
		Text       string      `json:"text,omitempty"`
		InlineData *InlineData `json:"inlineData,omitempty"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.Text = a.Text
	p.InlineData = a.InlineData
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (p Part) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	return json.Marshal(struct {
		Text       string      `json:"text,omitempty"`
		InlineData *InlineData `json:"inlineData,omitempty"`
	}{p.Text, p.InlineData})
}

// Recognized reports whether the frame decoded into a known variant.
func (m *ServerMessage) Recognized() bool {
	return m.SetupComplete != nil ||
		m.ServerContent != nil ||
		m.ToolCall != nil ||
		m.ToolCallCancellation != nil ||
		m.UsageMetadata != nil
}

// Raw returns the original wire payload of the frame.
func (m *ServerMessage) Raw() []byte { return m.raw }

// DecodeServerMessage decodes one inbound frame payload.
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode server message: %w", err)
	}
	msg.raw = append([]byte(nil), data...)
	return &msg, nil
}

// isAudioMIME matches the audio MIME prefix used to partition model-turn parts.
func isAudioMIME(mime string) bool {
	return len(mime) >= 6 && mime[:6] == "audio/"
}
