package live

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeServerMessageVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, msg *ServerMessage)
	}{
		{
			name:    "setup complete as object",
			payload: `{"setupComplete":{}}`,
			check: func(t *testing.T, msg *ServerMessage) {
				assert.NotNil(t, msg.SetupComplete)
			},
		},
		{
			name:    "setup complete as bool",
			payload: `{"setupComplete":true}`,
			check: func(t *testing.T, msg *ServerMessage) {
				assert.NotNil(t, msg.SetupComplete)
			},
		},
		{
			name:    "tool call",
			payload: `{"toolCall":{"functionCalls":[{"id":"x","name":"f","args":{"n":1}}]}}`,
			check: func(t *testing.T, msg *ServerMessage) {
				require.NotNil(t, msg.ToolCall)
				require.Len(t, msg.ToolCall.FunctionCalls, 1)
				assert.Equal(t, "f", msg.ToolCall.FunctionCalls[0].Name)
			},
		},
		{
			name:    "tool call cancellation",
			payload: `{"toolCallCancellation":{"ids":["x","y"]}}`,
			check: func(t *testing.T, msg *ServerMessage) {
				require.NotNil(t, msg.ToolCallCancellation)
				assert.Equal(t, []string{"x", "y"}, msg.ToolCallCancellation.IDs)
			},
		},
		{
			name:    "server content",
			payload: `{"serverContent":{"turnComplete":true,"modelTurn":{"parts":[{"text":"hi"}]}}}`,
			check: func(t *testing.T, msg *ServerMessage) {
				require.NotNil(t, msg.ServerContent)
				assert.True(t, msg.ServerContent.TurnComplete)
				require.NotNil(t, msg.ServerContent.ModelTurn)
				assert.Equal(t, "hi", msg.ServerContent.ModelTurn.Parts[0].Text)
			},
		},
		{
			name:    "usage metadata",
			payload: `{"usageMetadata":{"totalTokenCount":7}}`,
			check: func(t *testing.T, msg *ServerMessage) {
				require.NotNil(t, msg.UsageMetadata)
				assert.Equal(t, 7, msg.UsageMetadata.TotalTokenCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, err := DecodeServerMessage([]byte(tt.payload))
			require.NoError(t, err)
			assert.True(t, msg.Recognized())
			tt.check(t, msg)
		})
	}
}

func TestDecodeServerMessageUnrecognized(t *testing.T) {
	t.Parallel()

	msg, err := DecodeServerMessage([]byte(`{"somethingNew":{"a":1}}`))
	require.NoError(t, err)
	assert.False(t, msg.Recognized())
	assert.JSONEq(t, `{"somethingNew":{"a":1}}`, string(msg.Raw()))
}

func TestDecodeServerMessageMalformed(t *testing.T) {
	t.Parallel()

	_, err := DecodeServerMessage([]byte(`{"serverContent"`))
	assert.Error(t, err)
}

func TestPartRoundTripPreservesUnknownFields(t *testing.T) {
	t.Parallel()

	original := `{"executableCode":{"language":"PYTHON","code":"print(1)"}}`
	var part Part
	require.NoError(t, json.Unmarshal([]byte(original), &part))

	assert.False(t, part.IsText())
	assert.False(t, part.IsAudio())

	reencoded, err := json.Marshal(part)
	require.NoError(t, err)
	assert.JSONEq(t, original, string(reencoded))
}

func TestPartClassification(t *testing.T) {
	t.Parallel()

	text := Part{Text: "hello"}
	assert.True(t, text.IsText())
	assert.False(t, text.IsAudio())

	audio := Part{InlineData: &InlineData{MimeType: "audio/pcm;rate=24000", Data: "aGk="}}
	assert.True(t, audio.IsAudio())
	assert.False(t, audio.IsText())

	image := Part{InlineData: &InlineData{MimeType: "image/png", Data: "aGk="}}
	assert.False(t, image.IsAudio())
}

func TestClientMessageEncodesSingleVariant(t *testing.T) {
	t.Parallel()

	msg := &clientMessage{
		ClientContent: &clientContent{
			Turns:        []contentTurn{{Role: "user", Parts: []Part{TextPart("hi")}}},
			TurnComplete: true,
		},
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"clientContent":{"turns":[{"role":"user","parts":[{"text":"hi"}]}],"turnComplete":true}}`,
		string(data))
	assert.NotContains(t, string(data), "setup")
	assert.NotContains(t, string(data), "realtimeInput")
}

func TestRealtimeInputEncoding(t *testing.T) {
	t.Parallel()

	media := &clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []mediaChunk{{MimeType: "audio/pcm;rate=16000", Data: "AAAA"}},
		},
	}
	data, err := json.Marshal(media)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"realtimeInput":{"mediaChunks":[{"mimeType":"audio/pcm;rate=16000","data":"AAAA"}]}}`,
		string(data))

	start := &clientMessage{RealtimeInput: &realtimeInput{ActivityStart: &struct{}{}}}
	data, err = json.Marshal(start)
	require.NoError(t, err)
	assert.JSONEq(t, `{"realtimeInput":{"activityStart":{}}}`, string(data))
}

func TestToolResponseEncoding(t *testing.T) {
	t.Parallel()

	msg := &clientMessage{
		ToolResponse: &toolResponse{
			FunctionResponses: []functionResponse{
				{ID: "t1", Response: map[string]any{"output": "sunny"}},
			},
		},
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"toolResponse":{"functionResponses":[{"id":"t1","response":{"output":"sunny"}}]}}`,
		string(data))
}
