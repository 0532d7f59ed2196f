package live

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "empty config is valid",
			cfg:  Config{},
		},
		{
			name: "single modality",
			cfg:  Config{ResponseModalities: []string{"AUDIO"}},
		},
		{
			name: "lowercase modality accepted",
			cfg:  Config{ResponseModalities: []string{"text"}},
		},
		{
			name:    "two modalities rejected",
			cfg:     Config{ResponseModalities: []string{"TEXT", "AUDIO"}},
			wantErr: "at most one",
		},
		{
			name:    "unknown modality",
			cfg:     Config{ResponseModalities: []string{"VIDEO"}},
			wantErr: "unknown modality",
		},
		{
			name: "valid tool",
			cfg: Config{Tools: []ToolDefinition{{
				Name: "get_weather",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city": map[string]any{"type": "string"},
					},
				},
			}}},
		},
		{
			name:    "tool without name",
			cfg:     Config{Tools: []ToolDefinition{{Description: "anonymous"}}},
			wantErr: "empty name",
		},
		{
			name: "duplicate tool names",
			cfg: Config{Tools: []ToolDefinition{
				{Name: "f"}, {Name: "f"},
			}},
			wantErr: "duplicate tool",
		},
		{
			name: "invalid parameter schema",
			cfg: Config{Tools: []ToolDefinition{{
				Name:       "bad",
				Parameters: map[string]any{"type": 42},
			}}},
			wantErr: "invalid parameter schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestModelPathNormalization(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: "gemini-2.0-flash-exp"}
	assert.Equal(t, "models/gemini-2.0-flash-exp", cfg.modelPath())

	cfg = Config{Model: "models/gemini-2.0-flash-exp"}
	assert.Equal(t, "models/gemini-2.0-flash-exp", cfg.modelPath())

	cfg = Config{}
	assert.Equal(t, "models/"+DefaultModel, cfg.modelPath())
}

func TestSetupMessageTextDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: "gemini-2.0-flash-exp"}
	data, err := json.Marshal(cfg.setupMessage())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	setup := decoded["setup"].(map[string]any)

	assert.Equal(t, "models/gemini-2.0-flash-exp", setup["model"])
	gen := setup["generationConfig"].(map[string]any)
	assert.Equal(t, []any{"TEXT"}, gen["responseModalities"])
	assert.NotContains(t, gen, "speechConfig", "no voice config for text output")
	assert.NotContains(t, setup, "systemInstruction")
	assert.NotContains(t, setup, "tools")
	assert.NotContains(t, setup, "inputAudioTranscription")
}

func TestSetupMessageAudio(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Model:              "gemini-2.0-flash-exp",
		ResponseModalities: []string{"AUDIO"},
		Voice:              "Kore",
		SystemInstruction:  "You are terse.",
	}
	data, err := json.Marshal(cfg.setupMessage())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	setup := decoded["setup"].(map[string]any)

	gen := setup["generationConfig"].(map[string]any)
	assert.Equal(t, []any{"AUDIO"}, gen["responseModalities"])
	speech := gen["speechConfig"].(map[string]any)
	voice := speech["voiceConfig"].(map[string]any)["prebuiltVoiceConfig"].(map[string]any)
	assert.Equal(t, "Kore", voice["voiceName"])

	assert.Contains(t, setup, "inputAudioTranscription")
	assert.Contains(t, setup, "outputAudioTranscription")

	sys := setup["systemInstruction"].(map[string]any)
	parts := sys["parts"].([]any)
	assert.Equal(t, "You are terse.", parts[0].(map[string]any)["text"])
}

func TestSetupMessageDefaultVoice(t *testing.T) {
	t.Parallel()

	cfg := Config{ResponseModalities: []string{"AUDIO"}}
	gen := cfg.generationConfig()
	speech := gen["speechConfig"].(map[string]any)
	voice := speech["voiceConfig"].(map[string]any)["prebuiltVoiceConfig"].(map[string]any)
	assert.Equal(t, DefaultVoice, voice["voiceName"])
}

func TestSetupMessageTools(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Tools: []ToolDefinition{{
			Name:        "get_weather",
			Description: "Current weather for a city",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"city": map[string]any{"type": "string"},
				},
			},
		}},
	}
	data, err := json.Marshal(cfg.setupMessage())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	setup := decoded["setup"].(map[string]any)

	tools := setup["tools"].([]any)
	require.Len(t, tools, 1)
	decls := tools[0].(map[string]any)["functionDeclarations"].([]any)
	require.Len(t, decls, 1)
	decl := decls[0].(map[string]any)
	assert.Equal(t, "get_weather", decl["name"])
	assert.Equal(t, "Current weather for a city", decl["description"])
	assert.Contains(t, decl, "parameters")
}

func TestSetupMessageVAD(t *testing.T) {
	t.Parallel()

	cfg := Config{
		VAD: &VADConfig{
			StartOfSpeechSensitivity: "START_SENSITIVITY_HIGH",
			SilenceDurationMs:        800,
		},
	}
	data, err := json.Marshal(cfg.setupMessage())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	setup := decoded["setup"].(map[string]any)

	ric := setup["realtimeInputConfig"].(map[string]any)
	vad := ric["automaticActivityDetection"].(map[string]any)
	assert.Equal(t, "START_SENSITIVITY_HIGH", vad["startOfSpeechSensitivity"])
	assert.Equal(t, float64(800), vad["silenceDurationMs"])
	assert.NotContains(t, vad, "disabled")
}

func TestSetupMessageVADDisabled(t *testing.T) {
	t.Parallel()

	cfg := Config{
		VAD: &VADConfig{
			Disabled:          true,
			SilenceDurationMs: 800, // ignored once disabled
		},
	}
	vad := cfg.vadMap()
	assert.Equal(t, map[string]any{"disabled": true}, vad)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "live.yaml")
	content := `
model: gemini-2.0-flash-exp
response_modalities: [AUDIO]
voice: Kore
system_instruction: Keep answers short.
heartbeat_interval: 30s
tools:
  - name: get_weather
    description: Current weather
    parameters:
      type: object
      properties:
        city:
          type: string
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.Model)
	assert.Equal(t, []string{"AUDIO"}, cfg.ResponseModalities)
	assert.Equal(t, "Kore", cfg.Voice)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval.Std())
	require.Len(t, cfg.Tools, 1)
	assert.Equal(t, "get_weather", cfg.Tools[0].Name)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "live.yaml")
	require.NoError(t, os.WriteFile(path, []byte("response_modalities: [TEXT, AUDIO]"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
