package live

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the Gemini Live API WebSocket endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash-exp"

// DefaultVoice is the prebuilt voice used for AUDIO responses when
// Config.Voice is empty.
const DefaultVoice = "Puck"

// Config describes one session. It is supplied at construction, validated
// once, and sent exactly once as the first outbound frame after the
// transport opens.
type Config struct {
	// Endpoint is the WebSocket URL. Defaults to DefaultEndpoint.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Model names the model, with or without the "models/" prefix.
	Model string `yaml:"model,omitempty"`

	// ResponseModalities selects TEXT or AUDIO output. The API accepts a
	// single modality per session; defaults to TEXT.
	ResponseModalities []string `yaml:"response_modalities,omitempty"`

	// Voice selects the prebuilt voice for AUDIO responses.
	Voice string `yaml:"voice,omitempty"`

	// SystemInstruction is prepended to the conversation.
	SystemInstruction string `yaml:"system_instruction,omitempty"`

	// Tools declares functions the model may call.
	Tools []ToolDefinition `yaml:"tools,omitempty"`

	// VAD tunes or disables automatic voice activity detection. When
	// disabled, turn boundaries come from StartActivity/EndActivity.
	VAD *VADConfig `yaml:"vad,omitempty"`

	// SafetySettings adjusts content safety thresholds.
	SafetySettings []SafetySetting `yaml:"safety_settings,omitempty"`

	// HeartbeatInterval is the WebSocket ping cadence; zero disables pings.
	HeartbeatInterval Duration `yaml:"heartbeat_interval,omitempty"`

	// MediaRateLimit caps realtime media frames per second; zero means
	// unlimited.
	MediaRateLimit float64 `yaml:"media_rate_limit,omitempty"`
}

// ToolDefinition declares one callable function.
type ToolDefinition struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any `yaml:"parameters,omitempty"`
}

// VADConfig controls automatic voice activity detection.
type VADConfig struct {
	Disabled                 bool   `yaml:"disabled,omitempty"`
	StartOfSpeechSensitivity string `yaml:"start_of_speech_sensitivity,omitempty"`
	EndOfSpeechSensitivity   string `yaml:"end_of_speech_sensitivity,omitempty"`
	PrefixPaddingMs          int    `yaml:"prefix_padding_ms,omitempty"`
	SilenceDurationMs        int    `yaml:"silence_duration_ms,omitempty"`
}

// SafetySetting adjusts one harm category threshold.
type SafetySetting struct {
	Category  string `yaml:"category" json:"category"`
	Threshold string `yaml:"threshold" json:"threshold"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		var n int64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("duration: expected string or integer, got %q", value.Value)
		}
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

var validModalities = map[string]bool{
	"TEXT":  true,
	"AUDIO": true,
}

// Validate checks the configuration, including each tool's parameter schema.
func (c *Config) Validate() error {
	if len(c.ResponseModalities) > 1 {
		return fmt.Errorf("response_modalities: at most one of TEXT or AUDIO, got %v", c.ResponseModalities)
	}
	for _, m := range c.ResponseModalities {
		if !validModalities[strings.ToUpper(m)] {
			return fmt.Errorf("response_modalities: unknown modality %q", m)
		}
	}
	seen := make(map[string]bool, len(c.Tools))
	for _, tool := range c.Tools {
		if tool.Name == "" {
			return fmt.Errorf("tools: tool with empty name")
		}
		if seen[tool.Name] {
			return fmt.Errorf("tools: duplicate tool %q", tool.Name)
		}
		seen[tool.Name] = true
		if tool.Parameters != nil {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.Parameters)); err != nil {
				return fmt.Errorf("tools: %s: invalid parameter schema: %w", tool.Name, err)
			}
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultEndpoint
}

func (c *Config) modalities() []string {
	if len(c.ResponseModalities) == 0 {
		return []string{"TEXT"}
	}
	out := make([]string, len(c.ResponseModalities))
	for i, m := range c.ResponseModalities {
		out[i] = strings.ToUpper(m)
	}
	return out
}

// modelPath normalizes the model name to the models/{model} form.
func (c *Config) modelPath() string {
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, "models/") {
		return "models/" + model
	}
	return model
}

type setupPayload struct {
	Model                    string           `json:"model"`
	GenerationConfig         map[string]any   `json:"generationConfig"`
	SystemInstruction        map[string]any   `json:"systemInstruction,omitempty"`
	Tools                    []map[string]any `json:"tools,omitempty"`
	RealtimeInputConfig      map[string]any   `json:"realtimeInputConfig,omitempty"`
	SafetySettings           []SafetySetting  `json:"safetySettings,omitempty"`
	InputAudioTranscription  map[string]any   `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription map[string]any   `json:"outputAudioTranscription,omitempty"`
}

// setupMessage builds the first outbound frame.
func (c *Config) setupMessage() *clientMessage {
	setup := &setupPayload{
		Model:            c.modelPath(),
		GenerationConfig: c.generationConfig(),
		SafetySettings:   c.SafetySettings,
	}

	if hasModality(c.modalities(), "AUDIO") {
		// Transcription of both directions is free with audio output.
		setup.InputAudioTranscription = map[string]any{}
		setup.OutputAudioTranscription = map[string]any{}
	}

	if c.SystemInstruction != "" {
		setup.SystemInstruction = map[string]any{
			"parts": []map[string]any{{"text": c.SystemInstruction}},
		}
	}

	if decls := c.functionDeclarations(); len(decls) > 0 {
		setup.Tools = []map[string]any{{"functionDeclarations": decls}}
	}

	if vad := c.vadMap(); len(vad) > 0 {
		setup.RealtimeInputConfig = map[string]any{
			"automaticActivityDetection": vad,
		}
	}

	return &clientMessage{Setup: setup}
}

func (c *Config) generationConfig() map[string]any {
	modalities := c.modalities()
	gen := map[string]any{
		"responseModalities": modalities,
	}
	if hasModality(modalities, "AUDIO") {
		voice := c.Voice
		if voice == "" {
			voice = DefaultVoice
		}
		gen["speechConfig"] = map[string]any{
			"voiceConfig": map[string]any{
				"prebuiltVoiceConfig": map[string]any{
					"voiceName": voice,
				},
			},
		}
	}
	return gen
}

func (c *Config) functionDeclarations() []map[string]any {
	if len(c.Tools) == 0 {
		return nil
	}
	decls := make([]map[string]any, len(c.Tools))
	for i, tool := range c.Tools {
		decl := map[string]any{"name": tool.Name}
		if tool.Description != "" {
			decl["description"] = tool.Description
		}
		if tool.Parameters != nil {
			decl["parameters"] = tool.Parameters
		}
		decls[i] = decl
	}
	return decls
}

func (c *Config) vadMap() map[string]any {
	if c.VAD == nil {
		return nil
	}
	vad := map[string]any{}
	if c.VAD.Disabled {
		vad["disabled"] = true
		return vad
	}
	if c.VAD.StartOfSpeechSensitivity != "" {
		vad["startOfSpeechSensitivity"] = c.VAD.StartOfSpeechSensitivity
	}
	if c.VAD.EndOfSpeechSensitivity != "" {
		vad["endOfSpeechSensitivity"] = c.VAD.EndOfSpeechSensitivity
	}
	if c.VAD.PrefixPaddingMs > 0 {
		vad["prefixPaddingMs"] = c.VAD.PrefixPaddingMs
	}
	if c.VAD.SilenceDurationMs > 0 {
		vad["silenceDurationMs"] = c.VAD.SilenceDurationMs
	}
	return vad
}

func hasModality(modalities []string, want string) bool {
	for _, m := range modalities {
		if m == want {
			return true
		}
	}
	return false
}
