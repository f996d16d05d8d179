// Package config handles loading and validating the interviewcoach configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Capture modes for the answer recorder.
const (
	CaptureUpload = "upload"
	CaptureLive   = "live"
)

// Answer policies decide how a transcription competes with typed text.
const (
	PolicyPreferAudio  = "prefer_audio"
	PolicyManualAccept = "manual_accept"
)

// Config is the root configuration for the interviewcoach server.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Transports  TransportsConfig  `mapstructure:"transports"`
	UI          UIConfig          `mapstructure:"ui"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	Capture     CaptureConfig     `mapstructure:"capture"`
	Coach       CoachConfig       `mapstructure:"coach"`
	TTS         TTSConfig         `mapstructure:"tts"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port" validate:"min=1,max=65535"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// HTTPConfig configures the web UI and JSON API.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
}

// UIConfig selects the capture variant presented to the user.
type UIConfig struct {
	CaptureMode  string `mapstructure:"capture_mode" validate:"oneof=upload live"`
	AnswerPolicy string `mapstructure:"answer_policy" validate:"oneof=prefer_audio manual_accept"`
	KitFile      string `mapstructure:"kit_file"` // empty means the embedded kit
}

// TranscriberConfig selects and configures the speech-to-text backend.
type TranscriberConfig struct {
	Backend  string                  `mapstructure:"backend" validate:"oneof=openai local"`
	Language string                  `mapstructure:"language"`
	OpenAI   OpenAITranscriberConfig `mapstructure:"openai"`
	Local    LocalTranscriberConfig  `mapstructure:"local"`
}

// OpenAITranscriberConfig holds settings for an OpenAI-compatible transcription API.
type OpenAITranscriberConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// LocalTranscriberConfig holds settings for a self-hosted whisper-asr-webservice.
type LocalTranscriberConfig struct {
	Endpoint  string        `mapstructure:"endpoint" validate:"required,url"`
	VADFilter bool          `mapstructure:"vad_filter"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// CaptureConfig bounds a live-microphone listen.
type CaptureConfig struct {
	SampleRate      int           `mapstructure:"sample_rate" validate:"min=8000,max=48000"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	PhraseLimit     time.Duration `mapstructure:"phrase_limit" validate:"gt=0"`
	PauseThreshold  time.Duration `mapstructure:"pause_threshold" validate:"gt=0"`
	EnergyThreshold float64       `mapstructure:"energy_threshold" validate:"gte=0"`
}

// CoachConfig points the feedback adapter at an OpenAI-compatible chat endpoint.
// The API key is never configured; the user supplies it per request.
type CoachConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	Model    string        `mapstructure:"model" validate:"required"`
	SiteURL  string        `mapstructure:"site_url"`
	SiteName string        `mapstructure:"site_name"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// TTSConfig configures optional question narration through Piper.
type TTSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true"` // Wyoming TCP endpoint (host:port)
	Voice    string `mapstructure:"voice"`
}

// TelemetryConfig configures the OTLP trace exporter.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	ServiceName string  `mapstructure:"service_name"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./interviewcoach.yaml, ./configs/interviewcoach.yaml,
// /etc/interviewcoach/interviewcoach.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("interviewcoach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/interviewcoach")
	}

	// INTERVIEWCOACH_UI_CAPTURE_MODE, INTERVIEWCOACH_COACH_MODEL, etc.
	v.SetEnvPrefix("INTERVIEWCOACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Transcriber.OpenAI.APIKey = resolveEnvRef(cfg.Transcriber.OpenAI.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("ui.capture_mode", CaptureUpload)
	v.SetDefault("ui.answer_policy", PolicyPreferAudio)
	v.SetDefault("ui.kit_file", "")
	v.SetDefault("transcriber.backend", "openai")
	v.SetDefault("transcriber.language", "en-US")
	v.SetDefault("transcriber.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("transcriber.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("transcriber.openai.model", "whisper-1")
	v.SetDefault("transcriber.openai.timeout", 60*time.Second)
	v.SetDefault("transcriber.local.endpoint", "http://localhost:9000/asr")
	v.SetDefault("transcriber.local.vad_filter", false)
	v.SetDefault("transcriber.local.timeout", 60*time.Second)
	v.SetDefault("capture.sample_rate", 16000)
	v.SetDefault("capture.timeout", 5*time.Second)
	v.SetDefault("capture.phrase_limit", 30*time.Second)
	v.SetDefault("capture.pause_threshold", 800*time.Millisecond)
	v.SetDefault("capture.energy_threshold", 300.0)
	v.SetDefault("coach.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("coach.model", "google/gemini-2.0-flash-001")
	v.SetDefault("coach.site_url", "")
	v.SetDefault("coach.site_name", "Interview Coach")
	v.SetDefault("coach.timeout", 60*time.Second)
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.endpoint", "localhost:10200")
	v.SetDefault("tts.voice", "en_US-lessac-medium")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.service_name", "interviewcoach")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.Transports.HTTP.Enabled && !c.Transports.GRPC.Enabled {
		return fmt.Errorf("invalid config: no transports enabled")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
// An unset variable resolves to the empty string.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
