// Package config loads settings from config.yaml, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvFiles are loaded before the environment is read. Earlier files win.
var EnvFiles = []string{".env.local", ".env"}

// Config is the root configuration.
type Config struct {
	Server      ServerConfig       `yaml:"server" mapstructure:"server"`
	Log         LogConfig          `yaml:"log" mapstructure:"log"`
	OpenAI      OpenAIConfig       `yaml:"openai" mapstructure:"openai"`
	Anthropic   AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	LLM         LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Retry       RetryConfig        `yaml:"retry" mapstructure:"retry"`
	Workflow    WorkflowConfig     `yaml:"workflow" mapstructure:"workflow"`
	Upload      UploadConfig       `yaml:"upload" mapstructure:"upload"`
	Collections []CollectionConfig `yaml:"collections" mapstructure:"collections" validate:"dive"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// OpenAIConfig configures the OpenAI client.
type OpenAIConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Model             string  `yaml:"model" mapstructure:"model" validate:"required"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"min=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"min=0"`
}

// AnthropicConfig configures the optional Claude chat backend.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens" validate:"min=0"`
}

// LLMConfig selects which backend answers plain chat calls.
type LLMConfig struct {
	ChatProvider string `yaml:"chat_provider" mapstructure:"chat_provider" validate:"oneof=openai anthropic"`
}

// RetryConfig configures retries around remote calls. One attempt means no retry.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms" validate:"min=0"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms" validate:"min=0"`
}

// WorkflowConfig tunes the analysis pipeline.
type WorkflowConfig struct {
	ParallelExtractions bool `yaml:"parallel_extractions" mapstructure:"parallel_extractions"`
}

// UploadConfig limits document uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes" validate:"min=1"`
}

// CollectionConfig seeds one collection into the registry at start.
type CollectionConfig struct {
	ID            string `yaml:"id" mapstructure:"id" validate:"required"`
	Name          string `yaml:"name" mapstructure:"name" validate:"required"`
	Description   string `yaml:"description" mapstructure:"description"`
	VectorStoreID string `yaml:"vector_store_id" mapstructure:"vector_store_id" validate:"required"`
}

var validate = validator.New()

// Load reads configuration from file and environment. An empty path looks
// for config.yaml in the working directory.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DOCCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("openai.key", "DOCCHECK_OPENAI_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind openai key")
	}
	if err := v.BindEnv("anthropic.key", "DOCCHECK_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind anthropic key")
	}

	v.SetDefault("server.port", 3000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4.1")
	v.SetDefault("openai.timeout_secs", 120)
	v.SetDefault("openai.requests_per_second", 0)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("llm.chat_provider", "openai")
	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("workflow.parallel_extractions", false)
	v.SetDefault("upload.max_bytes", 50<<20)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and provider keys.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return eris.Wrap(err, "config: validate")
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: rule '%s' (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
		}
		return eris.New("config: " + strings.Join(msgs, "; "))
	}

	if c.LLM.ChatProvider == "anthropic" && c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required when llm.chat_provider is anthropic")
	}
	return nil
}

func loadEnvFiles() error {
	for _, f := range EnvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(err, "config: load %s", f)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
