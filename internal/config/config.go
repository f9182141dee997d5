package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Learning  LearningConfig  `yaml:"learning" mapstructure:"learning"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds reasoning-service settings.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	ScoringModel   string  `yaml:"scoring_model" mapstructure:"scoring_model"`
	EstimatorModel string  `yaml:"estimator_model" mapstructure:"estimator_model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
}

// RetryConfig configures the capacity-failure retry policy.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	MaxBackoffMS     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// InitialBackoff returns the configured initial backoff as a duration.
func (r RetryConfig) InitialBackoff() time.Duration {
	return time.Duration(r.InitialBackoffMS) * time.Millisecond
}

// MaxBackoff returns the configured backoff cap as a duration.
func (r RetryConfig) MaxBackoff() time.Duration {
	return time.Duration(r.MaxBackoffMS) * time.Millisecond
}

// ScoringConfig configures orchestration behavior.
type ScoringConfig struct {
	// MaxContextChars bounds the assembled prompt context before compaction.
	MaxContextChars int `yaml:"max_context_chars" mapstructure:"max_context_chars"`
	// ChunkDelayMS is the fixed pacing between per-category requests in
	// chunked fallback mode.
	ChunkDelayMS int `yaml:"chunk_delay_ms" mapstructure:"chunk_delay_ms"`
}

// ChunkDelay returns the chunk pacing interval.
func (s ScoringConfig) ChunkDelay() time.Duration {
	return time.Duration(s.ChunkDelayMS) * time.Millisecond
}

// LearningConfig configures the historical-decisions store backend.
type LearningConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres | sqlite | memory
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the scoring HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DILIGENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys need a default registered for AutomaticEnv values to
	// survive Unmarshal, so secrets default to empty strings.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.scoring_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.estimator_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 1000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.jitter_fraction", 0.2)
	v.SetDefault("scoring.max_context_chars", 60000)
	v.SetDefault("scoring.chunk_delay_ms", 1500)
	v.SetDefault("learning.driver", "memory")
	v.SetDefault("learning.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
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
