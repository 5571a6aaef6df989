package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/distill/internal/chunker"
)

// Summary fallbacks.
const (
	FallbackLexical = "lexical"
	FallbackClaude  = "claude"
	FallbackNone    = "none"
)

// Mode selects which required-field checks Validate applies.
type Mode int

const (
	ModeCLI Mode = iota
	ModeServer
)

type Config struct {
	Port string `env:"PORT" validate:"required,numeric"`

	// Auth
	DistillAPIKey string `env:"DISTILL_API_KEY"`

	// Claude fallback
	AnthropicAPIKey string  `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string  `env:"ANTHROPIC_MODEL" validate:"required"`
	ClaudeRPS       float64 `env:"CLAUDE_RPS" validate:"gt=0"`
	ChunkTokens     int     `env:"CHUNK_TOKENS" validate:"min=200"`

	// Summaries
	SummaryFallback  string `env:"SUMMARY_FALLBACK" validate:"oneof=lexical claude none"`
	SummarySentences int    `env:"SUMMARY_SENTENCES" validate:"min=1,max=20"`

	// Worker pool
	WorkerCount            int `env:"WORKER_COUNT" validate:"min=1"`
	MaxQueueSize           int `env:"MAX_QUEUE_SIZE" validate:"min=1"`
	MaxConcurrentSummarize int `env:"MAX_CONCURRENT_SUMMARIZE" validate:"min=1"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" validate:"min=1"`

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" validate:"gt=0"`

	// Storage and intake
	CacheDir string `env:"CACHE_DIR"`
	WatchDir string `env:"WATCH_DIR"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=json text"`
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DistillAPIKey: os.Getenv("DISTILL_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		ClaudeRPS:       envFloat("CLAUDE_RPS", 2),
		ChunkTokens:     envInt("CHUNK_TOKENS", 3000),

		SummaryFallback:  strings.ToLower(envOr("SUMMARY_FALLBACK", FallbackLexical)),
		SummarySentences: envInt("SUMMARY_SENTENCES", 2),

		WorkerCount:            envInt("WORKER_COUNT", 4),
		MaxQueueSize:           envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentSummarize: envInt("MAX_CONCURRENT_SUMMARIZE", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		CacheDir: envOr("CACHE_DIR", "./data/distill"),
		WatchDir: os.Getenv("WATCH_DIR"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel:  strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envOr("LOG_FORMAT", "json")),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentSummarize <= 0 {
		cfg.MaxConcurrentSummarize = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SummarySentences <= 0 {
		cfg.SummarySentences = 2
	}
	if cfg.ClaudeRPS <= 0 {
		cfg.ClaudeRPS = 2
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}()

// Validate checks field ranges, then the requirements of the given mode and
// of the selected summary fallback.
func (c Config) Validate(mode Mode) error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if mode == ModeServer {
		if c.DistillAPIKey == "" {
			return fmt.Errorf("DISTILL_API_KEY is required")
		}
		if c.CacheDir == "" {
			return fmt.Errorf("CACHE_DIR is required")
		}
	}
	if c.SummaryFallback == FallbackClaude && c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when SUMMARY_FALLBACK=claude")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "min", "gt":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", fe.Field(), fe.Param())
	case "numeric":
		return fe.Field() + " must be numeric"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// ChunkConfig returns the chunker settings for Claude prompts.
func (c Config) ChunkConfig() chunker.Config {
	return chunker.Config{
		ChunkSize:    c.ChunkTokens,
		ChunkOverlap: c.ChunkTokens / 20,
		MinChunk:     50,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
