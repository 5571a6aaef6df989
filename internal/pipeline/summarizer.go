package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/distill/internal/config"
	"github.com/dgallion1/distill/internal/extract"
	"github.com/dgallion1/distill/internal/summarize"
)

// NewSummarizer builds the summarizer with the fallback cfg selects. The
// Claude client is returned when the claude fallback is in use so callers can
// report its stats; otherwise it is nil. Init is left to the caller.
func NewSummarizer(cfg config.Config, log *slog.Logger) (*summarize.Summarizer, *extract.ClaudeClient, error) {
	switch cfg.SummaryFallback {
	case config.FallbackLexical, "":
		return summarize.New(summarize.NewLexical(), log), nil, nil
	case config.FallbackNone:
		return summarize.New(nil, log), nil, nil
	case config.FallbackClaude:
		client := extract.NewClaudeClient(extract.ClientConfig{
			APIKey:            cfg.AnthropicAPIKey,
			Model:             cfg.AnthropicModel,
			RequestsPerSecond: cfg.ClaudeRPS,
		})
		fb := extract.NewClaudeSummarizer(client, cfg.ChunkConfig(), cfg.MaxConcurrentSummarize, log)
		return summarize.New(fb, log), client, nil
	}
	return nil, nil, fmt.Errorf("unknown summary fallback %q", cfg.SummaryFallback)
}
