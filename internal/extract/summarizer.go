package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/distill/internal/chunker"
)

// ErrNoAPIKey is returned by Init when the client has no API key.
var ErrNoAPIKey = errors.New("anthropic api key not configured")

// ClaudeSummarizer summarizes chapter text with Claude. Long chapters are
// split into chunks, each chunk is summarized, and the partial summaries are
// combined in a final call.
type ClaudeSummarizer struct {
	client        *ClaudeClient
	chunkCfg      chunker.Config
	maxConcurrent int
	log           *slog.Logger
}

func NewClaudeSummarizer(client *ClaudeClient, chunkCfg chunker.Config, maxConcurrent int, log *slog.Logger) *ClaudeSummarizer {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ClaudeSummarizer{client: client, chunkCfg: chunkCfg, maxConcurrent: maxConcurrent, log: log}
}

func (s *ClaudeSummarizer) Name() string { return "claude" }

// Client returns the underlying API client.
func (s *ClaudeSummarizer) Client() *ClaudeClient { return s.client }

func (s *ClaudeSummarizer) Init(_ context.Context) error {
	if s.client == nil || !s.client.HasKey() {
		return ErrNoAPIKey
	}
	if s.client.Model() == "" {
		return errors.New("anthropic model not configured")
	}
	return nil
}

func (s *ClaudeSummarizer) Summarize(ctx context.Context, text string, n int) ([]string, error) {
	chunks := chunker.Split(text, "", s.chunkCfg)
	if len(chunks) == 0 {
		return nil, errors.New("no text to summarize")
	}

	if len(chunks) == 1 {
		return s.call(ctx, BuildChunkPrompt("", 0, 1, chunks[0].Text, n), n)
	}

	partials, err := s.summarizeChunks(ctx, chunks, n)
	if err != nil {
		return nil, err
	}
	return s.call(ctx, BuildCombinePrompt("", partials, n), n)
}

// summarizeChunks runs one prompt per chunk with bounded concurrency and
// returns the partial sentences in chunk order.
func (s *ClaudeSummarizer) summarizeChunks(ctx context.Context, chunks []chunker.Chunk, n int) ([]string, error) {
	type chunkResult struct {
		sentences []string
		err       error
		idx       int
	}
	results := make(chan chunkResult, len(chunks))
	sem := make(chan struct{}, s.maxConcurrent)

	for _, chunk := range chunks {
		sem <- struct{}{}
		go func(chunk chunker.Chunk) {
			defer func() { <-sem }()
			prompt := BuildChunkPrompt(chunk.Chapter, chunk.Index, len(chunks), chunk.Text, n)
			out, err := s.call(ctx, prompt, n)
			results <- chunkResult{sentences: out, err: err, idx: chunk.Index}
		}(chunk)
	}

	byIndex := make([][]string, len(chunks))
	var errs []error
	for range chunks {
		r := <-results
		if r.err != nil {
			s.log.Warn("chunk summary failed", "chunk", r.idx, "error", r.err)
			errs = append(errs, fmt.Errorf("chunk %d: %w", r.idx, r.err))
			continue
		}
		byIndex[r.idx] = r.sentences
	}

	var partials []string
	for _, ss := range byIndex {
		partials = append(partials, ss...)
	}
	if len(partials) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, errors.New("no chunk produced a summary")
	}
	return partials, nil
}

func (s *ClaudeSummarizer) call(ctx context.Context, prompt string, n int) ([]string, error) {
	onRetry := func(attempt int, err error) {
		s.log.Warn("retryable summary error", "attempt", attempt, "error", err)
	}
	raw, err := withRetry(ctx, onRetry, func() ([]string, error) {
		return s.client.CompleteSentences(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}
	out := cleanSentences(raw, n)
	if len(out) == 0 {
		return nil, errors.New("model returned no usable sentences")
	}
	return out, nil
}
