// Package chunker cuts long chapter text into pieces that fit a model prompt.
package chunker

import (
	"strings"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Chunks smaller than this are merged into their predecessor.
}

// DefaultConfig returns the sizes used for chapter summarization prompts.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    3000,
		ChunkOverlap: 150,
		MinChunk:     50,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = min(d.ChunkOverlap, c.ChunkSize/4)
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// Chunk is one piece of a chapter.
type Chunk struct {
	Text    string
	Index   int
	Chapter string // title of the chapter the text came from
}

// Split breaks chapter text into ordered chunks. Text that fits in one chunk
// is returned whole, whatever its size. A trailing piece below MinChunk is
// folded into the chunk before it.
func Split(text, chapter string, cfg Config) []Chunk {
	cfg = cfg.withDefaults()
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var parts []string
	if EstimateTokens(text) <= cfg.ChunkSize {
		parts = []string{text}
	} else {
		parts = splitText(text, cfg.ChunkSize, cfg.ChunkOverlap)
	}

	if n := len(parts); n > 1 && EstimateTokens(parts[n-1]) < cfg.MinChunk {
		parts[n-2] = parts[n-2] + "\n\n" + parts[n-1]
		parts = parts[:n-1]
	}

	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{Text: p, Index: i, Chapter: chapter}
	}
	return chunks
}

// splitText packs paragraphs into chunks of about targetTokens, carrying
// overlapTokens of trailing words into the next chunk.
func splitText(text string, targetTokens, overlapTokens int) []string {
	var p packer
	p.target, p.overlap, p.sep = targetTokens, overlapTokens, "\n\n"

	for _, para := range splitByParagraphs(text) {
		if EstimateTokens(para) > targetTokens {
			p.flush(false)
			p.result = append(p.result, splitBySentences(para, targetTokens, overlapTokens)...)
			continue
		}
		p.add(para)
	}
	p.flush(false)
	return p.result
}

// splitBySentences breaks one oversized paragraph on sentence boundaries.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	var p packer
	p.target, p.overlap, p.sep = targetTokens, overlapTokens, " "
	for _, sent := range splitSentences(text) {
		p.add(sent)
	}
	p.flush(false)
	return p.result
}

type packer struct {
	target, overlap int
	sep             string

	cur    strings.Builder
	tokens int
	result []string
}

func (p *packer) add(piece string) {
	n := EstimateTokens(piece)
	if p.tokens+n > p.target && p.tokens > 0 {
		p.flush(true)
	}
	if p.cur.Len() > 0 {
		p.cur.WriteString(p.sep)
	}
	p.cur.WriteString(piece)
	p.tokens += n
}

// flush emits the current buffer. With carry, the buffer is restarted with
// the overlap tail of what was emitted.
func (p *packer) flush(carry bool) {
	if p.tokens == 0 {
		return
	}
	out := p.cur.String()
	p.result = append(p.result, out)
	p.cur.Reset()
	p.tokens = 0
	if !carry {
		return
	}
	if tail := overlapText(out, p.overlap); tail != "" {
		p.cur.WriteString(tail)
		p.tokens = EstimateTokens(tail)
	}
}

func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences cuts after terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if next := text[i+1]; next == ' ' || next == '\n' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapText returns roughly the last targetTokens worth of words.
func overlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
