package chunker

import "strings"

const tokensPerWord = 1.33

// EstimateTokens approximates a token count from the word count.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(int(float64(words)*tokensPerWord), 1)
}
