package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

func getEncoding() *tiktoken.Tiktoken {
	encodingOnce.Do(func() {
		// cl100k_base covers the GPT-4 family and is close enough for
		// budget accounting on other providers.
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		encoding = enc
	})
	return encoding
}

// CountTokens returns the token count for text. When the encoding cannot be
// loaded (offline environments), a bytes/4 estimate is used instead.
func CountTokens(text string) int {
	if enc := getEncoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// ClampTokens truncates text to at most maxTokens tokens. Oversized page
// element listings are clamped before prompt assembly so a single huge page
// cannot blow the model's context window.
func ClampTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	enc := getEncoding()
	if enc == nil {
		limit := maxTokens * 4
		if len(text) <= limit {
			return text
		}
		return text[:limit]
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
