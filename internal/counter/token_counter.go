package counter

import (
	"fmt"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts cl100k_base tokens. Encoding is read-only after
// construction, so Count is safe for concurrent use.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter loads the cl100k_base encoding. The encoding is fetched
// and cached by tiktoken-go on first use.
func NewTokenCounter() (Counter, error) {
	slog.Debug("Loading cl100k_base encoding")

	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cl100k_base encoding: %w", err)
	}
	return &TokenCounter{encoding: encoding}, nil
}

// Count returns the number of tokens in text.
func (tc *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(tc.encoding.Encode(text, nil, nil))
}

// Name returns the encoding-qualified unit name.
func (tc *TokenCounter) Name() string {
	return "tokens (cl100k_base)"
}
