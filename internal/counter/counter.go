// Package counter measures message length in words, characters or
// tiktoken tokens. It backs the message_length feature.
package counter

import (
	"fmt"
	"strings"
)

// Counter counts length units in a text.
type Counter interface {
	// Count returns the number of units in text.
	Count(text string) int

	// Name returns a human-readable name for the unit (for logging).
	Name() string
}

// CountingMethod selects a Counter implementation.
type CountingMethod int

const (
	// Words splits on Unicode whitespace (default)
	Words CountingMethod = iota
	// Characters counts runes
	Characters
	// Tokens uses tiktoken with cl100k_base encoding
	Tokens
)

// String returns the configuration name of the method.
func (cm CountingMethod) String() string {
	switch cm {
	case Words:
		return "words"
	case Characters:
		return "characters"
	case Tokens:
		return "tokens"
	default:
		return "unknown"
	}
}

// ParseMethod converts a configuration value into a CountingMethod.
// An empty string selects Words.
func ParseMethod(s string) (CountingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "words", "word":
		return Words, nil
	case "characters", "chars", "char":
		return Characters, nil
	case "tokens", "token":
		return Tokens, nil
	default:
		return Words, fmt.Errorf("unknown counting method %q", s)
	}
}

// NewCounter returns the Counter for method. Only token counting can fail,
// when the tiktoken encoding cannot be loaded.
func NewCounter(method CountingMethod) (Counter, error) {
	switch method {
	case Words:
		return NewWordCounter(), nil
	case Characters:
		return NewCharCounter(), nil
	case Tokens:
		return NewTokenCounter()
	default:
		return nil, fmt.Errorf("unsupported counting method %d", int(method))
	}
}
