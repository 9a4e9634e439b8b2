package counter

import "strings"

// WordCounter counts whitespace-separated words.
type WordCounter struct{}

// NewWordCounter creates a new WordCounter.
func NewWordCounter() Counter {
	return &WordCounter{}
}

// Count returns the number of whitespace-separated fields in text.
func (wc *WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// Name returns "words".
func (wc *WordCounter) Name() string {
	return "words"
}
