package counter

import (
	"testing"
)

func TestWordCounter(t *testing.T) {
	counter := NewWordCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty string", "", 0},
		{"single word", "hello", 1},
		{"sms", "U dun say so early hor... U c already then say...", 11},
		{"whitespace handling", "  hello \t  world \n ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counter.Count(tt.text); got != tt.expected {
				t.Errorf("WordCounter.Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}

	if counter.Name() != "words" {
		t.Errorf("WordCounter.Name() = %q, want %q", counter.Name(), "words")
	}
}

func TestCharCounter(t *testing.T) {
	counter := NewCharCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty string", "", 0},
		{"ascii", "Ok lar", 6},
		{"pound sign is one rune", "£1000", 5},
		{"emoji", "hi 👋", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counter.Count(tt.text); got != tt.expected {
				t.Errorf("CharCounter.Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestTokenCounter(t *testing.T) {
	counter, err := NewTokenCounter()
	if err != nil {
		// the encoding is downloaded on first use
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}

	if got := counter.Count(""); got != 0 {
		t.Errorf("TokenCounter.Count(\"\") = %d, want 0", got)
	}
	if got := counter.Count("Free entry in 2 a wkly comp"); got <= 0 {
		t.Errorf("TokenCounter.Count() = %d, want positive", got)
	}
	if counter.Name() != "tokens (cl100k_base)" {
		t.Errorf("TokenCounter.Name() = %q", counter.Name())
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    CountingMethod
		wantErr bool
	}{
		{"", Words, false},
		{"words", Words, false},
		{"Chars", Characters, false},
		{"tokens", Tokens, false},
		{"syllables", Words, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewCounter(t *testing.T) {
	tests := []struct {
		method       CountingMethod
		expectedName string
	}{
		{Words, "words"},
		{Characters, "characters"},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			counter, err := NewCounter(tt.method)
			if err != nil {
				t.Fatalf("NewCounter(%v) unexpected error: %v", tt.method, err)
			}
			if counter.Name() != tt.expectedName {
				t.Errorf("NewCounter(%v).Name() = %q, want %q", tt.method, counter.Name(), tt.expectedName)
			}
		})
	}

	if _, err := NewCounter(CountingMethod(999)); err == nil {
		t.Error("NewCounter(999) expected error, got nil")
	}
	if CountingMethod(999).String() != "unknown" {
		t.Errorf("CountingMethod(999).String() = %q, want unknown", CountingMethod(999).String())
	}
}
