package nlp

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBigrams(t *testing.T) {
	tests := []struct {
		name string
		seq  []string
		want [][2]string
	}{
		{"empty", nil, nil},
		{"single word", []string{"hello"}, nil},
		{"two words", []string{"win", "now"}, [][2]string{{"win", "now"}}},
		{"three words", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bigrams(tt.seq)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Bigrams(%v) = %v, want %v", tt.seq, got, tt.want)
			}
		})
	}
}

func TestProseTokenize(t *testing.T) {
	p := NewProse()
	words := p.Tokenize("Free entry, win big! Win now!")

	joined := strings.Join(words, " ")
	for _, want := range []string{"Free", "entry", "win", "big", "Win", "now"} {
		found := false
		for _, w := range words {
			if w == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Tokenize() = %q, missing word %q", joined, want)
		}
	}

	bangs := 0
	for _, w := range words {
		if w == "!" {
			bangs++
		}
	}
	if bangs != 2 {
		t.Errorf("Tokenize() = %q, want two separate '!' tokens", joined)
	}
}

func TestProseTagFlattensSentences(t *testing.T) {
	p := NewProse()
	tagged := p.Tag("I am home. The dog barked loudly.")

	if len(tagged) < 8 {
		t.Fatalf("Tag() returned %d tokens, want at least 8: %v", len(tagged), tagged)
	}
	for _, tok := range tagged {
		if tok.Tag == "" {
			t.Errorf("Tag() returned untagged token %q", tok.Word)
		}
	}

	var nouns []string
	for _, tok := range tagged {
		if strings.HasPrefix(tok.Tag, "NN") {
			nouns = append(nouns, strings.ToLower(tok.Word))
		}
	}
	if !strings.Contains(strings.Join(nouns, " "), "dog") {
		t.Errorf("Tag() did not tag 'dog' as a noun: %v", tagged)
	}
}

func TestProseReusesModel(t *testing.T) {
	p := NewProse()

	first, err := p.Model()
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	p.Tag("Free entry in 2 a wkly comp to win FA Cup final tkts")
	second, err := p.Model()
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if first != second {
		t.Error("Model() returned a different model after tagging")
	}
}

func TestProseTagManyTexts(t *testing.T) {
	p := NewProse()
	texts := make([]string, 500)
	for i := range texts {
		texts[i] = "Ok lar... Joking wif u oni... see you at home later tonight"
	}

	// decoding the perceptron weights per text takes about 200ms each, so a
	// shared model is the only way this finishes in time
	start := time.Now()
	tagged, err := TagAll(context.Background(), p, texts)
	if err != nil {
		t.Fatalf("TagAll() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Second {
		t.Errorf("tagging %d texts took %v, want under 20s", len(texts), elapsed)
	}
	if len(tagged) < len(texts)*10 {
		t.Errorf("TagAll() returned %d tokens for %d texts", len(tagged), len(texts))
	}
}

func TestTagAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := TagAll(ctx, fakeTagger{}, []string{"a b", "c"}); !errors.Is(err, context.Canceled) {
		t.Errorf("TagAll(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestTagAll(t *testing.T) {
	tagger := fakeTagger{}
	got, err := TagAll(context.Background(), tagger, []string{"a b", "c"})
	if err != nil {
		t.Fatalf("TagAll() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("TagAll() returned %d tokens, want 3", len(got))
	}
	if got[2].Word != "c" {
		t.Errorf("TagAll() last word = %q, want %q", got[2].Word, "c")
	}
}

type fakeTagger struct{}

func (fakeTagger) Tag(text string) []TaggedToken {
	var out []TaggedToken
	for _, w := range strings.Fields(text) {
		out = append(out, TaggedToken{Word: w, Tag: "VB"})
	}
	return out
}
