// Package nlp adapts a natural language toolkit to the tokenizer and
// part-of-speech tagger capabilities the classifier pipeline consumes.
//
// The pipeline only needs three things: splitting text into words, tagging a
// text's words with part-of-speech tags, and forming adjacent word pairs.
// Prose implements the first two on top of github.com/jdkato/prose/v2.
package nlp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jdkato/prose/v2"
)

// TaggedToken is a word with its Penn Treebank part-of-speech tag.
type TaggedToken struct {
	Word string
	Tag  string
}

// Tokenizer splits text into a flat sequence of words and punctuation.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Tagger tags every word of a text. The result is one flat sequence per
// text, regardless of how many sentences the text contains.
type Tagger interface {
	Tag(text string) []TaggedToken
}

// Prose tokenizes and tags text with the prose toolkit. The tagging model is
// decoded once, on first use, and shared by every later call.
type Prose struct {
	modelOnce sync.Once
	model     *prose.Model
	modelErr  error
}

// NewProse returns a Prose adapter. Prose models are embedded in the library,
// so construction never touches the network.
func NewProse() *Prose {
	return &Prose{}
}

// Model returns the shared tagging model, loading it on the first call.
func (p *Prose) Model() (*prose.Model, error) {
	p.modelOnce.Do(func() {
		// an empty document with tagging enabled decodes the perceptron weights
		doc, err := prose.NewDocument("",
			prose.WithSegmentation(false),
			prose.WithExtraction(false),
		)
		if err != nil {
			p.modelErr = fmt.Errorf("failed to load tagging model: %w", err)
			return
		}
		slog.Debug("Tagging model loaded", "model", doc.Model.Name)
		p.model = doc.Model
	})
	return p.model, p.modelErr
}

// Tokenize returns the words of text without tagging them.
func (p *Prose) Tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		slog.Debug("Tokenization failed", "error", err)
		return nil
	}

	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	return words
}

// Tag returns the words of text with their part-of-speech tags.
func (p *Prose) Tag(text string) []TaggedToken {
	tagged, err := p.tag(text)
	if err != nil {
		slog.Debug("Tagging failed", "error", err)
		return nil
	}
	return tagged
}

func (p *Prose) tag(text string) ([]TaggedToken, error) {
	model, err := p.Model()
	if err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text,
		prose.UsingModel(model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to tag text: %w", err)
	}

	tokens := doc.Tokens()
	tagged := make([]TaggedToken, 0, len(tokens))
	for _, tok := range tokens {
		tagged = append(tagged, TaggedToken{Word: tok.Text, Tag: tok.Tag})
	}
	return tagged, nil
}

// TagAll tags every text and concatenates the results into one sequence.
// ctx is checked before each text.
func TagAll(ctx context.Context, tagger Tagger, texts []string) ([]TaggedToken, error) {
	var all []TaggedToken
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tagging interrupted after %d of %d texts: %w", i, len(texts), err)
		}
		all = append(all, tagger.Tag(text)...)
	}
	return all, nil
}

// Bigrams returns every pair of adjacent elements of seq.
// Sequences shorter than two elements have no bigrams.
func Bigrams[T any](seq []T) [][2]T {
	if len(seq) < 2 {
		return nil
	}
	pairs := make([][2]T, 0, len(seq)-1)
	for i := 0; i+1 < len(seq); i++ {
		pairs = append(pairs, [2]T{seq[i], seq[i+1]})
	}
	return pairs
}
