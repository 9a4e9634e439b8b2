// Package dataset pairs extracted feature records with their labels.
package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/chriscorrea/spamsift/internal/corpus"
	"github.com/chriscorrea/spamsift/internal/features"
)

var (
	// ErrEmptySet means an operation needs at least one example.
	ErrEmptySet = errors.New("empty feature set")
	// ErrSchemaMismatch means examples carry records of different schemas.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrInvalidFraction means a split fraction outside (0, 1].
	ErrInvalidFraction = errors.New("split fraction must be in (0, 1]")
)

// Example is one labeled feature record.
type Example struct {
	Features features.Record
	Label    corpus.Label
}

// Set is an ordered sequence of examples sharing one schema.
type Set []Example

// Assemble extracts features for every message of c with ex. Every example
// of the result shares ex's schema. Assembling two corpora with the same
// Extractor yields sets built on the same vocabulary.
func Assemble(ex *features.Extractor, c corpus.Corpus) (Set, error) {
	set := make(Set, 0, len(c))
	for i, item := range c {
		if !item.Label.Valid() {
			return nil, fmt.Errorf("message %d: %w: %q", i, corpus.ErrUnknownLabel, item.Label)
		}
		set = append(set, Example{
			Features: ex.Extract(item.Text),
			Label:    item.Label,
		})
	}

	ham, spam := set.Counts()
	slog.Debug("Feature set assembled", "examples", len(set), "ham", ham, "spam", spam)
	return set, nil
}

// Schema returns the schema of the first example, or nil for an empty set.
func (s Set) Schema() *features.Schema {
	if len(s) == 0 {
		return nil
	}
	return s[0].Features.Schema()
}

// Validate checks that every label is ham or spam and every record shares
// one schema.
func (s Set) Validate() error {
	schema := s.Schema()
	for i, e := range s {
		if !e.Label.Valid() {
			return fmt.Errorf("example %d: %w: %q", i, corpus.ErrUnknownLabel, e.Label)
		}
		if !e.Features.Schema().Equal(schema) {
			return fmt.Errorf("example %d: %w: %s != %s", i, ErrSchemaMismatch, e.Features.Schema(), schema)
		}
	}
	return nil
}

// Counts returns the number of ham and spam examples.
func (s Set) Counts() (ham, spam int) {
	for _, e := range s {
		switch e.Label {
		case corpus.Ham:
			ham++
		case corpus.Spam:
			spam++
		}
	}
	return ham, spam
}

// Shuffled returns a shuffled copy of s; s itself is left untouched.
func (s Set) Shuffled(r *rand.Rand) Set {
	out := append(Set(nil), s...)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Split returns the first floor(len(s)*frac) examples as train and the rest
// as test. Both share s's backing array; callers must not append to them.
func (s Set) Split(frac float64) (train, test Set, err error) {
	if math.IsNaN(frac) || frac <= 0 || frac > 1 {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFraction, frac)
	}
	n := int(math.Floor(float64(len(s)) * frac))
	return s[:n:n], s[n:], nil
}

// NewRand returns a random source. A zero seed draws a fresh, unpredictable
// seed; any other seed makes shuffles reproducible.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
