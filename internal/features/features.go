// Package features turns raw message text into fixed-schema numeric records.
//
// Each feature is a named function of the message registered under its name.
// An Extractor is built from a Vocabulary and an ordered list of feature
// names; that list becomes the Schema every Record it produces carries.
// Records from different extractors cannot be mixed by accident: a Record
// only answers for the names in its Schema.
//
// The default schema is wordcount_ham and exclamation_count. Opt-in
// features widen it without any change to dataset assembly or training,
// which only see names and integer values.
package features

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/chriscorrea/spamsift/internal/counter"
	"github.com/chriscorrea/spamsift/internal/nlp"
	"github.com/chriscorrea/spamsift/internal/vocab"
)

// DefaultNames is the schema used when no feature names are configured.
var DefaultNames = []string{WordcountHam, ExclamationCount}

var (
	// ErrUnknownFeature means a feature name was never registered.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrDuplicateFeature means a schema lists the same feature twice.
	ErrDuplicateFeature = errors.New("duplicate feature")
)

// Doc is everything a feature may look at for one message.
type Doc struct {
	Text  string            // raw message text
	Words []string          // tokenizer output for Text
	Vocab *vocab.Vocabulary // shared, read-only
}

// Feature computes one named integer value per message.
type Feature interface {
	Name() string
	Value(d Doc) int
}

// Options carries dependencies some features need at construction.
type Options struct {
	// Counter measures message_length; word counting when nil.
	Counter counter.Counter
}

// Factory builds a Feature from Options.
type Factory func(Options) (Feature, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a feature available by name. It panics when name is empty
// or already registered, as registration happens at init time.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" || factory == nil {
		panic("features: Register called with empty name or nil factory")
	}
	if _, dup := registry[name]; dup {
		panic("features: Register called twice for " + name)
	}
	registry[name] = factory
}

// Registered returns every registered feature name, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckNames verifies that every name is registered and listed once.
func CheckNames(names []string) error {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return fmt.Errorf("%w: %q (available: %s)", ErrUnknownFeature, name, strings.Join(registeredLocked(), ", "))
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateFeature, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func registeredLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extractor maps message text to Records. It holds no mutable state, so one
// Extractor may be shared by concurrent callers.
type Extractor struct {
	vocab     *vocab.Vocabulary
	tokenizer nlp.Tokenizer
	features  []Feature
	schema    *Schema
}

// New builds an Extractor computing the named features, in order. With no
// names it uses DefaultNames.
func New(v *vocab.Vocabulary, tokenizer nlp.Tokenizer, opts Options, names ...string) (*Extractor, error) {
	if v == nil {
		return nil, fmt.Errorf("features: nil vocabulary")
	}
	if tokenizer == nil {
		return nil, fmt.Errorf("features: nil tokenizer")
	}
	if len(names) == 0 {
		names = DefaultNames
	}
	if err := CheckNames(names); err != nil {
		return nil, err
	}
	if opts.Counter == nil {
		opts.Counter = counter.NewWordCounter()
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	feats := make([]Feature, 0, len(names))
	for _, name := range names {
		f, err := registry[name](opts)
		if err != nil {
			return nil, fmt.Errorf("failed to build feature %q: %w", name, err)
		}
		feats = append(feats, f)
	}

	slog.Debug("Feature extractor ready", "features", names)
	return &Extractor{
		vocab:     v,
		tokenizer: tokenizer,
		features:  feats,
		schema:    newSchema(names),
	}, nil
}

// Schema returns the feature names every Record from e carries.
func (e *Extractor) Schema() *Schema {
	return e.schema
}

// Vocabulary returns the vocabulary e closes over.
func (e *Extractor) Vocabulary() *vocab.Vocabulary {
	return e.vocab
}

// Extract computes the Record for text.
func (e *Extractor) Extract(text string) Record {
	doc := Doc{
		Text:  text,
		Words: e.tokenizer.Tokenize(text),
		Vocab: e.vocab,
	}

	values := make([]int, len(e.features))
	for i, f := range e.features {
		values[i] = f.Value(doc)
	}
	return Record{schema: e.schema, values: values}
}
