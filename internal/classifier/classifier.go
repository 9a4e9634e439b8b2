// Package classifier pairs a trained model with the feature extractor it was
// trained with, so raw messages can be scored outside the training run.
package classifier

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/chriscorrea/spamsift/internal/bayes"
	"github.com/chriscorrea/spamsift/internal/corpus"
	"github.com/chriscorrea/spamsift/internal/counter"
	"github.com/chriscorrea/spamsift/internal/features"
	"github.com/chriscorrea/spamsift/internal/nlp"
	"github.com/chriscorrea/spamsift/internal/vocab"
)

const persistedVersion = 1

var (
	// ErrSchemaMismatch means the model and extractor disagree on features.
	ErrSchemaMismatch = errors.New("model and extractor use different features")

	errUnsupportedVersion = errors.New("unsupported classifier version")
)

// Classifier labels raw text.
type Classifier struct {
	model  *bayes.Model
	ex     *features.Extractor
	length counter.CountingMethod
}

// Prediction is the outcome of classifying one text.
type Prediction struct {
	Text       string
	Label      corpus.Label
	Posteriors map[corpus.Label]float64
	Evidence   []Evidence // one entry per feature, in schema order
}

// Evidence is the value one feature took and its likelihood under each label.
type Evidence struct {
	Feature     string
	Value       int
	Likelihoods map[corpus.Label]float64
}

// New pairs m with ex. length is the unit ex uses for message_length.
func New(m *bayes.Model, ex *features.Extractor, length counter.CountingMethod) (*Classifier, error) {
	got, want := ex.Schema().Names(), m.Features()
	if !slices.Equal(got, want) {
		return nil, fmt.Errorf("%w: extractor %v, model %v", ErrSchemaMismatch, got, want)
	}
	return &Classifier{model: m, ex: ex, length: length}, nil
}

// Model returns the underlying model.
func (c *Classifier) Model() *bayes.Model {
	return c.model
}

// Classify extracts the features of text and returns the most probable label
// together with the posterior of every label.
func (c *Classifier) Classify(text string) (Prediction, error) {
	rec := c.ex.Extract(text)
	post, err := c.model.Posteriors(rec)
	if err != nil {
		return Prediction{}, err
	}
	label, err := c.model.Classify(rec)
	if err != nil {
		return Prediction{}, err
	}

	pred := Prediction{Text: text, Label: label, Posteriors: post}
	rec.Each(func(name string, value int) {
		ev := Evidence{Feature: name, Value: value, Likelihoods: make(map[corpus.Label]float64)}
		for _, l := range c.model.Labels() {
			ev.Likelihoods[l], _ = c.model.Likelihood(l, name, value)
		}
		pred.Evidence = append(pred.Evidence, ev)
	})
	return pred, nil
}

// state is the gob-encoded form of a Classifier. The model is nested in its
// own encoding so it keeps its version check.
type state struct {
	Version      int
	Model        []byte
	HamWords     []string
	SpamWords    []string
	Stem         bool
	LengthMethod string
}

// Save writes the classifier to w.
func (c *Classifier) Save(w io.Writer) error {
	var model bytes.Buffer
	if err := c.model.Save(&model); err != nil {
		return err
	}

	v := c.ex.Vocabulary()
	st := state{
		Version:      persistedVersion,
		Model:        model.Bytes(),
		HamWords:     v.HamWords(),
		SpamWords:    v.SpamWords(),
		Stem:         v.Stemmed(),
		LengthMethod: c.length.String(),
	}
	if err := gob.NewEncoder(w).Encode(st); err != nil {
		return fmt.Errorf("encode classifier: %w", err)
	}
	return nil
}

// Load reads a classifier written by Save. tokenizer splits texts for
// feature extraction; nil selects the prose tokenizer.
func Load(r io.Reader, tokenizer nlp.Tokenizer) (*Classifier, error) {
	var st state
	if err := gob.NewDecoder(r).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	if st.Version != persistedVersion {
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, st.Version)
	}

	m, err := bayes.Load(bytes.NewReader(st.Model))
	if err != nil {
		return nil, err
	}
	v, err := vocab.Restore(st.HamWords, st.SpamWords, st.Stem)
	if err != nil {
		return nil, fmt.Errorf("restore vocabulary: %w", err)
	}
	method, err := counter.ParseMethod(st.LengthMethod)
	if err != nil {
		return nil, err
	}

	var opts features.Options
	// only message_length needs a counter, and the token counter loads an encoding
	for _, name := range m.Features() {
		if name == features.MessageLength {
			if opts.Counter, err = counter.NewCounter(method); err != nil {
				return nil, err
			}
		}
	}

	if tokenizer == nil {
		tokenizer = nlp.NewProse()
	}
	ex, err := features.New(v, tokenizer, opts, m.Features()...)
	if err != nil {
		return nil, err
	}
	return New(m, ex, method)
}

// SaveFile writes the classifier to path atomically: it writes a temp file in
// the same directory and renames it into place.
func (c *Classifier) SaveFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".spamsift-model-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := c.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadFile reads a classifier from path.
func LoadFile(path string, tokenizer nlp.Tokenizer) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()
	return Load(f, tokenizer)
}
