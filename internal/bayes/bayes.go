// Package bayes trains Naive Bayes classifiers over labeled feature records.
//
// Training counts, for every label, how often each feature took each value.
// Probabilities use expected-likelihood estimation (add one half to every
// count), so values seen with one label but not the other still receive a
// small non-zero likelihood:
//
//	P(label)                = (count(label) + 0.5) / (N + 0.5 * labels)
//	P(value | label, feat)  = (count(label, feat, value) + 0.5) /
//	                          (count(label) + 0.5 * values(feat))
//
// Classification sums log probabilities and picks the most probable label.
// A Model is immutable after Train and safe for concurrent use.
package bayes

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/chriscorrea/spamsift/internal/corpus"
	"github.com/chriscorrea/spamsift/internal/dataset"
	"github.com/chriscorrea/spamsift/internal/features"
)

// smoothing is the pseudo-count added to every observed count.
const smoothing = 0.5

var (
	errEmptyTrainingSet = errors.New("cannot train on an empty feature set")
	// ErrSchemaMismatch means a record does not match the schema a model was trained on.
	ErrSchemaMismatch = errors.New("record schema does not match model")
)

// Model is a trained Naive Bayes classifier.
type Model struct {
	features    []string                       // schema the model was trained on
	labels      []corpus.Label                 // labels seen in training, in corpus.Labels order
	labelCounts map[corpus.Label]int           // examples per label
	valueCounts map[corpus.Label][]map[int]int // label -> feature index -> value -> count
	values      []map[int]struct{}             // feature index -> values seen with any label
	total       int
}

// Train fits a new Model to set. Every call starts from scratch.
func Train(set dataset.Set) (*Model, error) {
	if len(set) == 0 {
		return nil, errEmptyTrainingSet
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training set: %w", err)
	}

	schema := set.Schema()
	width := schema.Len()
	m := &Model{
		features:    schema.Names(),
		labelCounts: make(map[corpus.Label]int),
		valueCounts: make(map[corpus.Label][]map[int]int),
		values:      make([]map[int]struct{}, width),
		total:       len(set),
	}
	for i := range m.values {
		m.values[i] = make(map[int]struct{})
	}

	// tally every (label, feature, value) triple
	for _, e := range set {
		counts, ok := m.valueCounts[e.Label]
		if !ok {
			counts = make([]map[int]int, width)
			for i := range counts {
				counts[i] = make(map[int]int)
			}
			m.valueCounts[e.Label] = counts
		}
		m.labelCounts[e.Label]++
		for i := 0; i < width; i++ {
			v := e.Features.At(i)
			counts[i][v]++
			m.values[i][v] = struct{}{}
		}
	}

	// labels in stable order, so ties resolve the same way every run
	for _, l := range corpus.Labels {
		if m.labelCounts[l] > 0 {
			m.labels = append(m.labels, l)
		}
	}

	slog.Debug("Naive Bayes model trained", "examples", m.total,
		"ham", m.labelCounts[corpus.Ham], "spam", m.labelCounts[corpus.Spam], "features", m.features)
	return m, nil
}

// Features returns the feature names the model was trained on.
func (m *Model) Features() []string {
	return append([]string(nil), m.features...)
}

// Labels returns the labels seen during training.
func (m *Model) Labels() []corpus.Label {
	return append([]corpus.Label(nil), m.labels...)
}

// Prior returns P(label).
func (m *Model) Prior(label corpus.Label) float64 {
	return (float64(m.labelCounts[label]) + smoothing) /
		(float64(m.total) + smoothing*float64(len(m.labels)))
}

// likelihood returns P(value | label) for the feature at index i.
func (m *Model) likelihood(label corpus.Label, i, value int) float64 {
	counts := m.valueCounts[label]
	c := 0
	if counts != nil {
		c = counts[i][value]
	}
	return (float64(c) + smoothing) /
		(float64(m.labelCounts[label]) + smoothing*float64(len(m.values[i])))
}

// Likelihood returns P(feature = value | label), or false for an unknown feature.
func (m *Model) Likelihood(label corpus.Label, feature string, value int) (float64, bool) {
	for i, name := range m.features {
		if name == feature {
			return m.likelihood(label, i, value), true
		}
	}
	return 0, false
}

func (m *Model) checkSchema(rec features.Record) error {
	schema := rec.Schema()
	if schema == nil || schema.Len() != len(m.features) {
		return fmt.Errorf("%w: got %v, want %v", ErrSchemaMismatch, schema, m.features)
	}
	for i, name := range schema.Names() {
		if m.features[i] != name {
			return fmt.Errorf("%w: got %v, want %v", ErrSchemaMismatch, schema, m.features)
		}
	}
	return nil
}

// logScores returns log P(label) + Σ log P(value | label) for every label.
func (m *Model) logScores(rec features.Record) []float64 {
	scores := make([]float64, len(m.labels))
	for li, label := range m.labels {
		score := math.Log(m.Prior(label))
		for i := range m.features {
			score += math.Log(m.likelihood(label, i, rec.At(i)))
		}
		scores[li] = score
	}
	return scores
}

// Classify returns the label with the highest posterior probability.
// Ties go to the label listed first in corpus.Labels.
func (m *Model) Classify(rec features.Record) (corpus.Label, error) {
	if err := m.checkSchema(rec); err != nil {
		return "", err
	}

	best := -1
	bestScore := math.Inf(-1)
	for i, s := range m.logScores(rec) {
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return m.labels[best], nil
}

// Posteriors returns the normalized posterior probability of every label.
func (m *Model) Posteriors(rec features.Record) (map[corpus.Label]float64, error) {
	if err := m.checkSchema(rec); err != nil {
		return nil, err
	}

	scores := m.logScores(rec)
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}

	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - maxScore)
	}

	out := make(map[corpus.Label]float64, len(scores))
	for i, s := range scores {
		out[m.labels[i]] = math.Exp(s-maxScore) / sum
	}
	return out, nil
}
