package bayes

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/chriscorrea/spamsift/internal/corpus"
)

const persistedModelVersion = 1

var (
	errNilWriter          = errors.New("writer is nil")
	errNilReader          = errors.New("reader is nil")
	errUnsupportedVersion = errors.New("unsupported model version")
	errInvalidModel       = errors.New("invalid persisted model")
)

// modelState is the gob-encoded form of a Model.
type modelState struct {
	Version     int
	Features    []string
	LabelCounts map[corpus.Label]int
	ValueCounts map[corpus.Label][]map[int]int
}

// Save writes the model to w using gob encoding.
func (m *Model) Save(w io.Writer) error {
	if w == nil {
		return errNilWriter
	}
	state := modelState{
		Version:     persistedModelVersion,
		Features:    m.features,
		LabelCounts: m.labelCounts,
		ValueCounts: m.valueCounts,
	}
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Model, error) {
	if r == nil {
		return nil, errNilReader
	}
	var state modelState
	if err := gob.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return fromState(state)
}

func fromState(state modelState) (*Model, error) {
	if state.Version != persistedModelVersion {
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, state.Version)
	}
	width := len(state.Features)
	if width == 0 {
		return nil, fmt.Errorf("%w: no features", errInvalidModel)
	}

	m := &Model{
		features:    state.Features,
		labelCounts: make(map[corpus.Label]int),
		valueCounts: make(map[corpus.Label][]map[int]int),
		values:      make([]map[int]struct{}, width),
	}
	for i := range m.values {
		m.values[i] = make(map[int]struct{})
	}

	for label, n := range state.LabelCounts {
		if !label.Valid() {
			return nil, fmt.Errorf("%w: label %q", errInvalidModel, label)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w: count %d for label %q", errInvalidModel, n, label)
		}
		counts := state.ValueCounts[label]
		if len(counts) != width {
			return nil, fmt.Errorf("%w: %d feature counts for label %q, want %d", errInvalidModel, len(counts), label, width)
		}
		for i, byValue := range counts {
			sum := 0
			for v, c := range byValue {
				if c <= 0 {
					return nil, fmt.Errorf("%w: count %d for %s=%d", errInvalidModel, c, state.Features[i], v)
				}
				sum += c
				m.values[i][v] = struct{}{}
			}
			if sum != n {
				return nil, fmt.Errorf("%w: %s counts sum to %d for label %q, want %d", errInvalidModel, state.Features[i], sum, label, n)
			}
		}
		m.labelCounts[label] = n
		m.valueCounts[label] = counts
		m.total += n
	}
	for _, l := range corpus.Labels {
		if m.labelCounts[l] > 0 {
			m.labels = append(m.labels, l)
		}
	}
	if len(m.labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", errInvalidModel)
	}
	return m, nil
}
