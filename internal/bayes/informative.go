package bayes

import (
	"fmt"
	"sort"

	"github.com/chriscorrea/spamsift/internal/corpus"
)

// Informative describes how strongly one feature value separates labels.
type Informative struct {
	Feature string
	Value   int
	Favors  corpus.Label // label with the highest likelihood for Value
	Against corpus.Label // label with the lowest likelihood for Value
	Ratio   float64      // highest / lowest likelihood
}

func (inf Informative) String() string {
	return fmt.Sprintf("%s = %d  %s : %s = %.1f : 1.0", inf.Feature, inf.Value, inf.Favors, inf.Against, inf.Ratio)
}

// MostInformative returns the n feature values whose likelihood ratio
// between labels is largest, largest first. n <= 0 returns all of them.
// A model trained on a single label has no informative features.
func (m *Model) MostInformative(n int) []Informative {
	if len(m.labels) < 2 {
		return nil
	}

	var out []Informative
	for i, name := range m.features {
		values := make([]int, 0, len(m.values[i]))
		for v := range m.values[i] {
			values = append(values, v)
		}
		sort.Ints(values)

		for _, v := range values {
			inf := Informative{Feature: name, Value: v}
			var maxP, minP float64
			for li, label := range m.labels {
				p := m.likelihood(label, i, v)
				if li == 0 || p > maxP {
					maxP, inf.Favors = p, label
				}
				if li == 0 || p < minP {
					minP, inf.Against = p, label
				}
			}
			if inf.Favors == inf.Against {
				continue
			}
			inf.Ratio = maxP / minP
			out = append(out, inf)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Ratio > out[b].Ratio
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
