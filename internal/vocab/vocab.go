// Package vocab derives a discriminative vocabulary from tagged ham and spam
// messages.
//
// Building a vocabulary happens once per run:
//  1. drop tokens that are not purely alphabetic, are unwanted words
//     (stopwords and names) or are tagged as nouns
//  2. count the remaining lowercased words per class
//  3. discard every word that occurs in both classes
//  4. keep the TopK most frequent words of each class
//
// The resulting Vocabulary is immutable and safe to share between goroutines.
package vocab

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"github.com/chriscorrea/spamsift/internal/freqdist"
	"github.com/chriscorrea/spamsift/internal/nlp"
	"github.com/chriscorrea/spamsift/internal/stoplist"
)

// DefaultTopK is the number of words kept per class when Config.TopK is unset.
const DefaultTopK = 100

var (
	// ErrEmptyCorpus means one class had no messages to learn from.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrInvalidTopK means a negative TopK was configured.
	ErrInvalidTopK = errors.New("top-k must be positive")
)

// Config controls vocabulary construction.
type Config struct {
	TopK     int          // words kept per class (default 100)
	Unwanted stoplist.Set // stopwords and names to exclude
	Stem     bool         // reduce words to snowball stems before counting
}

// Stats describes the distributions a vocabulary was derived from.
type Stats struct {
	HamTokens, SpamTokens       int // tokens seen per class before filtering
	HamWords, SpamWords         int // distinct retained words per class
	HamExclusive, SpamExclusive int // distinct words left after overlap removal
	Shared                      int // distinct words present in both classes
}

// Vocabulary holds the top discriminative words of each class.
// TopHam and TopSpam never share a word.
type Vocabulary struct {
	topHam   map[string]struct{}
	topSpam  map[string]struct{}
	hamRank  []string
	spamRank []string
	stem     bool
	stats    Stats
}

// SkipUnwanted reports whether tok must be left out of the vocabulary: its
// word is not purely alphabetic, its lowercased word is unwanted, or its tag
// marks a noun.
func SkipUnwanted(tok nlp.TaggedToken, unwanted stoplist.Set) bool {
	if !isAlpha(tok.Word) {
		return true
	}
	if unwanted.Contains(strings.ToLower(tok.Word)) {
		return true
	}
	return strings.HasPrefix(tok.Tag, "NN")
}

// Build derives a Vocabulary from the tagged tokens of every ham message and
// every spam message. It fails with ErrEmptyCorpus when either class is empty.
func Build(ham, spam []nlp.TaggedToken, cfg Config) (*Vocabulary, error) {
	if cfg.TopK < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopK, cfg.TopK)
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if len(ham) == 0 {
		return nil, fmt.Errorf("%w: no ham tokens", ErrEmptyCorpus)
	}
	if len(spam) == 0 {
		return nil, fmt.Errorf("%w: no spam tokens", ErrEmptyCorpus)
	}

	// count each class, then drop every word both classes use
	hamDist := retainedDist(ham, cfg)
	spamDist := retainedDist(spam, cfg)
	hamOnly, spamOnly := freqdist.RemoveOverlap(hamDist, spamDist)

	v := &Vocabulary{
		topHam:  make(map[string]struct{}, cfg.TopK),
		topSpam: make(map[string]struct{}, cfg.TopK),
		stem:    cfg.Stem,
		stats: Stats{
			HamTokens:     len(ham),
			SpamTokens:    len(spam),
			HamWords:      hamDist.Len(),
			SpamWords:     spamDist.Len(),
			HamExclusive:  hamOnly.Len(),
			SpamExclusive: spamOnly.Len(),
			Shared:        hamDist.Len() - hamOnly.Len(),
		},
	}
	// keep the top k of what remains, in rank order
	for _, e := range hamOnly.MostCommon(cfg.TopK) {
		v.topHam[e.Word] = struct{}{}
		v.hamRank = append(v.hamRank, e.Word)
	}
	for _, e := range spamOnly.MostCommon(cfg.TopK) {
		v.topSpam[e.Word] = struct{}{}
		v.spamRank = append(v.spamRank, e.Word)
	}

	slog.Info("Vocabulary built",
		"hamWords", v.stats.HamWords, "spamWords", v.stats.SpamWords,
		"shared", v.stats.Shared, "topHam", len(v.hamRank), "topSpam", len(v.spamRank))
	return v, nil
}

// retainedDist counts the normalized words of every token SkipUnwanted keeps.
func retainedDist(tokens []nlp.TaggedToken, cfg Config) *freqdist.Dist {
	d := freqdist.New()
	for _, tok := range tokens {
		if SkipUnwanted(tok, cfg.Unwanted) {
			continue
		}
		d.Add(normalize(tok.Word, cfg.Stem))
	}
	return d
}

// Normalize maps a word to the form stored in the vocabulary.
// Feature extraction must compare words through Normalize.
func (v *Vocabulary) Normalize(word string) string {
	return normalize(word, v.stem)
}

// HasHam reports whether the normalized word is a top ham word.
func (v *Vocabulary) HasHam(word string) bool {
	_, ok := v.topHam[v.Normalize(word)]
	return ok
}

// HasSpam reports whether the normalized word is a top spam word.
func (v *Vocabulary) HasSpam(word string) bool {
	_, ok := v.topSpam[v.Normalize(word)]
	return ok
}

// HamWords returns the top ham words, most frequent first.
func (v *Vocabulary) HamWords() []string {
	return append([]string(nil), v.hamRank...)
}

// SpamWords returns the top spam words, most frequent first.
func (v *Vocabulary) SpamWords() []string {
	return append([]string(nil), v.spamRank...)
}

// Stats returns counts gathered while building the vocabulary.
func (v *Vocabulary) Stats() Stats {
	return v.stats
}

// FromWords builds a Vocabulary directly from word lists. Words are
// normalized but not filtered; words present in both lists are dropped.
func FromWords(ham, spam []string, stem bool) *Vocabulary {
	hamDist := freqdist.New()
	for _, w := range ham {
		hamDist.Add(normalize(w, stem))
	}
	spamDist := freqdist.New()
	for _, w := range spam {
		spamDist.Add(normalize(w, stem))
	}
	hamOnly, spamOnly := freqdist.RemoveOverlap(hamDist, spamDist)

	v := &Vocabulary{
		topHam:  make(map[string]struct{}),
		topSpam: make(map[string]struct{}),
		stem:    stem,
	}
	for _, e := range hamOnly.Entries() {
		v.topHam[e.Word] = struct{}{}
		v.hamRank = append(v.hamRank, e.Word)
	}
	for _, e := range spamOnly.Entries() {
		v.topSpam[e.Word] = struct{}{}
		v.spamRank = append(v.spamRank, e.Word)
	}
	return v
}

// Restore rebuilds a Vocabulary from ranked word lists taken from HamWords and
// SpamWords. The words are already normalized and are stored unchanged.
func Restore(ham, spam []string, stem bool) (*Vocabulary, error) {
	v := &Vocabulary{
		topHam:   make(map[string]struct{}, len(ham)),
		topSpam:  make(map[string]struct{}, len(spam)),
		hamRank:  append([]string(nil), ham...),
		spamRank: append([]string(nil), spam...),
		stem:     stem,
	}
	for _, w := range ham {
		v.topHam[w] = struct{}{}
	}
	for _, w := range spam {
		if _, dup := v.topHam[w]; dup {
			return nil, fmt.Errorf("vocabulary word %q is listed for both classes", w)
		}
		v.topSpam[w] = struct{}{}
	}
	v.stats.HamExclusive, v.stats.SpamExclusive = len(v.topHam), len(v.topSpam)
	return v, nil
}

// Stemmed reports whether words are reduced to snowball stems.
func (v *Vocabulary) Stemmed() bool {
	return v.stem
}

func normalize(word string, stem bool) string {
	word = strings.ToLower(word)
	if !stem {
		return word
	}
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// sortedKeys is used by String for stable output.
func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String lists both word sets alphabetically.
func (v *Vocabulary) String() string {
	return fmt.Sprintf("ham: %s\nspam: %s",
		strings.Join(sortedKeys(v.topHam), " "),
		strings.Join(sortedKeys(v.topSpam), " "))
}
