// Package freqdist counts word occurrences for one class of messages.
//
// A Dist remembers the order in which words were first seen, so ranking by
// frequency breaks ties the same way every time the same words are added in
// the same order.
package freqdist

import "sort"

// Entry is a word and its count.
type Entry struct {
	Word  string
	Count int
}

// Dist is a word frequency distribution.
type Dist struct {
	counts map[string]int
	order  []string // first-insertion order
	total  int
}

// New returns an empty distribution.
func New() *Dist {
	return &Dist{counts: make(map[string]int)}
}

// FromWords builds a distribution from a sequence of words.
func FromWords(words []string) *Dist {
	d := New()
	for _, w := range words {
		d.Add(w)
	}
	return d
}

// Add records one occurrence of word.
func (d *Dist) Add(word string) {
	d.AddN(word, 1)
}

// AddN records n occurrences of word. Non-positive n is ignored.
func (d *Dist) AddN(word string, n int) {
	if n <= 0 {
		return
	}
	if _, seen := d.counts[word]; !seen {
		d.order = append(d.order, word)
	}
	d.counts[word] += n
	d.total += n
}

// Count returns the occurrences of word.
func (d *Dist) Count(word string) int {
	return d.counts[word]
}

// Has reports whether word was seen at least once.
func (d *Dist) Has(word string) bool {
	_, ok := d.counts[word]
	return ok
}

// Len returns the number of distinct words.
func (d *Dist) Len() int {
	return len(d.order)
}

// Total returns the number of recorded occurrences.
func (d *Dist) Total() int {
	return d.total
}

// Entries returns every word with its count in first-insertion order.
func (d *Dist) Entries() []Entry {
	entries := make([]Entry, 0, len(d.order))
	for _, w := range d.order {
		entries = append(entries, Entry{Word: w, Count: d.counts[w]})
	}
	return entries
}

// MostCommon returns the k most frequent words, most frequent first.
// Equal counts keep first-insertion order. k <= 0 returns every word.
func (d *Dist) MostCommon(k int) []Entry {
	entries := d.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if k > 0 && k < len(entries) {
		entries = entries[:k]
	}
	return entries
}

// RemoveOverlap returns copies of a and b without the words they share.
// Neither input is modified.
func RemoveOverlap(a, b *Dist) (*Dist, *Dist) {
	return without(a, b), without(b, a)
}

// without copies d, dropping every word present in other.
func without(d, other *Dist) *Dist {
	out := New()
	for _, w := range d.order {
		if other.Has(w) {
			continue
		}
		out.AddN(w, d.counts[w])
	}
	return out
}
