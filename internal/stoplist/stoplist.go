// Package stoplist provides the unwanted-word lists used when building a
// vocabulary: English stopwords and common first names. Both lists are
// embedded; extra lists can be loaded from files.
package stoplist

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed data/stopwords.txt
var stopwordsData string

//go:embed data/names.txt
var namesData string

// Set is an immutable set of lowercased words.
type Set struct {
	words map[string]struct{}
}

// New builds a Set from words, lowercasing each one.
func New(words ...string) Set {
	s := Set{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			s.words[w] = struct{}{}
		}
	}
	return s
}

// Stopwords returns the embedded English stopword list.
func Stopwords() Set {
	return mustParse(stopwordsData)
}

// Names returns the embedded first-name list.
func Names() Set {
	return mustParse(namesData)
}

// Default returns stopwords ∪ names.
func Default() Set {
	return Stopwords().Union(Names())
}

// Contains reports whether the lowercased word is in the set.
func (s Set) Contains(word string) bool {
	_, ok := s.words[strings.ToLower(word)]
	return ok
}

// Len returns the number of words in the set.
func (s Set) Len() int {
	return len(s.words)
}

// Union returns a new set holding the words of s and other.
func (s Set) Union(other Set) Set {
	out := Set{words: make(map[string]struct{}, len(s.words)+len(other.words))}
	for w := range s.words {
		out.words[w] = struct{}{}
	}
	for w := range other.words {
		out.words[w] = struct{}{}
	}
	return out
}

// Words returns the set contents sorted alphabetically.
func (s Set) Words() []string {
	words := make([]string, 0, len(s.words))
	for w := range s.words {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Read parses one word per line. Blank lines and lines starting with '#'
// are ignored.
func Read(r io.Reader) (Set, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return Set{}, fmt.Errorf("failed to read word list: %w", err)
	}
	return New(words...), nil
}

// LoadFile reads a word list from path.
func LoadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to open word list %q: %w", path, err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return Set{}, fmt.Errorf("word list %q: %w", path, err)
	}
	return s, nil
}

func mustParse(data string) Set {
	s, err := Read(strings.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("stoplist: embedded list is unreadable: %v", err))
	}
	return s
}
