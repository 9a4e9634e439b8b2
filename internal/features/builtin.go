package features

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/chriscorrea/spamsift/internal/counter"
	"github.com/chriscorrea/spamsift/internal/nlp"
	"github.com/chriscorrea/spamsift/internal/stoplist"
)

// Built-in feature names.
const (
	WordcountHam     = "wordcount_ham"
	WordcountSpam    = "wordcount_spam"
	ExclamationCount = "exclamation_count"
	MessageLength    = "message_length"
	DigitRatio       = "digit_ratio"
	HasURL           = "has_url"
	UppercaseRatio   = "uppercase_ratio"
	StopwordRatio    = "stopword_ratio"
)

func init() {
	Register(WordcountHam, static(WordcountHam, wordcountHam))
	Register(WordcountSpam, static(WordcountSpam, wordcountSpam))
	Register(ExclamationCount, static(ExclamationCount, exclamationCount))
	Register(DigitRatio, static(DigitRatio, digitRatio))
	Register(HasURL, static(HasURL, hasURL))
	Register(UppercaseRatio, static(UppercaseRatio, uppercaseRatio))
	Register(StopwordRatio, func(Options) (Feature, error) {
		stop := stoplist.Stopwords()
		return Func{FeatureName: StopwordRatio, Fn: func(d Doc) int { return stopwordRatio(d, stop) }}, nil
	})
	Register(MessageLength, func(opts Options) (Feature, error) {
		c := opts.Counter
		if c == nil {
			c = counter.NewWordCounter()
		}
		return Func{FeatureName: MessageLength, Fn: func(d Doc) int { return c.Count(d.Text) }}, nil
	})
}

// Func adapts a plain function to the Feature interface.
type Func struct {
	FeatureName string
	Fn          func(Doc) int
}

func (f Func) Name() string    { return f.FeatureName }
func (f Func) Value(d Doc) int { return f.Fn(d) }

func static(name string, fn func(Doc) int) Factory {
	return func(Options) (Feature, error) {
		return Func{FeatureName: name, Fn: fn}, nil
	}
}

// wordcountHam counts adjacent word pairs whose words are both top ham
// words. It is computed the same way for every message, whatever its label.
func wordcountHam(d Doc) int {
	n := 0
	for _, pair := range nlp.Bigrams(d.Words) {
		if d.Vocab.HasHam(pair[0]) && d.Vocab.HasHam(pair[1]) {
			n++
		}
	}
	return n
}

// wordcountSpam is wordcountHam against the top spam words.
func wordcountSpam(d Doc) int {
	n := 0
	for _, pair := range nlp.Bigrams(d.Words) {
		if d.Vocab.HasSpam(pair[0]) && d.Vocab.HasSpam(pair[1]) {
			n++
		}
	}
	return n
}

func exclamationCount(d Doc) int {
	return strings.Count(d.Text, "!")
}

// digitRatio is the share of digits among non-space characters, in tenths.
func digitRatio(d Doc) int {
	var digits, total int
	for _, r := range d.Text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return decile(digits, total)
}

// uppercaseRatio is the share of uppercase letters among letters, in tenths.
func uppercaseRatio(d Doc) int {
	var upper, letters int
	for _, r := range d.Text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return decile(upper, letters)
}

// stopwordRatio is the share of stopwords among the message's words, in tenths.
func stopwordRatio(d Doc, stop stoplist.Set) int {
	n := 0
	for _, w := range d.Words {
		if stop.Contains(w) {
			n++
		}
	}
	return decile(n, len(d.Words))
}

var (
	urlPattern     *regexp.Regexp
	urlPatternOnce sync.Once
)

func getURLPattern() *regexp.Regexp {
	urlPatternOnce.Do(func() {
		urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+|\b[a-z0-9-]+\.(?:com|net|org|biz|info|co\.uk)\b`)
	})
	return urlPattern
}

func hasURL(d Doc) int {
	if getURLPattern().MatchString(d.Text) {
		return 1
	}
	return 0
}

// decile maps num/den to 0..10; an empty denominator is 0.
func decile(num, den int) int {
	if den <= 0 {
		return 0
	}
	v := num * 10 / den
	if v > 10 {
		v = 10
	}
	return v
}
