// Package corpus reads labeled SMS corpora.
//
// A corpus is tab-delimited UTF-8 text with one message per line: the first
// field is the label (ham or spam) and the second field is the message text.
// Malformed rows are skipped and reported as warnings rather than counted.
//
// Usage Example:
//
//	c, warnings, err := corpus.Load(ctx, "data/SMSSpamCollection")
//	hamTexts := c.ByLabel(corpus.Ham)
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Label is the binary class of a message.
type Label string

const (
	Ham  Label = "ham"
	Spam Label = "spam"
)

// Labels lists every valid label in a stable order.
var Labels = []Label{Ham, Spam}

// ErrUnknownLabel is returned for labels outside {ham, spam}.
var ErrUnknownLabel = errors.New("unknown label")

// maxLineBytes bounds a single corpus row; SMS messages are far shorter.
const maxLineBytes = 1024 * 1024

// ParseLabel converts a raw label field into a Label.
func ParseLabel(s string) (Label, error) {
	switch l := Label(strings.ToLower(strings.TrimSpace(s))); l {
	case Ham, Spam:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLabel, s)
	}
}

// Valid reports whether l is ham or spam.
func (l Label) Valid() bool {
	return l == Ham || l == Spam
}

func (l Label) String() string {
	return string(l)
}

// LabeledText is one message paired with its label.
type LabeledText struct {
	Text  string
	Label Label
}

// RowWarning records a row that was rejected while reading a corpus.
type RowWarning struct {
	Line   int
	Reason string
	Err    error // wraps ErrUnknownLabel for rows with an unrecognized label
}

func (w RowWarning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

// UnknownLabels counts the warnings caused by a label outside {ham, spam}.
func UnknownLabels(warnings []RowWarning) int {
	n := 0
	for _, w := range warnings {
		if errors.Is(w.Err, ErrUnknownLabel) {
			n++
		}
	}
	return n
}

// Corpus is an ordered collection of labeled messages.
type Corpus []LabeledText

// Read parses a tab-delimited corpus. Rows with a missing field, an unknown
// label or invalid UTF-8 are skipped; each one is returned as a RowWarning
// and logged. Only read failures are returned as errors.
func Read(r io.Reader) (Corpus, []RowWarning, error) {
	var (
		c        Corpus
		warnings []RowWarning
	)

	// long messages exceed the default 64KiB token limit
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		// tolerate CRLF files and blank lines
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// a bad row is reported and skipped, never fatal
		item, err := parseRow(line)
		if err != nil {
			w := RowWarning{Line: lineNo, Reason: err.Error(), Err: err}
			slog.Warn("Skipping malformed corpus row", "line", lineNo, "reason", w.Reason)
			warnings = append(warnings, w)
			continue
		}
		c = append(c, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("failed to read corpus at line %d: %w", lineNo+1, err)
	}

	slog.Debug("Corpus read", "rows", len(c), "skipped", len(warnings))
	return c, warnings, nil
}

var (
	errInvalidUTF8  = errors.New("invalid UTF-8")
	errMissingTab   = errors.New("missing tab separator")
	errMissingLabel = errors.New("missing label field")
	errMissingText  = errors.New("missing text field")
)

// parseRow returns the parsed row, or the reason it was rejected.
func parseRow(line string) (LabeledText, error) {
	if !utf8.ValidString(line) {
		return LabeledText{}, errInvalidUTF8
	}

	// split on the first tab only; the text may contain more
	rawLabel, text, found := strings.Cut(line, "\t")
	if !found {
		return LabeledText{}, errMissingTab
	}
	if strings.TrimSpace(rawLabel) == "" {
		return LabeledText{}, errMissingLabel
	}

	label, err := ParseLabel(rawLabel)
	if err != nil {
		return LabeledText{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return LabeledText{}, errMissingText
	}

	return LabeledText{Text: norm.NFC.String(text), Label: label}, nil
}

// ByLabel returns the texts carrying the given label, in corpus order.
func (c Corpus) ByLabel(label Label) []string {
	var texts []string
	for _, item := range c {
		if item.Label == label {
			texts = append(texts, item.Text)
		}
	}
	return texts
}

// Counts returns the number of ham and spam messages.
func (c Corpus) Counts() (ham, spam int) {
	for _, item := range c {
		switch item.Label {
		case Ham:
			ham++
		case Spam:
			spam++
		}
	}
	return ham, spam
}

// Without returns c minus every message whose text also appears in other,
// along with the number of removed messages. Order is preserved.
func (c Corpus) Without(other Corpus) (Corpus, int) {
	seen := make(map[string]struct{}, len(other))
	for _, item := range other {
		seen[item.Text] = struct{}{}
	}

	kept := make(Corpus, 0, len(c))
	for _, item := range c {
		if _, dup := seen[item.Text]; dup {
			continue
		}
		kept = append(kept, item)
	}
	return kept, len(c) - len(kept)
}
