package corpus_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chriscorrea/spamsift/internal/corpus"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		input   string
		want    corpus.Label
		wantErr bool
	}{
		{"ham", corpus.Ham, false},
		{"spam", corpus.Spam, false},
		{" SPAM ", corpus.Spam, false},
		{"eggs", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := corpus.ParseLabel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, corpus.ErrUnknownLabel) {
					t.Fatalf("ParseLabel(%q) error = %v, want ErrUnknownLabel", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLabel(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRead(t *testing.T) {
	input := strings.Join([]string{
		"ham\tGo until jurong point, crazy..",
		"spam\tFree entry in 2 a wkly comp to win FA Cup final tkts",
		"",
		"ham\tOk lar... Joking wif u oni...\r",
		"eggs\tunknown label row",
		"spam",
		"\tno label here",
		"ham\t   ",
		"spam\tWINNER!! As a valued network customer you have been selected",
	}, "\n")

	c, warnings, err := corpus.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}

	if len(c) != 4 {
		t.Fatalf("Read() returned %d rows, want 4", len(c))
	}
	if c[2].Text != "Ok lar... Joking wif u oni..." {
		t.Errorf("Read() did not strip carriage return: %q", c[2].Text)
	}

	wantLines := []int{5, 6, 7, 8}
	if len(warnings) != len(wantLines) {
		t.Fatalf("Read() returned %d warnings, want %d: %v", len(warnings), len(wantLines), warnings)
	}
	for i, line := range wantLines {
		if warnings[i].Line != line {
			t.Errorf("warning %d on line %d, want %d", i, warnings[i].Line, line)
		}
	}
	if !errors.Is(warnings[0].Err, corpus.ErrUnknownLabel) {
		t.Errorf("warning for %q should wrap ErrUnknownLabel, got %v", "eggs", warnings[0].Err)
	}
	if got := corpus.UnknownLabels(warnings); got != 1 {
		t.Errorf("UnknownLabels() = %d, want 1", got)
	}

	ham, spam := c.Counts()
	if ham != 2 || spam != 2 {
		t.Errorf("Counts() = (%d, %d), want (2, 2)", ham, spam)
	}
}

func TestReadInvalidUTF8(t *testing.T) {
	c, warnings, err := corpus.Read(strings.NewReader("ham\tbad \xff bytes\nham\tfine\n"))
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if len(c) != 1 || len(warnings) != 1 {
		t.Fatalf("Read() = %d rows, %d warnings; want 1, 1", len(c), len(warnings))
	}
	if warnings[0].Reason != "invalid UTF-8" {
		t.Errorf("warning reason = %q, want %q", warnings[0].Reason, "invalid UTF-8")
	}
}

func TestByLabel(t *testing.T) {
	c := corpus.Corpus{
		{Text: "a", Label: corpus.Ham},
		{Text: "b", Label: corpus.Spam},
		{Text: "c", Label: corpus.Ham},
	}

	got := c.ByLabel(corpus.Ham)
	if strings.Join(got, ",") != "a,c" {
		t.Errorf("ByLabel(ham) = %v, want [a c]", got)
	}
	if got := c.ByLabel(corpus.Spam); len(got) != 1 || got[0] != "b" {
		t.Errorf("ByLabel(spam) = %v, want [b]", got)
	}
}

func TestWithout(t *testing.T) {
	train := corpus.Corpus{
		{Text: "see you soon", Label: corpus.Ham},
		{Text: "win cash now", Label: corpus.Spam},
	}
	eval := corpus.Corpus{
		{Text: "win cash now", Label: corpus.Spam},
		{Text: "call me later", Label: corpus.Ham},
		{Text: "see you soon", Label: corpus.Ham},
	}

	kept, removed := eval.Without(train)
	if removed != 2 {
		t.Errorf("Without() removed %d, want 2", removed)
	}
	if len(kept) != 1 || kept[0].Text != "call me later" {
		t.Errorf("Without() kept %v, want only 'call me later'", kept)
	}
	if len(eval) != 3 {
		t.Errorf("Without() modified its receiver")
	}
}
