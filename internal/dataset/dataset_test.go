package dataset

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/chriscorrea/spamsift/internal/corpus"
	"github.com/chriscorrea/spamsift/internal/features"
	"github.com/chriscorrea/spamsift/internal/vocab"
)

type fieldsTokenizer struct{}

func (fieldsTokenizer) Tokenize(text string) []string { return strings.Fields(text) }

func newExtractor(t *testing.T, names ...string) *features.Extractor {
	t.Helper()
	v := vocab.FromWords([]string{"see", "you", "later"}, []string{"claim", "prize"}, false)
	ex, err := features.New(v, fieldsTokenizer{}, features.Options{}, names...)
	if err != nil {
		t.Fatalf("features.New() unexpected error: %v", err)
	}
	return ex
}

func sampleSet(t *testing.T, n int) Set {
	t.Helper()
	ex := newExtractor(t)
	var c corpus.Corpus
	for i := 0; i < n; i++ {
		label := corpus.Ham
		if i%3 == 0 {
			label = corpus.Spam
		}
		c = append(c, corpus.LabeledText{Text: strings.Repeat("!", i), Label: label})
	}
	set, err := Assemble(ex, c)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	return set
}

func TestAssemble(t *testing.T) {
	ex := newExtractor(t)
	train := corpus.Corpus{
		{Text: "see you later ok!", Label: corpus.Ham},
		{Text: "claim prize now!!", Label: corpus.Spam},
	}
	eval := corpus.Corpus{
		{Text: "ok", Label: corpus.Ham},
	}

	trainSet, err := Assemble(ex, train)
	if err != nil {
		t.Fatalf("Assemble(train) unexpected error: %v", err)
	}
	evalSet, err := Assemble(ex, eval)
	if err != nil {
		t.Fatalf("Assemble(eval) unexpected error: %v", err)
	}

	if len(trainSet) != 2 || trainSet[1].Label != corpus.Spam {
		t.Fatalf("Assemble() = %v", trainSet)
	}
	if got, _ := trainSet[0].Features.Get(features.WordcountHam); got != 2 {
		t.Errorf("wordcount_ham of first example = %d, want 2", got)
	}
	if got, _ := trainSet[1].Features.Get(features.ExclamationCount); got != 2 {
		t.Errorf("exclamation_count of second example = %d, want 2", got)
	}

	if !trainSet.Schema().Equal(evalSet.Schema()) {
		t.Error("sets from the same extractor should share a schema")
	}
	if err := trainSet.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestAssembleRejectsUnknownLabel(t *testing.T) {
	ex := newExtractor(t)
	_, err := Assemble(ex, corpus.Corpus{{Text: "hi", Label: "eggs"}})
	if !errors.Is(err, corpus.ErrUnknownLabel) {
		t.Errorf("Assemble() error = %v, want ErrUnknownLabel", err)
	}
}

func TestValidate(t *testing.T) {
	set := sampleSet(t, 4)

	badLabel := append(Set(nil), set...)
	badLabel[2].Label = "unknown"
	if err := badLabel.Validate(); !errors.Is(err, corpus.ErrUnknownLabel) {
		t.Errorf("Validate() error = %v, want ErrUnknownLabel", err)
	}

	wider := newExtractor(t, features.WordcountHam, features.ExclamationCount, features.WordcountSpam)
	mixed := append(Set(nil), set...)
	mixed = append(mixed, Example{Features: wider.Extract("hi"), Label: corpus.Ham})
	if err := mixed.Validate(); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("Validate() error = %v, want ErrSchemaMismatch", err)
	}

	if err := (Set{}).Validate(); err != nil {
		t.Errorf("Validate() on empty set = %v, want nil", err)
	}
}

func TestSplitSizing(t *testing.T) {
	for n := 0; n <= 21; n++ {
		set := sampleSet(t, n)
		train, test, err := set.Split(0.25)
		if err != nil {
			t.Fatalf("Split() unexpected error: %v", err)
		}
		if len(train) != n/4 {
			t.Errorf("n=%d: train size = %d, want %d", n, len(train), n/4)
		}
		if len(train)+len(test) != n {
			t.Errorf("n=%d: train+test = %d", n, len(train)+len(test))
		}
	}
}

func TestSplitInvalidFraction(t *testing.T) {
	set := sampleSet(t, 4)
	for _, frac := range []float64{0, -0.5, 1.5} {
		if _, _, err := set.Split(frac); !errors.Is(err, ErrInvalidFraction) {
			t.Errorf("Split(%v) error = %v, want ErrInvalidFraction", frac, err)
		}
	}

	train, test, err := set.Split(1)
	if err != nil || len(train) != 4 || len(test) != 0 {
		t.Errorf("Split(1) = %d, %d, %v; want 4, 0, nil", len(train), len(test), err)
	}
}

func TestShuffled(t *testing.T) {
	set := sampleSet(t, 30)
	original := append(Set(nil), set...)

	a := set.Shuffled(NewRand(42))
	b := set.Shuffled(NewRand(42))

	if !reflect.DeepEqual(set, original) {
		t.Error("Shuffled() modified its receiver")
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Shuffled() with the same seed should produce the same order")
	}
	if reflect.DeepEqual(a, set) {
		t.Error("Shuffled() left 30 examples in their original order")
	}

	ham, spam := a.Counts()
	wantHam, wantSpam := set.Counts()
	if ham != wantHam || spam != wantSpam {
		t.Errorf("Shuffled() changed label counts: %d/%d, want %d/%d", ham, spam, wantHam, wantSpam)
	}
}
