package lexicon

import (
	"strings"
	"testing"
)

func TestNormalize_LongestPhraseFirst(t *testing.T) {
	lex := New([]Rule{
		{"the night", "the Knight"},
		{"the roaring", "the Roaring"},
		{"the Roaring night", "the Roaring Knight"},
	})

	got := lex.Normalize("the roaring night")
	if got == "the Roaring the Knight" {
		t.Fatalf("Shorter rule pre-empted a longer one: %q", got)
	}
	if strings.Contains(got, "the Knight") && strings.Contains(got, "the Roaring the") {
		t.Errorf("Unexpected overlap result %q", got)
	}

	// The longer rule wins outright when its phrase is present.
	if got := lex.Normalize("the Roaring night"); got != "the Roaring Knight" {
		t.Errorf("Expected %q, got %q", "the Roaring Knight", got)
	}
}

func TestNormalize_Scenario(t *testing.T) {
	lex := New([]Rule{{"Chris", "Kris"}})

	normalized := lex.Normalize("Chris is here")
	if normalized != "Kris is here" {
		t.Fatalf("Expected %q, got %q", "Kris is here", normalized)
	}
	if sanitized := SanitizeForSpeech(normalized); sanitized != normalized {
		t.Errorf("Expected sanitize to leave %q unchanged, got %q", normalized, sanitized)
	}

	words := Words(normalized)
	want := []string{"Kris", "is", "here"}
	if len(words) != len(want) {
		t.Fatalf("Expected %d words, got %d", len(want), len(words))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("Word %d: expected %q, got %q", i, want[i], words[i])
		}
	}
}

func TestNormalize_ReplacesEveryOccurrence(t *testing.T) {
	lex := New([]Rule{{"Chris", "Kris"}})

	if got := lex.Normalize("Chris and Chris"); got != "Kris and Kris" {
		t.Errorf("Expected every occurrence replaced, got %q", got)
	}
}

func TestNormalize_IdempotentWithoutPhrases(t *testing.T) {
	lex := Default()

	inputs := []string{
		"",
		"hello world",
		"Kris and Ralsei went to Deltarune",
		"1 2 3 !?",
	}
	for _, in := range inputs {
		once := lex.Normalize(in)
		if twice := lex.Normalize(once); twice != once {
			t.Errorf("Normalize not stable for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_DefaultRules(t *testing.T) {
	lex := Default()

	tests := []struct {
		in   string
		want string
	}{
		{"I love Delta Rune", "I love Deltarune"},
		{"Rosie and Chris", "Ralsei and Kris"},
		{"it's TV time", "it's TV Time!"},
		{"Mr antennas show", "Mr. (Ant) Tenna's show"},
		{"The Roaring night", "the Roaring Knight"},
		{"nothing to fix", "nothing to fix"},
	}
	for _, tt := range tests {
		if got := lex.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestReplace_TiesKeepDeclarationOrder(t *testing.T) {
	lex := New([]Rule{{"abc", "1"}, {"xyz", "2"}, {"ab", "3"}})

	rules := lex.Rules()
	order := []string{"abc", "xyz", "ab"}
	for i, want := range order {
		if rules[i].Phrase != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, rules[i].Phrase)
		}
	}
}

func TestReplace_SkipsEmptyPhrases(t *testing.T) {
	lex := New([]Rule{{"", "boom"}, {"a", "b"}})

	if lex.Len() != 1 {
		t.Errorf("Expected 1 rule, got %d", lex.Len())
	}
	if got := lex.Normalize("a"); got != "b" {
		t.Errorf("Expected %q, got %q", "b", got)
	}
}

func TestSanitizeForSpeech(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mr. (Ant) Tenna's", "Mr Ant Tenna's"},
		{"Hello, world! How are you?", "Hello world How are you"},
		{"TV Time!", "TV Time"},
		{`Toby "Radiation" Fox`, `Toby "Radiation" Fox`},
		{"", ""},
	}
	for _, tt := range tests {
		got := SanitizeForSpeech(tt.in)
		if got != tt.want {
			t.Errorf("SanitizeForSpeech(%q): expected %q, got %q", tt.in, tt.want, got)
		}
		if strings.ContainsAny(got, "(),.?!") {
			t.Errorf("SanitizeForSpeech(%q) left punctuation: %q", tt.in, got)
		}
	}
}

func TestMarkdown(t *testing.T) {
	lex := New([]Rule{{"a|b", "c"}})

	md := lex.Markdown()
	if !strings.Contains(md, `| a\|b | c |`) {
		t.Errorf("Expected escaped table row, got:\n%s", md)
	}
	if !strings.Contains(md, "1 rules") {
		t.Errorf("Expected rule count, got:\n%s", md)
	}
}
