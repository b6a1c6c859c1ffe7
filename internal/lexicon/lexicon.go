// Package lexicon corrects transcripts so that names the recognizer keeps
// mishearing come out the way they are spelled in the games.
//
// Rules are applied longest phrase first so that a short phrase never
// pre-empts a longer one containing it. Exact non-overlap is not guaranteed:
// a replacement may itself contain a shorter phrase that a later rule then
// rewrites.
package lexicon

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// Rule maps a surface phrase to its canonical replacement.
type Rule struct {
	Phrase      string `yaml:"phrase"`
	Replacement string `yaml:"replacement"`
}

// Lexicon is an ordered set of replacement rules. It is safe for concurrent
// use; Replace swaps the whole rule set at once.
type Lexicon struct {
	rules atomic.Pointer[[]Rule] // sorted, longest phrase first
}

// New builds a lexicon from rules in declaration order.
func New(rules []Rule) *Lexicon {
	l := &Lexicon{}
	l.Replace(rules)
	return l
}

// Replace installs a new rule set.
func (l *Lexicon) Replace(rules []Rule) {
	sorted := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Phrase == "" {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i].Phrase) > utf8.RuneCountInString(sorted[j].Phrase)
	})
	l.rules.Store(&sorted)
}

// Rules returns the active rules in application order.
func (l *Lexicon) Rules() []Rule {
	p := l.rules.Load()
	if p == nil {
		return nil
	}
	out := make([]Rule, len(*p))
	copy(out, *p)
	return out
}

// Len returns the number of active rules.
func (l *Lexicon) Len() int {
	if p := l.rules.Load(); p != nil {
		return len(*p)
	}
	return 0
}

// Normalize applies every rule to text, longest phrase first, replacing all
// occurrences of each phrase.
func (l *Lexicon) Normalize(text string) string {
	p := l.rules.Load()
	if p == nil {
		return text
	}
	for _, r := range *p {
		if strings.Contains(text, r.Phrase) {
			text = strings.ReplaceAll(text, r.Phrase, r.Replacement)
		}
	}
	return text
}

// Markdown renders the active rules as a markdown table.
func (l *Lexicon) Markdown() string {
	var b strings.Builder
	b.WriteString("# Lexicon\n\n")
	fmt.Fprintf(&b, "%d rules, applied longest phrase first.\n\n", l.Len())
	b.WriteString("| Heard | Written |\n|---|---|\n")
	for _, r := range l.Rules() {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(r.Phrase), escapeCell(r.Replacement))
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var speechStripper = strings.NewReplacer(
	"(", "",
	")", "",
	",", "",
	".", "",
	"?", "",
	"!", "",
)

// SanitizeForSpeech removes parentheses and sentence punctuation so the
// synthesizer does not pause on them. Everything else is kept in order.
func SanitizeForSpeech(text string) string {
	return speechStripper.Replace(text)
}

// Words splits text into the words shown on screen.
func Words(text string) []string {
	return strings.Fields(text)
}
