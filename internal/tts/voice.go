package tts

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// foldCase builds a fresh Caser each call; Casers are stateful.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// MatchVoice returns the first voice whose name contains selector,
// ignoring case.
func MatchVoice(voices []string, selector string) (string, bool) {
	if selector == "" {
		return "", false
	}
	want := foldCase(selector)
	for _, v := range voices {
		if strings.Contains(foldCase(v), want) {
			return v, true
		}
	}
	return "", false
}

// SuggestVoices returns up to n voices that fuzzily resemble selector.
func SuggestVoices(voices []string, selector string, n int) []string {
	matches := fuzzy.Find(foldCase(selector), foldAll(voices))
	out := make([]string, 0, n)
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, voices[m.Index])
	}
	return out
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = foldCase(s)
	}
	return out
}

// SelectVoice switches e to the voice matching selector. With no match the
// engine keeps its current voice and false is returned.
func SelectVoice(e Engine, selector string) bool {
	voices := e.Voices()
	v, ok := MatchVoice(voices, selector)
	if !ok {
		if selector != "" {
			log.Warn("Voice not found, using default",
				"engine", e.Name(),
				"voice", selector,
				"default", e.Voice(),
				"suggestions", SuggestVoices(voices, selector, 3))
		}
		return false
	}

	if err := e.SetVoice(v); err != nil {
		log.Warn("Could not select voice", "engine", e.Name(), "voice", v, "error", err)
		return false
	}
	log.Debug("Selected voice", "engine", e.Name(), "voice", v)
	return true
}
