package tts

import (
	"time"
	"unicode/utf8"
)

// Boundary marks the moment a word starts playing.
type Boundary struct {
	// Index is the word's position in the spoken text.
	Index int
	Word  string
	// Offset is measured from the start of the clip.
	Offset time.Duration
}

// EstimateBoundaries spreads words over d in proportion to their length,
// counting one extra unit per word for the gap that follows it.
func EstimateBoundaries(words []string, d time.Duration) []Boundary {
	if len(words) == 0 {
		return nil
	}

	weights := make([]int, len(words))
	total := 0
	for i, w := range words {
		weights[i] = utf8.RuneCountInString(w) + 1
		total += weights[i]
	}

	out := make([]Boundary, len(words))
	elapsed := 0
	for i, w := range words {
		out[i] = Boundary{
			Index:  i,
			Word:   w,
			Offset: time.Duration(int64(d) * int64(elapsed) / int64(total)),
		}
		elapsed += weights[i]
	}
	return out
}
