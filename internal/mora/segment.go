// Package mora splits input text into fixed-width mora units and resolves
// them against a lexicon.
package mora

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Width is the number of characters in one mora.
const Width = 2

// punctuation is removed before segmentation.
var punctuation = strings.NewReplacer(".", "", ",", "")

// Normalize lowercases text and strips the punctuation set.
func Normalize(text string) string {
	return punctuation.Replace(cases.Lower(language.Und).String(text))
}

// Segment normalizes text and cuts it into consecutive chunks of Width
// characters. The final chunk is shorter when the length is odd. This is
// positional slicing, not a phonological analysis.
func Segment(text string) []string {
	runes := []rune(Normalize(text))
	if len(runes) == 0 {
		return nil
	}

	moras := make([]string, 0, (len(runes)+Width-1)/Width)
	for i := 0; i < len(runes); i += Width {
		end := min(i+Width, len(runes))
		moras = append(moras, string(runes[i:end]))
	}
	return moras
}
