package tts

import (
	"strings"
	"unicode"
)

// sentenceTerminators ends a sentence. Newline is handled separately by the
// segmenter because normalization folds it into a space.
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '．': true,
}

// isTerminatorAt reports whether runes[i] ends a sentence. A '.' between two
// ASCII digits is a decimal point, not a terminator.
func isTerminatorAt(runes []rune, i int) bool {
	r := runes[i]
	if !sentenceTerminators[r] {
		return false
	}
	if r == '.' && i > 0 && i+1 < len(runes) && isASCIIDigit(runes[i-1]) && isASCIIDigit(runes[i+1]) {
		return false
	}
	return true
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Normalize collapses whitespace runs to a single space, puts a space after
// every run of sentence terminators that is directly followed by text, and
// trims the result. It never fails; whitespace-only input yields "".
func Normalize(text string) string {
	runes := []rune(text)

	var b strings.Builder
	b.Grow(len(text))

	space := false
	for i, r := range runes {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)

		if isTerminatorAt(runes, i) && i+1 < len(runes) {
			next := runes[i+1]
			if !unicode.IsSpace(next) && !isTerminatorAt(runes, i+1) {
				space = true
			}
		}
	}

	return b.String()
}
