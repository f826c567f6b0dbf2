package tts

import (
	"strings"
	"unicode"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// LanguageChunk is a run of text classified as a single language.
type LanguageChunk struct {
	Text     string
	Language ttypes.LanguageTag
}

func isJapaneseRune(r rune) bool {
	switch {
	case unicode.Is(unicode.Hiragana, r),
		unicode.Is(unicode.Katakana, r),
		unicode.Is(unicode.Han, r):
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK symbols and punctuation
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // half-width and full-width forms
		return true
	}
	return false
}

func isLatinRune(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// Classify returns the dominant language of text. Japanese wins ties and is
// the default when text has neither Japanese nor Latin letters.
func Classify(text string) ttypes.LanguageTag {
	var ja, latin int
	for _, r := range text {
		switch {
		case isJapaneseRune(r):
			ja++
		case isLatinRune(r):
			latin++
		}
	}
	if ja >= latin {
		return ttypes.LanguageJapanese
	}
	return ttypes.LanguageEnglishUS
}

// classifyRune is Classify for a single character. Characters that are
// neither Japanese nor Latin (digits, spaces, ASCII punctuation) report
// ok=false and take the language of the run they sit in.
func classifyRune(r rune) (ttypes.LanguageTag, bool) {
	switch {
	case isJapaneseRune(r):
		return ttypes.LanguageJapanese, true
	case isLatinRune(r):
		return ttypes.LanguageEnglishUS, true
	}
	return "", false
}

// SplitByLanguage cuts text into chunks of a single language, in order.
// Chunks are trimmed and never empty. Whitespace-only input falls back to a
// single chunk holding the original text.
func SplitByLanguage(text string) []LanguageChunk {
	var (
		chunks  []LanguageChunk
		buf     strings.Builder
		current ttypes.LanguageTag
	)
	flush := func(lang ttypes.LanguageTag) {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, LanguageChunk{Text: s, Language: lang})
		}
		buf.Reset()
	}

	for _, r := range text {
		lang, ok := classifyRune(r)
		if ok && current != "" && lang != current {
			flush(current)
		}
		if ok {
			current = lang
		}
		buf.WriteRune(r)
	}

	if current == "" {
		// Only neutral characters were seen.
		current = Classify(text)
	}
	flush(current)

	if len(chunks) == 0 {
		return []LanguageChunk{{Text: text, Language: Classify(text)}}
	}
	return chunks
}
