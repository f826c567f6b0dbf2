package tts

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// ScoreWeights are the terms of the fallback voice score.
type ScoreWeights struct {
	ExactLanguage  int `yaml:"exact_language" mapstructure:"exact_language"`
	LanguagePrefix int `yaml:"language_prefix" mapstructure:"language_prefix"`
	Local          int `yaml:"local" mapstructure:"local"`
	Marker         int `yaml:"marker" mapstructure:"marker"`
	Premium        int `yaml:"premium" mapstructure:"premium"`
	Compact        int `yaml:"compact" mapstructure:"compact"` // subtracted
}

// DefaultScoreWeights returns the stock weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		ExactLanguage:  3,
		LanguagePrefix: 1,
		Local:          1,
		Marker:         2,
		Premium:        2,
		Compact:        1,
	}
}

// Default preference lists, in strict priority order.
var (
	japanesePreferences = []string{
		"Kyoko", "O-ren", "Otoya", "Google 日本語",
		"Microsoft Nanami", "Haruka", "Ayumi", "premium", "enhanced",
	}

	englishPreferences = []string{
		"Samantha", "Alex", "Ava", "Google US English",
		"Microsoft Aria", "Jenny", "Zira", "premium", "enhanced",
	}

	genericPreferences = []string{
		"Google", "Microsoft", "Apple", "premium", "enhanced", "natural", "neural",
	}

	// qualityMarkers are vendor and quality words that earn the marker bonus.
	qualityMarkers = []string{
		"google", "microsoft", "apple", "enhanced", "natural", "neural", "siri",
	}
)

// VoiceSelector picks the best available voice for a language.
type VoiceSelector struct {
	preferences map[string][]string // keyed by two-letter prefix
	weights     ScoreWeights
}

// NewVoiceSelector returns a selector with the stock preference lists and
// weights.
func NewVoiceSelector() *VoiceSelector {
	return &VoiceSelector{
		preferences: map[string][]string{
			"ja": japanesePreferences,
			"en": englishPreferences,
		},
		weights: DefaultScoreWeights(),
	}
}

// WithPreferences replaces the preference list for a language prefix.
func (s *VoiceSelector) WithPreferences(lang string, prefs []string) *VoiceSelector {
	if len(prefs) == 0 {
		return s
	}
	s.preferences[languagePrefix(ttypes.LanguageTag(lang))] = prefs
	return s
}

// WithWeights replaces the fallback score weights.
func (s *VoiceSelector) WithWeights(w ScoreWeights) *VoiceSelector {
	s.weights = w
	return s
}

// Preferences returns the preference list used for lang.
func (s *VoiceSelector) Preferences(lang ttypes.LanguageTag) []string {
	if prefs, ok := s.preferences[languagePrefix(lang)]; ok {
		return prefs
	}
	return genericPreferences
}

// Pick returns the voice to use for lang, or nil to let the engine fall back
// to its own default. It never fails.
func (s *VoiceSelector) Pick(lang ttypes.LanguageTag, roster []ttypes.Voice) *ttypes.Voice {
	if len(roster) == 0 {
		return nil
	}

	prefix := languagePrefix(lang)
	for _, pref := range s.Preferences(lang) {
		needle := strings.ToLower(pref)
		for i := range roster {
			v := roster[i]
			if languagePrefix(v.Language) != prefix {
				continue
			}
			if strings.Contains(strings.ToLower(v.Name), needle) {
				return &v
			}
		}
	}

	best := 0
	bestScore := s.Score(roster[0], lang)
	for i := 1; i < len(roster); i++ {
		if sc := s.Score(roster[i], lang); sc > bestScore {
			best, bestScore = i, sc
		}
	}
	v := roster[best]
	return &v
}

// Score rates how well a voice fits lang when no preference matched.
func (s *VoiceSelector) Score(v ttypes.Voice, lang ttypes.LanguageTag) int {
	w := s.weights
	name := strings.ToLower(v.Name)

	score := 0
	if canonicalTag(v.Language) == canonicalTag(lang) {
		score += w.ExactLanguage
	}
	if languagePrefix(v.Language) == languagePrefix(lang) {
		score += w.LanguagePrefix
	}
	if v.IsLocal {
		score += w.Local
	}
	for _, m := range qualityMarkers {
		if strings.Contains(name, m) {
			score += w.Marker
			break
		}
	}
	if strings.Contains(name, "premium") {
		score += w.Premium
	}
	if strings.Contains(name, "compact") {
		score -= w.Compact
	}
	return score
}

// canonicalTag normalizes a tag so "ja_JP", "ja-jp" and "ja-JP" compare
// equal. Tags that do not parse are compared lower-cased.
func canonicalTag(tag ttypes.LanguageTag) string {
	s := strings.ReplaceAll(strings.TrimSpace(string(tag)), "_", "-")
	t, err := language.Parse(s)
	if err != nil {
		return strings.ToLower(s)
	}
	return t.String()
}

func languagePrefix(tag ttypes.LanguageTag) string {
	s := strings.ReplaceAll(strings.TrimSpace(string(tag)), "_", "-")
	if t, err := language.Parse(s); err == nil {
		base, _ := t.Base()
		return base.String()
	}
	return ttypes.LanguageTag(s).Prefix()
}

// ParseLanguage validates a caller-supplied language mode. "auto" is kept
// as is; anything else must be a well-formed BCP 47 tag.
func ParseLanguage(s string) (ttypes.LanguageTag, error) {
	tag := ttypes.LanguageTag(strings.TrimSpace(s))
	if tag == "" {
		return ttypes.LanguageJapanese, nil
	}
	if tag.IsAuto() {
		return ttypes.LanguageAuto, nil
	}
	t, err := language.Parse(strings.ReplaceAll(string(tag), "_", "-"))
	if err != nil {
		return "", NewTTSError(ErrorCodeInvalidConfig, "unknown language "+string(tag), ErrInvalidLanguage)
	}
	return ttypes.LanguageTag(t.String()), nil
}
