package tts

import (
	"strings"

	"github.com/dgnsrekt/speakblock/internal/queue"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// BuildUnits turns text into the ordered speech units for one speak
// invocation. A concrete mode tags every sentence with that language; the
// auto mode splits each sentence further by detected language. The rate is
// passed through as given.
func BuildUnits(text string, mode ttypes.LanguageTag, rate float64) []ttypes.SpeechUnit {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	var units []ttypes.SpeechUnit
	for _, sentence := range SplitSentences(normalized) {
		if mode.IsAuto() {
			for _, chunk := range SplitByLanguage(sentence) {
				if strings.TrimSpace(chunk.Text) == "" {
					continue
				}
				units = append(units, ttypes.SpeechUnit{
					Text:     chunk.Text,
					Language: chunk.Language,
					Rate:     rate,
				})
			}
			continue
		}

		if s := strings.TrimSpace(sentence); s != "" {
			units = append(units, ttypes.SpeechUnit{Text: s, Language: mode, Rate: rate})
		}
	}
	return units
}

// BuildQueue is BuildUnits wrapped in a PlaybackQueue.
func BuildQueue(text string, mode ttypes.LanguageTag, rate float64) *queue.PlaybackQueue {
	return queue.FromUnits(BuildUnits(text, mode, rate))
}
