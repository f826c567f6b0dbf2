package command

import (
	"bufio"
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// sayVoiceLine matches `say -v ?` output:
//
//	Kyoko (Enhanced)    ja_JP    # こんにちは、私の名前はKyokoです。
var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([A-Za-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

// ParseSayVoices parses the voice list printed by `say -v ?`.
func ParseSayVoices(out string) []ttypes.Voice {
	var voices []ttypes.Voice

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		m := sayVoiceLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		voices = append(voices, ttypes.Voice{
			Name:     name,
			Language: canonical(m[2]),
			IsLocal:  true,
			ID:       name,
		})
	}
	return voices
}

// ParseEspeakVoices parses the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  ja              --/M      Japanese           jpx/ja
func ParseEspeakVoices(out string) []ttypes.Voice {
	var voices []ttypes.Voice

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		lang := fields[1]
		voices = append(voices, ttypes.Voice{
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: canonical(lang),
			IsLocal:  true,
			ID:       lang,
		})
	}
	return voices
}

// canonical turns "ja_JP" or "en-us" into "ja-JP" / "en-US".
func canonical(tag string) ttypes.LanguageTag {
	s := strings.ReplaceAll(tag, "_", "-")
	if t, err := language.Parse(s); err == nil {
		return ttypes.LanguageTag(t.String())
	}
	return ttypes.LanguageTag(s)
}
