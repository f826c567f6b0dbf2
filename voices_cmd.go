package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/tts/engines"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

var (
	voicesLang string

	voicesCmd = &cobra.Command{
		Use:   "voices [QUERY]",
		Short: "List the engine's voices and the one picked for a language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := tts.LoadConfigFromViper()
			if err != nil {
				return err
			}
			synth, err := engines.New(cfg)
			if err != nil {
				return withGuidance(err)
			}

			lang := cfg.LanguageTag()
			if voicesLang != "" {
				if lang, err = tts.ParseLanguage(voicesLang); err != nil {
					return err
				}
			}

			roster := synth.Voices()
			shown := roster
			if len(args) == 1 {
				shown = filterVoices(roster, args[0])
			}
			return printVoices(os.Stdout, shown, roster, lang, cfg.Selector())
		},
	}
)

func init() {
	voicesCmd.Flags().StringVarP(&voicesLang, "lang", "l", "", "language to pick a voice for")
}

type voiceSource []ttypes.Voice

func (v voiceSource) String(i int) string { return v[i].Name + " " + string(v[i].Language) }
func (v voiceSource) Len() int            { return len(v) }

// filterVoices returns the voices matching query, best match first.
func filterVoices(roster []ttypes.Voice, query string) []ttypes.Voice {
	matches := fuzzy.FindFrom(query, voiceSource(roster))
	out := make([]ttypes.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, roster[m.Index])
	}
	return out
}

func printVoices(w io.Writer, shown, roster []ttypes.Voice, lang ttypes.LanguageTag, sel *tts.VoiceSelector) error {
	for _, v := range shown {
		local := ""
		if v.IsLocal {
			local = faint("local")
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\n",
			runewidth.FillRight(runewidth.Truncate(v.Name, 32, "…"), 32),
			runewidth.FillRight(string(v.Language), 8),
			local,
		); err != nil {
			return err
		}
	}

	if lang.IsAuto() {
		_, err := fmt.Fprintln(w, faint("\nauto: a voice is picked per language run"))
		return err
	}

	picked := sel.Pick(lang, roster)
	name := "engine default"
	if picked != nil {
		name = picked.Name
	}
	_, err := fmt.Fprintf(w, "\n%s %s\n", faint("selected for "+string(lang)+":"), keyword(name))
	return err
}
