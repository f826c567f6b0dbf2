package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/speakblock/internal/blocks"
	"github.com/dgnsrekt/speakblock/internal/tts"
)

var (
	blockLang string
	blockRate string

	blocksCmd = &cobra.Command{
		Use:     "blocks",
		Aliases: []string{"ls"},
		Short:   "List the blocks in the document",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStoreNoWatch()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			return printBlocks(os.Stdout, list)
		},
	}

	blocksAddCmd = &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a block",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := propsFromFlags(cmd, blocks.Props{})
			if err != nil {
				return err
			}

			store, err := openStoreNoWatch()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			b, err := store.Add(cmd.Context(), strings.Join(args, " "), props)
			if err != nil {
				return err
			}
			fmt.Println(b.ID)
			return nil
		},
	}

	blocksSetCmd = &cobra.Command{
		Use:   "set ID",
		Short: "Change a block's language or rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStoreNoWatch()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			b, err := resolveBlock(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			props, err := propsFromFlags(cmd, b.Props)
			if err != nil {
				return err
			}
			if err := store.SetProps(cmd.Context(), b.ID, props); err != nil {
				return err
			}
			fmt.Printf("%s %s %s\n", shortID(b.ID), langOrDefault(props.Lang), tts.FormatRate(rateOrDefault(props.Rate)))
			return nil
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{blocksAddCmd, blocksSetCmd} {
		c.Flags().StringVarP(&blockLang, "lang", "l", "", "language mode: a tag such as ja-JP, or auto")
		c.Flags().StringVarP(&blockRate, "rate", "r", "", "speaking rate, 0.5 to 2.0 (clamped)")
	}
	blocksCmd.AddCommand(blocksAddCmd, blocksSetCmd, blocksSpeakCmd)
}

// propsFromFlags applies --lang and --rate on top of p.
func propsFromFlags(cmd *cobra.Command, p blocks.Props) (blocks.Props, error) {
	if cmd.Flags().Changed("lang") {
		tag, err := tts.ParseLanguage(blockLang)
		if err != nil {
			return p, err
		}
		p.Lang = string(tag)
	}
	if cmd.Flags().Changed("rate") {
		p.Rate = tts.ClampRate(tts.ParseRate(blockRate))
	}
	return p, nil
}

// resolveBlock finds a block by id or unique id prefix.
func resolveBlock(ctx context.Context, store blocks.Store, ref string) (blocks.Block, error) {
	if b, err := store.Get(ctx, ref); err == nil {
		return b, nil
	} else if !errors.Is(err, blocks.ErrBlockNotFound) {
		return blocks.Block{}, err
	}

	list, err := store.List(ctx)
	if err != nil {
		return blocks.Block{}, err
	}

	var found []blocks.Block
	for _, b := range list {
		if strings.HasPrefix(b.ID, ref) {
			found = append(found, b)
		}
	}
	switch len(found) {
	case 0:
		return blocks.Block{}, tts.NewTTSError(tts.ErrorCodeBlockNotFound, "no block "+ref, blocks.ErrBlockNotFound)
	case 1:
		return found[0], nil
	default:
		return blocks.Block{}, fmt.Errorf("block id %q is ambiguous (%d matches)", ref, len(found))
	}
}

const titleWidth = 40

func printBlocks(w io.Writer, list []blocks.Block) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, faint("No blocks yet. Add one with: speakblock blocks add \"text\""))
		return err
	}

	for _, b := range list {
		title := truncate.StringWithTail(b.Title(), titleWidth, "…")
		title = runewidth.FillRight(title, titleWidth)

		_, err := fmt.Fprintf(w, "%s  %s  %s %s  %s\n",
			keyword(shortID(b.ID)),
			title,
			runewidth.FillRight(langOrDefault(b.Props.Lang), 6),
			tts.FormatRate(rateOrDefault(b.Props.Rate)),
			faint(humanize.Time(b.UpdatedAt)),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func langOrDefault(lang string) string {
	if lang == "" {
		return string(tts.DefaultConfig().LanguageTag())
	}
	return lang
}

func rateOrDefault(rate float64) float64 {
	return tts.ClampRate(rate)
}
