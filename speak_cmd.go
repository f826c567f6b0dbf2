package main

import (
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/speakblock/internal/tts"
)

var blocksSpeakCmd = &cobra.Command{
	Use:   "speak ID",
	Short: "Read a block aloud with its own language and rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := tts.LoadConfigFromViper()
		if err != nil {
			return err
		}

		store, err := openStoreNoWatch()
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		b, err := resolveBlock(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}

		svc, err := newService(cfg, store)
		if err != nil {
			return err
		}
		defer svc.Close() //nolint:errcheck

		return speakAndWait(cmd.Context(), svc, func() error {
			return svc.SpeakBlock(cmd.Context(), b.ID)
		})
	},
}
