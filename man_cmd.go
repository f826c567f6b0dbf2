package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		page = page.WithSection("Environment", "SPEAKBLOCK_CONFIG_HOME overrides the configuration directory.\n"+
			"Any configuration key can be set as SPEAKBLOCK_<KEY>, e.g. SPEAKBLOCK_TTS_ENGINE.")
		fmt.Println(page.Build(roff.NewDocument()))
		return nil
	},
}
