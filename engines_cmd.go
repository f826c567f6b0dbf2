package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/tts/engines"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "Check which speech engines are available",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := tts.LoadConfigFromViper()
		if err != nil {
			return err
		}
		return printValidation(os.Stdout, engines.ValidateAll(cfg))
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the block editor",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return runTUI()
	},
}

func printValidation(w io.Writer, results []*engines.ValidationResult) error {
	for _, r := range results {
		status := keyword("available")
		if !r.Available {
			status = warning("unavailable")
		}
		fmt.Fprintf(w, "%-8s %s\n", r.Engine, status) //nolint:errcheck

		keys := make([]string, 0, len(r.Details))
		for k := range r.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s %s\n", faint(k+":"), r.Details[k]) //nolint:errcheck
		}

		if r.Error != nil {
			fmt.Fprintf(w, "  %s %v\n", faint("error:"), r.Error) //nolint:errcheck
		}
		if !r.Available && r.Guidance != "" {
			fmt.Fprintln(w, paragraph(r.Guidance)) //nolint:errcheck
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
