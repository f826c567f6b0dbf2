// Package main provides the entry point for the speakblock CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/speakblock/internal/blocks"
	"github.com/dgnsrekt/speakblock/internal/tts"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	debug         bool
	fromClipboard bool

	rootCmd = &cobra.Command{
		Use:   "speakblock [TEXT...]",
		Short: "Read text aloud, one sentence and one language at a time",
		Long: paragraph(
			fmt.Sprintf("\nRead text aloud %s. Text comes from the arguments, stdin or the clipboard; with none of those the block editor opens.", keyword("in mixed Japanese and English")),
		),
		Example: paragraph("speakblock \"こんにちは。Hello.\" --lang auto\n" +
			"cat notes.md | speakblock --strip-markdown --rate 1.3\n" +
			"speakblock --clipboard --engine piper"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
			if cmd.Flags().Changed("config") {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("unable to read config file: %w", err)
				}
			}
			return nil
		},
		RunE: execute,
	}
)

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readText collects the text to speak. ok is false when no source was given.
func readText(args []string) (text string, ok bool, err error) {
	switch {
	case len(args) == 1 && args[0] == "-":
		return readAll(os.Stdin)
	case len(args) > 0:
		return strings.Join(args, " "), true, nil
	case fromClipboard:
		s, err := clipboard.ReadAll()
		if err != nil {
			return "", false, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return s, true, nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", false, err
	} else if yes {
		return readAll(os.Stdin)
	}
	return "", false, nil
}

func readAll(r io.Reader) (string, bool, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("unable to read from reader: %w", err)
	}
	return string(b), true, nil
}

func execute(cmd *cobra.Command, args []string) error {
	text, ok, err := readText(args)
	if err != nil {
		return err
	}
	if !ok {
		return runTUI()
	}

	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}
	svc, err := newService(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	return speakAndWait(cmd.Context(), svc, func() error {
		return svc.SpeakText(text, blocks.Props{Lang: cfg.Language, Rate: cfg.Rate})
	})
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "show debug logs")
	rootCmd.PersistentFlags().StringP("engine", "e", "", "speech engine: auto, command, piper or mock")
	rootCmd.Flags().StringP("lang", "l", "", "language mode: a tag such as ja-JP or en-US, or auto")
	rootCmd.Flags().StringP("rate", "r", "", "speaking rate, 0.5 to 2.0 (clamped)")
	rootCmd.Flags().Bool("strip-markdown", false, "read markdown as prose")
	rootCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "read the clipboard")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("tts.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("tts.language", rootCmd.Flags().Lookup("lang"))
	_ = viper.BindPFlag("tts.rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("tts.strip_markdown", rootCmd.Flags().Lookup("strip-markdown"))

	tts.SetDefaults()
	setDocumentDefaults()

	rootCmd.AddCommand(configCmd, manCmd, blocksCmd, voicesCmd, enginesCmd, tuiCmd)
}

func setDocumentDefaults() {
	viper.SetDefault("document.driver", blocks.DriverYAML)
	viper.SetDefault("document.watch", true)
	viper.SetDefault("document.save_delay", "500ms")

	if p, err := gap.NewScope(gap.User, "speakblock").DataPath("blocks.yml"); err == nil {
		viper.SetDefault("document.path", p)
	}
}

func tryLoadConfigFromDefaultPlaces() {
	// A local .env may carry SPEAKBLOCK_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Could not parse .env file", "err", err)
	}

	scope := gap.NewScope(gap.User, "speakblock")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speakblock")}, dirs...)
	}

	if c := os.Getenv("SPEAKBLOCK_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speakblock")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("speakblock")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "speakblock.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
		return
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Warn("Could not parse configuration file", "err", err)
	}
}
