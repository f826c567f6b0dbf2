package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# show debug logs
debug: false
# write logs to this file instead of stderr
# log_file: "~/.cache/speakblock/speakblock.log"

# Speech configuration
tts:
  # engine: auto, command (say/espeak-ng), piper, or mock
  engine: "auto"
  # language mode for text without its own setting: ja-JP, en-US, ..., or auto
  language: "ja-JP"
  # speaking rate, 0.5 to 2.0
  rate: 1.0
  # read markdown as prose (skip code blocks, link targets, markup)
  strip_markdown: false

  # Voice selection
  voices:
    # name substrings tried in order, per language prefix
    # preferences:
    #   ja: ["kyoko", "otoya", "google", "premium"]
    #   en: ["samantha", "alex", "google", "premium"]
    # fallback score table
    weights:
      exact_language: 3
      language_prefix: 1
      local: 1
      marker: 2
      premium: 2
      compact: 1

  # Platform speech command
  command:
    # say, espeak-ng or espeak; empty picks the first found
    # binary: "espeak-ng"
    timeout: "2m"

  # Piper neural TTS
  piper:
    binary: "piper"
    # directory holding *.onnx voice models and their .onnx.json files
    # model_dir: "~/.local/share/piper/models"
    timeout: "30s"

  # Silent engine for trying things out
  mock:
    delay: "300ms"

# Blocks to read aloud
document:
  # yaml or sqlite
  driver: "yaml"
  # path: "~/.local/share/speakblock/blocks.yml"
  # reload the YAML document when it is edited elsewhere
  watch: true
  # quiet period before language/rate changes are saved
  save_delay: "500ms"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the speakblock config file",
	Long:    paragraph(fmt.Sprintf("\n%s the speakblock config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("speakblock config\nspeakblock config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("speakblock", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o600); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
