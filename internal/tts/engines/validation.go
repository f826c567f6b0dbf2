package engines

import (
	"fmt"
	"os/exec"

	"github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/tts/engines/command"
	"github.com/dgnsrekt/speakblock/internal/tts/engines/piper"
)

// ValidationResult contains the result of engine validation
type ValidationResult struct {
	// Engine is the validated engine name
	Engine string

	// Available indicates if the engine is available and configured
	Available bool

	// Error contains any validation error
	Error error

	// Guidance provides setup instructions if validation failed
	Guidance string

	// Details contains additional validation information
	Details map[string]string
}

// Validate checks whether an engine can be used with cfg. It never plays
// audio.
func Validate(name string, cfg tts.Config) *ValidationResult {
	result := &ValidationResult{
		Engine:  name,
		Details: make(map[string]string),
	}

	switch name {
	case tts.EnginePiper:
		return validatePiper(cfg.Piper, result)
	case tts.EngineCommand:
		return validateCommand(cfg.Command, result)
	case tts.EngineMock:
		result.Available = true
		result.Details["engine"] = "Mock (silent)"
		result.Details["delay"] = cfg.Mock.Delay.String()
	default:
		result.Error = fmt.Errorf("unknown engine %q", name)
		result.Guidance = "Supported engines: auto, command, piper, mock"
	}
	return result
}

// ValidateAll validates every concrete engine in the order auto tries them.
func ValidateAll(cfg tts.Config) []*ValidationResult {
	return []*ValidationResult{
		Validate(tts.EnginePiper, cfg),
		Validate(tts.EngineCommand, cfg),
		Validate(tts.EngineMock, cfg),
	}
}

func validatePiper(cfg tts.PiperConfig, result *ValidationResult) *ValidationResult {
	result.Details["engine"] = "Piper (offline neural TTS)"

	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		result.Error = fmt.Errorf("piper not found in PATH: %w", err)
		result.Guidance = piperInstallGuidance
		return result
	}
	result.Details["binary_path"] = path

	if cfg.ModelDir == "" {
		result.Error = fmt.Errorf("piper model directory not configured")
		result.Guidance = piperModelGuidance
		return result
	}

	dir, err := homedir.Expand(cfg.ModelDir)
	if err != nil {
		result.Error = err
		return result
	}
	result.Details["model_dir"] = dir

	models, err := piper.ScanModels(dir)
	if err != nil {
		result.Error = fmt.Errorf("model directory not accessible: %w", err)
		result.Guidance = piperModelGuidance
		return result
	}
	if len(models) == 0 {
		result.Error = fmt.Errorf("no .onnx models in %s", dir)
		result.Guidance = piperModelGuidance
		return result
	}

	result.Details["models"] = fmt.Sprint(len(models))
	result.Available = true
	return result
}

func validateCommand(cfg tts.CommandConfig, result *ValidationResult) *ValidationResult {
	result.Details["engine"] = "Platform speech command"

	e, err := command.New(command.Config{Binary: cfg.Binary, Timeout: cfg.Timeout})
	if err != nil {
		result.Error = err
		result.Guidance = commandInstallGuidance
		return result
	}

	result.Details["binary_path"] = e.Binary()
	result.Available = true
	return result
}

const piperInstallGuidance = `Piper TTS is not installed. To install:

1. Download the Piper binary from: https://github.com/rhasspy/piper/releases
2. Extract it and put it on your PATH, or install it with your package manager:

   # Arch Linux
   yay -S piper-tts

   # Or with pipx
   pipx install piper-tts

3. Download a voice model (see the next step) and set tts.piper.model_dir`

const piperModelGuidance = `Piper needs at least one voice model. To configure:

1. Download a model and its .onnx.json from:
   https://github.com/rhasspy/piper/blob/master/VOICES.md

   mkdir -p ~/.local/share/piper/models
   cd ~/.local/share/piper/models
   wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/amy/medium/en_US-amy-medium.onnx
   wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/amy/medium/en_US-amy-medium.onnx.json

2. Point speakblock at the directory (speakblock config):
   tts:
     engine: piper
     piper:
       model_dir: ~/.local/share/piper/models`

const commandInstallGuidance = `No speech command was found. speakblock uses:

  # macOS: built in
  say

  # Ubuntu/Debian
  sudo apt install espeak-ng

  # Fedora
  sudo dnf install espeak-ng

  # Arch Linux
  sudo pacman -S espeak-ng

Set tts.command.binary to use a specific command.`
