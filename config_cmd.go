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

const defaultConfig = `# speech engine: piper, gtts or mock
engine: "piper"
# voice, matched case-insensitively as part of a voice name
voice: "Toby Fox"
# speaking rate in words per minute
rate: 120
# longest a single synthesis may take
timeout: "30s"

piper:
  # command line used to run piper
  command: "piper"
  # directory of .onnx voices (default ~/.local/share/piper-voices)
  # model_dir: "~/.local/share/piper-voices"

gtts:
  language: "en"
  requests_per_minute: 50

# speech recognition
stt:
  # http (OpenAI compatible), exec (local command) or mock
  backend: "http"
  url: "https://api.openai.com/v1/audio/transcriptions"
  model: "whisper-1"
  # api_key defaults to $OPENAI_API_KEY
  # api_key: ""
  # language: "en"
  # command for the exec backend; {file} is replaced with a WAV path
  # command: "whisper-cli -nt -f {file}"
  timeout: "30s"

mic:
  enabled: true
  energy_threshold: 300
  pause_threshold: "1.5s"
  calibration: "0.5s"
  padding: "1s"
  pre_roll: "0.5s"

lexicon:
  # extra name corrections; see "radiation lexicon --export"
  # file: "~/.config/radiation/lexicon.yml"
  watch: true

cache:
  # dir: "~/.cache/radiation/audio"
  memory_size: "32MiB"
  disk_size: "256MiB"
  compression_level: 3
  max_age: "720h"

assets:
  # PNG sprites and WAV sound effects that replace the built-in ones
  # dir: "~/.config/radiation/assets"

queue:
  # 0 is unbounded
  capacity: 0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the radiation config file",
	Long:    paragraph(fmt.Sprintf("\n%s the radiation config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("radiation config\nradiation config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Radiation", configFile)
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
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
