// Package main provides the entry point for the radiation CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tobysim/radiation/internal/tts"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string

	rootCmd = &cobra.Command{
		Use:   "radiation",
		Short: "A small white dog that says what you say",
		Long: paragraph(
			fmt.Sprintf("\nListens to you, fixes the names it mishears and says it all back %s.", keyword("in the voice of a small white dog")),
		),
		Example:          paragraph("radiation\nradiation --engine gtts --voice british\necho 'hello Kris' | radiation --no-mic"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		RunE:             execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	// The root command draws to the terminal; subcommands print.
	if cmd == rootCmd && !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("radiation needs a terminal to draw in")
	}
	return nil
}

// stdinIsPipe reports whether stdin is not a terminal, in which case it
// feeds the console injector and keys come from the tty.
func stdinIsPipe() bool {
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

func execute(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	a, err := newApp(s, stdinIsPipe())
	if err != nil {
		return err
	}
	defer a.close()

	return a.run(cmd.Context())
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
	// Assigned here rather than in the literal to break the rootCmd
	// initialization cycle (validateOptions refers to rootCmd).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return validateOptions(cmd)
	}
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	defaults := defaultSettings()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default radiation.yml in the user config dir)")
	flags.StringP("engine", "e", defaults.TTS.Engine, fmt.Sprintf("speech engine (%s)", strings.Join(tts.SupportedEngines(), ", ")))
	flags.String("voice", defaults.TTS.Voice, "voice to speak with, matched by substring")
	flags.IntP("rate", "r", defaults.TTS.Rate, "speaking rate in words per minute")
	flags.String("stt", defaults.STT.Backend, "speech recognition backend (http, exec, mock)")
	flags.StringP("lexicon", "l", "", "lexicon file with extra name corrections")
	flags.Bool("no-mic", false, "do not listen; only speak typed or piped lines")
	flags.Bool("debug", false, "log debug output")

	// Config bindings
	_ = viper.BindPFlag("engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("voice", flags.Lookup("voice"))
	_ = viper.BindPFlag("rate", flags.Lookup("rate"))
	_ = viper.BindPFlag("stt.backend", flags.Lookup("stt"))
	_ = viper.BindPFlag("lexicon.file", flags.Lookup("lexicon"))
	_ = viper.BindPFlag("no-mic", flags.Lookup("no-mic"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	viper.SetDefault("engine", defaults.TTS.Engine)
	viper.SetDefault("voice", defaults.TTS.Voice)
	viper.SetDefault("rate", defaults.TTS.Rate)
	viper.SetDefault("stt.backend", defaults.STT.Backend)
	viper.SetDefault("lexicon.file", "")
	viper.SetDefault("no-mic", false)
	viper.SetDefault("debug", false)

	rootCmd.AddCommand(configCmd, manCmd, lexiconCmd, voicesCmd)

	tryLoadConfigFromDefaultPlaces()
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "radiation")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "radiation")}, dirs...)
	}

	if c := os.Getenv("RADIATION_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("radiation")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("radiation")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		configFile = used
		return
	}

	configFile = filepath.Join(dirs[0], "radiation.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
