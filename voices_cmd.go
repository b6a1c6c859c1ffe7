package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tobysim/radiation/internal/cache"
	"github.com/tobysim/radiation/internal/tts"
	"github.com/tobysim/radiation/internal/tts/engines"
)

var (
	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}).
		Render

	warning = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}).
		Render

	voicesCmd = &cobra.Command{
		Use:     "voices",
		Short:   "List the voices of the speech engine",
		Long:    paragraph(fmt.Sprintf("\nList the voices of the configured speech engine and mark the %s.", keyword("one that will be used"))),
		Example: paragraph("radiation voices\nradiation voices --engine gtts\nradiation voices --voice lessac"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}

			engine, err := engines.New(s.TTS)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printVoices(w, engine)

			cacheConfig, err := s.cacheConfig()
			if err != nil {
				return err
			}
			store, err := cache.Open(cacheConfig)
			if err != nil {
				return fmt.Errorf("unable to open audio cache: %w", err)
			}
			defer store.Close() //nolint:errcheck
			_, disk := store.Stats()
			_, _ = fmt.Fprintf(w, "\n%s\n", subtle("Speech cache: "+disk.String()))
			return nil
		},
	}
)

func printVoices(w io.Writer, engine tts.Engine) {
	_, _ = fmt.Fprintf(w, "%s\n\n", keyword(engine.Name()))

	if err := engine.Available(); err != nil {
		_, _ = fmt.Fprintf(w, "%s\n\n%s\n", warning(err.Error()), tts.Guidance(engine.Name()))
		return
	}

	voices := engine.Voices()
	if len(voices) == 0 {
		_, _ = fmt.Fprintln(w, subtle("No voices found."))
		return
	}
	active := engine.Voice()
	for _, v := range voices {
		if v == active {
			_, _ = fmt.Fprintf(w, "%s %s\n", keyword("•"), keyword(v))
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s\n", v)
	}
}
