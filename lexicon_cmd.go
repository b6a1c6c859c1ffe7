package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tobysim/radiation/internal/lexicon"
)

var (
	exportLexicon bool

	lexiconCmd = &cobra.Command{
		Use:     "lexicon",
		Short:   "Show the name corrections applied to transcripts",
		Long:    paragraph(fmt.Sprintf("\nShow the %s applied to everything the dog hears, longest phrase first.", keyword("name corrections"))),
		Example: paragraph("radiation lexicon\nradiation lexicon --export > ~/.config/radiation/lexicon.yml"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			lex, err := loadLexicon(s.Lexicon.File)
			if err != nil {
				return err
			}

			if exportLexicon {
				data, err := lexicon.Marshal(lex.Rules())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			out, err := renderMarkdown(lex.Markdown())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
)

func init() {
	lexiconCmd.Flags().BoolVar(&exportLexicon, "export", false, "print the rules as a lexicon file")
}

// renderMarkdown renders md for the terminal, or plainly when piped.
func renderMarkdown(md string) (string, error) {
	style := styles.AutoStyle
	width := 80
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil {
			width = min(w, 120)
		}
	} else {
		style = styles.NoTTYStyle
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
