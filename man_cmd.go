package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generate man pages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		page = page.WithSection("Keys", "z  flip (not while speaking, not while poisoned)\n"+
			"x  toggle poison\n"+
			"c  copy the caption\n"+
			"tab  type a line for the dog to say\n"+
			"q  quit")
		page = page.WithSection("Files", "radiation.yml in the user config directory.\n"+
			"radiation.log in the user cache directory.")
		fmt.Println(page.Build(roff.NewDocument()))
		return nil
	},
}
