package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/julianshen/codesensei/internal/tui"
)

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <tutorial.md>",
		Short: "Render a generated tutorial in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			width := 100
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}

			renderer, err := tui.NewMarkdownRenderer(width)
			if err != nil {
				return fmt.Errorf("creating renderer: %w", err)
			}

			out, err := renderer.Render(string(raw))
			if err != nil {
				return fmt.Errorf("rendering markdown: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
