package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/julianshen/codesensei/internal/config"
	"github.com/julianshen/codesensei/internal/tui"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Set up configuration interactively",
		Long:  "Walk through provider, source, and output settings in a form and write them to the config file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			// Load keeps existing values as form defaults; a missing file
			// starts from the built-in defaults.
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderBanner())

			form := tui.NewConfigForm(cfg, path)
			if err := form.Form().Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Setup aborted, nothing written.")
					return nil
				}
				return fmt.Errorf("running setup form: %w", err)
			}

			if err := form.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
}
