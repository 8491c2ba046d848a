package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesensei/internal/provider"
)

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List available LLM providers",
		Long:  "List the registered provider names; the configured one is marked with an asterisk.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			for _, name := range provider.Names() {
				marker := " "
				if name == cfg.Provider.Name {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
