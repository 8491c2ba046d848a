// cmd/codesensei/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesensei/internal/config"

	// Register providers via init() side effects.
	_ "github.com/julianshen/codesensei/internal/provider/anthropic"
	_ "github.com/julianshen/codesensei/internal/provider/gemini"
	_ "github.com/julianshen/codesensei/internal/provider/ollama"
	_ "github.com/julianshen/codesensei/internal/provider/openai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath   string
	providerFlag string
	modelFlag    string
)

func versionString() string {
	return fmt.Sprintf("codesensei %s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "codesensei",
		Short: "Turn any codebase into a beginner-friendly tutorial",
		Long: `codesensei analyzes a codebase with an LLM, identifies its core
abstractions, and writes a markdown tutorial that walks a newcomer
through them in dependency order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "override provider name")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override model name")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(versionString())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(ollamaCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "codesensei: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path, loads the config, and applies any
// flag overrides. Shared by every subcommand that needs configuration.
func loadConfig() (*config.Config, error) {
	cfgPath := configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if providerFlag != "" {
		cfg.Provider.Name = providerFlag
	}
	if modelFlag != "" {
		cfg.Provider.Model = modelFlag
	}

	return cfg, nil
}
