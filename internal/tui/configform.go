package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/julianshen/codesensei/internal/config"
)

// ConfigForm wraps a Huh form for editing codesensei configuration.
type ConfigForm struct {
	form               *huh.Form
	cfg                *config.Config
	savePath           string
	rpmStr             string
	maxAbstractionsStr string
	maxFileSizeStr     string
}

// NewConfigForm creates a config editor form populated from the given config.
func NewConfigForm(cfg *config.Config, savePath string) *ConfigForm {
	cf := &ConfigForm{
		cfg:                cfg,
		savePath:           savePath,
		rpmStr:             fmt.Sprintf("%d", cfg.Provider.RequestsPerMinute),
		maxAbstractionsStr: fmt.Sprintf("%d", cfg.Output.MaxAbstractions),
		maxFileSizeStr:     fmt.Sprintf("%d", cfg.Source.MaxFileSize),
	}

	providerGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Provider").
			Options(
				huh.NewOption("Gemini", "gemini"),
				huh.NewOption("OpenAI", "openai"),
				huh.NewOption("OpenRouter", "openrouter"),
				huh.NewOption("Anthropic", "anthropic"),
				huh.NewOption("Ollama", "ollama"),
			).
			Value(&cfg.Provider.Name),
		huh.NewInput().
			Title("Model").
			Description("Empty means the provider's default").
			Value(&cfg.Provider.Model),
		huh.NewSelect[string]().
			Title("API Key Source").
			Options(
				huh.NewOption("Environment variable", "env"),
				huh.NewOption("Config file", "config"),
			).
			Value(&cfg.Provider.APIKeySource),
		huh.NewInput().
			Title("API Key").
			Description("Only used when the source is 'config'").
			Value(&cfg.Provider.APIKey).
			EchoMode(huh.EchoModePassword),
		huh.NewInput().
			Title("Requests Per Minute").
			Placeholder("30").
			Value(&cf.rpmStr),
	).Title("Provider")

	sourceGroup := huh.NewGroup(
		huh.NewInput().
			Title("GitHub Token").
			Description("Optional; raises rate limits and reaches private repos").
			Value(&cfg.Source.GitHubToken).
			EchoMode(huh.EchoModePassword),
		huh.NewInput().
			Title("GitLab Token").
			Value(&cfg.Source.GitLabToken).
			EchoMode(huh.EchoModePassword),
		huh.NewInput().
			Title("Max File Size (bytes)").
			Placeholder("100000").
			Value(&cf.maxFileSizeStr),
	).Title("Source")

	outputGroup := huh.NewGroup(
		huh.NewInput().
			Title("Staging Directory").
			Placeholder("output").
			Value(&cfg.Output.StagingDir),
		huh.NewInput().
			Title("Docs Directory").
			Placeholder("docs").
			Value(&cfg.Output.DocsDir),
		huh.NewInput().
			Title("Max Abstractions").
			Placeholder("10").
			Value(&cf.maxAbstractionsStr),
		huh.NewConfirm().
			Title("Cache LLM Responses").
			Value(&cfg.Cache.Enabled),
	).Title("Output")

	cf.form = huh.NewForm(providerGroup, sourceGroup, outputGroup)

	return cf
}

// GroupCount returns the number of form groups.
func (c *ConfigForm) GroupCount() int { return 3 }

// Save persists the config to disk, parsing the numeric string fields back
// to their integer config values first.
func (c *ConfigForm) Save() error {
	if v, err := strconv.Atoi(c.rpmStr); err == nil {
		c.cfg.Provider.RequestsPerMinute = v
	}
	if v, err := strconv.Atoi(c.maxAbstractionsStr); err == nil {
		c.cfg.Output.MaxAbstractions = v
	}
	if v, err := strconv.ParseInt(c.maxFileSizeStr, 10, 64); err == nil {
		c.cfg.Source.MaxFileSize = v
	}
	return config.Save(c.savePath, c.cfg)
}

// Form returns the underlying huh.Form for Bubble Tea embedding.
func (c *ConfigForm) Form() *huh.Form { return c.form }

// SetForm replaces the underlying huh.Form. This is used when the form's
// Update method returns a new Form instance.
func (c *ConfigForm) SetForm(f *huh.Form) { c.form = f }

// IsCompleted returns true if the form has been completed (submitted).
func (c *ConfigForm) IsCompleted() bool { return c.form.State == huh.StateCompleted }

// IsAborted returns true if the form has been aborted (cancelled).
func (c *ConfigForm) IsAborted() bool { return c.form.State == huh.StateAborted }
