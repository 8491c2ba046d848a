package tui

import "github.com/charmbracelet/lipgloss"

var bannerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#EEEEEE"}).
	Bold(true)

// Banner is the ASCII art displayed on startup. It spells "CODESENSEI".
const Banner = ` ██████  ██████  ██████  ███████ ███████ ███████ ███    ██ ███████ ███████ ██
██      ██    ██ ██   ██ ██      ██      ██      ████   ██ ██      ██      ██
██      ██    ██ ██   ██ █████   ███████ █████   ██ ██  ██ ███████ █████   ██
██      ██    ██ ██   ██ ██           ██ ██      ██  ██ ██      ██ ██      ██
 ██████  ██████  ██████  ███████ ███████ ███████ ██   ████ ███████ ███████ ██`

// RenderBanner returns the banner with styling applied.
func RenderBanner() string {
	return bannerStyle.Render(Banner)
}
