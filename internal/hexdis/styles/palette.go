// Package styles holds the colors and glamour style shared by the
// command-line output and the interactive pager.
package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

const Foreground = "#D4D4D4"

var (
	Address  = charmtone.Squid.Hex()
	Bytes    = charmtone.Smoke.Hex()
	Selected = charmtone.Cheeky.Hex()
	Title    = charmtone.Charple.Hex()
	MenuBg   = charmtone.Charcoal.Hex()
	MenuFg   = charmtone.Smoke.Hex()
)

// Listing styles for the pager.
var (
	AddressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(Address))
	BytesStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Bytes))
	SelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Selected)).Bold(true)
	TitleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Title)).MarginLeft(2)
	MenuStyle     = lipgloss.NewStyle().
			Background(lipgloss.Color(MenuBg)).
			Foreground(lipgloss.Color(MenuFg)).
			Padding(0, 1)
)
