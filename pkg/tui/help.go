package tui

import (
	"fmt"
	"strings"

	"unidash/pkg/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

func binding(keys, desc string) key.Binding {
	return key.NewBinding(key.WithHelp(keys, desc))
}

var (
	globalBindings = []key.Binding{
		binding("s", "Move to the Search Bar"),
		binding("?/h", "Toggle this help"),
		binding("q", "Quit"),
		binding("ctrl+c", "Quit from anywhere"),
		binding("ctrl+l", "Redraw the screen"),
	}
	searchBindings = []key.Binding{
		binding("e or /", "Start typing an address or ENS name"),
		binding("enter", "Search"),
		binding("esc", "Stop typing"),
		binding("1", "Move to the Main view"),
		binding("2", "Move to My Positions"),
		binding("3", "Move to Limit Orders"),
	}
	mainBindings = []key.Binding{
		binding("2", "Move to My Positions"),
		binding("3", "Move to Limit Orders"),
	}
	positionBindings = []key.Binding{
		binding("↑/k", "Previous position"),
		binding("↓/j", "Next position"),
		binding("enter", "Pool details"),
		binding("1-7", "Chart range 1D, 1W, 1M, 3M, 6M, 1Y, 5Y"),
		binding("←/→", "Cycle chart range"),
		binding("v/tab", "Toggle price / volume"),
		binding("c", "Copy address"),
		binding("r", "Refresh positions"),
	}
	orderBindings = []key.Binding{
		binding("↑/k", "Previous order"),
		binding("↓/j", "Next order"),
		binding("r", "Refresh limit orders"),
		binding("1", "Move to the Main view"),
		binding("2", "Move to My Positions"),
	}
	poolBindings = []key.Binding{
		binding("esc/backspace", "Back to My Positions"),
		binding("o", "Open the pool in a browser"),
	}
)

// helpBindings lists the keys that apply to the focused block.
func helpBindings(s *app.State) (string, []key.Binding) {
	switch s.CurrentRoute().Block {
	case app.BlockMain:
		return "Main", append(mainBindings, globalBindings...)
	case app.BlockMyPositions:
		return "My Positions", append(positionBindings, globalBindings...)
	case app.BlockLimitOrders:
		return "Limit Orders", append(orderBindings, globalBindings...)
	case app.BlockPoolInfo:
		return "Pool Info", append(poolBindings, globalBindings...)
	}
	return "Search Bar", append(searchBindings, globalBindings...)
}

func renderHelp(s *app.State, width, height int) string {
	title, bindings := helpBindings(s)

	var lines []string
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, fmt.Sprintf(" %s %s", keyStyle.Render(fmt.Sprintf("%-14s", h.Key)), h.Desc))
	}

	header := titleStyle.Render(fmt.Sprintf("Keybindings: %s", title))
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", strings.Join(lines, "\n")))
	footer := subtleStyle.Render("Press esc to close the popup")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "", footer))
}
