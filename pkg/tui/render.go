package tui

import (
	"fmt"
	"strings"
	"time"

	"unidash/pkg/app"
	"unidash/pkg/utils"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Version is shown on the welcome screen.
var Version = "dev"

// MinSize is the smallest width or height worth drawing. Anything at or below
// it is skipped by the render loop.
const MinSize = 10

const (
	generalHelpText = "<esc>: Cancel, q: Quit, ?: Keybindings, s: Focus on the Search bar"
	searchHelpText  = "Type either an ENS or Ethereum-based address to search for a position"
)

// Render draws the whole frame for s. The caller holds the state lock; Render
// only reads s.
func Render(s *app.State, width, height int) string {
	if width <= MinSize || height <= MinSize {
		return ""
	}

	header := renderHeader(s, width)
	search := renderSearchBar(s, width)
	footer := renderFooter(s, width)

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(search) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := renderBody(s, width, bodyHeight)

	frame := lipgloss.JoinVertical(lipgloss.Left, header, search, body, footer)
	if s.ShowHelp {
		frame = renderHelp(s, width, height)
	}
	return lipgloss.NewStyle().MaxWidth(width).MaxHeight(height).Render(frame)
}

func renderHeader(s *app.State, width int) string {
	title := titleStyle.Render("unidash")

	tabs := []struct {
		key, label string
		mode       app.Mode
	}{
		{"1", "Main", app.ModeMain},
		{"2", "My Positions", app.ModeMyPositions},
		{"3", "Limit Orders", app.ModeLimitOrders},
	}
	var rendered []string
	for _, t := range tabs {
		label := keyStyle.Render(t.key) + " " + t.label
		if s.Mode == t.mode || (t.mode == app.ModeMyPositions && s.Mode == app.ModePoolInfo) {
			rendered = append(rendered, activeTabStyle.Render(label))
		} else {
			rendered = append(rendered, tabStyle.Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, title, " ", strings.Join(rendered, subtleStyle.Render("|")))

	right := ""
	if s.Address != nil {
		who := utils.ShortAddress(s.Address.Address.Hex())
		if s.Address.ENSName != "" {
			who = utils.TruncateString(s.Address.ENSName, 32) + " " + subtleStyle.Render(who)
		}
		right = who + subtleStyle.Render(fmt.Sprintf(" • %s ETH", utils.FormatWei(s.Address.Balance, 4)))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func renderSearchBar(s *app.State, width int) string {
	style := boxStyle
	if s.CurrentRoute().Block == app.BlockSearchBar {
		style = activeBoxStyle
	}

	var line string
	switch {
	case s.InputMode == app.InputEditing:
		line = withCursor(s.SearchText, s.Cursor)
	case s.IsSearching:
		line = fmt.Sprintf("%s Searching for %s...", spinnerFrame(s.Ticks), utils.TruncateString(s.CurrentQuery, width-30))
	case s.SearchText != "":
		line = s.SearchText
	default:
		line = subtleStyle.Render(searchHelpText)
	}

	switch {
	case s.IsBlankSearch:
		line += "  " + errStyle.Render("Please enter an address or ENS name")
	case s.IsInvalidSearch:
		line += "  " + errStyle.Render("Invalid address or ENS name")
	}

	title := subtleStyle.Render("Search by Address / ENS")
	return style.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, title, line))
}

// withCursor renders text with a block cursor at rune index cursor.
func withCursor(text string, cursor int) string {
	r := []rune(text)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(r) {
		cursor = len(r)
	}
	under := " "
	rest := ""
	if cursor < len(r) {
		under = string(r[cursor])
		rest = string(r[cursor+1:])
	}
	return string(r[:cursor]) + lipgloss.NewStyle().Reverse(true).Render(under) + rest
}

func spinnerFrame(ticks uint64) string {
	frames := spinner.Dot.Frames
	return infoStyle.Render(frames[ticks%uint64(len(frames))])
}

func renderBody(s *app.State, width, height int) string {
	var body string
	switch r := s.CurrentRoute().ID.(type) {
	case app.WelcomeRoute:
		body = viewWelcome(width, height)
	case app.SearchingRoute:
		body = viewSearching(s, r, width, height)
	case app.MainRoute:
		body = viewMain(s, width, height)
	case app.MyPositionsRoute:
		body = viewMyPositions(s, width, height)
	case app.LimitOrdersRoute:
		body = viewLimitOrders(s, width, height)
	case app.PoolInfoRoute:
		body = viewPoolInfo(s, r.Index, width, height)
	}
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(body)
}

func renderFooter(s *app.State, width int) string {
	left := subtleStyle.Render(generalHelpText)
	if msg := s.LastMessage(); msg != "" {
		left = warnStyle.Render(msg)
	}
	right := ""
	if !s.LastUpdate.IsZero() {
		right = subtleStyle.Render("Last updated: " + s.LastUpdate.Format("15:04:05"))
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return lipgloss.NewStyle().MaxWidth(width).Render(left)
	}
	return left + strings.Repeat(" ", gap) + right
}

// now is the reference time for ages: the last data refresh when there is
// one, so a frame depends only on state.
func now(s *app.State) time.Time {
	if s.LastUpdate.IsZero() {
		return time.Now()
	}
	return s.LastUpdate
}
