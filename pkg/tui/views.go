package tui

import (
	"fmt"
	"strings"
	"time"

	"unidash/pkg/app"
	"unidash/pkg/models"
	"unidash/pkg/utils"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const banner = `             _     _           _
 _   _ _ __ (_) __| | __ _ ___| |__
| | | | '_ \| |/ _' |/ _' / __| '_ \
| |_| | | | | | (_| | (_| \__ \ | | |
 \__,_|_| |_|_|\__,_|\__,_|___/_| |_|`

func viewWelcome(width, height int) string {
	details := lipgloss.JoinVertical(lipgloss.Center,
		"A terminal dashboard for Uniswap positions",
		subtleStyle.Render("Version: "+Version),
		"",
		subtleStyle.Render("Press e or / to search"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, titleStyle.Render("Uniswap"), infoStyle.Render(banner), "", details))
}

func viewSearching(s *app.State, r app.SearchingRoute, width, height int) string {
	text := fmt.Sprintf("%s Looking up %s", spinnerFrame(s.Ticks), r.Query)
	if !s.IsSearching {
		text = fmt.Sprintf("Search for %s finished", r.Query)
		if msg := s.LastMessage(); msg != "" {
			text = errStyle.Render(msg)
		}
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}

func viewMain(s *app.State, width, height int) string {
	if s.Address == nil {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			subtleStyle.Render("No address loaded. Press s to search."))
	}

	inRange := 0
	var fees0, fees1 float64
	for _, p := range s.Positions {
		if p.InRange() {
			inRange++
		}
		f0, f1 := p.UncollectedFees()
		fees0 += f0
		fees1 += f1
	}

	var orderValue float64
	for _, o := range s.LimitOrders {
		orderValue += o.ValueUSD
	}

	ens := s.Address.ENSName
	if ens == "" {
		ens = "-"
	}
	rows := []string{
		fmt.Sprintf("%-18s %s", "Address", s.Address.Address.Hex()),
		fmt.Sprintf("%-18s %s", "ENS", ens),
		fmt.Sprintf("%-18s %s ETH", "Balance", utils.FormatWei(s.Address.Balance, 6)),
		"",
		fmt.Sprintf("%-18s %d (%d in range)", "Positions", len(s.Positions), inRange),
		fmt.Sprintf("%-18s %d ($%s)", "Open limit orders", len(s.LimitOrders), utils.FormatCompact(orderValue)),
	}
	content := boxStyle.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Account"), "", strings.Join(rows, "\n")))
	return content
}

func newTable(columns []table.Column, rows []table.Row, cursor, height int, focused bool) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithFocused(focused),
	)
	st := table.DefaultStyles()
	st.Header = tableHeaderStyle.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true)
	if focused {
		st.Selected = tableSelectedStyle
	} else {
		st.Selected = lipgloss.NewStyle()
	}
	t.SetStyles(st)
	t.SetCursor(cursor)
	return t.View()
}

// fitColumns spreads width over columns in proportion to weights.
func fitColumns(width int, titles []string, weights []int) []table.Column {
	total := 0
	for _, w := range weights {
		total += w
	}
	// each cell carries one column of padding on both sides
	usable := width - 2*len(titles)
	if usable < len(titles) {
		usable = len(titles)
	}
	cols := make([]table.Column, len(titles))
	for i, t := range titles {
		w := usable * weights[i] / total
		if w < 1 {
			w = 1
		}
		cols[i] = table.Column{Title: t, Width: w}
	}
	return cols
}

func positionRows(s *app.State) []table.Row {
	ref := now(s)
	rows := make([]table.Row, 0, len(s.Positions))
	for _, p := range s.Positions {
		f0, f1 := p.UncollectedFees()
		fees := fmt.Sprintf("%s %s / %s %s", utils.FormatCompact(f0), p.Token0.Symbol, utils.FormatCompact(f1), p.Token1.Symbol)
		status := "No"
		if p.InRange() {
			status = "Yes"
		}
		rows = append(rows, table.Row{p.Name(), fees, status, utils.FormatAge(p.Age(ref))})
	}
	return rows
}

func viewMyPositions(s *app.State, width, height int) string {
	if len(s.Positions) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			subtleStyle.Render("No open positions for this address."))
	}

	focused := s.CurrentRoute().Block == app.BlockMyPositions
	style := boxStyle
	if focused {
		style = activeBoxStyle
	}

	sideBySide := width >= 100
	tableWidth := width - 4
	chartWidth := width - 4
	tableHeight := height - 4
	chartHeight := height - 2
	if sideBySide {
		tableWidth = width*2/5 - 4
		chartWidth = width - width*2/5 - 4
	} else {
		tableHeight = (height - 4) / 2
		chartHeight = height - tableHeight - 4
	}
	if tableHeight < 2 {
		tableHeight = 2
	}

	cols := fitColumns(tableWidth, []string{"Name", "Fees", "In-Range", "Age"}, []int{3, 5, 2, 1})
	tbl := style.Render(lipgloss.JoinVertical(lipgloss.Left,
		subtleStyle.Render("My Positions"),
		newTable(cols, positionRows(s), s.PositionCursor, tableHeight, focused)))

	chart := boxStyle.Width(chartWidth + 2).Render(viewChart(s, chartWidth, chartHeight-2))

	if sideBySide {
		return lipgloss.JoinHorizontal(lipgloss.Top, tbl, chart)
	}
	return lipgloss.JoinVertical(lipgloss.Left, tbl, chart)
}

func viewChart(s *app.State, width, height int) string {
	var ranges []string
	for _, r := range app.ChartRanges {
		if r == s.ChartRange {
			ranges = append(ranges, activeTabStyle.Render(r.Label()))
		} else {
			ranges = append(ranges, tabStyle.Render(r.Label()))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, ranges...)

	p, _ := s.SelectedPosition()
	series := p.PriceHistory
	caption := fmt.Sprintf("%s price (%s per %s)", p.Name(), p.Token1.Symbol, p.Token0.Symbol)
	if s.ChartView == app.ChartVolume {
		series = p.VolumeHistory
		caption = fmt.Sprintf("%s volume (USD)", p.Name())
	}
	if len(series) == 0 {
		series = s.VolumeHistory
		caption = "Token volume (USD)"
	}

	data := windowValues(series, s.ChartRange.Duration())
	if len(data) == 0 || width < 12 || height < 3 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", subtleStyle.Render("Not enough data to draw graph."))
	}

	// leave room for the axis labels and the range header
	plotWidth := width - 12
	if plotWidth < 1 {
		plotWidth = 1
	}
	plotHeight := height - 4
	if plotHeight < 1 {
		plotHeight = 1
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("%s - %s", caption, s.ChartRange.Label())),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, graph)
}

// windowValues returns the values of samples newer than window, measured from
// the newest sample.
func windowValues(samples []models.Sample, window time.Duration) []float64 {
	if len(samples) == 0 {
		return nil
	}
	latest := samples[0].Time
	for _, sm := range samples {
		if sm.Time.After(latest) {
			latest = sm.Time
		}
	}
	cutoff := latest.Add(-window)
	var out []float64
	for _, sm := range samples {
		if !sm.Time.Before(cutoff) {
			out = append(out, sm.Value)
		}
	}
	return out
}

func viewLimitOrders(s *app.State, width, height int) string {
	if len(s.LimitOrders) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			subtleStyle.Render("No open limit orders."))
	}

	focused := s.CurrentRoute().Block == app.BlockLimitOrders
	style := boxStyle
	if focused {
		style = activeBoxStyle
	}

	rows := make([]table.Row, 0, len(s.LimitOrders))
	for _, o := range s.LimitOrders {
		created := "Unknown date"
		if !o.Deadline.IsZero() {
			created = o.Deadline.UTC().Format("2006-01-02 15:04:05 MST")
		}
		price := "N/A"
		if o.PriceUSD != nil {
			price = utils.FormatCompact(*o.PriceUSD)
		}
		rows = append(rows, table.Row{
			o.Token,
			created,
			utils.FormatFloat(o.StartAmount, 6),
			utils.FormatFloat(o.EndAmount, 6),
			price,
			utils.FormatCompact(o.ValueUSD),
			utils.FormatCompact(o.MarketCapUSD),
			utils.FormatCompact(o.Volume24hUSD),
		})
	}

	cols := fitColumns(width-4,
		[]string{"Token", "Deadline", "Start Amount", "End Amount", "Price USD", "Value USD", "Market Cap", "24h Volume"},
		[]int{2, 4, 3, 3, 2, 2, 2, 2})
	tableHeight := height - 4
	if tableHeight < 2 {
		tableHeight = 2
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		subtleStyle.Render("Limit Orders"),
		newTable(cols, rows, s.OrderCursor, tableHeight, focused)))
}

func viewPoolInfo(s *app.State, index, width, height int) string {
	if index < 0 || index >= len(s.Positions) {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			errStyle.Render("Position is no longer available. Press esc to go back."))
	}
	p := s.Positions[index]
	f0, f1 := p.UncollectedFees()

	status := errStyle.Render("Out of range")
	if p.InRange() {
		status = infoStyle.Render("In range")
	}
	created := "-"
	if !p.CreatedAt.IsZero() {
		created = fmt.Sprintf("%s (%s ago)", p.CreatedAt.UTC().Format("2006-01-02"), utils.FormatAge(p.Age(now(s))))
	}
	liquidity := "0"
	if p.Liquidity != nil {
		liquidity = utils.AddCommas(p.Liquidity.String())
	}

	line := func(label, value string) string {
		return fmt.Sprintf("%-22s %s", label, value)
	}
	rows := []string{
		line("Pool", p.Pool.ID),
		line("Fee tier", fmt.Sprintf("%.2f%%", float64(p.Pool.FeeTier)/10000)),
		line("Status", status),
		line("Tick range", fmt.Sprintf("%d → %d (current %d)", p.TickLower.Index, p.TickUpper.Index, p.Pool.Tick)),
		line("Price", fmt.Sprintf("1 %s = %s %s", p.Token0.Symbol, utils.FormatFloat(p.Pool.Token0Price, 4), p.Token1.Symbol)),
		line("", fmt.Sprintf("1 %s = %s %s", p.Token1.Symbol, utils.FormatFloat(p.Pool.Token1Price, 6), p.Token0.Symbol)),
		line("Liquidity", liquidity),
		"",
		line("Deposited", fmt.Sprintf("%s %s / %s %s", utils.FormatFloat(p.DepositedToken0, 4), p.Token0.Symbol, utils.FormatFloat(p.DepositedToken1, 4), p.Token1.Symbol)),
		line("Withdrawn", fmt.Sprintf("%s %s / %s %s", utils.FormatFloat(p.WithdrawnToken0, 4), p.Token0.Symbol, utils.FormatFloat(p.WithdrawnToken1, 4), p.Token1.Symbol)),
		line("Uncollected fees", fmt.Sprintf("%s %s / %s %s", utils.FormatFloat(f0, 6), p.Token0.Symbol, utils.FormatFloat(f1, 6), p.Token1.Symbol)),
		line("Pool volume", fmt.Sprintf("%s %s / %s %s", utils.FormatCompact(p.Pool.VolumeToken0), p.Token0.Symbol, utils.FormatCompact(p.Pool.VolumeToken1), p.Token1.Symbol)),
		line("Opened", created),
	}

	title := titleStyle.Render(fmt.Sprintf("%s #%s", p.Name(), p.ID))
	content := activeBoxStyle.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", strings.Join(rows, "\n")))
	footer := subtleStyle.Render("esc/backspace: back • o: open in browser")
	return lipgloss.JoinVertical(lipgloss.Left, content, footer)
}
