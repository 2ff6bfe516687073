package keys

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"unidash/pkg/app"
	"unidash/pkg/event"
	"unidash/pkg/models"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Outcome tells the render loop what to do after a key was handled.
type Outcome struct {
	Quit bool
	// Effect runs once the state lock is released and returns the message
	// to show.
	Effect func() string
}

// Router maps key presses onto state changes according to the focused block.
// It runs on the render loop with the state lock held; clipboard and browser
// calls are handed back as an Outcome effect instead of running here.
type Router struct {
	Redraw *event.Signal
	Copy   func(string) error
	Open   func(string) error
}

func NewRouter(redraw *event.Signal) *Router {
	return &Router{Redraw: redraw, Copy: clipboard.WriteAll, Open: openBrowser}
}

func (r *Router) redraw() {
	if r.Redraw != nil {
		r.Redraw.Notify()
	}
}

// Handle applies msg to s.
func (r *Router) Handle(msg tea.KeyMsg, s *app.State) Outcome {
	switch msg.String() {
	case "ctrl+c":
		return Outcome{Quit: true}
	case "ctrl+l":
		r.redraw()
		return Outcome{}
	}

	if s.ShowHelp {
		switch msg.String() {
		case "esc", "q", "h", "?":
			s.CloseHelp()
			r.redraw()
		}
		return Outcome{}
	}

	switch s.CurrentRoute().Block {
	case app.BlockSearchBar:
		if s.InputMode == app.InputEditing {
			r.editSearch(msg, s)
			return Outcome{}
		}
		return r.searchBar(msg, s)
	case app.BlockMain:
		return r.main(msg, s)
	case app.BlockMyPositions:
		return r.myPositions(msg, s)
	case app.BlockLimitOrders:
		return r.limitOrders(msg, s)
	case app.BlockPoolInfo:
		return r.poolInfo(msg, s)
	}
	return Outcome{}
}

// common handles the keys shared by every non-editing block. It reports
// whether msg was consumed.
func (r *Router) common(msg tea.KeyMsg, s *app.State) (Outcome, bool) {
	switch msg.String() {
	case "q":
		return Outcome{Quit: true}, true
	case "h", "?":
		s.OpenHelp()
	case "s":
		s.SetActiveBlock(app.BlockSearchBar)
		startEditing(s)
	default:
		return Outcome{}, false
	}
	r.redraw()
	return Outcome{}, true
}

func (r *Router) searchBar(msg tea.KeyMsg, s *app.State) Outcome {
	switch msg.String() {
	case "e", "/":
		startEditing(s)
	case "q":
		return Outcome{Quit: true}
	case "h", "?":
		s.OpenHelp()
	case "esc":
		s.CloseHelp()
	case "1":
		showMain(s)
	case "2":
		showMyPositions(s)
	case "3":
		showLimitOrders(s)
	default:
		return Outcome{}
	}
	r.redraw()
	return Outcome{}
}

func (r *Router) editSearch(msg tea.KeyMsg, s *app.State) {
	switch msg.Type {
	case tea.KeyRunes:
		for _, c := range msg.Runes {
			s.InsertChar(c)
		}
		s.IsBlankSearch = false
		s.IsInvalidSearch = false
	case tea.KeySpace:
		s.InsertChar(' ')
	case tea.KeyBackspace:
		s.DeleteCharBeforeCursor()
	case tea.KeyLeft:
		s.MoveCursorLeft()
	case tea.KeyRight:
		s.MoveCursorRight()
	case tea.KeyHome, tea.KeyCtrlA:
		s.Cursor = 0
	case tea.KeyEnd, tea.KeyCtrlE:
		s.Cursor = utf8.RuneCountInString(s.SearchText)
	case tea.KeyEnter:
		submitSearch(s)
	case tea.KeyEsc:
		stopEditing(s)
	default:
		return
	}
	r.redraw()
}

func (r *Router) main(msg tea.KeyMsg, s *app.State) Outcome {
	if out, ok := r.common(msg, s); ok {
		return out
	}
	switch msg.String() {
	case "2":
		showMyPositions(s)
	case "3":
		showLimitOrders(s)
	default:
		return Outcome{}
	}
	r.redraw()
	return Outcome{}
}

func (r *Router) myPositions(msg tea.KeyMsg, s *app.State) Outcome {
	if out, ok := r.common(msg, s); ok {
		return out
	}
	var effect func() string
	key := msg.String()
	switch key {
	case "up", "k":
		s.PrevPosition()
	case "down", "j":
		s.NextPosition()
	case "1", "2", "3", "4", "5", "6", "7":
		s.ChartRange = app.ChartRanges[int(key[0]-'1')]
	case "left":
		s.ChartRange = s.ChartRange.Prev()
	case "right":
		s.ChartRange = s.ChartRange.Next()
	case "v", "tab":
		s.ChartView = s.ChartView.Toggle()
	case "enter":
		if _, ok := s.SelectedPosition(); !ok {
			return Outcome{}
		}
		s.PushRoute(app.PoolInfoRoute{Index: s.PositionCursor}, app.BlockPoolInfo)
		s.SetMode(app.ModePoolInfo)
	case "c":
		effect = r.copyAddress(s)
	case "r":
		if s.Address == nil {
			return Outcome{}
		}
		s.Dispatch(app.FetchPositions{Address: s.Address.Address.Hex()})
		s.AddMessage("Refreshing positions...")
	default:
		return Outcome{}
	}
	r.redraw()
	return Outcome{Effect: effect}
}

func (r *Router) limitOrders(msg tea.KeyMsg, s *app.State) Outcome {
	if out, ok := r.common(msg, s); ok {
		return out
	}
	switch msg.String() {
	case "up", "k":
		s.PrevOrder()
	case "down", "j":
		s.NextOrder()
	case "r":
		s.Dispatch(app.FetchLimitOrders{})
		s.AddMessage("Refreshing limit orders...")
	case "1":
		showMain(s)
	case "2":
		showMyPositions(s)
	default:
		return Outcome{}
	}
	r.redraw()
	return Outcome{}
}

func (r *Router) poolInfo(msg tea.KeyMsg, s *app.State) Outcome {
	if out, ok := r.common(msg, s); ok {
		return out
	}
	var effect func() string
	switch msg.String() {
	case "esc", "backspace":
		s.PopRoute()
		s.SetMode(app.ModeMyPositions)
	case "o":
		effect = r.openPool(s)
	default:
		return Outcome{}
	}
	r.redraw()
	return Outcome{Effect: effect}
}

func (r *Router) copyAddress(s *app.State) func() string {
	if s.Address == nil {
		s.AddMessage("No address to copy")
		return nil
	}
	copyFn := r.Copy
	if copyFn == nil {
		return nil
	}
	addr := s.Address.Address.Hex()
	return func() string {
		if err := copyFn(addr); err != nil {
			return "Failed to copy to clipboard"
		}
		return "Address copied to clipboard!"
	}
}

func (r *Router) openPool(s *app.State) func() string {
	id, ok := s.CurrentRoute().ID.(app.PoolInfoRoute)
	open := r.Open
	if !ok || id.Index < 0 || id.Index >= len(s.Positions) || open == nil {
		return nil
	}
	url := PoolURL + s.Positions[id.Index].Pool.ID
	return func() string {
		if err := open(url); err != nil {
			return fmt.Sprintf("Failed to open browser: %v", err)
		}
		return "Opened in browser"
	}
}

func startEditing(s *app.State) {
	s.InputMode = app.InputEditing
	s.SetMode(app.ModeSearch)
}

func stopEditing(s *app.State) {
	s.InputMode = app.InputNormal
	if s.Mode == app.ModeSearch {
		s.SetMode(s.PreviousMode)
	}
	if b, ok := homeBlock(s.CurrentRoute().ID); ok {
		s.SetActiveBlock(b)
	}
}

func submitSearch(s *app.State) {
	text := strings.TrimSpace(s.SearchText)
	if text == "" {
		s.IsBlankSearch = true
		s.IsInvalidSearch = false
		return
	}
	query, ok := models.ParseNameOrAddress(text)
	if !ok {
		s.IsBlankSearch = false
		s.IsInvalidSearch = true
		s.AddMessage(fmt.Sprintf("%q is not an address or ENS name", text))
		return
	}

	stopEditing(s)
	s.ResetSearch()
	s.CurrentQuery = query.String()
	s.IsSearching = true
	s.ShowRoute(app.SearchingRoute{Query: query.String()}, app.BlockSearchBar)
	if !s.Dispatch(app.ResolveAddress{Query: query}) {
		s.IsSearching = false
		s.AddMessage("Network is not available")
	}
}

// homeBlock is the block a route focuses when the search bar lets go.
func homeBlock(id app.RouteID) (app.ActiveBlock, bool) {
	switch id.(type) {
	case app.MainRoute:
		return app.BlockMain, true
	case app.MyPositionsRoute:
		return app.BlockMyPositions, true
	case app.LimitOrdersRoute:
		return app.BlockLimitOrders, true
	case app.PoolInfoRoute:
		return app.BlockPoolInfo, true
	}
	return app.BlockSearchBar, false
}

func showMain(s *app.State) {
	s.ShowRoute(app.MainRoute{}, app.BlockMain)
	s.SetMode(app.ModeMain)
}

func showMyPositions(s *app.State) {
	s.ShowRoute(app.MyPositionsRoute{}, app.BlockMyPositions)
	s.SetMode(app.ModeMyPositions)
}

func showLimitOrders(s *app.State) {
	s.ShowRoute(app.LimitOrdersRoute{}, app.BlockLimitOrders)
	s.SetMode(app.ModeLimitOrders)
	s.Dispatch(app.FetchLimitOrders{})
}
