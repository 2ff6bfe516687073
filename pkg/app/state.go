package app

import (
	"time"
	"unicode/utf8"

	"unidash/pkg/models"
)

// Mode is the top-level screen, coarser than the focused block.
type Mode int

const (
	ModeWelcome Mode = iota
	ModeMain
	ModeHelp
	ModeSearch
	ModeLimitOrders
	ModePoolInfo
	ModeMyPositions
)

func (m Mode) String() string {
	switch m {
	case ModeWelcome:
		return "Welcome"
	case ModeMain:
		return "Main"
	case ModeHelp:
		return "Help"
	case ModeSearch:
		return "Search"
	case ModeLimitOrders:
		return "LimitOrders"
	case ModePoolInfo:
		return "PoolInfo"
	case ModeMyPositions:
		return "MyPositions"
	}
	return "Unknown"
}

// InputMode applies to the search bar only.
type InputMode int

const (
	InputNormal InputMode = iota
	InputEditing
)

// ChartView selects which series the positions chart plots.
type ChartView int

const (
	ChartPrice ChartView = iota
	ChartVolume
)

func (v ChartView) Toggle() ChartView {
	if v == ChartPrice {
		return ChartVolume
	}
	return ChartPrice
}

func (v ChartView) String() string {
	if v == ChartVolume {
		return "Volume"
	}
	return "Price"
}

// ChartRange is the time window plotted by the positions chart.
type ChartRange int

const (
	RangeOneDay ChartRange = iota
	RangeOneWeek
	RangeOneMonth
	RangeThreeMonths
	RangeSixMonths
	RangeOneYear
	RangeFiveYears
)

// ChartRanges lists every range in display order.
var ChartRanges = []ChartRange{
	RangeOneDay, RangeOneWeek, RangeOneMonth, RangeThreeMonths, RangeSixMonths, RangeOneYear, RangeFiveYears,
}

func (r ChartRange) Label() string {
	return [...]string{"1D", "1W", "1M", "3M", "6M", "1Y", "5Y"}[r]
}

func (r ChartRange) Duration() time.Duration {
	day := 24 * time.Hour
	return [...]time.Duration{day, 7 * day, 30 * day, 90 * day, 180 * day, 365 * day, 5 * 365 * day}[r]
}

// Next and Prev cycle through ChartRanges with wrap-around.
func (r ChartRange) Next() ChartRange {
	return ChartRanges[(int(r)+1)%len(ChartRanges)]
}

func (r ChartRange) Prev() ChartRange {
	return ChartRanges[(int(r)+len(ChartRanges)-1)%len(ChartRanges)]
}

// Sender is the inbound side of the network dispatcher.
type Sender interface {
	Send(ev NetworkEvent) bool
}

// State is the whole application model. It is never touched without the
// lock held by Shared.
type State struct {
	Mode         Mode
	PreviousMode Mode

	SearchText      string
	Cursor          int // rune index into SearchText
	InputMode       InputMode
	CurrentQuery    string
	IsSearching     bool
	IsBlankSearch   bool
	IsInvalidSearch bool

	routes []Route

	Address       *models.AddressInfo
	Positions     []models.Position
	VolumeHistory []models.Sample
	LimitOrders   []models.LimitOrder

	PositionCursor int
	OrderCursor    int
	ChartRange     ChartRange
	ChartView      ChartView

	ShowHelp   bool
	Messages   []string
	Ticks      uint64
	LastUpdate time.Time

	Network Sender
}

func NewState() *State {
	return &State{
		Mode:         ModeWelcome,
		PreviousMode: ModeWelcome,
		routes:       []Route{DefaultRoute()},
		ChartRange:   RangeOneMonth,
	}
}

// SetMode switches screens, remembering the one we came from. While help is
// open the switch is deferred until it closes.
func (s *State) SetMode(m Mode) {
	if s.ShowHelp && m != ModeHelp {
		s.PreviousMode = m
		return
	}
	if s.Mode == m {
		return
	}
	s.PreviousMode = s.Mode
	s.Mode = m
}

func (s *State) OpenHelp() {
	if s.ShowHelp {
		return
	}
	s.ShowHelp = true
	s.SetMode(ModeHelp)
}

func (s *State) CloseHelp() {
	if !s.ShowHelp {
		return
	}
	s.ShowHelp = false
	s.Mode = s.PreviousMode
}

// Dispatch hands ev to the network dispatcher if one is registered.
func (s *State) Dispatch(ev NetworkEvent) bool {
	if s.Network == nil {
		return false
	}
	return s.Network.Send(ev)
}

// AddMessage records a user-visible status line.
func (s *State) AddMessage(msg string) {
	s.Messages = append(s.Messages, msg)
	if len(s.Messages) > maxMessages {
		s.Messages = s.Messages[len(s.Messages)-maxMessages:]
	}
}

// LastMessage is the most recent status line, or "".
func (s *State) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

const maxMessages = 50

// SetPositions replaces the positions wholesale and keeps the table cursor
// inside the new set.
func (s *State) SetPositions(positions []models.Position, volume []models.Sample) {
	s.Positions = positions
	s.VolumeHistory = volume
	s.PositionCursor = clampIndex(s.PositionCursor, len(positions))
}

// SetLimitOrders replaces the orders wholesale.
func (s *State) SetLimitOrders(orders []models.LimitOrder) {
	s.LimitOrders = orders
	s.OrderCursor = clampIndex(s.OrderCursor, len(orders))
}

// SelectedPosition returns the position under the table cursor.
func (s *State) SelectedPosition() (models.Position, bool) {
	if s.PositionCursor < 0 || s.PositionCursor >= len(s.Positions) {
		return models.Position{}, false
	}
	return s.Positions[s.PositionCursor], true
}

// NextPosition and PrevPosition move the table cursor with wrap-around.
func (s *State) NextPosition() {
	s.PositionCursor = wrapIndex(s.PositionCursor+1, len(s.Positions))
}

func (s *State) PrevPosition() {
	s.PositionCursor = wrapIndex(s.PositionCursor-1, len(s.Positions))
}

func (s *State) NextOrder() {
	s.OrderCursor = wrapIndex(s.OrderCursor+1, len(s.LimitOrders))
}

func (s *State) PrevOrder() {
	s.OrderCursor = wrapIndex(s.OrderCursor-1, len(s.LimitOrders))
}

func wrapIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return (i%n + n) % n
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// --- search bar editing ---

func (s *State) runeLen() int {
	return utf8.RuneCountInString(s.SearchText)
}

// byteOffset converts the rune cursor into a byte index into SearchText.
func (s *State) byteOffset(cursor int) int {
	i := 0
	for off := range s.SearchText {
		if i == cursor {
			return off
		}
		i++
	}
	return len(s.SearchText)
}

func (s *State) clampCursor() {
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	if n := s.runeLen(); s.Cursor > n {
		s.Cursor = n
	}
}

func (s *State) MoveCursorLeft() {
	s.Cursor--
	s.clampCursor()
}

func (s *State) MoveCursorRight() {
	s.Cursor++
	s.clampCursor()
}

// InsertChar inserts c at the cursor and moves past it.
func (s *State) InsertChar(c rune) {
	s.clampCursor()
	off := s.byteOffset(s.Cursor)
	s.SearchText = s.SearchText[:off] + string(c) + s.SearchText[off:]
	s.Cursor++
	s.clampCursor()
}

// DeleteCharBeforeCursor removes the rune left of the cursor. At position 0
// it does nothing.
func (s *State) DeleteCharBeforeCursor() {
	s.clampCursor()
	if s.Cursor == 0 {
		return
	}
	from := s.byteOffset(s.Cursor - 1)
	to := s.byteOffset(s.Cursor)
	s.SearchText = s.SearchText[:from] + s.SearchText[to:]
	s.Cursor--
	s.clampCursor()
}

// ResetSearch clears the search bar.
func (s *State) ResetSearch() {
	s.SearchText = ""
	s.Cursor = 0
	s.IsBlankSearch = false
	s.IsInvalidSearch = false
}
