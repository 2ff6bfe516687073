package app

import (
	"math/rand"
	"sync"
	"testing"
	"unicode/utf8"

	"unidash/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	events []NetworkEvent
}

func (r *recordingSender) Send(ev NetworkEvent) bool {
	r.events = append(r.events, ev)
	return true
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState()
	assert.Equal(t, ModeWelcome, s.Mode)
	assert.Equal(t, []Route{{ID: WelcomeRoute{}, Block: BlockSearchBar}}, s.Routes())
	assert.False(t, s.IsSearching)
	assert.Equal(t, 0, s.Cursor)
}

func TestPopRouteNeverEmpties(t *testing.T) {
	s := NewState()
	s.PushRoute(MyPositionsRoute{}, BlockMyPositions)
	s.PushRoute(PoolInfoRoute{Index: 1}, BlockPoolInfo)

	for i := 0; i < 10; i++ {
		s.PopRoute()
		require.NotEmpty(t, s.Routes())
	}
	assert.Equal(t, DefaultRoute(), s.CurrentRoute())
}

func TestPopRouteIdempotentAtRoot(t *testing.T) {
	s := NewState()
	before := s.Routes()
	s.PopRoute()
	s.PopRoute()
	assert.Equal(t, before, s.Routes())
}

func TestSetActiveBlockKeepsID(t *testing.T) {
	s := NewState()
	s.PushRoute(SearchingRoute{Query: "vitalik.eth"}, BlockSearchBar)
	s.SetActiveBlock(BlockMain)

	cur := s.CurrentRoute()
	assert.Equal(t, SearchingRoute{Query: "vitalik.eth"}, cur.ID)
	assert.Equal(t, BlockMain, cur.Block)
	assert.Len(t, s.Routes(), 2)

	// root route is refocused in place
	s.PopRoute()
	s.SetActiveBlock(BlockMyPositions)
	assert.Len(t, s.Routes(), 1)
	assert.Equal(t, Route{ID: WelcomeRoute{}, Block: BlockMyPositions}, s.CurrentRoute())
}

func TestShowRoute(t *testing.T) {
	s := NewState()
	s.ShowRoute(MyPositionsRoute{}, BlockMyPositions)
	s.ShowRoute(MyPositionsRoute{}, BlockMyPositions)
	assert.Len(t, s.Routes(), 2)

	s.ShowRoute(PoolInfoRoute{Index: 0}, BlockPoolInfo)
	s.ShowRoute(PoolInfoRoute{Index: 2}, BlockPoolInfo)
	assert.Len(t, s.Routes(), 3)
	assert.Equal(t, PoolInfoRoute{Index: 2}, s.CurrentRoute().ID)
}

func TestSameScreen(t *testing.T) {
	assert.True(t, sameScreen(SearchingRoute{Query: "a.eth"}, SearchingRoute{Query: "b.eth"}))
	assert.True(t, sameScreen(PoolInfoRoute{Index: 1}, PoolInfoRoute{Index: 3}))
	assert.False(t, sameScreen(MainRoute{}, MyPositionsRoute{}))
	assert.False(t, sameScreen(WelcomeRoute{}, SearchingRoute{}))
}

func TestCurrentRouteIsCopy(t *testing.T) {
	s := NewState()
	r := s.CurrentRoute()
	r.Block = BlockLimitOrders
	assert.Equal(t, BlockSearchBar, s.CurrentRoute().Block)
}

func TestInsertAndDeleteUnicode(t *testing.T) {
	s := NewState()
	for _, c := range "vé.eth" {
		s.InsertChar(c)
	}
	assert.Equal(t, "vé.eth", s.SearchText)
	assert.Equal(t, 6, s.Cursor)

	s.MoveCursorLeft()
	s.MoveCursorLeft()
	s.MoveCursorLeft()
	s.MoveCursorLeft()
	// cursor now sits right after "é"
	s.DeleteCharBeforeCursor()
	assert.Equal(t, "v.eth", s.SearchText)
	assert.Equal(t, 1, s.Cursor)

	s.InsertChar('ü')
	assert.Equal(t, "vü.eth", s.SearchText)
	assert.Equal(t, 2, s.Cursor)
}

func TestBackspaceAtStartIsNoop(t *testing.T) {
	s := NewState()
	s.SearchText = "abc"
	s.Cursor = 0

	s.DeleteCharBeforeCursor()
	assert.Equal(t, "abc", s.SearchText)
	assert.Equal(t, 0, s.Cursor)
}

func TestCursorMovementClamps(t *testing.T) {
	s := NewState()
	s.MoveCursorLeft()
	assert.Equal(t, 0, s.Cursor)

	s.InsertChar('a')
	s.MoveCursorRight()
	s.MoveCursorRight()
	assert.Equal(t, 1, s.Cursor)
}

func TestCursorInvariantUnderRandomEdits(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	alphabet := []rune("ab.é漢🙂")
	s := NewState()

	for i := 0; i < 2000; i++ {
		switch r.Intn(4) {
		case 0:
			s.InsertChar(alphabet[r.Intn(len(alphabet))])
		case 1:
			s.DeleteCharBeforeCursor()
		case 2:
			s.MoveCursorLeft()
		case 3:
			s.MoveCursorRight()
		}
		n := utf8.RuneCountInString(s.SearchText)
		require.GreaterOrEqual(t, s.Cursor, 0)
		require.LessOrEqual(t, s.Cursor, n)
		require.True(t, utf8.ValidString(s.SearchText))
	}
}

func TestHelpRestoresMode(t *testing.T) {
	s := NewState()
	s.SetMode(ModeMyPositions)
	s.OpenHelp()
	assert.True(t, s.ShowHelp)
	assert.Equal(t, ModeHelp, s.Mode)

	s.CloseHelp()
	assert.False(t, s.ShowHelp)
	assert.Equal(t, ModeMyPositions, s.Mode)
}

func TestDispatchWithoutSender(t *testing.T) {
	s := NewState()
	assert.False(t, s.Dispatch(FetchLimitOrders{}))

	rec := &recordingSender{}
	s.Network = rec
	assert.True(t, s.Dispatch(FetchLimitOrders{}))
	assert.Equal(t, []NetworkEvent{FetchLimitOrders{}}, rec.events)
}

func TestSetPositionsReplacesWholesale(t *testing.T) {
	s := NewState()
	s.SetPositions([]models.Position{{ID: "1"}, {ID: "2"}, {ID: "3"}}, nil)
	s.PositionCursor = 2

	s.SetPositions([]models.Position{{ID: "9"}}, []models.Sample{{Value: 1}})
	assert.Equal(t, []models.Position{{ID: "9"}}, s.Positions)
	assert.Equal(t, 0, s.PositionCursor)
	assert.Len(t, s.VolumeHistory, 1)
}

func TestPositionCursorWraps(t *testing.T) {
	s := NewState()
	s.SetPositions([]models.Position{{ID: "1"}, {ID: "2"}}, nil)
	s.PrevPosition()
	assert.Equal(t, 1, s.PositionCursor)
	s.NextPosition()
	assert.Equal(t, 0, s.PositionCursor)

	s.SetPositions(nil, nil)
	s.NextPosition()
	assert.Equal(t, 0, s.PositionCursor)
	_, ok := s.SelectedPosition()
	assert.False(t, ok)
}

func TestChartRangeCycles(t *testing.T) {
	assert.Equal(t, RangeFiveYears, RangeOneDay.Prev())
	assert.Equal(t, RangeOneDay, RangeFiveYears.Next())
	assert.Equal(t, "3M", RangeThreeMonths.Label())
	assert.Equal(t, ChartVolume, ChartPrice.Toggle())
}

func TestMessagesAreBounded(t *testing.T) {
	s := NewState()
	for i := 0; i < maxMessages+10; i++ {
		s.AddMessage("m")
	}
	assert.Len(t, s.Messages, maxMessages)
	assert.Equal(t, "m", s.LastMessage())
}

func TestSharedSerializesMutations(t *testing.T) {
	sh := NewShared(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sh.With(func(s *State) {
				s.PushRoute(MyPositionsRoute{}, BlockMyPositions)
				s.SetActiveBlock(BlockMain)
			})
		}()
		go func() {
			defer wg.Done()
			sh.With(func(s *State) { s.PopRoute() })
		}()
	}
	wg.Wait()

	sh.With(func(s *State) {
		assert.NotEmpty(t, s.Routes())
		assert.Equal(t, WelcomeRoute{}, s.Routes()[0].ID)
	})
}

func TestSetModeWhileHelpOpen(t *testing.T) {
	s := NewState()
	s.OpenHelp()
	s.SetMode(ModeMyPositions)
	assert.Equal(t, ModeHelp, s.Mode)

	s.CloseHelp()
	assert.Equal(t, ModeMyPositions, s.Mode)
}
