package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"unidash/pkg/app"
	"unidash/pkg/event"
	"unidash/pkg/keys"
	"unidash/pkg/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTerminal struct {
	input *event.Queue[tea.Msg]

	mu     sync.Mutex
	frames []string
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{input: event.NewQueue[tea.Msg]()}
}

func (f *fakeTerminal) Input() *event.Queue[tea.Msg] {
	return f.input
}

func (f *fakeTerminal) Draw(frame string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
}

func (f *fakeTerminal) Frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

type harness struct {
	loop   *Loop
	router *keys.Router
	term   *fakeTerminal
	shared *app.Shared
	redraw *event.Signal
	data   *event.Signal
	fatal  chan error
	ticker *event.Ticker
}

func newHarness(t *testing.T, tick time.Duration) *harness {
	h := &harness{
		term:   newFakeTerminal(),
		shared: app.NewShared(app.NewState()),
		redraw: event.NewSignal(),
		data:   event.NewSignal(),
		fatal:  make(chan error, 1),
		ticker: event.NewTicker(tick),
	}
	h.router = keys.NewRouter(h.redraw)
	h.loop = NewLoop(h.shared, h.term, h.router, h.ticker, h.redraw, h.data, h.fatal, nil)
	t.Cleanup(h.ticker.Stop)
	return h
}

func (h *harness) run(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- h.loop.Run(ctx)
	}()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func TestDataSignalsCoalesceIntoOneFrame(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loop.SetSize(80, 24)

	h.data.Notify()
	h.data.Notify()
	h.data.Notify()

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	assert.Eventually(t, func() bool { return h.term.Frames() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.term.Frames())

	cancel()
	assert.NoError(t, wait(t, done))
}

func TestInputClosedIsFatal(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.term.input.Close()

	err := wait(t, h.run(context.Background()))
	assert.True(t, errors.Is(err, ErrInputClosed))
}

func TestQuitStopsLoop(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.term.input.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	// messages after the quit are never handled
	h.term.input.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	h.term.input.Close()

	require.NoError(t, wait(t, h.run(context.Background())))
	h.shared.With(func(s *app.State) {
		assert.False(t, s.ShowHelp)
	})
}

func TestFatalErrorStopsLoop(t *testing.T) {
	h := newHarness(t, time.Hour)
	boom := errors.New("fetch positions: missing credential")
	h.fatal <- nil

	done := h.run(context.Background())
	time.Sleep(20 * time.Millisecond)
	h.fatal <- boom

	assert.Equal(t, boom, wait(t, done))
}

func TestClosedFatalChannelIsIgnored(t *testing.T) {
	h := newHarness(t, time.Hour)
	close(h.fatal)

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.NoError(t, wait(t, done))
}

func TestKeysAndResize(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	h.term.input.Send(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Eventually(t, func() bool { return h.term.Frames() >= 1 }, time.Second, 5*time.Millisecond)

	before := h.term.Frames()
	h.term.input.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Eventually(t, func() bool { return h.term.Frames() > before }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, wait(t, done))
	h.shared.With(func(s *app.State) {
		assert.True(t, s.ShowHelp)
	})
	h.term.mu.Lock()
	defer h.term.mu.Unlock()
	assert.Contains(t, h.term.frames[len(h.term.frames)-1], "Keybindings")
}

func TestTicksAdvanceAndDraw(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	h.loop.SetSize(80, 24)
	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	assert.Eventually(t, func() bool { return h.term.Frames() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, wait(t, done))

	h.shared.With(func(s *app.State) {
		assert.GreaterOrEqual(t, s.Ticks, uint64(3))
	})
}

func TestTinyTerminalSkipsFrames(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loop.SetSize(10, 40)
	h.redraw.Notify()
	h.data.Notify()

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	require.NoError(t, wait(t, done))
	assert.Zero(t, h.term.Frames())
}

func TestSlowClipboardDoesNotHoldState(t *testing.T) {
	h := newHarness(t, time.Hour)
	started := make(chan struct{})
	h.router.Copy = func(string) error {
		close(started)
		time.Sleep(300 * time.Millisecond)
		return nil
	}
	h.shared.With(func(s *app.State) {
		s.Address = &models.AddressInfo{Address: common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")}
		s.SetMode(app.ModeMyPositions)
		s.ShowRoute(app.MyPositionsRoute{}, app.BlockMyPositions)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)
	h.term.input.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("clipboard was never called")
	}

	// a dispatcher write while the copy is still running
	begin := time.Now()
	h.shared.With(func(s *app.State) {
		s.AddMessage("positions updated")
	})
	assert.Less(t, time.Since(begin), 100*time.Millisecond)

	assert.Eventually(t, func() bool {
		var last string
		h.shared.With(func(s *app.State) { last = s.LastMessage() })
		return last == "Address copied to clipboard!"
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, wait(t, done))
}
