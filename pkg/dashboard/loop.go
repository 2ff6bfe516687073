package dashboard

import (
	"context"
	"errors"

	"unidash/pkg/app"
	"unidash/pkg/event"
	"unidash/pkg/keys"
	"unidash/pkg/tui"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ErrInputClosed is returned when the terminal stops delivering input
// without the user asking to quit.
var ErrInputClosed = errors.New("terminal input closed")

// Terminal is the screen the loop draws on and reads input from.
type Terminal interface {
	Input() *event.Queue[tea.Msg]
	Draw(frame string)
}

// Loop is the render loop. It is the only goroutine that routes keys and
// draws frames; everything else reaches it through the input queue, the
// ticker, the redraw and data signals, or the fatal channel.
type Loop struct {
	shared *app.Shared
	term   Terminal
	router *keys.Router
	ticker *event.Ticker
	redraw *event.Signal
	data   *event.Signal
	fatal  <-chan error
	logger *zap.Logger

	width, height int
}

func NewLoop(shared *app.Shared, term Terminal, router *keys.Router, ticker *event.Ticker, redraw, data *event.Signal, fatal <-chan error, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		shared: shared,
		term:   term,
		router: router,
		ticker: ticker,
		redraw: redraw,
		data:   data,
		fatal:  fatal,
		logger: logger,
	}
}

// SetSize sets the frame size used until the next resize event.
func (l *Loop) SetSize(width, height int) {
	l.width, l.height = width, height
}

// Run blocks until the user quits, ctx is cancelled or a fatal error arrives.
// A quit or cancellation returns nil.
func (l *Loop) Run(ctx context.Context) error {
	input := l.term.Input()
	fatal := l.fatal
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fatal:
			if !ok {
				fatal = nil
				continue
			}
			if err != nil {
				l.logger.Error("fatal error", zap.Error(err))
				return err
			}
		case <-input.Ready():
			msgs, closed := input.Drain()
			for _, msg := range msgs {
				if l.handle(msg) {
					l.logger.Info("quit requested")
					return nil
				}
			}
			if closed {
				l.logger.Warn("terminal input closed")
				return ErrInputClosed
			}
		case <-l.ticker.C():
			l.shared.With(func(s *app.State) {
				s.Ticks++
			})
			l.render()
		case <-l.redraw.C():
			l.render()
		case <-l.data.C():
			l.render()
		}
	}
}

// handle applies one input message and reports whether to quit.
func (l *Loop) handle(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		var out keys.Outcome
		l.shared.With(func(s *app.State) {
			out = l.router.Handle(msg, s)
		})
		if out.Effect != nil {
			go l.runEffect(out.Effect)
		}
		return out.Quit
	case tea.WindowSizeMsg:
		l.width, l.height = msg.Width, msg.Height
		l.redraw.Notify()
	}
	return false
}

// runEffect performs work the router handed back, outside the state lock,
// and shows its result.
func (l *Loop) runEffect(effect func() string) {
	msg := effect()
	l.shared.With(func(s *app.State) {
		s.AddMessage(msg)
	})
	l.redraw.Notify()
}

func (l *Loop) render() {
	if l.width <= tui.MinSize || l.height <= tui.MinSize {
		return
	}
	var frame string
	l.shared.With(func(s *app.State) {
		frame = tui.Render(s, l.width, l.height)
	})
	l.term.Draw(frame)
}
