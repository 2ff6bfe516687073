package tui

import (
	"sync"
	"time"

	"unidash/pkg/event"

	tea "github.com/charmbracelet/bubbletea"
)

// frameMsg carries a fully rendered frame into the program.
type frameMsg string

// bridge is the bubbletea model behind Terminal. It owns no application
// state: input is republished to the queue and View shows the last frame.
type bridge struct {
	input *event.Queue[tea.Msg]
	frame string
}

func (b bridge) Init() tea.Cmd {
	return nil
}

func (b bridge) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		b.frame = string(msg)
	case tea.KeyMsg, tea.WindowSizeMsg:
		b.input.Send(msg)
	}
	return b, nil
}

func (b bridge) View() string {
	return b.frame
}

// Terminal owns the screen. It reads keys and resizes into Input and shows
// whatever Draw was last given. The terminal is restored when the program
// stops, however it stops.
type Terminal struct {
	prog  *tea.Program
	input *event.Queue[tea.Msg]

	once sync.Once
	done chan struct{}
	err  error
}

// NewTerminal prepares a full-screen terminal. opts replace the default
// options, which tests use to detach from the real tty.
func NewTerminal(opts ...tea.ProgramOption) *Terminal {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	input := event.NewQueue[tea.Msg]()
	return &Terminal{
		prog:  tea.NewProgram(bridge{input: input}, opts...),
		input: input,
		done:  make(chan struct{}),
	}
}

// Start runs the program in the background. When it exits, for any reason,
// Input is closed.
func (t *Terminal) Start() {
	t.once.Do(func() {
		go func() {
			defer close(t.done)
			defer t.input.Close()
			_, t.err = t.prog.Run()
		}()
	})
}

// Input is the stream of tea.KeyMsg and tea.WindowSizeMsg values.
func (t *Terminal) Input() *event.Queue[tea.Msg] {
	return t.input
}

// Draw replaces the frame on screen. It returns once the program has taken
// the frame, or immediately if it has stopped.
func (t *Terminal) Draw(frame string) {
	t.prog.Send(frameMsg(frame))
}

// Done is closed once the program has exited and the terminal is restored.
func (t *Terminal) Done() <-chan struct{} {
	return t.done
}

// Close stops the program and waits for the terminal to be restored.
func (t *Terminal) Close() error {
	t.Start()
	t.prog.Quit()
	<-t.done
	return t.err
}

// RestoreOnPanic must be deferred directly by goroutines that may panic
// while the terminal is in raw mode. It restores the terminal and re-panics.
func (t *Terminal) RestoreOnPanic() {
	if r := recover(); r != nil {
		t.prog.Kill()
		select {
		case <-t.done:
		case <-time.After(time.Second):
		}
		panic(r)
	}
}
