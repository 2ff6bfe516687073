package network

import (
	"sync"
	"time"

	"unidash/pkg/app"
)

// DefaultLimitOrderInterval is the delay between limit order refreshes.
const DefaultLimitOrderInterval = 30 * time.Second

// Poller re-submits an event to the sender registered in state after a fixed
// delay. It is re-armed by the dispatcher after each completed fetch and stays
// quiet once stopped or once no sender is registered.
type Poller struct {
	interval time.Duration
	shared   *app.Shared
	event    app.NetworkEvent

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	next    time.Time
	stopped bool
	fired   int
}

func NewPoller(shared *app.Shared, ev app.NetworkEvent, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultLimitOrderInterval
	}
	return &Poller{interval: interval, shared: shared, event: ev}
}

// Schedule arms the timer, replacing any pending one. It reports whether a
// re-submission is now pending.
func (p *Poller) Schedule() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.shared.Network() == nil {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.next = time.Now().Add(p.interval)
	p.gen++
	gen := p.gen
	p.timer = time.AfterFunc(p.interval, func() { p.fire(gen) })
	return true
}

// fire runs when the timer armed as generation gen expires. A timer that was
// replaced before it took the lock does nothing.
func (p *Poller) fire(gen uint64) {
	p.mu.Lock()
	if p.stopped || p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.fired++
	p.mu.Unlock()

	if sender := p.shared.Network(); sender != nil {
		sender.Send(p.event)
	}
}

// Active reports whether a re-submission is pending.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil && !p.stopped
}

// Next is when the pending re-submission fires, or zero.
func (p *Poller) Next() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer == nil || p.stopped {
		return time.Time{}
	}
	return p.next
}

// Fired counts how many re-submissions have been attempted.
func (p *Poller) Fired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fired
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Stop cancels the pending re-submission and prevents new ones.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
