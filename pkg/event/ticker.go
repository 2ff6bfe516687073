package event

import (
	"sync"
	"time"
)

// DefaultTickRate drives redraw cadence and animations.
const DefaultTickRate = 200 * time.Millisecond

// Ticker emits on C every interval. Each wait is interval minus the time
// already spent since the last tick, so a slow consumer delays at most one
// tick instead of building a backlog.
type Ticker struct {
	interval time.Duration
	c        chan time.Time
	stop     chan struct{}
	once     sync.Once
}

func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultTickRate
	}
	t := &Ticker{
		interval: interval,
		c:        make(chan time.Time, 1),
		stop:     make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Ticker) C() <-chan time.Time {
	return t.c
}

func (t *Ticker) Interval() time.Duration {
	return t.interval
}

func (t *Ticker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

func (t *Ticker) run() {
	last := time.Now()
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
		case <-t.stop:
			return
		}

		if time.Since(last) >= t.interval {
			now := time.Now()
			select {
			case t.c <- now:
			default:
			}
			last = now
		}
		timer.Reset(Remaining(t.interval, time.Since(last)))
	}
}

// Remaining is the time left until the next tick, never negative.
func Remaining(interval, elapsed time.Duration) time.Duration {
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}
