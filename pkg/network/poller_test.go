package network

import (
	"testing"
	"time"

	"unidash/pkg/app"
	"unidash/pkg/event"

	"github.com/stretchr/testify/assert"
)

func TestPollerRequiresSender(t *testing.T) {
	shared := app.NewShared(nil)
	p := NewPoller(shared, app.FetchLimitOrders{}, time.Millisecond)

	assert.False(t, p.Schedule())
	assert.False(t, p.Active())
	assert.True(t, p.Next().IsZero())
}

func TestPollerDefaultInterval(t *testing.T) {
	p := NewPoller(app.NewShared(nil), app.FetchLimitOrders{}, 0)
	assert.Equal(t, DefaultLimitOrderInterval, p.Interval())
}

func TestPollerSkipsUnregisteredSender(t *testing.T) {
	shared := app.NewShared(nil)
	q := event.NewQueue[app.NetworkEvent]()
	shared.SetNetwork(q)

	p := NewPoller(shared, app.FetchLimitOrders{}, 10*time.Millisecond)
	assert.True(t, p.Schedule())
	assert.False(t, p.Next().IsZero())

	shared.SetNetwork(nil)
	assert.Eventually(t, func() bool { return p.Fired() == 1 }, time.Second, 2*time.Millisecond)
	assert.Zero(t, q.Len())
	assert.False(t, p.Active())
}

func TestPollerScheduleReplacesPending(t *testing.T) {
	shared := app.NewShared(nil)
	q := event.NewQueue[app.NetworkEvent]()
	shared.SetNetwork(q)

	p := NewPoller(shared, app.FetchLimitOrders{}, 30*time.Millisecond)
	p.Schedule()
	p.Schedule()
	p.Schedule()

	assert.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 2*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1, p.Fired())
}

func TestPollerStaleFireKeepsNewerTimer(t *testing.T) {
	shared := app.NewShared(nil)
	q := event.NewQueue[app.NetworkEvent]()
	shared.SetNetwork(q)

	p := NewPoller(shared, app.FetchLimitOrders{}, time.Hour)
	defer p.Stop()
	p.Schedule()
	p.Schedule()

	// the first timer expiring after it was replaced
	p.fire(1)
	assert.True(t, p.Active())
	assert.False(t, p.Next().IsZero())
	assert.Zero(t, p.Fired())
	assert.Zero(t, q.Len())

	p.fire(2)
	assert.False(t, p.Active())
	assert.Equal(t, 1, p.Fired())
	assert.Equal(t, 1, q.Len())
}

func TestPollerStop(t *testing.T) {
	shared := app.NewShared(nil)
	q := event.NewQueue[app.NetworkEvent]()
	shared.SetNetwork(q)

	p := NewPoller(shared, app.FetchLimitOrders{}, 10*time.Millisecond)
	assert.True(t, p.Schedule())
	p.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, q.Len())
	assert.False(t, p.Schedule())
}
