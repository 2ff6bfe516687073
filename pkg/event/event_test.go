package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalCoalesces(t *testing.T) {
	s := NewSignal()

	assert.True(t, s.Notify())
	assert.False(t, s.Notify())
	assert.False(t, s.Notify())
	assert.True(t, s.Pending())

	wakes := 0
	for {
		select {
		case <-s.C():
			wakes++
			continue
		default:
		}
		break
	}
	assert.Equal(t, 1, wakes)
	assert.False(t, s.Pending())

	assert.True(t, s.Notify())
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 150*time.Millisecond, Remaining(200*time.Millisecond, 50*time.Millisecond))
	assert.Equal(t, time.Duration(0), Remaining(200*time.Millisecond, 200*time.Millisecond))
	assert.Equal(t, time.Duration(0), Remaining(200*time.Millisecond, time.Second))
}

func TestTickerTicks(t *testing.T) {
	tk := NewTicker(10 * time.Millisecond)
	defer tk.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-tk.C():
		case <-time.After(time.Second):
			t.Fatalf("tick %d never arrived", i)
		}
	}
}

func TestTickerDoesNotBacklog(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	// a slow consumer sees at most one buffered tick
	time.Sleep(60 * time.Millisecond)
	assert.LessOrEqual(t, len(tk.c), 1)
}

func TestTickerDefaultInterval(t *testing.T) {
	tk := NewTicker(0)
	defer tk.Stop()
	assert.Equal(t, DefaultTickRate, tk.Interval())
}

func TestQueueOrderAndDrain(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 5; i++ {
		require.True(t, q.Send(i))
	}
	assert.Equal(t, 5, q.Len())

	<-q.Ready()
	items, closed := q.Drain()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, items)
	assert.False(t, closed)
	assert.Equal(t, 0, q.Len())
}

func TestQueueNeverDrops(t *testing.T) {
	q := NewQueue[int]()
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				q.Send(i)
			}
		}()
	}
	wg.Wait()

	items, _ := q.Drain()
	assert.Len(t, items, 4000)
}

func TestQueueClose(t *testing.T) {
	q := NewQueue[string]()
	q.Send("last")
	q.Close()
	q.Close()

	assert.False(t, q.Send("dropped"))

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("closed queue should be ready")
	}
	items, closed := q.Drain()
	assert.Equal(t, []string{"last"}, items)
	assert.True(t, closed)

	items, closed = q.Drain()
	assert.Empty(t, items)
	assert.True(t, closed)
}
