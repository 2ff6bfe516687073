package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"unidash/pkg/app"
	"unidash/pkg/event"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Sources groups the external data sources the dispatcher calls.
type Sources struct {
	Resolver   AddressResolver
	Positions  PositionSource
	LimitOrder LimitOrderSource
}

// Dispatcher consumes network events one at a time, performs the blocking
// calls with no lock held and writes the results into shared state.
type Dispatcher struct {
	shared  *app.Shared
	queue   *event.Queue[app.NetworkEvent]
	data    *event.Signal
	sources Sources
	poller  *Poller
	logger  *zap.Logger

	subscribers []Subscriber
	mu          sync.RWMutex
}

// NewDispatcher creates a dispatcher reading from queue. data is raised after
// every state write. pollInterval controls limit order refreshes.
func NewDispatcher(shared *app.Shared, queue *event.Queue[app.NetworkEvent], data *event.Signal, sources Sources, pollInterval time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		shared:  shared,
		queue:   queue,
		data:    data,
		sources: sources,
		poller:  NewPoller(shared, app.FetchLimitOrders{}, pollInterval),
		logger:  logger,
	}
}

// Poller exposes the limit order poller.
func (d *Dispatcher) Poller() *Poller {
	return d.poller
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (d *Dispatcher) Subscribe() Subscriber {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := make(Subscriber, 100)
	d.subscribers = append(d.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (d *Dispatcher) Unsubscribe(ch Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, sub := range d.subscribers {
		if sub == ch {
			d.subscribers = append(d.subscribers[:i], d.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (d *Dispatcher) notify(ev Event) {
	d.data.Notify()

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		select {
		case sub <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

// Run processes events until the queue is closed or ctx is cancelled. It
// returns a non-nil error only for failures the process cannot recover from.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.poller.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.queue.Ready():
		}

		events, closed := d.queue.Drain()
		for _, ev := range events {
			if err := d.Handle(ctx, ev); err != nil {
				return err
			}
		}
		if closed {
			d.logger.Info("network queue closed, dispatcher stopping")
			return nil
		}
	}
}

// Handle processes a single event.
func (d *Dispatcher) Handle(ctx context.Context, ev app.NetworkEvent) error {
	d.logger.Debug("handling network event", zap.Stringer("event", ev))

	switch e := ev.(type) {
	case app.ResolveAddress:
		d.resolveAddress(ctx, e)
	case app.FetchPositions:
		return d.fetchPositions(ctx, e)
	case app.FetchLimitOrders:
		d.fetchLimitOrders(ctx)
	default:
		d.logger.Warn("unknown network event", zap.Stringer("event", ev))
	}
	return nil
}

func (d *Dispatcher) resolveAddress(ctx context.Context, e app.ResolveAddress) {
	info, err := d.sources.Resolver.Resolve(ctx, e.Query)
	if err == nil && info.Address == (common.Address{}) {
		err = ErrEmptyResolution
	}
	if err != nil {
		d.logger.Warn("address resolution failed", zap.Stringer("query", e.Query), zap.Error(err))
		d.shared.With(func(s *app.State) {
			s.IsSearching = false
			s.AddMessage(fmt.Sprintf("Could not resolve %s: %v", e.Query, err))
		})
		d.notify(Event{Type: EventRequestFailed, Data: err.Error()})
		return
	}

	d.shared.With(func(s *app.State) {
		s.IsSearching = false
		s.Address = &info
	})
	d.logger.Info("address resolved", zap.String("address", info.Address.Hex()), zap.String("ens", info.ENSName))
	d.notify(Event{Type: EventAddressResolved, Data: info.Address.Hex()})

	d.queue.Send(app.FetchPositions{Address: info.Address.Hex()})
}

func (d *Dispatcher) fetchPositions(ctx context.Context, e app.FetchPositions) error {
	positions, volume, err := d.sources.Positions.FetchPositions(ctx, e.Address)
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			d.logger.Error("positions source cannot authenticate", zap.Error(err))
			return fmt.Errorf("fetch positions: %w", err)
		}
		d.logger.Warn("fetch positions failed", zap.String("address", e.Address), zap.Error(err))
		d.shared.With(func(s *app.State) {
			s.AddMessage(fmt.Sprintf("Failed to load positions: %v", err))
		})
		d.notify(Event{Type: EventRequestFailed, Data: err.Error()})
		return nil
	}

	d.shared.With(func(s *app.State) {
		s.SetPositions(positions, volume)
		s.SetMode(app.ModeMyPositions)
		s.ShowRoute(app.MyPositionsRoute{}, app.BlockMyPositions)
		s.LastUpdate = time.Now()
	})
	d.logger.Info("positions updated", zap.String("address", e.Address), zap.Int("count", len(positions)))
	d.notify(Event{Type: EventPositionsUpdated, Data: len(positions)})
	return nil
}

func (d *Dispatcher) fetchLimitOrders(ctx context.Context) {
	defer d.poller.Schedule()

	var wallet string
	d.shared.With(func(s *app.State) {
		if s.Address != nil {
			wallet = s.Address.Address.Hex()
		}
	})

	orders, err := d.sources.LimitOrder.FetchLimitOrders(ctx, wallet)
	if err != nil {
		d.logger.Warn("fetch limit orders failed", zap.Error(err))
		d.shared.With(func(s *app.State) {
			s.AddMessage(fmt.Sprintf("Failed to load limit orders: %v", err))
		})
		d.notify(Event{Type: EventRequestFailed, Data: err.Error()})
		return
	}

	d.shared.With(func(s *app.State) {
		s.SetLimitOrders(orders)
		s.LastUpdate = time.Now()
	})
	d.logger.Debug("limit orders updated", zap.Int("count", len(orders)))
	d.notify(Event{Type: EventLimitOrdersUpdated, Data: len(orders)})
}
