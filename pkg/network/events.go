package network

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventAddressResolved    EventType = "address_resolved"
	EventPositionsUpdated   EventType = "positions_updated"
	EventLimitOrdersUpdated EventType = "limit_orders_updated"
	EventRequestFailed      EventType = "request_failed"
)

// Event is published to subscribers after the dispatcher writes to state.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
