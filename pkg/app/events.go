package app

import (
	"fmt"

	"unidash/pkg/models"
)

// NetworkEvent is a unit of work for the network dispatcher. Each event is
// consumed exactly once. The set of implementations is closed.
type NetworkEvent interface {
	networkEvent()
	String() string
}

// ResolveAddress turns an ENS name or hex address into an AddressInfo.
type ResolveAddress struct {
	Query models.NameOrAddress
}

// FetchPositions loads the liquidity positions owned by Address.
type FetchPositions struct {
	Address string
}

// FetchLimitOrders loads open limit orders. It reschedules itself.
type FetchLimitOrders struct{}

func (ResolveAddress) networkEvent() {}
func (FetchPositions) networkEvent() {}
func (FetchLimitOrders) networkEvent() {}

func (e ResolveAddress) String() string { return fmt.Sprintf("ResolveAddress{%s}", e.Query) }
func (e FetchPositions) String() string { return fmt.Sprintf("FetchPositions{%s}", e.Address) }
func (FetchLimitOrders) String() string { return "FetchLimitOrders" }
