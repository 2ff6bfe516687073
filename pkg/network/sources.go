package network

import (
	"context"
	"errors"

	"unidash/pkg/models"
)

// ErrMissingCredential marks failures that can never succeed without
// operator action, such as an absent API key. It stops the process.
var ErrMissingCredential = errors.New("missing credential")

// ErrEmptyResolution is returned when a lookup succeeds but yields no address.
var ErrEmptyResolution = errors.New("no address found")

// AddressResolver turns an ENS name or hex address into account details.
type AddressResolver interface {
	Resolve(ctx context.Context, query models.NameOrAddress) (models.AddressInfo, error)
}

// PositionSource loads liquidity positions plus a volume series for owner.
type PositionSource interface {
	FetchPositions(ctx context.Context, owner string) ([]models.Position, []models.Sample, error)
}

// LimitOrderSource loads open limit orders, filtered to wallet when set.
// An empty result is valid.
type LimitOrderSource interface {
	FetchLimitOrders(ctx context.Context, wallet string) ([]models.LimitOrder, error)
}
