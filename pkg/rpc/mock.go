package rpc

import (
	"context"
	"math/big"
	"time"

	"unidash/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

// MockResolver resolves any query without a node. A name maps to a stable
// address taken from its namehash.
type MockResolver struct{}

func (MockResolver) Resolve(ctx context.Context, q models.NameOrAddress) (models.AddressInfo, error) {
	info := models.AddressInfo{
		Address: q.Address,
		Balance: new(big.Int).Mul(big.NewInt(15), big.NewInt(1e17)),
	}
	if q.IsName {
		node := Namehash(q.Name)
		info.Address = common.BytesToAddress(node[12:])
		info.ENSName = q.Name
	}
	return info, nil
}

// MockLimitOrders serves a fixed order book for offline use.
type MockLimitOrders struct {
	Now func() time.Time
}

func (m MockLimitOrders) FetchLimitOrders(ctx context.Context, wallet string) ([]models.LimitOrder, error) {
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	order := func(token, addr string, start, end, price, mcap, vol float64) models.LimitOrder {
		p := price
		return models.LimitOrder{
			Token:        token,
			TokenAddress: addr,
			Deadline:     now,
			StartAmount:  start,
			EndAmount:    end,
			PriceUSD:     &p,
			ValueUSD:     start * price,
			MarketCapUSD: mcap,
			Volume24hUSD: vol,
		}
	}
	return []models.LimitOrder{
		order("WETH", "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", 1.5, 1.45, 3200, 300.12e9, 12.5e9),
		order("USDC", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", 5000, 4990, 1, 42.5e9, 6.8e9),
		order("SHIB", "0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce", 10000000, 9950000, 0.000025, 6.2e9, 180.5e6),
	}, nil
}

// MockPositions serves two synthetic positions with a year of history.
type MockPositions struct {
	Now func() time.Time
}

func (m MockPositions) FetchPositions(ctx context.Context, owner string) ([]models.Position, []models.Sample, error) {
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	series := func(base, step float64) []models.Sample {
		out := make([]models.Sample, 0, HistoryDays)
		for i := HistoryDays - 1; i >= 0; i-- {
			v := base + step*float64((HistoryDays-i)%30) - step*15
			out = append(out, models.Sample{Time: now.AddDate(0, 0, -i), Value: v})
		}
		return out
	}

	weth := models.Token{Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18}
	usdc := models.Token{Symbol: "USDC", Name: "USD Coin", Decimals: 6}
	usdt := models.Token{Symbol: "USDT", Name: "Tether USD", Decimals: 6}

	positions := []models.Position{
		{
			ID:              "1",
			Token0:          usdc,
			Token1:          weth,
			Liquidity:       big.NewInt(1_000_000_000_000),
			Pool:            models.Pool{ID: "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640", FeeTier: 500, Tick: 200000, Token0Price: 3200, Token1Price: 0.0003125},
			TickLower:       models.TickSnapshot{Index: 195000},
			TickUpper:       models.TickSnapshot{Index: 205000},
			DepositedToken0: 10000,
			DepositedToken1: 3,
			CreatedAt:       now.AddDate(0, -4, 0),
			PriceHistory:    series(3200, 12),
			VolumeHistory:   series(150e6, 2e6),
		},
		{
			ID:              "2",
			Token0:          usdc,
			Token1:          usdt,
			Liquidity:       big.NewInt(500_000_000),
			Pool:            models.Pool{ID: "0x3416cf6c708da44db2624d63ea0aaef7113527c6", FeeTier: 100, Tick: -5, Token0Price: 1.0001, Token1Price: 0.9999},
			TickLower:       models.TickSnapshot{Index: -10},
			TickUpper:       models.TickSnapshot{Index: -6},
			DepositedToken0: 2500,
			DepositedToken1: 2500,
			CreatedAt:       now.AddDate(-1, 0, 0),
			PriceHistory:    series(1, 0.0002),
			VolumeHistory:   series(40e6, 1e6),
		},
	}
	return positions, series(300e6, 5e6), nil
}
