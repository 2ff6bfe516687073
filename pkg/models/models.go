package models

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// NameOrAddress is what the user typed into the search bar.
type NameOrAddress struct {
	Name    string
	Address common.Address
	IsName  bool
}

// ParseNameOrAddress classifies a search query. Hex input must be a valid
// 20-byte address; anything else must look like an ENS name (contain a dot).
func ParseNameOrAddress(query string) (NameOrAddress, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return NameOrAddress{}, false
	}
	if strings.HasPrefix(strings.ToLower(q), "0x") {
		if !common.IsHexAddress(q) {
			return NameOrAddress{}, false
		}
		return NameOrAddress{Address: common.HexToAddress(q)}, true
	}
	if !strings.Contains(q, ".") || strings.HasPrefix(q, ".") || strings.HasSuffix(q, ".") {
		return NameOrAddress{}, false
	}
	return NameOrAddress{Name: strings.ToLower(q), IsName: true}, true
}

func (n NameOrAddress) String() string {
	if n.IsName {
		return n.Name
	}
	return n.Address.Hex()
}

// AddressInfo is the result of resolving a search query.
type AddressInfo struct {
	Address common.Address
	ENSName string
	Balance *big.Int // wei
}

// Sample is a single timestamped value of a time series.
type Sample struct {
	Time  time.Time
	Value float64
}

// Token describes one side of a pool.
type Token struct {
	Symbol    string
	Name      string
	Decimals  int
	VolumeUSD float64
}

// Pool holds the pool-level data a position refers to.
type Pool struct {
	ID                   string
	FeeTier              int
	Tick                 int
	Token0Price          float64
	Token1Price          float64
	VolumeToken0         float64
	VolumeToken1         float64
	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int
}

// TickSnapshot is the fee growth recorded outside a position boundary.
type TickSnapshot struct {
	Index                 int
	FeeGrowthOutside0X128 *big.Int
	FeeGrowthOutside1X128 *big.Int
}

// Position is a single Uniswap v3 liquidity position.
type Position struct {
	ID                       string
	Token0                   Token
	Token1                   Token
	Pool                     Pool
	TickLower                TickSnapshot
	TickUpper                TickSnapshot
	Liquidity                *big.Int
	FeeGrowthInside0LastX128 *big.Int
	FeeGrowthInside1LastX128 *big.Int
	DepositedToken0          float64
	DepositedToken1          float64
	WithdrawnToken0          float64
	WithdrawnToken1          float64
	CreatedAt                time.Time
	PriceHistory             []Sample
	VolumeHistory            []Sample
}

// LimitOrder is an open Uniswap limit order enriched with market data.
type LimitOrder struct {
	Token        string
	TokenAddress string
	Deadline     time.Time
	StartAmount  float64
	EndAmount    float64
	PriceUSD     *float64
	ValueUSD     float64
	MarketCapUSD float64
	Volume24hUSD float64
}

// TokenMarket holds CoinGecko market data for a token contract.
type TokenMarket struct {
	PriceUSD     float64
	MarketCapUSD float64
	Volume24hUSD float64
}
