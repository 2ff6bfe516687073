package models

import (
	"math/big"
	"time"
)

var (
	q128    = new(big.Int).Lsh(big.NewInt(1), 128)
	mod256  = new(big.Int).Lsh(big.NewInt(1), 256)
	bigZero = big.NewInt(0)
)

// Name is the pair label shown in tables, e.g. "WETH/USDC".
func (p Position) Name() string {
	return p.Token0.Symbol + "/" + p.Token1.Symbol
}

// InRange reports whether the pool's current tick lies inside the position.
func (p Position) InRange() bool {
	return p.TickLower.Index <= p.Pool.Tick && p.Pool.Tick < p.TickUpper.Index
}

// Age returns how long ago the position was opened.
func (p Position) Age(now time.Time) time.Duration {
	if p.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(p.CreatedAt)
}

// UncollectedFees returns the fees owed to the position since its last
// snapshot, in token units.
func (p Position) UncollectedFees() (float64, float64) {
	if p.Liquidity == nil {
		return 0, 0
	}
	inside0, inside1 := p.feeGrowthInside()
	fee0 := feesOwed(p.Liquidity, inside0, p.FeeGrowthInside0LastX128)
	fee1 := feesOwed(p.Liquidity, inside1, p.FeeGrowthInside1LastX128)
	return scaleDecimals(fee0, p.Token0.Decimals), scaleDecimals(fee1, p.Token1.Decimals)
}

func (p Position) feeGrowthInside() (*big.Int, *big.Int) {
	g0 := orZero(p.Pool.FeeGrowthGlobal0X128)
	g1 := orZero(p.Pool.FeeGrowthGlobal1X128)
	lo0, lo1 := orZero(p.TickLower.FeeGrowthOutside0X128), orZero(p.TickLower.FeeGrowthOutside1X128)
	hi0, hi1 := orZero(p.TickUpper.FeeGrowthOutside0X128), orZero(p.TickUpper.FeeGrowthOutside1X128)

	var below0, below1, above0, above1 *big.Int
	if p.Pool.Tick >= p.TickLower.Index {
		below0, below1 = lo0, lo1
	} else {
		below0, below1 = sub256(g0, lo0), sub256(g1, lo1)
	}
	if p.Pool.Tick < p.TickUpper.Index {
		above0, above1 = hi0, hi1
	} else {
		above0, above1 = sub256(g0, hi0), sub256(g1, hi1)
	}
	return sub256(sub256(g0, below0), above0), sub256(sub256(g1, below1), above1)
}

func feesOwed(liquidity, inside, last *big.Int) *big.Int {
	delta := sub256(inside, orZero(last))
	owed := new(big.Int).Mul(liquidity, delta)
	return owed.Quo(owed, q128)
}

// sub256 subtracts with uint256 wrap-around, as the pool contract does.
func sub256(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return r.Mod(r, mod256)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return bigZero
	}
	return v
}

func scaleDecimals(v *big.Int, decimals int) float64 {
	f := new(big.Float).SetInt(v)
	if decimals > 0 {
		div := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
		f.Quo(f, div)
	}
	out, _ := f.Float64()
	return out
}
