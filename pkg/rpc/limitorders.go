package rpc

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"unidash/pkg/models"
	"unidash/pkg/utils"

	"go.uber.org/zap"
)

// DefaultLimitOrdersURL lists open mainnet limit orders, newest first.
const DefaultLimitOrdersURL = "https://api.uniswap.org/v1/limit-orders?orderStatus=open&chainId=1&limit=100&sortKey=createdAt&desc=true"

// MarketDataDelay spaces out market data requests to stay under the free
// CoinGecko rate limit.
var MarketDataDelay = 300 * time.Millisecond

// knownTokens maps lowercase contract addresses to symbol and decimals.
var knownTokens = map[string]struct {
	Symbol   string
	Decimals int
}{
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": {"USDC", 6},
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {"WETH", 18},
	"0xdac17f958d2ee523a2206206994597c13d831ec7": {"USDT", 6},
	"0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce": {"SHIB", 18},
}

// TokenInfo returns the display symbol and decimals of a token contract.
// Unknown tokens get a shortened address and 18 decimals.
func TokenInfo(address string) (string, int) {
	if t, ok := knownTokens[strings.ToLower(address)]; ok {
		return t.Symbol, t.Decimals
	}
	return utils.ShortAddress(address), 18
}

// MarketSource provides market data for a token contract.
type MarketSource interface {
	TokenMarket(ctx context.Context, address string) (models.TokenMarket, error)
}

type orderInput struct {
	Token       string `json:"token"`
	StartAmount string `json:"startAmount"`
	EndAmount   string `json:"endAmount"`
}

type apiOrder struct {
	Maker     string      `json:"maker"`
	CreatedAt string      `json:"createdAt"`
	Input     *orderInput `json:"input"`
}

type ordersResponse struct {
	Orders []apiOrder `json:"orders"`
}

// LimitOrders reads open orders from the Uniswap API and prices them.
type LimitOrders struct {
	url     string
	client  *http.Client
	markets MarketSource
	delay   time.Duration
	logger  *zap.Logger
}

func NewLimitOrders(url string, markets MarketSource, timeout time.Duration, logger *zap.Logger) *LimitOrders {
	if url == "" {
		url = DefaultLimitOrdersURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LimitOrders{url: url, client: newHTTPClient(timeout), markets: markets, delay: MarketDataDelay, logger: logger}
}

// FetchLimitOrders returns open orders made by wallet, or every open order
// when wallet is empty. Orders missing required fields are skipped and
// market data failures leave the USD figures at zero.
func (l *LimitOrders) FetchLimitOrders(ctx context.Context, wallet string) ([]models.LimitOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, err
	}
	var resp ordersResponse
	if err := doJSON(l.client, req, &resp); err != nil {
		return nil, fmt.Errorf("limit orders: %w", err)
	}

	markets := make(map[string]models.TokenMarket)
	orders := make([]models.LimitOrder, 0)
	for _, o := range resp.Orders {
		if wallet != "" && o.Maker != "" && !strings.EqualFold(o.Maker, wallet) {
			continue
		}
		if o.Input == nil || o.Input.Token == "" || o.Input.StartAmount == "" || o.Input.EndAmount == "" {
			l.logger.Debug("skipping incomplete order", zap.String("maker", o.Maker))
			continue
		}

		symbol, decimals := TokenInfo(o.Input.Token)
		order := models.LimitOrder{
			Token:        symbol,
			TokenAddress: o.Input.Token,
			StartAmount:  scaleAmount(o.Input.StartAmount, decimals),
			EndAmount:    scaleAmount(o.Input.EndAmount, decimals),
		}
		if t, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
			order.Deadline = t
		}

		key := strings.ToLower(o.Input.Token)
		market, ok := markets[key]
		if !ok && l.markets != nil {
			if err := sleep(ctx, l.delay); err != nil {
				return nil, err
			}
			market, err = l.markets.TokenMarket(ctx, o.Input.Token)
			if err != nil {
				l.logger.Warn("market data unavailable", zap.String("token", symbol), zap.Error(err))
				market = models.TokenMarket{}
			}
			markets[key] = market
		}

		if price := market.PriceUSD; price > 0 {
			order.PriceUSD = &price
			order.ValueUSD = order.StartAmount * price
		}
		order.MarketCapUSD = market.MarketCapUSD
		order.Volume24hUSD = market.Volume24hUSD
		orders = append(orders, order)
	}

	l.logger.Debug("limit orders processed", zap.Int("total", len(resp.Orders)), zap.Int("kept", len(orders)))
	return orders, nil
}

func scaleAmount(raw string, decimals int) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v / math.Pow10(decimals)
}
