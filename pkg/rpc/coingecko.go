package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"unidash/pkg/models"
)

var CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko fetches token market data by contract address.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

func NewCoinGecko(baseURL string, timeout time.Duration) *CoinGecko {
	if baseURL == "" {
		baseURL = CoinGeckoBaseURL
	}
	return &CoinGecko{baseURL: strings.TrimRight(baseURL, "/"), client: newHTTPClient(timeout)}
}

// TokenMarket returns USD price, market cap and 24h volume for an Ethereum
// token contract. Unknown tokens yield zero values and no error.
func (c *CoinGecko) TokenMarket(ctx context.Context, address string) (models.TokenMarket, error) {
	addr := strings.ToLower(address)
	q := url.Values{}
	q.Set("contract_addresses", addr)
	q.Set("vs_currencies", "usd")
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/token_price/ethereum?"+q.Encode(), nil)
	if err != nil {
		return models.TokenMarket{}, err
	}

	var result map[string]map[string]float64
	if err := doJSON(c.client, req, &result); err != nil {
		return models.TokenMarket{}, fmt.Errorf("coingecko %s: %w", addr, err)
	}

	data, ok := result[addr]
	if !ok {
		return models.TokenMarket{}, nil
	}
	return models.TokenMarket{
		PriceUSD:     data["usd"],
		MarketCapUSD: data["usd_market_cap"],
		Volume24hUSD: data["usd_24h_vol"],
	}, nil
}
