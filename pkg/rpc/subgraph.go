package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"unidash/pkg/models"
	"unidash/pkg/network"

	"go.uber.org/zap"
)

// DefaultSubgraphURL is the Uniswap v3 mainnet subgraph on The Graph gateway.
const DefaultSubgraphURL = "https://gateway.thegraph.com/api/subgraphs/id/5zvR82QoaXYFyDEKLZ9t6v9adgnptxYpKpSbxtgVENFV"

// HistoryDays is how many daily samples are requested per series.
const HistoryDays = 365

const positionsQuery = `query Positions($owner: String!, $days: Int!) {
  positions(where: {owner: $owner, liquidity_gt: 0}) {
    id
    liquidity
    depositedToken0
    depositedToken1
    withdrawnToken0
    withdrawnToken1
    feeGrowthInside0LastX128
    feeGrowthInside1LastX128
    transaction { timestamp }
    token0 { symbol name decimals volumeUSD }
    token1 { symbol name decimals volumeUSD }
    tickLower { tickIdx feeGrowthOutside0X128 feeGrowthOutside1X128 }
    tickUpper { tickIdx feeGrowthOutside0X128 feeGrowthOutside1X128 }
    pool {
      id
      feeTier
      tick
      token0Price
      token1Price
      volumeToken0
      volumeToken1
      feeGrowthGlobal0X128
      feeGrowthGlobal1X128
      poolDayData(first: $days, orderBy: date, orderDirection: desc) { date token0Price volumeUSD }
    }
  }
  tokenDayDatas(first: $days, orderBy: date, orderDirection: desc) { date volumeUSD }
}`

type graphRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphError struct {
	Message string `json:"message"`
}

type graphToken struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Decimals  string `json:"decimals"`
	VolumeUSD string `json:"volumeUSD"`
}

type graphTick struct {
	TickIdx               string `json:"tickIdx"`
	FeeGrowthOutside0X128 string `json:"feeGrowthOutside0X128"`
	FeeGrowthOutside1X128 string `json:"feeGrowthOutside1X128"`
}

type graphTransaction struct {
	Timestamp string `json:"timestamp"`
}

type graphDay struct {
	Date        int64  `json:"date"`
	Token0Price string `json:"token0Price"`
	VolumeUSD   string `json:"volumeUSD"`
}

type graphPool struct {
	ID                   string     `json:"id"`
	FeeTier              string     `json:"feeTier"`
	Tick                 *string    `json:"tick"`
	Token0Price          string     `json:"token0Price"`
	Token1Price          string     `json:"token1Price"`
	VolumeToken0         string     `json:"volumeToken0"`
	VolumeToken1         string     `json:"volumeToken1"`
	FeeGrowthGlobal0X128 string     `json:"feeGrowthGlobal0X128"`
	FeeGrowthGlobal1X128 string     `json:"feeGrowthGlobal1X128"`
	PoolDayData          []graphDay `json:"poolDayData"`
}

type graphPosition struct {
	ID                       string           `json:"id"`
	Liquidity                string           `json:"liquidity"`
	DepositedToken0          string           `json:"depositedToken0"`
	DepositedToken1          string           `json:"depositedToken1"`
	WithdrawnToken0          string           `json:"withdrawnToken0"`
	WithdrawnToken1          string           `json:"withdrawnToken1"`
	FeeGrowthInside0LastX128 string           `json:"feeGrowthInside0LastX128"`
	FeeGrowthInside1LastX128 string           `json:"feeGrowthInside1LastX128"`
	Transaction              graphTransaction `json:"transaction"`
	Token0                   graphToken       `json:"token0"`
	Token1                   graphToken       `json:"token1"`
	TickLower                graphTick        `json:"tickLower"`
	TickUpper                graphTick        `json:"tickUpper"`
	Pool                     graphPool        `json:"pool"`
}

type positionsResponse struct {
	Data struct {
		Positions     []graphPosition `json:"positions"`
		TokenDayDatas []graphDay      `json:"tokenDayDatas"`
	} `json:"data"`
	Errors []graphError `json:"errors"`
}

// Subgraph loads Uniswap v3 positions through a GraphQL endpoint.
type Subgraph struct {
	url     string
	apiKey  string
	client  *http.Client
	retries int
	logger  *zap.Logger
}

func NewSubgraph(url, apiKey string, timeout time.Duration, logger *zap.Logger) *Subgraph {
	if url == "" {
		url = DefaultSubgraphURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subgraph{url: url, apiKey: apiKey, client: newHTTPClient(timeout), retries: 2, logger: logger}
}

// requiresKey reports whether the endpoint is The Graph's paid gateway.
func (s *Subgraph) requiresKey() bool {
	return strings.Contains(s.url, "gateway.thegraph.com")
}

// FetchPositions returns the open positions of owner and the daily volume
// series, both in chronological order.
func (s *Subgraph) FetchPositions(ctx context.Context, owner string) ([]models.Position, []models.Sample, error) {
	if s.apiKey == "" && s.requiresKey() {
		return nil, nil, fmt.Errorf("graph api key not configured: %w", network.ErrMissingCredential)
	}

	body, err := json.Marshal(graphRequest{
		Query:     positionsQuery,
		Variables: map[string]interface{}{"owner": strings.ToLower(owner), "days": HistoryDays},
	})
	if err != nil {
		return nil, nil, err
	}

	var resp positionsResponse
	err = withRetry(ctx, s.retries, 250*time.Millisecond, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}
		resp = positionsResponse{}
		return doJSON(s.client, req, &resp)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subgraph: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, nil, fmt.Errorf("subgraph: %s", resp.Errors[0].Message)
	}

	positions := make([]models.Position, 0, len(resp.Data.Positions))
	for _, gp := range resp.Data.Positions {
		positions = append(positions, gp.toModel())
	}
	volume := daySamples(resp.Data.TokenDayDatas, func(d graphDay) string { return d.VolumeUSD })

	s.logger.Debug("subgraph positions", zap.String("owner", owner), zap.Int("count", len(positions)))
	return positions, volume, nil
}

func (gp graphPosition) toModel() models.Position {
	p := models.Position{
		ID:                       gp.ID,
		Token0:                   gp.Token0.toModel(),
		Token1:                   gp.Token1.toModel(),
		Liquidity:                parseBig(gp.Liquidity),
		FeeGrowthInside0LastX128: parseBig(gp.FeeGrowthInside0LastX128),
		FeeGrowthInside1LastX128: parseBig(gp.FeeGrowthInside1LastX128),
		DepositedToken0:          parseFloat(gp.DepositedToken0),
		DepositedToken1:          parseFloat(gp.DepositedToken1),
		WithdrawnToken0:          parseFloat(gp.WithdrawnToken0),
		WithdrawnToken1:          parseFloat(gp.WithdrawnToken1),
		TickLower:                gp.TickLower.toModel(),
		TickUpper:                gp.TickUpper.toModel(),
		Pool: models.Pool{
			ID:                   gp.Pool.ID,
			FeeTier:              parseInt(gp.Pool.FeeTier),
			Token0Price:          parseFloat(gp.Pool.Token0Price),
			Token1Price:          parseFloat(gp.Pool.Token1Price),
			VolumeToken0:         parseFloat(gp.Pool.VolumeToken0),
			VolumeToken1:         parseFloat(gp.Pool.VolumeToken1),
			FeeGrowthGlobal0X128: parseBig(gp.Pool.FeeGrowthGlobal0X128),
			FeeGrowthGlobal1X128: parseBig(gp.Pool.FeeGrowthGlobal1X128),
		},
		PriceHistory:  daySamples(gp.Pool.PoolDayData, func(d graphDay) string { return d.Token0Price }),
		VolumeHistory: daySamples(gp.Pool.PoolDayData, func(d graphDay) string { return d.VolumeUSD }),
	}
	if gp.Pool.Tick != nil {
		p.Pool.Tick = parseInt(*gp.Pool.Tick)
	}
	if ts, err := strconv.ParseInt(gp.Transaction.Timestamp, 10, 64); err == nil && ts > 0 {
		p.CreatedAt = time.Unix(ts, 0)
	}
	return p
}

func (gt graphToken) toModel() models.Token {
	return models.Token{
		Symbol:    gt.Symbol,
		Name:      gt.Name,
		Decimals:  parseInt(gt.Decimals),
		VolumeUSD: parseFloat(gt.VolumeUSD),
	}
}

func (gt graphTick) toModel() models.TickSnapshot {
	return models.TickSnapshot{
		Index:                 parseInt(gt.TickIdx),
		FeeGrowthOutside0X128: parseBig(gt.FeeGrowthOutside0X128),
		FeeGrowthOutside1X128: parseBig(gt.FeeGrowthOutside1X128),
	}
}

// daySamples converts newest-first day data into an oldest-first series.
func daySamples(days []graphDay, value func(graphDay) string) []models.Sample {
	out := make([]models.Sample, 0, len(days))
	for _, d := range days {
		out = append(out, models.Sample{Time: time.Unix(d.Date, 0), Value: parseFloat(value(d))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}
