package server

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"unidash/pkg/app"
	"unidash/pkg/models"
	"unidash/pkg/network"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	sub network.Subscriber
}

func (f *fakePublisher) Subscribe() network.Subscriber {
	f.sub = make(network.Subscriber, 10)
	return f.sub
}

func (f *fakePublisher) Unsubscribe(ch network.Subscriber) {
	close(ch)
}

func loadedShared() *app.Shared {
	price := 2.5
	s := app.NewState()
	s.Address = &models.AddressInfo{
		Address: common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"),
		ENSName: "vitalik.eth",
		Balance: big.NewInt(42),
	}
	s.SetPositions([]models.Position{{
		ID:        "7",
		Token0:    models.Token{Symbol: "WETH"},
		Token1:    models.Token{Symbol: "USDC"},
		Pool:      models.Pool{ID: "0xpool", FeeTier: 500, Tick: 1},
		TickLower: models.TickSnapshot{Index: 0},
		TickUpper: models.TickSnapshot{Index: 2},
		Liquidity: big.NewInt(1000),
	}}, nil)
	s.SetLimitOrders([]models.LimitOrder{{Token: "SHIB", StartAmount: 10, EndAmount: 9, PriceUSD: &price, ValueUSD: 25}})
	s.SetMode(app.ModeMyPositions)
	s.ShowRoute(app.MyPositionsRoute{}, app.BlockMyPositions)
	s.LastUpdate = time.Unix(1700000000, 0)
	return app.NewShared(s)
}

func TestHandleStatus(t *testing.T) {
	s := NewServer(loadedShared(), &fakePublisher{}, nil)

	req, _ := http.NewRequest("GET", "/api/status", nil)
	rr := httptest.NewRecorder()

	s.mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp Status
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "MyPositions", resp.Mode)
	assert.Equal(t, "my-positions", resp.Route)
	assert.Equal(t, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", resp.Address)
	assert.Equal(t, "vitalik.eth", resp.ENSName)
	assert.Equal(t, "42", resp.BalanceWei)
	assert.Equal(t, int64(1700000000), resp.LastUpdate)
	require.Len(t, resp.Positions, 1)
	assert.Equal(t, "WETH/USDC", resp.Positions[0].Name)
	assert.True(t, resp.Positions[0].InRange)
	assert.Equal(t, "1000", resp.Positions[0].Liquidity)
	require.Len(t, resp.LimitOrders, 1)
	assert.Equal(t, 2.5, *resp.LimitOrders[0].PriceUSD)
}

func TestHandleStatusEmpty(t *testing.T) {
	s := NewServer(app.NewShared(nil), &fakePublisher{}, nil)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/status", nil))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Welcome", resp["mode"])
	assert.NotContains(t, resp, "address")
	assert.Equal(t, []interface{}{}, resp["positions"])
}

func TestHandleWS(t *testing.T) {
	pub := &fakePublisher{}
	s := NewServer(loadedShared(), pub, nil)
	go s.listen(pub.Subscribe())
	defer pub.Unsubscribe(pub.sub)

	server := httptest.NewServer(s.mux)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	// Read initial state
	var msg map[string]interface{}
	err = ws.ReadJSON(&msg)
	require.NoError(t, err)
	assert.Equal(t, "initial", msg["type"])
	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "vitalik.eth", data["ens_name"])

	pub.sub <- network.Event{Type: network.EventPositionsUpdated, Data: 1}

	var ev network.Event
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, network.EventPositionsUpdated, ev.Type)
	assert.Equal(t, float64(1), ev.Data)
}
