package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"unidash/pkg/app"
	"unidash/pkg/network"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Publisher is the source of dispatcher events streamed on /ws.
type Publisher interface {
	Subscribe() network.Subscriber
	Unsubscribe(network.Subscriber)
}

// PositionStatus is the JSON view of one position.
type PositionStatus struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Pool        string  `json:"pool"`
	FeeTier     int     `json:"fee_tier"`
	InRange     bool    `json:"in_range"`
	FeesToken0  float64 `json:"fees_token0"`
	FeesToken1  float64 `json:"fees_token1"`
	Liquidity   string  `json:"liquidity"`
	CreatedAt   int64   `json:"created_at,omitempty"`
	HistoryDays int     `json:"history_days"`
}

// OrderStatus is the JSON view of one limit order.
type OrderStatus struct {
	Token       string   `json:"token"`
	Deadline    int64    `json:"deadline,omitempty"`
	StartAmount float64  `json:"start_amount"`
	EndAmount   float64  `json:"end_amount"`
	PriceUSD    *float64 `json:"price_usd"`
	ValueUSD    float64  `json:"value_usd"`
}

// Status is a point-in-time snapshot of the dashboard.
type Status struct {
	Mode        string           `json:"mode"`
	Route       string           `json:"route"`
	Searching   bool             `json:"searching"`
	Query       string           `json:"query,omitempty"`
	Address     string           `json:"address,omitempty"`
	ENSName     string           `json:"ens_name,omitempty"`
	BalanceWei  string           `json:"balance_wei,omitempty"`
	Positions   []PositionStatus `json:"positions"`
	LimitOrders []OrderStatus    `json:"limit_orders"`
	Messages    []string         `json:"messages"`
	LastUpdate  int64            `json:"last_update,omitempty"`
}

// Snapshot copies what the status API exposes out of s.
func Snapshot(s *app.State) Status {
	st := Status{
		Mode:        s.Mode.String(),
		Route:       fmt.Sprint(s.CurrentRoute().ID),
		Searching:   s.IsSearching,
		Query:       s.CurrentQuery,
		Positions:   make([]PositionStatus, 0, len(s.Positions)),
		LimitOrders: make([]OrderStatus, 0, len(s.LimitOrders)),
		Messages:    append([]string{}, s.Messages...),
	}
	if s.Address != nil {
		st.Address = s.Address.Address.Hex()
		st.ENSName = s.Address.ENSName
		if s.Address.Balance != nil {
			st.BalanceWei = s.Address.Balance.String()
		}
	}
	if !s.LastUpdate.IsZero() {
		st.LastUpdate = s.LastUpdate.Unix()
	}
	for _, p := range s.Positions {
		f0, f1 := p.UncollectedFees()
		ps := PositionStatus{
			ID:          p.ID,
			Name:        p.Name(),
			Pool:        p.Pool.ID,
			FeeTier:     p.Pool.FeeTier,
			InRange:     p.InRange(),
			FeesToken0:  f0,
			FeesToken1:  f1,
			Liquidity:   "0",
			HistoryDays: len(p.PriceHistory),
		}
		if p.Liquidity != nil {
			ps.Liquidity = p.Liquidity.String()
		}
		if !p.CreatedAt.IsZero() {
			ps.CreatedAt = p.CreatedAt.Unix()
		}
		st.Positions = append(st.Positions, ps)
	}
	for _, o := range s.LimitOrders {
		ord := OrderStatus{
			Token:       o.Token,
			StartAmount: o.StartAmount,
			EndAmount:   o.EndAmount,
			PriceUSD:    o.PriceUSD,
			ValueUSD:    o.ValueUSD,
		}
		if !o.Deadline.IsZero() {
			ord.Deadline = o.Deadline.Unix()
		}
		st.LimitOrders = append(st.LimitOrders, ord)
	}
	return st
}

// Server exposes read-only dashboard status over HTTP and streams dispatcher
// events to websocket clients.
type Server struct {
	shared  *app.Shared
	events  Publisher
	logger  *zap.Logger
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
}

func NewServer(shared *app.Shared, events Publisher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		shared:  shared,
		events:  events,
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/ws", s.handleWS)
}

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	sub := s.events.Subscribe()
	go s.listen(sub)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		s.events.Unsubscribe(sub)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("status API listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) status() Status {
	var st Status
	s.shared.With(func(state *app.State) {
		st = Snapshot(state)
	})
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	// Send initial state
	initialData := map[string]interface{}{
		"type": "initial",
		"data": s.status(),
	}
	err = conn.WriteJSON(initialData)
	s.mu.Unlock()
	if err != nil {
		s.drop(conn)
		return
	}

	defer s.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, conn)
}

func (s *Server) listen(sub network.Subscriber) {
	for event := range sub {
		s.broadcast(event)
	}
}

func (s *Server) broadcast(event network.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			s.logger.Debug("dropping websocket client", zap.Error(err))
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}
