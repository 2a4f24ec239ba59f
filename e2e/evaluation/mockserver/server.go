// Package mockserver provides a mock Binance klines endpoint for end to end
// tests of the candle provider.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
)

const (
	defaultLimit = 500
	maxLimit     = 1000

	// codeTooManyRequests is Binance's request weight limit error.
	codeTooManyRequests = -1003
)

// KlinesRequest records one request the server answered.
type KlinesRequest struct {
	Symbol    string
	Interval  string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Throttled bool
}

// MockBinanceServer serves fixed candle series on /api/v3/klines.
type MockBinanceServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	// series by symbol and interval, sorted by open time
	series map[string]map[string][]types.Candle

	throttleNext int
	requests     []KlinesRequest
}

// NewMockBinanceServer creates a server with no series.
func NewMockBinanceServer() *MockBinanceServer {
	return &MockBinanceServer{
		series: make(map[string]map[string][]types.Candle),
	}
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBinanceServer) Start(address string) error {
	if address == "" {
		address = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/ping", s.handlePing).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/klines", s.handleKlines).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, -1000, "unknown endpoint")
	})

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBinanceServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the base URL for the server.
func (s *MockBinanceServer) BaseURL() string {
	if s.listener == nil {
		return ""
	}

	return "http://" + s.listener.Addr().String()
}

// SetSeries replaces the bars served for symbol at interval.
func (s *MockBinanceServer) SetSeries(symbol string, interval marketdata.Interval, candles []types.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.series[symbol] == nil {
		s.series[symbol] = make(map[string][]types.Candle)
	}

	s.series[symbol][interval.String()] = candles
}

// ThrottleNext answers the next n klines requests with HTTP 429.
func (s *MockBinanceServer) ThrottleNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.throttleNext = n
}

// Requests returns every klines request received so far.
func (s *MockBinanceServer) Requests() []KlinesRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]KlinesRequest(nil), s.requests...)
}

func (s *MockBinanceServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

// handleKlines handles GET /api/v3/klines
func (s *MockBinanceServer) handleKlines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	symbol := query.Get("symbol")
	interval := query.Get("interval")

	if symbol == "" || interval == "" {
		writeError(w, http.StatusBadRequest, -1102, "mandatory parameter was not sent")
		return
	}

	if !marketdata.Interval(interval).Valid() {
		writeError(w, http.StatusBadRequest, -1120, "invalid interval")
		return
	}

	req := KlinesRequest{Symbol: symbol, Interval: interval, Limit: defaultLimit}

	if v := query.Get("startTime"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, -1100, "illegal startTime")
			return
		}
		req.StartTime = time.UnixMilli(ms).UTC()
	}

	if v := query.Get("endTime"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, -1100, "illegal endTime")
			return
		}
		req.EndTime = time.UnixMilli(ms).UTC()
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, -1100, "illegal limit")
			return
		}
		req.Limit = min(limit, maxLimit)
	}

	s.mu.Lock()
	if s.throttleNext > 0 {
		s.throttleNext--
		req.Throttled = true
	}
	s.requests = append(s.requests, req)
	series := s.series[symbol][interval]
	s.mu.Unlock()

	if req.Throttled {
		writeError(w, http.StatusTooManyRequests, codeTooManyRequests, "Too many requests; current limit is 1200 request weight per 1 MINUTE.")
		return
	}

	step := marketdata.Interval(interval).Duration()

	// Binance kline format: [openTime, open, high, low, close, volume, closeTime, ...]
	klines := make([][]any, 0, req.Limit)
	for _, c := range series {
		if c.Time.Before(req.StartTime) || (!req.EndTime.IsZero() && c.Time.After(req.EndTime)) {
			continue
		}

		klines = append(klines, []any{
			c.Time.UnixMilli(),
			strconv.FormatFloat(c.Open, 'f', 8, 64),
			strconv.FormatFloat(c.High, 'f', 8, 64),
			strconv.FormatFloat(c.Low, 'f', 8, 64),
			strconv.FormatFloat(c.Close, 'f', 8, 64),
			strconv.FormatFloat(c.Volume, 'f', 8, 64),
			c.Time.Add(step).UnixMilli() - 1,
			"0",
			0,
			"0",
			"0",
			"0",
		})

		if len(klines) == req.Limit {
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(klines)
}

func writeError(w http.ResponseWriter, status int, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}
