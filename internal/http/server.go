// Package http exposes the JSON API. Authentication is out of scope; the
// calling user is identified by the X-User-ID header.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"moneta/internal/services"
)

type Server struct {
	http.Server

	currencies   *services.CurrencyService
	transactions *services.TransactionService
	budgets      *services.BudgetService
	goals        *services.GoalService
	reports      *services.ReportService
	recurring    *services.RecurringService

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

type Services struct {
	Currencies   *services.CurrencyService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Reports      *services.ReportService
	Recurring    *services.RecurringService
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, svcs Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		currencies:   svcs.Currencies,
		transactions: svcs.Transactions,
		budgets:      svcs.Budgets,
		goals:        svcs.Goals,
		reports:      svcs.Reports,
		recurring:    svcs.Recurring,
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /currencies", s.wrap(s.handleListCurrencies))
	mux.HandleFunc("POST /currencies", s.wrap(s.handleCreateCurrency))
	mux.HandleFunc("DELETE /currencies/{id}", s.wrap(s.handleDeleteCurrency))
	mux.HandleFunc("POST /currencies/default", s.wrap(s.handleSetDefaultCurrency))
	mux.HandleFunc("POST /currencies/refresh-rates", s.wrap(s.handleRefreshRates))

	mux.HandleFunc("GET /transactions", s.wrap(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.wrap(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.wrap(s.handleDeleteTransaction))

	mux.HandleFunc("GET /accounts/balance", s.wrap(s.handleBalances))

	mux.HandleFunc("POST /budgets", s.wrap(s.handleCreateBudget))
	mux.HandleFunc("GET /budgets/status", s.wrap(s.handleBudgetStatus))

	mux.HandleFunc("POST /goals", s.wrap(s.handleCreateGoal))
	mux.HandleFunc("GET /goals/{id}/progress", s.wrap(s.handleGoalProgress))
	mux.HandleFunc("POST /goals/{id}/contribute", s.wrap(s.handleGoalContribute))
	mux.HandleFunc("POST /goals/{id}/cancel", s.wrap(s.handleGoalCancel))
	mux.HandleFunc("POST /goals/{id}/reactivate", s.wrap(s.handleGoalReactivate))

	mux.HandleFunc("GET /reports", s.wrap(s.handleReport))

	mux.HandleFunc("POST /recurring", s.wrap(s.handleCreateRecurring))
	mux.HandleFunc("POST /recurring/process", s.wrap(s.handleProcessRecurring))

	return s
}

// wrap adds request logging, security headers and write rate limiting.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// rateLimiter allows up to 60 write requests per minute per client.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.lastRequest) > time.Minute {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
