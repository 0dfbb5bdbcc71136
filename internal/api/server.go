// Package api provides the HTTP API server for the truth marketplace.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/settlement"
	"github.com/truth-market/internal/storage"
)

// SettlementService is the slice of the settlement engine the handlers need
type SettlementService interface {
	PurchaseClaim(ctx context.Context, req *settlement.PurchaseRequest) (*models.SettlementResult, error)
	VerifyClaim(ctx context.Context, text, submittedBy string) (*models.Claim, error)
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	settlement SettlementService
	stores     *storage.Stores
	cache      *storage.CacheService
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance. cache may be nil when Redis is
// not configured; stats and leaderboard responses are then computed per
// request.
func NewServer(config *ServerConfig, settlementService SettlementService, stores *storage.Stores, cache *storage.CacheService) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		settlement: settlementService,
		stores:     stores,
		cache:      cache,
		config:     config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters: logging wraps everything, rate limiting after
	// CORS so preflights are never throttled
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Marketplace endpoints
	api.HandleFunc("/marketplace/buy", s.handleBuy).Methods("POST")
	api.HandleFunc("/marketplace/sales", s.handleListSales).Methods("GET")
	api.HandleFunc("/marketplace/stats", s.handleStats).Methods("GET")

	// Claim endpoints
	api.HandleFunc("/claims/verify", s.handleVerifyClaim).Methods("POST")
	api.HandleFunc("/claims", s.handleListClaims).Methods("GET")

	// User and badge endpoints
	api.HandleFunc("/users/{accountId}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{accountId}/badges", s.handleGetUserBadges).Methods("GET")
	api.HandleFunc("/badges", s.handleListBadges).Methods("GET")
	api.HandleFunc("/stats/leaderboard", s.handleLeaderboard).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "truth-market",
	})
}

// Handler returns the root handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
