package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/settlement"
	"github.com/truth-market/internal/storage"
	"github.com/truth-market/internal/types"
)

// Aggregate endpoints serve briefly stale data to keep hot paths off Postgres
const (
	statsCacheTTL       = 30 * time.Second
	leaderboardCacheTTL = time.Minute
)

// buyResponse wraps a settlement result with the success flag the original
// marketplace API exposes.
type buyResponse struct {
	Success bool `json:"success"`
	*models.SettlementResult
}

// handleBuy handles POST /api/marketplace/buy. A claim that fails verification
// is a business rejection, not an error: the response is 200 with
// success=false. Only validation (400), agent gate (503) and storage (500)
// failures produce error statuses.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req settlement.PurchaseRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	result, err := s.settlement.PurchaseClaim(r.Context(), &req)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Info("Purchase failed")
		respondCategorizedError(w, err)
		return
	}

	status := http.StatusCreated
	if result.State != types.SettlementSuccess {
		status = http.StatusOK
	}

	respondJSON(w, status, buyResponse{
		Success:          result.State == types.SettlementSuccess,
		SettlementResult: result,
	})
}

// handleListSales handles GET /api/marketplace/sales with an optional buyer
// filter and limit.
func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := storage.SaleFilter{
		Buyer: query.Get("buyer"),
		Limit: parseLimit(query.Get("limit"), 50, 200),
	}

	sales, err := s.stores.Sales.List(r.Context(), filter)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}
	if sales == nil {
		sales = []*models.Sale{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sales": sales,
		"count": len(sales),
	})
}

// handleStats handles GET /api/marketplace/stats. Aggregates are cached in
// Redis briefly when a cache is configured.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.cache != nil {
		var cached storage.SaleStats
		if hit, err := s.cache.Get(ctx, s.cache.GenerateStatsKey(), &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	stats, err := s.stores.Sales.Stats(ctx)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, s.cache.GenerateStatsKey(), stats, statsCacheTTL); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Failed to cache marketplace stats")
		}
	}

	respondJSON(w, http.StatusOK, stats)
}

// parseLimit parses a limit query parameter, clamping to (0, max]
func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
