package api

import (
	"net/http"

	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/types"
)

// handleVerifyClaim handles POST /api/claims/verify. Verifies a claim without
// any purchase; settled claims are served from the store without re-invoking
// the AI.
func (s *Server) handleVerifyClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Claim       string `json:"claim"`
		SubmittedBy string `json:"submittedBy,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	claim, err := s.settlement.VerifyClaim(r.Context(), req.Claim, req.SubmittedBy)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, claim)
}

// handleListClaims handles GET /api/claims with optional verdict filter and
// limit.
func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseLimit(query.Get("limit"), 50, 200)

	verdictFilter := types.Verdict(query.Get("verdict"))
	switch verdictFilter {
	case "", types.VerdictTrue, types.VerdictFalse, types.VerdictUncertain:
	default:
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "verdict must be TRUE, FALSE or UNCERTAIN", nil)
		return
	}

	claims, err := s.stores.Claims.List(r.Context(), limit)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	filtered := make([]*models.Claim, 0, len(claims))
	for _, claim := range claims {
		if verdictFilter != "" && claim.Verdict != verdictFilter {
			continue
		}
		filtered = append(filtered, claim)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"claims": filtered,
		"count":  len(filtered),
	})
}
