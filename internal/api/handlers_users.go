package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/storage"
	"github.com/truth-market/internal/tier"
)

// userProfile is the buyer-facing profile view
type userProfile struct {
	AccountID     string `json:"accountId"`
	PurchaseCount int    `json:"purchaseCount"`
	BadgesEarned  int    `json:"badgesEarned"`
	NextBadgeIn   int    `json:"nextBadgeIn"`
}

// handleGetUser handles GET /api/users/{accountId}. Unknown accounts get a
// zero-count profile rather than a 404; profiles exist lazily.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	user, err := s.stores.Users.GetByAccountID(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondJSON(w, http.StatusOK, userProfile{
				AccountID:   accountID,
				NextBadgeIn: tier.MilestoneInterval,
			})
			return
		}
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, userProfile{
		AccountID:     user.AccountID,
		PurchaseCount: user.PurchaseCount,
		BadgesEarned:  user.BadgesEarned,
		NextBadgeIn:   tier.NextMilestoneIn(user.PurchaseCount),
	})
}

// handleGetUserBadges handles GET /api/users/{accountId}/badges.
func (s *Server) handleGetUserBadges(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	badges, err := s.stores.Badges.ListByRecipient(r.Context(), accountID)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}
	if badges == nil {
		badges = []*models.Badge{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accountId": accountID,
		"badges":    badges,
		"count":     len(badges),
	})
}

// handleListBadges handles GET /api/badges, the recent-badges gallery.
func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 20, 100)

	badges, err := s.stores.Badges.ListRecent(r.Context(), limit)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}
	if badges == nil {
		badges = []*models.Badge{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"badges": badges,
		"count":  len(badges),
	})
}

// leaderboardEntry is one row of the top-buyers leaderboard
type leaderboardEntry struct {
	Rank          int    `json:"rank"`
	AccountID     string `json:"accountId"`
	PurchaseCount int    `json:"purchaseCount"`
	BadgesEarned  int    `json:"badgesEarned"`
}

// handleLeaderboard handles GET /api/stats/leaderboard, top buyers by
// purchase count.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseLimit(r.URL.Query().Get("limit"), 10, 100)

	if s.cache != nil {
		var cached []leaderboardEntry
		if hit, err := s.cache.Get(ctx, s.cache.GenerateLeaderboardKey(limit), &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": cached})
			return
		}
	}

	users, err := s.stores.Users.TopBuyers(ctx, limit)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	entries := make([]leaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, leaderboardEntry{
			Rank:          i + 1,
			AccountID:     user.AccountID,
			PurchaseCount: user.PurchaseCount,
			BadgesEarned:  user.BadgesEarned,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, s.cache.GenerateLeaderboardKey(limit), entries, leaderboardCacheTTL); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Failed to cache leaderboard")
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}
