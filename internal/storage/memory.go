package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/truth-market/internal/models"
)

// MemoryStores is an in-memory implementation of all four record collections,
// used for demo mode and tests. It keeps the same contract as the Postgres
// backend: id assignment on create, ErrNotFound semantics and atomic counter
// increments under a mutex.
type MemoryStores struct {
	mu     sync.Mutex
	claims map[string]*models.Claim
	sales  map[string]*models.Sale
	users  map[string]*models.User // keyed by account id
	badges map[string][]*models.Badge
}

// NewMemoryStores creates an empty in-memory record store
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		claims: make(map[string]*models.Claim),
		sales:  make(map[string]*models.Sale),
		users:  make(map[string]*models.User),
		badges: make(map[string][]*models.Badge),
	}
}

// Stores returns the collection bundle backed by this instance
func (m *MemoryStores) Stores() *Stores {
	return &Stores{
		Claims: (*memoryClaimStore)(m),
		Sales:  (*memorySaleStore)(m),
		Users:  (*memoryUserStore)(m),
		Badges: (*memoryBadgeStore)(m),
	}
}

type memoryClaimStore MemoryStores

func (s *memoryClaimStore) Create(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}

	copied := *claim
	s.claims[claim.ID] = &copied
	return nil
}

func (s *memoryClaimStore) GetByID(_ context.Context, id string) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *claim
	return &copied, nil
}

func (s *memoryClaimStore) GetByText(_ context.Context, text string) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *models.Claim
	for _, claim := range s.claims {
		if claim.Text != text {
			continue
		}
		if newest == nil || claim.CreatedAt.After(newest.CreatedAt) {
			newest = claim
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	copied := *newest
	return &copied, nil
}

func (s *memoryClaimStore) List(_ context.Context, limit int) ([]*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claims := make([]*models.Claim, 0, len(s.claims))
	for _, claim := range s.claims {
		copied := *claim
		claims = append(claims, &copied)
	}
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})

	if limit > 0 && len(claims) > limit {
		claims = claims[:limit]
	}
	return claims, nil
}

func (s *memoryClaimStore) UpdateVerdict(_ context.Context, id string, verification *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[id]
	if !ok {
		return ErrNotFound
	}

	claim.Verdict = verification.Verdict
	claim.Confidence = verification.Confidence
	claim.Reasoning = verification.Reasoning
	claim.Verifier = verification.Verifier
	return nil
}

type memorySaleStore MemoryStores

func (s *memorySaleStore) Create(_ context.Context, sale *models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	copied := *sale
	s.sales[sale.ID] = &copied
	return nil
}

func (s *memorySaleStore) GetByID(_ context.Context, id string) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *sale
	return &copied, nil
}

func (s *memorySaleStore) List(_ context.Context, filter SaleFilter) ([]*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	sales := make([]*models.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if filter.Buyer != "" && sale.Buyer != filter.Buyer {
			continue
		}
		copied := *sale
		sales = append(sales, &copied)
	}
	sort.Slice(sales, func(i, j int) bool {
		return sales[i].CreatedAt.After(sales[j].CreatedAt)
	})

	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (s *memorySaleStore) Stats(_ context.Context) (*SaleStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &SaleStats{}
	buyers := make(map[string]struct{})
	var confidenceSum int64
	for _, sale := range s.sales {
		stats.TotalSales++
		stats.TotalVolumeTinybar += sale.PriceTinybar
		confidenceSum += int64(sale.Confidence)
		buyers[sale.Buyer] = struct{}{}
	}
	stats.UniqueBuyers = int64(len(buyers))
	if stats.TotalSales > 0 {
		stats.AvgConfidence = float64(confidenceSum) / float64(stats.TotalSales)
	}
	return stats, nil
}

type memoryUserStore MemoryStores

func (s *memoryUserStore) GetByAccountID(_ context.Context, accountID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memoryUserStore) IncrementPurchases(_ context.Context, accountID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	user, ok := s.users[accountID]
	if !ok {
		user = &models.User{
			ID:        uuid.New().String(),
			AccountID: accountID,
			CreatedAt: now,
		}
		s.users[accountID] = user
	}

	user.PurchaseCount++
	user.UpdatedAt = now

	copied := *user
	return &copied, nil
}

func (s *memoryUserStore) IncrementBadges(_ context.Context, accountID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[accountID]
	if !ok {
		return nil, ErrNotFound
	}

	user.BadgesEarned++
	user.UpdatedAt = time.Now().UTC()

	copied := *user
	return &copied, nil
}

func (s *memoryUserStore) TopBuyers(_ context.Context, limit int) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].PurchaseCount != users[j].PurchaseCount {
			return users[i].PurchaseCount > users[j].PurchaseCount
		}
		return users[i].AccountID < users[j].AccountID
	})

	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

type memoryBadgeStore MemoryStores

func (s *memoryBadgeStore) Create(_ context.Context, badge *models.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if badge.ID == "" {
		badge.ID = uuid.New().String()
	}
	if badge.MintedAt.IsZero() {
		badge.MintedAt = time.Now().UTC()
	}

	copied := *badge
	s.badges[badge.Recipient] = append(s.badges[badge.Recipient], &copied)
	return nil
}

func (s *memoryBadgeStore) ListByRecipient(_ context.Context, accountID string) ([]*models.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	badges := make([]*models.Badge, 0, len(s.badges[accountID]))
	for _, badge := range s.badges[accountID] {
		copied := *badge
		badges = append(badges, &copied)
	}
	sort.Slice(badges, func(i, j int) bool {
		return badges[i].MintedAt.After(badges[j].MintedAt)
	})
	return badges, nil
}

func (s *memoryBadgeStore) ListRecent(_ context.Context, limit int) ([]*models.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	var badges []*models.Badge
	for _, list := range s.badges {
		for _, badge := range list {
			copied := *badge
			badges = append(badges, &copied)
		}
	}
	sort.Slice(badges, func(i, j int) bool {
		return badges[i].MintedAt.After(badges[j].MintedAt)
	})

	if len(badges) > limit {
		badges = badges[:limit]
	}
	return badges, nil
}
