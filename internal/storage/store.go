package storage

import (
	"context"
	"errors"

	"github.com/truth-market/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// SaleFilter narrows sale listings
type SaleFilter struct {
	Buyer string
	Limit int
}

// SaleStats is the aggregate view over all recorded sales
type SaleStats struct {
	TotalSales         int64   `json:"totalSales"`
	TotalVolumeTinybar int64   `json:"totalVolumeTinybar"`
	UniqueBuyers       int64   `json:"uniqueBuyers"`
	AvgConfidence      float64 `json:"avgConfidence"`
}

// ClaimStore persists verified claims
type ClaimStore interface {
	// Create assigns an id and persists the claim
	Create(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, id string) (*models.Claim, error)
	// GetByText finds the most recent claim with exactly this text, for
	// verdict reuse. Returns ErrNotFound when no claim matches.
	GetByText(ctx context.Context, text string) (*models.Claim, error)
	List(ctx context.Context, limit int) ([]*models.Claim, error)
	// UpdateVerdict replaces the verdict of an UNCERTAIN claim after a
	// re-verification
	UpdateVerdict(ctx context.Context, id string, verification *models.Verification) error
}

// SaleStore persists completed purchases. Sales are append-only.
type SaleStore interface {
	Create(ctx context.Context, sale *models.Sale) error
	GetByID(ctx context.Context, id string) (*models.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]*models.Sale, error)
	Stats(ctx context.Context) (*SaleStats, error)
}

// UserStore persists buyer profiles. Counter updates are atomic at the store
// level so concurrent purchases by the same account never lose increments.
type UserStore interface {
	// GetByAccountID returns ErrNotFound for unknown accounts
	GetByAccountID(ctx context.Context, accountID string) (*models.User, error)
	// IncrementPurchases creates the user if needed, adds 1 to purchaseCount
	// atomically and returns the updated record
	IncrementPurchases(ctx context.Context, accountID string) (*models.User, error)
	// IncrementBadges adds 1 to badgesEarned atomically and returns the
	// updated record
	IncrementBadges(ctx context.Context, accountID string) (*models.User, error)
	// TopBuyers lists users ordered by purchase count descending
	TopBuyers(ctx context.Context, limit int) ([]*models.User, error)
}

// BadgeStore persists minted and demo badges. Badges are append-only.
type BadgeStore interface {
	Create(ctx context.Context, badge *models.Badge) error
	ListByRecipient(ctx context.Context, accountID string) ([]*models.Badge, error)
	// ListRecent lists the newest badges across all accounts, for the gallery
	ListRecent(ctx context.Context, limit int) ([]*models.Badge, error)
}

// Stores bundles the four record collections
type Stores struct {
	Claims ClaimStore
	Sales  SaleStore
	Users  UserStore
	Badges BadgeStore
}
