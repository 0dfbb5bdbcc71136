package models

import (
	"strings"
	"time"

	"github.com/truth-market/internal/types"
)

// DemoIDPrefix marks serial and transaction ids of badges recorded without a
// real on-ledger mint (mint unavailable or failed).
const DemoIDPrefix = "demo_"

// Badge represents a minted (or demo-recorded) collectible awarded on every
// purchase-threshold crossing. Immutable once created.
type Badge struct {
	ID            string          `json:"id" db:"id"`
	Recipient     string          `json:"recipient" db:"recipient"`
	Tier          types.BadgeTier `json:"tier" db:"tier"`
	PurchaseCount int             `json:"purchaseCount" db:"purchase_count"`
	TokenID       string          `json:"tokenId" db:"token_id"`
	SerialNumber  string          `json:"serialNumber" db:"serial_number"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	Metadata      BadgeMetadata   `json:"metadata" db:"metadata"`
	MintedAt      time.Time       `json:"mintedAt" db:"minted_at"`
}

// BadgeMetadata is the blob attached to the minted token.
type BadgeMetadata struct {
	Name          string          `json:"name"`
	Tier          types.BadgeTier `json:"tier"`
	PurchaseCount int             `json:"purchaseCount"`
	MintedAt      string          `json:"mintedAt"`
	Recipient     string          `json:"recipient"`
	Description   string          `json:"description"`
	Image         string          `json:"image,omitempty"`
}

// IsDemo reports whether the badge was recorded without a real on-ledger mint.
func (b *Badge) IsDemo() bool {
	return strings.HasPrefix(b.SerialNumber, DemoIDPrefix)
}
