package models

import "time"

// User represents a buyer profile, created lazily on first purchase or first
// profile lookup. PurchaseCount and BadgesEarned only ever increase, and are
// updated through atomic store increments rather than read-modify-write.
type User struct {
	ID            string    `json:"id" db:"id"`
	AccountID     string    `json:"accountId" db:"account_id"`
	PurchaseCount int       `json:"purchaseCount" db:"purchase_count"`
	BadgesEarned  int       `json:"badgesEarned" db:"badges_earned"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
