package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/truth-market/internal/models"
)

// BadgeRepository handles badge persistence in Postgres. Badges are
// append-only.
type BadgeRepository struct {
	db *PostgresDB
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db *PostgresDB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create assigns an id and persists the badge
func (r *BadgeRepository) Create(ctx context.Context, badge *models.Badge) error {
	if badge.ID == "" {
		badge.ID = uuid.New().String()
	}
	if badge.MintedAt.IsZero() {
		badge.MintedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(badge.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal badge metadata: %w", err)
	}

	query := `
		INSERT INTO badges (id, recipient, tier, purchase_count, token_id, serial_number,
			transaction_id, metadata, minted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		badge.ID,
		badge.Recipient,
		badge.Tier,
		badge.PurchaseCount,
		badge.TokenID,
		badge.SerialNumber,
		badge.TransactionID,
		metadataJSON,
		badge.MintedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}

	return nil
}

// ListByRecipient retrieves all badges earned by an account, newest first
func (r *BadgeRepository) ListByRecipient(ctx context.Context, accountID string) ([]*models.Badge, error) {
	query := `
		SELECT id, recipient, tier, purchase_count, token_id, serial_number,
			transaction_id, metadata, minted_at
		FROM badges
		WHERE recipient = $1
		ORDER BY minted_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var badges []*models.Badge
	for rows.Next() {
		badge, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, badge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	return badges, nil
}

// ListRecent retrieves the newest badges across all accounts
func (r *BadgeRepository) ListRecent(ctx context.Context, limit int) ([]*models.Badge, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, recipient, tier, purchase_count, token_id, serial_number,
			transaction_id, metadata, minted_at
		FROM badges
		ORDER BY minted_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent badges: %w", err)
	}
	defer rows.Close()

	var badges []*models.Badge
	for rows.Next() {
		badge, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, badge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	return badges, nil
}

func scanBadge(row pgx.Row) (*models.Badge, error) {
	var badge models.Badge
	var metadataJSON []byte

	err := row.Scan(
		&badge.ID,
		&badge.Recipient,
		&badge.Tier,
		&badge.PurchaseCount,
		&badge.TokenID,
		&badge.SerialNumber,
		&badge.TransactionID,
		&metadataJSON,
		&badge.MintedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan badge: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &badge.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal badge metadata: %w", err)
		}
	}

	return &badge, nil
}
