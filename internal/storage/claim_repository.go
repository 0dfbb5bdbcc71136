package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/truth-market/internal/models"
)

// ClaimRepository handles claim persistence in Postgres
type ClaimRepository struct {
	db *PostgresDB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *PostgresDB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Create assigns an id and persists the claim
func (r *ClaimRepository) Create(ctx context.Context, claim *models.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO claims (id, text, verdict, confidence, reasoning, verifier, submitted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		claim.ID,
		claim.Text,
		claim.Verdict,
		claim.Confidence,
		claim.Reasoning,
		claim.Verifier,
		claim.SubmittedBy,
		claim.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

const claimColumns = `id, text, verdict, confidence, reasoning, verifier, submitted_by, created_at`

func scanClaim(row pgx.Row) (*models.Claim, error) {
	var claim models.Claim
	err := row.Scan(
		&claim.ID,
		&claim.Text,
		&claim.Verdict,
		&claim.Confidence,
		&claim.Reasoning,
		&claim.Verifier,
		&claim.SubmittedBy,
		&claim.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan claim: %w", err)
	}
	return &claim, nil
}

// GetByID retrieves a claim by id
func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	return scanClaim(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByText retrieves the most recent claim with exactly this text
func (r *ClaimRepository) GetByText(ctx context.Context, text string) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE text = $1 ORDER BY created_at DESC LIMIT 1`
	return scanClaim(r.db.Pool().QueryRow(ctx, query, text))
}

// List retrieves the most recent claims
func (r *ClaimRepository) List(ctx context.Context, limit int) ([]*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claims: %w", err)
	}

	return claims, nil
}

// UpdateVerdict replaces the verdict of a claim after re-verification
func (r *ClaimRepository) UpdateVerdict(ctx context.Context, id string, verification *models.Verification) error {
	query := `
		UPDATE claims
		SET verdict = $2, confidence = $3, reasoning = $4, verifier = $5
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		id,
		verification.Verdict,
		verification.Confidence,
		verification.Reasoning,
		verification.Verifier,
	)
	if err != nil {
		return fmt.Errorf("failed to update claim verdict: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
