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

// UserRepository handles buyer profile persistence in Postgres. Counter
// updates go through single-statement atomic upserts; concurrent purchases
// by the same account must never lose an increment.
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, account_id, purchase_count, badges_earned, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.AccountID,
		&user.PurchaseCount,
		&user.BadgesEarned,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// GetByAccountID retrieves a user by ledger account id
func (r *UserRepository) GetByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE account_id = $1`
	return scanUser(r.db.Pool().QueryRow(ctx, query, accountID))
}

// IncrementPurchases creates the user row if needed and atomically adds 1 to
// purchase_count, returning the updated record. The upsert keyed on
// account_id makes concurrent increments serialize inside Postgres.
func (r *UserRepository) IncrementPurchases(ctx context.Context, accountID string) (*models.User, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO users (id, account_id, purchase_count, badges_earned, created_at, updated_at)
		VALUES ($1, $2, 1, 0, $3, $3)
		ON CONFLICT (account_id)
		DO UPDATE SET purchase_count = users.purchase_count + 1, updated_at = $3
		RETURNING ` + userColumns

	return scanUser(r.db.Pool().QueryRow(ctx, query, uuid.New().String(), accountID, now))
}

// IncrementBadges atomically adds 1 to badges_earned, returning the updated
// record. The user row always exists by the time badges are awarded.
func (r *UserRepository) IncrementBadges(ctx context.Context, accountID string) (*models.User, error) {
	query := `
		UPDATE users
		SET badges_earned = badges_earned + 1, updated_at = $2
		WHERE account_id = $1
		RETURNING ` + userColumns

	return scanUser(r.db.Pool().QueryRow(ctx, query, accountID, time.Now().UTC()))
}

// TopBuyers lists users ordered by purchase count descending
func (r *UserRepository) TopBuyers(ctx context.Context, limit int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY purchase_count DESC, account_id ASC LIMIT $1`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top buyers: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
