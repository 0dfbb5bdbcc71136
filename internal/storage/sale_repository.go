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

// SaleRepository handles sale persistence in Postgres. Sales are append-only.
type SaleRepository struct {
	db *PostgresDB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *PostgresDB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create assigns an id and persists the sale
func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	var proofJSON []byte
	if sale.AgentProof != nil {
		data, err := json.Marshal(sale.AgentProof)
		if err != nil {
			return fmt.Errorf("failed to marshal agent proof: %w", err)
		}
		proofJSON = data
	}

	query := `
		INSERT INTO sales (id, claim_text, verdict, confidence, reasoning, buyer, seller,
			submitted_by, price_tinybar, transaction_id, agent_id, agent_proof, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		sale.ID,
		sale.ClaimText,
		sale.Verdict,
		sale.Confidence,
		sale.Reasoning,
		sale.Buyer,
		sale.Seller,
		sale.SubmittedBy,
		sale.PriceTinybar,
		sale.TransactionID,
		sale.AgentID,
		proofJSON,
		sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	return nil
}

const saleColumns = `id, claim_text, verdict, confidence, reasoning, buyer, seller,
	submitted_by, price_tinybar, transaction_id, agent_id, agent_proof, created_at`

func scanSale(row pgx.Row) (*models.Sale, error) {
	var sale models.Sale
	var proofJSON []byte

	err := row.Scan(
		&sale.ID,
		&sale.ClaimText,
		&sale.Verdict,
		&sale.Confidence,
		&sale.Reasoning,
		&sale.Buyer,
		&sale.Seller,
		&sale.SubmittedBy,
		&sale.PriceTinybar,
		&sale.TransactionID,
		&sale.AgentID,
		&proofJSON,
		&sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan sale: %w", err)
	}

	if len(proofJSON) > 0 {
		var proof models.AgentProof
		if err := json.Unmarshal(proofJSON, &proof); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agent proof: %w", err)
		}
		sale.AgentProof = &proof
	}

	return &sale, nil
}

// GetByID retrieves a sale by id
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	return scanSale(r.db.Pool().QueryRow(ctx, query, id))
}

// List retrieves recent sales, optionally filtered by buyer
func (r *SaleRepository) List(ctx context.Context, filter SaleFilter) ([]*models.Sale, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error
	if filter.Buyer != "" {
		query := `SELECT ` + saleColumns + ` FROM sales WHERE buyer = $1 ORDER BY created_at DESC LIMIT $2`
		rows, err = r.db.Pool().Query(ctx, query, filter.Buyer, limit)
	} else {
		query := `SELECT ` + saleColumns + ` FROM sales ORDER BY created_at DESC LIMIT $1`
		rows, err = r.db.Pool().Query(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, nil
}

// Stats returns aggregate sale statistics
func (r *SaleRepository) Stats(ctx context.Context) (*SaleStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(price_tinybar), 0), COUNT(DISTINCT buyer),
			COALESCE(AVG(confidence), 0)
		FROM sales
	`

	var stats SaleStats
	err := r.db.Pool().QueryRow(ctx, query).Scan(
		&stats.TotalSales,
		&stats.TotalVolumeTinybar,
		&stats.UniqueBuyers,
		&stats.AvgConfidence,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sale stats: %w", err)
	}

	return &stats, nil
}
