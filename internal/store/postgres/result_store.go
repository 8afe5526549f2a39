package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// ResultStore implements domain.ResultStore on PostgreSQL. Amounts are
// stored as NUMERIC(78,0), wide enough for any uint256 value.
type ResultStore struct {
	pool *pgxpool.Pool
}

// NewResultStore creates a ResultStore over the client's pool.
func NewResultStore(c *Client) *ResultStore {
	return &ResultStore{pool: c.Pool()}
}

// Insert persists one opportunity record.
func (s *ResultStore) Insert(ctx context.Context, res domain.OpportunityResult) error {
	const q = `
		INSERT INTO opportunity_results
			(id, flow, token, amount_in, amount_returned, succeeded, reason, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, q,
		res.ID,
		string(res.Flow),
		res.Token.Hex(),
		res.AmountIn.String(),
		res.AmountReturned.String(),
		res.Succeeded,
		res.Reason,
		res.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity result %s: %w", res.ID, err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (s *ResultStore) ListRecent(ctx context.Context, limit int) ([]domain.OpportunityResult, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, flow, token, amount_in::text, amount_returned::text,
		       succeeded, reason, executed_at
		FROM opportunity_results
		ORDER BY executed_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunity results: %w", err)
	}
	defer rows.Close()

	var results []domain.OpportunityResult
	for rows.Next() {
		var (
			res              domain.OpportunityResult
			flow, token      string
			amountIn, amtOut string
			executedAt       time.Time
		)
		if err := rows.Scan(&res.ID, &flow, &token, &amountIn, &amtOut,
			&res.Succeeded, &res.Reason, &executedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity result: %w", err)
		}

		res.Flow = domain.Flow(flow)
		res.Token = common.HexToAddress(token)
		res.ExecutedAt = executedAt
		res.AmountIn, _ = new(big.Int).SetString(amountIn, 10)
		res.AmountReturned, _ = new(big.Int).SetString(amtOut, 10)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunity results: %w", err)
	}
	return results, nil
}

var _ domain.ResultStore = (*ResultStore)(nil)
