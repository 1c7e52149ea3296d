// internal/catalog/postgres.go
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/cricket-auction/internal/models"
)

// Querier is the subset of *pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads the catalog from the cricketers table.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource wraps a pool (or any Querier).
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

const loadCricketersQ = `
	SELECT id::text, name, role, base_price, overall_rating, COALESCE(sub_ratings, '{}'::jsonb)
	FROM cricketers
	ORDER BY id
`

// Load fetches every row and normalizes it.
func (s *PostgresSource) Load(ctx context.Context) ([]*models.Cricketer, error) {
	rows, err := s.db.Query(ctx, loadCricketersQ)
	if err != nil {
		return nil, fmt.Errorf("query cricketers: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Record])
	if err != nil {
		return nil, fmt.Errorf("scan cricketers: %w", err)
	}
	return FromRecords(records), nil
}
