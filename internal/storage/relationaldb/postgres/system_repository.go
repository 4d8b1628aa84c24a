package postgres

import (
	"context"
	"database/sql"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// SystemRepository implements the SystemRepository interface
type SystemRepository struct {
	db *sql.DB
}

// NewSystemRepository creates a new system repository
func NewSystemRepository(db *sql.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

func (r *SystemRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	if err := r.db.PingContext(ctx); err != nil {
		return relationaldb.NewConnectionError("ping", "database ping failed", err)
	}

	return nil
}

func (r *SystemRepository) Stats(ctx context.Context) (*relationaldb.StoreStats, error) {
	if r.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}

	var stats relationaldb.StoreStats
	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(1) FROM users", &stats.Users},
		{"SELECT COUNT(1) FROM trips", &stats.Trips},
		{"SELECT COUNT(1) FROM expenses", &stats.Expenses},
		{"SELECT COUNT(1) FROM payments", &stats.Payments},
	}

	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, relationaldb.NewQueryError("stats", "failed to count rows", err)
		}
	}

	return &stats, nil
}

func (r *SystemRepository) Begin(ctx context.Context) (relationaldb.TransactionContext, error) {
	if r.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, relationaldb.NewTransactionError("begin", "failed to begin transaction", err)
	}

	return NewTransactionContext(tx), nil
}
