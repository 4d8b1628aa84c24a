// Package postgres implements the relational store over database/sql. Despite
// the package name it serves two engines: PostgreSQL through the pgx stdlib
// adapter and SQLite through the modernc driver, selected by configuration.
package postgres

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	db     *sql.DB
	config *relationaldb.Config

	// Repository instances
	userRepo    *UserRepository
	tripRepo    *TripRepository
	expenseRepo *ExpenseRepository
	paymentRepo *PaymentRepository
	friendRepo  *FriendRepository
	systemRepo  *SystemRepository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config *relationaldb.Config) (*RepositoryManager, error) {
	if err := config.Validate(); err != nil {
		return nil, relationaldb.NewConfigurationError("new_repository_manager", "invalid configuration", err)
	}

	return &RepositoryManager{
		config: config,
	}, nil
}

func (rm *RepositoryManager) Open(ctx context.Context) error {
	connStr, err := rm.config.BuildConnectionString()
	if err != nil {
		return relationaldb.NewConfigurationError("open", "failed to build connection string", err)
	}

	sqlDB, err := sql.Open(rm.config.DriverName(), connStr)
	if err != nil {
		return relationaldb.NewConnectionError("open", "failed to open database connection", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(rm.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(rm.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(rm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(rm.config.ConnMaxIdleTime)

	// Test connection
	ctxTimeout, cancel := context.WithTimeout(ctx, rm.config.DefaultTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctxTimeout); err != nil {
		sqlDB.Close()
		return relationaldb.NewConnectionError("open", "failed to ping database", err)
	}

	rm.db = sqlDB

	if err := rm.initSchema(ctx); err != nil {
		rm.db.Close()
		rm.db = nil
		return relationaldb.NewSchemaError("open", "failed to initialize schema", err)
	}

	// Initialize repository instances
	rm.userRepo = NewUserRepository(rm.db)
	rm.tripRepo = NewTripRepository(rm.db)
	rm.expenseRepo = NewExpenseRepository(rm.db)
	rm.paymentRepo = NewPaymentRepository(rm.db)
	rm.friendRepo = NewFriendRepository(rm.db)
	rm.systemRepo = NewSystemRepository(rm.db)

	return nil
}

func (rm *RepositoryManager) Close(ctx context.Context) error {
	if rm.db == nil {
		return nil
	}

	err := rm.db.Close()
	rm.db = nil

	// Clear repository instances
	rm.userRepo = nil
	rm.tripRepo = nil
	rm.expenseRepo = nil
	rm.paymentRepo = nil
	rm.friendRepo = nil
	rm.systemRepo = nil

	if err != nil {
		return relationaldb.NewConnectionError("close", "failed to close database connection", err)
	}

	return nil
}

func (rm *RepositoryManager) Users() relationaldb.UserRepository {
	return rm.userRepo
}

func (rm *RepositoryManager) Trips() relationaldb.TripRepository {
	return rm.tripRepo
}

func (rm *RepositoryManager) Expenses() relationaldb.ExpenseRepository {
	return rm.expenseRepo
}

func (rm *RepositoryManager) Payments() relationaldb.PaymentRepository {
	return rm.paymentRepo
}

func (rm *RepositoryManager) Friends() relationaldb.FriendRepository {
	return rm.friendRepo
}

func (rm *RepositoryManager) System() relationaldb.SystemRepository {
	return rm.systemRepo
}

func (rm *RepositoryManager) WithTransaction(ctx context.Context, fn func(relationaldb.TransactionContext) error) error {
	tx, err := rm.systemRepo.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			// Return the original error; the rollback failure is secondary
			return err
		}
		return err
	}

	return tx.Commit(ctx)
}

// initSchema creates the tables and indexes if they do not exist yet.
func (rm *RepositoryManager) initSchema(ctx context.Context) error {
	for _, query := range schemaQueries {
		if rm.config.Driver == "sqlite" {
			query = strings.ReplaceAll(query, "TIMESTAMPTZ", "TIMESTAMP")
		}
		if _, err := rm.db.ExecContext(ctx, query); err != nil {
			return relationaldb.NewSchemaError("init_schema", "failed to execute schema query", err)
		}
	}

	return nil
}
