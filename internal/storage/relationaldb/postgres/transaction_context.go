package postgres

import (
	"context"
	"database/sql"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// TransactionContext implements the TransactionContext interface
type TransactionContext struct {
	tx *sql.Tx

	// Repository instances for this transaction
	userRepo    *UserRepository
	tripRepo    *TripRepository
	expenseRepo *ExpenseRepository
	paymentRepo *PaymentRepository
	friendRepo  *FriendRepository
}

// NewTransactionContext creates a new transaction context
func NewTransactionContext(tx *sql.Tx) *TransactionContext {
	return &TransactionContext{
		tx:          tx,
		userRepo:    NewUserRepositoryWithTx(tx),
		tripRepo:    NewTripRepositoryWithTx(tx),
		expenseRepo: NewExpenseRepositoryWithTx(tx),
		paymentRepo: NewPaymentRepositoryWithTx(tx),
		friendRepo:  NewFriendRepositoryWithTx(tx),
	}
}

func (tc *TransactionContext) Commit(ctx context.Context) error {
	if tc.tx == nil {
		return relationaldb.ErrTransactionClosed
	}

	err := tc.tx.Commit()
	tc.tx = nil

	if err != nil {
		return relationaldb.NewTransactionError("commit", "failed to commit transaction", err)
	}

	return nil
}

func (tc *TransactionContext) Rollback(ctx context.Context) error {
	if tc.tx == nil {
		return nil // Already rolled back or committed
	}

	err := tc.tx.Rollback()
	tc.tx = nil

	if err != nil {
		return relationaldb.NewTransactionError("rollback", "failed to rollback transaction", err)
	}

	return nil
}

func (tc *TransactionContext) Users() relationaldb.UserRepository {
	return tc.userRepo
}

func (tc *TransactionContext) Trips() relationaldb.TripRepository {
	return tc.tripRepo
}

func (tc *TransactionContext) Expenses() relationaldb.ExpenseRepository {
	return tc.expenseRepo
}

func (tc *TransactionContext) Payments() relationaldb.PaymentRepository {
	return tc.paymentRepo
}

func (tc *TransactionContext) Friends() relationaldb.FriendRepository {
	return tc.friendRepo
}
