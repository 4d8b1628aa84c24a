package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// PaymentRepository implements the PaymentRepository interface
type PaymentRepository struct {
	db *sql.DB
	tx *sql.Tx // Optional transaction context
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// NewPaymentRepositoryWithTx creates a new payment repository within a transaction
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{tx: tx}
}

// getExecutor returns the appropriate executor (db or tx)
func (r *PaymentRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *relationaldb.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Status == "" {
		payment.Status = relationaldb.PaymentStatusPending
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	query := `INSERT INTO payments (id, trip_id, from_user_id, to_user_id, amount, method, status, decline_note, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		payment.ID, payment.TripID, payment.FromUserID, payment.ToUserID,
		payment.Amount, payment.Method, payment.Status, payment.DeclineNote,
		payment.CreatedAt, payment.UpdatedAt)
	if err != nil {
		return writeError("create_payment", "failed to insert payment", err)
	}
	return nil
}

func (r *PaymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*relationaldb.Payment, error) {
	query := `SELECT id, trip_id, from_user_id, to_user_id, amount, method, status, decline_note, created_at, updated_at
			  FROM payments WHERE id = $1`

	var p relationaldb.Payment
	err := r.getExecutor().QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.TripID, &p.FromUserID, &p.ToUserID, &p.Amount,
		&p.Method, &p.Status, &p.DeclineNote, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_payment_by_id", "payment not found", relationaldb.ErrPaymentNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_payment_by_id", "failed to query payment", err)
	}
	return &p, nil
}

func (r *PaymentRepository) ListPaymentsByTrip(ctx context.Context, tripID uuid.UUID) ([]relationaldb.Payment, error) {
	query := `SELECT id, trip_id, from_user_id, to_user_id, amount, method, status, decline_note, created_at, updated_at
			  FROM payments WHERE trip_id = $1 ORDER BY created_at DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_payments_by_trip", "failed to query payments", err)
	}
	defer rows.Close()

	return scanPayments(rows, "list_payments_by_trip")
}

func (r *PaymentRepository) ListPendingByReceiver(ctx context.Context, userID uuid.UUID) ([]relationaldb.Payment, error) {
	query := `SELECT id, trip_id, from_user_id, to_user_id, amount, method, status, decline_note, created_at, updated_at
			  FROM payments WHERE to_user_id = $1 AND status = 'pending'
			  ORDER BY created_at DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_pending_by_receiver", "failed to query pending payments", err)
	}
	defer rows.Close()

	return scanPayments(rows, "list_pending_by_receiver")
}

func (r *PaymentRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]relationaldb.Payment, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `SELECT p.id, p.trip_id, p.from_user_id, p.to_user_id, p.amount, p.method, p.status, p.decline_note, p.created_at, p.updated_at
			  FROM payments p
			  JOIN trip_members m ON m.trip_id = p.trip_id
			  WHERE m.user_id = $1
			  ORDER BY p.created_at DESC LIMIT $2`

	rows, err := r.getExecutor().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_recent_payments", "failed to query recent payments", err)
	}
	defer rows.Close()

	return scanPayments(rows, "list_recent_payments")
}

// TransitionStatus moves a payment out of pending. The status guard makes
// concurrent confirm/decline race-safe: the first committer wins and the
// loser sees zero affected rows.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to relationaldb.PaymentStatus, declineNote string) error {
	if !to.Terminal() {
		return relationaldb.NewStateError("transition_status", "target status must be terminal", relationaldb.ErrInvalidStatus)
	}

	query := `UPDATE payments SET status = $1, decline_note = $2, updated_at = $3
			  WHERE id = $4 AND status = 'pending'`

	result, err := r.getExecutor().ExecContext(ctx, query, to, declineNote, time.Now().UTC(), id)
	if err != nil {
		return writeError("transition_status", "failed to update payment", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError("transition_status", "failed to read rows affected", err)
	}
	if affected == 0 {
		return relationaldb.NewStateError("transition_status", "payment is not pending", relationaldb.ErrPaymentNotPending)
	}
	return nil
}

// DeletePending removes a payment only while it is pending and only for its
// creator, under the same zero-rows-means-conflict contract as transitions.
func (r *PaymentRepository) DeletePending(ctx context.Context, id, fromUserID uuid.UUID) error {
	query := `DELETE FROM payments WHERE id = $1 AND from_user_id = $2 AND status = 'pending'`

	result, err := r.getExecutor().ExecContext(ctx, query, id, fromUserID)
	if err != nil {
		return writeError("delete_pending", "failed to delete payment", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError("delete_pending", "failed to read rows affected", err)
	}
	if affected == 0 {
		return relationaldb.NewStateError("delete_pending", "payment is not pending", relationaldb.ErrPaymentNotPending)
	}
	return nil
}

func scanPayments(rows *sql.Rows, operation string) ([]relationaldb.Payment, error) {
	var payments []relationaldb.Payment
	for rows.Next() {
		var p relationaldb.Payment
		if err := rows.Scan(&p.ID, &p.TripID, &p.FromUserID, &p.ToUserID, &p.Amount,
			&p.Method, &p.Status, &p.DeclineNote, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, relationaldb.NewQueryError(operation, "failed to scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError(operation, "row iteration failed", err)
	}
	return payments, nil
}
