package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// ExpenseRepository implements the ExpenseRepository interface
type ExpenseRepository struct {
	db *sql.DB
	tx *sql.Tx // Optional transaction context
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// NewExpenseRepositoryWithTx creates a new expense repository within a transaction
func NewExpenseRepositoryWithTx(tx *sql.Tx) *ExpenseRepository {
	return &ExpenseRepository{tx: tx}
}

// getExecutor returns the appropriate executor (db or tx)
func (r *ExpenseRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *ExpenseRepository) CreateExpense(ctx context.Context, expense *relationaldb.Expense) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	// Legacy clients read amount; it always mirrors total.
	expense.Amount = expense.Total

	query := `INSERT INTO expenses (id, trip_id, paid_by, title, amount, subtotal, tax, tip, total, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		expense.ID, expense.TripID, expense.PaidBy, expense.Title,
		expense.Amount, expense.Subtotal, expense.Tax, expense.Tip, expense.Total,
		expense.CreatedAt)
	if err != nil {
		return writeError("create_expense", "failed to insert expense", err)
	}
	return nil
}

func (r *ExpenseRepository) CreateExpenseItem(ctx context.Context, item *relationaldb.ExpenseItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	query := `INSERT INTO expense_items (id, expense_id, name, price, position)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		item.ID, item.ExpenseID, item.Name, item.Price, item.Position)
	if err != nil {
		return writeError("create_expense_item", "failed to insert expense item", err)
	}
	return nil
}

func (r *ExpenseRepository) CreateItemAssignment(ctx context.Context, assignment *relationaldb.ExpenseItemAssignment) error {
	query := `INSERT INTO expense_item_assignments (item_id, user_id) VALUES ($1, $2)`

	_, err := r.getExecutor().ExecContext(ctx, query, assignment.ItemID, assignment.UserID)
	if err != nil {
		return writeError("create_item_assignment", "failed to insert item assignment", err)
	}
	return nil
}

func (r *ExpenseRepository) CreateSplit(ctx context.Context, split *relationaldb.ExpenseSplit) error {
	query := `INSERT INTO expense_splits (expense_id, user_id, share) VALUES ($1, $2, $3)`

	_, err := r.getExecutor().ExecContext(ctx, query, split.ExpenseID, split.UserID, split.Share)
	if err != nil {
		return writeError("create_split", "failed to insert expense split", err)
	}
	return nil
}

func (r *ExpenseRepository) GetExpenseByID(ctx context.Context, id uuid.UUID) (*relationaldb.Expense, error) {
	query := `SELECT id, trip_id, paid_by, title, amount, subtotal, tax, tip, total, created_at
			  FROM expenses WHERE id = $1`

	var e relationaldb.Expense
	err := r.getExecutor().QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.TripID, &e.PaidBy, &e.Title,
		&e.Amount, &e.Subtotal, &e.Tax, &e.Tip, &e.Total, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_expense_by_id", "expense not found", relationaldb.ErrExpenseNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_expense_by_id", "failed to query expense", err)
	}
	return &e, nil
}

func (r *ExpenseRepository) ListExpensesByTrip(ctx context.Context, tripID uuid.UUID) ([]relationaldb.Expense, error) {
	query := `SELECT id, trip_id, paid_by, title, amount, subtotal, tax, tip, total, created_at
			  FROM expenses WHERE trip_id = $1 ORDER BY created_at DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_expenses_by_trip", "failed to query expenses", err)
	}
	defer rows.Close()

	return scanExpenses(rows, "list_expenses_by_trip")
}

func (r *ExpenseRepository) ListItemsByExpense(ctx context.Context, expenseID uuid.UUID) ([]relationaldb.ExpenseItem, error) {
	query := `SELECT id, expense_id, name, price, position FROM expense_items
			  WHERE expense_id = $1 ORDER BY position ASC`

	rows, err := r.getExecutor().QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_items_by_expense", "failed to query expense items", err)
	}
	defer rows.Close()

	var items []relationaldb.ExpenseItem
	for rows.Next() {
		var item relationaldb.ExpenseItem
		if err := rows.Scan(&item.ID, &item.ExpenseID, &item.Name, &item.Price, &item.Position); err != nil {
			return nil, relationaldb.NewQueryError("list_items_by_expense", "failed to scan expense item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("list_items_by_expense", "row iteration failed", err)
	}

	return items, nil
}

func (r *ExpenseRepository) ListAssignmentsByExpense(ctx context.Context, expenseID uuid.UUID) ([]relationaldb.ExpenseItemAssignment, error) {
	query := `SELECT a.item_id, a.user_id FROM expense_item_assignments a
			  JOIN expense_items i ON i.id = a.item_id
			  WHERE i.expense_id = $1
			  ORDER BY i.position ASC`

	rows, err := r.getExecutor().QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_assignments_by_expense", "failed to query item assignments", err)
	}
	defer rows.Close()

	var assignments []relationaldb.ExpenseItemAssignment
	for rows.Next() {
		var a relationaldb.ExpenseItemAssignment
		if err := rows.Scan(&a.ItemID, &a.UserID); err != nil {
			return nil, relationaldb.NewQueryError("list_assignments_by_expense", "failed to scan item assignment", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("list_assignments_by_expense", "row iteration failed", err)
	}

	return assignments, nil
}

func (r *ExpenseRepository) ListSplitsByExpense(ctx context.Context, expenseID uuid.UUID) ([]relationaldb.ExpenseSplit, error) {
	query := `SELECT expense_id, user_id, share FROM expense_splits
			  WHERE expense_id = $1 ORDER BY share DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_splits_by_expense", "failed to query splits", err)
	}
	defer rows.Close()

	return scanSplits(rows, "list_splits_by_expense")
}

func (r *ExpenseRepository) ListSplitsByTrip(ctx context.Context, tripID uuid.UUID) ([]relationaldb.ExpenseSplit, error) {
	query := `SELECT s.expense_id, s.user_id, s.share FROM expense_splits s
			  JOIN expenses e ON e.id = s.expense_id
			  WHERE e.trip_id = $1`

	rows, err := r.getExecutor().QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_splits_by_trip", "failed to query splits", err)
	}
	defer rows.Close()

	return scanSplits(rows, "list_splits_by_trip")
}

func (r *ExpenseRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]relationaldb.Expense, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `SELECT e.id, e.trip_id, e.paid_by, e.title, e.amount, e.subtotal, e.tax, e.tip, e.total, e.created_at
			  FROM expenses e
			  JOIN trip_members m ON m.trip_id = e.trip_id
			  WHERE m.user_id = $1
			  ORDER BY e.created_at DESC LIMIT $2`

	rows, err := r.getExecutor().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_recent_expenses", "failed to query recent expenses", err)
	}
	defer rows.Close()

	return scanExpenses(rows, "list_recent_expenses")
}

func scanExpenses(rows *sql.Rows, operation string) ([]relationaldb.Expense, error) {
	var expenses []relationaldb.Expense
	for rows.Next() {
		var e relationaldb.Expense
		if err := rows.Scan(&e.ID, &e.TripID, &e.PaidBy, &e.Title,
			&e.Amount, &e.Subtotal, &e.Tax, &e.Tip, &e.Total, &e.CreatedAt); err != nil {
			return nil, relationaldb.NewQueryError(operation, "failed to scan expense", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError(operation, "row iteration failed", err)
	}
	return expenses, nil
}

func scanSplits(rows *sql.Rows, operation string) ([]relationaldb.ExpenseSplit, error) {
	var splits []relationaldb.ExpenseSplit
	for rows.Next() {
		var s relationaldb.ExpenseSplit
		if err := rows.Scan(&s.ExpenseID, &s.UserID, &s.Share); err != nil {
			return nil, relationaldb.NewQueryError(operation, "failed to scan split", err)
		}
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError(operation, "row iteration failed", err)
	}
	return splits, nil
}
