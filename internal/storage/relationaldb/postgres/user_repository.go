package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	db *sql.DB
	tx *sql.Tx // Optional transaction context
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// NewUserRepositoryWithTx creates a new user repository within a transaction
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{tx: tx}
}

// getExecutor returns the appropriate executor (db or tx)
func (r *UserRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const userColumns = "id, username, email, password_hash, created_at, updated_at"

func scanUser(row *sql.Row) (*relationaldb.User, error) {
	var u relationaldb.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *relationaldb.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return writeError("create_user", "failed to insert user", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*relationaldb.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)

	user, err := scanUser(r.getExecutor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_user_by_id", "user not found", relationaldb.ErrUserNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_user_by_id", "failed to query user", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*relationaldb.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE LOWER(email) = LOWER($1)", userColumns)

	user, err := scanUser(r.getExecutor().QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_user_by_email", "user not found", relationaldb.ErrUserNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_user_by_email", "failed to query user", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*relationaldb.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE username = $1", userColumns)

	user, err := scanUser(r.getExecutor().QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_user_by_username", "user not found", relationaldb.ErrUserNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_user_by_username", "failed to query user", err)
	}
	return user, nil
}

func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]relationaldb.User, error) {
	result := make(map[uuid.UUID]relationaldb.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf("SELECT %s FROM users WHERE id IN (%s)",
		userColumns, strings.Join(placeholders, ", "))

	rows, err := r.getExecutor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, relationaldb.NewQueryError("get_users_by_ids", "failed to query users", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u relationaldb.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, relationaldb.NewQueryError("get_users_by_ids", "failed to scan user", err)
		}
		result[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("get_users_by_ids", "row iteration failed", err)
	}

	return result, nil
}

func (r *UserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]relationaldb.User, error) {
	if limit <= 0 {
		limit = 20
	}

	// Case-insensitive prefix-or-substring match on username and email.
	pattern := "%" + strings.ToLower(query) + "%"
	sqlQuery := fmt.Sprintf(`SELECT %s FROM users
			  WHERE LOWER(username) LIKE $1 OR LOWER(email) LIKE $2
			  ORDER BY username ASC LIMIT $3`, userColumns)

	rows, err := r.getExecutor().QueryContext(ctx, sqlQuery, pattern, pattern, limit)
	if err != nil {
		return nil, relationaldb.NewQueryError("search_users", "failed to search users", err)
	}
	defer rows.Close()

	var users []relationaldb.User
	for rows.Next() {
		var u relationaldb.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, relationaldb.NewQueryError("search_users", "failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("search_users", "row iteration failed", err)
	}

	return users, nil
}
