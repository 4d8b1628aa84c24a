package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// FriendRepository implements the FriendRepository interface
type FriendRepository struct {
	db *sql.DB
	tx *sql.Tx // Optional transaction context
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *sql.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// NewFriendRepositoryWithTx creates a new friend repository within a transaction
func NewFriendRepositoryWithTx(tx *sql.Tx) *FriendRepository {
	return &FriendRepository{tx: tx}
}

// getExecutor returns the appropriate executor (db or tx)
func (r *FriendRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// CreateFriendship inserts both mirror rows. Callers run this inside a
// transaction so the pair stays symmetric.
func (r *FriendRepository) CreateFriendship(ctx context.Context, userID, friendID uuid.UUID) error {
	now := time.Now().UTC()

	query := `INSERT INTO friends (user_id, friend_id, created_at)
			  VALUES ($1, $2, $3), ($4, $5, $6)`

	_, err := r.getExecutor().ExecContext(ctx, query, userID, friendID, now, friendID, userID, now)
	if err != nil {
		return writeError("create_friendship", "failed to insert friendship rows", err)
	}
	return nil
}

// DeleteFriendship removes both mirror rows.
func (r *FriendRepository) DeleteFriendship(ctx context.Context, userID, friendID uuid.UUID) error {
	query := `DELETE FROM friends
			  WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $3 AND friend_id = $4)`

	result, err := r.getExecutor().ExecContext(ctx, query, userID, friendID, friendID, userID)
	if err != nil {
		return writeError("delete_friendship", "failed to delete friendship rows", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError("delete_friendship", "failed to read rows affected", err)
	}
	if affected == 0 {
		return relationaldb.NewDataError("delete_friendship", "friendship not found", relationaldb.ErrFriendNotFound)
	}
	return nil
}

func (r *FriendRepository) AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	query := `SELECT COUNT(1) FROM friends WHERE user_id = $1 AND friend_id = $2`

	var count int
	err := r.getExecutor().QueryRowContext(ctx, query, userID, friendID).Scan(&count)
	if err != nil {
		return false, relationaldb.NewQueryError("are_friends", "failed to query friendship", err)
	}
	return count > 0, nil
}

func (r *FriendRepository) ListFriends(ctx context.Context, userID uuid.UUID) ([]relationaldb.Friend, error) {
	query := `SELECT user_id, friend_id, created_at FROM friends
			  WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_friends", "failed to query friends", err)
	}
	defer rows.Close()

	var friends []relationaldb.Friend
	for rows.Next() {
		var f relationaldb.Friend
		if err := rows.Scan(&f.UserID, &f.FriendID, &f.CreatedAt); err != nil {
			return nil, relationaldb.NewQueryError("list_friends", "failed to scan friend", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("list_friends", "row iteration failed", err)
	}

	return friends, nil
}

func (r *FriendRepository) CreateFriendInvite(ctx context.Context, invite *relationaldb.FriendInvite) error {
	if invite.ID == uuid.Nil {
		invite.ID = uuid.New()
	}
	if invite.Status == "" {
		invite.Status = relationaldb.InviteStatusPending
	}
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO friend_invites (id, sender_id, receiver_id, status, created_at, responded_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		invite.ID, invite.SenderID, invite.ReceiverID, invite.Status, invite.CreatedAt, invite.RespondedAt)
	if err != nil {
		return writeError("create_friend_invite", "failed to insert friend invite", err)
	}
	return nil
}

func (r *FriendRepository) GetFriendInviteByID(ctx context.Context, id uuid.UUID) (*relationaldb.FriendInvite, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at, responded_at
			  FROM friend_invites WHERE id = $1`

	var inv relationaldb.FriendInvite
	var respondedAt sql.NullTime
	err := r.getExecutor().QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.SenderID, &inv.ReceiverID, &inv.Status, &inv.CreatedAt, &respondedAt)
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_friend_invite_by_id", "invite not found", relationaldb.ErrInviteNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_friend_invite_by_id", "failed to query friend invite", err)
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		inv.RespondedAt = &t
	}
	return &inv, nil
}

func (r *FriendRepository) GetPendingFriendInvite(ctx context.Context, senderID, receiverID uuid.UUID) (*relationaldb.FriendInvite, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at, responded_at
			  FROM friend_invites
			  WHERE sender_id = $1 AND receiver_id = $2 AND status = 'pending'`

	var inv relationaldb.FriendInvite
	var respondedAt sql.NullTime
	err := r.getExecutor().QueryRowContext(ctx, query, senderID, receiverID).Scan(
		&inv.ID, &inv.SenderID, &inv.ReceiverID, &inv.Status, &inv.CreatedAt, &respondedAt)
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_pending_friend_invite", "invite not found", relationaldb.ErrInviteNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_pending_friend_invite", "failed to query friend invite", err)
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		inv.RespondedAt = &t
	}
	return &inv, nil
}

func (r *FriendRepository) ListFriendInvitesByReceiver(ctx context.Context, userID uuid.UUID) ([]relationaldb.FriendInvite, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at, responded_at
			  FROM friend_invites WHERE receiver_id = $1 AND status = 'pending'
			  ORDER BY created_at DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_friend_invites", "failed to query friend invites", err)
	}
	defer rows.Close()

	var invites []relationaldb.FriendInvite
	for rows.Next() {
		var inv relationaldb.FriendInvite
		var respondedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.SenderID, &inv.ReceiverID, &inv.Status, &inv.CreatedAt, &respondedAt); err != nil {
			return nil, relationaldb.NewQueryError("list_friend_invites", "failed to scan friend invite", err)
		}
		if respondedAt.Valid {
			t := respondedAt.Time
			inv.RespondedAt = &t
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("list_friend_invites", "row iteration failed", err)
	}

	return invites, nil
}

func (r *FriendRepository) UpdateFriendInviteStatus(ctx context.Context, id uuid.UUID, to relationaldb.InviteStatus) error {
	query := `UPDATE friend_invites SET status = $1, responded_at = $2
			  WHERE id = $3 AND status = 'pending'`

	result, err := r.getExecutor().ExecContext(ctx, query, to, time.Now().UTC(), id)
	if err != nil {
		return writeError("update_friend_invite_status", "failed to update friend invite", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError("update_friend_invite_status", "failed to read rows affected", err)
	}
	if affected == 0 {
		return relationaldb.NewStateError("update_friend_invite_status", "invite is not pending", relationaldb.ErrInviteNotPending)
	}
	return nil
}
