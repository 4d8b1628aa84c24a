package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// TripRepository implements the TripRepository interface
type TripRepository struct {
	db *sql.DB
	tx *sql.Tx // Optional transaction context
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// NewTripRepositoryWithTx creates a new trip repository within a transaction
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{tx: tx}
}

// getExecutor returns the appropriate executor (db or tx)
func (r *TripRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *TripRepository) CreateTrip(ctx context.Context, trip *relationaldb.Trip) error {
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	if trip.Status == "" {
		trip.Status = relationaldb.TripStatusPlanning
	}
	now := time.Now().UTC()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now

	query := `INSERT INTO trips (id, name, start_date, end_date, status, created_by, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		trip.ID, trip.Name, trip.StartDate, trip.EndDate, trip.Status,
		trip.CreatedBy, trip.CreatedAt, trip.UpdatedAt)
	if err != nil {
		return writeError("create_trip", "failed to insert trip", err)
	}
	return nil
}

func (r *TripRepository) GetTripByID(ctx context.Context, id uuid.UUID) (*relationaldb.Trip, error) {
	query := `SELECT id, name, start_date, end_date, status, created_by, created_at, updated_at
			  FROM trips WHERE id = $1`

	var t relationaldb.Trip
	err := r.getExecutor().QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_trip_by_id", "trip not found", relationaldb.ErrTripNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_trip_by_id", "failed to query trip", err)
	}
	return &t, nil
}

func (r *TripRepository) UpdateTrip(ctx context.Context, trip *relationaldb.Trip) error {
	trip.UpdatedAt = time.Now().UTC()

	query := `UPDATE trips SET name = $1, start_date = $2, end_date = $3, status = $4, updated_at = $5
			  WHERE id = $6`

	result, err := r.getExecutor().ExecContext(ctx, query,
		trip.Name, trip.StartDate, trip.EndDate, trip.Status, trip.UpdatedAt, trip.ID)
	if err != nil {
		return writeError("update_trip", "failed to update trip", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError("update_trip", "failed to read rows affected", err)
	}
	if affected == 0 {
		return relationaldb.NewDataError("update_trip", "trip not found", relationaldb.ErrTripNotFound)
	}
	return nil
}

func (r *TripRepository) ListTripsByUser(ctx context.Context, userID uuid.UUID) ([]relationaldb.Trip, error) {
	query := `SELECT t.id, t.name, t.start_date, t.end_date, t.status, t.created_by, t.created_at, t.updated_at
			  FROM trips t
			  JOIN trip_members m ON m.trip_id = t.id
			  WHERE m.user_id = $1
			  ORDER BY t.created_at DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_trips_by_user", "failed to query trips", err)
	}
	defer rows.Close()

	var trips []relationaldb.Trip
	for rows.Next() {
		var t relationaldb.Trip
		if err := rows.Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.Status,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, relationaldb.NewQueryError("list_trips_by_user", "failed to scan trip", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("list_trips_by_user", "row iteration failed", err)
	}

	return trips, nil
}

func (r *TripRepository) AddMember(ctx context.Context, member *relationaldb.TripMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	if member.Role == "" {
		member.Role = relationaldb.RoleMember
	}

	query := `INSERT INTO trip_members (trip_id, user_id, role, joined_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		member.TripID, member.UserID, member.Role, member.JoinedAt)
	if err != nil {
		return writeError("add_member", "failed to insert trip member", err)
	}
	return nil
}

func (r *TripRepository) GetMember(ctx context.Context, tripID, userID uuid.UUID) (*relationaldb.TripMember, error) {
	query := `SELECT trip_id, user_id, role, joined_at FROM trip_members
			  WHERE trip_id = $1 AND user_id = $2`

	var m relationaldb.TripMember
	err := r.getExecutor().QueryRowContext(ctx, query, tripID, userID).Scan(
		&m.TripID, &m.UserID, &m.Role, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_member", "trip member not found", relationaldb.ErrMemberNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_member", "failed to query trip member", err)
	}
	return &m, nil
}

func (r *TripRepository) ListMembers(ctx context.Context, tripID uuid.UUID) ([]relationaldb.TripMember, error) {
	query := `SELECT trip_id, user_id, role, joined_at FROM trip_members
			  WHERE trip_id = $1 ORDER BY joined_at ASC`

	rows, err := r.getExecutor().QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_members", "failed to query trip members", err)
	}
	defer rows.Close()

	var members []relationaldb.TripMember
	for rows.Next() {
		var m relationaldb.TripMember
		if err := rows.Scan(&m.TripID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, relationaldb.NewQueryError("list_members", "failed to scan trip member", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("list_members", "row iteration failed", err)
	}

	return members, nil
}

func (r *TripRepository) IsMember(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	query := `SELECT COUNT(1) FROM trip_members WHERE trip_id = $1 AND user_id = $2`

	var count int
	err := r.getExecutor().QueryRowContext(ctx, query, tripID, userID).Scan(&count)
	if err != nil {
		return false, relationaldb.NewQueryError("is_member", "failed to query membership", err)
	}
	return count > 0, nil
}

func (r *TripRepository) CreateInvite(ctx context.Context, invite *relationaldb.TripInvite) error {
	if invite.ID == uuid.Nil {
		invite.ID = uuid.New()
	}
	if invite.Status == "" {
		invite.Status = relationaldb.InviteStatusPending
	}
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO trip_invites (id, trip_id, inviter_id, invitee_id, status, created_at, responded_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		invite.ID, invite.TripID, invite.InviterID, invite.InviteeID,
		invite.Status, invite.CreatedAt, invite.RespondedAt)
	if err != nil {
		return writeError("create_invite", "failed to insert trip invite", err)
	}
	return nil
}

func (r *TripRepository) GetInviteByID(ctx context.Context, id uuid.UUID) (*relationaldb.TripInvite, error) {
	query := `SELECT id, trip_id, inviter_id, invitee_id, status, created_at, responded_at
			  FROM trip_invites WHERE id = $1`

	var inv relationaldb.TripInvite
	var respondedAt sql.NullTime
	err := r.getExecutor().QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.TripID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &respondedAt)
	if err == sql.ErrNoRows {
		return nil, relationaldb.NewDataError("get_invite_by_id", "invite not found", relationaldb.ErrInviteNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_invite_by_id", "failed to query invite", err)
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		inv.RespondedAt = &t
	}
	return &inv, nil
}

func (r *TripRepository) ListInvitesByInvitee(ctx context.Context, userID uuid.UUID) ([]relationaldb.TripInvite, error) {
	query := `SELECT id, trip_id, inviter_id, invitee_id, status, created_at, responded_at
			  FROM trip_invites WHERE invitee_id = $1 AND status = 'pending'
			  ORDER BY created_at DESC`

	rows, err := r.getExecutor().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_invites_by_invitee", "failed to query invites", err)
	}
	defer rows.Close()

	var invites []relationaldb.TripInvite
	for rows.Next() {
		var inv relationaldb.TripInvite
		var respondedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.TripID, &inv.InviterID, &inv.InviteeID,
			&inv.Status, &inv.CreatedAt, &respondedAt); err != nil {
			return nil, relationaldb.NewQueryError("list_invites_by_invitee", "failed to scan invite", err)
		}
		if respondedAt.Valid {
			t := respondedAt.Time
			inv.RespondedAt = &t
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("list_invites_by_invitee", "row iteration failed", err)
	}

	return invites, nil
}

func (r *TripRepository) HasPendingInvite(ctx context.Context, tripID, inviteeID uuid.UUID) (bool, error) {
	query := `SELECT COUNT(1) FROM trip_invites
			  WHERE trip_id = $1 AND invitee_id = $2 AND status = 'pending'`

	var count int
	err := r.getExecutor().QueryRowContext(ctx, query, tripID, inviteeID).Scan(&count)
	if err != nil {
		return false, relationaldb.NewQueryError("has_pending_invite", "failed to query pending invite", err)
	}
	return count > 0, nil
}

func (r *TripRepository) UpdateInviteStatus(ctx context.Context, id uuid.UUID, to relationaldb.InviteStatus) error {
	query := `UPDATE trip_invites SET status = $1, responded_at = $2
			  WHERE id = $3 AND status = 'pending'`

	result, err := r.getExecutor().ExecContext(ctx, query, to, time.Now().UTC(), id)
	if err != nil {
		return writeError("update_invite_status", "failed to update invite", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError("update_invite_status", "failed to read rows affected", err)
	}
	if affected == 0 {
		return relationaldb.NewStateError("update_invite_status", "invite is not pending", relationaldb.ErrInviteNotPending)
	}
	return nil
}
