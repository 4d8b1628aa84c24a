package relationaldb

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/money"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusPlanning  TripStatus = "planning"
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// ParseTripStatus validates a status string from the wire.
func ParseTripStatus(s string) (TripStatus, error) {
	switch TripStatus(s) {
	case TripStatusPlanning, TripStatusActive, TripStatusCompleted, TripStatusCancelled:
		return TripStatus(s), nil
	default:
		return "", fmt.Errorf("invalid trip status: %s", s)
	}
}

// MemberRole is a user's role within a trip.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// InviteStatus is shared by trip invites and friend invites.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// Terminal reports whether the invite can no longer change state.
func (s InviteStatus) Terminal() bool {
	return s == InviteStatusAccepted || s == InviteStatusDeclined
}

// PaymentStatus is the state machine position of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusDeclined  PaymentStatus = "declined"
)

// Terminal reports whether the payment has left pending.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusDeclined
}

// Date is a calendar date without a time component, stored as DATE and
// carried on the wire as "YYYY-MM-DD". Valid is false for NULL.
type Date struct {
	Time  time.Time
	Valid bool
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t, Valid: true}, nil
}

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time.Format(dateLayout), nil
}

// Scan implements sql.Scanner for the shapes both drivers return for DATE.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = Date{Time: v, Valid: true}
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// User is a registered identity.
type User struct {
	ID           uuid.UUID `json:"user_id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"-" db:"updated_at"`
}

// Trip is a group spending context.
type Trip struct {
	ID        uuid.UUID  `json:"trip_id" db:"id"`
	Name      string     `json:"name" db:"name"`
	StartDate Date       `json:"start_date" db:"start_date"`
	EndDate   Date       `json:"end_date" db:"end_date"`
	Status    TripStatus `json:"status" db:"status"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TripMember links a user to a trip.
type TripMember struct {
	TripID   uuid.UUID  `json:"trip_id" db:"trip_id"`
	UserID   uuid.UUID  `json:"user_id" db:"user_id"`
	Role     MemberRole `json:"role" db:"role"`
	JoinedAt time.Time  `json:"joined_at" db:"joined_at"`
}

// TripInvite is a pending offer to join a trip.
type TripInvite struct {
	ID          uuid.UUID    `json:"invite_id" db:"id"`
	TripID      uuid.UUID    `json:"trip_id" db:"trip_id"`
	InviterID   uuid.UUID    `json:"inviter_id" db:"inviter_id"`
	InviteeID   uuid.UUID    `json:"invitee_id" db:"invitee_id"`
	Status      InviteStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	RespondedAt *time.Time   `json:"responded_at,omitempty" db:"responded_at"`
}

// Expense is one posted spend event. Amount always mirrors Total; older
// clients read amount, newer ones read the full breakdown.
type Expense struct {
	ID        uuid.UUID   `json:"expense_id" db:"id"`
	TripID    uuid.UUID   `json:"trip_id" db:"trip_id"`
	PaidBy    uuid.UUID   `json:"paid_by" db:"paid_by"`
	Title     string      `json:"title" db:"title"`
	Amount    money.Cents `json:"amount" db:"amount"`
	Subtotal  money.Cents `json:"subtotal" db:"subtotal"`
	Tax       money.Cents `json:"tax" db:"tax"`
	Tip       money.Cents `json:"tip" db:"tip"`
	Total     money.Cents `json:"total" db:"total"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// ExpenseItem is one line of an itemized expense.
type ExpenseItem struct {
	ID        uuid.UUID   `json:"item_id" db:"id"`
	ExpenseID uuid.UUID   `json:"expense_id" db:"expense_id"`
	Name      string      `json:"name" db:"name"`
	Price     money.Cents `json:"price" db:"price"`
	Position  int         `json:"position" db:"position"`
}

// ExpenseItemAssignment marks a user as sharing an item.
type ExpenseItemAssignment struct {
	ItemID uuid.UUID `json:"item_id" db:"item_id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`
}

// ExpenseSplit is the final per-user share of an expense.
type ExpenseSplit struct {
	ExpenseID uuid.UUID   `json:"expense_id" db:"expense_id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	Share     money.Cents `json:"share" db:"share"`
}

// ExpenseDetails bundles an expense with its items and splits.
type ExpenseDetails struct {
	Expense
	Items  []ExpenseItem  `json:"items,omitempty"`
	Splits []ExpenseSplit `json:"splits"`
}

// Payment is a peer-to-peer settlement attempt within a trip.
type Payment struct {
	ID          uuid.UUID     `json:"payment_id" db:"id"`
	TripID      uuid.UUID     `json:"trip_id" db:"trip_id"`
	FromUserID  uuid.UUID     `json:"from_user_id" db:"from_user_id"`
	ToUserID    uuid.UUID     `json:"to_user_id" db:"to_user_id"`
	Amount      money.Cents   `json:"amount" db:"amount"`
	Method      string        `json:"method,omitempty" db:"method"`
	Status      PaymentStatus `json:"status" db:"status"`
	DeclineNote string        `json:"decline_note,omitempty" db:"decline_note"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Friend is one direction of a symmetric friendship pair. Every row has a
// mirror row with user and friend swapped.
type Friend struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	FriendID  uuid.UUID `json:"friend_id" db:"friend_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FriendInvite is a directed friend request.
type FriendInvite struct {
	ID          uuid.UUID    `json:"invite_id" db:"id"`
	SenderID    uuid.UUID    `json:"sender_id" db:"sender_id"`
	ReceiverID  uuid.UUID    `json:"receiver_id" db:"receiver_id"`
	Status      InviteStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	RespondedAt *time.Time   `json:"responded_at,omitempty" db:"responded_at"`
}

// StoreStats carries row counts for monitoring.
type StoreStats struct {
	Users    int64 `json:"users"`
	Trips    int64 `json:"trips"`
	Expenses int64 `json:"expenses"`
	Payments int64 `json:"payments"`
}
