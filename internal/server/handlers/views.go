package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/money"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// identity is the slim user projection embedded in feeds, settlements and
// invite views.
type identity struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// identityOf builds an identity, tolerating a missing user row (deleted
// accounts keep their ledger rows).
func identityOf(users map[uuid.UUID]relationaldb.User, id uuid.UUID) identity {
	if u, ok := users[id]; ok {
		return identity{UserID: id, Username: u.Username}
	}
	return identity{UserID: id}
}

// memberView is a trip member with the identity fields clients render.
type memberView struct {
	UserID   uuid.UUID               `json:"user_id"`
	Username string                  `json:"username"`
	Email    string                  `json:"email"`
	Role     relationaldb.MemberRole `json:"role"`
	JoinedAt time.Time               `json:"joined_at"`
}

// balanceEntry is one user's signed position in a trip. Positive means the
// group owes the user.
type balanceEntry struct {
	UserID   uuid.UUID   `json:"user_id"`
	Username string      `json:"username"`
	Balance  money.Cents `json:"balance"`
	Settled  bool        `json:"settled"`
}

// settlementView is one planned transfer with identities resolved.
type settlementView struct {
	From   identity    `json:"from"`
	To     identity    `json:"to"`
	Amount money.Cents `json:"amount"`
}

// tripSummary is a trip row with the caller-facing aggregates the trip list
// carries.
type tripSummary struct {
	relationaldb.Trip
	TotalAmount  money.Cents `json:"totalAmount"`
	ExpenseCount int         `json:"expenseCount"`
	UserBalance  money.Cents `json:"userBalance"`
}

// tripDetail is the full single-trip payload: the trip with its members,
// ledger rows, computed balances and the suggested settlement plan.
type tripDetail struct {
	relationaldb.Trip
	Members      []memberView                  `json:"members"`
	Expenses     []relationaldb.ExpenseDetails `json:"expenses"`
	Payments     []paymentView                 `json:"payments"`
	Balances     []balanceEntry                `json:"balances"`
	Settlements  []settlementView              `json:"settlements"`
	TotalAmount  money.Cents                   `json:"totalAmount"`
	ExpenseCount int                           `json:"expenseCount"`
	UserBalance  money.Cents                   `json:"userBalance"`
}

// balancesResponse is the GET /trips/:id/balances payload.
type balancesResponse struct {
	UserBalance  money.Cents      `json:"userBalance"`
	Balances     []balanceEntry   `json:"balances"`
	Settlements  []settlementView `json:"settlements"`
	TotalSettled money.Cents      `json:"totalSettled"`
	PaymentCount int              `json:"paymentCount"`
}

// paymentView is a payment row with both party usernames resolved.
type paymentView struct {
	relationaldb.Payment
	FromUsername string `json:"from_username,omitempty"`
	ToUsername   string `json:"to_username,omitempty"`
}

func paymentViewOf(p relationaldb.Payment, users map[uuid.UUID]relationaldb.User) paymentView {
	return paymentView{
		Payment:      p,
		FromUsername: users[p.FromUserID].Username,
		ToUsername:   users[p.ToUserID].Username,
	}
}

// inviteView is a trip invite with the names an invitee needs to decide.
type inviteView struct {
	relationaldb.TripInvite
	TripName        string `json:"trip_name,omitempty"`
	InviterUsername string `json:"inviter_username,omitempty"`
}

// friendView is one friend with the friendship timestamp.
type friendView struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FriendsSince time.Time `json:"friends_since"`
}

// friendInviteView is a friend request with sender identity resolved.
type friendInviteView struct {
	relationaldb.FriendInvite
	SenderUsername string `json:"sender_username,omitempty"`
}

// Activity feed event types.
const (
	activityExpense = "expense"
	activityPayment = "payment"
)

// activityEvent is one row of the merged activity feed. Expense events fill
// the expense fields, payment events the payment fields; shared fields are
// always present.
type activityEvent struct {
	Type      string      `json:"type"`
	TripID    uuid.UUID   `json:"trip_id"`
	Amount    money.Cents `json:"amount"`
	CreatedAt time.Time   `json:"created_at"`

	ExpenseID *uuid.UUID `json:"expense_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	PaidBy    *identity  `json:"paid_by,omitempty"`

	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
	From      *identity  `json:"from,omitempty"`
	To        *identity  `json:"to,omitempty"`
	Method    string     `json:"method,omitempty"`
	Status    string     `json:"status,omitempty"`
}
