package relationaldb

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository handles user account rows
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]User, error)
}

// TripRepository handles trips, their memberships and trip invites
type TripRepository interface {
	CreateTrip(ctx context.Context, trip *Trip) error
	GetTripByID(ctx context.Context, id uuid.UUID) (*Trip, error)
	UpdateTrip(ctx context.Context, trip *Trip) error
	ListTripsByUser(ctx context.Context, userID uuid.UUID) ([]Trip, error)

	AddMember(ctx context.Context, member *TripMember) error
	GetMember(ctx context.Context, tripID, userID uuid.UUID) (*TripMember, error)
	ListMembers(ctx context.Context, tripID uuid.UUID) ([]TripMember, error)
	IsMember(ctx context.Context, tripID, userID uuid.UUID) (bool, error)

	CreateInvite(ctx context.Context, invite *TripInvite) error
	GetInviteByID(ctx context.Context, id uuid.UUID) (*TripInvite, error)
	ListInvitesByInvitee(ctx context.Context, userID uuid.UUID) ([]TripInvite, error)
	HasPendingInvite(ctx context.Context, tripID, inviteeID uuid.UUID) (bool, error)
	// UpdateInviteStatus transitions an invite out of pending; zero matched
	// rows surface as a state error.
	UpdateInviteStatus(ctx context.Context, id uuid.UUID, to InviteStatus) error
}

// ExpenseRepository handles expenses and their child rows
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, expense *Expense) error
	CreateExpenseItem(ctx context.Context, item *ExpenseItem) error
	CreateItemAssignment(ctx context.Context, assignment *ExpenseItemAssignment) error
	CreateSplit(ctx context.Context, split *ExpenseSplit) error

	GetExpenseByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListExpensesByTrip(ctx context.Context, tripID uuid.UUID) ([]Expense, error)
	ListItemsByExpense(ctx context.Context, expenseID uuid.UUID) ([]ExpenseItem, error)
	ListAssignmentsByExpense(ctx context.Context, expenseID uuid.UUID) ([]ExpenseItemAssignment, error)
	ListSplitsByExpense(ctx context.Context, expenseID uuid.UUID) ([]ExpenseSplit, error)
	ListSplitsByTrip(ctx context.Context, tripID uuid.UUID) ([]ExpenseSplit, error)
	// ListRecentByUser returns the newest expenses across all trips the user
	// is a member of, for the activity feed.
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Expense, error)
}

// PaymentRepository handles peer-to-peer settlement rows
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPaymentsByTrip(ctx context.Context, tripID uuid.UUID) ([]Payment, error)
	ListPendingByReceiver(ctx context.Context, userID uuid.UUID) ([]Payment, error)
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Payment, error)
	// TransitionStatus performs the conditional pending -> terminal update.
	// Zero matched rows surface as a state error (the payment already left
	// pending, or never existed).
	TransitionStatus(ctx context.Context, id uuid.UUID, to PaymentStatus, declineNote string) error
	// DeletePending removes a payment only while pending and only for its
	// creator. Zero matched rows surface as a state error.
	DeletePending(ctx context.Context, id, fromUserID uuid.UUID) error
}

// FriendRepository handles symmetric friendships and friend invites
type FriendRepository interface {
	// CreateFriendship inserts both mirror rows.
	CreateFriendship(ctx context.Context, userID, friendID uuid.UUID) error
	// DeleteFriendship removes both mirror rows.
	DeleteFriendship(ctx context.Context, userID, friendID uuid.UUID) error
	AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]Friend, error)

	CreateFriendInvite(ctx context.Context, invite *FriendInvite) error
	GetFriendInviteByID(ctx context.Context, id uuid.UUID) (*FriendInvite, error)
	GetPendingFriendInvite(ctx context.Context, senderID, receiverID uuid.UUID) (*FriendInvite, error)
	ListFriendInvitesByReceiver(ctx context.Context, userID uuid.UUID) ([]FriendInvite, error)
	UpdateFriendInviteStatus(ctx context.Context, id uuid.UUID, to InviteStatus) error
}

// SystemRepository handles system-level database operations
type SystemRepository interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (*StoreStats, error)
	Begin(ctx context.Context) (TransactionContext, error)
}

// TransactionContext represents a database transaction with repository access
type TransactionContext interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Repository access within the transaction
	Users() UserRepository
	Trips() TripRepository
	Expenses() ExpenseRepository
	Payments() PaymentRepository
	Friends() FriendRepository
}

// RepositoryManager provides access to all repositories and transaction management
type RepositoryManager interface {
	// Repository access
	Users() UserRepository
	Trips() TripRepository
	Expenses() ExpenseRepository
	Payments() PaymentRepository
	Friends() FriendRepository
	System() SystemRepository

	// Connection management
	Open(ctx context.Context) error
	Close(ctx context.Context) error

	// Transaction management
	WithTransaction(ctx context.Context, fn func(TransactionContext) error) error
}
