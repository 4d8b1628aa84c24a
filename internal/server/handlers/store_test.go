package handlers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// fakeStore is an in-memory RepositoryManager for handler tests. It keeps
// the parts of the store contract the handlers rely on: missing rows come
// back as data errors wrapping the package sentinels, guarded updates as
// state errors, and duplicate inserts as constraint errors. Timestamps
// advance one second per write so ordering assertions are deterministic.
type fakeStore struct {
	users         map[uuid.UUID]relationaldb.User
	trips         map[uuid.UUID]relationaldb.Trip
	members       []relationaldb.TripMember
	invites       map[uuid.UUID]relationaldb.TripInvite
	expenses      []relationaldb.Expense
	items         []relationaldb.ExpenseItem
	assignments   []relationaldb.ExpenseItemAssignment
	splits        []relationaldb.ExpenseSplit
	payments      map[uuid.UUID]relationaldb.Payment
	friendships   []relationaldb.Friend
	friendInvites map[uuid.UUID]relationaldb.FriendInvite

	seq int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[uuid.UUID]relationaldb.User),
		trips:         make(map[uuid.UUID]relationaldb.Trip),
		invites:       make(map[uuid.UUID]relationaldb.TripInvite),
		payments:      make(map[uuid.UUID]relationaldb.Payment),
		friendInvites: make(map[uuid.UUID]relationaldb.FriendInvite),
	}
}

func (s *fakeStore) tick() time.Time {
	s.seq++
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

func (s *fakeStore) Users() relationaldb.UserRepository       { return &fakeUserRepo{s} }
func (s *fakeStore) Trips() relationaldb.TripRepository       { return &fakeTripRepo{s} }
func (s *fakeStore) Expenses() relationaldb.ExpenseRepository { return &fakeExpenseRepo{s} }
func (s *fakeStore) Payments() relationaldb.PaymentRepository { return &fakePaymentRepo{s} }
func (s *fakeStore) Friends() relationaldb.FriendRepository   { return &fakeFriendRepo{s} }
func (s *fakeStore) System() relationaldb.SystemRepository    { return &fakeSystemRepo{s} }

func (s *fakeStore) Open(context.Context) error  { return nil }
func (s *fakeStore) Close(context.Context) error { return nil }

// WithTransaction runs fn against the same state. Handler tests assert
// outcomes, not rollback mechanics.
func (s *fakeStore) WithTransaction(_ context.Context, fn func(relationaldb.TransactionContext) error) error {
	return fn(s)
}

func (s *fakeStore) Commit(context.Context) error   { return nil }
func (s *fakeStore) Rollback(context.Context) error { return nil }

type fakeSystemRepo struct{ s *fakeStore }

func (r *fakeSystemRepo) Ping(context.Context) error { return nil }
func (r *fakeSystemRepo) Stats(context.Context) (*relationaldb.StoreStats, error) {
	return &relationaldb.StoreStats{}, nil
}
func (r *fakeSystemRepo) Begin(context.Context) (relationaldb.TransactionContext, error) {
	return r.s, nil
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) CreateUser(_ context.Context, user *relationaldb.User) error {
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return relationaldb.NewConstraintError("create_user", "duplicate email or username", relationaldb.ErrUniqueViolation)
		}
	}
	now := r.s.tick()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*relationaldb.User, error) {
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, relationaldb.NewDataError("get_user_by_id", "user not found", relationaldb.ErrUserNotFound)
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*relationaldb.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, relationaldb.NewDataError("get_user_by_email", "user not found", relationaldb.ErrUserNotFound)
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*relationaldb.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, relationaldb.NewDataError("get_user_by_username", "user not found", relationaldb.ErrUserNotFound)
}

func (r *fakeUserRepo) GetUsersByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]relationaldb.User, error) {
	out := make(map[uuid.UUID]relationaldb.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SearchUsers(_ context.Context, query string, limit int) ([]relationaldb.User, error) {
	q := strings.ToLower(query)
	var out []relationaldb.User
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeTripRepo struct{ s *fakeStore }

func (r *fakeTripRepo) CreateTrip(_ context.Context, trip *relationaldb.Trip) error {
	now := r.s.tick()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	r.s.trips[trip.ID] = *trip
	return nil
}

func (r *fakeTripRepo) GetTripByID(_ context.Context, id uuid.UUID) (*relationaldb.Trip, error) {
	if t, ok := r.s.trips[id]; ok {
		return &t, nil
	}
	return nil, relationaldb.NewDataError("get_trip_by_id", "trip not found", relationaldb.ErrTripNotFound)
}

func (r *fakeTripRepo) UpdateTrip(_ context.Context, trip *relationaldb.Trip) error {
	if _, ok := r.s.trips[trip.ID]; !ok {
		return relationaldb.NewDataError("update_trip", "trip not found", relationaldb.ErrTripNotFound)
	}
	trip.UpdatedAt = r.s.tick()
	r.s.trips[trip.ID] = *trip
	return nil
}

func (r *fakeTripRepo) ListTripsByUser(_ context.Context, userID uuid.UUID) ([]relationaldb.Trip, error) {
	var out []relationaldb.Trip
	for _, m := range r.s.members {
		if m.UserID != userID {
			continue
		}
		if t, ok := r.s.trips[m.TripID]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTripRepo) AddMember(_ context.Context, member *relationaldb.TripMember) error {
	for _, m := range r.s.members {
		if m.TripID == member.TripID && m.UserID == member.UserID {
			return relationaldb.NewConstraintError("add_member", "already a member", relationaldb.ErrUniqueViolation)
		}
	}
	member.JoinedAt = r.s.tick()
	r.s.members = append(r.s.members, *member)
	return nil
}

func (r *fakeTripRepo) GetMember(_ context.Context, tripID, userID uuid.UUID) (*relationaldb.TripMember, error) {
	for _, m := range r.s.members {
		if m.TripID == tripID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, relationaldb.NewDataError("get_member", "trip member not found", relationaldb.ErrMemberNotFound)
}

func (r *fakeTripRepo) ListMembers(_ context.Context, tripID uuid.UUID) ([]relationaldb.TripMember, error) {
	var out []relationaldb.TripMember
	for _, m := range r.s.members {
		if m.TripID == tripID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeTripRepo) IsMember(_ context.Context, tripID, userID uuid.UUID) (bool, error) {
	for _, m := range r.s.members {
		if m.TripID == tripID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTripRepo) CreateInvite(_ context.Context, invite *relationaldb.TripInvite) error {
	for _, inv := range r.s.invites {
		if inv.TripID == invite.TripID && inv.InviteeID == invite.InviteeID && inv.Status == relationaldb.InviteStatusPending {
			return relationaldb.NewConstraintError("create_invite", "duplicate invite", relationaldb.ErrUniqueViolation)
		}
	}
	invite.CreatedAt = r.s.tick()
	r.s.invites[invite.ID] = *invite
	return nil
}

func (r *fakeTripRepo) GetInviteByID(_ context.Context, id uuid.UUID) (*relationaldb.TripInvite, error) {
	if inv, ok := r.s.invites[id]; ok {
		return &inv, nil
	}
	return nil, relationaldb.NewDataError("get_invite_by_id", "invite not found", relationaldb.ErrInviteNotFound)
}

func (r *fakeTripRepo) ListInvitesByInvitee(_ context.Context, userID uuid.UUID) ([]relationaldb.TripInvite, error) {
	var out []relationaldb.TripInvite
	for _, inv := range r.s.invites {
		if inv.InviteeID == userID && inv.Status == relationaldb.InviteStatusPending {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTripRepo) HasPendingInvite(_ context.Context, tripID, inviteeID uuid.UUID) (bool, error) {
	for _, inv := range r.s.invites {
		if inv.TripID == tripID && inv.InviteeID == inviteeID && inv.Status == relationaldb.InviteStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTripRepo) UpdateInviteStatus(_ context.Context, id uuid.UUID, to relationaldb.InviteStatus) error {
	inv, ok := r.s.invites[id]
	if !ok || inv.Status != relationaldb.InviteStatusPending {
		return relationaldb.NewStateError("update_invite_status", "invite is not pending", relationaldb.ErrInviteNotPending)
	}
	now := r.s.tick()
	inv.Status = to
	inv.RespondedAt = &now
	r.s.invites[id] = inv
	return nil
}

type fakeExpenseRepo struct{ s *fakeStore }

func (r *fakeExpenseRepo) CreateExpense(_ context.Context, expense *relationaldb.Expense) error {
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = r.s.tick()
	}
	r.s.expenses = append(r.s.expenses, *expense)
	return nil
}

func (r *fakeExpenseRepo) CreateExpenseItem(_ context.Context, item *relationaldb.ExpenseItem) error {
	r.s.items = append(r.s.items, *item)
	return nil
}

func (r *fakeExpenseRepo) CreateItemAssignment(_ context.Context, assignment *relationaldb.ExpenseItemAssignment) error {
	r.s.assignments = append(r.s.assignments, *assignment)
	return nil
}

func (r *fakeExpenseRepo) CreateSplit(_ context.Context, split *relationaldb.ExpenseSplit) error {
	r.s.splits = append(r.s.splits, *split)
	return nil
}

func (r *fakeExpenseRepo) GetExpenseByID(_ context.Context, id uuid.UUID) (*relationaldb.Expense, error) {
	for _, e := range r.s.expenses {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, relationaldb.NewDataError("get_expense_by_id", "expense not found", relationaldb.ErrExpenseNotFound)
}

func (r *fakeExpenseRepo) ListExpensesByTrip(_ context.Context, tripID uuid.UUID) ([]relationaldb.Expense, error) {
	var out []relationaldb.Expense
	for _, e := range r.s.expenses {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeExpenseRepo) ListItemsByExpense(_ context.Context, expenseID uuid.UUID) ([]relationaldb.ExpenseItem, error) {
	var out []relationaldb.ExpenseItem
	for _, it := range r.s.items {
		if it.ExpenseID == expenseID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeExpenseRepo) ListAssignmentsByExpense(_ context.Context, expenseID uuid.UUID) ([]relationaldb.ExpenseItemAssignment, error) {
	itemIDs := make(map[uuid.UUID]struct{})
	for _, it := range r.s.items {
		if it.ExpenseID == expenseID {
			itemIDs[it.ID] = struct{}{}
		}
	}
	var out []relationaldb.ExpenseItemAssignment
	for _, a := range r.s.assignments {
		if _, ok := itemIDs[a.ItemID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) ListSplitsByExpense(_ context.Context, expenseID uuid.UUID) ([]relationaldb.ExpenseSplit, error) {
	var out []relationaldb.ExpenseSplit
	for _, sp := range r.s.splits {
		if sp.ExpenseID == expenseID {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) ListSplitsByTrip(_ context.Context, tripID uuid.UUID) ([]relationaldb.ExpenseSplit, error) {
	tripExpenses := make(map[uuid.UUID]struct{})
	for _, e := range r.s.expenses {
		if e.TripID == tripID {
			tripExpenses[e.ID] = struct{}{}
		}
	}
	var out []relationaldb.ExpenseSplit
	for _, sp := range r.s.splits {
		if _, ok := tripExpenses[sp.ExpenseID]; ok {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) ListRecentByUser(_ context.Context, userID uuid.UUID, limit int) ([]relationaldb.Expense, error) {
	memberOf := make(map[uuid.UUID]struct{})
	for _, m := range r.s.members {
		if m.UserID == userID {
			memberOf[m.TripID] = struct{}{}
		}
	}
	var out []relationaldb.Expense
	for _, e := range r.s.expenses {
		if _, ok := memberOf[e.TripID]; ok {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePaymentRepo struct{ s *fakeStore }

func (r *fakePaymentRepo) CreatePayment(_ context.Context, payment *relationaldb.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Status == "" {
		payment.Status = relationaldb.PaymentStatusPending
	}
	now := r.s.tick()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) GetPaymentByID(_ context.Context, id uuid.UUID) (*relationaldb.Payment, error) {
	if p, ok := r.s.payments[id]; ok {
		return &p, nil
	}
	return nil, relationaldb.NewDataError("get_payment_by_id", "payment not found", relationaldb.ErrPaymentNotFound)
}

func (r *fakePaymentRepo) ListPaymentsByTrip(_ context.Context, tripID uuid.UUID) ([]relationaldb.Payment, error) {
	var out []relationaldb.Payment
	for _, p := range r.s.payments {
		if p.TripID == tripID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePaymentRepo) ListPendingByReceiver(_ context.Context, userID uuid.UUID) ([]relationaldb.Payment, error) {
	var out []relationaldb.Payment
	for _, p := range r.s.payments {
		if p.ToUserID == userID && p.Status == relationaldb.PaymentStatusPending {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePaymentRepo) ListRecentByUser(_ context.Context, userID uuid.UUID, limit int) ([]relationaldb.Payment, error) {
	memberOf := make(map[uuid.UUID]struct{})
	for _, m := range r.s.members {
		if m.UserID == userID {
			memberOf[m.TripID] = struct{}{}
		}
	}
	var out []relationaldb.Payment
	for _, p := range r.s.payments {
		if _, ok := memberOf[p.TripID]; ok {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePaymentRepo) TransitionStatus(_ context.Context, id uuid.UUID, to relationaldb.PaymentStatus, declineNote string) error {
	p, ok := r.s.payments[id]
	if !ok || p.Status != relationaldb.PaymentStatusPending {
		return relationaldb.NewStateError("transition_status", "payment is not pending", relationaldb.ErrPaymentNotPending)
	}
	p.Status = to
	p.DeclineNote = declineNote
	p.UpdatedAt = r.s.tick()
	r.s.payments[id] = p
	return nil
}

func (r *fakePaymentRepo) DeletePending(_ context.Context, id, fromUserID uuid.UUID) error {
	p, ok := r.s.payments[id]
	if !ok || p.FromUserID != fromUserID || p.Status != relationaldb.PaymentStatusPending {
		return relationaldb.NewStateError("delete_pending", "payment is not pending", relationaldb.ErrPaymentNotPending)
	}
	delete(r.s.payments, id)
	return nil
}

type fakeFriendRepo struct{ s *fakeStore }

func (r *fakeFriendRepo) CreateFriendship(_ context.Context, userID, friendID uuid.UUID) error {
	for _, f := range r.s.friendships {
		if f.UserID == userID && f.FriendID == friendID {
			return relationaldb.NewConstraintError("create_friendship", "already friends", relationaldb.ErrUniqueViolation)
		}
	}
	now := r.s.tick()
	r.s.friendships = append(r.s.friendships,
		relationaldb.Friend{UserID: userID, FriendID: friendID, CreatedAt: now},
		relationaldb.Friend{UserID: friendID, FriendID: userID, CreatedAt: now},
	)
	return nil
}

func (r *fakeFriendRepo) DeleteFriendship(_ context.Context, userID, friendID uuid.UUID) error {
	var kept []relationaldb.Friend
	for _, f := range r.s.friendships {
		if (f.UserID == userID && f.FriendID == friendID) || (f.UserID == friendID && f.FriendID == userID) {
			continue
		}
		kept = append(kept, f)
	}
	r.s.friendships = kept
	return nil
}

func (r *fakeFriendRepo) AreFriends(_ context.Context, userID, friendID uuid.UUID) (bool, error) {
	for _, f := range r.s.friendships {
		if f.UserID == userID && f.FriendID == friendID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFriendRepo) ListFriends(_ context.Context, userID uuid.UUID) ([]relationaldb.Friend, error) {
	var out []relationaldb.Friend
	for _, f := range r.s.friendships {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFriendRepo) CreateFriendInvite(_ context.Context, invite *relationaldb.FriendInvite) error {
	for _, inv := range r.s.friendInvites {
		if inv.SenderID == invite.SenderID && inv.ReceiverID == invite.ReceiverID && inv.Status == relationaldb.InviteStatusPending {
			return relationaldb.NewConstraintError("create_friend_invite", "duplicate invite", relationaldb.ErrUniqueViolation)
		}
	}
	invite.CreatedAt = r.s.tick()
	r.s.friendInvites[invite.ID] = *invite
	return nil
}

func (r *fakeFriendRepo) GetFriendInviteByID(_ context.Context, id uuid.UUID) (*relationaldb.FriendInvite, error) {
	if inv, ok := r.s.friendInvites[id]; ok {
		return &inv, nil
	}
	return nil, relationaldb.NewDataError("get_friend_invite_by_id", "invite not found", relationaldb.ErrInviteNotFound)
}

func (r *fakeFriendRepo) GetPendingFriendInvite(_ context.Context, senderID, receiverID uuid.UUID) (*relationaldb.FriendInvite, error) {
	for _, inv := range r.s.friendInvites {
		if inv.SenderID == senderID && inv.ReceiverID == receiverID && inv.Status == relationaldb.InviteStatusPending {
			return &inv, nil
		}
	}
	return nil, relationaldb.NewDataError("get_pending_friend_invite", "invite not found", relationaldb.ErrInviteNotFound)
}

func (r *fakeFriendRepo) ListFriendInvitesByReceiver(_ context.Context, userID uuid.UUID) ([]relationaldb.FriendInvite, error) {
	var out []relationaldb.FriendInvite
	for _, inv := range r.s.friendInvites {
		if inv.ReceiverID == userID && inv.Status == relationaldb.InviteStatusPending {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFriendRepo) UpdateFriendInviteStatus(_ context.Context, id uuid.UUID, to relationaldb.InviteStatus) error {
	inv, ok := r.s.friendInvites[id]
	if !ok || inv.Status != relationaldb.InviteStatusPending {
		return relationaldb.NewStateError("update_friend_invite_status", "invite is not pending", relationaldb.ErrInviteNotPending)
	}
	now := r.s.tick()
	inv.Status = to
	inv.RespondedAt = &now
	r.s.friendInvites[id] = inv
	return nil
}
