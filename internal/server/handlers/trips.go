package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/core/settle"
	"github.com/tripsplit/tripsplitd/internal/money"
	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

const minTripNameLength = 2

// TripsHandler serves trip CRUD plus the computed balance views.
type TripsHandler struct {
	store relationaldb.RepositoryManager
}

func NewTripsHandler(store relationaldb.RepositoryManager) *TripsHandler {
	return &TripsHandler{store: store}
}

type createTripRequest struct {
	Name      string            `json:"name"`
	StartDate relationaldb.Date `json:"startDate"`
	EndDate   relationaldb.Date `json:"endDate"`
	Status    string            `json:"status"`
}

// Create opens a trip with the caller as its owner. The trip row and the
// owner membership commit together.
func (h *TripsHandler) Create(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(req.Name) < minTripNameLength {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("trip name must be at least 2 characters"))
		return
	}

	status := relationaldb.TripStatusPlanning
	if req.Status != "" {
		parsed, err := relationaldb.ParseTripStatus(req.Status)
		if err != nil {
			apierrors.Send(c, apierrors.ErrBadRequest.Msg(err.Error()))
			return
		}
		status = parsed
	}
	if req.StartDate.Valid && req.EndDate.Valid && req.EndDate.Time.Before(req.StartDate.Time) {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("end date is before start date"))
		return
	}

	trip := &relationaldb.Trip{
		ID:        uuid.New(),
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    status,
		CreatedBy: userID,
	}
	err := h.store.WithTransaction(c.Request.Context(), func(tx relationaldb.TransactionContext) error {
		if err := tx.Trips().CreateTrip(c.Request.Context(), trip); err != nil {
			return err
		}
		return tx.Trips().AddMember(c.Request.Context(), &relationaldb.TripMember{
			TripID: trip.ID,
			UserID: userID,
			Role:   relationaldb.RoleOwner,
		})
	})
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// List returns the caller's trips with the aggregates the trip list screen
// renders: total spend, expense count and the caller's balance.
func (h *TripsHandler) List(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	trips, err := h.store.Trips().ListTripsByUser(c.Request.Context(), userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	summaries := make([]tripSummary, 0, len(trips))
	for _, trip := range trips {
		ledger, err := h.loadLedger(c.Request.Context(), trip.ID)
		if err != nil {
			apierrors.Send(c, apierrors.MapError(err, nil))
			return
		}
		summaries = append(summaries, tripSummary{
			Trip:         trip,
			TotalAmount:  ledger.totalAmount(),
			ExpenseCount: len(ledger.expenses),
			UserBalance:  ledger.balances[userID],
		})
	}

	c.JSON(http.StatusOK, summaries)
}

// Get returns the full trip payload: members, expenses with their splits,
// payments, balances and the suggested settlement plan.
func (h *TripsHandler) Get(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	trip, ok := requireMembership(c, h.store.Trips(), tripID, userID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	ledger, err := h.loadLedger(ctx, tripID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	expenses, err := assembleExpenseDetails(ctx, h.store.Expenses(), ledger.expenses, ledger.splits)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	c.JSON(http.StatusOK, tripDetail{
		Trip:         *trip,
		Members:      ledger.memberViews(),
		Expenses:     expenses,
		Payments:     ledger.paymentViews(),
		Balances:     ledger.balanceEntries(),
		Settlements:  ledger.settlementViews(),
		TotalAmount:  ledger.totalAmount(),
		ExpenseCount: len(ledger.expenses),
		UserBalance:  ledger.balances[userID],
	})
}

type updateTripRequest struct {
	Name      *string            `json:"name"`
	StartDate *relationaldb.Date `json:"startDate"`
	EndDate   *relationaldb.Date `json:"endDate"`
	Status    *string            `json:"status"`
}

// Update patches trip fields. Owner only; absent fields keep their value.
func (h *TripsHandler) Update(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	trip, ok := requireMembership(c, h.store.Trips(), tripID, userID)
	if !ok {
		return
	}

	member, err := h.store.Trips().GetMember(c.Request.Context(), tripID, userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if member.Role != relationaldb.RoleOwner {
		apierrors.Send(c, apierrors.ErrForbidden.Msg("only the trip owner can update the trip"))
		return
	}

	var req updateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if utf8.RuneCountInString(name) < minTripNameLength {
			apierrors.Send(c, apierrors.ErrBadRequest.Msg("trip name must be at least 2 characters"))
			return
		}
		trip.Name = name
	}
	if req.StartDate != nil {
		trip.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		trip.EndDate = *req.EndDate
	}
	if req.Status != nil {
		parsed, err := relationaldb.ParseTripStatus(*req.Status)
		if err != nil {
			apierrors.Send(c, apierrors.ErrBadRequest.Msg(err.Error()))
			return
		}
		trip.Status = parsed
	}
	if trip.StartDate.Valid && trip.EndDate.Valid && trip.EndDate.Time.Before(trip.StartDate.Time) {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("end date is before start date"))
		return
	}

	if err := h.store.Trips().UpdateTrip(c.Request.Context(), trip); err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrTripNotFound: apierrors.ErrTripNotFound,
		}))
		return
	}

	c.JSON(http.StatusOK, trip)
}

// Balances returns the computed ledger view for a trip.
func (h *TripsHandler) Balances(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := requireMembership(c, h.store.Trips(), tripID, userID); !ok {
		return
	}

	ledger, err := h.loadLedger(c.Request.Context(), tripID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	totalSettled, paymentCount := ledger.confirmedPayments()
	c.JSON(http.StatusOK, balancesResponse{
		UserBalance:  ledger.balances[userID],
		Balances:     ledger.balanceEntries(),
		Settlements:  ledger.settlementViews(),
		TotalSettled: totalSettled,
		PaymentCount: paymentCount,
	})
}

// tripLedger bundles the rows and derived balances behind a trip's money
// views. Users covers everyone appearing in any row, including historical
// members who already left other tables behind.
type tripLedger struct {
	members  []relationaldb.TripMember
	users    map[uuid.UUID]relationaldb.User
	expenses []relationaldb.Expense
	splits   []relationaldb.ExpenseSplit
	payments []relationaldb.Payment
	balances map[uuid.UUID]money.Cents
}

func (h *TripsHandler) loadLedger(ctx context.Context, tripID uuid.UUID) (*tripLedger, error) {
	members, err := h.store.Trips().ListMembers(ctx, tripID)
	if err != nil {
		return nil, err
	}
	expenses, err := h.store.Expenses().ListExpensesByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	splits, err := h.store.Expenses().ListSplitsByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	payments, err := h.store.Payments().ListPaymentsByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]uuid.UUID, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}
	settleExpenses := make([]settle.Expense, len(expenses))
	for i, e := range expenses {
		settleExpenses[i] = settle.Expense{PaidBy: e.PaidBy, Total: e.Total}
	}
	settleSplits := make([]settle.Split, len(splits))
	for i, s := range splits {
		settleSplits[i] = settle.Split{UserID: s.UserID, Share: s.Share}
	}
	settlePayments := make([]settle.Payment, len(payments))
	for i, p := range payments {
		settlePayments[i] = settle.Payment{
			From:      p.FromUserID,
			To:        p.ToUserID,
			Amount:    p.Amount,
			Confirmed: p.Status == relationaldb.PaymentStatusConfirmed,
		}
	}
	balances := settle.ComputeBalances(memberIDs, settleExpenses, settleSplits, settlePayments)

	// Balance keys cover members plus anyone referenced by ledger rows.
	ids := make([]uuid.UUID, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	users, err := h.store.Users().GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &tripLedger{
		members:  members,
		users:    users,
		expenses: expenses,
		splits:   splits,
		payments: payments,
		balances: balances,
	}, nil
}

func (l *tripLedger) username(id uuid.UUID) string {
	return l.users[id].Username
}

func (l *tripLedger) totalAmount() money.Cents {
	var total money.Cents
	for _, e := range l.expenses {
		total += e.Total
	}
	return total
}

// confirmedPayments reports the settled volume and how many confirmed
// payments carried it.
func (l *tripLedger) confirmedPayments() (money.Cents, int) {
	var total money.Cents
	count := 0
	for _, p := range l.payments {
		if p.Status == relationaldb.PaymentStatusConfirmed {
			total += p.Amount
			count++
		}
	}
	return total, count
}

// balanceEntries renders balances creditors-first, ties broken by username
// so the list is stable between requests.
func (l *tripLedger) balanceEntries() []balanceEntry {
	entries := make([]balanceEntry, 0, len(l.balances))
	for id, b := range l.balances {
		entries = append(entries, balanceEntry{
			UserID:   id,
			Username: l.username(id),
			Balance:  b,
			Settled:  b.Settled(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Balance != entries[j].Balance {
			return entries[i].Balance > entries[j].Balance
		}
		return entries[i].Username < entries[j].Username
	})
	return entries
}

func (l *tripLedger) settlementViews() []settlementView {
	transfers := settle.PlanSettlements(l.balances)
	views := make([]settlementView, len(transfers))
	for i, t := range transfers {
		views[i] = settlementView{
			From:   identityOf(l.users, t.From),
			To:     identityOf(l.users, t.To),
			Amount: t.Amount,
		}
	}
	return views
}

func (l *tripLedger) memberViews() []memberView {
	views := make([]memberView, len(l.members))
	for i, m := range l.members {
		u := l.users[m.UserID]
		views[i] = memberView{
			UserID:   m.UserID,
			Username: u.Username,
			Email:    u.Email,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}
	return views
}

func (l *tripLedger) paymentViews() []paymentView {
	views := make([]paymentView, len(l.payments))
	for i, p := range l.payments {
		views[i] = paymentViewOf(p, l.users)
	}
	return views
}
