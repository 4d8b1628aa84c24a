package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// activityLimit caps the feed at the newest events across all of the
// caller's trips.
const activityLimit = 30

// ActivityHandler serves the cross-trip activity feed.
type ActivityHandler struct {
	store relationaldb.RepositoryManager
}

func NewActivityHandler(store relationaldb.RepositoryManager) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// Feed merges recent expenses and payments from every trip the caller
// belongs to into one stream, newest first.
func (h *ActivityHandler) Feed(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	ctx := c.Request.Context()

	expenses, err := h.store.Expenses().ListRecentByUser(ctx, userID, activityLimit)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	payments, err := h.store.Payments().ListRecentByUser(ctx, userID, activityLimit)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	idSet := make(map[uuid.UUID]struct{}, len(expenses)+len(payments)*2)
	for _, e := range expenses {
		idSet[e.PaidBy] = struct{}{}
	}
	for _, p := range payments {
		idSet[p.FromUserID] = struct{}{}
		idSet[p.ToUserID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	users, err := h.store.Users().GetUsersByIDs(ctx, ids)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	events := make([]activityEvent, 0, len(expenses)+len(payments))
	for _, e := range expenses {
		expenseID := e.ID
		paidBy := identityOf(users, e.PaidBy)
		events = append(events, activityEvent{
			Type:      activityExpense,
			TripID:    e.TripID,
			Amount:    e.Total,
			CreatedAt: e.CreatedAt,
			ExpenseID: &expenseID,
			Title:     e.Title,
			PaidBy:    &paidBy,
		})
	}
	for _, p := range payments {
		paymentID := p.ID
		from := identityOf(users, p.FromUserID)
		to := identityOf(users, p.ToUserID)
		events = append(events, activityEvent{
			Type:      activityPayment,
			TripID:    p.TripID,
			Amount:    p.Amount,
			CreatedAt: p.CreatedAt,
			PaymentID: &paymentID,
			From:      &from,
			To:        &to,
			Method:    p.Method,
			Status:    string(p.Status),
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if len(events) > activityLimit {
		events = events[:activityLimit]
	}

	c.JSON(http.StatusOK, events)
}
