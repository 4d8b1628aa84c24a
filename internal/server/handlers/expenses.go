package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/core/expense"
	"github.com/tripsplit/tripsplitd/internal/money"
	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// ExpensesHandler records expenses against a trip and lists them back with
// their items and splits.
type ExpensesHandler struct {
	store relationaldb.RepositoryManager
}

func NewExpensesHandler(store relationaldb.RepositoryManager) *ExpensesHandler {
	return &ExpensesHandler{store: store}
}

type expenseSplitRequest struct {
	UserID uuid.UUID   `json:"userId"`
	Share  money.Cents `json:"share"`
}

type expenseItemRequest struct {
	Name            string      `json:"name"`
	Price           money.Cents `json:"price"`
	AssignedUserIDs []uuid.UUID `json:"assignedUserIds"`
}

type expenseTipRequest struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type createExpenseRequest struct {
	Title  string                `json:"title"`
	Amount money.Cents           `json:"amount"`
	Splits []expenseSplitRequest `json:"splits"`
	Items  []expenseItemRequest  `json:"items"`
	Tax    money.Cents           `json:"tax"`
	Tip    *expenseTipRequest    `json:"tip"`
}

// Create records an expense paid by the caller. Items make it itemized,
// splits make it simple; a payload carrying both shapes is rejected. The
// expense row and all child rows commit together.
func (h *ExpensesHandler) Create(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := requireMembership(c, h.store.Trips(), tripID, userID); !ok {
		return
	}

	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}

	itemized := len(req.Items) > 0
	if itemized && (req.Amount != 0 || len(req.Splits) > 0) {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("provide either items or splits, not both"))
		return
	}

	ctx := c.Request.Context()
	members, err := h.store.Trips().ListMembers(ctx, tripID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	memberSet := memberIDSet(members)

	var comp *expense.Computation
	if itemized {
		for _, item := range req.Items {
			for _, assignee := range item.AssignedUserIDs {
				if _, member := memberSet[assignee]; !member {
					apierrors.Send(c, apierrors.ErrBadRequest.Msg(fmt.Sprintf("user %s is not a trip member", assignee)))
					return
				}
			}
		}
		in := expense.ItemizedInput{
			Title: req.Title,
			Items: make([]expense.ItemInput, len(req.Items)),
			Tax:   req.Tax,
		}
		if req.Tip != nil {
			in.Tip = expense.TipInput{Type: req.Tip.Type, Value: req.Tip.Value}
		}
		for i, item := range req.Items {
			in.Items[i] = expense.ItemInput{
				Name:      strings.TrimSpace(item.Name),
				Price:     item.Price,
				Assignees: item.AssignedUserIDs,
			}
		}
		comp, err = expense.ComputeItemized(in)
	} else {
		for _, s := range req.Splits {
			if _, member := memberSet[s.UserID]; !member {
				apierrors.Send(c, apierrors.ErrBadRequest.Msg(fmt.Sprintf("user %s is not a trip member", s.UserID)))
				return
			}
		}
		in := expense.SimpleInput{
			Title:  req.Title,
			Amount: req.Amount,
			Splits: make([]expense.SplitInput, len(req.Splits)),
		}
		for i, s := range req.Splits {
			in.Splits[i] = expense.SplitInput{UserID: s.UserID, Share: s.Share}
		}
		comp, err = expense.ComputeSimple(in)
	}
	if err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg(err.Error()))
		return
	}

	exp := &relationaldb.Expense{
		ID:       uuid.New(),
		TripID:   tripID,
		PaidBy:   userID,
		Title:    strings.TrimSpace(req.Title),
		Amount:   comp.Total,
		Subtotal: comp.Subtotal,
		Tax:      comp.Tax,
		Tip:      comp.Tip,
		Total:    comp.Total,
	}
	items := make([]relationaldb.ExpenseItem, len(req.Items))
	var assignments []relationaldb.ExpenseItemAssignment
	for i, item := range req.Items {
		items[i] = relationaldb.ExpenseItem{
			ID:        uuid.New(),
			ExpenseID: exp.ID,
			Name:      strings.TrimSpace(item.Name),
			Price:     item.Price,
			Position:  i,
		}
		for _, assignee := range item.AssignedUserIDs {
			assignments = append(assignments, relationaldb.ExpenseItemAssignment{
				ItemID: items[i].ID,
				UserID: assignee,
			})
		}
	}
	splits := make([]relationaldb.ExpenseSplit, len(comp.Shares))
	for i, share := range comp.Shares {
		splits[i] = relationaldb.ExpenseSplit{
			ExpenseID: exp.ID,
			UserID:    share.UserID,
			Share:     share.Amount,
		}
	}

	err = h.store.WithTransaction(ctx, func(tx relationaldb.TransactionContext) error {
		if err := tx.Expenses().CreateExpense(ctx, exp); err != nil {
			return err
		}
		for i := range items {
			if err := tx.Expenses().CreateExpenseItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		for i := range assignments {
			if err := tx.Expenses().CreateItemAssignment(ctx, &assignments[i]); err != nil {
				return err
			}
		}
		for i := range splits {
			if err := tx.Expenses().CreateSplit(ctx, &splits[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	c.JSON(http.StatusCreated, relationaldb.ExpenseDetails{
		Expense: *exp,
		Items:   items,
		Splits:  splits,
	})
}

// ListByTrip returns a trip's expenses newest first, each with its items and
// splits.
func (h *ExpensesHandler) ListByTrip(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := requireMembership(c, h.store.Trips(), tripID, userID); !ok {
		return
	}

	ctx := c.Request.Context()
	expenses, err := h.store.Expenses().ListExpensesByTrip(ctx, tripID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	splits, err := h.store.Expenses().ListSplitsByTrip(ctx, tripID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	details, err := assembleExpenseDetails(ctx, h.store.Expenses(), expenses, splits)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	c.JSON(http.StatusOK, details)
}

// assembleExpenseDetails joins expenses with their items and splits. Items
// are fetched per expense; splits arrive trip-wide and are grouped here.
func assembleExpenseDetails(ctx context.Context, repo relationaldb.ExpenseRepository, expenses []relationaldb.Expense, splits []relationaldb.ExpenseSplit) ([]relationaldb.ExpenseDetails, error) {
	splitsByExpense := make(map[uuid.UUID][]relationaldb.ExpenseSplit, len(expenses))
	for _, s := range splits {
		splitsByExpense[s.ExpenseID] = append(splitsByExpense[s.ExpenseID], s)
	}

	details := make([]relationaldb.ExpenseDetails, len(expenses))
	for i, e := range expenses {
		items, err := repo.ListItemsByExpense(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		expenseSplits := splitsByExpense[e.ID]
		if expenseSplits == nil {
			expenseSplits = []relationaldb.ExpenseSplit{}
		}
		details[i] = relationaldb.ExpenseDetails{
			Expense: e,
			Items:   items,
			Splits:  expenseSplits,
		}
	}
	return details, nil
}
