package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/money"
	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

const maxDeclineNoteLength = 200

// PaymentsHandler drives the peer-to-peer settlement lifecycle: record a
// pending payment, then confirm, decline or withdraw it.
type PaymentsHandler struct {
	store relationaldb.RepositoryManager
}

func NewPaymentsHandler(store relationaldb.RepositoryManager) *PaymentsHandler {
	return &PaymentsHandler{store: store}
}

type createPaymentRequest struct {
	ToUserID   *uuid.UUID  `json:"toUserId"`
	ToUsername string      `json:"toUsername"`
	Amount     money.Cents `json:"amount"`
	Method     string      `json:"method"`
}

// Create records a pending payment from the caller to another member of the
// trip. The recipient can be named by id or by username.
func (h *PaymentsHandler) Create(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := requireMembership(c, h.store.Trips(), tripID, userID); !ok {
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}

	ctx := c.Request.Context()
	var recipient *relationaldb.User
	var err error
	switch {
	case req.ToUserID != nil:
		recipient, err = h.store.Users().GetUserByID(ctx, *req.ToUserID)
	case strings.TrimSpace(req.ToUsername) != "":
		recipient, err = h.store.Users().GetUserByUsername(ctx, strings.TrimSpace(req.ToUsername))
	default:
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("toUserId or toUsername is required"))
		return
	}
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUserNotFound: apierrors.ErrUserNotFound,
		}))
		return
	}

	if recipient.ID == userID {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("cannot pay yourself"))
		return
	}
	if req.Amount <= 0 {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("payment amount must be positive"))
		return
	}
	if req.Amount > money.MaxAmount {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("payment amount exceeds the supported maximum"))
		return
	}
	isMember, err := h.store.Trips().IsMember(ctx, tripID, recipient.ID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if !isMember {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("recipient is not a trip member"))
		return
	}

	payment := &relationaldb.Payment{
		ID:         uuid.New(),
		TripID:     tripID,
		FromUserID: userID,
		ToUserID:   recipient.ID,
		Amount:     req.Amount,
		Method:     strings.TrimSpace(req.Method),
		Status:     relationaldb.PaymentStatusPending,
	}
	if err := h.store.Payments().CreatePayment(ctx, payment); err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// Confirm marks a pending payment as received. Only the receiver may confirm.
func (h *PaymentsHandler) Confirm(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	paymentID, ok := pathID(c)
	if !ok {
		return
	}
	payment, ok := h.loadVisible(c, paymentID, userID)
	if !ok {
		return
	}
	if payment.ToUserID != userID {
		apierrors.Send(c, apierrors.ErrForbidden.Msg("only the payment receiver can confirm"))
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Payments().TransitionStatus(ctx, paymentID, relationaldb.PaymentStatusConfirmed, ""); err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	updated, err := h.store.Payments().GetPaymentByID(ctx, paymentID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	c.JSON(http.StatusOK, updated)
}

type declinePaymentRequest struct {
	Note string `json:"note"`
}

// Decline rejects a pending payment, optionally with a short note for the
// sender. Only the receiver may decline. The body is optional.
func (h *PaymentsHandler) Decline(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	paymentID, ok := pathID(c)
	if !ok {
		return
	}

	var req declinePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}
	req.Note = strings.TrimSpace(req.Note)
	if len(req.Note) > maxDeclineNoteLength {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("decline note must be 200 characters or fewer"))
		return
	}

	payment, ok := h.loadVisible(c, paymentID, userID)
	if !ok {
		return
	}
	if payment.ToUserID != userID {
		apierrors.Send(c, apierrors.ErrForbidden.Msg("only the payment receiver can decline"))
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Payments().TransitionStatus(ctx, paymentID, relationaldb.PaymentStatusDeclined, req.Note); err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	updated, err := h.store.Payments().GetPaymentByID(ctx, paymentID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete withdraws a payment. Only its creator may delete it, and only while
// it is still pending.
func (h *PaymentsHandler) Delete(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	paymentID, ok := pathID(c)
	if !ok {
		return
	}
	payment, ok := h.loadVisible(c, paymentID, userID)
	if !ok {
		return
	}
	if payment.FromUserID != userID {
		apierrors.Send(c, apierrors.ErrForbidden.Msg("only the payment creator can delete"))
		return
	}

	if err := h.store.Payments().DeletePending(c.Request.Context(), paymentID, userID); err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrPaymentNotPending: apierrors.ErrNotPending.Msg("only pending payments can be deleted"),
		}))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Pending lists the payments waiting on the caller to confirm or decline,
// newest first.
func (h *PaymentsHandler) Pending(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	ctx := c.Request.Context()
	payments, err := h.store.Payments().ListPendingByReceiver(ctx, userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	ids := make([]uuid.UUID, 0, len(payments)*2)
	for _, p := range payments {
		ids = append(ids, p.FromUserID, p.ToUserID)
	}
	users, err := h.store.Users().GetUsersByIDs(ctx, ids)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	views := make([]paymentView, len(payments))
	for i, p := range payments {
		views[i] = paymentViewOf(p, users)
	}
	c.JSON(http.StatusOK, views)
}

// loadVisible fetches a payment the caller is allowed to see: its sender,
// its receiver, or any member of its trip. Anyone else gets the same 404 as
// a payment that does not exist.
func (h *PaymentsHandler) loadVisible(c *gin.Context, paymentID, userID uuid.UUID) (*relationaldb.Payment, bool) {
	payment, err := h.store.Payments().GetPaymentByID(c.Request.Context(), paymentID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrPaymentNotFound: apierrors.ErrPaymentNotFound,
		}))
		return nil, false
	}

	if payment.FromUserID == userID || payment.ToUserID == userID {
		return payment, true
	}
	isMember, err := h.store.Trips().IsMember(c.Request.Context(), payment.TripID, userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return nil, false
	}
	if !isMember {
		apierrors.Send(c, apierrors.ErrPaymentNotFound)
		return nil, false
	}
	return payment, true
}
