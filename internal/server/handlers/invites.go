package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// InvitesHandler manages trip invites: any member can invite a user by
// username, and the invitee accepts or declines from their inbox.
type InvitesHandler struct {
	store relationaldb.RepositoryManager
}

func NewInvitesHandler(store relationaldb.RepositoryManager) *InvitesHandler {
	return &InvitesHandler{store: store}
}

type createInviteRequest struct {
	Username string `json:"username"`
}

// Create invites a user to the trip by username.
func (h *InvitesHandler) Create(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := requireMembership(c, h.store.Trips(), tripID, userID); !ok {
		return
	}

	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("username is required"))
		return
	}

	ctx := c.Request.Context()
	invitee, err := h.store.Users().GetUserByUsername(ctx, req.Username)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUserNotFound: apierrors.ErrUserNotFound,
		}))
		return
	}

	isMember, err := h.store.Trips().IsMember(ctx, tripID, invitee.ID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if isMember {
		apierrors.Send(c, apierrors.ErrAlreadyMember)
		return
	}
	pending, err := h.store.Trips().HasPendingInvite(ctx, tripID, invitee.ID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if pending {
		apierrors.Send(c, apierrors.ErrDuplicateInvite)
		return
	}

	invite := &relationaldb.TripInvite{
		ID:        uuid.New(),
		TripID:    tripID,
		InviterID: userID,
		InviteeID: invitee.ID,
		Status:    relationaldb.InviteStatusPending,
	}
	if err := h.store.Trips().CreateInvite(ctx, invite); err != nil {
		// A concurrent duplicate slips past the pre-check and lands on the
		// unique index instead.
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUniqueViolation: apierrors.ErrDuplicateInvite,
		}))
		return
	}

	c.JSON(http.StatusCreated, invite)
}

// List returns the caller's pending trip invites with the trip name and
// inviter attached.
func (h *InvitesHandler) List(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	ctx := c.Request.Context()
	invites, err := h.store.Trips().ListInvitesByInvitee(ctx, userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	inviterIDs := make([]uuid.UUID, len(invites))
	for i, inv := range invites {
		inviterIDs[i] = inv.InviterID
	}
	users, err := h.store.Users().GetUsersByIDs(ctx, inviterIDs)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	views := make([]inviteView, len(invites))
	for i, inv := range invites {
		views[i] = inviteView{
			TripInvite:      inv,
			InviterUsername: users[inv.InviterID].Username,
		}
		trip, err := h.store.Trips().GetTripByID(ctx, inv.TripID)
		if err != nil {
			apierrors.Send(c, apierrors.MapError(err, nil))
			return
		}
		views[i].TripName = trip.Name
	}

	c.JSON(http.StatusOK, views)
}

// Accept joins the caller to the trip. The invite flips to accepted and the
// membership row lands in the same transaction.
func (h *InvitesHandler) Accept(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	inviteID, ok := pathID(c)
	if !ok {
		return
	}
	invite, ok := h.loadForInvitee(c, inviteID, userID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	err := h.store.WithTransaction(ctx, func(tx relationaldb.TransactionContext) error {
		if err := tx.Trips().UpdateInviteStatus(ctx, inviteID, relationaldb.InviteStatusAccepted); err != nil {
			return err
		}
		return tx.Trips().AddMember(ctx, &relationaldb.TripMember{
			TripID: invite.TripID,
			UserID: userID,
			Role:   relationaldb.RoleMember,
		})
	})
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUniqueViolation: apierrors.ErrAlreadyMember,
		}))
		return
	}

	updated, err := h.store.Trips().GetInviteByID(ctx, inviteID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Decline turns the invite down without joining the trip.
func (h *InvitesHandler) Decline(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	inviteID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := h.loadForInvitee(c, inviteID, userID); !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Trips().UpdateInviteStatus(ctx, inviteID, relationaldb.InviteStatusDeclined); err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	updated, err := h.store.Trips().GetInviteByID(ctx, inviteID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// loadForInvitee fetches an invite that only its invitee may act on. The
// inviter sees a 403, everyone else the same 404 as a missing invite.
func (h *InvitesHandler) loadForInvitee(c *gin.Context, inviteID, userID uuid.UUID) (*relationaldb.TripInvite, bool) {
	invite, err := h.store.Trips().GetInviteByID(c.Request.Context(), inviteID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrInviteNotFound: apierrors.ErrInviteNotFound,
		}))
		return nil, false
	}

	if invite.InviteeID != userID {
		if invite.InviterID == userID {
			apierrors.Send(c, apierrors.ErrForbidden.Msg("only the invitee can respond to an invite"))
		} else {
			apierrors.Send(c, apierrors.ErrInviteNotFound)
		}
		return nil, false
	}
	return invite, true
}
