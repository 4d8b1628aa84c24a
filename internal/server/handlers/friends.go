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

// FriendsHandler manages the friends list and friend requests.
type FriendsHandler struct {
	store relationaldb.RepositoryManager
}

func NewFriendsHandler(store relationaldb.RepositoryManager) *FriendsHandler {
	return &FriendsHandler{store: store}
}

// List returns the caller's friends with when each friendship started.
func (h *FriendsHandler) List(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	ctx := c.Request.Context()
	friends, err := h.store.Friends().ListFriends(ctx, userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	ids := make([]uuid.UUID, len(friends))
	for i, f := range friends {
		ids[i] = f.FriendID
	}
	users, err := h.store.Users().GetUsersByIDs(ctx, ids)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	views := make([]friendView, len(friends))
	for i, f := range friends {
		u := users[f.FriendID]
		views[i] = friendView{
			UserID:       f.FriendID,
			Username:     u.Username,
			Email:        u.Email,
			FriendsSince: f.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, views)
}

type friendRequestBody struct {
	Username string `json:"username"`
}

// Request sends a friend request by username. If the target already has a
// pending request to the caller, the two requests meet in the middle: the
// existing invite is accepted and the friendship created, instead of leaving
// two crossing invites.
func (h *FriendsHandler) Request(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req friendRequestBody
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
	target, err := h.store.Users().GetUserByUsername(ctx, req.Username)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUserNotFound: apierrors.ErrUserNotFound,
		}))
		return
	}
	if target.ID == userID {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("cannot friend yourself"))
		return
	}

	areFriends, err := h.store.Friends().AreFriends(ctx, userID, target.ID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if areFriends {
		apierrors.Send(c, apierrors.ErrAlreadyFriends)
		return
	}

	reverse, err := h.store.Friends().GetPendingFriendInvite(ctx, target.ID, userID)
	if err != nil && !relationaldb.IsNotFound(err) {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if reverse != nil {
		err := h.store.WithTransaction(ctx, func(tx relationaldb.TransactionContext) error {
			if err := tx.Friends().UpdateFriendInviteStatus(ctx, reverse.ID, relationaldb.InviteStatusAccepted); err != nil {
				return err
			}
			return tx.Friends().CreateFriendship(ctx, userID, target.ID)
		})
		if err != nil {
			apierrors.Send(c, apierrors.MapError(err, nil))
			return
		}
		updated, err := h.store.Friends().GetFriendInviteByID(ctx, reverse.ID)
		if err != nil {
			apierrors.Send(c, apierrors.MapError(err, nil))
			return
		}
		c.JSON(http.StatusOK, updated)
		return
	}

	if _, err := h.store.Friends().GetPendingFriendInvite(ctx, userID, target.ID); err == nil {
		apierrors.Send(c, apierrors.ErrDuplicateInvite)
		return
	} else if !relationaldb.IsNotFound(err) {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	invite := &relationaldb.FriendInvite{
		ID:         uuid.New(),
		SenderID:   userID,
		ReceiverID: target.ID,
		Status:     relationaldb.InviteStatusPending,
	}
	if err := h.store.Friends().CreateFriendInvite(ctx, invite); err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUniqueViolation: apierrors.ErrDuplicateInvite,
		}))
		return
	}

	c.JSON(http.StatusCreated, invite)
}

// Delete removes a friendship. The path id is the friend's user id.
func (h *FriendsHandler) Delete(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	friendID, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	areFriends, err := h.store.Friends().AreFriends(ctx, userID, friendID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if !areFriends {
		apierrors.Send(c, apierrors.ErrFriendNotFound)
		return
	}

	if err := h.store.Friends().DeleteFriendship(ctx, userID, friendID); err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListInvites returns the friend requests waiting on the caller.
func (h *FriendsHandler) ListInvites(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	ctx := c.Request.Context()
	invites, err := h.store.Friends().ListFriendInvitesByReceiver(ctx, userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	senderIDs := make([]uuid.UUID, len(invites))
	for i, inv := range invites {
		senderIDs[i] = inv.SenderID
	}
	users, err := h.store.Users().GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	views := make([]friendInviteView, len(invites))
	for i, inv := range invites {
		views[i] = friendInviteView{
			FriendInvite:   inv,
			SenderUsername: users[inv.SenderID].Username,
		}
	}
	c.JSON(http.StatusOK, views)
}

// Accept confirms a friend request. The invite flips to accepted and both
// friendship rows land in the same transaction.
func (h *FriendsHandler) Accept(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	inviteID, ok := pathID(c)
	if !ok {
		return
	}
	invite, ok := h.loadForReceiver(c, inviteID, userID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	err := h.store.WithTransaction(ctx, func(tx relationaldb.TransactionContext) error {
		if err := tx.Friends().UpdateFriendInviteStatus(ctx, inviteID, relationaldb.InviteStatusAccepted); err != nil {
			return err
		}
		return tx.Friends().CreateFriendship(ctx, invite.ReceiverID, invite.SenderID)
	})
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUniqueViolation: apierrors.ErrAlreadyFriends,
		}))
		return
	}

	updated, err := h.store.Friends().GetFriendInviteByID(ctx, inviteID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Decline turns a friend request down.
func (h *FriendsHandler) Decline(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	inviteID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := h.loadForReceiver(c, inviteID, userID); !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Friends().UpdateFriendInviteStatus(ctx, inviteID, relationaldb.InviteStatusDeclined); err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}

	updated, err := h.store.Friends().GetFriendInviteByID(ctx, inviteID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// loadForReceiver fetches a friend invite that only its receiver may act on.
// The sender sees a 403, everyone else the same 404 as a missing invite.
func (h *FriendsHandler) loadForReceiver(c *gin.Context, inviteID, userID uuid.UUID) (*relationaldb.FriendInvite, bool) {
	invite, err := h.store.Friends().GetFriendInviteByID(c.Request.Context(), inviteID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrInviteNotFound: apierrors.ErrInviteNotFound,
		}))
		return nil, false
	}

	if invite.ReceiverID != userID {
		if invite.SenderID == userID {
			apierrors.Send(c, apierrors.ErrForbidden.Msg("only the receiver can respond to a friend request"))
		} else {
			apierrors.Send(c, apierrors.ErrInviteNotFound)
		}
		return nil, false
	}
	return invite, true
}
