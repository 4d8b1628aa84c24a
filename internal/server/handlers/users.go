package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// searchLimit caps username/email search results.
const searchLimit = 10

// UsersHandler serves identity lookups.
type UsersHandler struct {
	store relationaldb.RepositoryManager
}

func NewUsersHandler(store relationaldb.RepositoryManager) *UsersHandler {
	return &UsersHandler{store: store}
}

// Me returns the caller's own user row.
func (h *UsersHandler) Me(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	user, err := h.store.Users().GetUserByID(c.Request.Context(), userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUserNotFound: apierrors.ErrUserNotFound,
		}))
		return
	}
	c.JSON(http.StatusOK, user)
}

// Search finds users by username or email prefix for invite pickers.
func (h *UsersHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("query parameter q is required"))
		return
	}

	users, err := h.store.Users().SearchUsers(c.Request.Context(), query, searchLimit)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return
	}
	if users == nil {
		users = []relationaldb.User{}
	}
	c.JSON(http.StatusOK, users)
}
