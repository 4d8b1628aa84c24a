package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/auth"
	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	store      relationaldb.RepositoryManager
	issuer     *auth.Issuer
	bcryptCost int
}

func NewAuthHandler(store relationaldb.RepositoryManager, issuer *auth.Issuer, bcryptCost int) *AuthHandler {
	return &AuthHandler{store: store, issuer: issuer, bcryptCost: bcryptCost}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and returns the public user projection.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if err := auth.ValidateEmail(req.Email); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg(err.Error()))
		return
	}
	if err := auth.ValidateUsername(req.Username); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg(err.Error()))
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg(err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		apierrors.Send(c, apierrors.ErrInternal)
		return
	}

	user := &relationaldb.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := h.store.Users().CreateUser(c.Request.Context(), user); err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrUniqueViolation: apierrors.ErrUserExists,
		}))
		return
	}

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords produce the same response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.Users().GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		if relationaldb.IsNotFound(err) {
			apierrors.Send(c, apierrors.ErrInvalidCredentials)
		} else {
			apierrors.Send(c, apierrors.MapError(err, nil))
		}
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		apierrors.Send(c, apierrors.ErrInvalidCredentials)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		apierrors.Send(c, apierrors.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
