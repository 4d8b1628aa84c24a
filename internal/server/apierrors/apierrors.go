// Package apierrors is the wire-level error vocabulary of the HTTP API.
// Every error response carries a stable machine-readable code next to the
// HTTP status and a human-readable message. Handlers pick values from the
// catalog below and refine the message per request with Msg; MapError
// translates store errors into catalog entries.
package apierrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError is one API error. The struct marshals directly into the response
// body: {"error": ..., "code": ..., "details"?}.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Msg returns a copy with the message replaced, keeping status and code.
func (e *AppError) Msg(message string) *AppError {
	clone := *e
	clone.Message = message
	return &clone
}

// WithDetails returns a copy carrying extra context for the client.
func (e *AppError) WithDetails(details string) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// New builds a catalog entry.
func New(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

var (
	// 400
	ErrBadRequest = New(http.StatusBadRequest, "BAD_REQUEST", "invalid request body")

	// 401
	ErrUnauthorized       = New(http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrInvalidToken       = New(http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")

	// 403
	ErrForbidden = New(http.StatusForbidden, "NO_PERMISSIONS", "you do not have permission to perform this action")

	// 404
	ErrNotFound        = New(http.StatusNotFound, "NOT_FOUND", "resource not found")
	ErrTripNotFound    = New(http.StatusNotFound, "TRIP_NOT_FOUND", "trip not found")
	ErrUserNotFound    = New(http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	ErrExpenseNotFound = New(http.StatusNotFound, "EXPENSE_NOT_FOUND", "expense not found")
	ErrPaymentNotFound = New(http.StatusNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	ErrInviteNotFound  = New(http.StatusNotFound, "INVITE_NOT_FOUND", "invite not found")
	ErrFriendNotFound  = New(http.StatusNotFound, "FRIEND_NOT_FOUND", "friendship not found")

	// 409
	ErrConflict        = New(http.StatusConflict, "CONFLICT", "request conflicts with existing state")
	ErrUserExists      = New(http.StatusConflict, "USER_EXISTS", "email or username already registered")
	ErrAlreadyMember   = New(http.StatusConflict, "ALREADY_MEMBER", "user is already a trip member")
	ErrDuplicateInvite = New(http.StatusConflict, "DUPLICATE_INVITE", "a pending invite already exists")
	ErrAlreadyFriends  = New(http.StatusConflict, "ALREADY_FRIENDS", "users are already friends")
	ErrNotPending      = New(http.StatusConflict, "NOT_PENDING", "no longer pending")

	// 5xx
	ErrUnavailable = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service temporarily unavailable")
	ErrInternal    = New(http.StatusInternalServerError, "INTERNAL", "internal server error")
)

// Send writes the error response and aborts the request chain.
func Send(c *gin.Context, appErr *AppError) {
	c.AbortWithStatusJSON(appErr.Status, appErr)
}
