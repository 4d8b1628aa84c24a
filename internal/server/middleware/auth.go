// Package middleware carries the gin middleware shared by all authenticated
// routes, chiefly the bearer-token gate.
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tripsplit/tripsplitd/internal/auth"
	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// userIDKey is the gin context key the gate stores the caller identity under.
const userIDKey = "auth.userID"

// The identity cache skips signature verification and the user lookup for
// tokens seen recently. Entries expire on their own, so a token never
// outlives its JWT expiry by more than the cache TTL.
const (
	identityCacheSize = 4096
	identityCacheTTL  = time.Minute
)

// RequireAuth returns the bearer-token gate. It extracts the Authorization
// header, verifies the token, confirms the subject still exists, and stores
// the caller's user id in the request context. Unauthenticated requests are
// aborted with 401.
func RequireAuth(issuer *auth.Issuer, users relationaldb.UserRepository) gin.HandlerFunc {
	cache := expirable.NewLRU[string, uuid.UUID](identityCacheSize, nil, identityCacheTTL)

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Send(c, apierrors.ErrUnauthorized)
			return
		}

		if userID, hit := cache.Get(token); hit {
			c.Set(userIDKey, userID)
			c.Next()
			return
		}

		userID, err := issuer.Verify(token)
		if err != nil {
			apierrors.Send(c, apierrors.ErrInvalidToken)
			return
		}

		// A valid signature is not enough: the account may be gone.
		if _, err := users.GetUserByID(c.Request.Context(), userID); err != nil {
			if relationaldb.IsNotFound(err) {
				apierrors.Send(c, apierrors.ErrInvalidToken)
			} else {
				apierrors.Send(c, apierrors.MapError(err, nil))
			}
			return
		}

		cache.Add(token, userID)
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// bearerToken splits "Bearer <token>" out of an Authorization header.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// GetUserID reads the authenticated caller from the request context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}

// MustGetUserID reads the authenticated caller set by RequireAuth. Routes
// behind the gate always have one; a missing identity is a wiring bug.
func MustGetUserID(c *gin.Context) uuid.UUID {
	userID, ok := GetUserID(c)
	if !ok {
		panic("middleware: route is missing the auth gate")
	}
	return userID
}
