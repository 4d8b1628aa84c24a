package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripsplit/tripsplitd/internal/auth"
	"github.com/tripsplit/tripsplitd/internal/core/receipt"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// testPassword is hashed at bcrypt.MinCost to keep the suite fast.
const testPassword = "hunter22"

type env struct {
	store  *fakeStore
	issuer *auth.Issuer
	engine *gin.Engine
}

// newEnv builds an engine with the full route table over a fresh in-memory
// store.
func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	issuer := auth.NewIssuer(testJWTSecret, time.Hour)

	authHandler := NewAuthHandler(store, issuer, bcrypt.MinCost)
	usersHandler := NewUsersHandler(store)
	tripsHandler := NewTripsHandler(store)
	expensesHandler := NewExpensesHandler(store)
	paymentsHandler := NewPaymentsHandler(store)
	invitesHandler := NewInvitesHandler(store)
	friendsHandler := NewFriendsHandler(store)
	activityHandler := NewActivityHandler(store)
	receiptHandler := NewReceiptHandler(store, receipt.NewParser())

	engine := gin.New()
	engine.POST("/auth/register", authHandler.Register)
	engine.POST("/auth/login", authHandler.Login)

	authed := engine.Group("/", middleware.RequireAuth(issuer, store.Users()))
	authed.GET("/users/me", usersHandler.Me)
	authed.GET("/users/search", usersHandler.Search)
	authed.POST("/trips", tripsHandler.Create)
	authed.GET("/trips", tripsHandler.List)
	authed.GET("/trips/:id", tripsHandler.Get)
	authed.PATCH("/trips/:id", tripsHandler.Update)
	authed.GET("/trips/:id/balances", tripsHandler.Balances)
	authed.POST("/trips/:id/expenses", expensesHandler.Create)
	authed.GET("/trips/:id/expenses", expensesHandler.ListByTrip)
	authed.POST("/trips/:id/payments", paymentsHandler.Create)
	authed.POST("/trips/:id/members", invitesHandler.Create)
	authed.POST("/trips/:id/receipt/ocr", receiptHandler.Parse)
	authed.GET("/payments/pending", paymentsHandler.Pending)
	authed.POST("/payments/:id/confirm", paymentsHandler.Confirm)
	authed.POST("/payments/:id/decline", paymentsHandler.Decline)
	authed.DELETE("/payments/:id", paymentsHandler.Delete)
	authed.GET("/invites", invitesHandler.List)
	authed.POST("/invites/:id/accept", invitesHandler.Accept)
	authed.POST("/invites/:id/decline", invitesHandler.Decline)
	authed.GET("/friends", friendsHandler.List)
	authed.POST("/friends", friendsHandler.Request)
	authed.DELETE("/friends/:id", friendsHandler.Delete)
	authed.GET("/friends/invites", friendsHandler.ListInvites)
	authed.POST("/friends/invites/:id/accept", friendsHandler.Accept)
	authed.POST("/friends/invites/:id/decline", friendsHandler.Decline)
	authed.GET("/activity", activityHandler.Feed)

	return &env{store: store, issuer: issuer, engine: engine}
}

// do performs a request against the engine. An empty token leaves the
// Authorization header off.
func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body.Code
}

// seedUser inserts a user directly and returns it with a valid token.
func (e *env) seedUser(t *testing.T, username string) (relationaldb.User, string) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)

	user := relationaldb.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		CreatedAt:    e.store.tick(),
	}
	e.store.users[user.ID] = user

	token, err := e.issuer.Issue(user.ID)
	require.NoError(t, err)
	return user, token
}

// seedTrip inserts a trip with the owner plus any extra members.
func (e *env) seedTrip(t *testing.T, name string, owner uuid.UUID, members ...uuid.UUID) relationaldb.Trip {
	t.Helper()
	trip := relationaldb.Trip{
		ID:        uuid.New(),
		Name:      name,
		Status:    relationaldb.TripStatusActive,
		CreatedBy: owner,
		CreatedAt: e.store.tick(),
	}
	e.store.trips[trip.ID] = trip
	e.store.members = append(e.store.members, relationaldb.TripMember{
		TripID:   trip.ID,
		UserID:   owner,
		Role:     relationaldb.RoleOwner,
		JoinedAt: trip.CreatedAt,
	})
	for _, m := range members {
		e.store.members = append(e.store.members, relationaldb.TripMember{
			TripID:   trip.ID,
			UserID:   m,
			Role:     relationaldb.RoleMember,
			JoinedAt: e.store.tick(),
		})
	}
	return trip
}
