package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

func TestInviteFlow(t *testing.T) {
	e := newEnv(t)
	ana, anaToken := e.seedUser(t, "ana")
	bob, bobToken := e.seedUser(t, "bob")
	trip := e.seedTrip(t, "Lisbon", ana.ID)

	rec := e.do(t, http.MethodPost, "/trips/"+trip.ID.String()+"/members", anaToken, gin.H{
		"username": "bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	invite := decode[relationaldb.TripInvite](t, rec)
	assert.Equal(t, relationaldb.InviteStatusPending, invite.Status)
	assert.Equal(t, ana.ID, invite.InviterID)
	assert.Equal(t, bob.ID, invite.InviteeID)

	rec = e.do(t, http.MethodGet, "/invites", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	views := decode[[]inviteView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, invite.ID, views[0].ID)
	assert.Equal(t, "Lisbon", views[0].TripName)
	assert.Equal(t, "ana", views[0].InviterUsername)

	rec = e.do(t, http.MethodPost, "/invites/"+invite.ID.String()+"/accept", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[relationaldb.TripInvite](t, rec)
	assert.Equal(t, relationaldb.InviteStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	isMember, err := e.store.Trips().IsMember(context.Background(), trip.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	// Accepting twice hits the pending guard.
	rec = e.do(t, http.MethodPost, "/invites/"+invite.ID.String()+"/accept", bobToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NOT_PENDING", errorCode(t, rec))

	// The pending list no longer carries it.
	rec = e.do(t, http.MethodGet, "/invites", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestInviteRejectsDuplicatesAndMembers(t *testing.T) {
	e := newEnv(t)
	ana, anaToken := e.seedUser(t, "ana")
	bob, _ := e.seedUser(t, "bob")
	e.seedUser(t, "carol")
	trip := e.seedTrip(t, "Lisbon", ana.ID, bob.ID)
	base := "/trips/" + trip.ID.String() + "/members"

	// bob already belongs to the trip.
	rec := e.do(t, http.MethodPost, base, anaToken, gin.H{"username": "bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_MEMBER", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, base, anaToken, gin.H{"username": "carol"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, base, anaToken, gin.H{"username": "carol"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_INVITE", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, base, anaToken, gin.H{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, base, anaToken, gin.H{"username": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInviteDecline(t *testing.T) {
	e := newEnv(t)
	ana, anaToken := e.seedUser(t, "ana")
	bob, bobToken := e.seedUser(t, "bob")
	trip := e.seedTrip(t, "Lisbon", ana.ID)

	rec := e.do(t, http.MethodPost, "/trips/"+trip.ID.String()+"/members", anaToken, gin.H{
		"username": "bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	invite := decode[relationaldb.TripInvite](t, rec)

	rec = e.do(t, http.MethodPost, "/invites/"+invite.ID.String()+"/decline", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	declined := decode[relationaldb.TripInvite](t, rec)
	assert.Equal(t, relationaldb.InviteStatusDeclined, declined.Status)

	isMember, err := e.store.Trips().IsMember(context.Background(), trip.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	// Declining leaves the invitee free to be invited again.
	rec = e.do(t, http.MethodPost, "/trips/"+trip.ID.String()+"/members", anaToken, gin.H{
		"username": "bob",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestInviteOnlyInviteeResponds(t *testing.T) {
	e := newEnv(t)
	ana, anaToken := e.seedUser(t, "ana")
	_, bobToken := e.seedUser(t, "bob")
	_, strangerToken := e.seedUser(t, "carol")
	trip := e.seedTrip(t, "Lisbon", ana.ID)

	rec := e.do(t, http.MethodPost, "/trips/"+trip.ID.String()+"/members", anaToken, gin.H{
		"username": "bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	invite := decode[relationaldb.TripInvite](t, rec)

	// The inviter knows the invite exists but cannot answer for the invitee.
	rec = e.do(t, http.MethodPost, "/invites/"+invite.ID.String()+"/accept", anaToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Anyone else learns nothing.
	rec = e.do(t, http.MethodPost, "/invites/"+invite.ID.String()+"/accept", strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "INVITE_NOT_FOUND", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/invites/"+invite.ID.String()+"/accept", bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInviteRequiresMembership(t *testing.T) {
	e := newEnv(t)
	ana, _ := e.seedUser(t, "ana")
	_, strangerToken := e.seedUser(t, "carol")
	trip := e.seedTrip(t, "Lisbon", ana.ID)

	rec := e.do(t, http.MethodPost, "/trips/"+trip.ID.String()+"/members", strangerToken, gin.H{
		"username": "ana",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TRIP_NOT_FOUND", errorCode(t, rec))
}
