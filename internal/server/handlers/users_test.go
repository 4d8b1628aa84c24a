package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

func TestMe(t *testing.T) {
	e := newEnv(t)
	user, token := e.seedUser(t, "ana")

	rec := e.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	me := decode[relationaldb.User](t, rec)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, "ana", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSearchUsers(t *testing.T) {
	e := newEnv(t)
	_, token := e.seedUser(t, "ana")
	e.seedUser(t, "anders")
	e.seedUser(t, "bob")

	rec := e.do(t, http.MethodGet, "/users/search?q=an", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := decode[[]relationaldb.User](t, rec)
	require.Len(t, results, 2)
	assert.Equal(t, "ana", results[0].Username)
	assert.Equal(t, "anders", results[1].Username)

	rec = e.do(t, http.MethodGet, "/users/search?q=zzz", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestSearchUsersRequiresQuery(t *testing.T) {
	e := newEnv(t)
	_, token := e.seedUser(t, "ana")

	rec := e.do(t, http.MethodGet, "/users/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/users/search?q=%20%20", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
