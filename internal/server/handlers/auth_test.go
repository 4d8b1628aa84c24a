package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email":    "  Ana@Example.com ",
		"username": "ana",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[relationaldb.User](t, rec)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, "ana", created.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = e.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	login := decode[struct {
		Token string            `json:"token"`
		User  relationaldb.User `json:"user"`
	}](t, rec)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, created.ID, login.User.ID)

	rec = e.do(t, http.MethodGet, "/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[relationaldb.User](t, rec)
	assert.Equal(t, created.ID, me.ID)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name string
		body gin.H
	}{
		{"bad email", gin.H{"email": "not-an-email", "username": "ana", "password": testPassword}},
		{"short username", gin.H{"email": "ana@example.com", "username": "an", "password": testPassword}},
		{"username with spaces", gin.H{"email": "ana@example.com", "username": "ana banana", "password": testPassword}},
		{"short password", gin.H{"email": "ana@example.com", "username": "ana", "password": "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/auth/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "BAD_REQUEST", errorCode(t, rec))
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "ana")

	rec := e.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email":    "ana@example.com",
		"username": "somebody",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "USER_EXISTS", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email":    "other@example.com",
		"username": "ana",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USER_EXISTS", errorCode(t, rec))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "ana")

	rec := e.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	// Unknown emails answer identically so accounts cannot be enumerated.
	rec = e.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "nobody@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}
