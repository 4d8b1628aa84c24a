package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsplit/tripsplitd/internal/config"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// stubStore satisfies RepositoryManager for wiring tests. Route registration
// only asks for the user repository; none of the requests below reach a
// repository method.
type stubStore struct {
	relationaldb.RepositoryManager
}

func (stubStore) Users() relationaldb.UserRepository { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			Mode:            gin.TestMode,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret: "0123456789abcdef0123456789abcdef",
			TokenTTL:  time.Hour,
		},
	}
}

func TestNewRegistersRoutes(t *testing.T) {
	srv, err := New(testConfig(), stubStore{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"tripsplitd"}`, rec.Body.String())

	// Protected routes demand a token before touching the store.
	rec = httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/activity", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	srv.http.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRejectsBadTrustedProxies(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"not-an-ip"}

	_, err := New(cfg, stubStore{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trusted_proxies")
}
