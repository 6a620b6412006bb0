package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPersist = errors.New("disk full")

func newTokenServer(t *testing.T, calls *int32, accessToken string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", username)
		assert.Equal(t, "client-secret", password)

		err := r.ParseForm()
		assert.NoError(t, err)
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Token{
			AccessToken: accessToken,
			ExpiresIn:   3600,
			TokenType:   "bearer",
		})
	}))
}

func TestOAuth2TokenManager_GetToken(t *testing.T) {
	t.Run("returns existing valid token", func(t *testing.T) {
		manager := NewOAuth2TokenManager(&OAuth2Config{
			AccessToken: "existing-token",
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "existing-token", token)
	})

	t.Run("uses client credentials when no token is stored", func(t *testing.T) {
		var calls int32

		server := newTokenServer(t, &calls, "client-token")
		defer server.Close()

		manager := NewOAuth2TokenManager(&OAuth2Config{
			TokenURL:     server.URL + "/oauth2/token",
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "client-token", token)

		// A second call reuses the cached token.
		token, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "client-token", token)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("renews expired token", func(t *testing.T) {
		var calls int32

		server := newTokenServer(t, &calls, "fresh-token")
		defer server.Close()

		manager := NewOAuth2TokenManager(&OAuth2Config{
			TokenURL:     server.URL + "/oauth2/token",
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			AccessToken:  "expired-token",
			ExpiresAt:    time.Now().Add(-time.Hour),
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", token)
	})

	t.Run("surfaces token endpoint errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
		}))
		defer server.Close()

		manager := NewOAuth2TokenManager(&OAuth2Config{
			TokenURL:     server.URL + "/oauth2/token",
			ClientID:     "client-id",
			ClientSecret: "wrong",
		})

		_, err := manager.GetToken(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client credentials")
	})
}

func TestOAuth2TokenManager_SetToken(t *testing.T) {
	manager := NewOAuth2TokenManager(&OAuth2Config{})
	expiresAt := time.Now().Add(time.Hour)

	manager.SetToken("manual-token", expiresAt)

	stored := manager.Current()
	require.NotNil(t, stored)
	assert.Equal(t, "manual-token", stored.AccessToken)
	assert.Equal(t, expiresAt, stored.ExpiresAt)
}

type recordingPersister struct {
	tenant string
	tokens []string
	err    error
}

func (p *recordingPersister) UpdateToken(tenant, token string, expiresAt time.Time) error {
	p.tenant = tenant
	p.tokens = append(p.tokens, token)

	return p.err
}

func TestConfigTokenManager_PersistsNewTokens(t *testing.T) {
	var calls int32

	server := newTokenServer(t, &calls, "persisted-token")
	defer server.Close()

	persister := &recordingPersister{}
	manager := NewConfigTokenManager(&OAuth2Config{
		TokenURL:     server.URL + "/oauth2/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, persister, "workspace1", nil)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted-token", token)

	_, err = manager.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "workspace1", persister.tenant)
	assert.Equal(t, []string{"persisted-token"}, persister.tokens)
}

func TestConfigTokenManager_ReportsPersistErrors(t *testing.T) {
	var calls int32

	server := newTokenServer(t, &calls, "token")
	defer server.Close()

	var reported error

	manager := NewConfigTokenManager(&OAuth2Config{
		TokenURL:     server.URL + "/oauth2/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, &recordingPersister{err: errPersist}, "workspace1", func(err error) { reported = err })

	_, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, reported, errPersist)
}

func TestConfigTokenManager_NoPersister(t *testing.T) {
	var calls int32

	server := newTokenServer(t, &calls, "token")
	defer server.Close()

	var reported error

	manager := NewConfigTokenManager(&OAuth2Config{
		TokenURL:     server.URL + "/oauth2/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, nil, "workspace1", func(err error) { reported = err })

	_, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, reported, ErrNoConfigPersister)
}
