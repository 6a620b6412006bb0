package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Config configures the client_credentials grant.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// AccessToken seeds the manager with a token obtained earlier.
	AccessToken string
	ExpiresAt   time.Time
	// HTTPClient is used for token requests; it carries the TLS policy.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains tokens with the client_credentials grant and
// renews them when they expire.
type OAuth2TokenManager struct {
	config *clientcredentials.Config
	client *http.Client
	store  *TokenStore
}

// NewOAuth2TokenManager creates a token manager for config.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
			Scopes:       config.Scopes,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: config.HTTPClient,
		store:  NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{AccessToken: config.AccessToken, ExpiresAt: config.ExpiresAt})
	}

	return manager
}

// GetToken returns a valid access token, requesting a new one if needed.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken requests a new token from the token endpoint.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	if m.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client)
	}

	token, err := m.config.Token(ctx)
	if err != nil {
		return fmt.Errorf("requesting client credentials token: %w", err)
	}

	m.store.Set(&Token{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.Expiry,
	})

	return nil
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}

// Current returns the stored token, if any.
func (m *OAuth2TokenManager) Current() *Token {
	return m.store.Get()
}
