// Package ariumclient provides the main entry point for creating platform clients
package ariumclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/arium-client/internal/client"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// New creates a new platform client. The endpoint is normalized to an https
// URL without a trailing slash before the config is validated.
func New(ctx context.Context, config *arium.Config) (arium.Client, error) {
	if config == nil {
		return nil, arium.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, arium.ErrAPIEndpointRequired
	}

	config.APIEndpoint = normalizeEndpoint(config.APIEndpoint)

	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// NewWithToken creates a new client with an API endpoint, tenant and access token.
func NewWithToken(ctx context.Context, endpoint, tenant, token string) (arium.Client, error) {
	return New(ctx, &arium.Config{
		APIEndpoint: endpoint,
		Tenant:      tenant,
		AccessToken: token,
	})
}

// NewWithClientCredentials creates a new client using OAuth2 client credentials.
func NewWithClientCredentials(ctx context.Context, endpoint, tenant, tokenURL, clientID, clientSecret string) (arium.Client, error) {
	return New(ctx, &arium.Config{
		APIEndpoint:  endpoint,
		Tenant:       tenant,
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}
