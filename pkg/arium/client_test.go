package arium_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  arium.Config
		wantErr string
	}{
		{
			name:   "token auth",
			config: arium.Config{APIEndpoint: "https://api.example.com", Tenant: "workspace1", AccessToken: "t"},
		},
		{
			name:   "no auth",
			config: arium.Config{APIEndpoint: "http://127.0.0.1:8080", Tenant: "workspace1"},
		},
		{
			name:    "missing endpoint",
			config:  arium.Config{Tenant: "workspace1"},
			wantErr: "API endpoint is required",
		},
		{
			name:    "missing tenant",
			config:  arium.Config{APIEndpoint: "https://api.example.com"},
			wantErr: "tenant is required",
		},
		{
			name:    "client credentials without secret",
			config:  arium.Config{APIEndpoint: "https://api.example.com", Tenant: "w", ClientID: "id", TokenURL: "https://login.example.com/oauth/token"},
			wantErr: "ClientSecret",
		},
		{
			name:   "access token wins over client credentials",
			config: arium.Config{APIEndpoint: "https://api.example.com", Tenant: "w", ClientID: "id", AccessToken: "t"},
		},
		{
			name:    "negative retries",
			config:  arium.Config{APIEndpoint: "https://api.example.com", Tenant: "w", ConnectRetryAttempts: -1},
			wantErr: "ConnectRetryAttempts",
		},
		{
			name:    "bad events URL",
			config:  arium.Config{APIEndpoint: "https://api.example.com", Tenant: "w", EventsURL: "not a url"},
			wantErr: "EventsURL",
		},
		{
			name:   "events URL",
			config: arium.Config{APIEndpoint: "https://api.example.com", Tenant: "w", EventsURL: "nats://127.0.0.1:4222"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Verify(t *testing.T) {
	assert.True(t, (&arium.Config{}).Verify())
	assert.False(t, (&arium.Config{SkipTLSVerify: true}).Verify())
}
