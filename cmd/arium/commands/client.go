package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/arium-client/internal/auth"
	"github.com/fivetwenty-io/arium-client/internal/client"
	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
	"github.com/fivetwenty-io/arium-client/pkg/ariumclient"
)

// secretReader prompts for the client secret. Replaced in tests.
var secretReader = readSecretFromTerminal

func newLogger(errOut io.Writer) arium.Logger {
	level := hclog.Warn
	if viper.GetBool("verbose") {
		level = hclog.Debug
	}

	return arium.NewHCLogger(hclog.New(&hclog.LoggerOptions{
		Name:   "arium",
		Level:  level,
		Output: errOut,
	}))
}

func buildAriumConfig(config *Config, logger arium.Logger) *arium.Config {
	return &arium.Config{
		APIEndpoint:   config.API,
		Tenant:        config.Tenant,
		AccessToken:   config.Token,
		ClientID:      config.ClientID,
		ClientSecret:  config.ClientSecret,
		TokenURL:      config.TokenURL,
		SkipTLSVerify: config.SkipSSLValidation,
		EventsURL:     config.NATSURL,
		UserAgent:     constants.DefaultUserAgent,
		Debug:         viper.GetBool("verbose"),
		Logger:        logger,
	}
}

// createClient builds a platform client from the CLI configuration. Client
// credentials take precedence over a stored token and renewed tokens are
// written back to the configuration file.
func createClient(ctx context.Context, errOut io.Writer) (arium.Client, error) {
	config := loadConfig()

	if config.API == "" {
		return nil, constants.ErrNoAPIConfigured
	}

	if config.Tenant == "" {
		return nil, constants.ErrNoTenantConfigured
	}

	logger := newLogger(errOut)

	if config.ClientID == "" {
		c, err := ariumclient.New(ctx, buildAriumConfig(config, logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}

		return c, nil
	}

	if config.ClientSecret == "" {
		secret, err := secretReader(errOut)
		if err != nil {
			return nil, err
		}

		config.ClientSecret = secret
	}

	ariumConfig := buildAriumConfig(config, logger)
	ariumConfig.AccessToken = ""

	err := ariumConfig.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c, err := client.NewWithTokenManager(ctx, ariumConfig, createTokenManager(config, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create client with token manager: %w", err)
	}

	return c, nil
}

func createTokenManager(config *Config, logger arium.Logger) auth.TokenManager {
	oauth2Config := &auth.OAuth2Config{
		TokenURL:     config.TokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		AccessToken:  config.Token,
		ExpiresAt:    initialTokenExpiry(config),
	}

	return auth.NewConfigTokenManager(oauth2Config, NewConfigPersister(), config.Tenant, func(err error) {
		logger.Warn("Failed to persist token", map[string]interface{}{"error": err.Error()})
	})
}

// initialTokenExpiry returns the stored expiry. A token without one is used
// until the platform rejects it.
func initialTokenExpiry(config *Config) time.Time {
	if config.TokenExpiresAt != nil {
		return *config.TokenExpiresAt
	}

	return time.Time{}
}

func readSecretFromTerminal(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) // #nosec G115 -- file descriptors fit in int

	if !term.IsTerminal(fd) {
		return "", constants.ErrSecretNotProvided
	}

	_, _ = fmt.Fprint(prompt, "Client secret: ")

	secret, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(prompt)

	if err != nil {
		return "", fmt.Errorf("failed to read client secret: %w", err)
	}

	return string(secret), nil
}
