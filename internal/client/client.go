package client

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/arium-client/internal/auth"
	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/internal/events"
	"github.com/fivetwenty-io/arium-client/internal/http"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// Client implements the arium.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	opts         *Options
	ownsEvents   bool

	portfolios   *AssetsClient
	eventAssets  *AssetsClient
	sizes        *AssetsClient
	calculations *CalculationsClient
}

// createTokenManager creates appropriate token manager based on config.
func createTokenManager(config *arium.Config) auth.TokenManager {
	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		return auth.NewOAuth2TokenManager(oauthConfig(config))
	}

	return nil // No authentication
}

func oauthConfig(config *arium.Config) *auth.OAuth2Config {
	return &auth.OAuth2Config{
		TokenURL:     config.TokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       config.Scopes,
		HTTPClient:   config.HTTPClient,
	}
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *arium.Config) []http.Option {
	httpOpts := []http.Option{
		http.WithTenant(config.Tenant),
		http.WithVerify(config.Verify()),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// createOptions maps config onto the resource client options.
func createOptions(config *arium.Config) *Options {
	opts := DefaultOptions()

	if config.Logger != nil {
		opts.Logger = config.Logger
	}

	if config.ConnectRetryAttempts > 0 {
		opts.Retry.MaxAttempts = config.ConnectRetryAttempts
	}

	if config.ConnectRetryDelay > 0 {
		opts.Retry.BaseDelay = config.ConnectRetryDelay
	}

	opts.UploadPollInterval = orDefault(config.UploadPollInterval, opts.UploadPollInterval)
	opts.JobPollInterval = orDefault(config.JobPollInterval, opts.JobPollInterval)
	opts.CalcPollInterval = orDefault(config.CalcPollInterval, opts.CalcPollInterval)
	opts.PollTimeout = config.PollTimeout
	opts.Events = config.Events

	return opts
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}

	return fallback
}

// New creates a new platform client.
func New(ctx context.Context, config *arium.Config) (*Client, error) {
	if config == nil {
		return nil, arium.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, arium.ErrAPIEndpointRequired
	}

	return NewWithTokenManager(ctx, config, createTokenManager(config))
}

// NewWithTokenManager creates a new platform client with a custom token
// manager. A nil token manager sends requests without authentication.
func NewWithTokenManager(ctx context.Context, config *arium.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, arium.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, arium.ErrAPIEndpointRequired
	}

	opts := createOptions(config)
	ownsEvents := false

	if opts.Events == nil && config.EventsURL != "" {
		publisher, err := events.NewNATSPublisher(ctx, config.EventsURL, events.WithLogger(opts.Logger))
		if err != nil {
			return nil, fmt.Errorf("connecting to workflow events: %w", err)
		}

		opts.Events = publisher
		ownsEvents = true
	}

	var transportTokens http.TokenManager
	if tokenManager != nil {
		transportTokens = tokenManager
	}

	httpClient := http.NewClient(config.APIEndpoint, transportTokens, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      config.APIEndpoint,
		opts:         opts,
		ownsEvents:   ownsEvents,
	}

	client.initializeResourceClients()

	return client, nil
}

// initializeResourceClients initializes the well known collection clients.
func (c *Client) initializeResourceClients() {
	c.portfolios = NewAssetsClient(c.httpClient, arium.CollectionPortfolios, c.opts)
	c.eventAssets = NewAssetsClient(c.httpClient, arium.CollectionEvents, c.opts)
	c.sizes = NewAssetsClient(c.httpClient, arium.CollectionSizes, c.opts)
	c.calculations = NewCalculationsClient(c.httpClient, c.opts)
}

// SetFs replaces the filesystem used for exports and imports.
func (c *Client) SetFs(fs afero.Fs) {
	c.opts.Fs = fs
	c.initializeResourceClients()
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// Assets implements arium.Client.Assets.
func (c *Client) Assets(collection string) arium.AssetsClient {
	switch collection {
	case arium.CollectionPortfolios:
		return c.portfolios
	case arium.CollectionEvents:
		return c.eventAssets
	case arium.CollectionSizes:
		return c.sizes
	default:
		return NewAssetsClient(c.httpClient, collection, c.opts)
	}
}

// Portfolios implements arium.Client.Portfolios.
func (c *Client) Portfolios() arium.AssetsClient {
	return c.portfolios
}

// Events implements arium.Client.Events.
func (c *Client) Events() arium.AssetsClient {
	return c.eventAssets
}

// Sizes implements arium.Client.Sizes.
func (c *Client) Sizes() arium.AssetsClient {
	return c.sizes
}

// Calculations implements arium.Client.Calculations.
func (c *Client) Calculations() arium.CalculationsClient {
	return c.calculations
}

// Close implements arium.Client.Close. Publishers passed in through the
// config are left open for their owner.
func (c *Client) Close() error {
	if !c.ownsEvents || c.opts.Events == nil {
		return nil
	}

	err := c.opts.Events.Close()
	if err != nil {
		return fmt.Errorf("closing workflow events: %w", err)
	}

	return nil
}

var _ arium.Client = (*Client)(nil)
