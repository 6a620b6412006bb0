package arium

import (
	"context"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Well known collections.
const (
	CollectionPortfolios = "portfolios"
	CollectionEvents     = "events"
	CollectionSizes      = "sizes"
)

// Client provides access to the platform.
type Client interface {
	// Assets returns the client for an arbitrary collection.
	Assets(collection string) AssetsClient
	Portfolios() AssetsClient
	Events() AssetsClient
	Sizes() AssetsClient
	Calculations() CalculationsClient
	// Close releases resources held by the client, such as the event
	// publisher connection.
	Close() error
}

// AssetsClient operates on the assets of one collection.
type AssetsClient interface {
	Collection() string

	Get(ctx context.Context, assetID string) (*Asset, error)
	List(ctx context.Context, opts *ListOptions) ([]Asset, error)
	// ListContent returns the listing's content sequence as sent by the
	// platform, without requiring every element to be an asset object.
	ListContent(ctx context.Context, opts *ListOptions) ([]interface{}, error)
	Versions(ctx context.Context, assetID string) ([]Asset, error)
	Create(ctx context.Context, name string, payload interface{}, opts *CreateOptions) (*Asset, error)
	Rename(ctx context.Context, assetID, name string) (interface{}, error)
	Copy(ctx context.Context, assetID, name string) (*Content, error)
	Delete(ctx context.Context, assetID string) (*Content, error)
	Lock(ctx context.Context, assetID string, locked bool) (*Content, error)
	IsEmpty(ctx context.Context) (bool, error)

	GetDescription(ctx context.Context, assetID string) (string, error)
	SetDescription(ctx context.Context, assetID, description string) (*Content, error)
	GetPayloadDescription(ctx context.Context, assetID string) (string, error)
	UpdatePayloadDescription(ctx context.Context, assetID, description string) (*Content, error)
	GetData(ctx context.Context, assetID string, presigned bool) ([]byte, error)

	ListReports(ctx context.Context, assetID string) (*Content, error)
	GetReport(ctx context.Context, assetID, file string, opts *ReportOptions) (*Content, error)

	Import(ctx context.Context, path string, wait bool) (*Job, error)
	Export(ctx context.Context, assetIDs []string, opts *ExportOptions) (string, error)
	CopyWorkspace(ctx context.Context, fromTenant, toTenant string, assetIDs []string, wait bool) (*Job, error)

	PollUpload(ctx context.Context, assetID string) (string, error)
	PollImport(ctx context.Context, jobID string) (*Job, error)
	PollCopy(ctx context.Context, jobID string) (*Job, error)
}

// CalculationsClient drives generic calculation jobs and streams their
// resources.
type CalculationsClient interface {
	// Poll re-issues the GET until the platform stops answering 202 Accepted
	// and returns the decoded final response.
	Poll(ctx context.Context, endpoint string) (*Content, error)
	// PollRecord re-fetches the endpoint while the record is processing.
	PollRecord(ctx context.Context, record map[string]interface{}, endpoint string) (map[string]interface{}, error)
	// Resources lists the resource URLs of a calculation and yields their
	// content lazily.
	Resources(ctx context.Context, calculationID, endpoint string, opts *FetchOptions) (ResourceIterator, error)
	// Fetch downloads an absolute URL, parsing it as CSV rows when asked.
	Fetch(ctx context.Context, rawURL string, opts *FetchOptions) (RowIterator, *Content, error)
}

// RowIterator is a lazy, finite, forward-only sequence of delimited rows. It
// is not restartable; a new request is needed to read the rows again.
type RowIterator interface {
	Next() bool
	Row() []string
	Err() error
}

// ResourceIterator yields calculation resources one at a time. Each resource
// is downloaded only when the iterator reaches it.
type ResourceIterator interface {
	Next() bool
	// Filename is the last path segment of the resource URL.
	Filename() string
	// Rows streams the current resource as CSV rows when CSV output was
	// requested.
	Rows() RowIterator
	// Content is the decoded current resource when CSV output was not
	// requested.
	Content() *Content
	Err() error
}

// EventPublisher receives workflow completion events.
type EventPublisher interface {
	Publish(ctx context.Context, event WorkflowEvent) error
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards everything.
type NoopLogger struct{}

// Debug implements Logger.
func (NoopLogger) Debug(string, map[string]interface{}) {}

// Info implements Logger.
func (NoopLogger) Info(string, map[string]interface{}) {}

// Warn implements Logger.
func (NoopLogger) Warn(string, map[string]interface{}) {}

// Error implements Logger.
func (NoopLogger) Error(string, map[string]interface{}) {}

// Config represents client configuration.
//
// # Authentication precedence
//
//  1. AccessToken: used directly as a static Bearer token.
//  2. ClientID/ClientSecret: OAuth2 client_credentials grant against TokenURL.
//  3. No credentials: requests are sent without authentication.
//
// # Retries and polling
//
// Connection failures are retried ConnectRetryAttempts times with a delay
// starting at ConnectRetryDelay and doubling each time, followed by one last
// attempt whose error is returned. RetryMax additionally enables
// transport-level retries of 429 and 5xx responses. Polling intervals default
// to one second (uploads, imports, copies) and five seconds (calculation
// records); polling never gives up unless PollTimeout or the context says so.
type Config struct {
	// APIEndpoint is the platform base URL (e.g. "https://api.example.com").
	APIEndpoint string
	// Tenant fills the {tenant} segment of every endpoint.
	Tenant string

	AccessToken  string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	// SkipTLSVerify disables certificate verification for the platform and
	// for presigned references.
	SkipTLSVerify bool
	HTTPTimeout   time.Duration
	UserAgent     string
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	ConnectRetryAttempts int
	ConnectRetryDelay    time.Duration

	UploadPollInterval time.Duration
	JobPollInterval    time.Duration
	CalcPollInterval   time.Duration
	PollTimeout        time.Duration

	// EventsURL is a NATS server URL; when set, workflow completions are
	// published to it.
	EventsURL string
	// Events overrides the publisher built from EventsURL.
	Events EventPublisher

	Debug  bool
	Logger Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIEndpoint, validation.Required.ErrorObject(
			validation.NewError("validation_api_endpoint_required", ErrAPIEndpointRequired.Error())), is.URL),
		validation.Field(&c.Tenant, validation.Required.ErrorObject(
			validation.NewError("validation_tenant_required", ErrTenantRequired.Error()))),
		validation.Field(&c.ClientSecret, validation.When(c.ClientID != "" && c.AccessToken == "", validation.Required)),
		validation.Field(&c.TokenURL, validation.When(c.ClientID != "" && c.AccessToken == "", validation.Required), is.URL),
		validation.Field(&c.ConnectRetryAttempts, validation.Min(0)),
		validation.Field(&c.RetryMax, validation.Min(0)),
		validation.Field(&c.EventsURL, is.RequestURL.Error("must be a nats:// URL")),
	)
}

// Verify reports whether TLS certificates are verified.
func (c *Config) Verify() bool {
	return !c.SkipTLSVerify
}
