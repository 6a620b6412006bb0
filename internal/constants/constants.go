package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// ExportFilePerm is the permission for exported asset archives.
	ExportFilePerm = 0644
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Transport retries of 429 and 5xx responses.
const (
	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// Connection retries.
const (
	// ConnectRetryAttempts is the number of guarded attempts before the final
	// unguarded one.
	ConnectRetryAttempts = 10

	// ConnectRetryDelay is the first delay; it doubles after every failure.
	ConnectRetryDelay = 1 * time.Second

	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2
)

// Polling intervals.
const (
	// UploadPollInterval is used while an asset upload is processed.
	UploadPollInterval = 1 * time.Second

	// JobPollInterval is used for copy and import jobs and for 202 polling.
	JobPollInterval = 1 * time.Second

	// CalcPollInterval is used for calculation records.
	CalcPollInterval = 5 * time.Second
)

// Token handling.
const (
	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second
)

// Decoding defaults.
const (
	// DefaultDelimiter separates CSV fields.
	DefaultDelimiter = ','

	// ZipExtension marks report files that are archives.
	ZipExtension = ".zip"

	// ExportNamePrefix prefixes the default export file name.
	ExportNamePrefix = "export_"
)

// Headers.
const (
	HeaderLocation    = "Location"
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
	ContentTypeText   = "text/plain; charset=utf-8"
	DefaultUserAgent  = "arium-client/1.0"
)

// Asset payload modes.
const (
	PayloadModePresigned = "presigned"
	PayloadModeAuto      = "auto"
)

// Job states and record fields.
const (
	StateUploading  = "uploading"
	StateProcessing = "processing"

	FieldStatus      = "status"
	FieldStats       = "stats"
	FieldDescription = "description"
	FieldEmpty       = "empty"
)

// Output formats.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// NotAvailable is used when information is not available.
const NotAvailable = "N/A"

// Events.
const (
	// EventSubjectPrefix prefixes the NATS subject of workflow events.
	EventSubjectPrefix = "arium.workflows."
)
