package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIConfigured     = errors.New("no API endpoint configured, use 'arium config set api <url>' or --api")
	ErrNoTenantConfigured  = errors.New("no tenant configured, use 'arium config set tenant <name>' or --tenant")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrSecretNotProvided   = errors.New("client secret not provided and no terminal to prompt on")
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

// Argument errors.
var (
	ErrAssetIDsRequired = errors.New("at least one asset id is required")
	ErrTenantsRequired  = errors.New("--from and --to are required")
	ErrPayloadRequired  = errors.New("--data or --file is required")
	ErrInvalidParam     = errors.New("parameter must be KEY=VALUE")
	ErrInvalidDelimiter = errors.New("delimiter must be a single character")
)
