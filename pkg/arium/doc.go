// Package arium defines the public types and interfaces of the asset platform
// client: the Client, AssetsClient and CalculationsClient interfaces, the
// Content tagged union every response is decoded into, configuration, errors
// and the interceptor chain used by the transport.
//
// Use package ariumclient to construct a Client.
//
// # Content
//
// Responses decode into exactly one of four variants:
//
//   - RawBytes: the body as received, when the caller did not ask to load it.
//   - Text: a body that could not be parsed.
//   - Structured: a parsed JSON value.
//   - Tabular: rows parsed from CSV, optionally extracted from a zip archive.
//
// Parse failures are never errors; they degrade to Text.
//
// # Errors
//
// Transient connectivity failures are reported as *ConnectionError and match
// ErrConnection. Responses outside the accepted statuses are reported as
// *UnexpectedStatusError; IsNotFound, IsUnauthorized and IsForbidden inspect
// them through any wrapping.
package arium
