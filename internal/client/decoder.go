package client

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"unicode/utf8"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/internal/http"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// DecodeOptions selects how a response is turned into content.
type DecodeOptions struct {
	// Accept lists the acceptable status codes.
	Accept []int
	// Load parses the body. When false the raw bytes are returned.
	Load bool
	// GetFromLocation follows a Location reference to the real payload.
	GetFromLocation bool
	// CSV parses the body into delimited rows instead of JSON.
	CSV bool
	// Unzip extracts the first archive entry before CSV parsing.
	Unzip bool
	// Delimiter separates CSV fields.
	Delimiter rune
}

// DefaultDecodeOptions accepts 200 and 204, parses JSON and follows
// Location references.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		Accept:          []int{nethttp.StatusOK, nethttp.StatusNoContent},
		Load:            true,
		GetFromLocation: true,
		Unzip:           true,
		Delimiter:       constants.DefaultDelimiter,
	}
}

// LocationGetter fetches the payload a Location reference points to.
type LocationGetter interface {
	GetURL(ctx context.Context, ref string) (*http.Response, error)
}

// Decoder turns platform responses into arium.Content.
type Decoder struct {
	locations LocationGetter
	retry     RetryOptions
	logger    arium.Logger
}

// NewDecoder creates a decoder. The Location fetch is retried with retry.
func NewDecoder(locations LocationGetter, retry RetryOptions, logger arium.Logger) *Decoder {
	if logger == nil {
		logger = arium.NoopLogger{}
	}

	retry.Logger = logger
	retry.Name = "decode"

	return &Decoder{
		locations: locations,
		retry:     retry,
		logger:    logger,
	}
}

// Decode classifies resp and materializes exactly one kind of content, or
// fails with *arium.UnexpectedStatusError when the status is not accepted.
func (d *Decoder) Decode(ctx context.Context, resp *http.Response, opts DecodeOptions) (*arium.Content, error) {
	return WithRetry(func(ctx context.Context) (*arium.Content, error) {
		return d.decode(ctx, resp, opts)
	}, d.retry)(ctx)
}

func (d *Decoder) decode(ctx context.Context, resp *http.Response, opts DecodeOptions) (*arium.Content, error) {
	if !accepted(resp.StatusCode, opts.Accept) {
		return nil, &arium.UnexpectedStatusError{
			Endpoint:   resp.URL,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       resp.Body,
		}
	}

	body := resp.Body

	if opts.GetFromLocation {
		if location := resp.Header.Get(constants.HeaderLocation); location != "" {
			redirected, err := d.locations.GetURL(ctx, location)
			if err != nil {
				return nil, err
			}

			body = redirected.Body
		}
	}

	if !opts.Load {
		return arium.NewRawBytes(body), nil
	}

	content, err := parse(body, opts)
	if err != nil {
		d.logger.Debug("Content kept as text", map[string]interface{}{
			"endpoint": resp.URL,
			"reason":   err.Error(),
		})

		// Invalid UTF-8 sequences become U+FFFD so Text is always valid.
		return arium.NewText(strings.ToValidUTF8(string(body), string(utf8.RuneError))), nil
	}

	return content, nil
}

func parse(body []byte, opts DecodeOptions) (*arium.Content, error) {
	if !opts.CSV {
		var value interface{}

		err := json.Unmarshal(body, &value)
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}

		return arium.NewStructured(value), nil
	}

	data := body

	if opts.Unzip {
		entry, err := firstEntry(body)
		if err != nil {
			return nil, err
		}

		data = entry
	}

	rows := newCSVRows(bytes.NewReader(data), opts.Delimiter)

	var table [][]string
	for rows.Next() {
		table = append(table, rows.Row())
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("parsing CSV: %w", rows.Err())
	}

	return arium.NewTabular(table), nil
}

// firstEntry returns the content of the first file in a zip archive.
func firstEntry(body []byte) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	if len(archive.File) == 0 {
		return nil, arium.ErrEmptyArchive
	}

	entry, err := archive.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", archive.File[0].Name, err)
	}
	defer entry.Close()

	data, err := io.ReadAll(entry)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", archive.File[0].Name, err)
	}

	return data, nil
}

func accepted(status int, accept []int) bool {
	for _, code := range accept {
		if code == status {
			return true
		}
	}

	return false
}
