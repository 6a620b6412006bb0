package client

import (
	"bytes"
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/internal/http"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// CalculationIDPlaceholder is replaced with the calculation id in resource
// endpoint templates.
const CalculationIDPlaceholder = "{calculations_id}"

// CalculationsClient implements arium.CalculationsClient.
type CalculationsClient struct {
	httpClient *http.Client
	decoder    *Decoder
	opts       *Options
}

// NewCalculationsClient creates a new calculations client.
func NewCalculationsClient(httpClient *http.Client, opts *Options) *CalculationsClient {
	opts = opts.withDefaults()

	return &CalculationsClient{
		httpClient: httpClient,
		decoder:    NewDecoder(httpClient, opts.Retry, opts.Logger),
		opts:       opts,
	}
}

// calculationPath prefixes relative endpoints with the tenant segment.
// Rooted paths and absolute status URLs are used unchanged.
func calculationPath(endpoint string) string {
	if strings.HasPrefix(endpoint, "/") {
		return endpoint
	}

	if parsed, err := url.Parse(endpoint); err == nil && parsed.IsAbs() {
		return endpoint
	}

	return fmt.Sprintf(constants.PathCalculationPattern, endpoint)
}

// Poll implements arium.CalculationsClient.Poll.
func (c *CalculationsClient) Poll(ctx context.Context, endpoint string) (*arium.Content, error) {
	path := calculationPath(endpoint)

	return WithErrorHandling(func(ctx context.Context) (*arium.Content, error) {
		c.opts.Logger.Info("Processing calculation", map[string]interface{}{"endpoint": path})

		poller := &Poller[*http.Response]{
			Name: "calculation " + path,
			Check: func(ctx context.Context) (*http.Response, error) {
				return c.httpClient.Get(ctx, path, nil)
			},
			Pending: func(resp *http.Response) bool {
				return resp.StatusCode == nethttp.StatusAccepted
			},
			Interval: c.opts.JobPollInterval,
			Timeout:  c.opts.PollTimeout,
			Sleep:    c.opts.Sleep,
			Logger:   c.opts.Logger,
			OnDone: func(ctx context.Context, resp *http.Response) {
				c.publish(ctx, path, strconv.Itoa(resp.StatusCode))
			},
		}

		resp, err := poller.Run(ctx)
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info("Got response", map[string]interface{}{"endpoint": path, "status": resp.StatusCode})

		return c.decoder.Decode(ctx, resp, DefaultDecodeOptions())
	}, Operation{Name: "poll-calculation", ID: path}, c.opts.Logger)(ctx)
}

// PollRecord implements arium.CalculationsClient.PollRecord. record is the
// first observation; the endpoint is fetched again while its "stats" field
// reads "processing".
func (c *CalculationsClient) PollRecord(ctx context.Context, record map[string]interface{}, endpoint string) (map[string]interface{}, error) {
	path := calculationPath(endpoint)

	return WithErrorHandling(func(ctx context.Context) (map[string]interface{}, error) {
		c.opts.Logger.Info("Processing calculation", map[string]interface{}{"endpoint": path})

		first := true

		poller := &Poller[map[string]interface{}]{
			Name: "calculation record " + path,
			Check: func(ctx context.Context) (map[string]interface{}, error) {
				if first {
					first = false

					return record, nil
				}

				return c.fetchRecord(ctx, path)
			},
			Pending: func(record map[string]interface{}) bool {
				return record[constants.FieldStats] == constants.StateProcessing
			},
			Interval: c.opts.CalcPollInterval,
			Timeout:  c.opts.PollTimeout,
			Sleep:    c.opts.Sleep,
			Logger:   c.opts.Logger,
			OnDone: func(ctx context.Context, record map[string]interface{}) {
				c.publish(ctx, path, fmt.Sprint(record[constants.FieldStatus]))
			},
		}

		result, err := poller.Run(ctx)
		if err != nil {
			return result, err
		}

		c.opts.Logger.Info("Got response", map[string]interface{}{
			"endpoint": path,
			"status":   result[constants.FieldStatus],
		})

		return result, nil
	}, Operation{Name: "poll-calculation-record", ID: path}, c.opts.Logger)(ctx)
}

func (c *CalculationsClient) fetchRecord(ctx context.Context, path string) (map[string]interface{}, error) {
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	content, err := c.decoder.Decode(ctx, resp, DefaultDecodeOptions())
	if err != nil {
		return nil, err
	}

	record, ok := content.Map()
	if !ok {
		return nil, &arium.UnexpectedContentTypeError{Operation: "poll-calculation-record", Expected: "object", Got: content.Shape()}
	}

	return record, nil
}

// Resources implements arium.CalculationsClient.Resources. endpoint may
// contain the {calculations_id} placeholder. Nil options stream CSV rows.
func (c *CalculationsClient) Resources(ctx context.Context, calculationID, endpoint string, opts *arium.FetchOptions) (arium.ResourceIterator, error) {
	if opts == nil {
		opts = &arium.FetchOptions{CSV: true}
	}

	path := calculationPath(strings.ReplaceAll(endpoint, CalculationIDPlaceholder, calculationID))

	return WithErrorHandling(func(ctx context.Context) (arium.ResourceIterator, error) {
		c.opts.Logger.Debug("Get resources", map[string]interface{}{"endpoint": path})

		resp, err := c.httpClient.Get(ctx, path, nil)
		if err != nil {
			return nil, err
		}

		content, err := c.decoder.Decode(ctx, resp, DefaultDecodeOptions())
		if err != nil {
			return nil, err
		}

		items, ok := content.List()
		if !ok {
			return nil, &arium.UnexpectedContentTypeError{Operation: "resources", Expected: "array", Got: content.Shape()}
		}

		urls := make([]string, 0, len(items))

		for _, item := range items {
			resourceURL, ok := item.(string)
			if !ok {
				return nil, &arium.UnexpectedContentTypeError{Operation: "resources", Expected: "string", Got: fmt.Sprintf("%T", item)}
			}

			urls = append(urls, resourceURL)
		}

		return &resourceIterator{ctx: ctx, client: c, urls: urls, opts: opts, index: -1}, nil
	}, Operation{Name: "resources", ID: calculationID}, c.opts.Logger)(ctx)
}

// Fetch implements arium.CalculationsClient.Fetch. CSV output yields rows
// lazily; Raw output yields the undecoded body as content.
func (c *CalculationsClient) Fetch(ctx context.Context, rawURL string, opts *arium.FetchOptions) (arium.RowIterator, *arium.Content, error) {
	if opts == nil {
		opts = &arium.FetchOptions{}
	}

	fetch := WithRetry(func(ctx context.Context) (*http.Response, error) {
		return c.httpClient.GetURL(ctx, rawURL)
	}, c.opts.retry("fetch"))

	resp, err := WithErrorHandling(fetch, Operation{Name: "fetch", ID: redactURL(rawURL)}, c.opts.Logger)(ctx)
	if err != nil {
		return nil, nil, err
	}

	if opts.Raw {
		return nil, arium.NewRawBytes(resp.Body), nil
	}

	if opts.CSV {
		return newCSVRows(bytes.NewReader(resp.Body), opts.Delimiter), nil, nil
	}

	content, err := c.decoder.Decode(ctx, resp, DefaultDecodeOptions())
	if err != nil {
		return nil, nil, err
	}

	return nil, content, nil
}

func (c *CalculationsClient) publish(ctx context.Context, id, state string) {
	publishEvent(ctx, c.opts, arium.WorkflowEvent{
		Kind:        arium.WorkflowCalc,
		ID:          id,
		State:       state,
		CompletedAt: time.Now().UTC(),
	})
}

// resourceIterator downloads one calculation resource per Next call.
type resourceIterator struct {
	ctx     context.Context //nolint:containedctx // bound to the listing call
	client  *CalculationsClient
	urls    []string
	opts    *arium.FetchOptions
	index   int
	rows    arium.RowIterator
	content *arium.Content
	err     error
}

func (it *resourceIterator) Next() bool {
	if it.err != nil || it.index+1 >= len(it.urls) {
		return false
	}

	it.index++

	it.rows, it.content, it.err = it.client.Fetch(it.ctx, it.urls[it.index], it.opts)

	return it.err == nil
}

func (it *resourceIterator) Filename() string {
	if it.index < 0 || it.index >= len(it.urls) {
		return ""
	}

	return resourceFilename(it.urls[it.index])
}

func (it *resourceIterator) Rows() arium.RowIterator {
	return it.rows
}

func (it *resourceIterator) Content() *arium.Content {
	return it.content
}

func (it *resourceIterator) Err() error {
	return it.err
}

// resourceFilename returns the last path segment of a resource URL.
func resourceFilename(resourceURL string) string {
	path := redactURL(resourceURL)

	return path[strings.LastIndex(path, "/")+1:]
}

func redactURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}

	return rawURL
}
