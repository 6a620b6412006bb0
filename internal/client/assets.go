package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/internal/http"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// AssetsClient implements arium.AssetsClient for one collection.
type AssetsClient struct {
	httpClient *http.Client
	collection string
	decoder    *Decoder
	opts       *Options
}

// NewAssetsClient creates a new assets client.
func NewAssetsClient(httpClient *http.Client, collection string, opts *Options) *AssetsClient {
	opts = opts.withDefaults()

	return &AssetsClient{
		httpClient: httpClient,
		collection: collection,
		decoder:    NewDecoder(httpClient, opts.Retry, opts.Logger),
		opts:       opts,
	}
}

// Collection implements arium.AssetsClient.Collection.
func (c *AssetsClient) Collection() string {
	return c.collection
}

func (c *AssetsClient) operation(name, id string) Operation {
	return Operation{Name: name, Collection: c.collection, ID: id}
}

func (c *AssetsClient) path(template string, args ...string) string {
	values := make([]interface{}, 0, len(args)+1)
	values = append(values, url.PathEscape(c.collection))

	for _, arg := range args {
		values = append(values, url.PathEscape(arg))
	}

	return fmt.Sprintf(template, values...)
}

func (c *AssetsClient) fields(id string, extra ...interface{}) map[string]interface{} {
	fields := map[string]interface{}{"collection": c.collection}
	if id != "" {
		fields["id"] = id
	}

	for i := 0; i+1 < len(extra); i += 2 {
		fields[fmt.Sprint(extra[i])] = extra[i+1]
	}

	return fields
}

func (c *AssetsClient) request(ctx context.Context, req *http.Request, opts DecodeOptions) (*http.Response, *arium.Content, error) {
	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	content, err := c.decoder.Decode(ctx, resp, opts)
	if err != nil {
		return resp, nil, err
	}

	return resp, content, nil
}

func (c *AssetsClient) get(ctx context.Context, path string) (*arium.Content, error) {
	_, content, err := c.request(ctx, &http.Request{Method: nethttp.MethodGet, Path: path}, DefaultDecodeOptions())

	return content, err
}

// handled guards op against an unset collection and wraps it with
// WithErrorHandling.
func handled[T any](c *AssetsClient, op func(ctx context.Context) (T, error), name, id string) func(ctx context.Context) (T, error) {
	guarded := func(ctx context.Context) (T, error) {
		if c.collection == "" {
			var zero T

			return zero, arium.ErrCollectionRequired
		}

		return op(ctx)
	}

	return WithErrorHandling(guarded, c.operation(name, id), c.opts.Logger)
}

func requireID(assetID string) error {
	if assetID == "" {
		return arium.ErrAssetIDRequired
	}

	return nil
}

// Get implements arium.AssetsClient.Get.
func (c *AssetsClient) Get(ctx context.Context, assetID string) (*arium.Asset, error) {
	return handled(c, func(ctx context.Context) (*arium.Asset, error) {
		asset, err := c.fetchAsset(ctx, assetID)
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info("Got asset", c.fields(assetID))

		return asset, nil
	}, "get", assetID)(ctx)
}

func (c *AssetsClient) fetchAsset(ctx context.Context, assetID string) (*arium.Asset, error) {
	err := requireID(assetID)
	if err != nil {
		return nil, err
	}

	content, err := c.get(ctx, c.path(constants.PathAsset, assetID))
	if err != nil {
		return nil, err
	}

	return decodeAsset(content, "get")
}

func decodeAsset(content *arium.Content, operation string) (*arium.Asset, error) {
	if _, ok := content.Map(); !ok {
		return nil, &arium.UnexpectedContentTypeError{Operation: operation, Expected: "object", Got: content.Shape()}
	}

	var asset arium.Asset

	err := content.Decode(&asset)
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// List implements arium.AssetsClient.List.
func (c *AssetsClient) List(ctx context.Context, opts *arium.ListOptions) ([]arium.Asset, error) {
	return handled(c, func(ctx context.Context) ([]arium.Asset, error) {
		items, err := c.listContent(ctx, opts)
		if err != nil {
			return nil, err
		}

		assets := make([]arium.Asset, 0, len(items))

		for _, item := range items {
			if _, ok := item.(map[string]interface{}); !ok {
				return nil, &arium.UnexpectedContentTypeError{Operation: "list", Expected: "object", Got: arium.NewStructured(item).Shape()}
			}
		}

		err = arium.DecodeValue(items, &assets)
		if err != nil {
			return nil, err
		}

		return assets, nil
	}, "list", "")(ctx)
}

// ListContent implements arium.AssetsClient.ListContent.
func (c *AssetsClient) ListContent(ctx context.Context, opts *arium.ListOptions) ([]interface{}, error) {
	return handled(c, func(ctx context.Context) ([]interface{}, error) {
		return c.listContent(ctx, opts)
	}, "list", "")(ctx)
}

func (c *AssetsClient) listContent(ctx context.Context, opts *arium.ListOptions) ([]interface{}, error) {
	latest := true
	if opts != nil && opts.Latest != nil {
		latest = *opts.Latest
	}

	query := url.Values{}
	query.Set(constants.QueryLatest, strconv.FormatBool(latest))

	_, content, err := c.request(ctx, &http.Request{
		Method: nethttp.MethodGet,
		Path:   c.path(constants.PathAssets),
		Query:  query,
	}, DefaultDecodeOptions())
	if err != nil {
		return nil, err
	}

	if _, ok := content.Map(); !ok {
		return nil, &arium.UnexpectedContentTypeError{Operation: "list", Expected: "object", Got: content.Shape()}
	}

	var page arium.ListResponse

	err = content.Decode(&page)
	if err != nil {
		return nil, err
	}

	c.opts.Logger.Info("Found assets", c.fields("", "count", page.Count, "total", page.Total))

	if page.Content == nil {
		return []interface{}{}, nil
	}

	return page.Content, nil
}

// Versions implements arium.AssetsClient.Versions.
func (c *AssetsClient) Versions(ctx context.Context, assetID string) ([]arium.Asset, error) {
	return handled(c, func(ctx context.Context) ([]arium.Asset, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		content, err := c.get(ctx, c.path(constants.PathAssetVersions, assetID))
		if err != nil {
			return nil, err
		}

		items, ok := content.List()
		if !ok {
			return nil, &arium.UnexpectedContentTypeError{Operation: "versions", Expected: "array", Got: content.Shape()}
		}

		versions := make([]arium.Asset, 0, len(items))

		err = arium.DecodeValue(items, &versions)
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info("Got versions", c.fields(assetID, "count", len(versions)))

		return versions, nil
	}, "versions", assetID)(ctx)
}

// Create implements arium.AssetsClient.Create. When the platform answers
// with a Location reference the payload is uploaded there and, unless
// NoWait is set, the upload is polled before the asset is fetched again.
func (c *AssetsClient) Create(ctx context.Context, name string, payload interface{}, opts *arium.CreateOptions) (*arium.Asset, error) {
	if opts == nil {
		opts = &arium.CreateOptions{}
	}

	create := WithRetry(func(ctx context.Context) (*arium.Asset, error) {
		return c.create(ctx, name, payload, opts)
	}, c.opts.retry("create"))

	return handled(c, create, "create", name)(ctx)
}

func (c *AssetsClient) create(ctx context.Context, name string, payload interface{}, opts *arium.CreateOptions) (*arium.Asset, error) {
	query := url.Values{}
	query.Set(constants.QueryAssetName, name)

	if opts.Presigned {
		query.Set(constants.QueryPayloadMode, constants.PayloadModePresigned)
	}

	for key, value := range opts.Params {
		query.Set(key, value)
	}

	req := &http.Request{
		Method: nethttp.MethodPost,
		Path:   c.path(constants.PathAssets),
		Query:  query,
	}

	if !opts.Presigned {
		req.Body = payload
	}

	noLocation := DefaultDecodeOptions()
	noLocation.GetFromLocation = false

	resp, content, err := c.request(ctx, req, noLocation)
	if err != nil {
		return nil, err
	}

	created, err := decodeAsset(content, "create")
	if err != nil {
		return nil, err
	}

	location := resp.Header.Get(constants.HeaderLocation)
	if location == "" {
		c.opts.Logger.Info("Created asset", c.fields(created.ID))

		return created, nil
	}

	data, err := payloadBytes(payload)
	if err != nil {
		return nil, err
	}

	c.opts.Logger.Info("Uploading asset", c.fields(created.ID, "name", name))

	err = c.upload(ctx, location, data)
	if err != nil {
		return nil, err
	}

	if !opts.NoWait {
		c.opts.Logger.Info("Waiting for upload", c.fields(created.ID))

		_, err = c.pollUpload(ctx, created.ID)
		if err != nil {
			return nil, err
		}
	}

	return c.fetchAsset(ctx, created.ID)
}

// upload PUTs data to a presigned or platform reference.
func (c *AssetsClient) upload(ctx context.Context, location string, data []byte) error {
	resp, err := c.httpClient.PutURL(ctx, location, data)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &arium.UnexpectedStatusError{
			Endpoint:   resp.URL,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       resp.Body,
		}
	}

	return nil
}

// payloadBytes renders an upload payload. Text is sent trimmed, anything
// else that is not already bytes is sent as JSON.
func payloadBytes(payload interface{}) ([]byte, error) {
	switch value := payload.(type) {
	case string:
		return []byte(strings.TrimSpace(value)), nil
	case []byte:
		return bytes.TrimSpace(value), nil
	case io.Reader:
		data, err := io.ReadAll(value)
		if err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}

		return bytes.TrimSpace(data), nil
	case nil:
		return nil, fmt.Errorf("%w: nil", arium.ErrUnsupportedPayload)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", arium.ErrUnsupportedPayload, err)
		}

		return data, nil
	}
}

// Rename implements arium.AssetsClient.Rename. The platform answers with a
// list and the last element is the outcome.
func (c *AssetsClient) Rename(ctx context.Context, assetID, name string) (interface{}, error) {
	return handled(c, func(ctx context.Context) (interface{}, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		query := url.Values{}
		query.Set(constants.QueryAssetName, name)

		_, content, err := c.request(ctx, &http.Request{
			Method: nethttp.MethodPut,
			Path:   c.path(constants.PathAssetMove, assetID),
			Query:  query,
		}, DefaultDecodeOptions())
		if err != nil {
			return nil, err
		}

		items, ok := content.List()
		if !ok {
			return nil, &arium.UnexpectedContentTypeError{Operation: "rename", Expected: "array", Got: content.Shape()}
		}

		if len(items) == 0 {
			return nil, arium.ErrEmptyResult
		}

		c.opts.Logger.Info("Renamed asset", c.fields(assetID, "name", name))

		return items[len(items)-1], nil
	}, "rename", assetID)(ctx)
}

// Copy implements arium.AssetsClient.Copy.
func (c *AssetsClient) Copy(ctx context.Context, assetID, name string) (*arium.Content, error) {
	return handled(c, func(ctx context.Context) (*arium.Content, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		query := url.Values{}
		query.Set(constants.QueryAssetName, name)

		_, content, err := c.request(ctx, &http.Request{
			Method: nethttp.MethodPost,
			Path:   c.path(constants.PathAssetCopy, assetID),
			Query:  query,
		}, DefaultDecodeOptions())
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info("Copied asset", c.fields(assetID, "name", name))

		return content, nil
	}, "copy", assetID)(ctx)
}

// Delete implements arium.AssetsClient.Delete.
func (c *AssetsClient) Delete(ctx context.Context, assetID string) (*arium.Content, error) {
	return handled(c, func(ctx context.Context) (*arium.Content, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		_, content, err := c.request(ctx, &http.Request{
			Method: nethttp.MethodDelete,
			Path:   c.path(constants.PathAsset, assetID),
		}, DefaultDecodeOptions())
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info("Removed asset", c.fields(assetID))

		return content, nil
	}, "delete", assetID)(ctx)
}

// Lock implements arium.AssetsClient.Lock. locked false unlocks.
func (c *AssetsClient) Lock(ctx context.Context, assetID string, locked bool) (*arium.Content, error) {
	template, name, message := constants.PathAssetLock, "lock", "Locked asset"
	if !locked {
		template, name, message = constants.PathAssetUnlock, "unlock", "Unlocked asset"
	}

	return handled(c, func(ctx context.Context) (*arium.Content, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		_, content, err := c.request(ctx, &http.Request{
			Method: nethttp.MethodPut,
			Path:   c.path(template, assetID),
		}, DefaultDecodeOptions())
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info(message, c.fields(assetID))

		return content, nil
	}, name, assetID)(ctx)
}

// IsEmpty implements arium.AssetsClient.IsEmpty.
func (c *AssetsClient) IsEmpty(ctx context.Context) (bool, error) {
	return handled(c, func(ctx context.Context) (bool, error) {
		content, err := c.get(ctx, c.path(constants.PathAssetsEmpty))
		if err != nil {
			return false, err
		}

		value, ok := content.Field(constants.FieldEmpty)
		if !ok {
			return false, fmt.Errorf("%w: %s", arium.ErrMissingField, constants.FieldEmpty)
		}

		empty, ok := value.(bool)
		if !ok {
			return false, &arium.UnexpectedContentTypeError{Operation: "is-empty", Expected: "boolean", Got: fmt.Sprintf("%T", value)}
		}

		c.opts.Logger.Info("Checked collection", c.fields("", "empty", empty))

		return empty, nil
	}, "is-empty", "")(ctx)
}

// GetDescription implements arium.AssetsClient.GetDescription.
func (c *AssetsClient) GetDescription(ctx context.Context, assetID string) (string, error) {
	return handled(c, func(ctx context.Context) (string, error) {
		err := requireID(assetID)
		if err != nil {
			return "", err
		}

		content, err := c.get(ctx, c.path(constants.PathAsset, assetID))
		if err != nil {
			return "", err
		}

		value, ok := content.Field(constants.FieldDescription)
		if !ok {
			return "", fmt.Errorf("%w: %s", arium.ErrMissingField, constants.FieldDescription)
		}

		c.opts.Logger.Info("Received description", c.fields(assetID))

		return stringField(value, "get-description")
	}, "get-description", assetID)(ctx)
}

func stringField(value interface{}, operation string) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", &arium.UnexpectedContentTypeError{Operation: operation, Expected: "string", Got: fmt.Sprintf("%T", value)}
	}
}

// SetDescription implements arium.AssetsClient.SetDescription.
func (c *AssetsClient) SetDescription(ctx context.Context, assetID, description string) (*arium.Content, error) {
	return handled(c, func(ctx context.Context) (*arium.Content, error) {
		return c.putText(ctx, c.path(constants.PathAssetDescription, assetID), assetID, description, "Updated description")
	}, "set-description", assetID)(ctx)
}

// UpdatePayloadDescription implements arium.AssetsClient.UpdatePayloadDescription.
func (c *AssetsClient) UpdatePayloadDescription(ctx context.Context, assetID, description string) (*arium.Content, error) {
	return handled(c, func(ctx context.Context) (*arium.Content, error) {
		return c.putText(ctx, c.path(constants.PathAssetPayloadDesc, assetID), assetID, description, "Updated payload description")
	}, "update-payload-description", assetID)(ctx)
}

func (c *AssetsClient) putText(ctx context.Context, path, assetID, text, message string) (*arium.Content, error) {
	err := requireID(assetID)
	if err != nil {
		return nil, err
	}

	_, content, err := c.request(ctx, &http.Request{
		Method:      nethttp.MethodPut,
		Path:        path,
		RawBody:     []byte(text),
		ContentType: constants.ContentTypeText,
	}, DefaultDecodeOptions())
	if err != nil {
		return nil, err
	}

	c.opts.Logger.Info(message, c.fields(assetID))

	return content, nil
}

// GetPayloadDescription implements arium.AssetsClient.GetPayloadDescription.
// The platform answers with plain text, a JSON string or an object with a
// description field.
func (c *AssetsClient) GetPayloadDescription(ctx context.Context, assetID string) (string, error) {
	return handled(c, func(ctx context.Context) (string, error) {
		err := requireID(assetID)
		if err != nil {
			return "", err
		}

		content, err := c.get(ctx, c.path(constants.PathAssetPayloadDesc, assetID))
		if err != nil {
			return "", err
		}

		c.opts.Logger.Info("Received payload description", c.fields(assetID))

		if text, ok := content.Text(); ok {
			return text, nil
		}

		if value, ok := content.Field(constants.FieldDescription); ok {
			return stringField(value, "get-payload-description")
		}

		value, _ := content.Value()

		return stringField(value, "get-payload-description")
	}, "get-payload-description", assetID)(ctx)
}

// GetData implements arium.AssetsClient.GetData. The payload is returned
// inline or, when the platform answers with a Location reference, fetched
// from there.
func (c *AssetsClient) GetData(ctx context.Context, assetID string, presigned bool) ([]byte, error) {
	mode := constants.PayloadModeAuto
	if presigned {
		mode = constants.PayloadModePresigned
	}

	return handled(c, func(ctx context.Context) ([]byte, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		query := url.Values{}
		query.Set(constants.QueryPayloadMode, mode)

		resp, err := c.httpClient.Get(ctx, c.path(constants.PathAssetPayload, assetID), query)
		if err != nil {
			return nil, err
		}

		opts := DefaultDecodeOptions()
		opts.Load = false
		opts.GetFromLocation = resp.Header.Get(constants.HeaderLocation) != ""

		content, err := c.decoder.Decode(ctx, resp, opts)
		if err != nil {
			return nil, err
		}

		source := "direct"
		if opts.GetFromLocation {
			source = "presigned"
		}

		c.opts.Logger.Info("Received data payload", c.fields(assetID, "source", source))

		data, _ := content.Bytes()

		return data, nil
	}, "get-data", assetID)(ctx)
}

// ListReports implements arium.AssetsClient.ListReports.
func (c *AssetsClient) ListReports(ctx context.Context, assetID string) (*arium.Content, error) {
	return handled(c, func(ctx context.Context) (*arium.Content, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		content, err := c.get(ctx, c.path(constants.PathAssetReports, assetID))
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info("Got reports", c.fields(assetID))

		return content, nil
	}, "list-reports", assetID)(ctx)
}

// GetReport implements arium.AssetsClient.GetReport. Nil options unzip
// archives and parse JSON. Unzip is only applied to ".zip" files.
func (c *AssetsClient) GetReport(ctx context.Context, assetID, file string, opts *arium.ReportOptions) (*arium.Content, error) {
	if opts == nil {
		opts = &arium.ReportOptions{Unzip: true}
	}

	decode := DefaultDecodeOptions()
	decode.CSV = opts.CSV
	decode.Unzip = opts.Unzip && strings.HasSuffix(file, constants.ZipExtension)
	decode.Load = !opts.Raw

	return handled(c, func(ctx context.Context) (*arium.Content, error) {
		err := requireID(assetID)
		if err != nil {
			return nil, err
		}

		_, content, err := c.request(ctx, &http.Request{
			Method: nethttp.MethodGet,
			Path:   c.path(constants.PathAssetReport, assetID, file),
		}, decode)
		if err != nil {
			return nil, err
		}

		c.opts.Logger.Info("Got report", c.fields(assetID, "file", file))

		return content, nil
	}, "get-report", assetID)(ctx)
}

// Import implements arium.AssetsClient.Import. The file at path is read from
// the client's filesystem and uploaded to the reference the platform
// returns. With wait the import job is polled and its final record, which
// lists the imported ids, is returned.
func (c *AssetsClient) Import(ctx context.Context, path string, wait bool) (*arium.Job, error) {
	importAssets := WithRetry(func(ctx context.Context) (*arium.Job, error) {
		return c.importAssets(ctx, path, wait)
	}, c.opts.retry("import"))

	return handled(c, importAssets, "import", path)(ctx)
}

func (c *AssetsClient) importAssets(ctx context.Context, path string, wait bool) (*arium.Job, error) {
	noLocation := DefaultDecodeOptions()
	noLocation.GetFromLocation = false

	resp, content, err := c.request(ctx, &http.Request{
		Method: nethttp.MethodPost,
		Path:   c.path(constants.PathAssetsImport),
	}, noLocation)
	if err != nil {
		return nil, err
	}

	job, err := decodeJob(content, "import")
	if err != nil {
		return nil, err
	}

	location := resp.Header.Get(constants.HeaderLocation)
	if location == "" {
		return nil, arium.ErrNoLocation
	}

	data, err := afero.ReadFile(c.opts.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	err = c.upload(ctx, location, bytes.TrimSpace(data))
	if err != nil {
		return nil, err
	}

	c.opts.Logger.Info("Import request started", c.fields(job.ID))

	if !wait {
		return job, nil
	}

	return c.pollJob(ctx, arium.JobKindImport, job.ID)
}

// CopyWorkspace implements arium.AssetsClient.CopyWorkspace. An empty
// assetIDs copies the whole collection.
func (c *AssetsClient) CopyWorkspace(ctx context.Context, fromTenant, toTenant string, assetIDs []string, wait bool) (*arium.Job, error) {
	return handled(c, func(ctx context.Context) (*arium.Job, error) {
		if fromTenant == "" || toTenant == "" {
			return nil, arium.ErrTenantRequired
		}

		request := map[string]interface{}{
			"from_tenant": fromTenant,
			"to_tenant":   toTenant,
		}

		if len(assetIDs) > 0 {
			request["assets"] = assetIDs
		}

		_, content, err := c.request(ctx, &http.Request{
			Method: nethttp.MethodPost,
			Path:   c.path(constants.PathAssetsCopy),
			Body:   request,
		}, DefaultDecodeOptions())
		if err != nil {
			return nil, err
		}

		job, err := decodeJob(content, "copy-workspace")
		if err != nil {
			return nil, err
		}

		if !wait {
			return job, nil
		}

		return c.pollJob(ctx, arium.JobKindCopy, job.ID)
	}, "copy-workspace", fromTenant+"->"+toTenant)(ctx)
}

// Export implements arium.AssetsClient.Export. The archive is written to
// OutputFolder/Name on the client's filesystem and Name is returned.
func (c *AssetsClient) Export(ctx context.Context, assetIDs []string, opts *arium.ExportOptions) (string, error) {
	name := constants.ExportNamePrefix + c.collection
	folder := ""

	if opts != nil {
		if opts.Name != "" {
			name = opts.Name
		}

		folder = opts.OutputFolder
	}

	return handled(c, func(ctx context.Context) (string, error) {
		if assetIDs == nil {
			assetIDs = []string{}
		}

		raw := DefaultDecodeOptions()
		raw.Load = false

		_, content, err := c.request(ctx, &http.Request{
			Method: nethttp.MethodPost,
			Path:   c.path(constants.PathAssetsExport),
			Body:   assetIDs,
		}, raw)
		if err != nil {
			return "", err
		}

		data, _ := content.Bytes()

		err = afero.WriteFile(c.opts.Fs, filepath.Join(folder, name), data, constants.ExportFilePerm)
		if err != nil {
			return "", fmt.Errorf("writing export: %w", err)
		}

		c.opts.Logger.Info("Exported assets", c.fields("", "folder", folder, "file", name))

		return name, nil
	}, "export", "")(ctx)
}

// PollUpload implements arium.AssetsClient.PollUpload and returns the final
// asset status.
func (c *AssetsClient) PollUpload(ctx context.Context, assetID string) (string, error) {
	return handled(c, func(ctx context.Context) (string, error) {
		asset, err := c.pollUpload(ctx, assetID)
		if err != nil {
			return "", err
		}

		return asset.Status, nil
	}, "poll-upload", assetID)(ctx)
}

func (c *AssetsClient) pollUpload(ctx context.Context, assetID string) (*arium.Asset, error) {
	poller := &Poller[*arium.Asset]{
		Name: "upload " + c.collection + "/" + assetID,
		Check: func(ctx context.Context) (*arium.Asset, error) {
			return c.fetchAsset(ctx, assetID)
		},
		Pending:  (*arium.Asset).Pending,
		Interval: c.opts.UploadPollInterval,
		Timeout:  c.opts.PollTimeout,
		Sleep:    c.opts.Sleep,
		Logger:   c.opts.Logger,
		OnDone: func(ctx context.Context, asset *arium.Asset) {
			c.publish(ctx, arium.WorkflowUpload, assetID, asset.Status)
		},
	}

	return poller.Run(ctx)
}

// PollImport implements arium.AssetsClient.PollImport.
func (c *AssetsClient) PollImport(ctx context.Context, jobID string) (*arium.Job, error) {
	return handled(c, func(ctx context.Context) (*arium.Job, error) {
		return c.pollJob(ctx, arium.JobKindImport, jobID)
	}, "poll-import", jobID)(ctx)
}

// PollCopy implements arium.AssetsClient.PollCopy.
func (c *AssetsClient) PollCopy(ctx context.Context, jobID string) (*arium.Job, error) {
	return handled(c, func(ctx context.Context) (*arium.Job, error) {
		return c.pollJob(ctx, arium.JobKindCopy, jobID)
	}, "poll-copy", jobID)(ctx)
}

// pollJob polls a copy or import job while it is uploading or processing.
func (c *AssetsClient) pollJob(ctx context.Context, kind arium.JobKind, jobID string) (*arium.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: %s job", arium.ErrMissingField, kind)
	}

	decode := DefaultDecodeOptions()
	decode.Accept = []int{nethttp.StatusOK, nethttp.StatusAccepted, nethttp.StatusProcessing}

	workflow := arium.WorkflowCopy
	if kind == arium.JobKindImport {
		workflow = arium.WorkflowImport
	}

	poller := &Poller[*arium.Job]{
		Name: string(kind) + " " + c.collection + "/" + jobID,
		Check: func(ctx context.Context) (*arium.Job, error) {
			_, content, err := c.request(ctx, &http.Request{
				Method: nethttp.MethodGet,
				Path:   c.path(constants.PathAssetsJob, string(kind), jobID),
			}, decode)
			if err != nil {
				return nil, err
			}

			return decodeJob(content, "poll-"+string(kind))
		},
		Pending: func(job *arium.Job) bool {
			return job.State == constants.StateUploading || job.State == constants.StateProcessing
		},
		Interval: c.opts.JobPollInterval,
		Timeout:  c.opts.PollTimeout,
		Sleep:    c.opts.Sleep,
		Logger:   c.opts.Logger,
		OnDone: func(ctx context.Context, job *arium.Job) {
			c.publish(ctx, workflow, jobID, job.State)
		},
	}

	return poller.Run(ctx)
}

func decodeJob(content *arium.Content, operation string) (*arium.Job, error) {
	if _, ok := content.Map(); !ok {
		return nil, &arium.UnexpectedContentTypeError{Operation: operation, Expected: "object", Got: content.Shape()}
	}

	var job arium.Job

	err := content.Decode(&job)
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// publish reports a finished workflow. Failures are logged only.
func (c *AssetsClient) publish(ctx context.Context, kind arium.WorkflowKind, id, state string) {
	publishEvent(ctx, c.opts, arium.WorkflowEvent{
		Kind:        kind,
		Collection:  c.collection,
		ID:          id,
		State:       state,
		CompletedAt: time.Now().UTC(),
	})
}

func publishEvent(ctx context.Context, opts *Options, event arium.WorkflowEvent) {
	if opts.Events == nil {
		return
	}

	err := opts.Events.Publish(ctx, event)
	if err != nil {
		opts.Logger.Warn("Failed to publish workflow event", map[string]interface{}{
			"kind":  string(event.Kind),
			"id":    event.ID,
			"error": err.Error(),
		})
	}
}
