package client

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalhttp "github.com/fivetwenty-io/arium-client/internal/http"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// fakeLocations serves Location references from memory.
type fakeLocations struct {
	bodies   map[string][]byte
	failures int
	calls    []string
}

func (f *fakeLocations) GetURL(ctx context.Context, ref string) (*internalhttp.Response, error) {
	f.calls = append(f.calls, ref)

	if f.failures > 0 {
		f.failures--

		return nil, connectionError()
	}

	return &internalhttp.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: f.bodies[ref], URL: ref}, nil
}

func newTestDecoder(locations LocationGetter) (*Decoder, *recordingSleeper) {
	sleeper := &recordingSleeper{}

	retry := DefaultRetryOptions()
	retry.Sleep = sleeper.Sleep

	return NewDecoder(locations, retry, nil), sleeper
}

func response(status int, body []byte) *internalhttp.Response {
	return &internalhttp.Response{StatusCode: status, Header: http.Header{}, Body: body, URL: "/workspace1/portfolios/assets"}
}

func zipped(t *testing.T, name string, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	archive := zip.NewWriter(&buf)
	entry, err := archive.Create(name)
	require.NoError(t, err)

	_, err = entry.Write(data)
	require.NoError(t, err)
	require.NoError(t, archive.Close())

	return buf.Bytes()
}

func TestDecoder_RawBytesPassthrough(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})

	bodies := [][]byte{
		[]byte(`{"id":"a1"}`),
		[]byte("not json at all"),
		{0x00, 0xff, 0x10},
		{},
	}

	for _, body := range bodies {
		opts := DefaultDecodeOptions()
		opts.Load = false

		content, err := decoder.Decode(context.Background(), response(http.StatusOK, body), opts)
		require.NoError(t, err)
		assert.Equal(t, arium.KindRawBytes, content.Kind())

		data, ok := content.Bytes()
		require.True(t, ok)
		assert.Equal(t, body, data)
	}
}

func TestDecoder_StructuredMatchesJSON(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})

	bodies := []string{
		`{"count":2,"total":10,"content":[{"id":"a"},{"id":"b"}]}`,
		`[1,"two",null,true]`,
		`"just a string"`,
		`3.5`,
	}

	for _, body := range bodies {
		content, err := decoder.Decode(context.Background(), response(http.StatusOK, []byte(body)), DefaultDecodeOptions())
		require.NoError(t, err)
		assert.Equal(t, arium.KindStructured, content.Kind())

		var expected interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &expected))

		value, ok := content.Value()
		require.True(t, ok)
		assert.Equal(t, expected, value)
	}
}

func TestDecoder_MalformedJSONDegradesToText(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})

	for _, body := range []string{"{broken", "plain text", ""} {
		content, err := decoder.Decode(context.Background(), response(http.StatusOK, []byte(body)), DefaultDecodeOptions())
		require.NoError(t, err)
		assert.Equal(t, arium.KindText, content.Kind())

		text, ok := content.Text()
		require.True(t, ok)
		assert.Equal(t, body, text)
	}
}

func TestDecoder_InvalidUTF8TextIsRepaired(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})

	content, err := decoder.Decode(context.Background(), response(http.StatusOK, []byte("\xff\xfex")), DefaultDecodeOptions())
	require.NoError(t, err)

	text, ok := content.Text()
	require.True(t, ok)
	assert.Equal(t, "\uFFFDx", text)
	assert.True(t, utf8.ValidString(text))
}

func TestDecoder_NoContentIsText(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})

	content, err := decoder.Decode(context.Background(), response(http.StatusNoContent, nil), DefaultDecodeOptions())
	require.NoError(t, err)

	text, ok := content.Text()
	require.True(t, ok)
	assert.Empty(t, text)
}

func TestDecoder_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	decoder, sleeper := newTestDecoder(&fakeLocations{})

	for _, status := range []int{http.StatusCreated, http.StatusAccepted, http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		resp := response(status, []byte(`{"message":"nope"}`))

		content, err := decoder.Decode(context.Background(), resp, DefaultDecodeOptions())
		require.Error(t, err)
		assert.Nil(t, content)

		var statusErr *arium.UnexpectedStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, status, statusErr.StatusCode)
		assert.Equal(t, resp.URL, statusErr.Endpoint)
		assert.JSONEq(t, `{"message":"nope"}`, string(statusErr.Body))
	}

	assert.Empty(t, sleeper.Delays())
}

func TestDecoder_CustomAccept(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})

	opts := DefaultDecodeOptions()
	opts.Accept = []int{http.StatusOK, http.StatusAccepted, http.StatusProcessing}

	content, err := decoder.Decode(context.Background(), response(http.StatusAccepted, []byte(`{"state":"processing"}`)), opts)
	require.NoError(t, err)

	state, ok := content.Field("state")
	require.True(t, ok)
	assert.Equal(t, "processing", state)

	_, err = decoder.Decode(context.Background(), response(http.StatusNoContent, nil), opts)
	require.Error(t, err)
}

func TestDecoder_TabularRoundTrip(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})
	expected := [][]string{{"a", "b"}, {"1", "2"}}
	csvText := []byte("a,b\n1,2\n")

	t.Run("plain", func(t *testing.T) {
		t.Parallel()

		opts := DefaultDecodeOptions()
		opts.CSV = true
		opts.Unzip = false

		content, err := decoder.Decode(context.Background(), response(http.StatusOK, csvText), opts)
		require.NoError(t, err)

		rows, ok := content.Rows()
		require.True(t, ok)
		assert.Equal(t, expected, rows)
	})

	t.Run("zipped", func(t *testing.T) {
		t.Parallel()

		opts := DefaultDecodeOptions()
		opts.CSV = true
		opts.Unzip = true

		content, err := decoder.Decode(context.Background(), response(http.StatusOK, zipped(t, "report.csv", csvText)), opts)
		require.NoError(t, err)

		rows, ok := content.Rows()
		require.True(t, ok)
		assert.Equal(t, expected, rows)
	})

	t.Run("custom delimiter and ragged rows", func(t *testing.T) {
		t.Parallel()

		opts := DefaultDecodeOptions()
		opts.CSV = true
		opts.Unzip = false
		opts.Delimiter = ';'

		content, err := decoder.Decode(context.Background(), response(http.StatusOK, []byte("a;b;c\n1;2\r\n")), opts)
		require.NoError(t, err)

		rows, ok := content.Rows()
		require.True(t, ok)
		assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2"}}, rows)
	})
}

func TestDecoder_BadArchiveDegradesToText(t *testing.T) {
	t.Parallel()

	decoder, _ := newTestDecoder(&fakeLocations{})

	opts := DefaultDecodeOptions()
	opts.CSV = true

	content, err := decoder.Decode(context.Background(), response(http.StatusOK, []byte("a,b\n1,2\n")), opts)
	require.NoError(t, err)

	text, ok := content.Text()
	require.True(t, ok)
	assert.Equal(t, "a,b\n1,2\n", text)
}

func TestDecoder_FollowsLocation(t *testing.T) {
	t.Parallel()

	locations := &fakeLocations{bodies: map[string][]byte{
		"https://storage.example.com/obj?sig=1": []byte(`{"id":"from-location"}`),
	}}
	decoder, _ := newTestDecoder(locations)

	resp := response(http.StatusOK, []byte(`{"id":"inline"}`))
	resp.Header.Set("Location", "https://storage.example.com/obj?sig=1")

	content, err := decoder.Decode(context.Background(), resp, DefaultDecodeOptions())
	require.NoError(t, err)

	id, _ := content.Field("id")
	assert.Equal(t, "from-location", id)
	assert.Equal(t, []string{"https://storage.example.com/obj?sig=1"}, locations.calls)

	opts := DefaultDecodeOptions()
	opts.GetFromLocation = false

	content, err = decoder.Decode(context.Background(), resp, opts)
	require.NoError(t, err)

	id, _ = content.Field("id")
	assert.Equal(t, "inline", id)
	assert.Len(t, locations.calls, 1)
}

func TestDecoder_RetriesLocationConnectionErrors(t *testing.T) {
	t.Parallel()

	locations := &fakeLocations{
		bodies:   map[string][]byte{"/payloads/p1": []byte("raw")},
		failures: 2,
	}
	decoder, sleeper := newTestDecoder(locations)

	resp := response(http.StatusOK, nil)
	resp.Header.Set("Location", "/payloads/p1")

	opts := DefaultDecodeOptions()
	opts.Load = false

	content, err := decoder.Decode(context.Background(), resp, opts)
	require.NoError(t, err)

	data, _ := content.Bytes()
	assert.Equal(t, []byte("raw"), data)
	assert.Len(t, locations.calls, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.Delays())
}

func TestCSVRows_Lazy(t *testing.T) {
	t.Parallel()

	rows := newCSVRows(bytes.NewReader([]byte("h1,h2\nx,\"y,z\"\n")), 0)

	require.True(t, rows.Next())
	assert.Equal(t, []string{"h1", "h2"}, rows.Row())
	require.True(t, rows.Next())
	assert.Equal(t, []string{"x", "y,z"}, rows.Row())
	assert.False(t, rows.Next())
	assert.False(t, rows.Next())
	require.NoError(t, rows.Err())
}
