package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

func TestOutputFormat(t *testing.T) {
	resetViper(t)

	for _, format := range []string{"table", "json", "yaml"} {
		viper.Set("output", format)

		got, err := outputFormat()
		require.NoError(t, err)
		assert.Equal(t, format, got)
	}

	viper.Set("output", "xml")

	_, err := outputFormat()
	require.ErrorIs(t, err, constants.ErrInvalidOutputFormat)

	viper.Set("output", "")

	got, err := outputFormat()
	require.NoError(t, err)
	assert.Contains(t, []string{constants.FormatTable, constants.FormatJSON}, got)
}

func TestRenderAsset_MergesExtra(t *testing.T) {
	resetViper(t)
	viper.Set("output", "yaml")

	var buf bytes.Buffer

	asset := &arium.Asset{ID: "p1", Name: "Book", Version: "2", Extra: map[string]interface{}{"owner": "ops"}}
	require.NoError(t, renderAsset(&buf, asset))

	var view map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, "p1", view["id"])
	assert.Equal(t, "Book", view["name"])
	assert.Equal(t, "2", view["version"])
	assert.Equal(t, "ops", view["owner"])
	assert.NotContains(t, view, "status")
}

func TestRenderAssets_Table(t *testing.T) {
	resetViper(t)
	viper.Set("output", "table")

	var buf bytes.Buffer

	require.NoError(t, renderAssets(&buf, []arium.Asset{{ID: "p1", Name: "Book", Status: "ready"}}))
	assert.Contains(t, buf.String(), "p1")
	assert.Contains(t, buf.String(), "Book")
	assert.Contains(t, buf.String(), constants.NotAvailable)
}

func TestRenderJob(t *testing.T) {
	resetViper(t)
	viper.Set("output", "json")

	var buf bytes.Buffer

	require.NoError(t, renderJob(&buf, &arium.Job{ID: "j1", Status: "finished", IDs: []string{"a", "b"}}))

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, "j1", view["id"])
	assert.Equal(t, "finished", view["status"])
	assert.Equal(t, []interface{}{"a", "b"}, view["ids"])
	assert.NotContains(t, view, "state")
}

func TestRenderContent(t *testing.T) {
	resetViper(t)
	viper.Set("output", "json")

	var buf bytes.Buffer

	require.NoError(t, renderContent(&buf, arium.NewRawBytes([]byte{0x01, 0x02})))
	assert.Equal(t, []byte{0x01, 0x02}, buf.Bytes())

	buf.Reset()
	require.NoError(t, renderContent(&buf, arium.NewText("hello")))
	assert.Equal(t, "hello\n", buf.String())

	buf.Reset()
	require.NoError(t, renderContent(&buf, arium.NewTabular([][]string{{"a", "b"}, {"1", "2"}})))
	assert.JSONEq(t, `[["a","b"],["1","2"]]`, buf.String())

	buf.Reset()
	require.NoError(t, renderContent(&buf, arium.NewStructured(map[string]interface{}{"k": "v"})))
	assert.JSONEq(t, `{"k":"v"}`, buf.String())
}

func TestRenderRows_Table(t *testing.T) {
	resetViper(t)
	viper.Set("output", "table")

	var buf bytes.Buffer

	require.NoError(t, renderRows(&buf, [][]string{{"name", "value"}, {"alpha", "42"}}))
	assert.Contains(t, buf.String(), "alpha")
	assert.Contains(t, buf.String(), "42")
}
