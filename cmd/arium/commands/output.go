package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

const defaultYAMLIndent = 2

func validFormat(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	default:
		return false
	}
}

// outputFormat returns the requested format. Without one, tables are used on
// a terminal and JSON otherwise.
func outputFormat() (string, error) {
	format := viper.GetString("output")
	if format == "" {
		format = constants.FormatJSON
		if term.IsTerminal(int(os.Stdout.Fd())) { // #nosec G115 -- file descriptors fit in int
			format = constants.FormatTable
		}
	}

	if !validFormat(format) {
		return "", fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}

	return format, nil
}

func renderJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// render writes data as JSON or YAML, or calls table for the table format.
func render(w io.Writer, data interface{}, table func(*tablewriter.Table)) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		return renderJSON(w, data)
	case constants.FormatYAML:
		return renderYAML(w, data)
	default:
		t := tablewriter.NewWriter(w)
		table(t)

		err = t.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func cells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}

func renderAssets(w io.Writer, assets []arium.Asset) error {
	return render(w, assetsView(assets), func(table *tablewriter.Table) {
		table.Header("ID", "Name", "Status", "Version", "Locked")

		for _, asset := range assets {
			_ = table.Append(asset.ID, asset.Name, orNA(asset.Status), orNA(asset.Version), fmt.Sprintf("%t", asset.Locked))
		}
	})
}

func renderAsset(w io.Writer, asset *arium.Asset) error {
	return render(w, assetView(*asset), func(table *tablewriter.Table) {
		table.Header("Property", "Value")
		_ = table.Append("ID", asset.ID)
		_ = table.Append("Name", orNA(asset.Name))
		_ = table.Append("Status", orNA(asset.Status))
		_ = table.Append("Version", orNA(asset.Version))
		_ = table.Append("Description", orNA(asset.Description))
		_ = table.Append("Locked", fmt.Sprintf("%t", asset.Locked))

		for _, key := range sortedKeys(asset.Extra) {
			_ = table.Append(key, fmt.Sprint(asset.Extra[key]))
		}
	})
}

// assetView merges the modelled fields with Extra for JSON and YAML output.
func assetView(asset arium.Asset) map[string]interface{} {
	view := make(map[string]interface{}, len(asset.Extra)+6)
	for key, value := range asset.Extra {
		view[key] = value
	}

	view["id"] = asset.ID
	view["locked"] = asset.Locked

	for key, value := range map[string]string{
		"name":        asset.Name,
		"status":      asset.Status,
		"version":     asset.Version,
		"description": asset.Description,
	} {
		if value != "" {
			view[key] = value
		}
	}

	return view
}

func assetsView(assets []arium.Asset) []map[string]interface{} {
	views := make([]map[string]interface{}, 0, len(assets))
	for _, asset := range assets {
		views = append(views, assetView(asset))
	}

	return views
}

func renderJob(w io.Writer, job *arium.Job) error {
	view := map[string]interface{}{"id": job.ID}
	for key, value := range job.Extra {
		view[key] = value
	}

	if job.State != "" {
		view["state"] = job.State
	}

	if job.Status != "" {
		view["status"] = job.Status
	}

	if len(job.IDs) > 0 {
		view["ids"] = job.IDs
	}

	return render(w, view, func(table *tablewriter.Table) {
		table.Header("Property", "Value")
		_ = table.Append("ID", job.ID)
		_ = table.Append("State", orNA(job.State))
		_ = table.Append("Status", orNA(job.Status))
		_ = table.Append("Asset IDs", orNA(strings.Join(job.IDs, ", ")))
	})
}

// renderContent writes decoded content. Raw bytes and text are written as
// they are, rows become a table with the first row as header and structured
// values are rendered as JSON unless YAML was requested.
func renderContent(w io.Writer, content *arium.Content) error {
	switch content.Kind() {
	case arium.KindRawBytes:
		data, _ := content.Bytes()

		_, err := w.Write(data)
		if err != nil {
			return fmt.Errorf("writing content: %w", err)
		}

		return nil
	case arium.KindText:
		text, _ := content.Text()

		_, err := fmt.Fprintln(w, text)
		if err != nil {
			return fmt.Errorf("writing content: %w", err)
		}

		return nil
	case arium.KindTabular:
		rows, _ := content.Rows()

		return renderRows(w, rows)
	default:
		value, _ := content.Value()

		format, err := outputFormat()
		if err != nil {
			return err
		}

		if format == constants.FormatYAML {
			return renderYAML(w, value)
		}

		return renderJSON(w, value)
	}
}

func renderRows(w io.Writer, rows [][]string) error {
	return render(w, rows, func(table *tablewriter.Table) {
		if len(rows) == 0 {
			return
		}

		table.Header(cells(rows[0])...)

		for _, row := range rows[1:] {
			_ = table.Append(cells(row)...)
		}
	})
}

func orNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
