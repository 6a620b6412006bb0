package arium

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ContentKind tags which variant a Content holds.
type ContentKind int

// Content kinds.
const (
	KindRawBytes ContentKind = iota + 1
	KindText
	KindStructured
	KindTabular
)

// String returns the name of the kind.
func (k ContentKind) String() string {
	switch k {
	case KindRawBytes:
		return "raw-bytes"
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	case KindTabular:
		return "tabular"
	default:
		return "unknown"
	}
}

// Content is a decoded platform response. It holds exactly one of raw bytes,
// text, a structured JSON value or tabular rows. Content is immutable: every
// accessor hands out a copy.
type Content struct {
	kind  ContentKind
	raw   []byte
	text  string
	value interface{}
	rows  [][]string
}

// NewRawBytes creates RawBytes content.
func NewRawBytes(data []byte) *Content {
	return &Content{kind: KindRawBytes, raw: append([]byte{}, data...)}
}

// NewText creates Text content.
func NewText(text string) *Content {
	return &Content{kind: KindText, text: text}
}

// NewStructured creates Structured content from a JSON-like value.
func NewStructured(value interface{}) *Content {
	return &Content{kind: KindStructured, value: copyValue(value)}
}

// NewTabular creates Tabular content from parsed rows.
func NewTabular(rows [][]string) *Content {
	return &Content{kind: KindTabular, rows: copyRows(rows)}
}

// Kind returns the variant held.
func (c *Content) Kind() ContentKind {
	return c.kind
}

// Bytes returns the raw payload of RawBytes content.
func (c *Content) Bytes() ([]byte, bool) {
	if c.kind != KindRawBytes {
		return nil, false
	}

	return append([]byte{}, c.raw...), true
}

// Text returns the decoded text of Text content.
func (c *Content) Text() (string, bool) {
	if c.kind != KindText {
		return "", false
	}

	return c.text, true
}

// Value returns the parsed value of Structured content.
func (c *Content) Value() (interface{}, bool) {
	if c.kind != KindStructured {
		return nil, false
	}

	return copyValue(c.value), true
}

// Rows returns the parsed rows of Tabular content.
func (c *Content) Rows() ([][]string, bool) {
	if c.kind != KindTabular {
		return nil, false
	}

	return copyRows(c.rows), true
}

// Map returns Structured content that is a JSON object.
func (c *Content) Map() (map[string]interface{}, bool) {
	if c.kind != KindStructured {
		return nil, false
	}

	m, ok := c.value.(map[string]interface{})
	if !ok {
		return nil, false
	}

	out, _ := copyValue(m).(map[string]interface{})

	return out, true
}

// List returns Structured content that is a JSON array.
func (c *Content) List() ([]interface{}, bool) {
	if c.kind != KindStructured {
		return nil, false
	}

	l, ok := c.value.([]interface{})
	if !ok {
		return nil, false
	}

	out, _ := copyValue(l).([]interface{})

	return out, true
}

// Field returns one top-level field of a Structured object.
func (c *Content) Field(name string) (interface{}, bool) {
	m, ok := c.value.(map[string]interface{})
	if c.kind != KindStructured || !ok {
		return nil, false
	}

	v, ok := m[name]
	if !ok {
		return nil, false
	}

	return copyValue(v), true
}

// Shape describes the content for error messages: the kind, and for
// Structured content the JSON type of the value.
func (c *Content) Shape() string {
	if c.kind != KindStructured {
		return c.kind.String()
	}

	switch c.value.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", c.value)
	}
}

// Decode decodes Structured content into out, a pointer to a struct, map or
// slice, using mapstructure tags.
func (c *Content) Decode(out interface{}) error {
	if c.kind != KindStructured {
		return fmt.Errorf("%w: got %s", ErrNotStructured, c.kind)
	}

	return DecodeValue(c.value, out)
}

// Interface returns the held value as a plain Go value for rendering:
// []byte, string, the structured value or [][]string.
func (c *Content) Interface() interface{} {
	switch c.kind {
	case KindRawBytes:
		return append([]byte{}, c.raw...)
	case KindText:
		return c.text
	case KindStructured:
		return copyValue(c.value)
	case KindTabular:
		return copyRows(c.rows)
	default:
		return nil
	}
}

// DecodeValue decodes a JSON-like value into out using mapstructure tags.
// Numbers are weakly converted so ids and versions may arrive either as
// strings or numbers.
func DecodeValue(value interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	err = decoder.Decode(value)
	if err != nil {
		return fmt.Errorf("decoding content: %w", err)
	}

	return nil
}

func copyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = copyValue(item)
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}

		return out
	default:
		return v
	}
}

func copyRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string{}, row...)
	}

	return out
}
