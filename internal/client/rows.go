package client

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/fivetwenty-io/arium-client/internal/constants"
)

// csvRows reads delimited rows one at a time. It implements
// arium.RowIterator.
type csvRows struct {
	reader *csv.Reader
	row    []string
	err    error
	done   bool
}

func newCSVRows(r io.Reader, delimiter rune) *csvRows {
	if delimiter == 0 {
		delimiter = constants.DefaultDelimiter
	}

	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return &csvRows{reader: reader}
}

// Next advances to the next row.
func (r *csvRows) Next() bool {
	if r.done {
		return false
	}

	row, err := r.reader.Read()
	if err != nil {
		r.done = true
		r.row = nil

		if !errors.Is(err, io.EOF) {
			r.err = err
		}

		return false
	}

	r.row = row

	return true
}

// Row returns the current row.
func (r *csvRows) Row() []string {
	return r.row
}

// Err returns the first parse error, if any.
func (r *csvRows) Err() error {
	return r.err
}
