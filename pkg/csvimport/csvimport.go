// Package csvimport parses CSV files of tasks for bulk import.
//
// The first row is the header. Header names are normalized to snake case, so
// "Command", "command" and " COMMAND " all name the command column. Each data
// row is parsed independently: a malformed row is reported on that row and
// never stops the rest of the file from being read.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
)

// Normalized names of the columns a task row is read from.
const (
	ColumnCommand = "command"
	ColumnAction  = "action"
	ColumnStatus  = "status"
)

// ErrInvalidFile is returned when a file cannot be imported at all.
var ErrInvalidFile = errors.New("invalid csv file")

// Record is the task data read from one row.
type Record struct {
	Command string `mapstructure:"command"`
	Action  string `mapstructure:"action"`
	Status  string `mapstructure:"status"`
}

// Row is one data row of the file.
type Row struct {
	// Number is the 1-based position of the row among data rows.
	Number int

	Record Record

	// Err is set when the row could not be read into a record.
	Err error
}

// File is a parsed CSV file.
type File struct {
	// Headers are the normalized header names in file order.
	Headers []string

	// IgnoredColumns are headers that are not part of a record.
	IgnoredColumns []string

	Rows []Row
}

// Parse reads a CSV file of tasks. It returns an error wrapping
// ErrInvalidFile if the file is empty, has no data rows, or has no command
// column.
func Parse(r io.Reader) (*File, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error reading header: %v", ErrInvalidFile, err)
	}

	headers := normalizeHeaders(header)
	f := &File{Headers: headers}

	present := map[string]interface{}{}
	for _, h := range headers {
		if h != "" {
			present[h] = ""
		}
	}
	if _, ok := present[ColumnCommand]; !ok {
		return nil, fmt.Errorf("%w: missing %q column", ErrInvalidFile, ColumnCommand)
	}

	_, unused, err := decode(present)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	f.IgnoredColumns = unused

	for n := 1; ; n++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		row := Row{Number: n}

		var parseErr *csv.ParseError
		switch {
		case errors.As(err, &parseErr):
			row.Err = fmt.Errorf("malformed row: %v", parseErr.Err)
		case err != nil:
			return nil, fmt.Errorf("error reading row %d: %w", n, err)
		case len(fields) != len(headers):
			row.Err = fmt.Errorf(
				"row has %d fields, header has %d", len(fields), len(headers))
		default:
			row.Record, row.Err = parseRecord(headers, fields)
		}

		f.Rows = append(f.Rows, row)
	}

	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidFile)
	}

	return f, nil
}

// Failed returns the number of rows that could not be parsed.
func (f *File) Failed() int {
	n := 0
	for _, r := range f.Rows {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// normalizeHeaders converts headers to snake case. The first occurrence of a
// duplicate header wins; later ones are blanked.
func normalizeHeaders(header []string) []string {
	seen := make(map[string]bool, len(header))
	result := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strcase.ToSnake(strings.TrimSpace(h))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		result[i] = h
	}
	return result
}

// parseRecord maps the fields of one row onto a Record.
func parseRecord(headers, fields []string) (Record, error) {
	values := make(map[string]interface{}, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		values[h] = strings.TrimSpace(fields[i])
	}

	rec, _, err := decode(values)
	if err != nil {
		return Record{}, err
	}
	if rec.Command == "" {
		return Record{}, fmt.Errorf("%s is required", ColumnCommand)
	}
	return rec, nil
}

// decode maps values onto a Record and returns the keys that were not used.
func decode(values map[string]interface{}) (Record, []string, error) {
	var rec Record
	var md mapstructure.Metadata

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Record{}, nil, fmt.Errorf("error creating decoder: %w", err)
	}

	if err := decoder.Decode(values); err != nil {
		return Record{}, nil, fmt.Errorf("error decoding row: %w", err)
	}

	sort.Strings(md.Unused)
	return rec, md.Unused, nil
}
