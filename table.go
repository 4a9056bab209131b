package csvtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

var (
	// ErrMissingField is returned when a row has no value for a field the operation needs.
	ErrMissingField = errors.New("csvtable: missing field")
	// ErrNoFields is returned when writing a table without any field names.
	ErrNoFields = errors.New("csvtable: no field names")
)

// Row maps field names to values. On read every value is the text found in the file.
type Row map[string]string

// Table is the list form of a delimited file: its header and its data rows in file order.
type Table struct {
	Fields []string
	Rows   []Row
}

// FieldError reports the row and field an operation failed on.
type FieldError struct {
	// Row is the zero-based position of the row in the table.
	Row   int
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csvtable: row %d: field %q: %v", e.Row, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Index builds the keyed form of the table: each row stored under its value
// at keyfield. Later rows replace earlier rows with the same key. A short row
// without a value for keyfield is stored under "".
//
// Index fails with ErrMissingField when keyfield is not one of t.Fields and
// the table has rows.
func (t *Table) Index(keyfield string) (map[string]Row, error) {
	out := make(map[string]Row, len(t.Rows))
	if len(t.Rows) == 0 {
		return out, nil
	}
	if !slices.Contains(t.Fields, keyfield) {
		return nil, &FieldError{Row: 0, Field: keyfield, Err: ErrMissingField}
	}
	for _, row := range t.Rows {
		out[row[keyfield]] = row
	}
	return out, nil
}

// DecodeHeader reads only the header record from src. It returns nil when src
// holds no records.
func DecodeHeader(src io.Reader, separator, quote byte, opts ...Option) ([]string, error) {
	r := newTableReader(src, separator, quote, newOptions(opts))
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return header, nil
}

// DecodeTable reads a header and all data rows from src.
//
// Data records narrower than the header leave the trailing fields out of the
// Row; cells beyond the header width are dropped. WithStrictFieldCount turns
// both cases into errors. A quote inside an unquoted field is kept as data
// unless WithStrictQuotes is given.
func DecodeTable(src io.Reader, separator, quote byte, opts ...Option) (*Table, error) {
	o := newOptions(opts)
	r := newTableReader(src, separator, quote, o)

	header, err := r.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	if o.strict {
		r.FieldsPerRecord = len(header)
	}

	t := &Table{Fields: header}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != len(header) {
			o.logger.Warn("ragged record",
				"line", r.RecordLine(), "fields", len(record), "header", len(header))
		}

		row := make(Row, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = value
		}
		t.Rows = append(t.Rows, row)
	}

	o.logger.Debug("decoded table", "fields", len(t.Fields), "rows", len(t.Rows))
	return t, nil
}

func newTableReader(src io.Reader, separator, quote byte, o *options) *Reader {
	r := NewReader(src)
	r.Comma = separator
	r.Quote = quote
	r.FieldsPerRecord = -1
	r.LazyQuotes = !o.strictQuotes
	return r
}

// EncodeRows writes a header built from fieldnames followed by every row
// projected onto fieldnames, in order. Keys outside fieldnames are ignored;
// a row lacking one of fieldnames fails with ErrMissingField.
func EncodeRows(dst io.Writer, rows []Row, fieldnames []string, separator, quote byte, opts ...Option) error {
	return encode(dst, len(rows), fieldnames, separator, quote, newOptions(opts),
		func(i int, field string) (string, bool, bool) {
			value, ok := rows[i][field]
			return value, isNumeric(value), ok
		})
}

// EncodeRecords is EncodeRows for typed values. Go integer, floating point
// and bool values count as numbers for QuoteNonNumeric whatever their text;
// everything else is text.
func EncodeRecords(dst io.Writer, records []map[string]any, fieldnames []string, separator, quote byte, opts ...Option) error {
	return encode(dst, len(records), fieldnames, separator, quote, newOptions(opts),
		func(i int, field string) (string, bool, bool) {
			v, ok := records[i][field]
			if !ok {
				return "", false, false
			}
			value, numeric := formatValue(v)
			return value, numeric, true
		})
}

type cellFunc func(row int, field string) (value string, numeric, ok bool)

func encode(dst io.Writer, n int, fieldnames []string, separator, quote byte, o *options, cell cellFunc) error {
	if len(fieldnames) == 0 {
		return ErrNoFields
	}

	w := NewWriter(dst)
	w.Comma = separator
	w.Quote = quote
	w.UseCRLF = o.crlf
	w.Policy = o.quoting
	w.Columns = o.columnPolicies(fieldnames)

	// Field names are text even when they look like numbers.
	if err := w.writeFields(fieldnames, make([]bool, len(fieldnames))); err != nil {
		return fmt.Errorf("csvtable: header: %w", err)
	}

	values := make([]string, len(fieldnames))
	numeric := make([]bool, len(fieldnames))
	for i := 0; i < n; i++ {
		for j, field := range fieldnames {
			value, isNum, ok := cell(i, field)
			if !ok {
				return &FieldError{Row: i, Field: field, Err: ErrMissingField}
			}
			values[j] = value
			numeric[j] = isNum
		}
		if err := w.writeFields(values, numeric); err != nil {
			return fmt.Errorf("csvtable: row %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	o.logger.Debug("encoded table", "fields", len(fieldnames), "rows", n)
	return nil
}

func formatValue(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, false
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case fmt.Stringer:
		return v.String(), false
	default:
		return fmt.Sprint(v), false
	}
}
