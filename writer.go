package csvtable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNeedsQuote is returned under QuoteNone when a field cannot be written unquoted.
	ErrNeedsQuote = errors.New("csvtable: field requires quoting")

	errNilWriter      = errors.New("csvtable: writer is nil")
	errWriterNoTarget = errors.New("csvtable: writer destination cannot be nil")
)

// QuotePolicy decides which fields a Writer wraps in quote characters.
type QuotePolicy int

const (
	// QuoteDefault defers to the enclosing policy (column, then Writer, then QuoteMinimal).
	QuoteDefault QuotePolicy = iota
	// QuoteMinimal quotes only fields containing the separator, the quote, CR or LF.
	QuoteMinimal
	// QuoteAll quotes every field.
	QuoteAll
	// QuoteNonNumeric quotes every field that is not a number.
	QuoteNonNumeric
	// QuoteNone never quotes and fails with ErrNeedsQuote when it would have to.
	QuoteNone
)

var quotePolicyNames = map[QuotePolicy]string{
	QuoteDefault:    "default",
	QuoteMinimal:    "minimal",
	QuoteAll:        "all",
	QuoteNonNumeric: "nonnumeric",
	QuoteNone:       "none",
}

func (p QuotePolicy) String() string {
	if name, ok := quotePolicyNames[p]; ok {
		return name
	}
	return "QuotePolicy(" + strconv.Itoa(int(p)) + ")"
}

// ParseQuotePolicy maps a policy name as printed by String back to its value.
func ParseQuotePolicy(name string) (QuotePolicy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range quotePolicyNames {
		if n == name {
			return p, nil
		}
	}
	return QuoteDefault, fmt.Errorf("csvtable: unknown quote policy %q", name)
}

// Writer emits delimited records with configurable separator and quoting rules.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field separator. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// UseCRLF terminates records with \r\n instead of \n.
	UseCRLF bool
	// Policy is the quoting rule for every column without its own entry in Columns.
	Policy QuotePolicy
	// Columns holds positional per-column overrides; QuoteDefault entries inherit Policy.
	Columns []QuotePolicy

	err error
}

// NewWriter creates a buffered Writer on w. It panics if w is nil.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:   bufio.NewWriterSize(w, defaultBufferSize),
		Comma: ',',
		Quote: '"',
	}
}

// Write emits a single record. Under QuoteNonNumeric a field counts as numeric
// when it parses as a finite decimal number.
func (w *Writer) Write(record []string) error {
	return w.writeFields(record, nil)
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

// writeFields writes one record. numeric, when non-nil, states per field
// whether the value is a number; otherwise it is inferred from the text.
func (w *Writer) writeFields(record []string, numeric []bool) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	comma, quote := w.dialect()
	if err := checkDialect(comma, quote); err != nil {
		return err
	}

	for i, field := range record {
		if i > 0 {
			if err := w.dst.WriteByte(comma); err != nil {
				w.err = err
				return err
			}
		}

		var isNum bool
		if numeric != nil {
			isNum = numeric[i]
		} else {
			isNum = isNumeric(field)
		}

		quoted, err := w.needsQuote(i, field, isNum, comma, quote)
		if err != nil {
			w.err = fmt.Errorf("column %d: %w", i+1, err)
			return w.err
		}
		// A lone empty field would otherwise produce a blank line, which readers skip.
		if !quoted && len(record) == 1 && field == "" && w.columnPolicy(i) != QuoteNone {
			quoted = true
		}
		if err := w.writeField(field, quoted, quote); err != nil {
			w.err = err
			return err
		}
	}

	var err error
	if w.UseCRLF {
		_, err = w.dst.WriteString("\r\n")
	} else {
		err = w.dst.WriteByte('\n')
	}
	if err != nil {
		w.err = err
	}
	return err
}

func (w *Writer) dialect() (comma, quote byte) {
	comma = w.Comma
	if comma == 0 {
		comma = ','
	}
	quote = w.Quote
	if quote == 0 {
		quote = '"'
	}
	return comma, quote
}

func (w *Writer) columnPolicy(i int) QuotePolicy {
	if i < len(w.Columns) && w.Columns[i] != QuoteDefault {
		return w.Columns[i]
	}
	if w.Policy != QuoteDefault {
		return w.Policy
	}
	return QuoteMinimal
}

func (w *Writer) needsQuote(i int, field string, numeric bool, comma, quote byte) (bool, error) {
	special := fieldNeedsQuote(field, comma, quote)
	switch w.columnPolicy(i) {
	case QuoteAll:
		return true, nil
	case QuoteNonNumeric:
		return special || !numeric, nil
	case QuoteNone:
		if special {
			return false, fmt.Errorf("%w: %q", ErrNeedsQuote, field)
		}
		return false, nil
	default:
		return special, nil
	}
}

func (w *Writer) writeField(field string, quoted bool, quote byte) error {
	if !quoted {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	// Double every embedded quote.
	for {
		i := strings.IndexByte(field, quote)
		if i < 0 {
			break
		}
		if _, err := w.dst.WriteString(field[:i+1]); err != nil {
			return err
		}
		if err := w.dst.WriteByte(quote); err != nil {
			return err
		}
		field = field[i+1:]
	}
	if _, err := w.dst.WriteString(field); err != nil {
		return err
	}
	return w.dst.WriteByte(quote)
}

func fieldNeedsQuote(field string, comma, quote byte) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case quote, comma, '\n', '\r':
			return true
		}
	}
	return false
}

// isNumeric reports whether s is a finite decimal number such as "12", "-3.5" or "1e6".
func isNumeric(s string) bool {
	// ParseFloat also accepts hex floats and digit separators; those stay text.
	if s == "" || strings.ContainsAny(s, "xX_") {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
