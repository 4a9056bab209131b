package csvtable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

var (
	// ErrBareQuote is returned when a quote character appears inside an unquoted field.
	ErrBareQuote = errors.New("csvtable: bare quote in non-quoted field")
	// ErrUnterminatedQuote is returned when a quoted field is still open at EOF.
	ErrUnterminatedQuote = errors.New("csvtable: unterminated quoted field")
	// ErrFieldCount is returned when a record does not have the expected number of fields.
	ErrFieldCount = errors.New("csvtable: wrong number of fields")
	// ErrInvalidDialect is returned when the separator and quote cannot be used together.
	ErrInvalidDialect = errors.New("csvtable: invalid separator or quote character")
)

// ParseError reports where in the input a record could not be parsed.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csvtable: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Is.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Reader parses delimited records with a configurable separator and quote byte.
//
// Quoting follows RFC 4180: a field that starts with Quote runs until a Quote
// that is not immediately followed by another Quote, and a doubled Quote inside
// such a field stands for one literal Quote. Separators, CR and LF inside a
// quoted field are data. Records end at LF, CRLF or a lone CR. Lines with no
// bytes at all are skipped.
//
// Comma and Quote are single bytes, so multi-byte UTF-8 characters cannot be
// used as either.
type Reader struct {
	src *bufio.Reader

	// Comma is the field separator. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// ReuseRecord lets Read return a slice backed by the previous record's storage.
	ReuseRecord bool
	// FieldsPerRecord is the expected record width. Zero adopts the width of the
	// first record, a negative value disables the check.
	FieldsPerRecord int
	// LazyQuotes keeps a Quote found inside an unquoted field, or after the
	// closing Quote of a quoted field, as data instead of failing with ErrBareQuote.
	LazyQuotes bool

	record      []string
	dataBuf     []byte
	fieldBounds []int
	finished    bool
	line        int
	recordLine  int
}

// NewReader creates a Reader that consumes delimited data from r. It panics if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("csvtable: reader source cannot be nil")
	}

	return &Reader{
		src:         bufio.NewReaderSize(r, defaultBufferSize),
		Comma:       ',',
		Quote:       '"',
		record:      make([]string, 0, 16),
		dataBuf:     make([]byte, 0, 512),
		fieldBounds: make([]int, 0, 32),
		line:        1,
	}
}

// Read returns the next record. io.EOF signals that no records remain.
//
// When the record width does not match FieldsPerRecord the record is returned
// together with a *ParseError wrapping ErrFieldCount.
func (r *Reader) Read() (record []string, err error) {
	if r == nil || r.src == nil || r.finished {
		return nil, io.EOF
	}

	comma, quote := r.dialect()
	if err := checkDialect(comma, quote); err != nil {
		return nil, err
	}

	for {
		record, err = r.readRecord(comma, quote)
		if err != nil {
			return nil, err
		}
		if record != nil {
			break
		}
	}

	switch {
	case r.FieldsPerRecord == 0:
		r.FieldsPerRecord = len(record)
	case r.FieldsPerRecord > 0 && len(record) != r.FieldsPerRecord:
		return record, &ParseError{Line: r.recordLine, Column: 1, Err: ErrFieldCount}
	}
	return record, nil
}

// ReadAll reads records until io.EOF and returns them, or the first error.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// Line reports the line the reader is positioned on.
func (r *Reader) Line() int {
	return r.line
}

// RecordLine reports the line on which the last returned record started.
func (r *Reader) RecordLine() int {
	return r.recordLine
}

func (r *Reader) dialect() (comma, quote byte) {
	comma = r.Comma
	if comma == 0 {
		comma = ','
	}
	quote = r.Quote
	if quote == 0 {
		quote = '"'
	}
	return comma, quote
}

// readRecord consumes one line. It returns a nil record without error for a
// blank line so the caller can move on to the next one.
func (r *Reader) readRecord(comma, quote byte) ([]string, error) {
	r.dataBuf = r.dataBuf[:0]
	r.fieldBounds = r.fieldBounds[:0]
	r.recordLine = r.line

	fieldStart := 0
	column := 0
	inQuotes := false
	sawQuotedField := false
	blank := true

	for {
		b, err := r.src.ReadByte()
		if err == io.EOF {
			r.finished = true
			if inQuotes {
				return nil, r.wrapError(column+1, ErrUnterminatedQuote)
			}
			if blank {
				return nil, io.EOF
			}
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			return r.buildRecord(), nil
		}
		if err != nil {
			return nil, err
		}
		column++

		if inQuotes {
			switch b {
			case quote:
				escaped, err := r.skipIf(quote)
				if err != nil {
					return nil, err
				}
				if escaped {
					r.dataBuf = append(r.dataBuf, quote)
					column++
					continue
				}
				inQuotes = false
			case '\n':
				// Embedded newlines advance the logical line count.
				r.dataBuf = append(r.dataBuf, b)
				r.line++
				column = 0
			default:
				r.dataBuf = append(r.dataBuf, b)
			}
			continue
		}

		switch b {
		case comma:
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			fieldStart = len(r.dataBuf)
			sawQuotedField = false
			blank = false
		case '\n', '\r':
			if b == '\r' {
				if _, err := r.skipIf('\n'); err != nil {
					return nil, err
				}
			}
			r.line++
			if blank {
				r.recordLine = r.line
				column = 0
				continue
			}
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			return r.buildRecord(), nil
		case quote:
			// A quote opens a quoted field only as the field's first byte.
			if len(r.dataBuf) == fieldStart && !sawQuotedField {
				inQuotes = true
				sawQuotedField = true
				blank = false
				continue
			}
			if !r.LazyQuotes {
				return nil, r.wrapError(column, ErrBareQuote)
			}
			r.dataBuf = append(r.dataBuf, b)
			blank = false
		default:
			r.dataBuf = append(r.dataBuf, b)
			blank = false
		}
	}
}

// skipIf consumes the next byte when it equals want.
func (r *Reader) skipIf(want byte) (bool, error) {
	next, err := r.src.Peek(1)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if next[0] != want {
		return false, nil
	}
	_, err = r.src.ReadByte()
	return err == nil, err
}

// buildRecord slices the data buffer along fieldBounds, honouring ReuseRecord.
func (r *Reader) buildRecord() []string {
	fieldCount := len(r.fieldBounds) / 2

	var recordStr string
	if r.ReuseRecord {
		if len(r.dataBuf) > 0 {
			// Fields share one backing buffer that the next Read overwrites.
			recordStr = unsafe.String(unsafe.SliceData(r.dataBuf), len(r.dataBuf))
		}
		if cap(r.record) < fieldCount {
			r.record = make([]string, fieldCount)
		}
		r.record = r.record[:fieldCount]
	} else {
		recordStr = string(r.dataBuf)
		r.record = make([]string, fieldCount)
	}

	for i := 0; i < fieldCount; i++ {
		r.record[i] = recordStr[r.fieldBounds[2*i]:r.fieldBounds[2*i+1]]
	}
	return r.record
}

func (r *Reader) wrapError(column int, err error) error {
	return &ParseError{Line: r.line, Column: column, Err: err}
}

// checkDialect rejects separator/quote pairs that would make the format ambiguous.
func checkDialect(comma, quote byte) error {
	switch {
	case comma == quote:
		return fmt.Errorf("%w: separator and quote are both %q", ErrInvalidDialect, comma)
	case comma == '\r' || comma == '\n':
		return fmt.Errorf("%w: separator %q", ErrInvalidDialect, comma)
	case quote == '\r' || quote == '\n':
		return fmt.Errorf("%w: quote %q", ErrInvalidDialect, quote)
	}
	return nil
}
