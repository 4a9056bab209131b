package csvtable

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// ReadFieldnames returns the header fields of filename in file order, or nil
// if the file has no header line.
func ReadFieldnames(filename string, separator, quote byte, opts ...Option) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	o := newOptions(opts)
	fields, err := DecodeHeader(f, separator, quote, withResolved(o)...)
	if err != nil {
		return nil, fmt.Errorf("csvtable: read %s: %w", filename, err)
	}
	o.logger.Debug("read header", "file", filename, "fields", len(fields))
	return fields, nil
}

// ReadRows returns the data rows of filename in file order, each mapping the
// header fields to the row's values.
func ReadRows(filename string, separator, quote byte, opts ...Option) ([]Row, error) {
	t, err := ReadTable(filename, separator, quote, opts...)
	if err != nil {
		return nil, err
	}
	return t.Rows, nil
}

// ReadRowsByKey returns the rows of filename keyed by their value at keyfield.
// When several rows share a key the last one wins. A keyfield missing from the
// header fails the whole call with ErrMissingField; a short row without a
// value for keyfield is stored under "".
func ReadRowsByKey(filename, keyfield string, separator, quote byte, opts ...Option) (map[string]Row, error) {
	t, err := ReadTable(filename, separator, quote, opts...)
	if err != nil {
		return nil, err
	}
	keyed, err := t.Index(keyfield)
	if err != nil {
		return nil, fmt.Errorf("csvtable: index %s: %w", filename, err)
	}
	return keyed, nil
}

// ReadTable returns the header and data rows of filename.
func ReadTable(filename string, separator, quote byte, opts ...Option) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	o := newOptions(opts)
	t, err := DecodeTable(f, separator, quote, withResolved(o, "file", filename)...)
	if err != nil {
		return nil, fmt.Errorf("csvtable: read %s: %w", filename, err)
	}
	return t, nil
}

// WriteRows replaces filename with a header of fieldnames followed by one
// record per row. See EncodeRows for projection and quoting rules.
//
// The file is written to a temporary file in the same directory and renamed
// into place, so a failed call leaves any previous content untouched.
func WriteRows(filename string, table []Row, fieldnames []string, separator, quote byte, opts ...Option) error {
	o := newOptions(opts)
	var buf bytes.Buffer
	if err := EncodeRows(&buf, table, fieldnames, separator, quote, withResolved(o, "file", filename)...); err != nil {
		return fmt.Errorf("csvtable: write %s: %w", filename, err)
	}
	return writeFile(filename, &buf, o)
}

// WriteRecords is WriteRows for typed values; see EncodeRecords.
func WriteRecords(filename string, records []map[string]any, fieldnames []string, separator, quote byte, opts ...Option) error {
	o := newOptions(opts)
	var buf bytes.Buffer
	if err := EncodeRecords(&buf, records, fieldnames, separator, quote, withResolved(o, "file", filename)...); err != nil {
		return fmt.Errorf("csvtable: write %s: %w", filename, err)
	}
	return writeFile(filename, &buf, o)
}

func writeFile(filename string, buf *bytes.Buffer, o *options) error {
	mode := o.fileMode
	info, err := os.Stat(filename)
	switch {
	case err == nil && !o.fileModeSet:
		mode = info.Mode().Perm()
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}

	// The temp file must live next to filename for the rename to be atomic.
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("csvtable: write %s: %w", filename, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	size := buf.Len()
	if err := writeAndClose(tmp, buf, mode); err != nil {
		return fmt.Errorf("csvtable: write %s: %w", filename, err)
	}
	if err := atomic.ReplaceFile(tmpName, filename); err != nil {
		return fmt.Errorf("csvtable: write %s: %w", filename, err)
	}

	o.logger.Debug("wrote file", "file", filename, "bytes", size)
	return nil
}

func writeAndClose(f *os.File, buf *bytes.Buffer, mode fs.FileMode) error {
	if _, err := buf.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	// CreateTemp opens with 0600.
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// withResolved re-applies already resolved options, adding attrs to the logger.
func withResolved(o *options, attrs ...any) []Option {
	resolved := *o
	resolved.logger = o.logger.With(attrs...)
	return []Option{func(dst *options) { *dst = resolved }}
}
