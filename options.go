package csvtable

import (
	"io/fs"
	"log/slog"
)

const defaultFileMode fs.FileMode = 0o644

// Option adjusts how a table is read or written.
type Option func(*options)

type options struct {
	quoting      QuotePolicy
	fieldQuoting map[string]QuotePolicy
	crlf         bool
	strict       bool
	strictQuotes bool
	logger       *slog.Logger
	fileMode     fs.FileMode
	fileModeSet  bool
}

func newOptions(opts []Option) *options {
	o := &options{
		quoting:  QuoteNonNumeric,
		logger:   slog.New(slog.DiscardHandler),
		fileMode: defaultFileMode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithQuoting sets the quoting policy for written fields. The default is QuoteNonNumeric.
func WithQuoting(p QuotePolicy) Option {
	return func(o *options) {
		if p != QuoteDefault {
			o.quoting = p
		}
	}
}

// WithFieldQuoting overrides the quoting policy for one named field, header included.
func WithFieldQuoting(field string, p QuotePolicy) Option {
	return func(o *options) {
		if o.fieldQuoting == nil {
			o.fieldQuoting = make(map[string]QuotePolicy)
		}
		o.fieldQuoting[field] = p
	}
}

// WithCRLF terminates written records with \r\n.
func WithCRLF() Option {
	return func(o *options) {
		o.crlf = true
	}
}

// WithStrictFieldCount makes reading fail with ErrFieldCount when a data
// record is wider or narrower than the header.
func WithStrictFieldCount() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithStrictQuotes makes reading fail with ErrBareQuote when a quote
// character appears inside an unquoted field. By default such a quote is
// kept as part of the value.
func WithStrictQuotes() Option {
	return func(o *options) {
		o.strictQuotes = true
	}
}

// WithLogger routes diagnostics (ragged records, write summaries) to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFileMode sets the permissions of written files. Without it new files get
// 0644 and replaced files keep their mode.
func WithFileMode(mode fs.FileMode) Option {
	return func(o *options) {
		o.fileMode = mode
		o.fileModeSet = true
	}
}

func (o *options) columnPolicies(fieldnames []string) []QuotePolicy {
	if len(o.fieldQuoting) == 0 {
		return nil
	}
	cols := make([]QuotePolicy, len(fieldnames))
	for i, name := range fieldnames {
		cols[i] = o.fieldQuoting[name]
	}
	return cols
}
