package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/oleg578/csvtable"

	"github.com/tailscale/hujson"

	flag "github.com/spf13/pflag"
)

var (
	errDialectRead    = errors.New("cannot read dialect file")
	errDialectInvalid = errors.New("invalid dialect file")
	errBadChar        = errors.New("expected a single character")
)

// dialectFile is the JSONC document accepted by --dialect.
//
//	{
//	  // semicolon separated export
//	  "separator": ";",
//	  "quote": "'",
//	  "quoting": "nonnumeric",
//	  "fields": {"zip": "all"},
//	}
type dialectFile struct {
	Separator string            `json:"separator"`
	Quote     string            `json:"quote"`
	Quoting   string            `json:"quoting"`
	Fields    map[string]string `json:"fields"`
	CRLF      bool              `json:"crlf"`
	Strict    bool              `json:"strict"`
}

// dialect is the resolved set of read and write settings for one command.
type dialect struct {
	separator byte
	quote     byte
	quoting   csvtable.QuotePolicy
	fields    map[string]csvtable.QuotePolicy
	crlf      bool
	strict    bool
}

func defaultDialect() dialect {
	return dialect{separator: ',', quote: '"', quoting: csvtable.QuoteNonNumeric}
}

// dialectFlags registers the read options shared by every command.
type dialectFlags struct {
	sep     *string
	quote   *string
	strict  *bool
	dialect *string
}

func addDialectFlags(fs *flag.FlagSet) dialectFlags {
	return dialectFlags{
		sep:     fs.String("sep", ",", "Field separator"),
		quote:   fs.String("quote", `"`, "Quote character"),
		strict:  fs.Bool("strict", false, "Fail on ragged records and stray quotes"),
		dialect: fs.String("dialect", "", "JSONC dialect file"),
	}
}

// resolve applies the dialect file first and explicitly set flags on top.
func (f dialectFlags) resolve(fs *flag.FlagSet) (dialect, error) {
	d := defaultDialect()

	if *f.dialect != "" {
		loaded, err := loadDialect(*f.dialect)
		if err != nil {
			return dialect{}, err
		}
		d = loaded
	}

	if fs.Changed("sep") {
		c, err := parseChar(*f.sep)
		if err != nil {
			return dialect{}, usageErrorf("--sep: %v", err)
		}
		d.separator = c
	}
	if fs.Changed("quote") {
		c, err := parseChar(*f.quote)
		if err != nil {
			return dialect{}, usageErrorf("--quote: %v", err)
		}
		d.quote = c
	}
	if fs.Changed("strict") {
		d.strict = *f.strict
	}
	return d, nil
}

func loadDialect(path string) (dialect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dialect{}, fmt.Errorf("%w %s: %w", errDialectRead, path, err)
	}
	d, err := parseDialect(data)
	if err != nil {
		return dialect{}, fmt.Errorf("%w %s: %w", errDialectInvalid, path, err)
	}
	return d, nil
}

func parseDialect(data []byte) (dialect, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return dialect{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var raw dialectFile
	if err := json.Unmarshal(standardized, &raw); err != nil {
		return dialect{}, fmt.Errorf("invalid JSON: %w", err)
	}

	d := defaultDialect()
	d.crlf = raw.CRLF
	d.strict = raw.Strict

	if raw.Separator != "" {
		if d.separator, err = parseChar(raw.Separator); err != nil {
			return dialect{}, fmt.Errorf("separator: %w", err)
		}
	}
	if raw.Quote != "" {
		if d.quote, err = parseChar(raw.Quote); err != nil {
			return dialect{}, fmt.Errorf("quote: %w", err)
		}
	}
	if raw.Quoting != "" {
		if d.quoting, err = csvtable.ParseQuotePolicy(raw.Quoting); err != nil {
			return dialect{}, err
		}
	}

	names := make([]string, 0, len(raw.Fields))
	for name := range raw.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p, err := csvtable.ParseQuotePolicy(raw.Fields[name])
		if err != nil {
			return dialect{}, fmt.Errorf("fields.%s: %w", name, err)
		}
		if d.fields == nil {
			d.fields = make(map[string]csvtable.QuotePolicy)
		}
		d.fields[name] = p
	}
	return d, nil
}

// parseChar accepts a single byte or one of the names "tab", `\t`, "space".
func parseChar(s string) (byte, error) {
	switch s {
	case "tab", `\t`, "\t":
		return '\t', nil
	case "space":
		return ' ', nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("%w, got %q", errBadChar, s)
	}
	return s[0], nil
}

func (d dialect) readOptions(s *session) []csvtable.Option {
	opts := []csvtable.Option{csvtable.WithLogger(s.logger)}
	if d.strict {
		opts = append(opts, csvtable.WithStrictFieldCount(), csvtable.WithStrictQuotes())
	}
	return opts
}

func (d dialect) writeOptions(s *session) []csvtable.Option {
	opts := []csvtable.Option{csvtable.WithLogger(s.logger), csvtable.WithQuoting(d.quoting)}
	for name, p := range d.fields {
		opts = append(opts, csvtable.WithFieldQuoting(name, p))
	}
	if d.crlf {
		opts = append(opts, csvtable.WithCRLF())
	}
	return opts
}
