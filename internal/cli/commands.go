package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/oleg578/csvtable"

	flag "github.com/spf13/pflag"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseArgs(name string, fs *flag.FlagSet, args []string, positional ...string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, usageErrorf("%s: %v", name, err)
	}
	rest := fs.Args()
	if len(rest) != len(positional) {
		return nil, usageErrorf("%s: expected %s", name, strings.Join(positional, " "))
	}
	return rest, nil
}

func cmdFields(s *session, args []string) error {
	fs := newFlagSet("fields")
	df := addDialectFlags(fs)

	rest, err := parseArgs("fields", fs, args, "FILE")
	if err != nil {
		return err
	}
	d, err := df.resolve(fs)
	if err != nil {
		return err
	}

	fields, err := csvtable.ReadFieldnames(rest[0], d.separator, d.quote, d.readOptions(s)...)
	if err != nil {
		return err
	}
	for _, f := range fields {
		fprintln(s.out, f)
	}
	return nil
}

func cmdRows(s *session, args []string) error {
	fs := newFlagSet("rows")
	df := addDialectFlags(fs)
	format := fs.String("format", formatCSV, "Output format: csv, json, yaml")

	rest, err := parseArgs("rows", fs, args, "FILE")
	if err != nil {
		return err
	}
	d, err := df.resolve(fs)
	if err != nil {
		return err
	}

	// The header keeps column order for the outputs that support it.
	table, err := csvtable.ReadTable(rest[0], d.separator, d.quote, d.readOptions(s)...)
	if err != nil {
		return err
	}
	s.logger.Info("read rows", "file", rest[0], "rows", len(table.Rows))

	return renderRows(s.out, *format, table.Fields, table.Rows, d)
}

func cmdIndex(s *session, args []string) error {
	fs := newFlagSet("index")
	df := addDialectFlags(fs)
	key := fs.String("key", "", "Field to key rows by (required)")
	format := fs.String("format", formatJSON, "Output format: json, yaml")

	rest, err := parseArgs("index", fs, args, "FILE")
	if err != nil {
		return err
	}
	if *key == "" {
		return usageErrorf("index: --key is required")
	}
	d, err := df.resolve(fs)
	if err != nil {
		return err
	}

	table, err := csvtable.ReadTable(rest[0], d.separator, d.quote, d.readOptions(s)...)
	if err != nil {
		return err
	}
	keyed, err := table.Index(*key)
	if err != nil {
		return fmt.Errorf("index %s: %w", rest[0], err)
	}
	s.logger.Info("indexed rows", "file", rest[0], "key", *key, "keys", len(keyed))

	return renderIndex(s.out, *format, table.Fields, keyed)
}

func cmdConvert(s *session, args []string) error {
	fs := newFlagSet("convert")
	df := addDialectFlags(fs)
	fieldList := fs.StringSlice("fields", nil, "Output fields in order (default: input header)")
	quoting := fs.String("quoting", "", "Quote policy: minimal, all, nonnumeric, none")
	outSep := fs.String("out-sep", "", "Output separator (default: input separator)")
	outQuote := fs.String("out-quote", "", "Output quote (default: input quote)")
	crlf := fs.Bool("crlf", false, "Terminate output records with CRLF")

	rest, err := parseArgs("convert", fs, args, "IN", "OUT")
	if err != nil {
		return err
	}
	d, err := df.resolve(fs)
	if err != nil {
		return err
	}

	out := d
	if *outSep != "" {
		if out.separator, err = parseChar(*outSep); err != nil {
			return usageErrorf("--out-sep: %v", err)
		}
	}
	if *outQuote != "" {
		if out.quote, err = parseChar(*outQuote); err != nil {
			return usageErrorf("--out-quote: %v", err)
		}
	}
	if *quoting != "" {
		if out.quoting, err = csvtable.ParseQuotePolicy(*quoting); err != nil {
			return usageErrorf("--quoting: %v", err)
		}
	}
	if fs.Changed("crlf") {
		out.crlf = *crlf
	}

	table, err := csvtable.ReadTable(rest[0], d.separator, d.quote, d.readOptions(s)...)
	if err != nil {
		return err
	}

	fields := table.Fields
	if len(*fieldList) > 0 {
		fields = *fieldList
	}

	rows := completeRows(table.Rows, table.Fields)
	if err := csvtable.WriteRows(rest[1], rows, fields, out.separator, out.quote, out.writeOptions(s)...); err != nil {
		return err
	}
	s.logger.Info("converted", "in", rest[0], "out", rest[1], "rows", len(table.Rows), "fields", len(fields))
	return nil
}
