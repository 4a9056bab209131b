// # csvtable: delimited text files as rows of named fields
//
// csvtable reads and writes delimited text files that start with a header line
// and represents their content as maps from field name to value. Separator and
// quote characters are chosen by the caller.
//
// # Features
//
// - ReadFieldnames, ReadRows and ReadRowsByKey read a file into its header, its
// rows in file order, or its rows keyed by one field (last row wins on duplicates).
// - WriteRows and WriteRecords write a table in a given field order, quoting
// every non-numeric value by default, and replace the target file atomically.
// - Quote policies (`QuoteMinimal`, `QuoteAll`, `QuoteNonNumeric`, `QuoteNone`)
// can be set for the whole table or per field.
// - A streaming `Reader` and `Writer` implement RFC 4180 quoting for any
// single-byte separator and quote, with `ParseError` locating malformed input.
//
// Separator and quote are bytes. Any ASCII character works; multi-byte UTF-8
// characters such as '§' cannot be used.
//
// # Errors
//
// Failures to open or write files wrap the underlying `*fs.PathError`, so
// `errors.Is(err, fs.ErrNotExist)` works for both. Parse failures are
// `*ParseError` values wrapping `ErrUnterminatedQuote`, or `ErrFieldCount` and
// `ErrBareQuote` when `WithStrictFieldCount` and `WithStrictQuotes` ask for them. A row lacking a required field
// yields a `*FieldError` wrapping `ErrMissingField`.
package csvtable
