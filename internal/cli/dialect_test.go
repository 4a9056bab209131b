package cli

import (
	"testing"

	"github.com/oleg578/csvtable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	t.Parallel()

	d, err := parseDialect([]byte(`{
		/* tab separated */
		"separator": "tab",
		"quoting": "all",
		"fields": {"amount": "nonnumeric", "code": "none"},
		"crlf": true,
		"strict": true, // trailing comma below
	}`))
	require.NoError(t, err)
	assert.Equal(t, byte('\t'), d.separator)
	assert.Equal(t, byte('"'), d.quote)
	assert.Equal(t, csvtable.QuoteAll, d.quoting)
	assert.Equal(t, map[string]csvtable.QuotePolicy{
		"amount": csvtable.QuoteNonNumeric,
		"code":   csvtable.QuoteNone,
	}, d.fields)
	assert.True(t, d.crlf)
	assert.True(t, d.strict)
}

func TestParseDialectErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"notJSON":      `{separator: }`,
		"wrongType":    `{"crlf": "yes"}`,
		"longQuote":    `{"quote": "''"}`,
		"badPolicy":    `{"quoting": "sometimes"}`,
		"badFieldRule": `{"fields": {"a": "maybe"}}`,
	}
	for name, doc := range tests {
		_, err := parseDialect([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestParseChar(t *testing.T) {
	t.Parallel()

	tests := map[string]byte{"tab": '\t', `\t`: '\t', "\t": '\t', "space": ' ', ";": ';', "'": '\''}
	for in, want := range tests {
		got, err := parseChar(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseChar("")
	require.ErrorIs(t, err, errBadChar)
	_, err = parseChar("ab")
	require.ErrorIs(t, err, errBadChar)
}
