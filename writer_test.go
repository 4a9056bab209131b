package csvtable

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records [][]string
		config  func(*Writer)
		want    string
	}{
		{
			name:    "basic",
			records: [][]string{{"a", "b", "c"}},
			want:    "a,b,c\n",
		},
		{
			name:    "multipleRecords",
			records: [][]string{{"alpha", "beta"}, {"gamma", "delta"}},
			want:    "alpha,beta\ngamma,delta\n",
		},
		{
			name:    "emptyField",
			records: [][]string{{"", "b"}},
			want:    ",b\n",
		},
		{
			name:    "loneEmptyFieldIsQuoted",
			records: [][]string{{""}},
			want:    "\"\"\n",
		},
		{
			name:    "separatorForcesQuote",
			records: [][]string{{"alpha,beta"}},
			want:    "\"alpha,beta\"\n",
		},
		{
			name:    "quoteEscaping",
			records: [][]string{{"he said \"hi\""}},
			want:    "\"he said \"\"hi\"\"\"\n",
		},
		{
			name:    "newlineForcesQuote",
			records: [][]string{{"line1\nline2", "x"}},
			want:    "\"line1\nline2\",x\n",
		},
		{
			name:    "quoteAll",
			records: [][]string{{"alpha", "1"}},
			config:  func(w *Writer) { w.Policy = QuoteAll },
			want:    "\"alpha\",\"1\"\n",
		},
		{
			name:    "quoteNonNumeric",
			records: [][]string{{"alpha", "1", "-2.5", "1e3", "", "NaN", "0x10"}},
			config:  func(w *Writer) { w.Policy = QuoteNonNumeric },
			want:    "\"alpha\",1,-2.5,1e3,\"\",\"NaN\",\"0x10\"\n",
		},
		{
			name:    "nonNumericStillQuotesSeparator",
			records: [][]string{{"1.5", "2"}},
			config: func(w *Writer) {
				w.Comma = '.'
				w.Policy = QuoteNonNumeric
			},
			want: "\"1.5\".2\n",
		},
		{
			name:    "columnOverride",
			records: [][]string{{"7", "7", "7"}},
			config: func(w *Writer) {
				w.Policy = QuoteNonNumeric
				w.Columns = []QuotePolicy{QuoteAll, QuoteDefault, QuoteMinimal}
			},
			want: "\"7\",7,7\n",
		},
		{
			name:    "customComma",
			records: [][]string{{"a;b", "c"}},
			config:  func(w *Writer) { w.Comma = ';' },
			want:    "\"a;b\";c\n",
		},
		{
			name:    "customQuote",
			records: [][]string{{"alpha'beta", "plain"}},
			config:  func(w *Writer) { w.Quote = '\'' },
			want:    "'alpha''beta',plain\n",
		},
		{
			name:    "useCRLF",
			records: [][]string{{"a"}, {"b"}},
			config:  func(w *Writer) { w.UseCRLF = true },
			want:    "a\r\nb\r\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if tc.config != nil {
				tc.config(w)
			}
			for _, rec := range tc.records {
				if err := w.Write(rec); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestWriterQuoteNone(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Policy = QuoteNone

	if err := w.Write([]string{"plain", "text"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write([]string{"ok", "a,b"}); !errors.Is(err, ErrNeedsQuote) {
		t.Fatalf("Write() error = %v, want ErrNeedsQuote", err)
	}
	if err := w.Write([]string{"later"}); !errors.Is(err, ErrNeedsQuote) {
		t.Fatalf("Write() after failure = %v, want stored ErrNeedsQuote", err)
	}
}

func TestWriterWriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)

	records := [][]string{
		{"alpha", "beta"},
		{"gamma", "delta"},
	}

	if err := w.WriteAll(records); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "alpha,beta\ngamma,delta\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}
}

func TestWriterInvalidDialect(t *testing.T) {
	t.Parallel()

	w := NewWriter(&strings.Builder{})
	w.Comma = '"'
	if err := w.Write([]string{"a"}); !errors.Is(err, ErrInvalidDialect) {
		t.Fatalf("Write() error = %v, want ErrInvalidDialect", err)
	}
}

type flushFailWriter struct {
	fail error
}

func (f *flushFailWriter) Write([]byte) (int, error) {
	return 0, f.fail
}

func TestWriterFlushError(t *testing.T) {
	t.Parallel()

	exp := errors.New("flush failed")
	w := NewWriter(&flushFailWriter{fail: exp})

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Write([]string{"b"}); !errors.Is(err, exp) {
		t.Fatalf("Write() should return stored error %v, got %v", exp, err)
	}
	if err := w.Error(); !errors.Is(err, exp) {
		t.Fatalf("Error() should return %v, got %v", exp, err)
	}
}

func TestQuotePolicyNames(t *testing.T) {
	t.Parallel()

	for _, p := range []QuotePolicy{QuoteMinimal, QuoteAll, QuoteNonNumeric, QuoteNone} {
		got, err := ParseQuotePolicy(strings.ToUpper(p.String()))
		if err != nil {
			t.Fatalf("ParseQuotePolicy(%q) error = %v", p, err)
		}
		if got != p {
			t.Fatalf("ParseQuotePolicy(%q) = %v, want %v", p, got, p)
		}
	}
	if _, err := ParseQuotePolicy("sometimes"); err == nil {
		t.Fatalf("ParseQuotePolicy should reject unknown names")
	}
	if got := QuotePolicy(42).String(); got != "QuotePolicy(42)" {
		t.Fatalf("String() = %q", got)
	}
}
