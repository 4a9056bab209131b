// Package cli implements the csvtable command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/oleg578/csvtable/internal/logging"

	flag "github.com/spf13/pflag"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const (
	envLogLevel  = "CSVTABLE_LOG_LEVEL"
	envLogFormat = "CSVTABLE_LOG_FORMAT"
	envNoColor   = "NO_COLOR"
)

// errUsage marks errors caused by how the command was invoked.
var errUsage = errors.New("usage")

// session carries what every subcommand needs.
type session struct {
	out    io.Writer
	logger *slog.Logger
}

type commandFunc func(s *session, args []string) error

var commands = map[string]commandFunc{
	"fields":  cmdFields,
	"rows":    cmdRows,
	"index":   cmdIndex,
	"convert": cmdConvert,
}

// Run is the main entry point. Returns exit code.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	flagSet := flag.NewFlagSet("csvtable", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(false)

	logLevel := flagSet.String("log-level", env[envLogLevel], "Log level: debug, info, warn, error")
	logFormat := flagSet.String("log-format", env[envLogFormat], "Log format: text or json")
	noColor := flagSet.Bool("no-color", env[envNoColor] != "", "Disable coloured log output")
	help := flagSet.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}
	if err := flagSet.Parse(args); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return exitUsage
	}

	rest := flagSet.Args()
	if *help || len(rest) == 0 {
		printUsage(out)

		return exitOK
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut)

		return exitUsage
	}

	s := &session{
		out:    out,
		logger: logging.New(errOut, logging.Options{
			Level:   *logLevel,
			Format:  *logFormat,
			NoColor: *noColor,
		}).With("command", rest[0]),
	}

	if err := cmd(s, rest[1:]); err != nil {
		fprintln(errOut, "error:", err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}

		return exitError
	}

	return exitOK
}

func usageErrorf(format string, a ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, a...))
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer) {
	fprintln(w, `Usage: csvtable [--log-level L] [--log-format text|json] [--no-color] <command> [options]

Commands:
  fields  FILE                        Print the header fields, one per line
  rows    FILE [--format F]           Print all rows (F: csv, json, yaml)
  index   FILE --key FIELD [--format F]
                                      Print rows keyed by FIELD (F: json, yaml)
  convert IN OUT [--fields a,b] [--quoting P] [--out-sep C] [--out-quote C] [--crlf]
                                      Rewrite IN as OUT

Read options (all commands):
  --sep C        Field separator (default ",", "tab" or "\t" for TAB)
  --quote C      Quote character (default '"')
  --strict       Fail on records whose width differs from the header
  --dialect F    JSONC file with separator, quote, quoting, fields, crlf, strict

Environment:
  CSVTABLE_LOG_LEVEL, CSVTABLE_LOG_FORMAT, NO_COLOR`)
}
