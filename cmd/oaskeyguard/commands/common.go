// Package commands provides CLI command handlers for oaskeyguard.
package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/moenvlab/oaskeyguard/internal/config"
	"github.com/moenvlab/oaskeyguard/internal/eventlog"
	"github.com/moenvlab/oaskeyguard/internal/fileutil"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data in the specified format (json or yaml) to w.
func OutputStructured(w io.Writer, data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}

	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	Writef(w, "%s\n", strings.TrimRight(string(bytes), "\n"))
	return nil
}

// FormatSpecPath returns a display-friendly path for the specification.
// Returns "<stdin>" if the path is StdinFilePath, otherwise returns the path as-is.
func FormatSpecPath(specPath string) string {
	if specPath == StdinFilePath {
		return "<stdin>"
	}
	return specPath
}

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil { //nolint:gosec // G705 - CLI tool, not a web server
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// readSpec reads the document text from a file or, for "-", from stdin.
func readSpec(specPath string) ([]byte, error) {
	if specPath == StdinFilePath {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(specPath) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// specArg returns the single positional argument, or the configured default
// document when none is given.
func specArg(fs *flag.FlagSet, cfg *config.Config) (string, error) {
	switch fs.NArg() {
	case 0:
		return cfg.Spec, nil
	case 1:
		return fs.Arg(0), nil
	default:
		fs.Usage()
		return "", fmt.Errorf("%s command accepts at most one file path or '-' for stdin", fs.Name())
	}
}

// pipelineFlags are the naming flags shared by the pipeline commands.
type pipelineFlags struct {
	Scheme     string
	APIKeyName string
	Method     string
	QuoteAll   bool
}

func (p *pipelineFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&p.Scheme, "scheme", sanitizer.DefaultSchemeName, "security scheme name referenced by injected requirements")
	fs.StringVar(&p.APIKeyName, "api-key-name", sanitizer.DefaultAPIKeyName, "parameter and property name that carries the API key")
	fs.StringVar(&p.Method, "method", sanitizer.DefaultTargetMethod, "operations with this method key receive the security requirement")
	fs.BoolVar(&p.QuoteAll, "quote-all", false, "quote any numeric status code opening a flow-style responses mapping")
}

func (p *pipelineFlags) options() []sanitizer.Option {
	return []sanitizer.Option{
		sanitizer.WithSchemeName(p.Scheme),
		sanitizer.WithAPIKeyName(p.APIKeyName),
		sanitizer.WithTargetMethod(p.Method),
		sanitizer.WithQuoteAll(p.QuoteAll),
	}
}

// newSanitizer builds a Sanitizer from the flags, validating them with the
// same rules as the functional options.
func (p *pipelineFlags) newSanitizer(logger *slog.Logger) (*sanitizer.Sanitizer, error) {
	return sanitizer.NewWithOptions(append(p.options(), sanitizer.WithLogger(sanitizer.NewSlogAdapter(logger)))...)
}

// newLogger returns the CLI logger on stderr. Quiet mode raises the level
// so that only warnings and errors are shown.
func newLogger(cfg *config.Config, quiet bool) *slog.Logger {
	if quiet && cfg.LogLevel < slog.LevelWarn {
		c := *cfg
		c.LogLevel = slog.LevelWarn
		return c.NewLogger(os.Stderr)
	}
	return cfg.NewLogger(os.Stderr)
}

// openEventLog returns the fix log sink when the full log is enabled, and a
// close function that is always safe to call.
func openEventLog(cfg *config.Config, source string) (sanitizer.EventSink, func(), error) {
	if !cfg.FullLog {
		return nil, func() {}, nil
	}
	w, err := eventlog.Open(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return w.ForSource(source), func() { _ = w.Close() }, nil
}

// flushEvents appends the held fixes to the event log. Call it only once the
// document they describe has been written.
func flushEvents(cfg *config.Config, source string, pending *eventlog.Pending) error {
	if pending == nil || pending.Len() == 0 {
		return nil
	}
	sink, closeLog, err := openEventLog(cfg, source)
	if err != nil {
		return err
	}
	defer closeLog()
	if sink == nil {
		return nil
	}
	return pending.Flush(sink)
}

// writeDocument writes data to output, or to stdout when output is empty.
func writeDocument(data []byte, output string) error {
	if output == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing document to stdout: %w", err)
		}
		return nil
	}
	return fileutil.WriteAtomic(output, data, fileutil.OwnerReadWrite)
}

// printFixes reports fixes to stderr, one "[type] path: description" line each.
func printFixes(fixes []sanitizer.Fix) {
	if len(fixes) == 0 {
		Writef(os.Stderr, "✓ No fixes needed\n")
		return
	}
	Writef(os.Stderr, "Fixes Applied (%d):\n", len(fixes))
	for _, fix := range fixes {
		Writef(os.Stderr, "  - [%s] %s: %s\n", fix.Type, fix.Path, fix.Description)
	}
	Writef(os.Stderr, "\n")
}
