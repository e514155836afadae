package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/moenvlab/oaskeyguard"
	"github.com/moenvlab/oaskeyguard/internal/config"
	"github.com/moenvlab/oaskeyguard/internal/eventlog"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

// SanitizeFlags contains flags for the sanitize command
type SanitizeFlags struct {
	pipelineFlags
	Output       string
	Quiet        bool
	DryRun       bool
	EnsureScheme bool
	Fixes        string
}

// SetupSanitizeFlags creates and configures a FlagSet for the sanitize command.
// Returns the FlagSet and a SanitizeFlags struct with bound flag variables.
func SetupSanitizeFlags() (*flag.FlagSet, *SanitizeFlags) {
	fs := flag.NewFlagSet("sanitize", flag.ContinueOnError)
	flags := &SanitizeFlags{}

	fs.StringVar(&flags.Output, "o", "", "output file path (default: overwrite the input file, stdout for '-')")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: overwrite the input file, stdout for '-')")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only warnings and errors on stderr")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only warnings and errors on stderr")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "report fixes without writing anything")
	fs.BoolVar(&flags.EnsureScheme, "ensure-scheme", false, "add the security scheme under components.securitySchemes when missing")
	fs.StringVar(&flags.Fixes, "fixes", "", "comma-separated fix types to apply (default: all)")
	flags.bind(fs)

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oaskeyguard sanitize [flags] [file|-]\n\n")
		Writef(fs.Output(), "Remove hardcoded API keys from an OpenAPI document and declare\n")
		Writef(fs.Output(), "API-key authentication through a security scheme instead.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nPasses (in order):\n")
		Writef(fs.Output(), "  %-26s Quote the unquoted 200 key of flow-style responses mappings\n", sanitizer.FixTypeQuotedResponseKey)
		Writef(fs.Output(), "  %-26s Remove default values of api_key parameters and properties\n", sanitizer.FixTypeScrubbedDefault)
		Writef(fs.Output(), "  %-26s Set security to [{ApiKeyAuth: []}] on GET operations\n", sanitizer.FixTypeInjectedSecurity)
		Writef(fs.Output(), "  %-26s Drop the api_key parameter from GET operations\n", sanitizer.FixTypeRemovedAPIKeyParameter)
		Writef(fs.Output(), "  %-26s Add the scheme definition (--ensure-scheme)\n", sanitizer.FixTypeAddedSecurityScheme)
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oaskeyguard sanitize moenv_openapi.yaml\n")
		Writef(fs.Output(), "  oaskeyguard sanitize --dry-run moenv_openapi.yaml\n")
		Writef(fs.Output(), "  oaskeyguard sanitize -o clean.yaml --ensure-scheme moenv_openapi.yaml\n")
		Writef(fs.Output(), "  cat moenv_openapi.yaml | oaskeyguard sanitize -q - > clean.yaml\n")
		Writef(fs.Output(), "\nEnvironment:\n")
		Writef(fs.Output(), "  %s    default file when none is given (%s)\n", config.EnvSpec, config.DefaultSpec)
		Writef(fs.Output(), "  %s  append every fix to %s as JSON lines\n", config.EnvFullLog, config.EnvLogFile)
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Document sanitized (or already clean)\n")
		Writef(fs.Output(), "  1    Failed to read, parse, or write the document\n")
	}

	return fs, flags
}

// HandleSanitize executes the sanitize command
func HandleSanitize(args []string) error {
	fs, flags := SetupSanitizeFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Load()
	specPath, err := specArg(fs, cfg)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, flags.Quiet)

	opts := flags.options()
	opts = append(opts,
		sanitizer.WithEnsureScheme(flags.EnsureScheme),
		sanitizer.WithLogger(sanitizer.NewSlogAdapter(logger)),
	)
	if flags.Fixes != "" {
		var fixes []sanitizer.FixType
		for _, f := range strings.Split(flags.Fixes, ",") {
			fixes = append(fixes, sanitizer.FixType(strings.TrimSpace(f)))
		}
		opts = append(opts, sanitizer.WithEnabledFixes(fixes...))
	}

	var pending *eventlog.Pending
	if !flags.DryRun && cfg.FullLog {
		pending = &eventlog.Pending{}
		opts = append(opts, sanitizer.WithEventSink(pending))
	}

	startTime := time.Now()
	if specPath == StdinFilePath {
		data, err := readSpec(specPath)
		if err != nil {
			return err
		}
		opts = append(opts, sanitizer.WithBytes(data, "<stdin>"))
	} else {
		opts = append(opts, sanitizer.WithFilePath(specPath))
	}

	result, err := sanitizer.SanitizeWithOptions(opts...)
	if err != nil {
		return fmt.Errorf("sanitizing %s: %w", FormatSpecPath(specPath), err)
	}
	totalTime := time.Since(startTime)

	if !flags.Quiet {
		Writef(os.Stderr, "OpenAPI Key Guard\n")
		Writef(os.Stderr, "=================\n\n")
		Writef(os.Stderr, "oaskeyguard version: %s\n", oaskeyguard.Version())
		Writef(os.Stderr, "Specification: %s\n", FormatSpecPath(specPath))
		Writef(os.Stderr, "OAS Version: %s\n", result.Document.Version())
		Writef(os.Stderr, "Paths: %d\n", result.Stats.PathCount)
		Writef(os.Stderr, "Operations: %d\n", result.Stats.OperationCount)
		Writef(os.Stderr, "Total Time: %v\n\n", totalTime)
		printFixes(result.Fixes)
	}

	if flags.DryRun {
		return nil
	}

	target := flags.Output
	if target == "" && specPath != StdinFilePath {
		target = specPath
	}
	if target == "" {
		data, err := result.Bytes()
		if err != nil {
			return err
		}
		if err := writeDocument(data, ""); err != nil {
			return err
		}
		return flushEvents(cfg, FormatSpecPath(specPath), pending)
	}
	if err := result.WriteTo(target); err != nil {
		return err
	}
	if err := flushEvents(cfg, FormatSpecPath(specPath), pending); err != nil {
		return err
	}
	if !flags.Quiet {
		Writef(os.Stderr, "Output written to: %s\n", target)
	}
	return nil
}
