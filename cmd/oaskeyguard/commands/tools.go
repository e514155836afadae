package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/moenvlab/oaskeyguard/internal/config"
	"github.com/moenvlab/oaskeyguard/sanitizer"
	"github.com/moenvlab/oaskeyguard/toolset"
)

// ToolsFlags contains flags for the tools command
type ToolsFlags struct {
	pipelineFlags
	Format     string
	RequireKey bool
}

// ToolsReport is the structured output of the tools command.
type ToolsReport struct {
	Spec       string              `json:"spec" yaml:"spec"`
	Tools      []toolset.Operation `json:"tools" yaml:"tools"`
	Carrier    *toolset.Carrier    `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	Credential string              `json:"credential,omitempty" yaml:"credential,omitempty"`
}

// SetupToolsFlags creates and configures a FlagSet for the tools command.
// Returns the FlagSet and a ToolsFlags struct with bound flag variables.
func SetupToolsFlags() (*flag.FlagSet, *ToolsFlags) {
	fs := flag.NewFlagSet("tools", flag.ContinueOnError)
	flags := &ToolsFlags{}

	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.RequireKey, "require-key", false, "fail unless "+config.EnvDataKey+" is set")
	flags.bind(fs)

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oaskeyguard tools [flags] [file|-]\n\n")
		Writef(fs.Output(), "Sanitize a document in memory and list the tool an agent would derive\n")
		Writef(fs.Output(), "from each operation. The file is not modified.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oaskeyguard tools moenv_openapi.yaml\n")
		Writef(fs.Output(), "  oaskeyguard tools --format json --require-key moenv_openapi.yaml\n")
	}

	return fs, flags
}

// HandleTools executes the tools command
func HandleTools(args []string) error {
	fs, flags := SetupToolsFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	cfg := config.Load()
	specPath, err := specArg(fs, cfg)
	if err != nil {
		return err
	}

	cred, credErr := toolset.CredentialFromEnv(cfg.DataKeyEnv)
	if flags.RequireKey && credErr != nil {
		return credErr
	}

	data, err := readSpec(specPath)
	if err != nil {
		return err
	}
	opts := append(flags.options(),
		sanitizer.WithBytes(data, FormatSpecPath(specPath)),
		sanitizer.WithLogger(sanitizer.NewSlogAdapter(newLogger(cfg, true))),
	)
	result, err := sanitizer.SanitizeWithOptions(opts...)
	if err != nil {
		return fmt.Errorf("sanitizing %s: %w", FormatSpecPath(specPath), err)
	}

	report := ToolsReport{
		Spec:  FormatSpecPath(specPath),
		Tools: toolset.Operations(result.Document),
	}
	if c, ok := toolset.ResolveCarrier(result.Document, flags.Scheme); ok {
		report.Carrier = &c
	}
	if credErr == nil {
		report.Credential = cred.String()
	}

	if flags.Format != FormatText {
		return OutputStructured(os.Stdout, report, flags.Format)
	}

	Writef(os.Stdout, "Tools for %s (%d):\n", report.Spec, len(report.Tools))
	for _, op := range report.Tools {
		Writef(os.Stdout, "  %-28s %-7s %s\n", op.Name, op.Method, op.Path)
		if op.Summary != "" {
			Writef(os.Stdout, "      %s\n", op.Summary)
		}
		for _, p := range op.Parameters {
			req := ""
			if p.Required {
				req = " (required)"
			}
			Writef(os.Stdout, "      - %s in %s%s\n", p.Name, p.In, req)
		}
	}
	if report.Carrier != nil {
		Writef(os.Stdout, "\nAPI key: %s %q via %s\n", report.Carrier.In, report.Carrier.Name, flags.Scheme)
	} else {
		Writef(os.Stdout, "\nAPI key: scheme %s is not an apiKey scheme in components.securitySchemes\n", flags.Scheme)
	}
	if report.Credential != "" {
		Writef(os.Stdout, "Credential: %s\n", report.Credential)
	} else {
		Writef(os.Stdout, "Credential: %s is not set\n", cfg.DataKeyEnv)
	}
	return nil
}
