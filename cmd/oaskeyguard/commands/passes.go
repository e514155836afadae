package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/moenvlab/oaskeyguard/document"
	"github.com/moenvlab/oaskeyguard/internal/config"
	"github.com/moenvlab/oaskeyguard/internal/eventlog"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

// PassFlags contains flags for the single-pass commands (quote, scrub, secure)
type PassFlags struct {
	pipelineFlags
	Output string
	Write  bool
	Quiet  bool
}

// passSpec describes one single-pass command.
type passSpec struct {
	name    string
	summary string
	// text passes run before parsing; tree passes run on the parsed document.
	text func(s *sanitizer.Sanitizer, text string) (string, []sanitizer.Fix)
	tree func(s *sanitizer.Sanitizer, doc *document.Document) []sanitizer.Fix
}

var (
	quotePass = passSpec{
		name:    "quote",
		summary: "Quote unquoted status codes in flow-style responses mappings. Works on raw\ntext, so the document does not need to parse.",
		text:    (*sanitizer.Sanitizer).QuoteResponseKeys,
	}
	scrubPass = passSpec{
		name:    "scrub",
		summary: "Remove hardcoded default values from API key parameters and request body\nproperties, in every operation.",
		tree:    (*sanitizer.Sanitizer).Scrub,
	}
	securePass = passSpec{
		name:    "secure",
		summary: "Set the API key security requirement on GET operations and drop the API key\nquery parameter from them.",
		tree:    (*sanitizer.Sanitizer).Normalize,
	}
)

// setupPassFlags creates and configures a FlagSet for a single-pass command.
func setupPassFlags(p passSpec) (*flag.FlagSet, *PassFlags) {
	fs := flag.NewFlagSet(p.name, flag.ContinueOnError)
	flags := &PassFlags{}

	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.BoolVar(&flags.Write, "w", false, "overwrite the input file")
	fs.BoolVar(&flags.Write, "write", false, "overwrite the input file")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output the document, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output the document, no diagnostic messages")
	flags.bind(fs)

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oaskeyguard %s [flags] [file|-]\n\n", p.name)
		Writef(fs.Output(), "%s\n\n", p.summary)
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oaskeyguard %s moenv_openapi.yaml\n", p.name)
		Writef(fs.Output(), "  oaskeyguard %s -w moenv_openapi.yaml\n", p.name)
		Writef(fs.Output(), "  cat moenv_openapi.yaml | oaskeyguard %s -q -\n", p.name)
	}

	return fs, flags
}

// SetupQuoteFlags creates and configures a FlagSet for the quote command.
func SetupQuoteFlags() (*flag.FlagSet, *PassFlags) { return setupPassFlags(quotePass) }

// SetupScrubFlags creates and configures a FlagSet for the scrub command.
func SetupScrubFlags() (*flag.FlagSet, *PassFlags) { return setupPassFlags(scrubPass) }

// SetupSecureFlags creates and configures a FlagSet for the secure command.
func SetupSecureFlags() (*flag.FlagSet, *PassFlags) { return setupPassFlags(securePass) }

// HandleQuote executes the quote command
func HandleQuote(args []string) error { return handlePass(quotePass, args) }

// HandleScrub executes the scrub command
func HandleScrub(args []string) error { return handlePass(scrubPass, args) }

// HandleSecure executes the secure command
func HandleSecure(args []string) error { return handlePass(securePass, args) }

func handlePass(p passSpec, args []string) error {
	fs, flags := setupPassFlags(p)

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
	if flags.Write && specPath == StdinFilePath {
		return fmt.Errorf("%s: --write cannot be used with stdin", p.name)
	}
	if flags.Write && flags.Output != "" {
		return fmt.Errorf("%s: --write and --output are mutually exclusive", p.name)
	}

	s, err := flags.newSanitizer(newLogger(cfg, flags.Quiet))
	if err != nil {
		return err
	}
	pending := &eventlog.Pending{}
	s.Events = pending

	data, err := readSpec(specPath)
	if err != nil {
		return err
	}

	var out []byte
	var fixes []sanitizer.Fix
	if p.text != nil {
		var text string
		text, fixes = p.text(s, string(data))
		out = []byte(text)
	} else {
		doc, err := document.Parse(data, FormatSpecPath(specPath))
		if err != nil {
			return err
		}
		fixes = p.tree(s, doc)
		if out, err = doc.Bytes(); err != nil {
			return err
		}
	}

	if !flags.Quiet {
		printFixes(fixes)
	}

	target := flags.Output
	if flags.Write {
		target = specPath
	}
	if err := writeDocument(out, target); err != nil {
		return err
	}
	if err := flushEvents(cfg, FormatSpecPath(specPath), pending); err != nil {
		return err
	}
	if target != "" && !flags.Quiet {
		Writef(os.Stderr, "Output written to: %s\n", target)
	}
	return nil
}
