package shell

import (
	"errors"
	"fmt"
	"os"

	"github.com/moenvlab/oaskeyguard/document"
	"github.com/moenvlab/oaskeyguard/sanitizer"
	"github.com/moenvlab/oaskeyguard/toolset"
)

var errNoDocument = errors.New("no document loaded; use 'load <file>'")

func (sh *Shell) handleLoad(parts []string) error {
	if len(parts) != 2 {
		return errors.New("usage: load <file>")
	}
	return sh.Load(parts[1])
}

// Load reads a file and makes it the current document. Text that does not
// parse is kept so that 'quote' can repair it.
func (sh *Shell) Load(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is typed by the user
	if err != nil {
		return err
	}
	sh.path = path
	sh.text = string(data)
	sh.fixes = nil
	sh.dirty = false
	sh.doc = nil
	sh.pending.Discard()

	doc, err := document.Parse(data, sh.path)
	if err != nil {
		fmt.Fprintf(sh.output, "Loaded %s (%d bytes), but it does not parse: %v\n", sh.path, len(data), err)
		fmt.Fprintf(sh.output, "Try 'quote' to repair flow-style response keys.\n")
		return nil
	}
	sh.doc = doc
	st := doc.Stats()
	fmt.Fprintf(sh.output, "Loaded %s: %d paths, %d operations\n", sh.path, st.PathCount, st.OperationCount)
	return nil
}

func (sh *Shell) handleShow() error {
	if sh.path == "" {
		return errNoDocument
	}
	fmt.Fprint(sh.output, sh.text)
	return nil
}

// handleQuote works on the text and reparses it.
func (sh *Shell) handleQuote() error {
	if sh.path == "" {
		return errNoDocument
	}
	text, fixes := sh.sanitizer.QuoteResponseKeys(sh.text)
	if len(fixes) > 0 {
		doc, err := document.Parse([]byte(text), sh.path)
		if err != nil {
			return err
		}
		sh.text, sh.doc = text, doc
	}
	sh.applied(fixes)
	return nil
}

func (sh *Shell) handleScrub() error {
	return sh.pass(sh.sanitizer.Scrub)
}

func (sh *Shell) handleSecure() error {
	return sh.pass(sh.sanitizer.Normalize)
}

// handleSanitize runs the remaining passes in pipeline order.
func (sh *Shell) handleSanitize() error {
	if err := sh.handleQuote(); err != nil {
		return err
	}
	if err := sh.handleScrub(); err != nil {
		return err
	}
	return sh.handleSecure()
}

// pass applies a tree pass and re-renders the text.
func (sh *Shell) pass(fn func(*document.Document) []sanitizer.Fix) error {
	if err := sh.requireDocument(); err != nil {
		return err
	}
	fixes := fn(sh.doc)
	if len(fixes) > 0 {
		data, err := sh.doc.Bytes()
		if err != nil {
			return err
		}
		sh.text = string(data)
	}
	sh.applied(fixes)
	return nil
}

func (sh *Shell) applied(fixes []sanitizer.Fix) {
	if len(fixes) == 0 {
		fmt.Fprintf(sh.output, "No changes.\n")
		return
	}
	for _, f := range fixes {
		fmt.Fprintf(sh.output, "  + %s: %s\n", f.Type, f.Description)
	}
	sh.fixes = append(sh.fixes, fixes...)
	for _, f := range fixes {
		_ = sh.pending.Record(f)
	}
	sh.dirty = true
}

func (sh *Shell) handleFixes() {
	if len(sh.fixes) == 0 {
		fmt.Fprintf(sh.output, "No fixes applied.\n")
		return
	}
	for i, f := range sh.fixes {
		fmt.Fprintf(sh.output, "%3d. [%s] %s\n", i+1, f.Type, f.Path)
	}
}

func (sh *Shell) handleTools() error {
	if err := sh.requireDocument(); err != nil {
		return err
	}
	ops := toolset.Operations(sh.doc)
	if len(ops) == 0 {
		fmt.Fprintf(sh.output, "No operations.\n")
		return nil
	}
	for _, op := range ops {
		fmt.Fprintf(sh.output, "  %-24s %-6s %s\n", op.Name, op.Method, op.Path)
	}
	if c, ok := toolset.ResolveCarrier(sh.doc, sh.sanitizer.SchemeName); ok {
		fmt.Fprintf(sh.output, "API key sent in %s as %q\n", c.In, c.Name)
	}
	return nil
}

func (sh *Shell) handleStats() error {
	if err := sh.requireDocument(); err != nil {
		return err
	}
	st := sh.doc.Stats()
	fmt.Fprintf(sh.output, "%-18s%s\n", "Version:", sh.doc.Version())
	fmt.Fprintf(sh.output, "%-18s%d\n", "Paths:", st.PathCount)
	fmt.Fprintf(sh.output, "%-18s%d\n", "Operations:", st.OperationCount)
	fmt.Fprintf(sh.output, "%-18s%d\n", "Security schemes:", st.SchemeCount)
	fmt.Fprintf(sh.output, "%-18s%d\n", "Fixes applied:", len(sh.fixes))
	return nil
}

// handleSave writes the document to the loaded path or the given one.
func (sh *Shell) handleSave(parts []string) error {
	if err := sh.requireDocument(); err != nil {
		return err
	}
	target := sh.path
	if len(parts) > 1 {
		target = parts[1]
	}
	if err := sh.doc.Save(target); err != nil {
		return err
	}
	if target == sh.path {
		sh.dirty = false
	}
	fmt.Fprintf(sh.output, "Wrote %s\n", target)
	if sh.events != nil {
		if err := sh.pending.Flush(sh.events); err != nil {
			return fmt.Errorf("recording fixes: %w", err)
		}
	}
	return nil
}

// handleHelp displays available commands.
func (sh *Shell) handleHelp() {
	fmt.Fprintln(sh.output, "Available commands:")
	fmt.Fprintln(sh.output, "  load (l) <file>   Read an OpenAPI document")
	fmt.Fprintln(sh.output, "  show              Print the current document text")
	fmt.Fprintln(sh.output, "  quote             Quote flow-style response status keys")
	fmt.Fprintln(sh.output, "  scrub             Remove hardcoded api_key defaults")
	fmt.Fprintln(sh.output, "  secure            Inject the security requirement on GET operations")
	fmt.Fprintln(sh.output, "  sanitize (s)      Run quote, scrub, and secure")
	fmt.Fprintln(sh.output, "  fixes             List fixes applied so far")
	fmt.Fprintln(sh.output, "  tools (t)         List tool descriptors")
	fmt.Fprintln(sh.output, "  stats             Show document counts")
	fmt.Fprintln(sh.output, "  save (w) [file]   Write the document")
	fmt.Fprintln(sh.output, "  help (?)          Show this help")
	fmt.Fprintln(sh.output, "  quit (q)          Exit the shell")
}

func (sh *Shell) requireDocument() error {
	if sh.doc == nil {
		if sh.path != "" {
			return fmt.Errorf("%s does not parse; try 'quote'", sh.path)
		}
		return errNoDocument
	}
	return nil
}
