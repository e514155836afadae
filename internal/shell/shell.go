// Package shell implements the interactive sanitizer shell.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/moenvlab/oaskeyguard/document"
	"github.com/moenvlab/oaskeyguard/internal/eventlog"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

// Shell is a REPL for loading a document and applying the sanitizer passes
// one at a time.
type Shell struct {
	output    io.Writer
	sanitizer *sanitizer.Sanitizer

	path  string
	text  string
	doc   *document.Document
	fixes []sanitizer.Fix
	dirty bool

	// Fixes reach events once a save has written them.
	events  sanitizer.EventSink
	pending eventlog.Pending
}

// New creates a shell that writes to output and applies fixes with s.
func New(s *sanitizer.Sanitizer, output io.Writer) *Shell {
	if output == nil {
		output = os.Stdout
	}
	return &Shell{output: output, sanitizer: s}
}

// SetEventSink makes the shell record applied fixes to events after each
// successful save.
func (sh *Shell) SetEventSink(events sanitizer.EventSink) {
	sh.events = events
}

var commands = []string{"load", "show", "quote", "scrub", "secure", "sanitize",
	"fixes", "tools", "stats", "save", "help", "quit"}

// Run starts the interactive loop. It returns when the user quits, on
// Ctrl-C or EOF, or when ctx is cancelled.
func (sh *Shell) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("shell: init readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintf(sh.output, "oaskeyguard shell\n")
	fmt.Fprintf(sh.output, "Type 'help' for available commands, 'load <file>' to start.\n\n")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		rl.SetPrompt(sh.prompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		if sh.Exec(line) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (sh *Shell) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	var err error
	switch parts[0] {
	case "load", "l":
		err = sh.handleLoad(parts)
	case "show":
		err = sh.handleShow()
	case "quote":
		err = sh.handleQuote()
	case "scrub":
		err = sh.handleScrub()
	case "secure", "normalize":
		err = sh.handleSecure()
	case "sanitize", "s":
		err = sh.handleSanitize()
	case "fixes":
		sh.handleFixes()
	case "tools", "t":
		err = sh.handleTools()
	case "stats":
		err = sh.handleStats()
	case "save", "w":
		err = sh.handleSave(parts)
	case "help", "?":
		sh.handleHelp()
	case "quit", "exit", "q":
		if sh.dirty {
			fmt.Fprintf(sh.output, "Discarding unsaved changes to %s.\n", sh.path)
		}
		fmt.Fprintf(sh.output, "Bye.\n")
		return true
	default:
		fmt.Fprintf(sh.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
	}
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
	}
	return false
}

// prompt shows the loaded file and a marker for unsaved changes.
func (sh *Shell) prompt() string {
	if sh.path == "" {
		return "oaskeyguard> "
	}
	mark := ""
	if sh.dirty {
		mark = "*"
	}
	return fmt.Sprintf("oaskeyguard[%s%s]> ", sh.path, mark)
}
