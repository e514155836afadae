package main

import (
	"fmt"
	"os"

	"github.com/moenvlab/oaskeyguard"
	"github.com/moenvlab/oaskeyguard/cmd/oaskeyguard/commands"
)

// commandNames lists every top-level command, for help and typo suggestions.
var commandNames = []string{
	"sanitize", "quote", "scrub", "secure", "tools", "mcp", "shell", "version", "help",
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("oaskeyguard v%s (commit %s)\n", oaskeyguard.Version(), oaskeyguard.Commit())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "sanitize":
		err = commands.HandleSanitize(args)
	case "quote":
		err = commands.HandleQuote(args)
	case "scrub":
		err = commands.HandleScrub(args)
	case "secure":
		err = commands.HandleSecure(args)
	case "tools":
		err = commands.HandleTools(args)
	case "mcp":
		err = commands.HandleMCP(args)
	case "shell":
		err = commands.HandleShell(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `oaskeyguard - keep API keys out of OpenAPI documents

Usage:
  oaskeyguard <command> [flags] [file|-]

Commands:
  sanitize  Run every pass and overwrite the document
  quote     Quote flow-style response status keys
  scrub     Remove hardcoded API key defaults
  secure    Inject the API key security requirement on GET operations
  tools     List the tools an agent would derive from the sanitized document
  mcp       Serve the pipeline over MCP on stdio
  shell     Interactive shell
  version   Show version information
  help      Show this help message

Run 'oaskeyguard <command> --help' for more information on a command.
`)
}

// suggestCommand returns the closest command name within edit distance 2,
// or "" when nothing is close enough.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
