package commands

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/moenvlab/oaskeyguard/internal/config"
	"github.com/moenvlab/oaskeyguard/internal/mcpserver"
)

// SetupMCPFlags creates and configures a FlagSet for the mcp command.
func SetupMCPFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oaskeyguard mcp\n\n")
		Writef(fs.Output(), "Serve the sanitize, quote_response_keys, and list_tools tools over\n")
		Writef(fs.Output(), "MCP (Model Context Protocol) on stdio.\n\n")
		Writef(fs.Output(), "Environment:\n")
		Writef(fs.Output(), "  %s                required; the data-platform API key\n", config.EnvDataKey)
		Writef(fs.Output(), "  %s         append every fix to the fix log\n", config.EnvFullLog)
		Writef(fs.Output(), "  %s          fix log path (default %s)\n", config.EnvLogFile, config.DefaultLogFile)
		Writef(fs.Output(), "  %s         debug, info, warn, or error (logs go to stderr)\n", config.EnvLogLevel)
		Writef(fs.Output(), "  %s  inline content limit in bytes\n", config.EnvMaxInlineSize)
	}

	return fs
}

// HandleMCP executes the mcp command. It blocks until the client disconnects
// or the process is interrupted.
func HandleMCP(args []string) error {
	fs := SetupMCPFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Load()
	if err := cfg.RequireDataKey(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.Run(ctx, cfg, cfg.NewLogger(os.Stderr))
}
