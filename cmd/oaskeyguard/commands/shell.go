package commands

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/moenvlab/oaskeyguard/internal/config"
	"github.com/moenvlab/oaskeyguard/internal/shell"
)

// ShellFlags contains flags for the shell command
type ShellFlags struct {
	pipelineFlags
}

// SetupShellFlags creates and configures a FlagSet for the shell command.
func SetupShellFlags() (*flag.FlagSet, *ShellFlags) {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	flags := &ShellFlags{}
	flags.bind(fs)

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oaskeyguard shell [flags] [file]\n\n")
		Writef(fs.Output(), "Start an interactive shell that applies the passes one at a time.\n")
		Writef(fs.Output(), "The file, if given, is loaded on start.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	return fs, flags
}

// HandleShell executes the shell command
func HandleShell(args []string) error {
	fs, flags := SetupShellFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return errors.New("shell command accepts at most one file path")
	}

	cfg := config.Load()
	s, err := flags.newSanitizer(newLogger(cfg, true))
	if err != nil {
		return err
	}
	sink, closeLog, err := openEventLog(cfg, "shell")
	if err != nil {
		return err
	}
	defer closeLog()

	sh := shell.New(s, os.Stdout)
	if sink != nil {
		sh.SetEventSink(sink)
	}
	if fs.NArg() == 1 {
		if err := sh.Load(fs.Arg(0)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return sh.Run(ctx)
}
