package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dusk-indust/architecturizr/internal/config"
	"github.com/dusk-indust/architecturizr/internal/ctxlog"
)

// version is set by goreleaser at build time.
var version = "dev"

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// commonFlags are accepted by every command.
type commonFlags struct {
	ProjectRoot string
	LogLevel    string
	LogFormat   string
	NoColor     bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.ProjectRoot, "project-root", ".", "path to the project holding architecturizr.yml")
	fs.StringVar(&c.LogLevel, "log-level", "", "log level: debug, info, warn, error (default from config, else info)")
	fs.StringVar(&c.LogFormat, "log-format", "", "log format: text or json (default from config, else text)")
	fs.BoolVar(&c.NoColor, "no-color", false, "disable colored log output")
}

// env is what a command runs with: the loaded project config, a logger in
// the context and the output streams.
type env struct {
	ctx    context.Context
	root   string
	cfg    *config.ProjectConfig
	stdout io.Writer
	stderr io.Writer
}

// setup loads the project config and installs the logger.
func (c *commonFlags) setup(ctx context.Context, stdout, stderr io.Writer) (*env, error) {
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
	withDefaults := cfg.WithDefaults()
	format := strings.ToLower(withDefaults.LogFormat)
	if format != "text" && format != "json" {
		return nil, usageError("invalid log-format %q: must be 'text' or 'json'", withDefaults.LogFormat)
	}

	logger := ctxlog.New(stderr, withDefaults.LogLevel, format, c.NoColor)
	slog.SetDefault(logger)
	return &env{
		ctx:    ctxlog.WithLogger(ctx, logger),
		root:   root,
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "error: %s\n", exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// commands maps subcommand names to their entry points. build is the
// default when the first argument is not a command name.
var commands = map[string]func(ctx context.Context, stdout, stderr io.Writer, args []string) error{
	"build":    runBuild,
	"diagram":  runDiagram,
	"export":   runExport,
	"status":   runStatus,
	"describe": runDescribe,
	"init":     runInit,
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	if len(args) > 0 {
		if cmd, ok := commands[args[0]]; ok {
			return cmd(ctx, stdout, stderr, args[1:])
		}
		if args[0] == "help" {
			printUsage(stdout)
			return nil
		}
		if !strings.HasPrefix(args[0], "-") {
			return usageError("unknown command %q (run 'architecturizr help')", args[0])
		}
	}
	return runBuild(ctx, stdout, stderr, args)
}

// parseFlags parses args with fs, mapping -h to a clean exit and any other
// parse error to a usage error.
func parseFlags(fs *flag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, usageError("%v", err)
	}
	return false, nil
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `architecturizr - build an architecture model from an element catalogue and flow files.

Usage:
  architecturizr [build] [flags]        build the model and write the configured exports
  architecturizr diagram [flags]        print a Mermaid flowchart of the persisted model
  architecturizr export [flags]         build the model and print one export format
  architecturizr status [flags]         summarize the persisted model
  architecturizr describe <pattern>     print the context of matching elements
  architecturizr init [--force]         write a starter project
  architecturizr --serve-mcp            serve model queries over MCP (stdio, or --mcp-addr)
  architecturizr --version              print version and exit

Run 'architecturizr <command> -h' for the flags of a command.
`)
}
