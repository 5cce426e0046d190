package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vk/plangraph/internal/app"
	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/resolver"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvDSN       = "PLANGRAPH_DSN"
	EnvRedisAddr = "PLANGRAPH_REDIS_ADDR"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `
plangraph - compiles pipeline definitions and resolves path expressions
against their execution trees.

Usage:
  plangraph compile [options] PIPELINE_PATH...
  plangraph resolve [options] -position ID,ID,... EXPRESSION...

Arguments:
  PIPELINE_PATH
    Path to a single .hcl file or a directory containing .hcl files.
  EXPRESSION
    A path such as stage.param, d[1].param or <+stage.currentStatus>.

Options:
`

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return parse(args, output, os.Getenv)
}

func parse(args []string, output io.Writer, getenv func(string) string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("plangraph", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	if len(args) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	command := app.Command(args[0])
	switch command {
	case app.CommandCompile, app.CommandResolve:
	case "-h", "-help", "--help", "help":
		flagSet.Usage()
		return nil, true, nil
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q: must be 'compile' or 'resolve'", args[0])}
	}

	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	storeFlag := flagSet.String("store", app.StoreMemory, "Node store backend. Options: 'memory', 'postgres', 'redis'.")
	treeFlag := flagSet.String("tree", "", "YAML execution-tree fixture for the memory store.")
	dsnFlag := flagSet.String("dsn", "", "PostgreSQL connection string (default $"+EnvDSN+").")
	redisFlag := flagSet.String("redis-addr", "", "Redis address host:port (default $"+EnvRedisAddr+").")
	positionFlag := flagSet.String("position", "", "Comma-separated execution ids from the root to the current node.")
	aliases := resolver.Aliases{}
	flagSet.Func("alias", "Alias for a group tag as name=TAG. Repeatable.", func(v string) error {
		name, tag, ok := strings.Cut(v, "=")
		if !ok || name == "" || tag == "" {
			return fmt.Errorf("alias must look like name=TAG, got %q", v)
		}
		aliases[name] = tag
		return nil
	})

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := app.Config{
		Command:         command,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
	}
	switch command {
	case app.CommandCompile:
		cfg.PipelinePaths = flagSet.Args()
	case app.CommandResolve:
		cfg.Expressions = flagSet.Args()
		cfg.Position = splitPosition(*positionFlag)
		cfg.Aliases = aliases
		cfg.Store = strings.ToLower(*storeFlag)
		cfg.TreePath = *treeFlag
		cfg.DSN = firstNonEmpty(*dsnFlag, getenv(EnvDSN))
		cfg.RedisAddr = firstNonEmpty(*redisFlag, getenv(EnvRedisAddr))
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}

func splitPosition(raw string) node.Position {
	var pos node.Position
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			pos = append(pos, id)
		}
	}
	return pos
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
