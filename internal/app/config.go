package app

import (
	"errors"
	"fmt"

	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/resolver"
)

// Command selects what the App does.
type Command string

const (
	CommandCompile Command = "compile"
	CommandResolve Command = "resolve"
)

// Store backends selectable for the resolve command.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command Command

	// PipelinePaths are .hcl files or directories (compile).
	PipelinePaths []string

	// Expressions are the paths to resolve (resolve).
	Expressions []string
	Position    node.Position
	Aliases     resolver.Aliases

	Store     string
	TreePath  string // yaml fixture for the memory store
	DSN       string
	RedisAddr string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandCompile:
		if len(cfg.PipelinePaths) == 0 {
			return nil, errors.New("compile needs at least one pipeline path")
		}
	case CommandResolve:
		if len(cfg.Expressions) == 0 {
			return nil, errors.New("resolve needs at least one expression")
		}
		if len(cfg.Position) == 0 {
			return nil, errors.New("resolve needs a position")
		}
		if err := validateStore(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	return &cfg, nil
}

func validateStore(cfg Config) error {
	switch cfg.Store {
	case StoreMemory:
		if cfg.TreePath == "" {
			return errors.New("the memory store needs a tree fixture")
		}
	case StorePostgres:
		if cfg.DSN == "" {
			return errors.New("the postgres store needs a DSN")
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return errors.New("the redis store needs an address")
		}
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}
	return nil
}
