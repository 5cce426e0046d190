package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plangraph/internal/app"
	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/resolver"
)

func noEnv(string) string { return "" }

func TestParse_Compile(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := parse([]string{"compile", "-log-format", "JSON", "-log-level", "debug", "a.hcl", "dir"}, out, noEnv)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, app.CommandCompile, cfg.Command)
	assert.Equal(t, []string{"a.hcl", "dir"}, cfg.PipelinePaths)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_Resolve(t *testing.T) {
	cfg, exit, err := parse([]string{
		"resolve",
		"-tree", "tree.yaml",
		"-position", "a, c,d ,e",
		"-alias", "stage=STAGE",
		"-alias", "step=STEP",
		"stage.param", "e.param",
	}, &bytes.Buffer{}, noEnv)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, app.CommandResolve, cfg.Command)
	assert.Equal(t, node.Position{"a", "c", "d", "e"}, cfg.Position)
	assert.Equal(t, resolver.Aliases{"stage": "STAGE", "step": "STEP"}, cfg.Aliases)
	assert.Equal(t, []string{"stage.param", "e.param"}, cfg.Expressions)
	assert.Equal(t, app.StoreMemory, cfg.Store)
	assert.Equal(t, "tree.yaml", cfg.TreePath)
}

func TestParse_EnvironmentFallback(t *testing.T) {
	env := map[string]string{EnvDSN: "postgres://from-env", EnvRedisAddr: "localhost:6379"}
	getenv := func(k string) string { return env[k] }

	cfg, _, err := parse([]string{"resolve", "-store", "postgres", "-position", "a", "a"}, &bytes.Buffer{}, getenv)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-env", cfg.DSN)

	cfg, _, err = parse([]string{"resolve", "-store", "postgres", "-dsn", "postgres://flag", "-position", "a", "a"}, &bytes.Buffer{}, getenv)
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag", cfg.DSN)

	cfg, _, err = parse([]string{"resolve", "-store", "redis", "-position", "a", "a"}, &bytes.Buffer{}, getenv)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestParse_Help(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"help"}, {"compile", "-h"}} {
		out := &bytes.Buffer{}
		cfg, exit, err := parse(args, out, noEnv)
		require.NoError(t, err, "args %v", args)
		assert.True(t, exit, "args %v", args)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown command", args: []string{"run"}, wantErr: `unknown command "run"`},
		{name: "unknown flag", args: []string{"compile", "-nope"}, wantErr: "flag provided but not defined: -nope"},
		{name: "bad log format", args: []string{"compile", "-log-format", "xml", "a.hcl"}, wantErr: "invalid log-format"},
		{name: "bad log level", args: []string{"compile", "-log-level", "loud", "a.hcl"}, wantErr: "invalid log-level"},
		{name: "bad alias", args: []string{"resolve", "-alias", "stage"}, wantErr: "alias must look like name=TAG"},
		{name: "compile without paths", args: []string{"compile"}, wantErr: "at least one pipeline path"},
		{name: "resolve without position", args: []string{"resolve", "-tree", "t.yaml", "a"}, wantErr: "needs a position"},
		{name: "postgres without dsn", args: []string{"resolve", "-store", "postgres", "-position", "a", "a"}, wantErr: "needs a DSN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := parse(tc.args, &bytes.Buffer{}, noEnv)
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}
