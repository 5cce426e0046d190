package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Compile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
step "approval" "a1" {}
parallel {
  step "shell" "p1" {}
  step "shell" "p2" {}
}
step "deploy" "b1" {}
`), 0600))

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, logs, []string{"compile", path}))
	require.Contains(t, out.String(), `"execution_order":["a1",`)
	require.Contains(t, out.String(), `{"from":"p1","to":"b1"}`)
}

func TestRun_InvalidPipeline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
		step "shell" "A" {
	`), 0600))

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"compile", path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"compile", "--this-is-not-a-valid-flag"})
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
