package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd runs the CLI with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, args)
	return stdout.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected an ExitError, got %v", err)
	return exitErr.Code
}

// starterProject writes the starter project into a temp dir.
func starterProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runCmd(t, "init", "--project-root", dir)
	require.NoError(t, err)
	return dir
}

// builtProject is a starter project with its exports written and no
// persisted graph, so later commands read out/workspace.json.
func builtProject(t *testing.T) string {
	t.Helper()
	dir := starterProject(t)
	_, err := runCmd(t, "build", "--project-root", dir, "--no-graph", "--quiet")
	require.NoError(t, err)
	return dir
}

func TestRun_Version(t *testing.T) {
	out, err := runCmd(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestRun_Help(t *testing.T) {
	out, err := runCmd(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "architecturizr describe <pattern>")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"unknown flag", []string{"build", "--nope"}},
		{"extra arguments", []string{"build", "--project-root", t.TempDir(), "--", "extra"}},
		{"describe without pattern", []string{"describe"}},
		{"bad export format", []string{"export", "--format", "png"}},
		{"bad log format", []string{"status", "--project-root", t.TempDir(), "--log-format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, exitCode(t, err))
		})
	}
}

func TestBuild_NoCatalogue(t *testing.T) {
	_, err := runCmd(t, "build", "--project-root", t.TempDir(), "--no-graph")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(t, err))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, err := runCmd(t, "init", "--project-root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "created ./catalogue.yaml")
	assert.Contains(t, out, "created .mcp.json")

	for _, name := range []string{"architecturizr.yml", "catalogue.yaml", "flows/checkout.txt", ".env.example"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "architecturizr")

	out, err = runCmd(t, "init", "--project-root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped ./catalogue.yaml")
	assert.Contains(t, out, "skipped .mcp.json")
}

func TestInit_MergesMCPConfig(t *testing.T) {
	dir := t.TempDir()
	existing := `{"mcpServers": {"other": {"type": "stdio", "command": "other"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte(existing), 0o644))

	out, err := runCmd(t, "init", "--project-root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "updated .mcp.json")

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "other")
	assert.Contains(t, cfg.MCPServers, "architecturizr")
}

func TestBuild_WritesExports(t *testing.T) {
	dir := starterProject(t)

	out, err := runCmd(t, "build", "--project-root", dir, "--no-graph", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote ./out/workspace.json")
	assert.Contains(t, out, "wrote ./out/workspace.dsl")
	assert.Contains(t, out, "wrote ./out/model.mmd")
	assert.FileExists(t, filepath.Join(dir, "out", "workspace.json"))
	assert.NoDirExists(t, filepath.Join(dir, ".architecturizr"))
}

func TestBuild_FlagsOverrideConfig(t *testing.T) {
	dir := starterProject(t)

	_, err := runCmd(t, "build", "--project-root", dir, "--no-graph", "--quiet",
		"--output-dir", "site", "--formats", "json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "site", "workspace.json"))
	assert.NoFileExists(t, filepath.Join(dir, "site", "workspace.dsl"))
}

func TestBuild_UndefinedElement(t *testing.T) {
	dir := starterProject(t)
	broken := "customer -> warehouse: Where is my parcel\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flows", "broken.txt"), []byte(broken), 0o644))

	_, err := runCmd(t, "build", "--project-root", dir, "--no-graph", "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse")
}

func TestStatus(t *testing.T) {
	dir := builtProject(t)

	out, err := runCmd(t, "status", "--project-root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Elements:      7")
	assert.Contains(t, out, "  components   1")
	assert.Contains(t, out, "Processes:     2")
	assert.Contains(t, out, "Checkout")
}

func TestStatus_NoModel(t *testing.T) {
	_, err := runCmd(t, "status", "--project-root", t.TempDir())
	assert.ErrorIs(t, err, errNoModel)
}

func TestDiagram(t *testing.T) {
	dir := builtProject(t)

	out, err := runCmd(t, "diagram", "--project-root", dir, "--level", "container")
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart LR")
	assert.Contains(t, out, "Order Service")
	assert.NotContains(t, out, "Checkout Handler")

	_, err = runCmd(t, "diagram", "--project-root", dir, "--level", "actor")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(t, err))
}

func TestDescribe(t *testing.T) {
	dir := builtProject(t)

	out, err := runCmd(t, "describe", "--project-root", dir, "checkout")
	require.NoError(t, err)
	assert.Contains(t, out, `## Model context for "checkout"`)
	assert.Contains(t, out, "`checkout` component")
	assert.Contains(t, out, "**Processes:**")

	out, err = runCmd(t, "describe", "--project-root", dir, "no-such-thing")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDescribe_NoModel(t *testing.T) {
	out, err := runCmd(t, "describe", "--project-root", t.TempDir(), "shop")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExport(t *testing.T) {
	dir := starterProject(t)

	out, err := runCmd(t, "export", "--project-root", dir, "--format", "dsl")
	require.NoError(t, err)
	assert.Contains(t, out, `workspace "Online Shop"`)
	assert.NoDirExists(t, filepath.Join(dir, "out"), "export leaves the output directory alone")

	target := filepath.Join(dir, "model.mmd")
	out, err = runCmd(t, "export", "--project-root", dir, "--format", "mermaid", "--output", target)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flowchart LR")
}

func TestGraphBuild_NilIsNoop(t *testing.T) {
	var gb *graphBuild
	assert.NoError(t, gb.commit())
	assert.NoError(t, gb.discard())
}

func TestBuild_FailureKeepsLastModel(t *testing.T) {
	dir := builtProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flows", "broken.txt"), []byte("customer -> warehouse: lost\n"), 0o644))

	_, err := runCmd(t, "build", "--project-root", dir, "--quiet")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, ".architecturizr", "graph.building"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	out, err := runCmd(t, "status", "--project-root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Elements:      7")
}
