package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Catalogue)
	assert.Empty(t, cfg.Formats)
}

func TestLoad_YML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "architecturizr.yml", `
catalogue: catalogue.xlsx
flowsDir: sequences
extensions: [.txt, .puml]
formats: [json, mermaid]
ownerTag: Acme
concurrency: 4
s3:
  endpoint: minio:9000
  useSSL: false
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "catalogue.xlsx", cfg.Catalogue)
	assert.Equal(t, "sequences", cfg.FlowsDir)
	assert.Equal(t, []string{".txt", ".puml"}, cfg.Extensions)
	assert.Equal(t, []string{"json", "mermaid"}, cfg.Formats)
	assert.Equal(t, "Acme", cfg.OwnerTag)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "minio:9000", cfg.S3.Endpoint)
	assert.False(t, cfg.S3.SSL())
}

func TestLoad_YAMLExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "architecturizr.yaml", "catalogue: model.yaml\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "model.yaml", cfg.Catalogue)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "architecturizr.yml", "catalogue: [unterminated\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "architecturizr.yml")
}

func TestLoad_DotEnv(t *testing.T) {
	const key = EnvPrefix + "FLOWS_DIR"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	writeFile(t, dir, "architecturizr.yml", "flowsDir: sequences\n")
	writeFile(t, dir, ".env", key+"=from-dotenv\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.FlowsDir)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"CATALOGUE", "s3://models/catalogue.xlsx")
	t.Setenv(EnvPrefix+"FORMATS", "dsl, mermaid")

	dir := t.TempDir()
	writeFile(t, dir, "architecturizr.yml", "catalogue: local.xlsx\nformats: [json]\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "s3://models/catalogue.xlsx", cfg.Catalogue)
	assert.Equal(t, []string{"dsl", "mermaid"}, cfg.Formats)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPrefix + "OWNER_TAG":   "Acme",
		EnvPrefix + "CONCURRENCY": "8",
		EnvPrefix + "S3_USE_SSL":  "false",
		EnvPrefix + "LOG_LEVEL":   "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := ProjectConfig{LogLevel: "warn"}
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "Acme", cfg.OwnerTag)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.False(t, cfg.S3.SSL())
	assert.Equal(t, "warn", cfg.LogLevel, "blank values do not override")
}

func TestApplyEnv_InvalidNumbers(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == EnvPrefix+"CONCURRENCY" {
			return "many", true
		}
		return "", false
	}
	cfg := ProjectConfig{}
	assert.ErrorContains(t, cfg.ApplyEnv(lookup), "CONCURRENCY")

	lookup = func(k string) (string, bool) {
		if k == EnvPrefix+"S3_USE_SSL" {
			return "maybe", true
		}
		return "", false
	}
	assert.ErrorContains(t, cfg.ApplyEnv(lookup), "S3_USE_SSL")
}

func TestWithDefaults(t *testing.T) {
	cfg := ProjectConfig{OutputDir: "build"}.WithDefaults()
	assert.Equal(t, DefaultFlowsDir, cfg.FlowsDir)
	assert.Equal(t, "build", cfg.OutputDir)
	assert.Equal(t, DefaultFormats, cfg.Formats)
	assert.Equal(t, DefaultGraphPath, cfg.GraphPath)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.True(t, cfg.S3.SSL())
}
