package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultFlowsDir  = "flows"
	DefaultOutputDir = "out"
	DefaultGraphPath = ".architecturizr/graph"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultFormats are the export formats written when none are configured.
var DefaultFormats = []string{"json", "dsl"}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARCHITECTURIZR_"

// ProjectConfig holds project-level settings loaded from architecturizr.yml.
type ProjectConfig struct {
	// Catalogue is a local path, s3://bucket/key or http(s) URL.
	Catalogue   string   `yaml:"catalogue,omitempty"`
	FlowsDir    string   `yaml:"flowsDir,omitempty"`
	Extensions  []string `yaml:"extensions,omitempty"`
	OutputDir   string   `yaml:"outputDir,omitempty"`
	Formats     []string `yaml:"formats,omitempty"`
	GraphPath   string   `yaml:"graphPath,omitempty"`
	OwnerTag    string   `yaml:"ownerTag,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
	LogLevel    string   `yaml:"logLevel,omitempty"`
	LogFormat   string   `yaml:"logFormat,omitempty"`
	S3          S3Config `yaml:"s3,omitempty"`
}

// S3Config is the object-store connection for s3:// catalogue locations.
type S3Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
	UseSSL    *bool  `yaml:"useSSL,omitempty"`
}

// SSL reports whether TLS is used, defaulting to true.
func (c S3Config) SSL() bool {
	return c.UseSSL == nil || *c.UseSSL
}

// Load reads architecturizr.yml or architecturizr.yaml from dir, then a .env
// file in dir, then ARCHITECTURIZR_* environment overrides. A missing config
// file yields a zero-value config, not an error.
func Load(dir string) (*ProjectConfig, error) {
	cfg, err := loadFile(dir)
	if err != nil {
		return nil, err
	}

	// Existing environment variables win over .env entries.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"architecturizr.yml", "architecturizr.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// ApplyEnv overrides fields from ARCHITECTURIZR_* variables found by lookup.
// List variables are comma separated.
func (c *ProjectConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}

	str("CATALOGUE", &c.Catalogue)
	str("FLOWS_DIR", &c.FlowsDir)
	list("EXTENSIONS", &c.Extensions)
	str("OUTPUT_DIR", &c.OutputDir)
	list("FORMATS", &c.Formats)
	str("GRAPH_PATH", &c.GraphPath)
	str("OWNER_TAG", &c.OwnerTag)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("S3_ENDPOINT", &c.S3.Endpoint)
	str("S3_REGION", &c.S3.Region)
	str("S3_ACCESS_KEY", &c.S3.AccessKey)
	str("S3_SECRET_KEY", &c.S3.SecretKey)

	if v, ok := lookup(EnvPrefix + "CONCURRENCY"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sCONCURRENCY: %w", EnvPrefix, err)
		}
		c.Concurrency = n
	}
	if v, ok := lookup(EnvPrefix + "S3_USE_SSL"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sS3_USE_SSL: %w", EnvPrefix, err)
		}
		c.S3.UseSSL = &b
	}
	return nil
}

// WithDefaults returns a copy of c with empty fields set to their defaults.
// Relative paths stay relative; callers resolve them against the project
// root.
func (c ProjectConfig) WithDefaults() ProjectConfig {
	if c.FlowsDir == "" {
		c.FlowsDir = DefaultFlowsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if len(c.Formats) == 0 {
		c.Formats = append([]string(nil), DefaultFormats...)
	}
	if c.GraphPath == "" {
		c.GraphPath = DefaultGraphPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
