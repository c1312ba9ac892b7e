package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dusk-indust/architecturizr/internal/skilldata"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// mcpEntry is the MCP server configuration for the architecturizr binary.
var mcpEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "architecturizr",
  "args": ["--serve-mcp"]
}`)

// runInit writes the starter project and the MCP configuration into the
// project root. Existing files are kept unless --force is given.
func runInit(_ context.Context, stdout, stderr io.Writer, args []string) error {
	var projectRoot string
	var force bool
	fs := flag.NewFlagSet("architecturizr init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&projectRoot, "project-root", ".", "directory to write the starter project into")
	fs.BoolVar(&force, "force", false, "overwrite existing files")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	if err := copyStarter(stdout, abs, force); err != nil {
		return fmt.Errorf("copying starter files: %w", err)
	}
	if err := mergeMCPConfig(stdout, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "\nSetup complete. Run 'architecturizr build' to build the model.")
	return nil
}

func copyStarter(stdout io.Writer, dst string, force bool) error {
	root := skilldata.StarterRoot
	return fs.WalkDir(skilldata.StarterFS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		if !force {
			if _, err := os.Stat(dest); err == nil {
				fmt.Fprintf(stdout, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(dst, dest))
				return nil
			}
		}

		data, err := skilldata.StarterFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", path, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}

		fmt.Fprintf(stdout, "  created %s\n", dotRelative(dst, dest))
		return nil
	})
}

// mergeMCPConfig creates or merges the architecturizr entry into .mcp.json.
func mergeMCPConfig(stdout io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["architecturizr"]; exists && !force {
		fmt.Fprintln(stdout, "  skipped .mcp.json architecturizr entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["architecturizr"] = mcpEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}
	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(stdout, "  %s .mcp.json with architecturizr MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
