package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"

	"github.com/dusk-indust/architecturizr/internal/config"
	"github.com/dusk-indust/architecturizr/internal/pipeline"
)

// buildFlags are the flags of the build command. Set flags override the
// project config.
type buildFlags struct {
	commonFlags
	Catalogue   string
	FlowsDir    string
	Extensions  string
	OutputDir   string
	Formats     string
	GraphPath   string
	NoGraph     bool
	OwnerTag    string
	Concurrency int
	Quiet       bool
	ServeMCP    bool
	MCPAddr     string
	Version     bool
}

func (f *buildFlags) register(fs *flag.FlagSet) {
	f.commonFlags.register(fs)
	fs.StringVar(&f.Catalogue, "catalogue", "", "catalogue location: .xlsx or .yaml path, s3://bucket/key or http(s) URL")
	fs.StringVar(&f.FlowsDir, "flows", "", "directory of flow files (default: flows)")
	fs.StringVar(&f.Extensions, "extensions", "", "comma-separated flow file extensions")
	fs.StringVar(&f.OutputDir, "output-dir", "", "output directory for exports (default: out)")
	fs.StringVar(&f.Formats, "formats", "", "comma-separated export formats: json, dsl, mermaid")
	fs.StringVar(&f.GraphPath, "graph", "", "path of the persisted model graph (default: .architecturizr/graph)")
	fs.BoolVar(&f.NoGraph, "no-graph", false, "do not persist the model graph")
	fs.StringVar(&f.OwnerTag, "owner-tag", "", "tag added to elements with an owner")
	fs.IntVar(&f.Concurrency, "concurrency", 0, "maximum flow files parsed in parallel (0: unbounded)")
	fs.BoolVar(&f.Quiet, "quiet", false, "do not print progress")
}

// apply overrides cfg with the flags that were set.
func (f *buildFlags) apply(cfg *config.ProjectConfig, set map[string]bool) {
	if set["catalogue"] {
		cfg.Catalogue = f.Catalogue
	}
	if set["flows"] {
		cfg.FlowsDir = f.FlowsDir
	}
	if set["extensions"] {
		cfg.Extensions = splitComma(f.Extensions)
	}
	if set["output-dir"] {
		cfg.OutputDir = f.OutputDir
	}
	if set["formats"] {
		cfg.Formats = splitComma(f.Formats)
	}
	if set["graph"] {
		cfg.GraphPath = f.GraphPath
	}
	if set["owner-tag"] {
		cfg.OwnerTag = f.OwnerTag
	}
	if set["concurrency"] {
		cfg.Concurrency = f.Concurrency
	}
}

func runBuild(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	var flags buildFlags
	fs := flag.NewFlagSet("architecturizr build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags.register(fs)
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "serve model queries over MCP instead of building")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "serve MCP over HTTP at this address instead of stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}
	if fs.NArg() > 0 {
		return usageError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	e, err := flags.setup(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	flags.apply(e.cfg, setFlags(fs))

	if flags.ServeMCP {
		return runServeMCP(e, flags.MCPAddr)
	}

	if e.cfg.Catalogue == "" {
		return usageError("no catalogue configured: pass --catalogue or set it in architecturizr.yml")
	}
	cfg := pipeline.FromProject(e.root, *e.cfg)

	var gb *graphBuild
	if !flags.NoGraph {
		if gb, err = createGraph(e.path(e.cfg.WithDefaults().GraphPath)); err != nil {
			return err
		}
		if gb != nil {
			cfg.Graph = gb.store
		}
	}

	p := pipeline.New(cfg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range p.Progress() {
			if !flags.Quiet && ev.Status != pipeline.ProgressWorking {
				fmt.Fprintln(stderr, pipeline.FormatProgress(ev))
			}
		}
	}()

	res, err := p.Run(e.ctx)
	p.Close()
	<-done
	if err != nil {
		return multierr.Append(err, gb.discard())
	}
	if err := gb.commit(); err != nil {
		return err
	}

	for _, f := range res.Files {
		fmt.Fprintf(stdout, "  wrote %s\n", dotRelative(e.root, f))
	}
	return nil
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
