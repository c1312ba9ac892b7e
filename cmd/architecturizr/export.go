package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/dusk-indust/architecturizr/internal/export"
	"github.com/dusk-indust/architecturizr/internal/graph"
	"github.com/dusk-indust/architecturizr/internal/model"
	"github.com/dusk-indust/architecturizr/internal/pipeline"
)

// runExport builds the model in memory and writes one format to stdout or
// --output, leaving the configured outputs and the persisted graph alone.
func runExport(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	var flags buildFlags
	var format, output string
	fs := flag.NewFlagSet("architecturizr export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags.register(fs)
	fs.StringVar(&format, "format", pipeline.FormatJSON, "export format: json, dsl or mermaid")
	fs.StringVar(&output, "output", "", "write to this file instead of stdout")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if _, ok := pipeline.OutputFile(format); !ok {
		return usageError("invalid format %q: must be json, dsl or mermaid", format)
	}

	e, err := flags.setup(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	flags.apply(e.cfg, setFlags(fs))
	if e.cfg.Catalogue == "" {
		return usageError("no catalogue configured: pass --catalogue or set it in architecturizr.yml")
	}

	cfg := pipeline.FromProject(e.root, *e.cfg)
	cfg.OutputDir = ""
	res, err := pipeline.Run(e.ctx, cfg)
	if err != nil {
		return err
	}

	w := stdout
	if output != "" {
		f, ferr := os.Create(output)
		if ferr != nil {
			return fmt.Errorf("create %s: %w", output, ferr)
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		w = f
	}

	switch format {
	case pipeline.FormatJSON:
		return export.WriteJSON(w, res.Workspace)
	case pipeline.FormatDSL:
		return export.WriteDSL(w, res.Workspace)
	default:
		store := graph.NewMemStore()
		if err := graph.Load(e.ctx, store, res.Workspace); err != nil {
			return err
		}
		chart, err := export.GenerateMermaid(e.ctx, store, model.KindComponent)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, chart)
		return err
	}
}
