package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/dusk-indust/architecturizr/internal/export"
	"github.com/dusk-indust/architecturizr/internal/model"
)

func runDiagram(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	var flags commonFlags
	var level string
	fs := flag.NewFlagSet("architecturizr diagram", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags.register(fs)
	fs.StringVar(&level, "level", "component", "deepest element kind to draw: system, container or component")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	e, err := flags.setup(ctx, stdout, stderr)
	if err != nil {
		return err
	}
	kind := model.ElementKind(level)
	if !kind.Valid() || kind == model.KindActor {
		return usageError("invalid level %q: must be system, container or component", level)
	}

	store, err := e.loadModel()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	mermaid, err := export.GenerateMermaid(e.ctx, store, kind)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(stdout, mermaid)
	return err
}
