package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dusk-indust/architecturizr/internal/export"
	"github.com/dusk-indust/architecturizr/internal/graph"
	"github.com/dusk-indust/architecturizr/internal/pipeline"
)

// errNoModel is returned when no build output can be found.
var errNoModel = errors.New("no model found; run 'architecturizr build' first")

// path resolves a config path against the project root.
func (e *env) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.root, p)
}

// loadModel opens the model of the last build: the persisted graph when
// there is one, otherwise the exported workspace.json loaded into memory.
func (e *env) loadModel() (graph.Store, error) {
	cfg := e.cfg.WithDefaults()

	store, ok, err := openGraph(e.path(cfg.GraphPath))
	if err != nil {
		return nil, err
	}
	if ok {
		return store, nil
	}

	name, _ := pipeline.OutputFile(pipeline.FormatJSON)
	jsonPath := filepath.Join(e.path(cfg.OutputDir), name)
	if _, err := os.Stat(jsonPath); errors.Is(err, fs.ErrNotExist) {
		return nil, errNoModel
	}
	doc, err := export.ReadJSON(jsonPath)
	if err != nil {
		return nil, err
	}
	mem := graph.NewMemStore()
	if err := graph.Load(e.ctx, mem, doc.Workspace()); err != nil {
		return nil, fmt.Errorf("load %s: %w", jsonPath, err)
	}
	return mem, nil
}
