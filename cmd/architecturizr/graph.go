package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/dusk-indust/architecturizr/internal/graph"
)

// graphBuild is a graph being written beside the persisted one. A nil
// graphBuild does nothing.
type graphBuild struct {
	store graph.Store
	tmp   string
	path  string
}

// graphFiles are the suffixes of the files a graph database keeps on disk.
var graphFiles = []string{"", ".wal"}

// commit closes the new graph and moves it over the persisted one.
func (b *graphBuild) commit() error {
	if b == nil {
		return nil
	}
	if err := b.store.Close(); err != nil {
		return multierr.Append(fmt.Errorf("close graph: %w", err), removeGraph(b.tmp))
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create graph dir: %w", err)
	}
	if err := removeGraph(b.path); err != nil {
		return fmt.Errorf("remove old graph: %w", err)
	}
	for _, suffix := range graphFiles {
		err := os.Rename(b.tmp+suffix, b.path+suffix)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("replace graph: %w", err)
		}
	}
	return nil
}

// discard closes and removes the new graph, keeping the persisted one.
func (b *graphBuild) discard() error {
	if b == nil {
		return nil
	}
	return multierr.Append(b.store.Close(), removeGraph(b.tmp))
}

func removeGraph(path string) error {
	var err error
	for _, suffix := range graphFiles {
		err = multierr.Append(err, os.RemoveAll(path+suffix))
	}
	return err
}
