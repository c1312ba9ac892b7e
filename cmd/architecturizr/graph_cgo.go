//go:build cgo

package main

import (
	"fmt"
	"os"

	"github.com/dusk-indust/architecturizr/internal/graph"
)

// createGraph starts a new, empty graph next to the one persisted at path.
// The persisted graph is only replaced by commit.
func createGraph(path string) (*graphBuild, error) {
	tmp := path + ".building"
	if err := removeGraph(tmp); err != nil {
		return nil, fmt.Errorf("remove stale graph: %w", err)
	}
	store, err := graph.NewKuzuFileStore(tmp)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	return &graphBuild{store: store, tmp: tmp, path: path}, nil
}

// openGraph opens the graph persisted at path. ok is false when there is
// none.
func openGraph(path string) (store graph.Store, ok bool, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, false, nil
	}
	s, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, false, fmt.Errorf("open graph: %w", err)
	}
	return s, true, nil
}
