//go:build !cgo

package main

import "github.com/dusk-indust/architecturizr/internal/graph"

// createGraph returns no build: the persistent graph needs cgo. Commands
// reading the model fall back to the exported workspace.json.
func createGraph(string) (*graphBuild, error) {
	return nil, nil
}

func openGraph(string) (graph.Store, bool, error) {
	return nil, false, nil
}
