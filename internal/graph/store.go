// Package graph persists an architecture model as a property graph:
// elements linked by CONTAINS and USES edges, and processes linked to the
// elements they involve.
package graph

import (
	"context"
	"io"
)

// Store is the interface for the model graph backend.
// Implementations: KuzuStore (persistent, cgo), MemStore (tests and builds
// without cgo).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. Parents must be added before their children and
	// elements before the edges and processes that name them.
	AddElement(ctx context.Context, node ElementNode) error
	AddRelationship(ctx context.Context, edge UsesEdge) error
	AddProcess(ctx context.Context, node ProcessNode) error

	// Read operations. GetElement returns nil when the key is unknown.
	GetElement(ctx context.Context, key string) (*ElementNode, error)
	GetChildren(ctx context.Context, key string) ([]ElementNode, error)
	QueryElements(ctx context.Context, query string, limit int) ([]ElementNode, error)
	GetRelationships(ctx context.Context, key string, direction Direction) ([]UsesEdge, error)
	GetAllElements(ctx context.Context) ([]ElementNode, error)
	GetAllRelationships(ctx context.Context) ([]UsesEdge, error)
	GetProcesses(ctx context.Context) ([]ProcessNode, error)

	// Graph traversal along USES edges.
	GetDependencies(ctx context.Context, key string, direction Direction, maxDepth int) ([]DependencyChain, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction selects which USES edges of an element to follow.
type Direction string

const (
	DirectionDownstream Direction = "downstream" // what does this element use?
	DirectionUpstream   Direction = "upstream"   // what uses this element?
	DirectionBoth       Direction = "both"
)

// ParseDirection maps a user supplied name to a Direction. Empty means both.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionDownstream, DirectionUpstream, DirectionBoth:
		return Direction(s), true
	case "":
		return DirectionBoth, true
	}
	return "", false
}
