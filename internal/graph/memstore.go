package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	elements  map[string]ElementNode
	order     []string
	edges     []UsesEdge
	processes []ProcessNode
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{elements: make(map[string]ElementNode)}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddElement stores an element keyed by its key. The parent must already be
// present.
func (m *MemStore) AddElement(_ context.Context, node ElementNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[node.Key]; ok {
		return fmt.Errorf("memstore: element %q already exists", node.Key)
	}
	if node.Parent != "" {
		if _, ok := m.elements[node.Parent]; !ok {
			return fmt.Errorf("memstore: parent %q of %q not found", node.Parent, node.Key)
		}
	}
	node.Seq = len(m.order)
	m.elements[node.Key] = node
	m.order = append(m.order, node.Key)
	return nil
}

// AddRelationship appends a USES edge between two stored elements.
func (m *MemStore) AddRelationship(_ context.Context, edge UsesEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range []string{edge.Source, edge.Destination} {
		if _, ok := m.elements[k]; !ok {
			return fmt.Errorf("memstore: element %q not found", k)
		}
	}
	m.edges = append(m.edges, edge)
	return nil
}

// AddProcess appends a process.
func (m *MemStore) AddProcess(_ context.Context, node ProcessNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node.Seq = len(m.processes)
	m.processes = append(m.processes, node)
	return nil
}

// GetElement returns the element with key, or nil if not found.
func (m *MemStore) GetElement(_ context.Context, key string) (*ElementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.elements[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// GetChildren returns the direct children of key in insertion order.
func (m *MemStore) GetChildren(_ context.Context, key string) ([]ElementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ElementNode
	for _, k := range m.order {
		if e := m.elements[k]; e.Parent == key {
			out = append(out, e)
		}
	}
	return out, nil
}

// QueryElements returns elements whose key or name contains query
// (case-insensitive), up to limit results. A limit <= 0 returns all matches.
func (m *MemStore) QueryElements(_ context.Context, query string, limit int) ([]ElementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []ElementNode
	for _, k := range m.order {
		e := m.elements[k]
		if strings.Contains(strings.ToLower(e.Name), lowerQuery) || strings.Contains(strings.ToLower(e.Key), lowerQuery) {
			results = append(results, e)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// GetRelationships returns the USES edges touching key in the given
// direction.
func (m *MemStore) GetRelationships(_ context.Context, key string, direction Direction) ([]UsesEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []UsesEdge
	for _, e := range m.edges {
		outgoing := e.Source == key
		incoming := e.Destination == key
		switch direction {
		case DirectionDownstream:
			if outgoing {
				out = append(out, e)
			}
		case DirectionUpstream:
			if incoming {
				out = append(out, e)
			}
		default:
			if outgoing || incoming {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// GetAllElements returns every element in insertion order.
func (m *MemStore) GetAllElements(_ context.Context) ([]ElementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ElementNode, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.elements[k])
	}
	return out, nil
}

// GetAllRelationships returns a copy of all USES edges.
func (m *MemStore) GetAllRelationships(_ context.Context) ([]UsesEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UsesEdge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// GetProcesses returns a copy of all processes.
func (m *MemStore) GetProcesses(_ context.Context) ([]ProcessNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ProcessNode, len(m.processes))
	copy(out, m.processes)
	return out, nil
}

// GetDependencies performs a BFS on USES edges from key in the given
// direction, up to maxDepth hops. It returns one DependencyChain per
// reachable element.
func (m *MemStore) GetDependencies(_ context.Context, key string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		return nil, nil
	}

	// BFS state: each entry tracks the path from key to the current element.
	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{key: true}
	queue := []bfsEntry{{id: key, path: []string{key}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range m.neighbors(entry.id, direction) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{
					Nodes: newPath,
					Depth: len(newPath) - 1,
				})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}

	return chains, nil
}

// neighbors returns keys reachable from id in one USES hop.
func (m *MemStore) neighbors(id string, direction Direction) []string {
	var result []string
	for _, e := range m.edges {
		if direction != DirectionUpstream && e.Source == id {
			result = append(result, e.Destination)
		}
		if direction != DirectionDownstream && e.Destination == id {
			result = append(result, e.Source)
		}
	}
	return result
}

// Stats returns element counts per kind, the edge count and the process
// count.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{
		RelationshipCount: len(m.edges),
		ProcessCount:      len(m.processes),
	}
	for _, e := range m.elements {
		stats.count(e.Kind, 1)
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
