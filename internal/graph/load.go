package graph

import (
	"context"
	"fmt"

	"github.com/dusk-indust/architecturizr/internal/workspace"
)

// Load writes ws into store: the elements in use (parents first), every
// relationship and every process. The schema is initialised first.
func Load(ctx context.Context, store Store, ws *workspace.Workspace) error {
	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	for _, e := range ws.Elements {
		node := ElementNode{
			Key:         e.Key,
			Kind:        e.Kind,
			Parent:      e.Parent,
			Name:        e.Name,
			Description: e.Description,
			Technology:  e.Technology,
			Tags:        e.Tags,
			Owner:       e.Owner,
			Deprecated:  e.Deprecated,
		}
		if err := store.AddElement(ctx, node); err != nil {
			return fmt.Errorf("load element %s: %w", e.Key, err)
		}
	}
	for _, r := range ws.Relationships {
		edge := UsesEdge{
			Source:      r.Source,
			Destination: r.Destination,
			Style:       r.Style,
			Description: r.Description,
		}
		if err := store.AddRelationship(ctx, edge); err != nil {
			return fmt.Errorf("load relationship %s -> %s: %w", r.Source, r.Destination, err)
		}
	}
	for _, p := range ws.Processes {
		node := ProcessNode{
			FullName:  p.FullName,
			Name:      p.Name,
			Source:    p.Source,
			StepCount: len(p.Steps),
		}
		seen := make(map[string]bool)
		for _, s := range p.Steps {
			for _, k := range []string{s.From, s.To} {
				if !seen[k] {
					seen[k] = true
					node.Elements = append(node.Elements, k)
				}
			}
		}
		if err := store.AddProcess(ctx, node); err != nil {
			return fmt.Errorf("load process %q: %w", p.FullName, err)
		}
	}
	return nil
}
