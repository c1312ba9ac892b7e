// Package relation derives the relationship set of a model from its
// processes: one direct relationship per (source, destination, style) used by
// a step, plus the relationships those imply between the enclosing
// containers and systems.
package relation

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/architecturizr/internal/ctxlog"
	"github.com/dusk-indust/architecturizr/internal/model"
)

// Result is the output of Aggregate. Every slice keeps first-seen order and
// holds at most one relationship per key.
type Result struct {
	Direct  []model.Relationship
	Implied []model.Relationship
	// All is the union of Direct and Implied. Where a key is both direct and
	// implied, the direct lines come first.
	All []model.Relationship
}

// group accumulates the description lines of one relationship key.
type group struct {
	order []model.RelationshipKey
	lines map[model.RelationshipKey][]string
}

func newGroup() *group {
	return &group{lines: make(map[model.RelationshipKey][]string)}
}

func (g *group) add(key model.RelationshipKey, lines ...string) {
	if _, ok := g.lines[key]; !ok {
		g.order = append(g.order, key)
	}
	g.lines[key] = append(g.lines[key], lines...)
}

func (g *group) relationships() []model.Relationship {
	out := make([]model.Relationship, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, model.Relationship{
			Source:      k.Source,
			Destination: k.Destination,
			Style:       k.Style,
			Description: model.JoinDistinct(g.lines[k]),
		})
	}
	return out
}

// Aggregate computes the direct and implied relationships of processes. All
// step keys must resolve in h.
func Aggregate(ctx context.Context, h *model.Hierarchy, processes []model.Process) (*Result, error) {
	direct, err := Direct(h, processes)
	if err != nil {
		return nil, err
	}
	implied, err := Implied(ctx, h, direct)
	if err != nil {
		return nil, err
	}

	all := newGroup()
	for _, r := range direct {
		all.add(r.Key(), r.Lines()...)
	}
	for _, r := range implied {
		all.add(r.Key(), r.Lines()...)
	}

	ctxlog.FromContext(ctx).Debug("aggregated relationships",
		"processes", len(processes), "direct", len(direct), "implied", len(implied))
	return &Result{Direct: direct, Implied: implied, All: all.relationships()}, nil
}

// Direct groups every step by (from, to, style). The description of each
// relationship lists the full names of the processes using it.
func Direct(h *model.Hierarchy, processes []model.Process) ([]model.Relationship, error) {
	g := newGroup()
	for _, p := range processes {
		for _, s := range p.Steps {
			for _, key := range []string{s.From, s.To} {
				if _, err := h.Resolve(key); err != nil {
					return nil, fmt.Errorf("process %q: %w", p.FullName, err)
				}
			}
			g.add(model.RelationshipKey{Source: s.From, Destination: s.To, Style: s.Kind.Style()}, p.FullName)
		}
	}
	return g.relationships(), nil
}

// Implied expands each direct relationship over the ancestor chains of its
// endpoints. A pair is skipped when both sides are the same element, when
// one contains the other, or when the pair already has a direct relationship
// with the same description. Expansions run concurrently and are merged in
// direct relationship order.
func Implied(ctx context.Context, h *model.Hierarchy, direct []model.Relationship) ([]model.Relationship, error) {
	existing := make(map[[2]string][]string, len(direct))
	for _, r := range direct {
		pair := [2]string{r.Source, r.Destination}
		existing[pair] = append(existing[pair], r.Description)
	}

	expanded := make([][]model.Relationship, len(direct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, r := range direct {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			expanded[i] = expand(h, r, existing)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := newGroup()
	for _, rels := range expanded {
		for _, r := range rels {
			merged.add(r.Key(), r.Lines()...)
		}
	}
	return merged.relationships(), nil
}

// expand returns the implied relationships of one direct relationship.
// existing is only read.
func expand(h *model.Hierarchy, r model.Relationship, existing map[[2]string][]string) []model.Relationship {
	var out []model.Relationship
	for _, src := range h.Ancestors(r.Source) {
		for _, dst := range h.Ancestors(r.Destination) {
			if !impliable(h, src, dst) {
				continue
			}
			if hasDescription(existing[[2]string{src, dst}], r.Description) {
				continue
			}
			out = append(out, model.Relationship{
				Source:      src,
				Destination: dst,
				Style:       r.Style,
				Description: r.Description,
			})
		}
	}
	return out
}

// impliable reports whether src may be said to use dst: they must be
// distinct and neither may contain the other.
func impliable(h *model.Hierarchy, src, dst string) bool {
	if src == dst {
		return false
	}
	return !h.IsAncestor(src, dst) && !h.IsAncestor(dst, src)
}

func hasDescription(descriptions []string, want string) bool {
	for _, d := range descriptions {
		if d == want {
			return true
		}
	}
	return false
}

// Index returns the relationships of rels keyed by their identity.
func Index(rels []model.Relationship) map[model.RelationshipKey]model.Relationship {
	out := make(map[model.RelationshipKey]model.Relationship, len(rels))
	for _, r := range rels {
		out[r.Key()] = r
	}
	return out
}
