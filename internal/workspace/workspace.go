// Package workspace assembles the hand-off to renderers: the elements a run
// actually uses, the full relationship set, the processes, and the diagrams
// to request for them.
package workspace

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/architecturizr/internal/ctxlog"
	"github.com/dusk-indust/architecturizr/internal/model"
)

// ViewKind names a diagram type.
type ViewKind string

const (
	ViewLandscape     ViewKind = "landscape"
	ViewSystemContext ViewKind = "systemContext"
	ViewContainer     ViewKind = "container"
	ViewComponent     ViewKind = "component"
	// ViewNeighbourhood is a component view limited to one component and
	// whatever it talks to.
	ViewNeighbourhood ViewKind = "neighbourhood"
	ViewDynamic       ViewKind = "dynamic"
)

// Element is a model element as handed to renderers.
type Element struct {
	model.Element
	// StyleTags drive renderer styling: technology, catalogue tags and the
	// owner tag.
	StyleTags []string `json:"styleTags,omitempty"`
}

// DynamicStep is one numbered interaction of a dynamic view.
type DynamicStep struct {
	From        string      `json:"from"`
	To          string      `json:"to"`
	Style       model.Style `json:"style"`
	Topic       string      `json:"topic,omitempty"`
	Description string      `json:"description"`
}

// Label is the text drawn on the step arrow. Async steps carry their topic
// on a second line.
func (s DynamicStep) Label() string {
	if s.Style == model.Asynchronous {
		return fmt.Sprintf("%s\n[%s]", s.Description, s.Topic)
	}
	return s.Description
}

// View is one requested diagram.
type View struct {
	Key         string   `json:"key"`
	Kind        ViewKind `json:"kind"`
	Scope       string   `json:"scope,omitempty"` // element key, empty for the whole landscape
	Focus       string   `json:"focus,omitempty"` // neighbourhood views only
	Title       string   `json:"title"`
	Description string   `json:"description"`
	// Process is the full name of the process a dynamic view shows.
	Process string        `json:"process,omitempty"`
	Steps   []DynamicStep `json:"steps,omitempty"`
}

// Options tunes workspace assembly.
type Options struct {
	// OwnerTag is added to every element with an owner. Empty means the
	// owner name itself is used as the tag.
	OwnerTag string
}

// Workspace is the complete renderer hand-off of one run.
type Workspace struct {
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	OwnerTag      string               `json:"ownerTag,omitempty"`
	Elements      []Element            `json:"elements"`
	Relationships []model.Relationship `json:"relationships"`
	Processes     []model.Process      `json:"processes"`
	Views         []View               `json:"views"`

	index map[string]int
}

// Element returns the in-use element with key.
func (w *Workspace) Element(key string) (Element, bool) {
	if w.index == nil {
		w.index = make(map[string]int, len(w.Elements))
		for i, e := range w.Elements {
			w.index[e.Key] = i
		}
	}
	i, ok := w.index[key]
	if !ok {
		return Element{}, false
	}
	return w.Elements[i], true
}

// Build assembles the workspace. rels is the full relationship set of the
// run; processes are kept whole even when too short for a dynamic view.
func Build(ctx context.Context, title, description string, h *model.Hierarchy, processes []model.Process, rels []model.Relationship, opts Options) (*Workspace, error) {
	logger := ctxlog.FromContext(ctx)

	inUse, err := ElementsInUse(h, processes)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		Title:         title,
		Description:   description,
		OwnerTag:      opts.OwnerTag,
		Relationships: rels,
		Processes:     processes,
		index:         make(map[string]int, len(inUse)),
	}
	for _, e := range inUse {
		ws.index[e.Key] = len(ws.Elements)
		ws.Elements = append(ws.Elements, Element{Element: *e, StyleTags: StyleTags(e, opts.OwnerTag)})
	}

	ws.Views = staticViews(inUse, processes)
	for _, p := range processes {
		if len(p.Steps) <= 1 {
			logger.Info("process has at most one step, skipping its dynamic view", "process", p.FullName, "steps", len(p.Steps))
			continue
		}
		ws.Views = append(ws.Views, dynamicView(h, p))
	}

	logger.Debug("assembled workspace", "elements", len(ws.Elements), "relationships", len(rels), "views", len(ws.Views))
	return ws, nil
}

// ElementsInUse returns every element referenced by a step together with all
// of its ancestors, in hierarchy registration order.
func ElementsInUse(h *model.Hierarchy, processes []model.Process) ([]*model.Element, error) {
	used := make(map[string]bool)
	for _, p := range processes {
		for _, s := range p.Steps {
			for _, key := range []string{s.From, s.To} {
				if used[key] {
					continue
				}
				if _, err := h.Resolve(key); err != nil {
					return nil, fmt.Errorf("process %q: %w", p.FullName, err)
				}
				for _, a := range h.Ancestors(key) {
					used[a] = true
				}
			}
		}
	}

	var out []*model.Element
	for _, e := range h.Elements() {
		if used[e.Key] {
			out = append(out, e)
		}
	}
	return out, nil
}

// StyleTags returns the renderer tags of e.
func StyleTags(e *model.Element, ownerTag string) []string {
	var tags []string
	if t := strings.TrimSpace(e.Technology); t != "" {
		tags = append(tags, t)
	}
	tags = append(tags, e.Tags...)
	if owner := strings.TrimSpace(e.Owner); owner != "" {
		if ownerTag != "" {
			owner = ownerTag
		}
		tags = append(tags, owner)
	}
	return tags
}

// staticViews selects the landscape, system context, container and component
// views from the view flags of the elements in use.
func staticViews(inUse []*model.Element, processes []model.Process) []View {
	views := []View{{Key: "landscape", Kind: ViewLandscape, Title: "Overview", Description: "Overview"}}

	for _, e := range inUse {
		if e.Kind == model.KindSystem && e.Views.Has(model.ViewSystemContext) {
			views = append(views, View{
				Key:         "sc-" + e.Key,
				Kind:        ViewSystemContext,
				Scope:       e.Key,
				Title:       "Overview of " + e.Name,
				Description: fmt.Sprintf("Helicopter view of '%s'", e.Name),
			})
		}
	}
	for _, e := range inUse {
		if e.Kind == model.KindSystem && e.Views.Has(model.ViewContainer) {
			views = append(views, View{
				Key:         "cont-" + e.Key,
				Kind:        ViewContainer,
				Scope:       e.Key,
				Title:       "Inside " + e.Name,
				Description: fmt.Sprintf("What is inside %s and what do they interact with", e.Name),
			})
		}
	}
	for _, e := range inUse {
		if e.Kind == model.KindContainer && e.Views.Has(model.ViewComponent) {
			views = append(views, View{
				Key:         "comp1-" + e.Key,
				Kind:        ViewComponent,
				Scope:       e.Key,
				Title:       "Inside " + e.Name,
				Description: fmt.Sprintf("What is inside %s and what do they interact with", e.Name),
			})
		}
	}

	refs := stepReferences(processes)
	for _, e := range inUse {
		if e.Kind == model.KindComponent && e.Views.Has(model.ViewComponent) && refs[e.Key] > 2 {
			views = append(views, View{
				Key:         "comp2-" + e.Key,
				Kind:        ViewNeighbourhood,
				Scope:       e.Parent,
				Focus:       e.Key,
				Title:       "What interacts with " + e.Name,
				Description: "What interacts with " + e.Name,
			})
		}
	}
	return views
}

// stepReferences counts, per element key, the steps naming it on either end.
func stepReferences(processes []model.Process) map[string]int {
	refs := make(map[string]int)
	for _, p := range processes {
		for _, s := range p.Steps {
			refs[s.From]++
			if s.To != s.From {
				refs[s.To]++
			}
		}
	}
	return refs
}

func dynamicView(h *model.Hierarchy, p model.Process) View {
	v := View{
		Key:         "process-" + Kebab(p.FullName),
		Kind:        ViewDynamic,
		Scope:       dynamicScope(h, p),
		Title:       p.FullName,
		Description: p.FullName,
		Process:     p.FullName,
	}
	for _, s := range p.Steps {
		v.Steps = append(v.Steps, DynamicStep{
			From:        s.From,
			To:          s.To,
			Style:       s.Kind.Style(),
			Topic:       s.Topic,
			Description: s.Description,
		})
	}
	return v
}

// dynamicScope is the innermost system or container enclosing every
// non-actor endpoint of p, or empty when the steps cross systems.
func dynamicScope(h *model.Hierarchy, p model.Process) string {
	var common []string
	first := true
	for _, s := range p.Steps {
		for _, key := range []string{s.From, s.To} {
			e, err := h.Resolve(key)
			if err != nil || e.Kind == model.KindActor {
				continue
			}
			chain := h.Ancestors(key)
			if first {
				common, first = chain, false
				continue
			}
			common = intersect(common, chain)
		}
	}
	for _, key := range common {
		e, _ := h.Resolve(key)
		if e.Kind == model.KindSystem || e.Kind == model.KindContainer {
			return key
		}
	}
	return ""
}

// intersect keeps the elements of chain a that also appear in b, in a's
// order.
func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, k := range b {
		in[k] = true
	}
	var out []string
	for _, k := range a {
		if in[k] {
			out = append(out, k)
		}
	}
	return out
}

var (
	nonAlnum   = regexp.MustCompile(`[^0-9a-zA-Z]+`)
	edgeDashes = regexp.MustCompile(`^-+|-+$`)
)

// Kebab lower-cases s and replaces every run of non-alphanumeric characters
// with a single dash, trimming dashes at both ends.
func Kebab(s string) string {
	s = nonAlnum.ReplaceAllString(s, "-")
	s = edgeDashes.ReplaceAllString(s, "")
	return strings.ToLower(s)
}
