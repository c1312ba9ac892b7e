package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/architecturizr/internal/graph"
	"github.com/dusk-indust/architecturizr/internal/model"
)

// depth orders element kinds from the outermost level inwards.
var depth = map[model.ElementKind]int{
	model.KindActor:     0,
	model.KindSystem:    1,
	model.KindContainer: 2,
	model.KindComponent: 3,
}

// GenerateMermaid produces a Mermaid flowchart from a graph store. Systems
// and containers with visible children become nested subgraphs; USES edges
// become arrows, dashed for asynchronous ones. level limits the diagram to
// elements down to that kind (actors are always shown); empty means
// components.
func GenerateMermaid(ctx context.Context, store graph.Store, level model.ElementKind) (string, error) {
	if level == "" {
		level = model.KindComponent
	}
	maxDepth, ok := depth[level]
	if !ok || level == model.KindActor {
		return "", fmt.Errorf("mermaid: unsupported level %q", level)
	}

	elements, err := store.GetAllElements(ctx)
	if err != nil {
		return "", fmt.Errorf("get elements: %w", err)
	}
	edges, err := store.GetAllRelationships(ctx)
	if err != nil {
		return "", fmt.Errorf("get relationships: %w", err)
	}

	visible := make(map[string]bool)
	children := make(map[string][]graph.ElementNode)
	var roots []graph.ElementNode
	for _, e := range elements {
		if depth[e.Kind] > maxDepth {
			continue
		}
		visible[e.Key] = true
		if e.Parent == "" {
			roots = append(roots, e)
		} else {
			children[e.Parent] = append(children[e.Parent], e)
		}
	}

	// Build key -> ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", len(nodeIDs))
		nodeIDs[key] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("flowchart LR\n")

	var emit func(e graph.ElementNode, indent string)
	emit = func(e graph.ElementNode, indent string) {
		kids := children[e.Key]
		if len(kids) == 0 {
			sb.WriteString(fmt.Sprintf("%s%s%s\n", indent, getID(e.Key), nodeShape(e)))
			return
		}
		sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, getID(e.Key), label(e)))
		for _, c := range kids {
			emit(c, indent+"  ")
		}
		sb.WriteString(indent + "end\n")
	}
	for _, e := range roots {
		emit(e, "  ")
	}

	for _, e := range edges {
		if !visible[e.Source] || !visible[e.Destination] {
			continue
		}
		arrow := "-->"
		if e.Style == model.Asynchronous {
			arrow = "-.->"
		}
		desc := escape(strings.ReplaceAll(e.Description, "\n", "<br/>"))
		if desc == "" {
			sb.WriteString(fmt.Sprintf("  %s %s %s\n", getID(e.Source), arrow, getID(e.Destination)))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %s|\"%s\"| %s\n", getID(e.Source), arrow, desc, getID(e.Destination)))
	}

	return sb.String(), nil
}

// nodeShape returns the Mermaid shape of a leaf element.
func nodeShape(e graph.ElementNode) string {
	if e.Kind == model.KindActor {
		return fmt.Sprintf("([\"%s\"])", label(e))
	}
	return fmt.Sprintf("[\"%s\"]", label(e))
}

// label is the element name, followed by its technology when set.
func label(e graph.ElementNode) string {
	name := e.Name
	if name == "" {
		name = e.Key
	}
	if e.Technology != "" {
		return escape(name) + "<br/>[" + escape(e.Technology) + "]"
	}
	return escape(name)
}

// escape makes s safe inside a quoted Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
