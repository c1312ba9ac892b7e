package graph

import "github.com/dusk-indust/architecturizr/internal/model"

// --- Enums ---

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindContains EdgeKind = "CONTAINS"
	EdgeKindUses     EdgeKind = "USES"
	EdgeKindInvolves EdgeKind = "INVOLVES"
)

// --- Models ---

// ElementNode is a catalogue element in the model graph. Seq preserves the
// catalogue order across stores that do not keep insertion order.
type ElementNode struct {
	Key         string            `json:"key"`
	Kind        model.ElementKind `json:"kind"`
	Parent      string            `json:"parent,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Technology  string            `json:"technology,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Owner       string            `json:"owner,omitempty"`
	Deprecated  bool              `json:"deprecated,omitempty"`
	Seq         int               `json:"-"`
}

// UsesEdge is a "uses" relationship between two elements.
type UsesEdge struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Style       model.Style `json:"style"`
	Description string      `json:"description"`
}

// ProcessNode is a parsed process and the elements its steps touch.
type ProcessNode struct {
	FullName  string   `json:"fullName"`
	Name      string   `json:"name"`
	Source    string   `json:"source"`
	StepCount int      `json:"stepCount"`
	Elements  []string `json:"elements,omitempty"`
	Seq       int      `json:"-"`
}

// GraphStats summarizes a model graph.
type GraphStats struct {
	ElementCount      int `json:"elementCount"`
	ActorCount        int `json:"actorCount"`
	SystemCount       int `json:"systemCount"`
	ContainerCount    int `json:"containerCount"`
	ComponentCount    int `json:"componentCount"`
	RelationshipCount int `json:"relationshipCount"`
	ProcessCount      int `json:"processCount"`
}

// count adds n elements of kind to the stats.
func (s *GraphStats) count(kind model.ElementKind, n int) {
	s.ElementCount += n
	switch kind {
	case model.KindActor:
		s.ActorCount += n
	case model.KindSystem:
		s.SystemCount += n
	case model.KindContainer:
		s.ContainerCount += n
	case model.KindComponent:
		s.ComponentCount += n
	}
}

// DependencyChain is an ordered path of element keys along USES edges.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}
