// Package model holds the architecture model: the element hierarchy, the
// processes parsed from flow files and the relationships derived from them.
package model

import (
	"fmt"
	"strings"
)

// --- Enums ---

// ElementKind classifies elements in the architecture hierarchy.
type ElementKind string

const (
	KindActor     ElementKind = "actor"
	KindSystem    ElementKind = "system"
	KindContainer ElementKind = "container"
	KindComponent ElementKind = "component"
)

// parentKind returns the kind an element's parent must have. Actors and
// systems are roots and report false.
func (k ElementKind) parentKind() (ElementKind, bool) {
	switch k {
	case KindContainer:
		return KindSystem, true
	case KindComponent:
		return KindContainer, true
	default:
		return "", false
	}
}

// Valid reports whether k is one of the four element kinds.
func (k ElementKind) Valid() bool {
	switch k {
	case KindActor, KindSystem, KindContainer, KindComponent:
		return true
	}
	return false
}

// View is a diagram type that an element can request.
type View uint8

const (
	ViewSystemContext View = 1 << iota
	ViewContainer
	ViewComponent
)

func (v View) String() string {
	switch v {
	case ViewSystemContext:
		return "system-context"
	case ViewContainer:
		return "container"
	case ViewComponent:
		return "component"
	default:
		return "unknown"
	}
}

// ViewSet is a set of requested views.
type ViewSet uint8

// Has reports whether v is requested.
func (s ViewSet) Has(v View) bool { return s&ViewSet(v) != 0 }

// With returns s with v added.
func (s ViewSet) With(v View) ViewSet { return s | ViewSet(v) }

// Names lists the requested views in a stable order.
func (s ViewSet) Names() []string {
	var out []string
	for _, v := range []View{ViewSystemContext, ViewContainer, ViewComponent} {
		if s.Has(v) {
			out = append(out, v.String())
		}
	}
	return out
}

// --- Models ---

// Element is a node of the architecture hierarchy. Parent and Children hold
// element keys, never pointers; the owning Hierarchy resolves them.
type Element struct {
	Key         string      `json:"key"`
	Kind        ElementKind `json:"kind"`
	Parent      string      `json:"parent,omitempty"`
	Children    []string    `json:"children,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Technology  string      `json:"technology,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Owner       string      `json:"owner,omitempty"`
	Deprecated  bool        `json:"deprecated,omitempty"`
	Views       ViewSet     `json:"-"`
}

func (e *Element) String() string { return fmt.Sprintf("%s-%s", e.Kind, e.Key) }

// SplitTags splits a comma separated tag list, dropping blanks.
func SplitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
