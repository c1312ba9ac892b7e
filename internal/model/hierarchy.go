package model

import "fmt"

// Hierarchy owns every element of the model, keyed by element key. Parents
// and children refer to each other by key. It is built once, frozen, and read
// concurrently afterwards; it is not safe for concurrent registration.
type Hierarchy struct {
	elements map[string]*Element
	order    []string
	frozen   bool
}

// NewHierarchy returns an empty hierarchy ready for registration.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{elements: make(map[string]*Element)}
}

// Register validates e and inserts it. A container or component must name a
// parent that is already registered and has the right kind; the element is
// appended to the parent's ordered children.
func (h *Hierarchy) Register(e Element) (*Element, error) {
	if h.frozen {
		return nil, fmt.Errorf("register '%s': %w", e.Key, ErrFrozen)
	}
	if !e.Kind.Valid() {
		return nil, &DefinitionError{Reason: RowMatchesNoKind, Key: e.Key, Detail: fmt.Sprintf("unknown kind %q", e.Kind)}
	}
	if _, ok := h.elements[e.Key]; ok {
		return nil, &DefinitionError{Reason: DuplicateKey, Key: e.Key}
	}

	var parent *Element
	wantParent, hasParent := e.Kind.parentKind()
	switch {
	case hasParent && e.Parent == "":
		return nil, &DefinitionError{Reason: UndefinedParent, Key: e.Key, Detail: fmt.Sprintf("%s has no parent", e.Kind)}
	case !hasParent && e.Parent != "":
		return nil, &DefinitionError{Reason: UndefinedParent, Key: e.Key, Detail: fmt.Sprintf("%s cannot have parent '%s'", e.Kind, e.Parent)}
	case hasParent:
		p, ok := h.elements[e.Parent]
		if !ok {
			return nil, &DefinitionError{Reason: UndefinedParent, Key: e.Key, Detail: fmt.Sprintf("parent '%s' is not defined", e.Parent)}
		}
		if p.Kind != wantParent {
			return nil, &DefinitionError{Reason: UndefinedParent, Key: e.Key, Detail: fmt.Sprintf("parent '%s' is a %s, want %s", e.Parent, p.Kind, wantParent)}
		}
		parent = p
	}

	stored := e
	stored.Children = nil
	h.elements[stored.Key] = &stored
	h.order = append(h.order, stored.Key)
	if parent != nil {
		parent.Children = append(parent.Children, stored.Key)
	}
	return &stored, nil
}

// Freeze rejects any further registration.
func (h *Hierarchy) Freeze() { h.frozen = true }

// Frozen reports whether Freeze was called.
func (h *Hierarchy) Frozen() bool { return h.frozen }

// Resolve returns the element registered under key.
func (h *Hierarchy) Resolve(key string) (*Element, error) {
	e, ok := h.elements[key]
	if !ok {
		return nil, &ReferenceError{Key: key}
	}
	return e, nil
}

// Len returns the number of registered elements.
func (h *Hierarchy) Len() int { return len(h.order) }

// Elements returns all elements in registration order.
func (h *Hierarchy) Elements() []*Element {
	out := make([]*Element, 0, len(h.order))
	for _, k := range h.order {
		out = append(out, h.elements[k])
	}
	return out
}

// Ancestors returns the chain starting at key itself, followed by its parent,
// grandparent and so on up to the root.
func (h *Hierarchy) Ancestors(key string) []string {
	var chain []string
	for e, ok := h.elements[key]; ok; e, ok = h.elements[e.Parent] {
		chain = append(chain, e.Key)
		if e.Parent == "" {
			break
		}
	}
	return chain
}

// IsAncestor reports whether a strictly contains b. Actors never contain and
// are never contained.
func (h *Hierarchy) IsAncestor(a, b string) bool {
	ea, ok := h.elements[a]
	if !ok || ea.Kind == KindActor {
		return false
	}
	eb, ok := h.elements[b]
	if !ok || eb.Kind == KindActor {
		return false
	}
	for p := eb.Parent; p != ""; p = h.elements[p].Parent {
		if p == a {
			return true
		}
	}
	return false
}
