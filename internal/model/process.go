package model

import "strings"

// StepKind distinguishes synchronous calls from asynchronous messages.
type StepKind string

const (
	StepSync  StepKind = "sync"
	StepAsync StepKind = "async"
)

// Style is the interaction style of a relationship.
type Style string

const (
	Synchronous  Style = "synchronous"
	Asynchronous Style = "asynchronous"
)

// Style maps a step kind to the interaction style of its relationship.
func (k StepKind) Style() Style {
	if k == StepAsync {
		return Asynchronous
	}
	return Synchronous
}

// Step is one interaction between two elements. Topic is set for async
// steps only.
type Step struct {
	Kind        StepKind `json:"kind"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Topic       string   `json:"topic,omitempty"`
	Description string   `json:"description"`
}

// Process is a named sequence of steps parsed from one section of one flow
// file. FullName is unique across a run.
type Process struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Source   string `json:"source"`
	Steps    []Step `json:"steps"`
}

func (p Process) String() string { return p.FullName }

// RelationshipKey identifies a relationship. At most one relationship exists
// per key.
type RelationshipKey struct {
	Source      string
	Destination string
	Style       Style
}

// Relationship is a directed "uses" edge between two elements. Its
// description holds one line per contributing process.
type Relationship struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Style       Style  `json:"style"`
	Description string `json:"description"`
}

// Key returns the identity of r.
func (r Relationship) Key() RelationshipKey {
	return RelationshipKey{Source: r.Source, Destination: r.Destination, Style: r.Style}
}

// Lines splits the description into its merged lines.
func (r Relationship) Lines() []string {
	if r.Description == "" {
		return nil
	}
	return strings.Split(r.Description, "\n")
}

// JoinDistinct joins lines with newlines, dropping repeats and keeping the
// first occurrence order.
func JoinDistinct(lines []string) string {
	seen := make(map[string]bool, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
