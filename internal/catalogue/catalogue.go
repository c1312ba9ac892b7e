// Package catalogue turns the tabular element catalogue into an element
// hierarchy. Rows are classified by which key columns are filled in and
// registered in order, so parents must appear before their children.
package catalogue

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/architecturizr/internal/model"
)

// Catalogue is the decoded input: the general key/value sheet and the
// element rows.
type Catalogue struct {
	Title       string
	Description string
	Rows        []Row
}

// Row is one line of the element sheet. Number is the 1-indexed row number in
// the source, used in error messages.
type Row struct {
	Number       int    `yaml:"-"`
	ActorKey     string `yaml:"actor,omitempty"`
	SystemKey    string `yaml:"system,omitempty"`
	ContainerKey string `yaml:"container,omitempty"`
	ComponentKey string `yaml:"component,omitempty"`

	Name        string `yaml:"name"`
	Technology  string `yaml:"technology,omitempty"`
	Tags        string `yaml:"tags,omitempty"`
	Owner       string `yaml:"owner,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty"`
	Description string `yaml:"description,omitempty"`

	SystemContextView bool `yaml:"systemContextView,omitempty"`
	ContainerView     bool `yaml:"containerView,omitempty"`
	ComponentView     bool `yaml:"componentView,omitempty"`
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (r Row) isActor() bool { return !blank(r.ActorKey) }

func (r Row) isSystem() bool {
	return !blank(r.SystemKey) && blank(r.ContainerKey) && blank(r.ComponentKey)
}

func (r Row) isContainer() bool {
	return !blank(r.SystemKey) && !blank(r.ContainerKey) && blank(r.ComponentKey)
}

func (r Row) isComponent() bool {
	return !blank(r.SystemKey) && !blank(r.ContainerKey) && !blank(r.ComponentKey)
}

// Classify returns the single element kind r describes. The four shape
// predicates are evaluated independently; zero or several matches are
// definition errors.
func Classify(r Row) (model.ElementKind, error) {
	var matches []model.ElementKind
	if r.isActor() {
		matches = append(matches, model.KindActor)
	}
	if r.isSystem() {
		matches = append(matches, model.KindSystem)
	}
	if r.isContainer() {
		matches = append(matches, model.KindContainer)
	}
	if r.isComponent() {
		matches = append(matches, model.KindComponent)
	}

	switch len(matches) {
	case 0:
		return "", &model.DefinitionError{Reason: model.RowMatchesNoKind, Row: r.Number}
	case 1:
		if blank(r.Name) {
			return "", &model.DefinitionError{Reason: model.RowMatchesNoKind, Row: r.Number, Detail: "name is blank"}
		}
		return matches[0], nil
	default:
		kinds := make([]string, len(matches))
		for i, k := range matches {
			kinds[i] = string(k)
		}
		return "", &model.DefinitionError{
			Reason: model.AmbiguousRow,
			Row:    r.Number,
			Detail: "matches " + strings.Join(kinds, ", "),
		}
	}
}

// Element converts a classified row into an unregistered element.
func (r Row) Element(kind model.ElementKind) model.Element {
	e := model.Element{
		Kind:        kind,
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Tags:        model.SplitTags(r.Tags),
		Owner:       strings.TrimSpace(r.Owner),
		Deprecated:  r.Deprecated,
	}
	switch kind {
	case model.KindActor:
		e.Key = strings.TrimSpace(r.ActorKey)
	case model.KindSystem:
		e.Key = strings.TrimSpace(r.SystemKey)
	case model.KindContainer:
		e.Key = strings.TrimSpace(r.ContainerKey)
		e.Parent = strings.TrimSpace(r.SystemKey)
		e.Technology = strings.TrimSpace(r.Technology)
	case model.KindComponent:
		e.Key = strings.TrimSpace(r.ComponentKey)
		e.Parent = strings.TrimSpace(r.ContainerKey)
		e.Technology = strings.TrimSpace(r.Technology)
	}
	if r.SystemContextView {
		e.Views = e.Views.With(model.ViewSystemContext)
	}
	if r.ContainerView {
		e.Views = e.Views.With(model.ViewContainer)
	}
	if r.ComponentView {
		e.Views = e.Views.With(model.ViewComponent)
	}
	return e
}

// Build classifies and registers every row in order and freezes the result.
// It stops at the first failing row.
func Build(rows []Row) (*model.Hierarchy, error) {
	h := model.NewHierarchy()
	for _, r := range rows {
		kind, err := Classify(r)
		if err != nil {
			return nil, err
		}
		e := r.Element(kind)
		if kind == model.KindComponent {
			if err := checkSystem(h, r, e); err != nil {
				return nil, err
			}
		}
		if _, err := h.Register(e); err != nil {
			return nil, withRow(err, r.Number)
		}
	}
	h.Freeze()
	return h, nil
}

// checkSystem verifies that a component row's container lives in the system
// named on the same row.
func checkSystem(h *model.Hierarchy, r Row, e model.Element) error {
	cont, err := h.Resolve(e.Parent)
	if err != nil {
		return nil // reported by Register
	}
	if sys := strings.TrimSpace(r.SystemKey); cont.Parent != sys {
		return &model.DefinitionError{
			Reason: model.UndefinedParent,
			Row:    r.Number,
			Key:    e.Key,
			Detail: fmt.Sprintf("container '%s' belongs to '%s', not '%s'", cont.Key, cont.Parent, sys),
		}
	}
	return nil
}

func withRow(err error, row int) error {
	if defErr, ok := err.(*model.DefinitionError); ok && defErr.Row == 0 {
		defErr.Row = row
	}
	return err
}
