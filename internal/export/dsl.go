package export

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dusk-indust/architecturizr/internal/model"
	"github.com/dusk-indust/architecturizr/internal/workspace"
)

// WriteDSL writes ws as a Structurizr DSL workspace: the model, one view
// block per requested view and the element and relationship styles.
func WriteDSL(w io.Writer, ws *workspace.Workspace) error {
	bw := bufio.NewWriter(w)
	d := &dslWriter{w: bw, children: make(map[string][]workspace.Element)}

	var roots []workspace.Element
	for _, e := range ws.Elements {
		if e.Parent == "" {
			roots = append(roots, e)
		} else {
			d.children[e.Parent] = append(d.children[e.Parent], e)
		}
	}

	d.line(0, "workspace %s %s {", quote(ws.Title), quote(ws.Description))
	// The implied relationships are already in ws.Relationships.
	d.line(1, "!impliedRelationships false")
	d.blank()
	d.line(1, "model {")
	for _, e := range roots {
		d.element(2, e)
	}
	for _, r := range ws.Relationships {
		tags := "Synchronous"
		if r.Style == model.Asynchronous {
			tags = "Asynchronous"
		}
		d.line(2, "%s -> %s %s \"\" %s", ident(r.Source), ident(r.Destination), quote(r.Description), quote(tags))
	}
	d.line(1, "}")
	d.blank()

	d.line(1, "views {")
	for _, v := range ws.Views {
		d.view(2, v)
	}
	d.styles(2, ws.OwnerTag)
	d.line(1, "}")
	d.line(0, "}")

	if d.err != nil {
		return fmt.Errorf("write dsl: %w", d.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write dsl: %w", err)
	}
	return nil
}

type dslWriter struct {
	w        *bufio.Writer
	children map[string][]workspace.Element
	err      error
}

func (d *dslWriter) line(indent int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("    ", indent), fmt.Sprintf(format, args...))
}

func (d *dslWriter) blank() {
	if d.err == nil {
		_, d.err = d.w.WriteString("\n")
	}
}

// element writes e and, nested inside it, its children.
func (d *dslWriter) element(indent int, e workspace.Element) {
	tags := quote(strings.Join(e.StyleTags, ","))
	var decl string
	switch e.Kind {
	case model.KindActor:
		decl = fmt.Sprintf("%s = person %s %s %s", ident(e.Key), quote(e.Name), quote(e.Description), tags)
	case model.KindSystem:
		decl = fmt.Sprintf("%s = softwareSystem %s %s %s", ident(e.Key), quote(e.Name), quote(e.Description), tags)
	case model.KindContainer:
		decl = fmt.Sprintf("%s = container %s %s %s %s", ident(e.Key), quote(e.Name), quote(e.Description), quote(e.Technology), tags)
	case model.KindComponent:
		decl = fmt.Sprintf("%s = component %s %s %s %s", ident(e.Key), quote(e.Name), quote(e.Description), quote(e.Technology), tags)
	}

	kids := d.children[e.Key]
	if len(kids) == 0 && !e.Deprecated {
		d.line(indent, "%s", decl)
		return
	}
	d.line(indent, "%s {", decl)
	if e.Deprecated {
		d.line(indent+1, "properties {")
		d.line(indent+2, "\"deprecated\" \"true\"")
		d.line(indent+1, "}")
	}
	for _, c := range kids {
		d.element(indent+1, c)
	}
	d.line(indent, "}")
}

func (d *dslWriter) view(indent int, v workspace.View) {
	switch v.Kind {
	case workspace.ViewLandscape:
		d.line(indent, "systemLandscape %s %s {", quote(v.Key), quote(v.Description))
	case workspace.ViewSystemContext:
		d.line(indent, "systemContext %s %s %s {", ident(v.Scope), quote(v.Key), quote(v.Description))
	case workspace.ViewContainer:
		d.line(indent, "container %s %s %s {", ident(v.Scope), quote(v.Key), quote(v.Description))
	case workspace.ViewComponent, workspace.ViewNeighbourhood:
		d.line(indent, "component %s %s %s {", ident(v.Scope), quote(v.Key), quote(v.Description))
	case workspace.ViewDynamic:
		scope := "*"
		if v.Scope != "" {
			scope = ident(v.Scope)
		}
		d.line(indent, "dynamic %s %s %s {", scope, quote(v.Key), quote(v.Description))
		d.line(indent+1, "title %s", quote(v.Title))
		for _, s := range v.Steps {
			d.line(indent+1, "%s -> %s %s", ident(s.From), ident(s.To), quote(s.Label()))
		}
		d.line(indent+1, "autoLayout")
		d.line(indent, "}")
		return
	default:
		return
	}

	d.line(indent+1, "title %s", quote(v.Title))
	if v.Kind == workspace.ViewNeighbourhood {
		d.line(indent+1, "include %s", ident(v.Focus))
		d.line(indent+1, "include ->%s->", ident(v.Focus))
		d.line(indent+1, "autoLayout tb")
	} else {
		d.line(indent+1, "include *")
	}
	d.line(indent, "}")
}

func (d *dslWriter) styles(indent int, ownerTag string) {
	d.line(indent, "styles {")
	d.line(indent+1, "element \"Person\" {")
	d.line(indent+2, "shape Person")
	d.line(indent+1, "}")
	d.line(indent+1, "element \"Database\" {")
	d.line(indent+2, "shape Cylinder")
	d.line(indent+1, "}")
	d.line(indent+1, "element \"Mobile App\" {")
	d.line(indent+2, "shape MobileDevicePortrait")
	d.line(indent+1, "}")
	if ownerTag != "" {
		d.line(indent+1, "element %s {", quote(ownerTag))
		d.line(indent+2, "background #e7285d")
		d.line(indent+2, "color #ffffff")
		d.line(indent+1, "}")
	}
	d.line(indent+1, "relationship \"Relationship\" {")
	d.line(indent+2, "fontSize 18")
	d.line(indent+2, "width 600")
	d.line(indent+1, "}")
	d.line(indent+1, "relationship \"Synchronous\" {")
	d.line(indent+2, "dashed false")
	d.line(indent+1, "}")
	d.line(indent+1, "relationship \"Asynchronous\" {")
	d.line(indent+2, "dashed true")
	d.line(indent+1, "}")
	d.line(indent, "}")
}

var identInvalid = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// ident turns an element key into a DSL identifier.
func ident(key string) string {
	return identInvalid.ReplaceAllString(key, "_")
}

// quote renders s as a DSL string. DSL strings are single line, so merged
// description lines are joined with a comma.
func quote(s string) string {
	s = strings.ReplaceAll(s, "\n", ", ")
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
