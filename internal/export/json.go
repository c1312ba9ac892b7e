package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dusk-indust/architecturizr/internal/model"
	"github.com/dusk-indust/architecturizr/internal/workspace"
)

// ModelExport is the top-level JSON export structure handed to renderers.
type ModelExport struct {
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	OwnerTag      string               `json:"ownerTag,omitempty"`
	ExportedAt    string               `json:"exportedAt"`
	Elements      []ElementExport      `json:"elements"`
	Relationships []model.Relationship `json:"relationships"`
	Processes     []model.Process      `json:"processes"`
	Views         []workspace.View     `json:"views"`
}

// ElementExport describes one element in use.
type ElementExport struct {
	workspace.Element
	Views []string `json:"views,omitempty"`
}

// NewModelExport builds the export document of ws.
func NewModelExport(ws *workspace.Workspace, exportedAt time.Time) *ModelExport {
	doc := &ModelExport{
		Title:         ws.Title,
		Description:   ws.Description,
		OwnerTag:      ws.OwnerTag,
		ExportedAt:    exportedAt.UTC().Format(time.RFC3339),
		Elements:      make([]ElementExport, 0, len(ws.Elements)),
		Relationships: nonNil(ws.Relationships),
		Processes:     nonNil(ws.Processes),
		Views:         nonNil(ws.Views),
	}
	for _, e := range ws.Elements {
		doc.Elements = append(doc.Elements, ElementExport{Element: e, Views: e.Views.Names()})
	}
	return doc
}

// WriteJSON writes the export document of ws to w as indented JSON.
func WriteJSON(w io.Writer, ws *workspace.Workspace) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewModelExport(ws, time.Now())); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// ReadJSON decodes an export document written by WriteJSON.
func ReadJSON(path string) (*ModelExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model export: %w", err)
	}
	var doc ModelExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model export %s: %w", path, err)
	}
	return &doc, nil
}

// Workspace rebuilds the workspace the document was written from. Element
// view flags are not restored.
func (m *ModelExport) Workspace() *workspace.Workspace {
	ws := &workspace.Workspace{
		Title:         m.Title,
		Description:   m.Description,
		OwnerTag:      m.OwnerTag,
		Elements:      make([]workspace.Element, 0, len(m.Elements)),
		Relationships: m.Relationships,
		Processes:     m.Processes,
		Views:         m.Views,
	}
	for _, e := range m.Elements {
		ws.Elements = append(ws.Elements, e.Element)
	}
	return ws
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
