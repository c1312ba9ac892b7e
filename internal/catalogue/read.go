package catalogue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Sheet names of the XLSX catalogue.
const (
	GeneralSheet = "General"
	NodesSheet   = "Nodes"
)

// Read decodes a catalogue file, choosing the format from its extension.
func Read(path string) (*Catalogue, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".yaml", ".yml":
		return ReadYAML(path)
	default:
		return nil, fmt.Errorf("catalogue %s: unsupported format %q", path, filepath.Ext(path))
	}
}

// yamlCatalogue mirrors the YAML catalogue layout.
type yamlCatalogue struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Elements    []Row  `yaml:"elements"`
}

// ReadYAML decodes a YAML catalogue. Rows are numbered from 1 in document
// order.
func ReadYAML(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	var doc yamlCatalogue
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
	}
	if blank(doc.Title) {
		return nil, fmt.Errorf("catalogue %s: title is required", path)
	}
	for i := range doc.Elements {
		doc.Elements[i].Number = i + 1
	}
	return &Catalogue{
		Title:       strings.TrimSpace(doc.Title),
		Description: strings.TrimSpace(doc.Description),
		Rows:        doc.Elements,
	}, nil
}

// ReadXLSX decodes a workbook with a General sheet (key in column A, value in
// column B, no header) and a Nodes sheet whose first row holds column
// headers.
func ReadXLSX(path string) (cat *Catalogue, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	general, err := f.GetRows(GeneralSheet)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: sheet %s: %w", path, GeneralSheet, err)
	}
	cat = &Catalogue{}
	seenTitle := false
	for _, r := range general {
		if len(r) < 2 {
			continue
		}
		switch strings.TrimSpace(r[0]) {
		case "Title":
			cat.Title = strings.TrimSpace(r[1])
			seenTitle = true
		case "Description":
			cat.Description = strings.TrimSpace(r[1])
		}
	}
	if !seenTitle || cat.Title == "" {
		return nil, fmt.Errorf("catalogue %s: sheet %s has no Title", path, GeneralSheet)
	}

	nodes, err := f.GetRows(NodesSheet)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: sheet %s: %w", path, NodesSheet, err)
	}
	cat.Rows, err = decodeRows(nodes)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", path, err)
	}
	return cat, nil
}

// column identifies a field of Row.
type column int

const (
	colActor column = iota
	colSystem
	colContainer
	colComponent
	colName
	colTechnology
	colTags
	colOwner
	colDeprecated
	colDescription
	colSystemContextView
	colContainerView
	colComponentView
)

// headerColumns maps normalized header text to a Row field.
var headerColumns = map[string]column{
	"actor":             colActor,
	"actorkey":          colActor,
	"person":            colActor,
	"personkey":         colActor,
	"system":            colSystem,
	"systemkey":         colSystem,
	"softwaresystem":    colSystem,
	"softwaresystemkey": colSystem,
	"container":         colContainer,
	"containerkey":      colContainer,
	"component":         colComponent,
	"componentkey":      colComponent,
	"name":              colName,
	"technology":        colTechnology,
	"tags":              colTags,
	"owner":             colOwner,
	"deprecated":        colDeprecated,
	"description":       colDescription,
	"systemcontext":     colSystemContextView,
	"systemcontextview": colSystemContextView,
	"containerview":     colContainerView,
	"componentview":     colComponentView,
}

func normalizeHeader(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// decodeRows maps a header row plus data rows onto Rows. Unknown columns are
// ignored; fully blank lines are skipped. Row numbers are sheet row numbers.
func decodeRows(sheet [][]string) ([]Row, error) {
	if len(sheet) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", NodesSheet)
	}
	index := make(map[column]int)
	for i, h := range sheet[0] {
		if c, ok := headerColumns[normalizeHeader(h)]; ok {
			index[c] = i
		}
	}
	for _, required := range []struct {
		col  column
		name string
	}{
		{colSystem, "System Key"},
		{colContainer, "Container Key"},
		{colComponent, "Component Key"},
		{colName, "Name"},
	} {
		if _, ok := index[required.col]; !ok {
			return nil, fmt.Errorf("sheet %s: missing required column %q", NodesSheet, required.name)
		}
	}

	var rows []Row
	for n, cells := range sheet[1:] {
		get := func(c column) string {
			i, ok := index[c]
			if !ok || i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}
		if strings.TrimSpace(strings.Join(cells, "")) == "" {
			continue
		}
		rows = append(rows, Row{
			Number:            n + 2,
			ActorKey:          get(colActor),
			SystemKey:         get(colSystem),
			ContainerKey:      get(colContainer),
			ComponentKey:      get(colComponent),
			Name:              get(colName),
			Technology:        get(colTechnology),
			Tags:              get(colTags),
			Owner:             get(colOwner),
			Deprecated:        truthy(get(colDeprecated)),
			Description:       get(colDescription),
			SystemContextView: truthy(get(colSystemContextView)),
			ContainerView:     truthy(get(colContainerView)),
			ComponentView:     truthy(get(colComponentView)),
		})
	}
	return rows, nil
}

// truthy interprets a flag cell.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "y", "yes", "true", "1":
		return true
	}
	return false
}
