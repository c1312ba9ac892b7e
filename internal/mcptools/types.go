package mcptools

import "github.com/dusk-indust/architecturizr/internal/graph"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// BuildModelInput is the input for the build_model MCP tool.
type BuildModelInput struct {
	ProjectRoot string `json:"projectRoot,omitempty" jsonschema:"path to the project holding architecturizr.yml (default: server project root)"`
}

// BuildModelOutput is the result of the build_model MCP tool.
type BuildModelOutput struct {
	Stats        graph.GraphStats `json:"stats"`
	Implied      int              `json:"implied"`
	Views        int              `json:"views"`
	FilesWritten []string         `json:"filesWritten"`
}

// ListElementsInput is the input for the list_elements MCP tool.
type ListElementsInput struct {
	Query string `json:"query,omitempty" jsonschema:"substring of the element key or name (empty lists everything)"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by element kind: actor, system, container, component"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 50)"`
}

// ListElementsOutput is the result of the list_elements MCP tool.
type ListElementsOutput struct {
	Elements []graph.ElementNode `json:"elements"`
	Total    int                 `json:"total"`
}

// GetElementInput is the input for the get_element MCP tool.
type GetElementInput struct {
	Key string `json:"key" jsonschema:"element key from the catalogue"`
}

// GetElementOutput is the result of the get_element MCP tool.
type GetElementOutput struct {
	Element  graph.ElementNode   `json:"element"`
	Children []graph.ElementNode `json:"children"`
}

// GetRelationshipsInput is the input for the get_relationships MCP tool.
type GetRelationshipsInput struct {
	Key       string `json:"key" jsonschema:"element key"`
	Direction string `json:"direction,omitempty" jsonschema:"downstream (what it uses), upstream (what uses it) or both. Default: both"`
}

// GetRelationshipsOutput is the result of the get_relationships MCP tool.
type GetRelationshipsOutput struct {
	Relationships []graph.UsesEdge `json:"relationships"`
}

// TraceDependenciesInput is the input for the trace_dependencies MCP tool.
type TraceDependenciesInput struct {
	Key       string `json:"key" jsonschema:"element key to start from"`
	Direction string `json:"direction,omitempty" jsonschema:"downstream, upstream or both. Default: downstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// TraceDependenciesOutput is the result of the trace_dependencies MCP tool.
type TraceDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// ListProcessesInput is the input for the list_processes MCP tool.
type ListProcessesInput struct {
	Element string `json:"element,omitempty" jsonschema:"only processes whose steps involve this element key"`
}

// ListProcessesOutput is the result of the list_processes MCP tool.
type ListProcessesOutput struct {
	Processes []graph.ProcessNode `json:"processes"`
}

// GetStatsInput is the input for the get_stats MCP tool.
type GetStatsInput struct{}

// GetStatsOutput is the result of the get_stats MCP tool.
type GetStatsOutput struct {
	Stats graph.GraphStats `json:"stats"`
}
