package mcptools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/multierr"

	"github.com/dusk-indust/architecturizr/internal/config"
	"github.com/dusk-indust/architecturizr/internal/ctxlog"
	"github.com/dusk-indust/architecturizr/internal/graph"
	"github.com/dusk-indust/architecturizr/internal/model"
	"github.com/dusk-indust/architecturizr/internal/pipeline"
)

// StoreFactory opens an empty store for a rebuilt model.
type StoreFactory func(ctx context.Context) (graph.Store, error)

// ModelService answers MCP tool calls from a model graph.
type ModelService struct {
	mu          sync.RWMutex
	served      *servedModel
	projectRoot string
	newStore    StoreFactory
}

// servedModel is a store with the tool calls still reading it. A replaced
// store is closed once its last call has released it.
type servedModel struct {
	store  graph.Store
	active sync.WaitGroup
}

func serve(store graph.Store) *servedModel {
	if store == nil {
		return nil
	}
	return &servedModel{store: store}
}

// NewModelService creates a ModelService over store. build_model runs the
// project at projectRoot and replaces the store with a fresh in-memory one
// unless SetStoreFactory says otherwise.
func NewModelService(store graph.Store, projectRoot string) *ModelService {
	return &ModelService{
		served:      serve(store),
		projectRoot: projectRoot,
		newStore: func(context.Context) (graph.Store, error) {
			return graph.NewMemStore(), nil
		},
	}
}

// SetStoreFactory sets how build_model opens the store it loads into.
func (s *ModelService) SetStoreFactory(f StoreFactory) {
	s.newStore = f
}

// Close closes the current store once the calls reading it are done.
func (s *ModelService) Close() error {
	s.mu.Lock()
	m := s.served
	s.served = nil
	s.mu.Unlock()
	if m == nil {
		return nil
	}
	m.active.Wait()
	return m.store.Close()
}

// acquire returns the served store and the func releasing it. Every
// successful acquire must be released.
func (s *ModelService) acquire() (graph.Store, func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.served == nil {
		return nil, nil, fmt.Errorf("no model loaded; call build_model first")
	}
	m := s.served
	m.active.Add(1)
	return m.store, m.active.Done, nil
}

// retire closes m after its last reader released it.
func retire(ctx context.Context, m *servedModel) {
	m.active.Wait()
	if err := m.store.Close(); err != nil {
		ctxlog.FromContext(ctx).Warn("closing previous model store", "error", err)
	}
}

// BuildModel runs the project pipeline and serves the result.
func (s *ModelService) BuildModel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildModelInput,
) (*mcp.CallToolResult, BuildModelOutput, error) {
	root := input.ProjectRoot
	if root == "" {
		root = s.projectRoot
	}
	if root == "" {
		return nil, BuildModelOutput{}, fmt.Errorf("projectRoot is required")
	}

	pc, err := config.Load(root)
	if err != nil {
		return nil, BuildModelOutput{}, fmt.Errorf("load config: %w", err)
	}
	store, err := s.newStore(ctx)
	if err != nil {
		return nil, BuildModelOutput{}, fmt.Errorf("open store: %w", err)
	}

	cfg := pipeline.FromProject(root, *pc)
	cfg.Graph = store
	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return nil, BuildModelOutput{}, multierr.Append(err, store.Close())
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, BuildModelOutput{}, multierr.Append(fmt.Errorf("stats: %w", err), store.Close())
	}

	s.mu.Lock()
	old := s.served
	s.served = serve(store)
	s.mu.Unlock()
	if old != nil {
		go retire(context.WithoutCancel(ctx), old)
	}

	files := res.Files
	if files == nil {
		files = []string{}
	}
	return nil, BuildModelOutput{
		Stats:        *stats,
		Implied:      len(res.Relationships.Implied),
		Views:        len(res.Workspace.Views),
		FilesWritten: files,
	}, nil
}

// ListElements searches elements by key or name substring.
func (s *ModelService) ListElements(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListElementsInput,
) (*mcp.CallToolResult, ListElementsOutput, error) {
	store, release, err := s.acquire()
	if err != nil {
		return nil, ListElementsOutput{}, err
	}
	defer release()

	var kind model.ElementKind
	if input.Kind != "" {
		kind = model.ElementKind(strings.ToLower(input.Kind))
		if !kind.Valid() {
			return nil, ListElementsOutput{}, fmt.Errorf("unknown element kind %q", input.Kind)
		}
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	// Filter before limiting so a kind filter still fills the page.
	elements, err := store.QueryElements(ctx, input.Query, 0)
	if err != nil {
		return nil, ListElementsOutput{}, fmt.Errorf("query elements: %w", err)
	}
	out := make([]graph.ElementNode, 0, len(elements))
	for _, e := range elements {
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	total := len(out)
	if len(out) > limit {
		out = out[:limit]
	}

	return nil, ListElementsOutput{Elements: out, Total: total}, nil
}

// GetElement returns one element and its direct children.
func (s *ModelService) GetElement(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetElementInput,
) (*mcp.CallToolResult, GetElementOutput, error) {
	if input.Key == "" {
		return nil, GetElementOutput{}, fmt.Errorf("key is required")
	}
	store, release, err := s.acquire()
	if err != nil {
		return nil, GetElementOutput{}, err
	}
	defer release()

	e, err := store.GetElement(ctx, input.Key)
	if err != nil {
		return nil, GetElementOutput{}, fmt.Errorf("get element: %w", err)
	}
	if e == nil {
		return nil, GetElementOutput{}, fmt.Errorf("element %q not found", input.Key)
	}
	children, err := store.GetChildren(ctx, input.Key)
	if err != nil {
		return nil, GetElementOutput{}, fmt.Errorf("get children: %w", err)
	}
	if children == nil {
		children = []graph.ElementNode{}
	}

	return nil, GetElementOutput{Element: *e, Children: children}, nil
}

// GetRelationships returns the USES edges touching an element.
func (s *ModelService) GetRelationships(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRelationshipsInput,
) (*mcp.CallToolResult, GetRelationshipsOutput, error) {
	if input.Key == "" {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("key is required")
	}
	direction, ok := graph.ParseDirection(strings.ToLower(input.Direction))
	if !ok {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("unknown direction %q", input.Direction)
	}
	store, release, err := s.acquire()
	if err != nil {
		return nil, GetRelationshipsOutput{}, err
	}
	defer release()

	rels, err := store.GetRelationships(ctx, input.Key, direction)
	if err != nil {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("get relationships: %w", err)
	}
	if rels == nil {
		rels = []graph.UsesEdge{}
	}

	return nil, GetRelationshipsOutput{Relationships: rels}, nil
}

// TraceDependencies walks USES edges from an element.
func (s *ModelService) TraceDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TraceDependenciesInput,
) (*mcp.CallToolResult, TraceDependenciesOutput, error) {
	if input.Key == "" {
		return nil, TraceDependenciesOutput{}, fmt.Errorf("key is required")
	}

	direction := graph.DirectionDownstream
	if input.Direction != "" {
		d, ok := graph.ParseDirection(strings.ToLower(input.Direction))
		if !ok {
			return nil, TraceDependenciesOutput{}, fmt.Errorf("unknown direction %q", input.Direction)
		}
		direction = d
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	store, release, err := s.acquire()
	if err != nil {
		return nil, TraceDependenciesOutput{}, err
	}
	defer release()
	chains, err := store.GetDependencies(ctx, input.Key, direction, maxDepth)
	if err != nil {
		return nil, TraceDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}

	return nil, TraceDependenciesOutput{Chains: chains}, nil
}

// ListProcesses returns the processes, optionally only those involving an
// element.
func (s *ModelService) ListProcesses(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListProcessesInput,
) (*mcp.CallToolResult, ListProcessesOutput, error) {
	store, release, err := s.acquire()
	if err != nil {
		return nil, ListProcessesOutput{}, err
	}
	defer release()

	procs, err := store.GetProcesses(ctx)
	if err != nil {
		return nil, ListProcessesOutput{}, fmt.Errorf("get processes: %w", err)
	}
	out := make([]graph.ProcessNode, 0, len(procs))
	for _, p := range procs {
		if input.Element != "" && !involves(p, input.Element) {
			continue
		}
		out = append(out, p)
	}

	return nil, ListProcessesOutput{Processes: out}, nil
}

func involves(p graph.ProcessNode, key string) bool {
	for _, e := range p.Elements {
		if e == key {
			return true
		}
	}
	return false
}

// GetStats summarizes the model graph.
func (s *ModelService) GetStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetStatsInput,
) (*mcp.CallToolResult, GetStatsOutput, error) {
	store, release, err := s.acquire()
	if err != nil {
		return nil, GetStatsOutput{}, err
	}
	defer release()
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, GetStatsOutput{}, fmt.Errorf("stats: %w", err)
	}

	return nil, GetStatsOutput{Stats: *stats}, nil
}
