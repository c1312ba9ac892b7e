package mcptools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/architecturizr/internal/graph"
	"github.com/dusk-indust/architecturizr/internal/model"
)

// seedStore returns a MemStore holding:
//
//	user -> web (shop) -> api (shop) -> psp (payments)
func seedStore(t *testing.T) *graph.MemStore {
	t.Helper()
	ctx := context.Background()
	store := graph.NewMemStore()
	require.NoError(t, store.InitSchema(ctx))

	for _, e := range []graph.ElementNode{
		{Key: "user", Kind: model.KindActor, Name: "User"},
		{Key: "shop", Kind: model.KindSystem, Name: "Shop"},
		{Key: "web", Kind: model.KindContainer, Parent: "shop", Name: "Web Shop", Technology: "React"},
		{Key: "api", Kind: model.KindContainer, Parent: "shop", Name: "Shop API"},
		{Key: "payments", Kind: model.KindSystem, Name: "Payments"},
		{Key: "psp", Kind: model.KindContainer, Parent: "payments", Name: "PSP"},
	} {
		require.NoError(t, store.AddElement(ctx, e))
	}
	for _, r := range []graph.UsesEdge{
		{Source: "user", Destination: "web", Style: model.Synchronous, Description: "Checkout"},
		{Source: "web", Destination: "api", Style: model.Synchronous, Description: "Checkout"},
		{Source: "api", Destination: "psp", Style: model.Asynchronous, Description: "Checkout"},
	} {
		require.NoError(t, store.AddRelationship(ctx, r))
	}
	require.NoError(t, store.AddProcess(ctx, graph.ProcessNode{
		FullName: "Checkout", Name: "Checkout", Source: "flows/checkout.txt", StepCount: 3,
		Elements: []string{"user", "web", "api", "psp"},
	}))
	require.NoError(t, store.AddProcess(ctx, graph.ProcessNode{
		FullName: "Browse", Name: "Browse", Source: "flows/browse.txt", StepCount: 2,
		Elements: []string{"user", "web"},
	}))
	return store
}

func newService(t *testing.T) *ModelService {
	t.Helper()
	return NewModelService(seedStore(t), "")
}

func TestListElements(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, out, err := svc.ListElements(ctx, nil, ListElementsInput{Query: "shop"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)

	_, out, err = svc.ListElements(ctx, nil, ListElementsInput{Kind: "container"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	for _, e := range out.Elements {
		assert.Equal(t, model.KindContainer, e.Kind)
	}

	_, out, err = svc.ListElements(ctx, nil, ListElementsInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Elements, 2)
	assert.Equal(t, 6, out.Total)
}

func TestListElements_UnknownKind(t *testing.T) {
	_, _, err := newService(t).ListElements(context.Background(), nil, ListElementsInput{Kind: "planet"})
	assert.ErrorContains(t, err, "unknown element kind")
}

func TestGetElement(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, out, err := svc.GetElement(ctx, nil, GetElementInput{Key: "shop"})
	require.NoError(t, err)
	assert.Equal(t, "Shop", out.Element.Name)
	require.Len(t, out.Children, 2)
	assert.Equal(t, "web", out.Children[0].Key)

	_, out, err = svc.GetElement(ctx, nil, GetElementInput{Key: "psp"})
	require.NoError(t, err)
	assert.NotNil(t, out.Children)
	assert.Empty(t, out.Children)

	_, _, err = svc.GetElement(ctx, nil, GetElementInput{Key: "nope"})
	assert.ErrorContains(t, err, "not found")

	_, _, err = svc.GetElement(ctx, nil, GetElementInput{})
	assert.ErrorContains(t, err, "key is required")
}

func TestGetRelationships(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, out, err := svc.GetRelationships(ctx, nil, GetRelationshipsInput{Key: "api"})
	require.NoError(t, err)
	assert.Len(t, out.Relationships, 2)

	_, out, err = svc.GetRelationships(ctx, nil, GetRelationshipsInput{Key: "api", Direction: "Downstream"})
	require.NoError(t, err)
	require.Len(t, out.Relationships, 1)
	assert.Equal(t, "psp", out.Relationships[0].Destination)

	_, _, err = svc.GetRelationships(ctx, nil, GetRelationshipsInput{Key: "api", Direction: "sideways"})
	assert.ErrorContains(t, err, "unknown direction")
}

func TestTraceDependencies(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, out, err := svc.TraceDependencies(ctx, nil, TraceDependenciesInput{Key: "user"})
	require.NoError(t, err)
	reached := make(map[string]int)
	for _, c := range out.Chains {
		reached[c.Nodes[len(c.Nodes)-1]] = c.Depth
	}
	assert.Equal(t, map[string]int{"web": 1, "api": 2, "psp": 3}, reached)

	_, out, err = svc.TraceDependencies(ctx, nil, TraceDependenciesInput{Key: "user", MaxDepth: 1})
	require.NoError(t, err)
	assert.Len(t, out.Chains, 1)

	_, out, err = svc.TraceDependencies(ctx, nil, TraceDependenciesInput{Key: "user", Direction: "upstream"})
	require.NoError(t, err)
	assert.NotNil(t, out.Chains)
	assert.Empty(t, out.Chains)
}

func TestListProcesses(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, out, err := svc.ListProcesses(ctx, nil, ListProcessesInput{})
	require.NoError(t, err)
	assert.Len(t, out.Processes, 2)

	_, out, err = svc.ListProcesses(ctx, nil, ListProcessesInput{Element: "psp"})
	require.NoError(t, err)
	require.Len(t, out.Processes, 1)
	assert.Equal(t, "Checkout", out.Processes[0].FullName)
}

func TestGetStats(t *testing.T) {
	_, out, err := newService(t).GetStats(context.Background(), nil, GetStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, graph.GraphStats{
		ElementCount:      6,
		ActorCount:        1,
		SystemCount:       2,
		ContainerCount:    3,
		RelationshipCount: 3,
		ProcessCount:      2,
	}, out.Stats)
}

func TestNoModelLoaded(t *testing.T) {
	svc := NewModelService(nil, "")
	_, _, err := svc.GetStats(context.Background(), nil, GetStatsInput{})
	assert.ErrorContains(t, err, "build_model")
	assert.NoError(t, svc.Close())
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"architecturizr.yml": "catalogue: catalogue.yaml\nformats: [json]\n",
		"catalogue.yaml": `title: Shop
elements:
  - actor: user
    name: User
  - system: shop
    name: Shop
  - system: shop
    container: web
    name: Web
`,
		"flows/browse.txt": "title Browse\nuser -> web: look around\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestBuildModel(t *testing.T) {
	root := writeProject(t)
	svc := NewModelService(nil, root)
	t.Cleanup(func() { _ = svc.Close() })
	ctx := context.Background()

	_, out, err := svc.BuildModel(ctx, nil, BuildModelInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Stats.ElementCount)
	assert.Equal(t, 1, out.Stats.ProcessCount)
	assert.Equal(t, 1, out.Implied)
	assert.Equal(t, []string{filepath.Join(root, "out", "workspace.json")}, out.FilesWritten)

	_, el, err := svc.GetElement(ctx, nil, GetElementInput{Key: "web"})
	require.NoError(t, err)
	assert.Equal(t, "shop", el.Element.Parent)
}

func TestBuildModel_UsesStoreFactory(t *testing.T) {
	root := writeProject(t)
	svc := NewModelService(seedStore(t), "")
	var opened int
	svc.SetStoreFactory(func(context.Context) (graph.Store, error) {
		opened++
		return graph.NewMemStore(), nil
	})

	_, _, err := svc.BuildModel(context.Background(), nil, BuildModelInput{ProjectRoot: root})
	require.NoError(t, err)
	assert.Equal(t, 1, opened)

	_, stats, err := svc.GetStats(context.Background(), nil, GetStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Stats.ElementCount, "the seeded model is replaced")
}

func TestBuildModel_FailureKeepsModel(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "flows", "broken.txt"), []byte("user -> zzz: lost\n"), 0o644))
	svc := NewModelService(seedStore(t), root)

	_, _, err := svc.BuildModel(context.Background(), nil, BuildModelInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUndefinedElement))

	_, stats, err := svc.GetStats(context.Background(), nil, GetStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Stats.ElementCount)
}

func TestBuildModel_NoProjectRoot(t *testing.T) {
	_, _, err := NewModelService(nil, "").BuildModel(context.Background(), nil, BuildModelInput{})
	assert.ErrorContains(t, err, "projectRoot is required")
}

// trackingStore records Close and can fail it.
type trackingStore struct {
	*graph.MemStore
	closed   atomic.Bool
	closeErr error
}

func (s *trackingStore) Close() error {
	s.closed.Store(true)
	return s.closeErr
}

func TestBuildModel_ClosesPreviousStoreAfterActiveCalls(t *testing.T) {
	root := writeProject(t)
	old := &trackingStore{MemStore: seedStore(t)}
	svc := NewModelService(old, root)
	t.Cleanup(func() { _ = svc.Close() })

	// A call still reading the old model.
	store, release, err := svc.acquire()
	require.NoError(t, err)
	require.Same(t, old, store)

	_, _, err = svc.BuildModel(context.Background(), nil, BuildModelInput{})
	require.NoError(t, err)

	_, stats, err := svc.GetStats(context.Background(), nil, GetStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Stats.ElementCount, "new calls see the rebuilt model")

	time.Sleep(20 * time.Millisecond)
	assert.False(t, old.closed.Load(), "the old store stays open while a call reads it")
	_, err = store.Stats(context.Background())
	assert.NoError(t, err)

	release()
	assert.Eventually(t, old.closed.Load, time.Second, 5*time.Millisecond)
}

func TestBuildModel_FailureReportsCloseError(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "flows", "broken.txt"), []byte("user -> zzz: lost\n"), 0o644))

	fresh := &trackingStore{MemStore: graph.NewMemStore(), closeErr: errors.New("disk gone")}
	svc := NewModelService(nil, root)
	svc.SetStoreFactory(func(context.Context) (graph.Store, error) { return fresh, nil })

	_, _, err := svc.BuildModel(context.Background(), nil, BuildModelInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUndefinedElement))
	assert.ErrorContains(t, err, "disk gone")
	assert.True(t, fresh.closed.Load())
}

func TestClose_WaitsForActiveCalls(t *testing.T) {
	st := &trackingStore{MemStore: seedStore(t)}
	svc := NewModelService(st, "")

	_, release, err := svc.acquire()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- svc.Close() }()

	select {
	case <-done:
		t.Fatal("Close returned while a call was active")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	require.NoError(t, <-done)
	assert.True(t, st.closed.Load())

	_, _, err = svc.GetStats(context.Background(), nil, GetStatsInput{})
	assert.ErrorContains(t, err, "build_model")
}
