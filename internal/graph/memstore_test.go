package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/architecturizr/internal/model"
	"github.com/dusk-indust/architecturizr/internal/workspace"
)

// shopWorkspace returns a small workspace:
//
//	user -> web (shop) -> api (shop) -> psp (payments)
func shopWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	h := model.NewHierarchy()
	for _, e := range []model.Element{
		{Key: "user", Kind: model.KindActor, Name: "User"},
		{Key: "shop", Kind: model.KindSystem, Name: "Shop"},
		{Key: "web", Kind: model.KindContainer, Parent: "shop", Name: "Web", Technology: "React", Tags: []string{"Frontend"}},
		{Key: "api", Kind: model.KindContainer, Parent: "shop", Name: "API"},
		{Key: "payments", Kind: model.KindSystem, Name: "Payments"},
		{Key: "psp", Kind: model.KindContainer, Parent: "payments", Name: "PSP", Owner: "Vendor"},
	} {
		_, err := h.Register(e)
		require.NoError(t, err)
	}
	h.Freeze()

	procs := []model.Process{{
		Name:     "Checkout",
		FullName: "Checkout",
		Source:   "flows/checkout.txt",
		Steps: []model.Step{
			{Kind: model.StepSync, From: "user", To: "web", Description: "browse"},
			{Kind: model.StepSync, From: "web", To: "api", Description: "place order"},
			{Kind: model.StepAsync, From: "api", To: "psp", Topic: "payments", Description: "charge"},
		},
	}}
	rels := []model.Relationship{
		{Source: "user", Destination: "web", Style: model.Synchronous, Description: "Checkout"},
		{Source: "web", Destination: "api", Style: model.Synchronous, Description: "Checkout"},
		{Source: "api", Destination: "psp", Style: model.Asynchronous, Description: "Checkout"},
		{Source: "user", Destination: "shop", Style: model.Synchronous, Description: "Checkout"},
		{Source: "api", Destination: "payments", Style: model.Asynchronous, Description: "Checkout"},
		{Source: "shop", Destination: "psp", Style: model.Asynchronous, Description: "Checkout"},
		{Source: "shop", Destination: "payments", Style: model.Asynchronous, Description: "Checkout"},
	}
	ws, err := workspace.Build(context.Background(), "Shop", "", h, procs, rels, workspace.Options{})
	require.NoError(t, err)
	return ws
}

func loadedMemStore(t *testing.T) *MemStore {
	t.Helper()
	s := NewMemStore()
	require.NoError(t, Load(context.Background(), s, shopWorkspace(t)))
	return s
}

func TestLoad_MemStore(t *testing.T) {
	s := loadedMemStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{
		ElementCount:      6,
		ActorCount:        1,
		SystemCount:       2,
		ContainerCount:    3,
		RelationshipCount: 7,
		ProcessCount:      1,
	}, stats)

	procs, err := s.GetProcesses(ctx)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, 3, procs[0].StepCount)
	assert.Equal(t, []string{"user", "web", "api", "psp"}, procs[0].Elements)
}

func TestMemStore_ElementRoundTrip(t *testing.T) {
	s := loadedMemStore(t)
	ctx := context.Background()

	web, err := s.GetElement(ctx, "web")
	require.NoError(t, err)
	require.NotNil(t, web)
	assert.Equal(t, model.KindContainer, web.Kind)
	assert.Equal(t, "shop", web.Parent)
	assert.Equal(t, "React", web.Technology)
	assert.Equal(t, []string{"Frontend"}, web.Tags)

	missing, err := s.GetElement(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemStore_AddElement_RequiresParent(t *testing.T) {
	s := NewMemStore()
	err := s.AddElement(context.Background(), ElementNode{Key: "web", Kind: model.KindContainer, Parent: "shop"})
	assert.Error(t, err)
}

func TestMemStore_AddRelationship_RequiresElements(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.AddElement(ctx, ElementNode{Key: "a", Kind: model.KindSystem}))
	assert.Error(t, s.AddRelationship(ctx, UsesEdge{Source: "a", Destination: "b", Style: model.Synchronous}))
}

func TestMemStore_GetChildren(t *testing.T) {
	s := loadedMemStore(t)
	children, err := s.GetChildren(context.Background(), "shop")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "web", children[0].Key)
	assert.Equal(t, "api", children[1].Key)
}

func TestMemStore_QueryElements(t *testing.T) {
	s := loadedMemStore(t)
	ctx := context.Background()

	got, err := s.QueryElements(ctx, "P", 0)
	require.NoError(t, err)
	var keys []string
	for _, e := range got {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"shop", "api", "payments", "psp"}, keys)

	limited, err := s.QueryElements(ctx, "P", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemStore_GetRelationships(t *testing.T) {
	s := loadedMemStore(t)
	ctx := context.Background()

	down, err := s.GetRelationships(ctx, "api", DirectionDownstream)
	require.NoError(t, err)
	assert.Len(t, down, 2)

	up, err := s.GetRelationships(ctx, "api", DirectionUpstream)
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, "web", up[0].Source)

	both, err := s.GetRelationships(ctx, "api", DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, both, 3)
}

func TestMemStore_GetDependencies(t *testing.T) {
	s := loadedMemStore(t)
	ctx := context.Background()

	chains, err := s.GetDependencies(ctx, "web", DirectionDownstream, 2)
	require.NoError(t, err)

	reached := make(map[string]int)
	for _, c := range chains {
		reached[c.Nodes[len(c.Nodes)-1]] = c.Depth
	}
	assert.Equal(t, map[string]int{"api": 1, "psp": 2, "payments": 2}, reached)

	none, err := s.GetDependencies(ctx, "web", DirectionDownstream, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("")
	assert.True(t, ok)
	assert.Equal(t, DirectionBoth, d)

	d, ok = ParseDirection("upstream")
	assert.True(t, ok)
	assert.Equal(t, DirectionUpstream, d)

	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}
