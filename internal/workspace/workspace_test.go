package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/architecturizr/internal/model"
)

// newModel builds:
//
//	user (actor)
//	shop (system, context+container views) > web (container, component view) > cart (component, component view)
//	                                        > api (container)
//	payments (system) > psp (container)
//	unused (system)
func newModel(t *testing.T) *model.Hierarchy {
	t.Helper()
	all := model.ViewSet(0).With(model.ViewSystemContext).With(model.ViewContainer)
	h := model.NewHierarchy()
	for _, e := range []model.Element{
		{Key: "user", Kind: model.KindActor, Name: "User"},
		{Key: "shop", Kind: model.KindSystem, Name: "Shop", Views: all},
		{Key: "web", Kind: model.KindContainer, Parent: "shop", Name: "Web", Technology: "React", Views: model.ViewSet(0).With(model.ViewComponent)},
		{Key: "cart", Kind: model.KindComponent, Parent: "web", Name: "Cart", Tags: []string{"Frontend", "Critical"}, Owner: "Team A", Views: model.ViewSet(0).With(model.ViewComponent)},
		{Key: "api", Kind: model.KindContainer, Parent: "shop", Name: "API"},
		{Key: "payments", Kind: model.KindSystem, Name: "Payments", Views: all},
		{Key: "psp", Kind: model.KindContainer, Parent: "payments", Name: "PSP"},
		{Key: "unused", Kind: model.KindSystem, Name: "Unused", Views: all},
	} {
		_, err := h.Register(e)
		require.NoError(t, err)
	}
	h.Freeze()
	return h
}

func step(from, to string) model.Step {
	return model.Step{Kind: model.StepSync, From: from, To: to, Description: from + " calls " + to}
}

func keys(elems []*model.Element) []string {
	var out []string
	for _, e := range elems {
		out = append(out, e.Key)
	}
	return out
}

func viewKeys(views []View) []string {
	var out []string
	for _, v := range views {
		out = append(out, v.Key)
	}
	return out
}

func TestElementsInUse_IncludesAncestors(t *testing.T) {
	h := newModel(t)
	procs := []model.Process{{FullName: "P", Steps: []model.Step{step("user", "cart"), step("cart", "psp")}}}

	elems, err := ElementsInUse(h, procs)
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "shop", "web", "cart", "payments", "psp"}, keys(elems))
}

func TestElementsInUse_Undefined(t *testing.T) {
	h := newModel(t)
	_, err := ElementsInUse(h, []model.Process{{FullName: "P", Steps: []model.Step{step("user", "zzz")}}})
	assert.True(t, errors.Is(err, model.ErrUndefinedElement))
}

func TestBuild_Views(t *testing.T) {
	h := newModel(t)
	procs := []model.Process{
		{FullName: "Checkout - Happy path", Steps: []model.Step{step("user", "cart"), step("cart", "api"), step("cart", "psp")}},
		{FullName: "Ping", Steps: []model.Step{step("api", "psp")}},
	}

	ws, err := Build(context.Background(), "Shop", "", h, procs, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"landscape",
		"sc-shop",
		"sc-payments",
		"cont-shop",
		"cont-payments",
		"comp1-web",
		"comp2-cart",
		"process-checkout-happy-path",
	}, viewKeys(ws.Views))
	assert.Len(t, ws.Processes, 2, "short processes stay in the hand-off")

	neighbourhood := ws.Views[6]
	assert.Equal(t, ViewNeighbourhood, neighbourhood.Kind)
	assert.Equal(t, "web", neighbourhood.Scope)
	assert.Equal(t, "cart", neighbourhood.Focus)
}

func TestBuild_NeighbourhoodNeedsMoreThanTwoReferences(t *testing.T) {
	h := newModel(t)
	procs := []model.Process{{FullName: "P", Steps: []model.Step{step("user", "cart"), step("cart", "api")}}}

	ws, err := Build(context.Background(), "Shop", "", h, procs, nil, Options{})
	require.NoError(t, err)
	assert.NotContains(t, viewKeys(ws.Views), "comp2-cart")
}

func TestBuild_DynamicView(t *testing.T) {
	h := newModel(t)
	procs := []model.Process{{FullName: "Checkout", Steps: []model.Step{
		step("user", "cart"),
		{Kind: model.StepAsync, From: "cart", To: "api", Topic: "orders", Description: "publish"},
	}}}

	ws, err := Build(context.Background(), "Shop", "", h, procs, nil, Options{})
	require.NoError(t, err)

	v := ws.Views[len(ws.Views)-1]
	assert.Equal(t, ViewDynamic, v.Kind)
	assert.Equal(t, "process-checkout", v.Key)
	assert.Equal(t, "shop", v.Scope)
	require.Len(t, v.Steps, 2)
	assert.Equal(t, "user calls cart", v.Steps[0].Label())
	assert.Equal(t, "publish\n[orders]", v.Steps[1].Label())
}

func TestDynamicScope(t *testing.T) {
	h := newModel(t)
	assert.Equal(t, "web", dynamicScope(h, model.Process{Steps: []model.Step{step("user", "cart"), step("cart", "web")}}))
	assert.Equal(t, "", dynamicScope(h, model.Process{Steps: []model.Step{step("cart", "psp")}}))
}

func TestBuild_StyleTags(t *testing.T) {
	h := newModel(t)
	procs := []model.Process{{FullName: "P", Steps: []model.Step{step("user", "cart")}}}

	ws, err := Build(context.Background(), "Shop", "", h, procs, nil, Options{})
	require.NoError(t, err)
	cart, ok := ws.Element("cart")
	require.True(t, ok)
	assert.Equal(t, []string{"Frontend", "Critical", "Team A"}, cart.StyleTags)

	web, ok := ws.Element("web")
	require.True(t, ok)
	assert.Equal(t, []string{"React"}, web.StyleTags)

	ws, err = Build(context.Background(), "Shop", "", h, procs, nil, Options{OwnerTag: "Internal"})
	require.NoError(t, err)
	cart, _ = ws.Element("cart")
	assert.Equal(t, []string{"Frontend", "Critical", "Internal"}, cart.StyleTags)

	_, ok = ws.Element("unused")
	assert.False(t, ok)
}

func TestKebab(t *testing.T) {
	tests := map[string]string{
		"Checkout - Happy path":  "checkout-happy-path",
		"  Order (v2) / refund!": "order-v2-refund",
		"already-kebab":          "already-kebab",
		"CamelCase":              "camelcase",
	}
	for in, want := range tests {
		assert.Equal(t, want, Kebab(in), in)
	}
}
