package main

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/dusk-indust/architecturizr/internal/ctxlog"
	"github.com/dusk-indust/architecturizr/internal/mcptools"
)

// runServeMCP serves the model of the last build over MCP, on stdio or on
// HTTP at addr. Without a previous build the server starts empty and
// build_model loads the first model.
func runServeMCP(e *env, addr string) (err error) {
	store, err := e.loadModel()
	if errors.Is(err, errNoModel) {
		store, err = nil, nil
	}
	if err != nil {
		return err
	}

	svc := mcptools.NewModelService(store, e.root)
	defer func() { err = multierr.Append(err, svc.Close()) }()
	server := mcptools.NewModelMCPServer(svc)

	log := ctxlog.FromContext(e.ctx)
	if addr != "" {
		log.Info("serving MCP over HTTP", "addr", addr)
		return mcptools.RunHTTP(e.ctx, server, addr)
	}
	log.Debug("serving MCP over stdio")
	return mcptools.RunStdio(e.ctx, server)
}
