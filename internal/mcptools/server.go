// Package mcptools exposes an architecture model graph over the Model
// Context Protocol.
package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewModelMCPServer creates an MCP server with the model query tools registered.
func NewModelMCPServer(svc *ModelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "architecturizr",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_model",
		Description: "Rebuild the architecture model of a project from its catalogue and flow files, write the configured exports and serve the new model. Returns graph statistics.",
	}, svc.BuildModel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_elements",
		Description: "Search actors, systems, containers and components by key or name substring. Optionally filter by kind and limit results.",
	}, svc.ListElements)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_element",
		Description: "Return one element of the model with its direct children.",
	}, svc.GetElement)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_relationships",
		Description: "Return the direct and implied 'uses' relationships of an element, upstream, downstream or both.",
	}, svc.GetRelationships)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trace_dependencies",
		Description: "Traverse 'uses' relationships from an element. Returns dependency chains up to the specified depth.",
	}, svc.TraceDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_processes",
		Description: "List the business processes parsed from the flow files, optionally only those involving an element.",
	}, svc.ListProcesses)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Count the elements by kind, the relationships and the processes of the model.",
	}, svc.GetStats)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP at addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
