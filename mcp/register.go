package mcp

import (
	"context"
	"log/slog"

	goMCP "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ThomAub/clickhouse-mcp-server/handlers"
)

const (
	ServerName    = "clickhouse-mcp-server"
	ServerVersion = "0.1.0"
)

// NewServer assembles the MCP server: the execute_select_query tool plus
// the two resource URI shapes. Resource templates answer resources/read
// for any URI matching a shape; a list hook re-enumerates the live
// catalog before each resources/list so the listing is never stale.
func NewServer(gateway *handlers.Gateway, resources *handlers.Resources, log *slog.Logger) *server.MCPServer {
	var s *server.MCPServer
	read := resources.ReadHandler()

	hooks := &server.Hooks{
		OnBeforeListResources: []server.OnBeforeListResourcesFunc{
			// Upsert only: a database or table dropped from ClickHouse keeps
			// its registry entry until restart, though reading it returns the
			// server's own unknown-database/table error.
			func(ctx context.Context, id any, message *goMCP.ListResourcesRequest) {
				listed, err := resources.List(ctx)
				if err != nil {
					log.Error("listing resources", "error", err)
					return
				}
				for _, resource := range listed {
					s.AddResource(resource, read)
				}
			},
		},
	}

	s = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
		server.WithHooks(hooks),
	)

	s.AddTool(handlers.QueryTool(), gateway.Handler())

	s.AddResourceTemplate(goMCP.NewResourceTemplate(
		"clickhouse://{database}/tables",
		"Database tables",
		goMCP.WithTemplateDescription("Tables in a ClickHouse database"),
		goMCP.WithTemplateMIMEType("text/plain"),
	), read)
	s.AddResourceTemplate(goMCP.NewResourceTemplate(
		"clickhouse://{database}/{table}/schema",
		"Table schema",
		goMCP.WithTemplateDescription("Schema of a ClickHouse table"),
		goMCP.WithTemplateMIMEType("text/plain"),
	), read)

	return s
}
