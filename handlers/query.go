package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ThomAub/clickhouse-mcp-server/databases"
	"github.com/ThomAub/clickhouse-mcp-server/types"
)

// ToolName is the single tool exposed by the server.
const ToolName = "execute_select_query"

const rejectionText = "Error: Only SELECT queries are allowed."

// Outcome tags how a query request was resolved. Every outcome renders as
// a successful tool result at the protocol boundary; the tag keeps
// rejection, store failure and success distinguishable in-process.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeRejected marks a query that failed the read-only gate.
	OutcomeRejected
	// OutcomeFailed marks a store-side execution failure.
	OutcomeFailed
)

// QueryResponse is the gateway's answer to one query request.
type QueryResponse struct {
	Outcome Outcome
	Text    string
}

// Gateway validates and executes SELECT queries against ClickHouse. Like
// the catalog resolver it is stateless; each Execute opens and closes its
// own connection.
type Gateway struct {
	open databases.Factory
	log  *slog.Logger
}

func NewGateway(open databases.Factory, log *slog.Logger) *Gateway {
	return &Gateway{open: open, log: log}
}

// QueryTool declares the execute_select_query tool.
func QueryTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Execute a SELECT query on the ClickHouse server"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SELECT query to execute"),
		),
	)
}

// Execute runs one query through the read-only gate and, if it passes,
// against the server. Gate rejections and execution failures both come
// back as text so a bad query never aborts the caller's session.
func (g *Gateway) Execute(ctx context.Context, query string) QueryResponse {
	if !isSelect(query) {
		return QueryResponse{Outcome: OutcomeRejected, Text: rejectionText}
	}

	conn, err := g.open(ctx)
	if err != nil {
		return g.failed(query, err)
	}
	defer conn.Close()

	result, err := conn.Query(ctx, query)
	if err != nil {
		return g.failed(query, err)
	}

	return QueryResponse{Outcome: OutcomeOK, Text: render(result)}
}

func (g *Gateway) failed(query string, err error) QueryResponse {
	g.log.Error("executing query", "query", query, "error", err)
	return QueryResponse{Outcome: OutcomeFailed, Text: "Error: executing query: " + err.Error()}
}

// Handler adapts the gateway to the MCP tool calling convention. Unknown
// tool names never reach it (the server routes by name); a missing or
// empty query argument is a protocol-level error.
func (g *Gateway) Handler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return nil, fmt.Errorf("query is required: %w", err)
		}
		if query == "" {
			return nil, fmt.Errorf("query is required")
		}

		return mcp.NewToolResultText(g.Execute(ctx, query).Text), nil
	}
}

// isSelect is a textual prefix check, not a parser. Comment-prefixed or
// multi-statement payloads are left to the server's own privilege model.
func isSelect(query string) bool {
	trimmed := strings.TrimSpace(query)
	const keyword = "SELECT"
	return len(trimmed) >= len(keyword) && strings.EqualFold(trimmed[:len(keyword)], keyword)
}

// render serializes a result as tab-separated lines, column names first,
// rows in server order.
func render(result *types.QueryResult) string {
	lines := make([]string, 0, len(result.Rows)+1)
	lines = append(lines, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n")
}
