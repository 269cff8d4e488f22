package databases

import (
	"context"

	"github.com/ThomAub/clickhouse-mcp-server/types"
)

// Connector is the backing-store capability: catalog metadata reads plus
// one free-form query entry point. An implementation holds a single
// connection that lives for exactly one server call.
type Connector interface {
	Ping(ctx context.Context) error
	// ListDatabases returns all database names except the server's own
	// system and information-schema databases, in server order.
	ListDatabases(ctx context.Context) ([]string, error)
	// ListTables returns the table names of one database. An unknown
	// database surfaces as the server's own error, unmodified.
	ListTables(ctx context.Context, database string) ([]string, error)
	// DescribeTable returns the columns of one table in server order. An
	// unknown table surfaces as the server's own error, unmodified.
	DescribeTable(ctx context.Context, database, table string) ([]types.Column, error)
	// Query executes sql verbatim and returns the tabular result.
	Query(ctx context.Context, sql string) (*types.QueryResult, error)
	Close() error
}

// Factory opens a fresh Connector for one call. Connection parameters are
// resolved inside the factory, so configuration changes apply to the next
// call with no shared state between calls.
type Factory func(ctx context.Context) (Connector, error)
