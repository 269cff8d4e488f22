package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThomAub/clickhouse-mcp-server/databases"
)

// Descriptor describes one listed resource.
type Descriptor struct {
	URI         string
	Name        string
	Description string
}

// Resolver flattens the ClickHouse object hierarchy into resource
// descriptors and resolves URIs back into metadata reads. It keeps no
// state between calls: every call opens its own connection and closes it
// before returning.
type Resolver struct {
	open databases.Factory
	log  *slog.Logger
}

func NewResolver(open databases.Factory, log *slog.Logger) *Resolver {
	return &Resolver{open: open, log: log}
}

// ListResources enumerates every non-system database and its tables: one
// table-list descriptor per database followed by one schema descriptor
// per table, in server order. The listing is all-or-nothing; any failure
// drops the whole result.
func (r *Resolver) ListResources(ctx context.Context) ([]Descriptor, error) {
	conn, err := r.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	defer conn.Close()

	names, err := conn.ListDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	var resources []Descriptor
	for _, database := range names {
		resources = append(resources, Descriptor{
			URI:         TableListURI(database),
			Name:        "Database: " + database,
			Description: "Tables in database: " + database,
		})

		tables, err := conn.ListTables(ctx, database)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables in %s: %w", database, err)
		}
		for _, table := range tables {
			resources = append(resources, Descriptor{
				URI:         SchemaURI(database, table),
				Name:        fmt.Sprintf("Table: %s.%s", database, table),
				Description: fmt.Sprintf("Schema of table: %s.%s", database, table),
			})
		}
	}

	return resources, nil
}

// ReadResource resolves a resource URI and returns its text body. A
// table-list resource renders as newline-joined table names; a schema
// resource renders one "{name} - {type}" line per column. Unknown
// database or table errors pass through from the server unmodified.
func (r *Resolver) ReadResource(ctx context.Context, uri string) (string, error) {
	ref, err := ParseURI(uri)
	if err != nil {
		return "", err
	}

	r.log.Debug("reading resource", "uri", uri)

	conn, err := r.open(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	defer conn.Close()

	switch ref.Kind {
	case KindTableSchema:
		columns, err := conn.DescribeTable(ctx, ref.Database, ref.Table)
		if err != nil {
			return "", err
		}
		lines := make([]string, len(columns))
		for i, column := range columns {
			lines[i] = column.Name + " - " + column.Type
		}
		return strings.Join(lines, "\n"), nil

	default: // KindTableList
		tables, err := conn.ListTables(ctx, ref.Database)
		if err != nil {
			return "", err
		}
		return strings.Join(tables, "\n"), nil
	}
}
