package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/ThomAub/clickhouse-mcp-server/config"
	"github.com/ThomAub/clickhouse-mcp-server/types"
)

// Databases never exposed through the catalog. ClickHouse reports the
// information schema under both casings depending on version.
var systemDatabases = []string{"system", "information_schema", "INFORMATION_SCHEMA"}

type Connector struct {
	db *sqlx.DB
}

// Open connects to ClickHouse over its HTTP interface. The connection is
// lazy; the first query performs the actual round trip.
func Open(cfg config.Connection) *Connector {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Protocol: clickhouse.HTTP,
		Addr:     []string{cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
	})

	return &Connector{db: sqlx.NewDb(db, "clickhouse")}
}

func (c *Connector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Connector) ListDatabases(ctx context.Context) ([]string, error) {
	query, args, err := sqlx.In(
		"SELECT name FROM system.databases WHERE name NOT IN (?)",
		systemDatabases,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build database query: %w", err)
	}

	rows, err := c.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan database name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (c *Connector) ListTables(ctx context.Context, database string) ([]string, error) {
	rows, err := c.db.QueryxContext(ctx, "SHOW TABLES FROM "+quoteIdent(database))
	if err != nil {
		// Unknown-database errors pass through; the caller needs the
		// server's own diagnostic.
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, table)
	}

	return tables, rows.Err()
}

func (c *Connector) DescribeTable(ctx context.Context, database, table string) ([]types.Column, error) {
	target := quoteIdent(database) + "." + quoteIdent(table)
	rows, err := c.db.QueryxContext(ctx, "DESCRIBE TABLE "+target)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// DESCRIBE TABLE reports name and type first, followed by default,
	// comment, codec and TTL columns that vary by server version.
	var columns []types.Column
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan column description: %w", err)
		}
		if len(values) < 2 {
			return nil, fmt.Errorf("unexpected DESCRIBE TABLE row for %s", target)
		}
		columns = append(columns, types.Column{
			Name: formatValue(values[0]),
			Type: formatValue(values[1]),
		})
	}

	return columns, rows.Err()
}

func (c *Connector) Query(ctx context.Context, sqlQuery string) (*types.QueryResult, error) {
	rows, err := c.db.QueryxContext(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column names: %w", err)
	}

	result := &types.QueryResult{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Connector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// formatValue renders a scanned value as display text.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// quoteIdent backtick-quotes a ClickHouse identifier.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}
