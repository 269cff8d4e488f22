package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomAub/clickhouse-mcp-server/catalog"
	"github.com/ThomAub/clickhouse-mcp-server/databases"
	"github.com/ThomAub/clickhouse-mcp-server/types"
)

type fakeConnector struct {
	result *types.QueryResult
	err    error

	gotSQL string
	closed bool
}

func (f *fakeConnector) Ping(ctx context.Context) error { return nil }

func (f *fakeConnector) ListDatabases(ctx context.Context) ([]string, error) {
	return []string{"default"}, nil
}

func (f *fakeConnector) ListTables(ctx context.Context, database string) ([]string, error) {
	return []string{"test_table"}, nil
}

func (f *fakeConnector) DescribeTable(ctx context.Context, database, table string) ([]types.Column, error) {
	return nil, errors.New("not supported by query fake")
}

func (f *fakeConnector) Query(ctx context.Context, sql string) (*types.QueryResult, error) {
	f.gotSQL = sql
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeConnector) Close() error {
	f.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func factoryFor(conn *fakeConnector) databases.Factory {
	return func(ctx context.Context) (databases.Connector, error) {
		return conn, nil
	}
}

func TestQueryTool(t *testing.T) {
	tool := QueryTool()

	assert.Equal(t, "execute_select_query", tool.Name)
	assert.Contains(t, tool.InputSchema.Properties, "query")
	assert.Equal(t, []string{"query"}, tool.InputSchema.Required)
}

func TestExecute_RejectsNonSelect(t *testing.T) {
	open := func(ctx context.Context) (databases.Connector, error) {
		t.Fatal("store contacted for a rejected query")
		return nil, nil
	}
	gateway := NewGateway(open, testLogger())

	for _, query := range []string{
		"INSERT INTO test_table (id) VALUES (1)",
		"DROP TABLE test_table",
		"  delete from test_table",
		"UPDATE test_table SET name = 'x'",
		"SHOW TABLES",
		"TRUNCATE TABLE test_table",
		"sel",
		"",
	} {
		t.Run(query, func(t *testing.T) {
			response := gateway.Execute(context.Background(), query)
			assert.Equal(t, OutcomeRejected, response.Outcome)
			assert.Equal(t, "Error: Only SELECT queries are allowed.", response.Text)
		})
	}
}

func TestExecute_Select(t *testing.T) {
	conn := &fakeConnector{
		result: &types.QueryResult{
			Columns: []string{"id", "name", "value"},
			Rows: [][]string{
				{"u1", "Test 1", "10"},
				{"u2", "Test 2", "20"},
			},
		},
	}
	gateway := NewGateway(factoryFor(conn), testLogger())

	response := gateway.Execute(context.Background(), "SELECT * FROM test_table ORDER BY value")
	assert.Equal(t, OutcomeOK, response.Outcome)
	assert.Equal(t, "id\tname\tvalue\nu1\tTest 1\t10\nu2\tTest 2\t20", response.Text)
	assert.Equal(t, "SELECT * FROM test_table ORDER BY value", conn.gotSQL)
	assert.True(t, conn.closed, "connection must be released at end of call")
}

func TestExecute_GateIsCaseAndSpaceInsensitive(t *testing.T) {
	conn := &fakeConnector{result: &types.QueryResult{Columns: []string{"1"}}}
	gateway := NewGateway(factoryFor(conn), testLogger())

	for _, query := range []string{"select 1", "  SeLeCt 1", "\n\tSELECT 1"} {
		response := gateway.Execute(context.Background(), query)
		assert.Equal(t, OutcomeOK, response.Outcome, "query %q should pass the gate", query)
	}
}

func TestExecute_StoreFailureSurfacesAsContent(t *testing.T) {
	conn := &fakeConnector{err: errors.New("code: 62, message: Syntax error")}
	gateway := NewGateway(factoryFor(conn), testLogger())

	response := gateway.Execute(context.Background(), "SELECT bogus FROM")
	assert.Equal(t, OutcomeFailed, response.Outcome)
	assert.Equal(t, "Error: executing query: code: 62, message: Syntax error", response.Text)
	assert.True(t, conn.closed)
}

func TestExecute_ConnectFailureSurfacesAsContent(t *testing.T) {
	open := func(ctx context.Context) (databases.Connector, error) {
		return nil, errors.New("connection refused")
	}
	gateway := NewGateway(open, testLogger())

	response := gateway.Execute(context.Background(), "SELECT 1")
	assert.Equal(t, OutcomeFailed, response.Outcome)
	assert.Equal(t, "Error: executing query: connection refused", response.Text)
}

func TestHandler_MissingQuery(t *testing.T) {
	gateway := NewGateway(factoryFor(&fakeConnector{}), testLogger())
	handler := gateway.Handler()

	request := mcp.CallToolRequest{}
	request.Params.Name = ToolName
	request.Params.Arguments = map[string]any{}

	_, err := handler(context.Background(), request)
	require.Error(t, err)

	request.Params.Arguments = map[string]any{"query": ""}
	_, err = handler(context.Background(), request)
	require.Error(t, err)
}

func TestHandler_RendersTextResult(t *testing.T) {
	conn := &fakeConnector{result: &types.QueryResult{Columns: []string{"id"}, Rows: [][]string{{"u1"}}}}
	gateway := NewGateway(factoryFor(conn), testLogger())
	handler := gateway.Handler()

	request := mcp.CallToolRequest{}
	request.Params.Name = ToolName
	request.Params.Arguments = map[string]any{"query": "SELECT id FROM test_table"}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "id\nu1", text.Text)
}

func TestHandler_RejectionIsSuccessfulResult(t *testing.T) {
	gateway := NewGateway(factoryFor(&fakeConnector{}), testLogger())
	handler := gateway.Handler()

	request := mcp.CallToolRequest{}
	request.Params.Name = ToolName
	request.Params.Arguments = map[string]any{"query": "DROP TABLE test_table"}

	result, err := handler(context.Background(), request)
	require.NoError(t, err, "policy rejection must not be a protocol failure")
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Error: Only SELECT queries are allowed.", text.Text)
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	var mu sync.Mutex
	var conns []*fakeConnector

	open := func(ctx context.Context) (databases.Connector, error) {
		conn := &fakeConnector{result: &types.QueryResult{Columns: []string{"1"}}}
		mu.Lock()
		conns = append(conns, conn)
		mu.Unlock()
		return conn, nil
	}

	gateway := NewGateway(open, testLogger())
	resolver := catalog.NewResolver(open, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			response := gateway.Execute(context.Background(), "SELECT 1")
			assert.Equal(t, OutcomeOK, response.Outcome)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := resolver.ListResources(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, conns, 16, "every call opens its own connection")
	for _, conn := range conns {
		assert.True(t, conn.closed)
	}
}
