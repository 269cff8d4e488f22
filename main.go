package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ThomAub/clickhouse-mcp-server/catalog"
	"github.com/ThomAub/clickhouse-mcp-server/config"
	"github.com/ThomAub/clickhouse-mcp-server/databases"
	clickhousedb "github.com/ThomAub/clickhouse-mcp-server/databases/clickhouse"
	"github.com/ThomAub/clickhouse-mcp-server/handlers"
	chmcp "github.com/ThomAub/clickhouse-mcp-server/mcp"
)

func main() {
	configPath := flag.String("config", "", "path to optional config file")
	flag.Parse()

	// stdout carries the stdio transport; everything we log goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fileCfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Error("config error", "error", err)
		os.Exit(1)
	}

	// One fresh connection per MCP call. Parameters are re-resolved from
	// the config file, environment and defaults on every call.
	open := func(ctx context.Context) (databases.Connector, error) {
		return clickhousedb.Open(config.Resolve(fileCfg.ClickHouse)), nil
	}

	resolver := catalog.NewResolver(open, log)
	gateway := handlers.NewGateway(open, log)
	resources := handlers.NewResources(resolver)

	// Connectivity check at startup; non-fatal since the server may come
	// up before ClickHouse does.
	if conn, err := open(context.Background()); err == nil {
		if err := conn.Ping(context.Background()); err != nil {
			log.Warn("clickhouse not reachable", "addr", config.Resolve(fileCfg.ClickHouse).Addr(), "error", err)
		} else {
			log.Info("connected to clickhouse", "addr", config.Resolve(fileCfg.ClickHouse).Addr())
		}
		conn.Close()
	}

	s := chmcp.NewServer(gateway, resources, log)

	log.Info("starting clickhouse MCP server")
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
