package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ThomAub/clickhouse-mcp-server/catalog"
)

const resourceMIMEType = "text/plain"

// Resources bridges the catalog resolver to the MCP resource types.
type Resources struct {
	resolver *catalog.Resolver
}

func NewResources(resolver *catalog.Resolver) *Resources {
	return &Resources{resolver: resolver}
}

// List enumerates the live catalog as MCP resources.
func (r *Resources) List(ctx context.Context) ([]mcp.Resource, error) {
	descriptors, err := r.resolver.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	resources := make([]mcp.Resource, len(descriptors))
	for i, d := range descriptors {
		resources[i] = mcp.NewResource(d.URI, d.Name,
			mcp.WithResourceDescription(d.Description),
			mcp.WithMIMEType(resourceMIMEType),
		)
	}
	return resources, nil
}

// ReadHandler serves resources/read for both URI shapes. It returns the
// plain function signature so one handler converts to both
// server.ResourceHandlerFunc and server.ResourceTemplateHandlerFunc at
// the registration sites.
func (r *Resources) ReadHandler() func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := r.resolver.ReadResource(ctx, request.Params.URI)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: resourceMIMEType,
				Text:     text,
			},
		}, nil
	}
}
