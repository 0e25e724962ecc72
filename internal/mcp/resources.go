// ABOUTME: MCP resource implementations for zotero-mcp
// ABOUTME: Read-only views over the Zotero library, static and URI-templated
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harper/zotero-mcp/internal/zotero"
)

const (
	topItemsLimit    = 50
	recentItemsLimit = 20
)

// registerResources adds all MCP resources to the server.
func (s *Server) registerResources() {
	collectionsResource := &mcp.Resource{
		URI:         "zotero://collections",
		Name:        "Collections",
		Description: "All collections in the Zotero library",
		MIMEType:    "application/json",
	}
	s.mcpServer.AddResource(collectionsResource, s.handleCollectionsResource)

	topItemsResource := &mcp.Resource{
		URI:         "zotero://items/top",
		Name:        "Top Items",
		Description: "Top-level items in the Zotero library",
		MIMEType:    "application/json",
	}
	s.mcpServer.AddResource(topItemsResource, s.handleTopItemsResource)

	recentItemsResource := &mcp.Resource{
		URI:         "zotero://items/recent",
		Name:        "Recent Items",
		Description: "Recently added or modified items in the Zotero library",
		MIMEType:    "application/json",
	}
	s.mcpServer.AddResource(recentItemsResource, s.handleRecentItemsResource)

	collectionItemsTemplate := &mcp.ResourceTemplate{
		URITemplate: "zotero://collections/{collection_key}/items",
		Name:        "Collection Items",
		Description: "Items in a specific Zotero collection",
		MIMEType:    "application/json",
	}
	s.mcpServer.AddResourceTemplate(collectionItemsTemplate, s.handleCollectionItemsResource)

	itemTemplate := &mcp.ResourceTemplate{
		URITemplate: "zotero://items/{item_key}",
		Name:        "Item",
		Description: "Details of a specific Zotero item",
		MIMEType:    "application/json",
	}
	s.mcpServer.AddResourceTemplate(itemTemplate, s.handleItemResource)

	citationTemplate := &mcp.ResourceTemplate{
		URITemplate: "zotero://items/{item_key}/citation/{style}",
		Name:        "Item Citation",
		Description: "Citation for a specific Zotero item in a specific style",
		MIMEType:    "text/plain",
	}
	s.mcpServer.AddResourceTemplate(citationTemplate, s.handleItemCitationResource)
}

// resourceSegments splits a zotero:// URI into its path segments.
func resourceSegments(uri string) ([]string, error) {
	rest, ok := strings.CutPrefix(uri, "zotero://")
	if !ok {
		return nil, fmt.Errorf("unsupported resource URI %q", uri)
	}
	segments := strings.Split(rest, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("malformed resource URI %q", uri)
		}
	}
	return segments, nil
}

// jsonResource marshals v and wraps it as a JSON resource result.
func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

// handleCollectionsResource implements zotero://collections.
func (s *Server) handleCollectionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	collections, err := s.client.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return jsonResource(req.Params.URI, collections)
}

// handleTopItemsResource implements zotero://items/top.
func (s *Server) handleTopItemsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	items, err := s.client.TopItems(ctx, zotero.SearchOptions{Limit: topItemsLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list top items: %w", err)
	}
	return jsonResource(req.Params.URI, items)
}

// handleRecentItemsResource implements zotero://items/recent.
func (s *Server) handleRecentItemsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	opts := zotero.SearchOptions{
		Limit:     recentItemsLimit,
		Sort:      "dateModified",
		Direction: "desc",
	}
	items, err := s.client.Items(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent items: %w", err)
	}
	return jsonResource(req.Params.URI, items)
}

// handleCollectionItemsResource implements zotero://collections/{key}/items.
func (s *Server) handleCollectionItemsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	segments, err := resourceSegments(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if len(segments) != 3 || segments[0] != "collections" || segments[2] != "items" {
		return nil, fmt.Errorf("malformed collection items URI %q", req.Params.URI)
	}

	items, err := s.client.CollectionItems(ctx, segments[1])
	if err != nil {
		return nil, fmt.Errorf("failed to list collection items: %w", err)
	}
	return jsonResource(req.Params.URI, items)
}

// handleItemResource implements zotero://items/{key}.
func (s *Server) handleItemResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	segments, err := resourceSegments(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if len(segments) != 2 || segments[0] != "items" {
		return nil, fmt.Errorf("malformed item URI %q", req.Params.URI)
	}

	item, err := s.client.Item(ctx, segments[1])
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", segments[1], err)
	}
	return jsonResource(req.Params.URI, item)
}

// handleItemCitationResource implements zotero://items/{key}/citation/{style}.
func (s *Server) handleItemCitationResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	segments, err := resourceSegments(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if len(segments) != 4 || segments[0] != "items" || segments[2] != "citation" {
		return nil, fmt.Errorf("malformed citation URI %q", req.Params.URI)
	}
	itemKey, style := segments[1], segments[3]

	citation, err := s.client.Citation(ctx, itemKey, style)
	if err != nil {
		return nil, fmt.Errorf("failed to get citation for %s: %w", itemKey, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     citation,
			},
		},
	}, nil
}
