// ABOUTME: Read-side MCP tools for zotero-mcp
// ABOUTME: Search, citation, bibliography, and schema lookup
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harper/zotero-mcp/internal/zotero"
)

const (
	defaultSearchLimit = 20
	defaultStyle       = "apa"
)

// SearchItemsInput defines the input for the search_items tool.
type SearchItemsInput struct {
	Query         string `json:"query" jsonschema:"Search query string"`
	CollectionKey string `json:"collection_key,omitempty" jsonschema:"Optional collection key to search within"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

// SearchItemsOutput defines the output for the search_items tool.
type SearchItemsOutput struct {
	Query   string        `json:"query"`
	Count   int           `json:"count"`
	Results []ItemSummary `json:"results"`
}

// ItemSummary is the compact item shape returned by search.
type ItemSummary struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Creators []string `json:"creators,omitempty"`
	ItemType string   `json:"item_type"`
	Date     string   `json:"date,omitempty"`
}

// GetCitationInput defines the input for the get_citation tool.
type GetCitationInput struct {
	ItemKey string `json:"item_key" jsonschema:"The Zotero item key"`
	Style   string `json:"style,omitempty" jsonschema:"Citation style such as apa, mla, chicago (default apa)"`
}

// GetCitationOutput defines the output for the get_citation tool.
type GetCitationOutput struct {
	ItemKey  string `json:"item_key"`
	Style    string `json:"style"`
	Citation string `json:"citation"`
}

// GetBibliographyInput defines the input for the get_bibliography tool.
type GetBibliographyInput struct {
	ItemKeys []string `json:"item_keys" jsonschema:"Zotero item keys to include"`
	Style    string   `json:"style,omitempty" jsonschema:"Citation style such as apa, mla, chicago (default apa)"`
}

// GetBibliographyOutput defines the output for the get_bibliography tool.
type GetBibliographyOutput struct {
	Style        string `json:"style"`
	Bibliography string `json:"bibliography"`
}

// GetItemTypesInput defines the (empty) input for the get_item_types tool.
type GetItemTypesInput struct{}

// GetItemTypesOutput defines the output for the get_item_types tool.
type GetItemTypesOutput struct {
	ItemTypes []zotero.ItemType `json:"item_types"`
	Count     int               `json:"count"`
}

// GetItemFieldsInput defines the input for the get_item_fields tool.
type GetItemFieldsInput struct {
	ItemType string `json:"item_type" jsonschema:"The item type to get fields for, e.g. journalArticle or book"`
}

// GetItemFieldsOutput defines the output for the get_item_fields tool.
type GetItemFieldsOutput struct {
	ItemType string             `json:"item_type"`
	Fields   []zotero.ItemField `json:"fields"`
}

// registerTools adds all MCP tools to the server.
func (s *Server) registerTools() {
	s.registerReadTools()
	s.registerWriteTools()
}

func (s *Server) registerReadTools() {
	searchTool := &mcp.Tool{
		Name:        "search_items",
		Description: "Search for items in the Zotero library by title, creator, or full text. Optionally scope the search to a single collection.",
		InputSchema: toolSchema[SearchItemsInput](),
	}
	mcp.AddTool(s.mcpServer, searchTool, s.handleSearchItems)

	citationTool := &mcp.Tool{
		Name:        "get_citation",
		Description: "Render a formatted citation for a single item in a given citation style.",
		InputSchema: toolSchema[GetCitationInput](),
	}
	mcp.AddTool(s.mcpServer, citationTool, s.handleGetCitation)

	bibliographyTool := &mcp.Tool{
		Name:        "get_bibliography",
		Description: "Render a formatted bibliography for a set of items in a given citation style.",
		InputSchema: toolSchema[GetBibliographyInput](),
	}
	mcp.AddTool(s.mcpServer, bibliographyTool, s.handleGetBibliography)

	itemTypesTool := &mcp.Tool{
		Name:        "get_item_types",
		Description: "List every item type the Zotero API supports.",
		InputSchema: toolSchema[GetItemTypesInput](),
	}
	mcp.AddTool(s.mcpServer, itemTypesTool, s.handleGetItemTypes)

	itemFieldsTool := &mcp.Tool{
		Name:        "get_item_fields",
		Description: "List the fields available for a specific item type.",
		InputSchema: toolSchema[GetItemFieldsInput](),
	}
	mcp.AddTool(s.mcpServer, itemFieldsTool, s.handleGetItemFields)
}

// handleSearchItems implements the search_items tool.
func (s *Server) handleSearchItems(ctx context.Context, req *mcp.CallToolRequest, input SearchItemsInput) (*mcp.CallToolResult, SearchItemsOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchItemsOutput{}, fmt.Errorf("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	opts := zotero.SearchOptions{Query: input.Query, Limit: limit}

	var items []zotero.Item
	var err error
	if input.CollectionKey != "" {
		items, err = s.client.CollectionTopItems(ctx, input.CollectionKey, opts)
	} else {
		items, err = s.client.Items(ctx, opts)
	}
	if err != nil {
		return nil, SearchItemsOutput{}, fmt.Errorf("search failed: %w", err)
	}

	output := SearchItemsOutput{
		Query:   input.Query,
		Count:   len(items),
		Results: summarizeItems(items),
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d items matching %q", len(items), input.Query),
			},
		},
	}

	return result, output, nil
}

// handleGetCitation implements the get_citation tool.
func (s *Server) handleGetCitation(ctx context.Context, req *mcp.CallToolRequest, input GetCitationInput) (*mcp.CallToolResult, GetCitationOutput, error) {
	if input.ItemKey == "" {
		return nil, GetCitationOutput{}, fmt.Errorf("item_key is required")
	}

	style := input.Style
	if style == "" {
		style = defaultStyle
	}

	citation, err := s.client.Citation(ctx, input.ItemKey, style)
	if err != nil {
		return nil, GetCitationOutput{}, fmt.Errorf("failed to get citation: %w", err)
	}

	output := GetCitationOutput{
		ItemKey:  input.ItemKey,
		Style:    style,
		Citation: citation,
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: citation},
		},
	}

	return result, output, nil
}

// handleGetBibliography implements the get_bibliography tool.
func (s *Server) handleGetBibliography(ctx context.Context, req *mcp.CallToolRequest, input GetBibliographyInput) (*mcp.CallToolResult, GetBibliographyOutput, error) {
	if len(input.ItemKeys) == 0 {
		return nil, GetBibliographyOutput{}, fmt.Errorf("item_keys is required")
	}

	style := input.Style
	if style == "" {
		style = defaultStyle
	}

	bibliography, err := s.client.Bibliography(ctx, input.ItemKeys, style)
	if err != nil {
		return nil, GetBibliographyOutput{}, fmt.Errorf("failed to get bibliography: %w", err)
	}

	output := GetBibliographyOutput{
		Style:        style,
		Bibliography: bibliography,
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: bibliography},
		},
	}

	return result, output, nil
}

// handleGetItemTypes implements the get_item_types tool.
func (s *Server) handleGetItemTypes(ctx context.Context, req *mcp.CallToolRequest, input GetItemTypesInput) (*mcp.CallToolResult, GetItemTypesOutput, error) {
	types, err := s.client.ItemTypes(ctx)
	if err != nil {
		return nil, GetItemTypesOutput{}, fmt.Errorf("failed to list item types: %w", err)
	}

	output := GetItemTypesOutput{ItemTypes: types, Count: len(types)}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Zotero supports %d item types", len(types))},
		},
	}

	return result, output, nil
}

// handleGetItemFields implements the get_item_fields tool.
func (s *Server) handleGetItemFields(ctx context.Context, req *mcp.CallToolRequest, input GetItemFieldsInput) (*mcp.CallToolResult, GetItemFieldsOutput, error) {
	if input.ItemType == "" {
		return nil, GetItemFieldsOutput{}, fmt.Errorf("item_type is required")
	}

	fields, err := s.client.ItemTypeFields(ctx, input.ItemType)
	if err != nil {
		return nil, GetItemFieldsOutput{}, fmt.Errorf("failed to list fields: %w", err)
	}

	output := GetItemFieldsOutput{ItemType: input.ItemType, Fields: fields}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%s has %d fields", input.ItemType, len(fields))},
		},
	}

	return result, output, nil
}

// summarizeItems reduces full API items to the compact search result shape.
func summarizeItems(items []zotero.Item) []ItemSummary {
	summaries := make([]ItemSummary, len(items))
	for i, item := range items {
		summary := ItemSummary{Key: item.Key}

		if title, ok := item.Data["title"].(string); ok {
			summary.Title = title
		}
		if itemType, ok := item.Data["itemType"].(string); ok {
			summary.ItemType = itemType
		}
		summary.Creators = creatorNames(item.Data["creators"])
		summary.Date = normalizeDate(item)

		summaries[i] = summary
	}
	return summaries
}

// creatorNames flattens the API's creator objects to display names.
func creatorNames(raw any) []string {
	creators, ok := raw.([]any)
	if !ok {
		return nil
	}

	var names []string
	for _, c := range creators {
		creator, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := creator["name"].(string); ok && name != "" {
			names = append(names, name)
			continue
		}
		first, _ := creator["firstName"].(string)
		last, _ := creator["lastName"].(string)
		full := strings.TrimSpace(first + " " + last)
		if full != "" {
			names = append(names, full)
		}
	}
	return names
}

// normalizeDate picks the best available date for an item and normalizes it
// to ISO form where parseable. Zotero date fields are free text.
func normalizeDate(item zotero.Item) string {
	raw := item.Meta.ParsedDate
	if raw == "" {
		raw, _ = item.Data["date"].(string)
	}
	if raw == "" {
		return ""
	}

	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return parsed.Format("2006-01-02")
}
