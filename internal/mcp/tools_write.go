// ABOUTME: Write-side MCP tools for zotero-mcp
// ABOUTME: Item creation, update, deletion, and collection creation
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Creator is one author/editor/etc entry on an item.
type Creator struct {
	CreatorType string `json:"creatorType" jsonschema:"Role such as author, editor, translator"`
	FirstName   string `json:"firstName,omitempty" jsonschema:"Given name"`
	LastName    string `json:"lastName,omitempty" jsonschema:"Family name"`
	Name        string `json:"name,omitempty" jsonschema:"Single-field name for institutional creators"`
}

// AddItemInput defines the input for the add_item tool.
type AddItemInput struct {
	ItemType         string         `json:"item_type" jsonschema:"Item type such as journalArticle, book, webpage"`
	Title            string         `json:"title" jsonschema:"Item title"`
	Creators         []Creator      `json:"creators,omitempty" jsonschema:"Creators of the item"`
	CollectionKey    string         `json:"collection_key,omitempty" jsonschema:"Optional collection to file the new item into"`
	AdditionalFields map[string]any `json:"additional_fields,omitempty" jsonschema:"Additional item fields such as date, url, publisher"`
}

// AddItemOutput defines the output for the add_item tool.
type AddItemOutput struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Version int    `json:"version,omitempty"`
}

// CreateCollectionInput defines the input for the create_collection tool.
type CreateCollectionInput struct {
	Name      string `json:"name" jsonschema:"Name of the new collection"`
	ParentKey string `json:"parent_key,omitempty" jsonschema:"Optional parent collection key for nesting"`
}

// CreateCollectionOutput defines the output for the create_collection tool.
type CreateCollectionOutput struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// UpdateItemInput defines the input for the update_item tool.
type UpdateItemInput struct {
	ItemKey string         `json:"item_key" jsonschema:"The Zotero item key to update"`
	Updates map[string]any `json:"updates" jsonschema:"Fields to change, e.g. {\"title\": \"New Title\"}"`
}

// UpdateItemOutput defines the output for the update_item tool.
type UpdateItemOutput struct {
	ItemKey string `json:"item_key"`
	Updated bool   `json:"updated"`
}

// DeleteItemInput defines the input for the delete_item tool.
type DeleteItemInput struct {
	ItemKey string `json:"item_key" jsonschema:"The Zotero item key to delete"`
}

// DeleteItemOutput defines the output for the delete_item tool.
type DeleteItemOutput struct {
	ItemKey string `json:"item_key"`
	Deleted bool   `json:"deleted"`
}

func (s *Server) registerWriteTools() {
	addItemTool := &mcp.Tool{
		Name:        "add_item",
		Description: "Add a new item to the Zotero library. Fetches the field template for the item type, fills it in, and creates the item upstream.",
		InputSchema: toolSchema[AddItemInput](),
	}
	mcp.AddTool(s.mcpServer, addItemTool, s.handleAddItem)

	createCollectionTool := &mcp.Tool{
		Name:        "create_collection",
		Description: "Create a new collection in the Zotero library, optionally nested under a parent collection.",
		InputSchema: toolSchema[CreateCollectionInput](),
	}
	mcp.AddTool(s.mcpServer, createCollectionTool, s.handleCreateCollection)

	updateItemTool := &mcp.Tool{
		Name:        "update_item",
		Description: "Update fields of an existing item in the Zotero library.",
		InputSchema: toolSchema[UpdateItemInput](),
	}
	mcp.AddTool(s.mcpServer, updateItemTool, s.handleUpdateItem)

	deleteItemTool := &mcp.Tool{
		Name:        "delete_item",
		Description: "Delete an item from the Zotero library.",
		InputSchema: toolSchema[DeleteItemInput](),
	}
	mcp.AddTool(s.mcpServer, deleteItemTool, s.handleDeleteItem)
}

// handleAddItem implements the add_item tool.
func (s *Server) handleAddItem(ctx context.Context, req *mcp.CallToolRequest, input AddItemInput) (*mcp.CallToolResult, AddItemOutput, error) {
	if input.ItemType == "" {
		return nil, AddItemOutput{}, fmt.Errorf("item_type is required")
	}
	if input.Title == "" {
		return nil, AddItemOutput{}, fmt.Errorf("title is required")
	}

	template, err := s.client.ItemTemplate(ctx, input.ItemType)
	if err != nil {
		return nil, AddItemOutput{}, fmt.Errorf("failed to fetch template for %s: %w", input.ItemType, err)
	}

	template["title"] = input.Title
	if len(input.Creators) > 0 {
		creators := make([]map[string]any, len(input.Creators))
		for i, c := range input.Creators {
			creator := map[string]any{"creatorType": c.CreatorType}
			if c.Name != "" {
				creator["name"] = c.Name
			} else {
				creator["firstName"] = c.FirstName
				creator["lastName"] = c.LastName
			}
			creators[i] = creator
		}
		template["creators"] = creators
	}
	for key, value := range input.AdditionalFields {
		template[key] = value
	}

	resp, err := s.client.CreateItems(ctx, []map[string]any{template})
	if err != nil {
		return nil, AddItemOutput{}, fmt.Errorf("failed to create item: %w", err)
	}
	if writeErr := resp.FirstError(); writeErr != nil {
		return nil, AddItemOutput{}, fmt.Errorf("zotero rejected the item: %w", writeErr)
	}

	key := resp.FirstKey()
	if key == "" {
		return nil, AddItemOutput{}, fmt.Errorf("zotero reported no created item")
	}

	if input.CollectionKey != "" {
		if err := s.client.AddToCollection(ctx, input.CollectionKey, []string{key}); err != nil {
			return nil, AddItemOutput{}, fmt.Errorf("item %s created but filing into collection failed: %w", key, err)
		}
	}

	output := AddItemOutput{Key: key, Title: input.Title, Version: resp.FirstVersion()}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Item created successfully (key: %s)", key),
			},
		},
	}

	return result, output, nil
}

// handleCreateCollection implements the create_collection tool.
func (s *Server) handleCreateCollection(ctx context.Context, req *mcp.CallToolRequest, input CreateCollectionInput) (*mcp.CallToolResult, CreateCollectionOutput, error) {
	if input.Name == "" {
		return nil, CreateCollectionOutput{}, fmt.Errorf("name is required")
	}

	resp, err := s.client.CreateCollection(ctx, input.Name, input.ParentKey)
	if err != nil {
		return nil, CreateCollectionOutput{}, fmt.Errorf("failed to create collection: %w", err)
	}
	if writeErr := resp.FirstError(); writeErr != nil {
		return nil, CreateCollectionOutput{}, fmt.Errorf("zotero rejected the collection: %w", writeErr)
	}

	key := resp.FirstKey()
	output := CreateCollectionOutput{Key: key, Name: input.Name}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Collection %q created (key: %s)", input.Name, key),
			},
		},
	}

	return result, output, nil
}

// handleUpdateItem implements the update_item tool.
func (s *Server) handleUpdateItem(ctx context.Context, req *mcp.CallToolRequest, input UpdateItemInput) (*mcp.CallToolResult, UpdateItemOutput, error) {
	if input.ItemKey == "" {
		return nil, UpdateItemOutput{}, fmt.Errorf("item_key is required")
	}
	if len(input.Updates) == 0 {
		return nil, UpdateItemOutput{}, fmt.Errorf("updates is required")
	}

	// The current version is the write precondition
	item, err := s.client.Item(ctx, input.ItemKey)
	if err != nil {
		return nil, UpdateItemOutput{}, fmt.Errorf("failed to fetch item %s: %w", input.ItemKey, err)
	}

	if err := s.client.UpdateItem(ctx, input.ItemKey, input.Updates, item.Version); err != nil {
		return nil, UpdateItemOutput{}, fmt.Errorf("failed to update item %s: %w", input.ItemKey, err)
	}

	output := UpdateItemOutput{ItemKey: input.ItemKey, Updated: true}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Item %s updated", input.ItemKey),
			},
		},
	}

	return result, output, nil
}

// handleDeleteItem implements the delete_item tool.
func (s *Server) handleDeleteItem(ctx context.Context, req *mcp.CallToolRequest, input DeleteItemInput) (*mcp.CallToolResult, DeleteItemOutput, error) {
	if input.ItemKey == "" {
		return nil, DeleteItemOutput{}, fmt.Errorf("item_key is required")
	}

	item, err := s.client.Item(ctx, input.ItemKey)
	if err != nil {
		return nil, DeleteItemOutput{}, fmt.Errorf("failed to fetch item %s: %w", input.ItemKey, err)
	}

	if err := s.client.DeleteItem(ctx, input.ItemKey, item.Version); err != nil {
		return nil, DeleteItemOutput{}, fmt.Errorf("failed to delete item %s: %w", input.ItemKey, err)
	}

	output := DeleteItemOutput{ItemKey: input.ItemKey, Deleted: true}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Item %s deleted", input.ItemKey),
			},
		},
	}

	return result, output, nil
}
