// ABOUTME: MCP prompt definitions for zotero-mcp
// ABOUTME: Provides static context to AI assistants about the Zotero tools
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts adds static prompts to the MCP server.
func (s *Server) registerPrompts() {
	prompt := &mcp.Prompt{
		Name:        "zotero-getting-started",
		Description: "Introduction to the Zotero library tools and how AI assistants should use them",
	}

	handler := func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		content := `This server connects you to the user's Zotero reference library.

When to use these tools:
- User asks about papers, books, or sources they have collected
- User needs a citation or bibliography in a specific style (apa, mla, chicago, ...)
- User wants to save a new reference they found
- User asks what's in a particular collection

Typical workflows:
- Finding sources: search_items with a query, then read zotero://items/{key} for full details
- Citing: get_citation for one item, get_bibliography for several
- Saving: get_item_types and get_item_fields to pick the right shape, then add_item
- Browsing: read zotero://collections, then zotero://collections/{key}/items

Item keys are opaque 8-character identifiers assigned by Zotero. Always use
keys returned by search or resources rather than guessing them.`

		result := &mcp.GetPromptResult{
			Description: "Getting started with the Zotero library tools",
			Messages: []*mcp.PromptMessage{
				{
					Role: "user",
					Content: &mcp.TextContent{
						Text: content,
					},
				},
			},
		}

		return result, nil
	}

	s.mcpServer.AddPrompt(prompt, handler)
}
