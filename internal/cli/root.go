// ABOUTME: Root command definition and CLI setup
// ABOUTME: Handles command initialization and the serve default
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zotero-mcp",
	Short: "Zotero MCP server",
	Long:  `zotero-mcp exposes a Zotero reference library as Model Context Protocol tools and resources over stdio.`,
}

func Execute() error {
	// MCP clients typically exec the binary with no arguments
	if len(os.Args) <= 1 {
		os.Args = append(os.Args, "serve")
	}
	return rootCmd.Execute()
}
