// ABOUTME: Serve command for running the Zotero MCP server
// ABOUTME: Handles configuration loading and stdio server lifecycle
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/zotero-mcp/internal/config"
	"github.com/harper/zotero-mcp/internal/logging"
	"github.com/harper/zotero-mcp/internal/mcp"
	"github.com/harper/zotero-mcp/internal/zotero"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Zotero MCP server",
	Long:  `Start the Model Context Protocol server for AI assistants to interact with a Zotero library over stdio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := logging.New(cfg.LogLevel)

		client := zotero.NewClient(cfg.APIKey, cfg.LibraryType(), cfg.LibraryID(), &zotero.Options{
			BaseURL: cfg.APIBase,
			Logger:  logger,
		})

		logger.Info("starting zotero mcp server",
			"library", cfg.LibraryType()+"/"+cfg.LibraryID())

		server := mcp.NewServer(client, logger)
		return server.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
