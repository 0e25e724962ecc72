// ABOUTME: Id command for locating Zotero library identifiers
// ABOUTME: Prints guidance and optionally verifies an API key against the live API
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/zotero-mcp/internal/zotero"
)

var (
	idAPIKey  string
	idAPIBase string
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Find your Zotero user or group ID",
	Long: `Explain where to find the numeric Zotero library identifiers zotero-mcp needs,
and optionally verify an API key against the live API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bold := color.New(color.Bold)
		out := cmd.OutOrStdout()

		bold.Fprintln(out, "Finding your Zotero IDs")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "User ID (personal library):")
		fmt.Fprintln(out, "  Your user ID is numeric, not your username. Log in at")
		fmt.Fprintln(out, "  https://www.zotero.org/settings/keys - the page shows")
		fmt.Fprintln(out, "  \"Your userID for use in API calls is NNNNNN\".")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Group ID (shared library):")
		fmt.Fprintln(out, "  Open your group page and look at the URL:")
		fmt.Fprintln(out, "  https://www.zotero.org/groups/GROUPID")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Set ZOTERO_USER_ID or ZOTERO_GROUP_ID (not both), plus ZOTERO_API_KEY.")

		key := idAPIKey
		if key == "" {
			key = os.Getenv("ZOTERO_API_KEY")
		}
		if key == "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Pass --key (or set ZOTERO_API_KEY) to verify a key now.")
			return nil
		}

		fmt.Fprintln(out)
		info, err := zotero.VerifyKey(cmd.Context(), idAPIBase, key)
		if err != nil {
			color.New(color.FgRed).Fprintf(out, "Key check failed: %v\n", err)
			return fmt.Errorf("API key verification failed")
		}

		color.New(color.FgGreen).Fprintln(out, "API key is valid.")
		fmt.Fprintf(out, "  Username: %s\n", info.Username)
		fmt.Fprintf(out, "  User ID:  %d\n", info.UserID)
		return nil
	},
}

func init() {
	idCmd.Flags().StringVar(&idAPIKey, "key", "", "API key to verify")
	idCmd.Flags().StringVar(&idAPIBase, "api-base", zotero.DefaultBaseURL, "Zotero API base URL")
	rootCmd.AddCommand(idCmd)
}
