// ABOUTME: Logger construction for the server
// ABOUTME: Structured logging to stderr so stdout stays free for the protocol
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New builds a stderr logger at the given level. Unknown level strings fall
// back to info rather than failing startup.
func New(level string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.ParseLevel(level),
		ReportTimestamp: true,
		Prefix:          "zotero-mcp",
	})
}
