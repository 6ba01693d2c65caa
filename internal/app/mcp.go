package app

import (
	"os"

	"github.com/blackwell-systems/impactlog/internal/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server for AI assistants",
	Long: `Start a Model Context Protocol stdio server so an assistant can log
sessions and read reviews during a conversation. The server exposes:

  list_metrics     Metric catalog with levels and bonus rules
  create_session   Log a session and schedule its checks
  update_check     Record a check outcome
  list_sessions    Recent scored sessions
  due_checks       Checks waiting for an outcome
  weekly_review    Weekly summary with advice (optionally saved)
  next_steps       Actions that move work up one level

Add to your MCP client configuration:
  {"mcpServers":{"impactlog":{"command":"impactlog","args":["mcp"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	log.Debug().Str("version", appVersion).Msg("mcp server starting")
	srv := mcp.NewServer(tr, appVersion)
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}
