package cli

import (
	"github.com/spf13/cobra"

	"github.com/jwulff/meetnotes/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the session history to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; logs stay in the file.
		rt, err := openEnv(nil)
		if err != nil {
			return err
		}
		defer rt.Close()

		return mcp.NewServer(rt.store, version, rt.logger.Named("mcp")).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
