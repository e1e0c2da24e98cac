package cli

import "github.com/spf13/cobra"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default command)",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
