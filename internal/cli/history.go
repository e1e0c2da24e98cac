package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved content sessions",
	Run:   runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [session_id]",
	Short: "Print a saved session",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [session_id]",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryDelete,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of sessions to list")
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	app := newApp(ctx, cfg)
	defer app.Close()

	sessions, err := app.Sessions().List(ctx, historyLimit)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tTITLE")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Title)
	}
	_ = w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	app := newApp(ctx, cfg)
	defer app.Close()

	session, err := app.Sessions().Get(ctx, args[0])
	if err != nil {
		slog.Error("Failed to load session", "id", args[0], "error", err)
		os.Exit(1)
	}
	printJSON(session)
}

func runHistoryDelete(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	app := newApp(ctx, cfg)
	defer app.Close()

	if err := app.Sessions().Delete(ctx, args[0]); err != nil {
		slog.Error("Failed to delete session", "id", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted session %s\n", args[0])
}
