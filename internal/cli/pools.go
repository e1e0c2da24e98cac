package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/scriptforge/internal/engine/pool"
	redisclient "github.com/vietddude/scriptforge/internal/infra/redis"
)

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "Show credential pools and the active pool",
	Run:   runPools,
}

var resetPoolCmd = &cobra.Command{
	Use:   "reset-pool [index]",
	Short: "Set the pool the next dispatch starts from",
	Args:  cobra.ExactArgs(1),
	Run:   runResetPool,
}

func init() {
	rootCmd.AddCommand(poolsCmd, resetPoolCmd)
}

func runPools(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	active := cfg.Engine.ActivePool
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = rc.Close()
		}()
		if idx, ok, err := rc.LoadPoolIndex(context.Background()); err == nil && ok {
			active = idx
		}
	}

	pools := pool.Describe(cfg.Engine.Credentials)
	if len(pools) > 0 {
		active = pool.Normalize(active, len(pools))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "POOL\tKEYS\tACTIVE\tCREDENTIALS")
	for _, p := range pools {
		mark := ""
		if p.Index == active {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", p.Index+1, p.Size, mark, strings.Join(p.Keys, ", "))
	}
	_ = w.Flush()

	fmt.Printf("\nHeavy models: %s\nLight models: %s\n",
		strings.Join(cfg.Engine.Models.Heavy, " -> "),
		strings.Join(cfg.Engine.Models.Light, " -> "))
}

func runResetPool(cmd *cobra.Command, args []string) {
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 {
		fmt.Printf("Invalid pool index %q (pools are numbered from 1)\n", args[0])
		os.Exit(1)
	}

	cfg := loadConfig()
	if cfg.Redis.URL == "" {
		slog.Error("reset-pool needs redis.url; without it the active pool lives only in the server process")
		os.Exit(1)
	}

	rc, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rc.Close()
	}()

	if err := rc.SavePoolIndex(context.Background(), idx-1); err != nil {
		slog.Error("Failed to reset pool", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Next dispatch starts from pool %d\n", idx)
}
