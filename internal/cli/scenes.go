package cli

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/scriptforge/internal/content"
	"github.com/vietddude/scriptforge/internal/core/domain"
)

var (
	scenesStyle   string
	scenesSuggest bool
	scenesResume  string
)

var scenesCmd = &cobra.Command{
	Use:   "scenes [script-file]",
	Short: "Split a script into scenes and generate visual prompts",
	Long: `Reads a script (or stdin when the file is "-"), splits it into segments and
runs them through the unified scene call in batches. Use --resume with a
previous run's JSON output to retry only failed or unprocessed segments.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScenes,
}

func init() {
	scenesCmd.Flags().StringVar(&scenesStyle, "style", content.DefaultArtStyle, "art style for visual prompts")
	scenesCmd.Flags().BoolVar(&scenesSuggest, "suggest-style", false, "ask the model for an art style first")
	scenesCmd.Flags().StringVar(&scenesResume, "resume", "", "previous run output to resume")
	rootCmd.AddCommand(scenesCmd)
}

func runScenes(cmd *cobra.Command, args []string) {
	if len(args) == 0 && scenesResume == "" {
		slog.Error("A script file or --resume is required")
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx := context.Background()
	app := newApp(ctx, cfg)
	defer app.Close()
	defer stopOnSignal(app)()

	ctx, done := app.StopSwitch().Begin(ctx)
	defer done()

	progress := func(msg string) { slog.Info(msg) }

	var run content.SceneRun
	if scenesResume != "" {
		segments, err := readSegments(scenesResume)
		if err != nil {
			slog.Error("Failed to read previous run", "error", err)
			os.Exit(1)
		}
		run = app.Content().RetryFailed(ctx, segments, scenesStyle, progress)
	} else {
		script, err := readInput(args[0])
		if err != nil {
			slog.Error("Failed to read script", "error", err)
			os.Exit(1)
		}

		style := scenesStyle
		if scenesSuggest {
			if s, err := app.Content().SuggestArtStyle(ctx, script); err != nil {
				slog.Warn("Failed to suggest style, using default", "error", err)
			} else {
				style = s
				slog.Info("Suggested art style", "style", style)
			}
		}
		run = app.Content().ProcessScript(ctx, script, style, progress)
	}

	slog.Info("Scene run finished",
		"segments", len(run.Segments), "processed", run.Processed,
		"failed", run.Failed, "stopped", run.Stopped)
	printJSON(run)
	if !run.Complete() {
		os.Exit(2)
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func readSegments(path string) ([]domain.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var prev content.SceneRun
	if err := json.Unmarshal(data, &prev); err != nil {
		return nil, err
	}
	return prev.Segments, nil
}
