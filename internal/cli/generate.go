package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/scriptforge/internal/content"
	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/engine/routing"
)

var (
	genProfile   string
	genAuto      bool
	genLanguage  string
	genWords     int
	genMarketing bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a full script and marketing package for a topic",
	Args:  cobra.MinimumNArgs(1),
	Run:   runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genProfile, "profile", "", "smart profile id (see 'profiles')")
	generateCmd.Flags().BoolVar(&genAuto, "auto-profile", false, "let the model pick a profile for the topic")
	generateCmd.Flags().StringVar(&genLanguage, "language", content.DefaultLanguage, "script language")
	generateCmd.Flags().IntVar(&genWords, "words", 1500, "target word count")
	generateCmd.Flags().BoolVar(&genMarketing, "marketing", true, "also generate metadata, shorts script and TikTok description")
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(profilesCmd)
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List smart profiles",
	Run:   runProfiles,
}

func runProfiles(cmd *cobra.Command, args []string) {
	for _, p := range content.SmartProfiles() {
		fmt.Printf("%-12s %s\n", p.ID, p.Name)
	}
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	topic := strings.Join(args, " ")

	ctx := context.Background()
	app := newApp(ctx, cfg)
	defer app.Close()
	defer stopOnSignal(app)()

	ctx, done := app.StopSwitch().Begin(ctx)
	defer done()

	profile := genProfile
	if genAuto && profile == "" {
		id, err := app.Content().DetectBestProfile(ctx, topic)
		if err != nil {
			exitOnDispatchError("Failed to detect profile", err)
		}
		profile = id
		slog.Info("Detected profile", "profile", profile)
	}

	inputs := domain.ContentInputs{
		InputType:             "topic",
		InputValue:            topic,
		Language:              genLanguage,
		WordCount:             genWords,
		IncludeMainScript:     true,
		IncludeMetadata:       genMarketing,
		IncludeShortsScript:   genMarketing,
		IncludeShortsMetadata: genMarketing,
		IncludeTiktokDesc:     genMarketing,
	}
	if profile != "" {
		var ok bool
		if inputs, ok = content.ApplyProfile(inputs, profile); !ok {
			slog.Error("Unknown profile", "profile", profile)
			os.Exit(1)
		}
	}

	outputs, err := app.Content().GenerateFullContent(ctx, inputs, func(msg string) {
		slog.Info(msg)
	})
	if err != nil {
		exitOnDispatchError("Generation failed", err)
	}

	session := content.NewSession(inputs, outputs)
	if err := app.Sessions().Save(context.Background(), session); err != nil {
		slog.Warn("Failed to save session", "error", err)
	} else {
		slog.Info("Session saved", "id", session.ID)
	}

	printJSON(outputs)
}

func exitOnDispatchError(msg string, err error) {
	switch routing.KindOf(err) {
	case routing.KindCancelled:
		slog.Warn("Operation stopped")
	case routing.KindExhausted:
		slog.Error(msg+": every credential pool is exhausted, try again later", "error", err)
	default:
		slog.Error(msg, "error", err)
	}
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("Failed to write output", "error", err)
		os.Exit(1)
	}
}
