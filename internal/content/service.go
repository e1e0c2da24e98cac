// Package content implements the script and scene workflows on top of the
// dispatcher.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/engine/correct"
	"github.com/vietddude/scriptforge/internal/engine/recovery"
	"github.com/vietddude/scriptforge/internal/engine/routing"
	"github.com/vietddude/scriptforge/internal/prompt"
)

// Fallback values used when the model returns nothing usable.
const (
	DefaultLanguage = "Arabic"
	DefaultProfile  = "docu"
	DefaultArtStyle = "Cinematic, realistic, 8k"
	BatchPromptSFX  = "cinematic_ambience"

	languageSampleRunes = 500
	styleSampleRunes    = 1000
)

// Generator performs one request against the generative endpoint.
type Generator interface {
	Generate(ctx context.Context, apiKey, model, prompt string, jsonOutput bool) (string, error)
}

// ProgressFunc receives human-readable progress messages.
type ProgressFunc func(string)

// Service runs content workflows. Every model call goes through the dispatcher.
type Service struct {
	dispatcher *routing.Dispatcher
	gen        Generator
	prompts    *prompt.Registry
	corrector  *correct.Corrector
	log        *slog.Logger
}

// NewService creates a content service.
func NewService(dispatcher *routing.Dispatcher, gen Generator, prompts *prompt.Registry, log *slog.Logger) *Service {
	if prompts == nil {
		prompts = prompt.DefaultRegistry()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		dispatcher: dispatcher,
		gen:        gen,
		prompts:    prompts,
		corrector:  correct.New(correct.Arabic, log),
		log:        log,
	}
}

// text dispatches a plain-text call.
func (s *Service) text(
	ctx context.Context,
	category domain.TaskCategory,
	progress ProgressFunc,
	templateID string,
	vars prompt.Vars,
) (string, error) {
	p, err := s.prompts.Render(templateID, vars)
	if err != nil {
		return "", err
	}
	return routing.Execute(ctx, s.dispatcher, category, progress, func(ctx context.Context, t routing.Target) (string, error) {
		return s.gen.Generate(ctx, t.APIKey, t.Model, p, false)
	})
}

// structured dispatches a JSON call and recovers the response into T.
// Malformed output yields def; only transport failures reach the dispatcher.
func structured[T any](
	ctx context.Context,
	s *Service,
	category domain.TaskCategory,
	progress ProgressFunc,
	templateID string,
	vars prompt.Vars,
	def T,
	post func(T) T,
) (T, error) {
	p, err := s.prompts.Render(templateID, vars)
	if err != nil {
		return def, err
	}
	return routing.Execute(ctx, s.dispatcher, category, progress, func(ctx context.Context, t routing.Target) (T, error) {
		raw, err := s.gen.Generate(ctx, t.APIKey, t.Model, p, true)
		if err != nil {
			var zero T
			return zero, err
		}
		out := recovery.Decode(raw, def)
		if post != nil {
			out = post(out)
		}
		return out, nil
	})
}

// marketingPackage is the JSON shape of the marketing package call.
type marketingPackage struct {
	MetaTitle         string   `json:"metaTitle"`
	MetaDescription   string   `json:"metaDescription"`
	MetaKeywords      []string `json:"metaKeywords"`
	ShortsTitle       string   `json:"shortsTitle"`
	ShortsScript      string   `json:"shortsScript"`
	ShortsDescription string   `json:"shortsDescription"`
	ShortsKeywords    []string `json:"shortsKeywords"`
	TiktokDescription string   `json:"tiktokDescription"`
}

// GenerateFullContent writes the main script, then the marketing package if
// any of its parts were requested.
func (s *Service) GenerateFullContent(
	ctx context.Context,
	inputs domain.ContentInputs,
	progress ProgressFunc,
) (domain.ContentOutputs, error) {
	script, err := s.text(ctx, domain.TaskHeavy, progress, prompt.GenerateFullScript, prompt.Vars{
		"title":     inputs.InputValue,
		"wordCount": inputs.WordCount,
		"language":  inputs.Language,
		"tone":      inputs.Tone,
		"audience":  inputs.Audience,
		"format":    inputs.Format,
		"persona":   inputs.Persona,
		"style":     inputs.Style,
		"cta":       inputs.CTA,
	})
	if err != nil {
		return domain.ContentOutputs{}, fmt.Errorf("generate script: %w", err)
	}

	if err := routing.Interrupted(ctx, domain.TaskHeavy); err != nil {
		return domain.ContentOutputs{}, err
	}

	var pkg marketingPackage
	if inputs.WantsMarketing() {
		pkg, err = structured(ctx, s, domain.TaskHeavy, progress, prompt.GenerateMarketingPackage, prompt.Vars{
			"script":   script,
			"language": inputs.Language,
		}, marketingPackage{}, nil)
		if err != nil {
			return domain.ContentOutputs{}, fmt.Errorf("generate marketing package: %w", err)
		}
	}

	out := domain.ContentOutputs{
		MainScript:        script,
		MetaTitle:         pkg.MetaTitle,
		MetaDescription:   pkg.MetaDescription,
		MetaKeywords:      orEmpty(pkg.MetaKeywords),
		ShortsScript:      pkg.ShortsScript,
		ShortsTitle:       pkg.ShortsTitle,
		ShortsDescription: pkg.ShortsDescription,
		ShortsKeywords:    orEmpty(pkg.ShortsKeywords),
		TiktokDescription: pkg.TiktokDescription,
	}
	if out.MetaTitle == "" {
		out.MetaTitle = inputs.InputValue
	}

	s.log.Info("Content generated",
		"topic", inputs.InputValue,
		"script_chars", len([]rune(script)),
		"marketing", inputs.WantsMarketing(),
	)
	return out, nil
}

// ProcessScenesUnified diacritizes and illustrates one batch of texts in a
// single light call. Non-Arabic texts come back verbatim.
func (s *Service) ProcessScenesUnified(
	ctx context.Context,
	texts []string,
	style string,
	progress ProgressFunc,
) ([]domain.SceneResult, error) {
	segmentsJSON, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}
	return structured(ctx, s, domain.TaskLight, progress, prompt.ProcessScenesUnified, prompt.Vars{
		"segmentsJson": string(segmentsJSON),
		"style":        style,
	}, []domain.SceneResult{}, func(results []domain.SceneResult) []domain.SceneResult {
		return s.corrector.Apply(results, texts)
	})
}

// DetectLanguage names the language of text from its first 500 characters.
func (s *Service) DetectLanguage(ctx context.Context, text string) (string, error) {
	out, err := s.text(ctx, domain.TaskLight, nil, prompt.DetectLanguage, prompt.Vars{
		"text": firstRunes(text, languageSampleRunes),
	})
	if err != nil {
		return "", err
	}
	return orDefault(out, DefaultLanguage), nil
}

type profileChoice struct {
	ID string `json:"id"`
}

// DetectBestProfile picks the smart profile that fits a topic.
func (s *Service) DetectBestProfile(ctx context.Context, topic string) (string, error) {
	type summary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	profiles := SmartProfiles()
	summaries := make([]summary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, summary{ID: p.ID, Name: p.Name})
	}
	profilesJSON, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("encode profiles: %w", err)
	}

	choice, err := structured(ctx, s, domain.TaskLight, nil, prompt.DetectSmartProfile, prompt.Vars{
		"topic":        topic,
		"profilesJson": string(profilesJSON),
	}, profileChoice{ID: DefaultProfile}, nil)
	if err != nil {
		return "", err
	}
	if _, ok := Profile(choice.ID); !ok {
		return DefaultProfile, nil
	}
	return choice.ID, nil
}

type titleSuggestions struct {
	Titles []struct {
		Title string `json:"title"`
	} `json:"titles"`
}

// GenerateMagicTitle returns the first suggested viral title, or topic.
func (s *Service) GenerateMagicTitle(ctx context.Context, topic, language string) (string, error) {
	res, err := structured(ctx, s, domain.TaskLight, nil, prompt.GenerateTitlesOnly, prompt.Vars{
		"currentTitle": topic,
		"language":     language,
	}, titleSuggestions{}, nil)
	if err != nil {
		return "", err
	}
	if len(res.Titles) == 0 {
		return topic, nil
	}
	return orDefault(res.Titles[0].Title, topic), nil
}

// SuggestArtStyle picks a visual style from the first 1000 characters.
func (s *Service) SuggestArtStyle(ctx context.Context, text string) (string, error) {
	out, err := s.text(ctx, domain.TaskLight, nil, prompt.SuggestArtStyle, prompt.Vars{
		"text": firstRunes(text, styleSampleRunes),
	})
	if err != nil {
		return "", err
	}
	return orDefault(out, DefaultArtStyle), nil
}

// AddTashkeel diacritizes text, falling back to the input.
func (s *Service) AddTashkeel(ctx context.Context, text string, progress ProgressFunc) (string, error) {
	out, err := s.text(ctx, domain.TaskLight, progress, prompt.AddTashkeel, prompt.Vars{"text": text})
	if err != nil {
		return "", err
	}
	return orDefault(out, text), nil
}

// GenerateBatchScenePrompts returns one image prompt per text.
func (s *Service) GenerateBatchScenePrompts(
	ctx context.Context,
	texts []string,
	style string,
	progress ProgressFunc,
) ([]domain.ScenePrompt, error) {
	segmentsJSON, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}
	prompts, err := structured(ctx, s, domain.TaskLight, progress, prompt.GenerateBatchScenePrompts, prompt.Vars{
		"segmentsJson": string(segmentsJSON),
		"style":        style,
	}, []string{}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ScenePrompt, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, domain.ScenePrompt{Prompt: p, SFX: BatchPromptSFX})
	}
	return out, nil
}

// NewSession wraps a finished run as a history entry.
func NewSession(inputs domain.ContentInputs, outputs domain.ContentOutputs) *domain.ContentSession {
	return &domain.ContentSession{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Title:     orDefault(outputs.MetaTitle, inputs.InputValue),
		Inputs:    inputs,
		Outputs:   outputs,
	}
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
