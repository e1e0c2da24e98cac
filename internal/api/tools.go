package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vietddude/scriptforge/internal/content"
	"github.com/vietddude/scriptforge/internal/core/domain"
)

// TextRequest carries the input of the single-text helpers.
type TextRequest struct {
	Text     string `json:"text"`
	Topic    string `json:"topic,omitempty"`
	Language string `json:"language,omitempty"`
}

// ScenePromptsRequest is the body of POST /v1/scene-prompts.
type ScenePromptsRequest struct {
	Texts []string `json:"texts"`
	Style string   `json:"style"`
}

// ResultResponse wraps a single string result.
type ResultResponse struct {
	Result string   `json:"result"`
	Log    []string `json:"log,omitempty"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, content.SmartProfiles())
}

// runText decodes a TextRequest, requires field to be non-empty and runs call
// inside a stoppable operation.
func (s *Server) runText(
	w http.ResponseWriter,
	r *http.Request,
	field func(TextRequest) (string, string),
	call func(ctx context.Context, req TextRequest, progress content.ProgressFunc) (string, error),
) {
	var req TextRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if name, value := field(req); strings.TrimSpace(value) == "" {
		writeError(w, http.StatusBadRequest, errors.New(name+" is required"))
		return
	}

	ctx, done := s.deps.Stop.Begin(r.Context())
	defer done()

	progress := &progressLog{log: s.deps.Log}
	out, err := call(ctx, req, progress.add)
	if err != nil {
		s.writeDispatchError(w, err, progress.list())
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Result: out, Log: progress.list()})
}

func textField(req TextRequest) (string, string)  { return "text", req.Text }
func topicField(req TextRequest) (string, string) { return "topic", req.Topic }

func (s *Server) handleDetectProfile(w http.ResponseWriter, r *http.Request) {
	s.runText(w, r, topicField, func(ctx context.Context, req TextRequest, _ content.ProgressFunc) (string, error) {
		return s.deps.Content.DetectBestProfile(ctx, req.Topic)
	})
}

func (s *Server) handleDetectLanguage(w http.ResponseWriter, r *http.Request) {
	s.runText(w, r, textField, func(ctx context.Context, req TextRequest, _ content.ProgressFunc) (string, error) {
		return s.deps.Content.DetectLanguage(ctx, req.Text)
	})
}

func (s *Server) handleMagicTitle(w http.ResponseWriter, r *http.Request) {
	s.runText(w, r, topicField, func(ctx context.Context, req TextRequest, _ content.ProgressFunc) (string, error) {
		language := req.Language
		if language == "" {
			language = content.DefaultLanguage
		}
		return s.deps.Content.GenerateMagicTitle(ctx, req.Topic, language)
	})
}

func (s *Server) handleArtStyle(w http.ResponseWriter, r *http.Request) {
	s.runText(w, r, textField, func(ctx context.Context, req TextRequest, _ content.ProgressFunc) (string, error) {
		return s.deps.Content.SuggestArtStyle(ctx, req.Text)
	})
}

func (s *Server) handleTashkeel(w http.ResponseWriter, r *http.Request) {
	s.runText(w, r, textField, func(ctx context.Context, req TextRequest, progress content.ProgressFunc) (string, error) {
		return s.deps.Content.AddTashkeel(ctx, req.Text, progress)
	})
}

func (s *Server) handleScenePrompts(w http.ResponseWriter, r *http.Request) {
	var req ScenePromptsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("texts is required"))
		return
	}
	style := req.Style
	if strings.TrimSpace(style) == "" {
		style = content.DefaultArtStyle
	}

	ctx, done := s.deps.Stop.Begin(r.Context())
	defer done()

	progress := &progressLog{log: s.deps.Log}
	prompts, err := s.deps.Content.GenerateBatchScenePrompts(ctx, req.Texts, style, progress.add)
	if err != nil {
		s.writeDispatchError(w, err, progress.list())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Prompts []domain.ScenePrompt `json:"prompts"`
		Log     []string             `json:"log,omitempty"`
	}{prompts, progress.list()})
}
