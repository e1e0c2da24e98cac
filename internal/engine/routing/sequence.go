package routing

import (
	"strings"

	"github.com/vietddude/scriptforge/internal/core/domain"
)

// Default models for the ambient fallback credential.
const (
	DefaultHeavyModel = "gemini-1.5-pro"
	DefaultLightModel = "gemini-2.0-flash"
)

// ModelSequence is the ordered model fallback chain of one task category.
type ModelSequence struct {
	category domain.TaskCategory
	models   []string
}

// NewModelSequence builds a chain from configured models, dropping blanks and
// repeats while keeping the configured order.
func NewModelSequence(category domain.TaskCategory, models []string) ModelSequence {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return ModelSequence{category: category, models: out}
}

// Category returns the task category of the chain.
func (s ModelSequence) Category() domain.TaskCategory {
	return s.category
}

// Models returns the chain in attempt order.
func (s ModelSequence) Models() []string {
	return s.models
}

// Len returns the number of models in the chain.
func (s ModelSequence) Len() int {
	return len(s.models)
}

// Next returns the model tried after the given one.
func (s ModelSequence) Next(after string) (string, bool) {
	for i, m := range s.models {
		if m == after && i+1 < len(s.models) {
			return s.models[i+1], true
		}
	}
	return "", false
}

// Fallback is the ambient credential used when no credentials are configured.
type Fallback struct {
	APIKey     string
	HeavyModel string
	LightModel string
}

// Model returns the fixed fallback model for a category.
func (f Fallback) Model(category domain.TaskCategory) string {
	if category == domain.TaskHeavy {
		if f.HeavyModel != "" {
			return f.HeavyModel
		}
		return DefaultHeavyModel
	}
	if f.LightModel != "" {
		return f.LightModel
	}
	return DefaultLightModel
}
