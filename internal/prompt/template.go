// Package prompt holds typed prompt templates with declared variables.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

var (
	// ErrMissingVariable is returned when a declared variable has no value.
	ErrMissingVariable = errors.New("missing template variable")
	// ErrUnknownTemplate is returned for an unregistered template ID.
	ErrUnknownTemplate = errors.New("unknown template")
)

// Template IDs used by the content services.
const (
	DetectLanguage            = "detect_language"
	DetectSmartProfile        = "detect_smart_profile"
	GenerateTitlesOnly        = "generate_titles_only"
	GenerateFullScript        = "generate_full_script"
	GenerateMarketingPackage  = "generate_marketing_package"
	AddTashkeel               = "add_tashkeel"
	SuggestArtStyle           = "suggest_art_style"
	GenerateBatchScenePrompts = "generate_batch_scene_prompts"
	ProcessScenesUnified      = "process_scenes_unified"
)

// Vars maps variable names to values. Values are formatted with fmt.Sprint.
type Vars map[string]any

// Template is a prompt with a fixed set of required variables.
type Template struct {
	ID          string   `yaml:"id"          json:"id"`
	Name        string   `yaml:"name"        json:"name"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Category    string   `yaml:"category"    json:"category"`
	Variables   []string `yaml:"variables"   json:"variables"`
	Text        string   `yaml:"template"    json:"template"`
}

// Render substitutes every {name} placeholder of a declared variable.
// Placeholders of undeclared names are left as written.
func (t Template) Render(vars Vars) (string, error) {
	var missing []string
	pairs := make([]string, 0, len(t.Variables)*2)
	for _, name := range t.Variables {
		v, ok := vars[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(v))
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s (template %s)", ErrMissingVariable, strings.Join(missing, ", "), t.ID)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(t.Text)), nil
}

// Registry is a concurrency-safe set of templates keyed by ID.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates a registry holding the given templates.
func NewRegistry(templates ...Template) *Registry {
	r := &Registry{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		r.templates[t.ID] = t
	}
	return r
}

// DefaultRegistry returns a registry preloaded with the built-in templates.
func DefaultRegistry() *Registry {
	return NewRegistry(Defaults()...)
}

// Register adds or replaces a template.
func (r *Registry) Register(t Template) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("template id is required")
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("template %s has no text", t.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

// Get returns a template by ID.
func (r *Registry) Get(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// List returns every template sorted by ID.
func (r *Registry) List() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Render renders the template registered under id.
func (r *Registry) Render(id string, vars Vars) (string, error) {
	t, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	return t.Render(vars)
}

// LoadFile registers templates from a YAML file, overriding built-ins with
// the same ID. It returns the number of templates loaded.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var file struct {
		Prompts []Template `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	for _, t := range file.Prompts {
		if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.Text) == "" {
			return 0, fmt.Errorf("prompts file %s: every template needs an id and text", path)
		}
	}
	for _, t := range file.Prompts {
		if err := r.Register(t); err != nil {
			return 0, err
		}
	}
	return len(file.Prompts), nil
}
