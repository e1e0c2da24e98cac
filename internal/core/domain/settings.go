package domain

import (
	"fmt"
	"sync"
)

// TaskCategory selects which ordered model list a dispatch uses.
type TaskCategory string

const (
	TaskHeavy TaskCategory = "heavy" // Primary content generation
	TaskLight TaskCategory = "light" // Auxiliary transformations
)

// ParseTaskCategory converts a config or request value into a TaskCategory.
func ParseTaskCategory(s string) (TaskCategory, error) {
	switch TaskCategory(s) {
	case TaskHeavy, TaskLight:
		return TaskCategory(s), nil
	default:
		return "", fmt.Errorf("unknown task category %q", s)
	}
}

// ModelMapping holds the ordered model fallback list per task category.
type ModelMapping struct {
	Heavy []string `yaml:"heavy" json:"heavy"`
	Light []string `yaml:"light" json:"light"`
}

// For returns the ordered models configured for a category.
func (m ModelMapping) For(category TaskCategory) []string {
	if category == TaskHeavy {
		return m.Heavy
	}
	return m.Light
}

// Settings is the caller-owned engine configuration. The dispatcher receives it
// by reference and only ever writes the active pool index.
type Settings struct {
	Credentials []string
	Models      ModelMapping

	mu         sync.RWMutex
	activePool int
}

// NewSettings builds Settings with an initial last-successful-pool index.
func NewSettings(credentials []string, models ModelMapping, activePool int) *Settings {
	if activePool < 0 {
		activePool = 0
	}
	return &Settings{
		Credentials: credentials,
		Models:      models,
		activePool:  activePool,
	}
}

// ActivePool returns the index of the pool that most recently succeeded.
func (s *Settings) ActivePool() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activePool
}

// SetActivePool records a successful pool. It reports whether the value changed.
func (s *Settings) SetActivePool(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activePool == idx {
		return false
	}
	s.activePool = idx
	return true
}
