// Package usage keeps per-credential and per-model dispatch statistics.
//
// The tracker is a passive observer: it never influences which credential or
// model the dispatcher tries next.
package usage

import (
	"sort"
	"sync"
	"time"
)

// Outcome labels reported by the dispatcher.
const (
	OutcomeSuccess    = "success"
	OutcomeOverloaded = "overloaded"
	OutcomeQuota      = "quota_exceeded"
	OutcomeFatal      = "fatal"
	OutcomeCancelled  = "cancelled"
)

// Stats holds counters for one credential or model.
type Stats struct {
	Name         string        `json:"name"`
	Calls        int           `json:"calls"`
	Successes    int           `json:"successes"`
	QuotaHits    int           `json:"quota_hits"`
	Overloads    int           `json:"overloads"`
	Fatal        int           `json:"fatal"`
	Cancelled    int           `json:"cancelled"`
	LastError    string        `json:"last_error,omitempty"`
	LastUsedAt   time.Time     `json:"last_used_at"`
	TotalLatency time.Duration `json:"-"`
}

// SuccessRate returns successes over calls in percent.
func (s Stats) SuccessRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Calls) * 100
}

// AverageLatency returns the mean attempt latency.
func (s Stats) AverageLatency() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Calls)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Credentials []Stats   `json:"credentials"`
	Models      []Stats   `json:"models"`
	TotalCalls  int       `json:"total_calls"`
	NextResetAt time.Time `json:"next_reset_at"`
}

// Tracker records dispatch attempts. Counters reset at local midnight.
type Tracker struct {
	mu          sync.RWMutex
	credentials map[string]*Stats
	models      map[string]*Stats
	resetTime   time.Time
	now         func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	t := &Tracker{
		credentials: make(map[string]*Stats),
		models:      make(map[string]*Stats),
		now:         now,
	}
	t.resetTime = nextMidnight(now())
	return t
}

// ObserveAttempt records one attempt. credential must already be masked.
func (t *Tracker) ObserveAttempt(credential, model, outcome string, latency time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.After(t.resetTime) {
		t.resetUnsafe(now)
	}

	for _, s := range []*Stats{
		entry(t.credentials, credential),
		entry(t.models, model),
	} {
		s.Calls++
		s.LastUsedAt = now
		s.TotalLatency += latency
		switch outcome {
		case OutcomeSuccess:
			s.Successes++
		case OutcomeOverloaded:
			s.Overloads++
		case OutcomeQuota:
			s.QuotaHits++
		case OutcomeCancelled:
			s.Cancelled++
		default:
			s.Fatal++
		}
		if err != nil {
			s.LastError = truncate(err.Error(), 200)
		}
	}
}

// Credential returns the counters for one masked credential.
func (t *Tracker) Credential(masked string) Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.credentials[masked]; ok {
		return *s
	}
	return Stats{Name: masked}
}

// Model returns the counters for one model.
func (t *Tracker) Model(model string) Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.models[model]; ok {
		return *s
	}
	return Stats{Name: model}
}

// Snapshot copies every counter, sorted by name.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		Credentials: collect(t.credentials),
		Models:      collect(t.models),
		NextResetAt: t.resetTime,
	}
	for _, s := range snap.Models {
		snap.TotalCalls += s.Calls
	}
	return snap
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetUnsafe(t.now())
}

func (t *Tracker) resetUnsafe(now time.Time) {
	t.credentials = make(map[string]*Stats)
	t.models = make(map[string]*Stats)
	t.resetTime = nextMidnight(now)
}

func entry(m map[string]*Stats, name string) *Stats {
	s, ok := m[name]
	if !ok {
		s = &Stats{Name: name}
		m[name] = s
	}
	return s
}

func collect(m map[string]*Stats) []Stats {
	out := make([]Stats, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
