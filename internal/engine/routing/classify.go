package routing

import (
	"context"
	"errors"
	"strings"
)

// ErrorKind determines how the dispatch loop reacts to a failed attempt.
type ErrorKind int

const (
	KindFatal         ErrorKind = iota // Not retried, surfaced immediately
	KindCancelled                      // Stop requested by the user
	KindOverloaded                     // Provider-side, switch model
	KindQuotaExceeded                  // Credential-side, switch credential
	KindExhausted                      // Every pool, model and credential tried
)

func (k ErrorKind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindOverloaded:
		return "overloaded"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindExhausted:
		return "exhausted"
	default:
		return "fatal"
	}
}

// Retryable reports whether the loop absorbs this kind locally.
func (k ErrorKind) Retryable() bool {
	return k == KindOverloaded || k == KindQuotaExceeded
}

// StatusCoder is implemented by errors that carry an HTTP-like status code.
// A structured code wins over message matching when present.
type StatusCoder interface {
	StatusCode() int
}

// Rule maps message substrings (matched case-insensitively) to a kind.
type Rule struct {
	Kind     ErrorKind
	Patterns []string
}

// DefaultRules returns the provider signatures in evaluation order.
// Overload is checked before quota: a 503 that mentions a limit is still
// provider-side.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindOverloaded, Patterns: []string{
			"503",
			"overloaded",
			"unavailable",
		}},
		{Kind: KindQuotaExceeded, Patterns: []string{
			"429",
			"quota",
			"limit",
			"resource exhausted",
			"resource_exhausted",
			"too many requests",
		}},
	}
}

// Classifier maps a unit-of-work failure to an ErrorKind.
type Classifier struct {
	rules []Rule
	codes map[int]ErrorKind
}

// NewClassifier creates a classifier from an ordered rule list.
// With no rules the defaults are used.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	c := &Classifier{
		codes: map[int]ErrorKind{
			503: KindOverloaded,
			429: KindQuotaExceeded,
		},
	}
	for _, r := range rules {
		c.rules = append(c.rules, normalizeRule(r))
	}
	return c
}

// With returns a copy of the classifier with extra patterns. Fatal patterns
// are evaluated first so they can carve exceptions out of broad matches like
// "limit"; other kinds are appended after the existing rules.
func (c *Classifier) With(kind ErrorKind, patterns ...string) *Classifier {
	if len(patterns) == 0 {
		return c
	}
	next := &Classifier{codes: c.codes}
	r := normalizeRule(Rule{Kind: kind, Patterns: patterns})
	if kind == KindFatal {
		next.rules = append([]Rule{r}, c.rules...)
	} else {
		next.rules = append(append([]Rule{}, c.rules...), r)
	}
	return next
}

// Classify determines the kind for a given error.
func (c *Classifier) Classify(err error) ErrorKind {
	if err == nil {
		return KindFatal // Should not happen
	}

	if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
		return KindCancelled
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		if kind, ok := c.codes[sc.StatusCode()]; ok {
			return kind
		}
	}

	msg := strings.ToLower(err.Error())
	if msg == "stopped" {
		return KindCancelled
	}
	for _, r := range c.rules {
		for _, p := range r.Patterns {
			if strings.Contains(msg, p) {
				return r.Kind
			}
		}
	}

	return KindFatal
}

func normalizeRule(r Rule) Rule {
	out := Rule{Kind: r.Kind, Patterns: make([]string, 0, len(r.Patterns))}
	for _, p := range r.Patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out.Patterns = append(out.Patterns, p)
		}
	}
	return out
}

// ParseKind converts a config name into an ErrorKind.
func ParseKind(s string) (ErrorKind, bool) {
	switch strings.ToLower(s) {
	case "overloaded":
		return KindOverloaded, true
	case "quota", "quota_exceeded":
		return KindQuotaExceeded, true
	case "fatal":
		return KindFatal, true
	default:
		return KindFatal, false
	}
}
