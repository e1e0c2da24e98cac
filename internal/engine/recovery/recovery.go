// Package recovery extracts JSON values from noisy model output.
//
// Generative endpoints asked for JSON still wrap it in code fences, prefix it
// with prose, or truncate it. Decode never fails: on any problem it logs the
// raw text and returns the caller's default.
package recovery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/vietddude/scriptforge/internal/metrics"
)

// maxLoggedRaw bounds the raw text written to the log.
const maxLoggedRaw = 500

var (
	// ErrEmpty is returned by Extract for blank input.
	ErrEmpty = errors.New("empty response")
	// ErrNoJSON is returned by Extract when no bracket pair is found.
	ErrNoJSON = errors.New("no JSON object or array in response")
)

// StripCodeFences removes every ```json and ``` marker.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Extract returns the span from the first opening brace or bracket to the
// last closing brace or bracket, after stripping code fences.
func Extract(raw string) (string, error) {
	text := StripCodeFences(raw)
	if text == "" {
		return "", ErrEmpty
	}

	open := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if open == -1 || end == -1 || end < open {
		return "", ErrNoJSON
	}
	return text[open : end+1], nil
}

// Parse extracts and unmarshals raw into a fresh T.
func Parse[T any](raw string) (T, error) {
	var out T
	span, err := Extract(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return out, err
	}
	return out, nil
}

// Decode is Parse with a default: any failure yields def and a warning.
func Decode[T any](raw string, def T) T {
	out, err := Parse[T](raw)
	if err != nil {
		slog.Warn("Failed to recover JSON from model response",
			"error", err,
			"raw", truncate(raw, maxLoggedRaw),
		)
		metrics.RecoveryFallbacks.Inc()
		return def
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
