// Package correct guarantees that segments written outside the target script
// pass through a batch call untouched.
package correct

import (
	"log/slog"
	"unicode"

	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/metrics"
)

// Arabic covers the basic Arabic block U+0600 to U+06FF.
var Arabic = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0600, Hi: 0x06FF, Stride: 1}},
}

// Corrector forces the processed text of non-target-script segments back to
// the original input.
type Corrector struct {
	script *unicode.RangeTable
	log    *slog.Logger
}

// New creates a corrector for the given script. A nil table means Arabic.
func New(script *unicode.RangeTable, log *slog.Logger) *Corrector {
	if script == nil {
		script = Arabic
	}
	if log == nil {
		log = slog.Default()
	}
	return &Corrector{script: script, log: log}
}

// InScript reports whether s contains at least one character of the script.
func (c *Corrector) InScript(s string) bool {
	for _, r := range s {
		if unicode.Is(c.script, r) {
			return true
		}
	}
	return false
}

// Apply corrects results in place and returns them. When the lengths differ
// the results are returned unchanged.
func (c *Corrector) Apply(results []domain.SceneResult, originals []string) []domain.SceneResult {
	if len(results) != len(originals) {
		c.log.Warn("Result count does not match input count, skipping correction",
			"results", len(results), "inputs", len(originals))
		return results
	}

	for i, original := range originals {
		if c.InScript(original) {
			continue
		}
		if results[i].Tashkeel != original {
			metrics.SegmentsCorrected.Inc()
			c.log.Debug("Restored non-target-script segment", "index", i)
		}
		results[i].Tashkeel = original
	}
	return results
}
