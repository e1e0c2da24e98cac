package content

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vietddude/scriptforge/internal/core/domain"
)

// Scene sizing limits, in characters.
const (
	LongSentenceThreshold = 140
	MaxSceneLength        = 180
	MaxSentencesPerScene  = 2
)

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '،':
		return true
	}
	return false
}

// Sentences splits text after every terminator that is followed by whitespace.
func Sentences(text string) []string {
	var (
		out   []string
		start int
		prev  rune
	)
	for i, r := range text {
		if unicode.IsSpace(r) && isTerminator(prev) {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i
		}
		prev = r
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// Split groups sentences into scenes. A long sentence is a scene of its own;
// otherwise a scene holds at most two sentences and about 180 characters.
func Split(script string) []domain.Segment {
	var (
		segments []domain.Segment
		chunk    []string
	)

	push := func(text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		segments = append(segments, domain.Segment{
			ID:           fmt.Sprintf("seg_%d", len(segments)+1),
			OriginalText: text,
		})
	}

	for _, sentence := range Sentences(script) {
		length := utf8.RuneCountInString(sentence)

		if length > LongSentenceThreshold {
			if len(chunk) > 0 {
				push(strings.Join(chunk, " "))
			}
			push(sentence)
			chunk = nil
			continue
		}

		if len(chunk) >= MaxSentencesPerScene ||
			(len(chunk) > 0 && utf8.RuneCountInString(strings.Join(chunk, " "))+length > MaxSceneLength) {
			push(strings.Join(chunk, " "))
			chunk = []string{sentence}
			continue
		}

		chunk = append(chunk, sentence)
	}

	if len(chunk) > 0 {
		push(strings.Join(chunk, " "))
	}
	return segments
}
