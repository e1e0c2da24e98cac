package content

import (
	"context"
	"fmt"

	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/engine/routing"
	"github.com/vietddude/scriptforge/internal/metrics"
)

// BatchSize is the number of segments sent per unified scene call.
const BatchSize = 10

// SceneRun summarizes a ProcessSegments run.
type SceneRun struct {
	Segments  []domain.Segment `json:"segments"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Stopped   bool             `json:"stopped"`
}

// Complete reports whether every segment was processed.
func (r SceneRun) Complete() bool {
	return len(r.Segments) > 0 && r.Processed == len(r.Segments)
}

// ProcessSegments runs unprocessed segments through the unified scene call in
// batches. A failed batch marks its segments as errored and the run moves on;
// a stop ends the run with the results gathered so far.
func (s *Service) ProcessSegments(
	ctx context.Context,
	segments []domain.Segment,
	style string,
	progress ProgressFunc,
) SceneRun {
	if progress == nil {
		progress = func(string) {}
	}

	updated := make([]domain.Segment, len(segments))
	copy(updated, segments)
	run := SceneRun{Segments: updated}

	for i := 0; i < len(updated); i += BatchSize {
		end := min(i+BatchSize, len(updated))

		var batch []int
		for j := i; j < end; j++ {
			if !updated[j].Processed {
				batch = append(batch, j)
			}
		}
		if len(batch) == 0 {
			continue
		}

		texts := make([]string, len(batch))
		for k, idx := range batch {
			texts[k] = updated[idx].OriginalText
		}

		progress(fmt.Sprintf("Processing scenes %d to %d...", i+1, end))
		results, err := s.ProcessScenesUnified(ctx, texts, style, progress)
		if err != nil {
			if routing.IsStopped(err) {
				progress("Processing stopped by request.")
				s.log.Info("Scene processing stopped", "processed", countProcessed(updated))
				run.Stopped = true
				break
			}
			if routing.KindOf(err) == routing.KindExhausted {
				progress("Every credential pool is exhausted, retry the failed scenes later.")
			}
			progress(fmt.Sprintf("Batch failed: %v", err))
			s.log.Error("Scene batch failed", "from", i+1, "to", end, "error", err)
			for _, idx := range batch {
				updated[idx].Error = true
			}
			metrics.SegmentsProcessed.WithLabelValues("failed").Add(float64(len(batch)))
			continue
		}

		for k, idx := range batch {
			res := sceneFallback(texts[k], style)
			if k < len(results) {
				res = results[k]
			}
			updated[idx].EngineeredText = res.Tashkeel
			updated[idx].VisualPrompt = res.VisualPrompt
			updated[idx].SFXKeyword = res.SFX
			updated[idx].Processed = true
			updated[idx].Error = false
		}
		metrics.SegmentsProcessed.WithLabelValues("success").Add(float64(len(batch)))
	}

	run.Processed = countProcessed(updated)
	for _, seg := range updated {
		if seg.Error {
			run.Failed++
		}
	}

	switch {
	case run.Stopped:
	case run.Complete():
		progress("All scenes processed.")
	default:
		progress("Finished with failed scenes, they can be retried.")
	}
	return run
}

// RetryFailed clears the error flag of failed segments and processes again.
func (s *Service) RetryFailed(
	ctx context.Context,
	segments []domain.Segment,
	style string,
	progress ProgressFunc,
) SceneRun {
	retry := make([]domain.Segment, len(segments))
	for i, seg := range segments {
		seg.Error = false
		retry[i] = seg
	}
	return s.ProcessSegments(ctx, retry, style, progress)
}

// ProcessScript splits a script into scenes and processes all of them.
func (s *Service) ProcessScript(ctx context.Context, script, style string, progress ProgressFunc) SceneRun {
	segments := Split(script)
	if progress != nil {
		progress(fmt.Sprintf("Created %d scenes.", len(segments)))
	}
	return s.ProcessSegments(ctx, segments, style, progress)
}

func sceneFallback(original, style string) domain.SceneResult {
	return domain.SceneResult{
		Tashkeel:     original,
		VisualPrompt: style + " (Failed)",
		SFX:          "silence",
	}
}

func countProcessed(segments []domain.Segment) int {
	n := 0
	for _, seg := range segments {
		if seg.Processed {
			n++
		}
	}
	return n
}
