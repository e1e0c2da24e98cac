package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/scriptforge/internal/infra/storage"
)

// Pruner deletes saved sessions older than the retention period.
type Pruner struct {
	retention time.Duration
	sessions  storage.SessionRepository
	log       *slog.Logger
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, sessions storage.SessionRepository, log *slog.Logger) *Pruner {
	if log == nil {
		log = slog.Default()
	}
	return &Pruner{
		retention: retention,
		sessions:  sessions,
		log:       log,
		now:       time.Now,
	}
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// 10% of retention, between one minute and one hour
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs one retention pass and returns the number of deleted sessions.
func (p *Pruner) Prune(ctx context.Context) int {
	cutoff := p.now().Add(-p.retention)
	n, err := p.sessions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.log.Error("Failed to prune sessions", "cutoff", cutoff, "error", err)
		return 0
	}
	if n > 0 {
		p.log.Info("Pruned sessions", "count", n, "cutoff", cutoff)
	}
	return n
}
