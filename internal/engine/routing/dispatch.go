// Package routing dispatches generative calls across credential pools and
// model fallback chains.
//
// This package contains:
//   - Classifier: maps unit-of-work failures to ErrorKinds
//   - ModelSequence: ordered model fallback chain per task category
//   - Dispatcher: the pool -> model -> credential loop with cooldowns
//   - StopSwitch: operation-scoped cooperative cancellation
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/engine/pool"
	"github.com/vietddude/scriptforge/internal/metrics"
)

// DefaultCooldown is the forced wait before rotating to the next pool.
const DefaultCooldown = 30 * time.Second

// Target is one resolved (credential, model) pair.
type Target struct {
	APIKey string
	Model  string

	// Pool and Key locate the credential; Pool is -1 for the fallback credential.
	Pool int
	Key  int
}

// Masked returns the credential in loggable form.
func (t Target) Masked() string {
	return pool.Mask(t.APIKey)
}

// UnitOfWork performs exactly one request against the generative endpoint.
type UnitOfWork func(ctx context.Context, t Target) (any, error)

// Request describes one dispatch.
type Request struct {
	Category domain.TaskCategory
	Work     UnitOfWork

	// Log receives human-readable progress at pool/model transitions and on
	// retryable failures. Optional.
	Log func(string)
}

// Observer is notified after every attempt.
type Observer interface {
	ObserveAttempt(credential, model, outcome string, latency time.Duration, err error)
}

// PoolRecorder persists the last successful pool index outside the process.
type PoolRecorder interface {
	SavePoolIndex(ctx context.Context, idx int) error
}

// Dispatcher is the smart execution engine. It is strictly sequential: one
// attempt is in flight at a time for a given dispatch.
type Dispatcher struct {
	settings   *domain.Settings
	classifier *Classifier
	cooldown   time.Duration
	fallback   Fallback
	sleep      func(ctx context.Context, d time.Duration) error
	observer   Observer
	recorder   PoolRecorder
	log        *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClassifier replaces the default classifier.
func WithClassifier(c *Classifier) Option {
	return func(d *Dispatcher) { d.classifier = c }
}

// WithCooldown sets the inter-pool cooldown.
func WithCooldown(cooldown time.Duration) Option {
	return func(d *Dispatcher) { d.cooldown = cooldown }
}

// WithFallback sets the ambient credential used when none are configured.
func WithFallback(f Fallback) Option {
	return func(d *Dispatcher) { d.fallback = f }
}

// WithSleeper replaces the cooldown sleep.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Dispatcher) { d.sleep = sleep }
}

// WithObserver registers an attempt observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithPoolRecorder registers a store for the active pool index.
func WithPoolRecorder(r PoolRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// NewDispatcher creates a dispatcher over caller-owned settings.
func NewDispatcher(settings *domain.Settings, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		settings:   settings,
		classifier: NewClassifier(),
		cooldown:   DefaultCooldown,
		sleep:      sleepContext,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Settings returns the settings the dispatcher mutates.
func (d *Dispatcher) Settings() *domain.Settings {
	return d.settings
}

// Execute runs the unit of work until it succeeds, fails fatally, is
// stopped, or every pool/model/credential combination is exhausted.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (any, error) {
	progress := req.Log
	if progress == nil {
		progress = func(string) {}
	}

	if ctx.Err() != nil {
		return nil, d.stopped(ctx, req.Category, 0)
	}

	credentials := d.settings.Credentials
	if len(credentials) == 0 {
		return d.executeFallback(ctx, req)
	}

	models := NewModelSequence(req.Category, d.settings.Models.For(req.Category))
	if models.Len() == 0 {
		return nil, d.fail(&DispatchError{
			Kind:     KindFatal,
			Category: req.Category,
			Err:      fmt.Errorf("no models configured for %s tasks", req.Category),
		})
	}

	totalPools := pool.Count(credentials)
	startPool := pool.Normalize(d.settings.ActivePool(), totalPools)

	attempts := 0
	var lastErr error

	for rotation := 0; rotation < totalPools; rotation++ {
		poolIdx := (startPool + rotation) % totalPools
		keys := pool.Keys(poolIdx, credentials)
		if len(keys) == 0 {
			continue
		}

		progress(fmt.Sprintf("Using credential pool %d (%d keys)...", poolIdx+1, len(keys)))
		d.log.Info("Using credential pool",
			"category", req.Category, "pool", poolIdx, "keys", len(keys))

		for _, model := range models.Models() {
			progress(fmt.Sprintf("Trying model %s...", model))

		keyLoop:
			for i, key := range keys {
				if ctx.Err() != nil {
					return nil, d.stopped(ctx, req.Category, attempts)
				}

				target := Target{APIKey: key, Model: model, Pool: poolIdx, Key: i}
				attempts++

				// The call in flight is not aborted by a stop request.
				start := time.Now()
				result, err := req.Work(context.WithoutCancel(ctx), target)
				latency := time.Since(start)

				if err == nil {
					d.observe(req.Category, target, "success", latency, nil)
					d.markSuccess(ctx, poolIdx)
					metrics.DispatchResults.WithLabelValues(string(req.Category), "success").Inc()
					return result, nil
				}

				kind := d.classifier.Classify(err)
				d.observe(req.Category, target, kind.String(), latency, err)
				lastErr = err

				switch kind {
				case KindOverloaded:
					progress(fmt.Sprintf("Model %s is overloaded (503), switching to the next model...", model))
					d.log.Warn("Model overloaded",
						"category", req.Category, "model", model, "pool", poolIdx, "error", err)
					break keyLoop
				case KindQuotaExceeded:
					progress(fmt.Sprintf("Key %d in pool %d hit its quota, trying the next key...", i+1, poolIdx+1))
					d.log.Warn("Credential quota exceeded",
						"category", req.Category, "model", model, "pool", poolIdx,
						"key", target.Masked(), "error", err)
					continue
				case KindCancelled:
					return nil, d.stopped(ctx, req.Category, attempts)
				default:
					d.log.Error("Fatal generative error",
						"category", req.Category, "model", model, "key", target.Masked(), "error", err)
					return nil, d.fail(&DispatchError{
						Kind:     KindFatal,
						Category: req.Category,
						Attempts: attempts,
						Err:      err,
					})
				}
			}
		}

		if rotation < totalPools-1 {
			if ctx.Err() != nil {
				return nil, d.stopped(ctx, req.Category, attempts)
			}
			progress(fmt.Sprintf("Pool %d is exhausted, cooling down for %s...", poolIdx+1, d.cooldown))
			d.log.Warn("Credential pool exhausted, cooling down",
				"category", req.Category, "pool", poolIdx, "cooldown", d.cooldown)
			metrics.PoolCooldowns.WithLabelValues(string(req.Category)).Inc()

			if err := d.sleep(ctx, d.cooldown); err != nil {
				return nil, d.stopped(ctx, req.Category, attempts)
			}
		}
	}

	return nil, d.fail(&DispatchError{
		Kind:       KindExhausted,
		Category:   req.Category,
		Attempts:   attempts,
		RetryAfter: d.cooldown,
		Err:        fmt.Errorf("%w (last error: %v)", ErrPoolsExhausted, lastErr),
	})
}

func (d *Dispatcher) executeFallback(ctx context.Context, req Request) (any, error) {
	if d.fallback.APIKey == "" {
		return nil, d.fail(&DispatchError{Kind: KindFatal, Category: req.Category, Err: ErrNoCredentials})
	}

	target := Target{APIKey: d.fallback.APIKey, Model: d.fallback.Model(req.Category), Pool: -1}
	d.log.Debug("No credentials configured, using ambient credential",
		"category", req.Category, "model", target.Model)

	start := time.Now()
	result, err := req.Work(context.WithoutCancel(ctx), target)
	latency := time.Since(start)
	if err == nil {
		d.observe(req.Category, target, "success", latency, nil)
		metrics.DispatchResults.WithLabelValues(string(req.Category), "success").Inc()
		return result, nil
	}

	kind := d.classifier.Classify(err)
	d.observe(req.Category, target, kind.String(), latency, err)
	if kind == KindCancelled {
		return nil, d.stopped(ctx, req.Category, 1)
	}
	return nil, d.fail(&DispatchError{Kind: kind, Category: req.Category, Attempts: 1, Err: err})
}

func (d *Dispatcher) markSuccess(ctx context.Context, poolIdx int) {
	metrics.ActivePool.Set(float64(poolIdx))
	if !d.settings.SetActivePool(poolIdx) || d.recorder == nil {
		return
	}
	if err := d.recorder.SavePoolIndex(context.WithoutCancel(ctx), poolIdx); err != nil {
		d.log.Warn("Failed to persist active pool", "pool", poolIdx, "error", err)
	}
}

func (d *Dispatcher) observe(category domain.TaskCategory, t Target, outcome string, latency time.Duration, err error) {
	metrics.DispatchAttempts.WithLabelValues(string(category), t.Model, outcome).Inc()
	metrics.DispatchLatency.WithLabelValues(string(category), t.Model).Observe(latency.Seconds())
	if d.observer != nil {
		d.observer.ObserveAttempt(t.Masked(), t.Model, outcome, latency, err)
	}
}

func (d *Dispatcher) stopped(ctx context.Context, category domain.TaskCategory, attempts int) error {
	cause := context.Cause(ctx)
	var err error
	switch {
	case cause == nil, errors.Is(cause, ErrStopped):
		err = ErrStopped
	default:
		err = fmt.Errorf("%w: %v", ErrStopped, cause)
	}
	d.log.Info("Dispatch stopped", "category", category, "attempts", attempts)
	return d.fail(&DispatchError{Kind: KindCancelled, Category: category, Attempts: attempts, Err: err})
}

func (d *Dispatcher) fail(err *DispatchError) error {
	metrics.DispatchResults.WithLabelValues(string(err.Category), err.Kind.String()).Inc()
	return err
}

// Execute is the typed form of Dispatcher.Execute.
func Execute[T any](
	ctx context.Context,
	d *Dispatcher,
	category domain.TaskCategory,
	log func(string),
	work func(ctx context.Context, t Target) (T, error),
) (T, error) {
	var zero T
	res, err := d.Execute(ctx, Request{
		Category: category,
		Log:      log,
		Work: func(ctx context.Context, t Target) (any, error) {
			return work(ctx, t)
		},
	})
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	out, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("dispatch %s: unexpected result type %T", category, res)
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}
