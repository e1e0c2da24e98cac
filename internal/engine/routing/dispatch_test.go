package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/scriptforge/internal/core/domain"
)

var (
	errQuota    = errors.New("Error 429, Message: Resource has been exhausted (e.g. check quota).")
	errOverload = errors.New("Error 503, Message: The model is overloaded.")
	errFatal    = errors.New("Error 400, Message: API key not valid.")
)

// mockWork records every target it is invoked with.
type mockWork struct {
	mu      sync.Mutex
	calls   []Target
	respond func(t Target, n int) (any, error)
}

func (m *mockWork) Work(ctx context.Context, t Target) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, t)
	n := len(m.calls)
	m.mu.Unlock()
	return m.respond(t, n)
}

func (m *mockWork) Calls() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Target(nil), m.calls...)
}

// sleepRecorder replaces the cooldown sleep.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waits)
}

type poolStore struct {
	saved []int
}

func (p *poolStore) SavePoolIndex(ctx context.Context, idx int) error {
	p.saved = append(p.saved, idx)
	return nil
}

func makeCredentials(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("cred-%02d", i)
	}
	return keys
}

func newTestDispatcher(creds []string, models []string, sleeper *sleepRecorder, opts ...Option) *Dispatcher {
	settings := domain.NewSettings(creds, domain.ModelMapping{Heavy: models, Light: models}, 0)
	opts = append([]Option{WithSleeper(sleeper.Sleep)}, opts...)
	return NewDispatcher(settings, opts...)
}

func TestDispatch_AllQuotaExhaustsEveryCombination(t *testing.T) {
	const pools, perPool = 3, 10
	models := []string{"model-a", "model-b"}
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(pools*perPool), models, sleeper)

	work := &mockWork{respond: func(Target, int) (any, error) { return nil, errQuota }}
	_, err := d.Execute(context.Background(), Request{Category: domain.TaskHeavy, Work: work.Work})

	if !errors.Is(err, ErrPoolsExhausted) {
		t.Fatalf("expected ErrPoolsExhausted, got %v", err)
	}
	if KindOf(err) != KindExhausted {
		t.Errorf("KindOf = %v, want exhausted", KindOf(err))
	}
	if got, want := len(work.Calls()), pools*len(models)*perPool; got != want {
		t.Errorf("attempts = %d, want %d", got, want)
	}
	if got := sleeper.Count(); got != pools-1 {
		t.Errorf("cooldowns = %d, want %d", got, pools-1)
	}

	var de *DispatchError
	if !errors.As(err, &de) || de.RetryAfter != DefaultCooldown || de.Attempts != 60 {
		t.Errorf("unexpected dispatch error: %+v", de)
	}
	if d.Settings().ActivePool() != 0 {
		t.Errorf("active pool changed on failure: %d", d.Settings().ActivePool())
	}
}

func TestDispatch_OrderingWithinPool(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(3), []string{"model-a", "model-b"}, sleeper)

	work := &mockWork{respond: func(t Target, n int) (any, error) {
		return nil, errQuota
	}}
	_, _ = d.Execute(context.Background(), Request{Category: domain.TaskLight, Work: work.Work})

	want := []string{
		"model-a/cred-00", "model-a/cred-01", "model-a/cred-02",
		"model-b/cred-00", "model-b/cred-01", "model-b/cred-02",
	}
	calls := work.Calls()
	if len(calls) != len(want) {
		t.Fatalf("calls = %d, want %d", len(calls), len(want))
	}
	for i, c := range calls {
		if got := c.Model + "/" + c.APIKey; got != want[i] {
			t.Errorf("call %d = %s, want %s", i, got, want[i])
		}
	}
	if sleeper.Count() != 0 {
		t.Errorf("single pool must not cool down, got %d", sleeper.Count())
	}
}

func TestDispatch_SuccessPersistsPoolAndNextRunStartsThere(t *testing.T) {
	sleeper := &sleepRecorder{}
	store := &poolStore{}
	d := newTestDispatcher(makeCredentials(30), []string{"model-a"}, sleeper, WithPoolRecorder(store))

	work := &mockWork{respond: func(t Target, n int) (any, error) {
		if t.Pool == 2 {
			return "ok", nil
		}
		return nil, errQuota
	}}

	res, err := d.Execute(context.Background(), Request{Category: domain.TaskHeavy, Work: work.Work})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res != "ok" {
		t.Errorf("result = %v, want ok", res)
	}
	if got := d.Settings().ActivePool(); got != 2 {
		t.Errorf("active pool = %d, want 2", got)
	}
	if len(store.saved) != 1 || store.saved[0] != 2 {
		t.Errorf("recorded pools = %v, want [2]", store.saved)
	}
	if sleeper.Count() != 2 {
		t.Errorf("cooldowns = %d, want 2", sleeper.Count())
	}

	second := &mockWork{respond: func(Target, int) (any, error) { return "again", nil }}
	if _, err := d.Execute(context.Background(), Request{Category: domain.TaskHeavy, Work: second.Work}); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}
	if first := second.Calls()[0]; first.Pool != 2 || first.APIKey != "cred-20" {
		t.Errorf("second run started at pool %d key %s, want pool 2 cred-20", first.Pool, first.APIKey)
	}
	if len(store.saved) != 1 {
		t.Errorf("unchanged pool must not be re-recorded: %v", store.saved)
	}
}

func TestDispatch_RotationWrapsFromActivePool(t *testing.T) {
	sleeper := &sleepRecorder{}
	settings := domain.NewSettings(makeCredentials(20), domain.ModelMapping{Heavy: []string{"m"}}, 1)
	d := NewDispatcher(settings, WithSleeper(sleeper.Sleep))

	work := &mockWork{respond: func(Target, int) (any, error) { return nil, errQuota }}
	_, _ = d.Execute(context.Background(), Request{Category: domain.TaskHeavy, Work: work.Work})

	calls := work.Calls()
	if calls[0].Pool != 1 || calls[len(calls)-1].Pool != 0 {
		t.Errorf("rotation order = pool %d ... pool %d, want 1 ... 0", calls[0].Pool, calls[len(calls)-1].Pool)
	}
}

func TestDispatch_StaleActivePoolWraps(t *testing.T) {
	sleeper := &sleepRecorder{}
	settings := domain.NewSettings(makeCredentials(5), domain.ModelMapping{Light: []string{"m"}}, 7)
	d := NewDispatcher(settings, WithSleeper(sleeper.Sleep))

	work := &mockWork{respond: func(Target, int) (any, error) { return 1, nil }}
	if _, err := d.Execute(context.Background(), Request{Category: domain.TaskLight, Work: work.Work}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if settings.ActivePool() != 0 {
		t.Errorf("active pool = %d, want 0", settings.ActivePool())
	}
}

func TestDispatch_OverloadSkipsToNextModel(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(3), []string{"model-a", "model-b"}, sleeper)

	var logs []string
	work := &mockWork{respond: func(t Target, n int) (any, error) {
		switch {
		case t.Model == "model-a":
			return nil, errOverload
		case t.Key == 0:
			return nil, errQuota
		default:
			return "done", nil
		}
	}}

	res, err := d.Execute(context.Background(), Request{
		Category: domain.TaskHeavy,
		Work:     work.Work,
		Log:      func(m string) { logs = append(logs, m) },
	})
	if err != nil || res != "done" {
		t.Fatalf("Execute = %v, %v", res, err)
	}

	calls := work.Calls()
	want := []Target{
		{APIKey: "cred-00", Model: "model-a", Pool: 0, Key: 0},
		{APIKey: "cred-00", Model: "model-b", Pool: 0, Key: 0},
		{APIKey: "cred-01", Model: "model-b", Pool: 0, Key: 1},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}

	joined := strings.Join(logs, "\n")
	for _, fragment := range []string{"pool 1", "model-a", "overloaded", "quota"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("progress log missing %q:\n%s", fragment, joined)
		}
	}
}

func TestDispatch_FatalShortCircuits(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(25), []string{"model-a", "model-b"}, sleeper)

	work := &mockWork{respond: func(Target, int) (any, error) { return nil, errFatal }}
	_, err := d.Execute(context.Background(), Request{Category: domain.TaskHeavy, Work: work.Work})

	if KindOf(err) != KindFatal {
		t.Fatalf("KindOf = %v, want fatal", KindOf(err))
	}
	if !errors.Is(err, errFatal) {
		t.Errorf("fatal error not wrapped: %v", err)
	}
	if len(work.Calls()) != 1 {
		t.Errorf("attempts = %d, want 1", len(work.Calls()))
	}
	if sleeper.Count() != 0 {
		t.Errorf("cooldowns = %d, want 0", sleeper.Count())
	}
}

func TestDispatch_StopBetweenCallsOfOneOperation(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(3), []string{"model-a"}, sleeper)
	sw := NewStopSwitch()

	ctx, done := sw.Begin(context.Background())
	defer done()

	work := &mockWork{respond: func(Target, int) (any, error) { return "batch", nil }}
	if _, err := d.Execute(ctx, Request{Category: domain.TaskLight, Work: work.Work}); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}

	sw.Stop()

	_, err := d.Execute(ctx, Request{Category: domain.TaskLight, Work: work.Work})
	if !errors.Is(err, ErrStopped) || !IsStopped(err) {
		t.Fatalf("expected stop, got %v", err)
	}
	if len(work.Calls()) != 1 {
		t.Errorf("calls = %d, want 1 (no call after stop)", len(work.Calls()))
	}
}

func TestDispatch_StopDuringPoolRotation(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(20), []string{"model-a"}, sleeper)
	sw := NewStopSwitch()
	ctx, done := sw.Begin(context.Background())
	defer done()

	work := &mockWork{respond: func(t Target, n int) (any, error) {
		if n == 4 {
			sw.Stop()
		}
		return nil, errQuota
	}}

	_, err := d.Execute(ctx, Request{Category: domain.TaskHeavy, Work: work.Work})
	if KindOf(err) != KindCancelled {
		t.Fatalf("KindOf = %v, want cancelled", KindOf(err))
	}
	if len(work.Calls()) != 4 {
		t.Errorf("calls = %d, want 4", len(work.Calls()))
	}
	if sleeper.Count() != 0 {
		t.Errorf("stopped dispatch must not cool down")
	}
}

func TestDispatch_InFlightCallIsNotAborted(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(2), []string{"model-a"}, sleeper)
	sw := NewStopSwitch()
	ctx, done := sw.Begin(context.Background())
	defer done()

	res, err := d.Execute(ctx, Request{
		Category: domain.TaskHeavy,
		Work: func(callCtx context.Context, t Target) (any, error) {
			sw.Stop()
			if callCtx.Err() != nil {
				return nil, callCtx.Err()
			}
			return "finished", nil
		},
	})
	if err != nil || res != "finished" {
		t.Fatalf("in-flight call = %v, %v; want finished", res, err)
	}
}

func TestDispatch_CancelledBeforeStart(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(2), []string{"model-a"}, sleeper)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	work := &mockWork{respond: func(Target, int) (any, error) { return "x", nil }}
	_, err := d.Execute(ctx, Request{Category: domain.TaskHeavy, Work: work.Work})
	if !IsStopped(err) {
		t.Fatalf("expected stop, got %v", err)
	}
	if len(work.Calls()) != 0 {
		t.Errorf("calls = %d, want 0", len(work.Calls()))
	}
}

func TestDispatch_CooldownInterruptedByStop(t *testing.T) {
	d := NewDispatcher(
		domain.NewSettings(makeCredentials(20), domain.ModelMapping{Heavy: []string{"m"}}, 0),
		WithCooldown(time.Hour),
	)
	sw := NewStopSwitch()
	ctx, done := sw.Begin(context.Background())
	defer done()

	start := time.Now()
	_, err := d.Execute(ctx, Request{
		Category: domain.TaskHeavy,
		Log: func(msg string) {
			if strings.Contains(msg, "cooling down") {
				sw.Stop()
			}
		},
		Work: func(context.Context, Target) (any, error) { return nil, errQuota },
	})
	if !IsStopped(err) {
		t.Fatalf("expected stop during cooldown, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("cooldown was not interrupted, took %s", elapsed)
	}
}

func TestDispatch_FallbackCredential(t *testing.T) {
	settings := domain.NewSettings(nil, domain.ModelMapping{}, 0)
	d := NewDispatcher(settings, WithFallback(Fallback{APIKey: "ambient-key"}))

	var got Target
	res, err := Execute(context.Background(), d, domain.TaskHeavy, nil, func(ctx context.Context, t Target) (string, error) {
		got = t
		return "text", nil
	})
	if err != nil || res != "text" {
		t.Fatalf("Execute = %q, %v", res, err)
	}
	if got.APIKey != "ambient-key" || got.Model != DefaultHeavyModel || got.Pool != -1 {
		t.Errorf("fallback target = %+v", got)
	}

	_, err = Execute(context.Background(), d, domain.TaskLight, nil, func(ctx context.Context, t Target) (string, error) {
		got = t
		return "", errQuota
	})
	if KindOf(err) != KindQuotaExceeded {
		t.Errorf("fallback failure kind = %v, want quota_exceeded", KindOf(err))
	}
	if got.Model != DefaultLightModel {
		t.Errorf("light fallback model = %s", got.Model)
	}
}

func TestDispatch_NoCredentials(t *testing.T) {
	d := NewDispatcher(domain.NewSettings(nil, domain.ModelMapping{}, 0))
	_, err := d.Execute(context.Background(), Request{
		Category: domain.TaskLight,
		Work:     func(context.Context, Target) (any, error) { return nil, nil },
	})
	if !errors.Is(err, ErrNoCredentials) || KindOf(err) != KindFatal {
		t.Fatalf("expected fatal ErrNoCredentials, got %v", err)
	}
}

func TestDispatch_NoModels(t *testing.T) {
	d := NewDispatcher(domain.NewSettings(makeCredentials(1), domain.ModelMapping{Heavy: []string{" "}}, 0))
	_, err := d.Execute(context.Background(), Request{
		Category: domain.TaskHeavy,
		Work:     func(context.Context, Target) (any, error) { return nil, nil },
	})
	if KindOf(err) != KindFatal {
		t.Fatalf("expected fatal, got %v", err)
	}
}

func TestExecute_TypedResult(t *testing.T) {
	sleeper := &sleepRecorder{}
	d := newTestDispatcher(makeCredentials(1), []string{"m"}, sleeper)

	n, err := Execute(context.Background(), d, domain.TaskLight, nil, func(context.Context, Target) (int, error) {
		return 42, nil
	})
	if err != nil || n != 42 {
		t.Fatalf("Execute = %d, %v", n, err)
	}
}
