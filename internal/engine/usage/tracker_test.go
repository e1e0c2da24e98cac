package usage

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTracker_Concurrency(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.ObserveAttempt("AIza…0001", "gemini-2.0-flash", OutcomeSuccess, time.Millisecond, nil)
			tracker.Snapshot()
		}()
	}
	wg.Wait()

	if got := tracker.Credential("AIza…0001").Calls; got != 100 {
		t.Errorf("Expected 100 calls, got %d", got)
	}
	if got := tracker.Snapshot().TotalCalls; got != 100 {
		t.Errorf("Expected 100 total calls, got %d", got)
	}
}

func TestTracker_Outcomes(t *testing.T) {
	tracker := NewTracker()
	quota := errors.New("429 quota exceeded")

	tracker.ObserveAttempt("k1", "m1", OutcomeQuota, 10*time.Millisecond, quota)
	tracker.ObserveAttempt("k1", "m1", OutcomeOverloaded, 10*time.Millisecond, errors.New("503"))
	tracker.ObserveAttempt("k2", "m1", OutcomeSuccess, 40*time.Millisecond, nil)
	tracker.ObserveAttempt("k2", "m2", OutcomeFatal, 0, errors.New("bad request"))
	tracker.ObserveAttempt("k2", "m2", OutcomeCancelled, 0, nil)

	k1 := tracker.Credential("k1")
	if k1.Calls != 2 || k1.QuotaHits != 1 || k1.Overloads != 1 {
		t.Errorf("unexpected k1 stats: %+v", k1)
	}
	if k1.LastError != "503" {
		t.Errorf("last error = %q", k1.LastError)
	}

	m1 := tracker.Model("m1")
	if m1.Calls != 3 || m1.Successes != 1 {
		t.Errorf("unexpected m1 stats: %+v", m1)
	}
	if m1.AverageLatency() != 20*time.Millisecond {
		t.Errorf("average latency = %s", m1.AverageLatency())
	}

	m2 := tracker.Model("m2")
	if m2.Fatal != 1 || m2.Cancelled != 1 || m2.SuccessRate() != 0 {
		t.Errorf("unexpected m2 stats: %+v", m2)
	}

	snap := tracker.Snapshot()
	if len(snap.Credentials) != 2 || snap.Credentials[0].Name != "k1" {
		t.Errorf("snapshot credentials not sorted: %+v", snap.Credentials)
	}
	if snap.TotalCalls != 5 {
		t.Errorf("total calls = %d, want 5", snap.TotalCalls)
	}
}

func TestTracker_DailyReset(t *testing.T) {
	now := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	tracker := newTracker(func() time.Time { return now })

	tracker.ObserveAttempt("k1", "m1", OutcomeSuccess, 0, nil)
	if tracker.Credential("k1").Calls != 1 {
		t.Fatal("expected one call before midnight")
	}

	now = now.Add(2 * time.Minute)
	tracker.ObserveAttempt("k2", "m1", OutcomeSuccess, 0, nil)

	if tracker.Credential("k1").Calls != 0 {
		t.Error("counters should reset after midnight")
	}
	if tracker.Model("m1").Calls != 1 {
		t.Errorf("model calls after reset = %d, want 1", tracker.Model("m1").Calls)
	}
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if got := tracker.Snapshot().NextResetAt; !got.Equal(want) {
		t.Errorf("next reset = %s, want %s", got, want)
	}
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	tracker.ObserveAttempt("k1", "m1", OutcomeSuccess, 0, nil)
	tracker.Reset()
	if snap := tracker.Snapshot(); len(snap.Credentials) != 0 || snap.TotalCalls != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}
