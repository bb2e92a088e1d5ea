package refresh

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pokesag/pokesag/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRefresher(t *testing.T) *Refresher {
	t.Helper()
	r := New(time.Second).WithLogger(testutil.DiscardLogger())
	t.Cleanup(func() { <-r.Stop().Done() })
	return r
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestNewClampsInterval(t *testing.T) {
	r := New(10 * time.Millisecond)
	defer r.Stop()
	if r.Interval() != time.Second {
		t.Errorf("Interval() = %v, want 1s", r.Interval())
	}
}

func TestEnableFires(t *testing.T) {
	r := newTestRefresher(t)
	var calls atomic.Int32

	if err := r.Enable(func() { calls.Add(1) }); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !r.Enabled() {
		t.Fatal("Enabled() = false after Enable")
	}
	if r.NextRun().IsZero() {
		t.Error("NextRun() is zero while enabled")
	}
	if !waitFor(t, 3*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("callback never ran")
	}
}

func TestDisableStopsTicks(t *testing.T) {
	r := newTestRefresher(t)
	var calls atomic.Int32

	if err := r.Enable(func() { calls.Add(1) }); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("callback never ran")
	}

	r.Disable()
	if r.Enabled() || !r.NextRun().IsZero() {
		t.Fatal("still enabled after Disable")
	}
	after := calls.Load()
	time.Sleep(2200 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Errorf("callback ran %d more times after Disable", got-after)
	}
}

func TestEnableReplacesCallback(t *testing.T) {
	r := newTestRefresher(t)
	var first, second atomic.Int32

	if err := r.Enable(func() { first.Add(1) }); err != nil {
		t.Fatal(err)
	}
	if err := r.Enable(func() { second.Add(1) }); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return second.Load() >= 1 }) {
		t.Fatal("replacement callback never ran")
	}
	if first.Load() != 0 {
		t.Errorf("replaced callback ran %d times", first.Load())
	}
}

func TestStopIsFinal(t *testing.T) {
	r := New(time.Second).WithLogger(testutil.DiscardLogger())
	if err := r.Enable(func() {}); err != nil {
		t.Fatal(err)
	}
	<-r.Stop().Done()
	if r.Enabled() {
		t.Error("Enabled() after Stop")
	}
	if err := r.Enable(func() {}); err == nil {
		t.Error("Enable after Stop succeeded")
	}
}

func TestStopNeverStarted(t *testing.T) {
	r := New(time.Second)
	select {
	case <-r.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("Stop of an unstarted refresher did not complete")
	}
	r.Disable()
}
