package viewmodel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
	"github.com/pokesag/pokesag/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	plan  query.Plan
	reply chan result
}

type result struct {
	msgs []store.Message
	err  error
}

// gatedSource hands each call to the test, which decides when and how it
// returns.
type gatedSource struct {
	calls chan call
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan call, 16)}
}

func (g *gatedSource) Pages(ctx context.Context, plan query.Plan) ([]store.Message, error) {
	c := call{plan: plan, reply: make(chan result, 1)}
	g.calls <- c
	select {
	case r := <-c.reply:
		return r.msgs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSource) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a fetch")
		return call{}
	}
}

type sourceFunc func(ctx context.Context, plan query.Plan) ([]store.Message, error)

func (f sourceFunc) Pages(ctx context.Context, plan query.Plan) ([]store.Message, error) {
	return f(ctx, plan)
}

// waitFor polls the view model until cond holds.
func waitFor(t *testing.T, vm *ViewModel, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := vm.State(); cond(s) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached; state = %+v", vm.State())
	return State{}
}

func newTestVM(t *testing.T, src PageSource) *ViewModel {
	t.Helper()
	vm := New(src, Options{
		Planner: query.NewPlanner(2),
		Logger:  testutil.DiscardLogger(),
	})
	t.Cleanup(vm.Close)
	return vm
}

func TestViewModelLoadsLatest(t *testing.T) {
	src := newGatedSource()
	vm := newTestVM(t, src)

	vm.Start()
	c := src.next(t)
	if c.plan.Mode != query.ModeLatest || c.plan.Limit != 2 || c.plan.Offset != 0 {
		t.Errorf("plan = %+v", c.plan)
	}
	c.reply <- result{msgs: []store.Message{{ID: 7}}}

	s := waitFor(t, vm, func(s State) bool { return s.Status == StatusReady })
	if len(s.Messages) != 1 || s.Messages[0].ID != 7 {
		t.Errorf("messages = %+v", s.Messages)
	}

	vm.Dispatch(NextPage{})
	c = src.next(t)
	if c.plan.Page != 2 || c.plan.Offset != 2 {
		t.Errorf("next page plan = %+v", c.plan)
	}
	c.reply <- result{}
	waitFor(t, vm, func(s State) bool { return s.Status == StatusReady && s.Search.Page == 2 })
}

func TestViewModelDiscardsStaleResponse(t *testing.T) {
	src := newGatedSource()
	vm := newTestVM(t, src)

	vm.Dispatch(Submit{Mode: query.ModeFullText, Query: "slow"})
	slow := src.next(t)
	vm.Dispatch(Submit{Mode: query.ModeFullText, Query: "fast"})
	fast := src.next(t)

	fast.reply <- result{msgs: []store.Message{{ID: 2}}}
	waitFor(t, vm, func(s State) bool { return s.Status == StatusReady })

	var mu sync.Mutex
	var seen []State
	vm.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	slow.reply <- result{msgs: []store.Message{{ID: 1}}}

	// The stale reply still produces a reduction; wait for it.
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	s := vm.State()
	if s.Search.Query != "fast" || len(s.Messages) != 1 || s.Messages[0].ID != 2 {
		t.Errorf("stale response replaced newer one: %+v", s)
	}
}

func TestViewModelValidationSkipsFetch(t *testing.T) {
	var calls int
	var mu sync.Mutex
	vm := newTestVM(t, sourceFunc(func(ctx context.Context, plan query.Plan) ([]store.Message, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, nil
	}))

	vm.Dispatch(Submit{Mode: query.ModeSubstring, Query: "  "})
	s := vm.State()
	var ve *ValidationError
	if !errors.As(s.Err, &ve) {
		t.Fatalf("err = %v, want ValidationError", s.Err)
	}
	vm.Close()
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("source called %d times", calls)
	}
}

func TestViewModelReportsStoreError(t *testing.T) {
	boom := errors.New("database is locked")
	vm := newTestVM(t, sourceFunc(func(ctx context.Context, plan query.Plan) ([]store.Message, error) {
		return nil, boom
	}))
	vm.Start()
	s := waitFor(t, vm, func(s State) bool { return s.Status == StatusError })
	if !errors.Is(s.Err, boom) {
		t.Errorf("err = %v", s.Err)
	}
}

func TestViewModelRecoversPanic(t *testing.T) {
	vm := newTestVM(t, sourceFunc(func(ctx context.Context, plan query.Plan) ([]store.Message, error) {
		panic("driver exploded")
	}))
	vm.Start()
	s := waitFor(t, vm, func(s State) bool { return s.Status == StatusError })
	if s.Err == nil {
		t.Fatal("panic not reported")
	}
}

func TestViewModelCloseCancelsFetch(t *testing.T) {
	src := newGatedSource()
	vm := New(src, Options{Logger: testutil.DiscardLogger()})
	vm.Start()
	src.next(t)

	done := make(chan struct{})
	go func() {
		vm.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	if s := vm.State(); s.Status != StatusLoading {
		t.Errorf("canceled fetch changed state: %+v", s)
	}
	vm.Close()
}

func TestViewModelAutoRefresh(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the refresh interval")
	}
	var mu sync.Mutex
	var pages []int
	vm := New(sourceFunc(func(ctx context.Context, plan query.Plan) ([]store.Message, error) {
		mu.Lock()
		pages = append(pages, plan.Page)
		mu.Unlock()
		return nil, nil
	}), Options{RefreshInterval: time.Second, Logger: testutil.DiscardLogger()})
	defer vm.Close()

	vm.Dispatch(JumpPage{Page: 3})
	if err := vm.SetAutoRefresh(true); err != nil {
		t.Fatal(err)
	}
	if !vm.AutoRefresh() {
		t.Error("AutoRefresh() = false after enabling")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(pages)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := vm.SetAutoRefresh(false); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(pages) < 2 {
		t.Fatalf("refresh did not fire; fetched pages %v", pages)
	}
	for _, p := range pages {
		if p != 3 {
			t.Errorf("refresh fetched page %d, want 3", p)
		}
	}
}

func TestRender(t *testing.T) {
	a := annotate.New()
	a.SetDictionary(annotate.FromMap(map[string]string{"21D05": "Cardiac arrest"}))

	msgs := []store.Message{
		testutil.NewMessage(1).Content("CARDIAC ARREST 21D05M").Build(),
		testutil.NewMessage(2).At(time.Time{}).Content("plain").Build(),
	}
	rows := Render(msgs, a, Clock24h)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if annotate.Join(rows[0].Segments) != msgs[0].Content {
		t.Errorf("segments do not reproduce content")
	}
	var tooltip string
	for _, seg := range rows[0].Segments {
		if seg.Decorated() {
			tooltip = seg.Tooltip
		}
	}
	if tooltip != "Cardiac arrest" {
		t.Errorf("tooltip = %q", tooltip)
	}
	if rows[0].Color.Hex() == "" {
		t.Error("row has no color")
	}
	if rows[1].Received != "-" {
		t.Errorf("zero time rendered as %q", rows[1].Received)
	}
}

func TestFormatReceived(t *testing.T) {
	ts := time.Date(2024, 3, 1, 21, 5, 9, 0, time.Local)
	if got := FormatReceived(ts, Clock24h); got != "2024-03-01 21:05:09" {
		t.Errorf("24h = %q", got)
	}
	if got := FormatReceived(ts, Clock12h); got != "2024-03-01 09:05:09 PM" {
		t.Errorf("12h = %q", got)
	}
	if Clock24h.Toggle() != Clock12h || Clock12h.Toggle() != Clock24h {
		t.Error("Toggle does not alternate")
	}
}
