package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/refresh"
	"github.com/pokesag/pokesag/internal/store"
)

// PageSource is where pages come from: the local SQLite store or a remote
// server.
type PageSource interface {
	Pages(ctx context.Context, plan query.Plan) ([]store.Message, error)
}

// Options configures a ViewModel.
type Options struct {
	Planner         query.Planner
	Annotator       *annotate.Annotator
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// ViewModel applies events to State one at a time and runs the fetches the
// reducer asks for. Each fetch runs on its own goroutine and reports back
// through Loaded, where stale results are discarded.
type ViewModel struct {
	source    PageSource
	planner   query.Planner
	annotator *annotate.Annotator
	refresher *refresh.Refresher
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	state     State
	listeners []func(State)
	closed    bool
}

// New creates a ViewModel over source. Call Start to issue the first
// request and Close to release it.
func New(source PageSource, opts Options) *ViewModel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	annotator := opts.Annotator
	if annotator == nil {
		annotator = annotate.New().WithLogger(logger)
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ViewModel{
		source:    source,
		planner:   opts.Planner,
		annotator: annotator,
		refresher: refresh.New(interval).WithLogger(logger),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     Initial(),
	}
}

// Subscribe registers fn to receive every new state. Listeners run on the
// goroutine that dispatched the event, outside the ViewModel's lock, so two
// snapshots may arrive out of order; compare State.Version.
func (vm *ViewModel) Subscribe(fn func(State)) {
	vm.mu.Lock()
	vm.listeners = append(vm.listeners, fn)
	vm.mu.Unlock()
}

// State returns the current snapshot.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Annotator returns the annotator used by Rows.
func (vm *ViewModel) Annotator() *annotate.Annotator {
	return vm.annotator
}

// Start loads the latest pages.
func (vm *ViewModel) Start() {
	vm.Dispatch(Clear{})
}

// Dispatch applies e and starts any fetch it requires.
func (vm *ViewModel) Dispatch(e Event) {
	vm.mu.Lock()
	next, req := Reduce(vm.state, e)
	vm.state = next
	listeners := append([]func(State){}, vm.listeners...)
	if req != nil && !vm.closed {
		vm.wg.Add(1)
		go vm.fetch(*req)
	}
	vm.mu.Unlock()

	if v, ok := e.(Loaded); ok && v.Seq != next.Seq {
		vm.logger.Debug("discarding stale response", "seq", v.Seq, "current", next.Seq)
	}
	for _, fn := range listeners {
		fn(next)
	}
}

// fetch runs one request. Panics in the source become errors so they never
// escape the ViewModel.
func (vm *ViewModel) fetch(req Request) {
	defer vm.wg.Done()

	plan := vm.planner.Plan(req.Search)
	msgs, err := func() (msgs []store.Message, err error) {
		defer func() {
			if r := recover(); r != nil {
				vm.logger.Error("page fetch panic", "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("page fetch panic: %v", r)
			}
		}()
		return vm.source.Pages(vm.ctx, plan)
	}()
	if err != nil && vm.ctx.Err() != nil {
		return
	}
	if err != nil {
		vm.logger.Warn("page fetch failed", "mode", plan.Mode.String(), "page", plan.Page, "error", err)
	}
	vm.Dispatch(Loaded{Seq: req.Seq, Messages: msgs, Err: err})
}

// SetAutoRefresh turns periodic Refresh events on or off. Turning it off
// leaves in-flight requests alone; their results are fenced as usual.
func (vm *ViewModel) SetAutoRefresh(on bool) error {
	if !on {
		vm.refresher.Disable()
		return nil
	}
	return vm.refresher.Enable(func() { vm.Dispatch(Refresh{}) })
}

// AutoRefresh reports whether periodic refresh is on.
func (vm *ViewModel) AutoRefresh() bool {
	return vm.refresher.Enabled()
}

// RefreshInterval returns the auto-refresh period.
func (vm *ViewModel) RefreshInterval() time.Duration {
	return vm.refresher.Interval()
}

// Close stops auto-refresh, cancels outstanding fetches and waits for them.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	vm.mu.Unlock()

	<-vm.refresher.Stop().Done()
	vm.cancel()
	vm.wg.Wait()
}
