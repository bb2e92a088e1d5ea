package cmd

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/pokesag/pokesag/internal/api"
	"github.com/pokesag/pokesag/internal/config"
	"github.com/pokesag/pokesag/internal/remote"
	"github.com/pokesag/pokesag/internal/testutil"
)

// newTestRootCmd creates a fresh root command for testing, avoiding mutation
// of the global rootCmd which could cause race conditions in parallel tests.
func newTestRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pokesag",
		Short: "Pager message archive viewer",
	}
}

// TestExecuteContext_CancellationPropagates verifies that context cancellation
// from ExecuteContext propagates to command handlers.
func TestExecuteContext_CancellationPropagates(t *testing.T) {
	var contextWasCancelled atomic.Bool
	handlerStarted := make(chan struct{})

	testRoot := newTestRootCmd()
	testRoot.AddCommand(&cobra.Command{
		Use: "test-cancel",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			close(handlerStarted)
			select {
			case <-ctx.Done():
				contextWasCancelled.Store(true)
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		testRoot.SetArgs([]string{"test-cancel"})
		done <- testRoot.ExecuteContext(ctx)
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("command handler did not start in time")
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled error, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command did not return after cancellation")
	}
	if !contextWasCancelled.Load() {
		t.Error("handler did not observe cancellation")
	}
}

func TestIsRemoteMode(t *testing.T) {
	oldCfg, oldLocal := cfg, useLocal
	t.Cleanup(func() { cfg, useLocal = oldCfg, oldLocal })

	cfg = config.NewDefaultConfig()
	useLocal = false
	if IsRemoteMode() {
		t.Error("remote mode without a server URL")
	}
	cfg.Client.ServerURL = "http://pager:8000"
	if !IsRemoteMode() {
		t.Error("server URL set but not remote")
	}
	if err := MustBeLocal("serve"); err == nil || !strings.Contains(err.Error(), "--local") {
		t.Errorf("MustBeLocal = %v", err)
	}
	useLocal = true
	if IsRemoteMode() {
		t.Error("--local did not win")
	}
}

func TestOpenRemoteSourceUsesServerSettings(t *testing.T) {
	serverCfg := config.NewDefaultConfig()
	serverCfg.Client.PageSize = 25
	serverCfg.Client.RefreshInterval = config.Duration{Duration: 30 * time.Second}
	serverCfg.Server.RateLimitRPS = 1000
	serverCfg.Server.RateLimitBurst = 1000
	srv := api.NewServer(serverCfg, testutil.NewFixtureStore(t), testutil.DiscardLogger())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	oldCfg, oldLogger, oldLocal := cfg, logger, useLocal
	t.Cleanup(func() { cfg, logger, useLocal = oldCfg, oldLogger, oldLocal })
	cfg = config.NewDefaultConfig()
	cfg.Client.ServerURL = ts.URL
	logger = testutil.DiscardLogger()
	useLocal = false

	src, err := openPageSource(context.Background())
	if err != nil {
		t.Fatalf("openPageSource: %v", err)
	}
	defer src.Close()

	if _, ok := src.PageStore.(*remote.Store); !ok {
		t.Fatalf("source is %T, want *remote.Store", src.PageStore)
	}
	if src.planner.PageSize != 25 {
		t.Errorf("page size = %d, want the server's 25", src.planner.PageSize)
	}
	if src.refresh != 30*time.Second {
		t.Errorf("refresh = %s, want 30s", src.refresh)
	}
	if src.local != nil {
		t.Error("remote source has a local store")
	}
}
