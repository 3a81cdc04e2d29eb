package collector

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestWatchSignals_CancelsAfterShutdown(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	var shutdownCalled atomic.Bool
	var ctxLiveDuringShutdown atomic.Bool

	ctx := watchSignals(context.Background(), sigCh, func(ctx context.Context) {
		shutdownCalled.Store(true)
		ctxLiveDuringShutdown.Store(ctx.Err() == nil)
	}, func() { t.Error("forceExit should not be called on first signal") })

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be cancelled initially")
	default:
	}

	sigCh <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Context should be cancelled after signal")
	}

	if !shutdownCalled.Load() {
		t.Error("Shutdown function should have been called")
	}
	if !ctxLiveDuringShutdown.Load() {
		t.Error("Context should still be live while shutdown runs")
	}
}

func TestWatchSignals_NilShutdown(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	ctx := watchSignals(context.Background(), sigCh, nil, func() {})

	sigCh <- syscall.SIGINT

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Context should be cancelled after signal")
	}
}

func TestWatchSignals_SecondSignalForcesExit(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	forced := make(chan struct{})
	ctx := watchSignals(context.Background(), sigCh, nil, func() { close(forced) })

	sigCh <- syscall.SIGINT
	<-ctx.Done()
	sigCh <- syscall.SIGINT

	select {
	case <-forced:
	case <-time.After(time.Second):
		t.Fatal("Second signal should force exit")
	}
}

func TestWatchSignals_ParentCancelled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	var shutdownCalled atomic.Bool
	ctx := watchSignals(parent, make(chan os.Signal), func(context.Context) { shutdownCalled.Store(true) }, func() {})

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Context should follow its parent")
	}
	if shutdownCalled.Load() {
		t.Error("Shutdown function should only run on a signal")
	}
}
