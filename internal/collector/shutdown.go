package collector

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is cancelled on SIGTERM or SIGINT.
// shutdownFunc, if set, runs before the context is cancelled. A second signal
// forces exit.
func SetupSignalHandler(parent context.Context, shutdownFunc func(context.Context)) context.Context {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	return watchSignals(parent, sigCh, shutdownFunc, func() { os.Exit(1) })
}

func watchSignals(parent context.Context, sigCh <-chan os.Signal, shutdownFunc func(context.Context), forceExit func()) context.Context {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("[Signal] Received %v, initiating graceful shutdown...", sig)
		case <-parent.Done():
			cancel()
			return
		}

		if shutdownFunc != nil {
			shutdownFunc(ctx)
		}
		cancel()

		sig := <-sigCh
		log.Printf("[Signal] Received second %v, forcing exit", sig)
		forceExit()
	}()

	return ctx
}
