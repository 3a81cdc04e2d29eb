package main

import (
	"context"
	"log"
	"net"
	"time"

	"matchsync/internal/api"
	"matchsync/internal/collector"
	"matchsync/internal/config"
	"matchsync/internal/db"
	"matchsync/internal/history"
	"matchsync/internal/notify"
	"matchsync/internal/ranks"
	"matchsync/internal/riot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.RiotAPIKey == "" {
		log.Fatal("RIOT_API_KEY or RIOT-DEV-KEY environment variable not set")
	}

	ctx := collector.SetupSignalHandler(context.Background(), nil)

	client := riot.NewClient(cfg.RiotAPIKey)
	valid, err := riot.NewKeyValidator().ValidateKey(ctx, cfg.DefaultPlatform, cfg.RiotAPIKey)
	switch {
	case err != nil:
		log.Printf("[Server] Could not validate API key %s: %v", client.MaskedKey(), err)
	case !valid:
		log.Printf("[Server] API key %s was rejected; syncs will fail until it is replaced", client.MaskedKey())
	}

	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.StoreDriver, cfg.StoreDSN, cfg.TursoAuthToken)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	var cache ranks.Cache = ranks.NewMemoryCache()
	if cfg.RedisURL != "" {
		rc, err := ranks.NewRedisCache(ctx, cfg.RedisURL, cfg.RankCacheTTL)
		if err != nil {
			log.Printf("[Server] Redis unavailable, caching ranks in memory: %v", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	resolver := ranks.NewResolver(client, cache, cfg.RankCacheTTL)

	known := collector.NewKnownMatches(store, 0)
	warmStart := time.Now()
	if n, err := known.Warm(ctx); err != nil {
		log.Printf("[Server] Failed to warm match filter, falling back to store lookups: %v", err)
	} else {
		log.Printf("[Server] Loaded %d match IDs into filter in %s", n, time.Since(warmStart).Round(time.Millisecond))
	}

	opts := []collector.Option{
		collector.WithKnownMatches(known),
		collector.WithResolver(resolver),
	}
	if cfg.DiscordWebhookURL != "" {
		webhook := notify.NewWebhookClient(cfg.DiscordWebhookURL)
		opts = append(opts, collector.WithNotifier(webhook.Notify))
		if valid {
			if err := webhook.Send(ctx, notify.NewServerStartedPayload(client.MaskedKey(), cfg.StoreName())); err != nil {
				log.Printf("[Server] Failed to send startup notification: %v", err)
			}
		}
	}

	syncer := collector.NewSyncer(collector.ClientRemote(client), store, cfg.SyncConfig(), opts...)

	srv := api.New(api.Options{
		Syncer:          syncer,
		Reader:          history.NewReader(store),
		Accounts:        client,
		Counts:          store,
		DefaultPlatform: cfg.DefaultPlatform,
		SyncTimeout:     cfg.SyncTimeout,
		CORSOrigins:     cfg.CORSOrigins,
	})

	httpServer := api.NewHTTPServer(ctx, ":"+cfg.Port, srv.Handler())
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", httpServer.Addr, err)
	}

	log.Printf("[Server] Listening on http://localhost:%s (store: %s)", cfg.Port, cfg.StoreName())
	if err := api.Serve(ctx, httpServer, ln, 30*time.Second); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("[Server] Stopped")
}
