package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"matchsync/internal/collector"
	"matchsync/internal/config"
	"matchsync/internal/db"
	"matchsync/internal/ranks"
	"matchsync/internal/riot"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

func main() {
	riotIDs := flag.String("riot-id", "", "Comma-separated Riot IDs (e.g., 'Player#NA1')")
	puuids := flag.String("puuid", "", "Comma-separated PUUIDs")
	region := flag.String("region", "", "Platform code (na1, euw1, kr, ...); defaults to DEFAULT_PLATFORM")
	count := flag.Int("count", collector.DefaultSyncCount, "Number of new match IDs to list (1-100)")
	weeks := flag.Int("weeks", 0, "Backfill until this many weeks of history are stored (0 disables)")
	parallel := flag.Int("parallel", 2, "Players synced at once")
	noRanks := flag.Bool("no-ranks", false, "Skip rank snapshots")
	flag.Parse()

	if *riotIDs == "" && *puuids == "" {
		fmt.Println("Usage:")
		fmt.Println("  sync --riot-id='Player#NA1' [--region=na1] [--count=20] [--weeks=4]")
		fmt.Println("  sync --puuid=PUUID[,PUUID...] [--region=na1] [--count=20] [--weeks=4]")
		fmt.Println()
		fmt.Println("Store, API key and pacing are read from .env (see config).")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.RiotAPIKey == "" {
		log.Fatal("RIOT_API_KEY or RIOT-DEV-KEY environment variable not set")
	}
	platform := strings.ToLower(*region)
	if platform == "" {
		platform = cfg.DefaultPlatform
	}
	if !riot.KnownPlatform(platform) {
		log.Printf("Unknown region %q, requests will use the americas routing region", platform)
	}

	ctx := collector.SetupSignalHandler(context.Background(), func(context.Context) {
		fmt.Println("\n[Shutdown] Stopping after the current request...")
	})

	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.StoreDriver, cfg.StoreDSN, cfg.TursoAuthToken)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	client := riot.NewClient(cfg.RiotAPIKey)
	fmt.Printf("Using API key %s, store %s, region %s\n", client.MaskedKey(), cfg.StoreName(), platform)

	targets := splitList(*puuids)
	for _, id := range splitList(*riotIDs) {
		gameName, tagLine, err := riot.ParseRiotID(id)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Looking up Riot ID: %s#%s...\n", gameName, tagLine)
		account, err := client.GetAccountByRiotID(ctx, riot.RoutingRegion(platform), gameName, tagLine)
		if err != nil {
			log.Fatalf("Failed to lookup %s: %v", id, err)
		}
		fmt.Printf("  Found PUUID: %s\n", account.PUUID)
		targets = append(targets, account.PUUID)
	}

	var opts []collector.Option
	if !*noRanks {
		opts = append(opts, collector.WithResolver(ranks.NewResolver(client, nil, cfg.RankCacheTTL)))
	}
	syncer := collector.NewSyncer(collector.ClientRemote(client), store, cfg.SyncConfig(), opts...)
	locks := collector.NewPlayerLocks()

	var mu sync.Mutex
	results := make(map[string]collector.SyncResult, len(targets))
	start := time.Now()

	g := new(errgroup.Group)
	g.SetLimit(max(*parallel, 1))
	for _, puuid := range targets {
		g.Go(func() error {
			// A player listed twice is skipped while its first sync runs
			if !locks.TryLock(puuid) {
				return nil
			}
			defer locks.Unlock(puuid)

			res := syncer.Sync(ctx, collector.SyncRequest{
				PUUID:       puuid,
				Platform:    platform,
				Count:       *count,
				EnsureWeeks: *weeks,
			})
			mu.Lock()
			results[puuid] = res
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Printf("Failed to encode results: %v", err)
	} else {
		fmt.Println(string(out))
	}
	fmt.Printf("Finished %d player(s) in %s\n", len(results), time.Since(start).Round(time.Millisecond))

	for _, res := range results {
		if !res.Success {
			store.Close()
			os.Exit(1)
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
