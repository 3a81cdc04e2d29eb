package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"matchsync/internal/config"
	"matchsync/internal/db"
	"matchsync/internal/ranks"
	"matchsync/internal/riot"
)

func main() {
	riotID := flag.String("riot-id", "", "Riot ID in format 'GameName#TagLine'")
	region := flag.String("region", "", "Platform code (na1, euw1, kr, ...); defaults to DEFAULT_PLATFORM")
	flag.Parse()

	if *riotID == "" {
		fmt.Println("Usage: go run ./cmd/rankcheck --riot-id=\"PlayerName#NA1\" [--region=na1]")
		os.Exit(1)
	}

	gameName, tagLine, err := riot.ParseRiotID(*riotID)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	platform := strings.ToLower(*region)
	if platform == "" {
		platform = cfg.DefaultPlatform
	}

	client, err := riot.NewClientFromEnv()
	if err != nil {
		log.Fatalf("Failed to create Riot client: %v", err)
	}

	ctx := context.Background()

	// Step 1: Get account info (PUUID)
	fmt.Printf("\n1. Looking up account: %s#%s\n", gameName, tagLine)
	account, err := client.GetAccountByRiotID(ctx, riot.RoutingRegion(platform), gameName, tagLine)
	if err != nil {
		log.Fatalf("Failed to get account: %v", err)
	}
	fmt.Printf("   PUUID: %s\n", account.PUUID)

	// Step 2: All ranked entries
	fmt.Printf("\n2. Getting ranked entries on %s...\n", platform)
	entries, err := client.GetLeagueEntries(ctx, platform, account.PUUID)
	if err != nil {
		log.Fatalf("Failed to get ranked entries: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("   No ranked entries found (unranked)")
	}
	for _, entry := range entries {
		fmt.Printf("   %s: %s\n", queueName(entry.QueueType), describe(ranks.FromEntry(&entry)))
	}

	// Step 3: Resolve through the cache, as syncs do
	var cache ranks.Cache = ranks.NewMemoryCache()
	if cfg.RedisURL != "" {
		rc, err := ranks.NewRedisCache(ctx, cfg.RedisURL, cfg.RankCacheTTL)
		if err != nil {
			log.Printf("   Redis unavailable, using memory cache: %v", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	resolver := ranks.NewResolver(client, cache, cfg.RankCacheTTL)

	fmt.Printf("\n3. Resolving solo queue rank (cache TTL %s)...\n", cfg.RankCacheTTL)
	for i := 1; i <= 2; i++ {
		rank, remote, err := resolver.Resolve(ctx, account.PUUID, platform)
		if err != nil {
			log.Fatalf("Failed to resolve rank: %v", err)
		}
		source := "cache"
		if remote {
			source = "remote"
		}
		fmt.Printf("   Lookup %d (%s): %s\n", i, source, describe(rank))
	}

	fmt.Println("\nDone!")
}

func queueName(queueType string) string {
	switch queueType {
	case "RANKED_SOLO_5x5":
		return "Solo/Duo"
	case "RANKED_FLEX_SR":
		return "Flex"
	}
	return queueType
}

func describe(rank *db.Rank) string {
	if rank == nil {
		return "Unranked"
	}
	return fmt.Sprintf("%s %s (%d LP) - %dW %dL", rank.Tier, rank.Rank, rank.LeaguePoints, rank.Wins, rank.Losses)
}
