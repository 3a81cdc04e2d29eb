package ranks

import (
	"context"
	"log"
	"time"

	"matchsync/internal/db"
	"matchsync/internal/riot"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a resolved rank stays fresh
const DefaultTTL = 10 * time.Minute

// Source looks up a player's current solo queue entry. *riot.Client satisfies it.
type Source interface {
	GetSoloQueueRank(ctx context.Context, platform, puuid string) (*riot.LeagueEntryResponse, error)
}

// Resolver answers "what is this player's rank right now" from the cache when
// the cached entry is fresh, otherwise from the Source.
type Resolver struct {
	source Source
	cache  Cache
	ttl    time.Duration
	group  *singleflight.Group
	now    func() time.Time
}

type lookup struct {
	rank   *db.Rank
	remote bool
}

// NewResolver creates a resolver. A nil cache uses a MemoryCache and a
// non-positive ttl uses DefaultTTL.
func NewResolver(source Source, cache Cache, ttl time.Duration) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		source: source,
		cache:  cache,
		ttl:    ttl,
		group:  &singleflight.Group{},
		now:    time.Now,
	}
}

// WithSource returns a resolver that shares this one's cache but looks ranks
// up through source, e.g. a client carrying another API key
func (r *Resolver) WithSource(source Source) *Resolver {
	cp := *r
	cp.source = source
	return &cp
}

// Resolve returns the player's solo queue rank (nil when unranked) and whether
// a remote lookup was made. Concurrent lookups of the same player share one
// remote call.
func (r *Resolver) Resolve(ctx context.Context, puuid, platform string) (*db.Rank, bool, error) {
	key := CacheKey(platform, puuid)

	e, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		log.Printf("[Ranks] Cache read failed for %s: %v", key, err)
	}
	if ok && r.now().Sub(e.RefreshedAt) < r.ttl {
		return e.Rank, false, nil
	}

	if r.source == nil {
		log.Printf("[Ranks] No rank source configured, skipping lookup for %s", shortID(puuid))
		return nil, false, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		entry, err := r.source.GetSoloQueueRank(ctx, platform, puuid)
		if err != nil {
			return nil, err
		}

		rank := FromEntry(entry)
		if err := r.cache.Set(ctx, key, Entry{Rank: rank, RefreshedAt: r.now()}); err != nil {
			log.Printf("[Ranks] Cache write failed for %s: %v", key, err)
		}
		return lookup{rank: rank, remote: true}, nil
	})
	if err != nil {
		// The lookup was still attempted remotely
		return nil, true, err
	}

	res := v.(lookup)
	return res.rank, res.remote, nil
}

// FromEntry converts a league entry into a Rank; nil stays nil
func FromEntry(entry *riot.LeagueEntryResponse) *db.Rank {
	if entry == nil {
		return nil
	}
	return &db.Rank{
		QueueType:    entry.QueueType,
		Tier:         entry.Tier,
		Rank:         entry.Rank,
		LeaguePoints: entry.LeaguePoints,
		Wins:         entry.Wins,
		Losses:       entry.Losses,
	}
}

func shortID(puuid string) string {
	if len(puuid) > 16 {
		return puuid[:16]
	}
	return puuid
}
