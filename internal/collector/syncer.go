package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"matchsync/internal/ranks"
	"matchsync/internal/riot"
)

const (
	DefaultSyncCount             = 20
	DefaultRequestDelay          = 100 * time.Millisecond
	DefaultBackfillBatchSize     = 20
	DefaultMaxBackfillIterations = 10

	week = 7 * 24 * time.Hour
)

// Config holds configuration for the sync engine
type Config struct {
	// RequestDelay is the pause after every match fetch and remote rank lookup (default: 100ms)
	RequestDelay time.Duration
	// BackfillBatchSize is the page size of backfill listings (default: 20)
	BackfillBatchSize int
	// MaxBackfillIterations bounds the listing calls of one backfill (default: 10)
	MaxBackfillIterations int
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestDelay:          DefaultRequestDelay,
		BackfillBatchSize:     DefaultBackfillBatchSize,
		MaxBackfillIterations: DefaultMaxBackfillIterations,
	}
}

// SyncRequest describes one sync of a player's match history
type SyncRequest struct {
	PUUID       string
	Platform    string // e.g. na1, euw1
	APIKey      string // empty uses the server's key
	Count       int    // ids to list, 1..100 (default: 20)
	EnsureWeeks int    // backfill until this many weeks are stored; <= 0 disables backfill
}

// SyncResult reports what a sync did. A sync always returns a result; Error
// carries a message when something went wrong.
type SyncResult struct {
	Success      bool   `json:"success"`
	NewMatches   int    `json:"newMatches"`
	TotalMatches int    `json:"totalMatches"`
	Backfilled   int    `json:"backfilled"`
	Error        string `json:"error,omitempty"`
}

// Syncer keeps the store in step with a player's remote match history
type Syncer struct {
	remote   RemoteFunc
	store    Store
	known    *KnownMatches
	resolver *ranks.Resolver
	notify   NotifyFunc
	cfg      Config
	now      func() time.Time
}

// Option configures a Syncer
type Option func(*Syncer)

// WithKnownMatches shares an existence filter, e.g. one warmed at startup
func WithKnownMatches(k *KnownMatches) Option {
	return func(s *Syncer) {
		s.known = k
	}
}

// WithResolver enables rank snapshots
func WithResolver(r *ranks.Resolver) Option {
	return func(s *Syncer) {
		s.resolver = r
	}
}

// WithNotifier sets the function called when the API key is rejected
func WithNotifier(fn NotifyFunc) Option {
	return func(s *Syncer) {
		s.notify = fn
	}
}

// NewSyncer creates a sync engine. A zero batch size or iteration bound takes
// its default; a zero RequestDelay disables pacing.
func NewSyncer(remote RemoteFunc, store Store, cfg Config, opts ...Option) *Syncer {
	def := DefaultConfig()
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 0
	}
	if cfg.BackfillBatchSize <= 0 {
		cfg.BackfillBatchSize = def.BackfillBatchSize
	}
	cfg.BackfillBatchSize = riot.ClampCount(cfg.BackfillBatchSize)
	if cfg.MaxBackfillIterations <= 0 {
		cfg.MaxBackfillIterations = def.MaxBackfillIterations
	}

	s := &Syncer{
		remote: remote,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.known == nil {
		s.known = NewKnownMatches(store, 0)
	}
	return s
}

// syncRun is the per-call state of one Sync or Backfill
type syncRun struct {
	req       SyncRequest
	routing   string
	remote    Remote
	lister    *Lister
	persister *Persister
	notified  bool
}

func (s *Syncer) newRun(req SyncRequest) *syncRun {
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	remote := s.remote(req.APIKey)

	var resolver *ranks.Resolver
	if s.resolver != nil {
		resolver = s.resolver.WithSource(remote)
	}

	return &syncRun{
		req:       req,
		routing:   riot.RoutingRegion(req.Platform),
		remote:    remote,
		lister:    NewLister(remote),
		persister: NewPersister(s.store, s.known, resolver, s.cfg.RequestDelay),
	}
}

// observe notifies once per run when the API key was rejected
func (s *Syncer) observe(ctx context.Context, run *syncRun, err error) {
	if run.notified || s.notify == nil || !IsAPIKeyError(err) {
		return
	}
	run.notified = true
	msg := fmt.Sprintf("Riot API key rejected while syncing %s on %s: %v", shortPUUID(run.req.PUUID), run.req.Platform, err)
	if nerr := s.notify(ctx, msg); nerr != nil {
		log.Printf("[Sync] Failed to send notification: %v", nerr)
	}
}

// Sync fetches the player's matches newer than the newest stored one, then
// backfills older history to req.EnsureWeeks. Callers must not run two syncs
// for the same player at once (see PlayerLocks).
func (s *Syncer) Sync(ctx context.Context, req SyncRequest) (res SyncResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Sync] Recovered from panic for %s: %v", shortPUUID(req.PUUID), r)
			res.Success = false
			res.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	if req.PUUID == "" {
		return SyncResult{Error: "puuid is required"}
	}
	if req.Count <= 0 {
		req.Count = DefaultSyncCount
	}
	run := s.newRun(req)
	start := time.Now()

	latest, err := s.store.LatestGameCreation(ctx, req.PUUID)
	if err != nil {
		return SyncResult{Error: fmt.Sprintf("failed to read latest match: %v", err)}
	}

	q := riot.MatchIDQuery{Count: req.Count}
	// startTime has second precision. The newest stored match comes back
	// in the listing and is dropped as known, along with any game created
	// in the same second that is not.
	if latest != nil {
		q.StartTime = *latest / 1000
	}

	ids, err := run.lister.ListMatchIDs(ctx, req.PUUID, run.routing, q)
	if err != nil {
		s.observe(ctx, run, err)
		return SyncResult{Error: fmt.Sprintf("failed to list matches: %v", err)}
	}
	res.TotalMatches = len(ids)

	if len(ids) == 0 {
		log.Printf("[Sync] %s is up to date", shortPUUID(req.PUUID))
	} else {
		unknown, err := s.known.Unknown(ctx, ids)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.NewMatches = s.fetchAndPersist(ctx, run, unknown)
	}

	res.Backfilled, err = s.backfill(ctx, run)
	if err != nil {
		res.Error = fmt.Sprintf("backfill stopped early: %v", err)
	}
	if ctx.Err() != nil {
		res.Error = ctx.Err().Error()
		return res
	}

	res.Success = true
	log.Printf("[Sync] %s: %d listed, %d new, %d backfilled in %s",
		shortPUUID(req.PUUID), res.TotalMatches, res.NewMatches, res.Backfilled, time.Since(start).Round(time.Millisecond))
	return res
}

// Backfill walks backward through the player's history until the oldest
// stored match is at least req.EnsureWeeks old, the remote history runs out,
// or the iteration bound is reached. It returns the number of matches stored.
func (s *Syncer) Backfill(ctx context.Context, req SyncRequest) (int, error) {
	return s.backfill(ctx, s.newRun(req))
}

func (s *Syncer) backfill(ctx context.Context, run *syncRun) (int, error) {
	if run.req.EnsureWeeks <= 0 {
		return 0, nil
	}
	threshold := s.now().Add(-time.Duration(run.req.EnsureWeeks) * week).UnixMilli()

	backfilled := 0
	offset := 0
	for i := 0; i < s.cfg.MaxBackfillIterations; i++ {
		if err := ctx.Err(); err != nil {
			return backfilled, err
		}

		oldest, err := s.store.OldestGameCreation(ctx, run.req.PUUID)
		if err != nil {
			return backfilled, fmt.Errorf("failed to read oldest match: %w", err)
		}
		if oldest != nil && *oldest <= threshold {
			log.Printf("[Backfill] %s covers %d weeks", shortPUUID(run.req.PUUID), run.req.EnsureWeeks)
			return backfilled, nil
		}

		ids, err := run.lister.ListMatchIDs(ctx, run.req.PUUID, run.routing, riot.MatchIDQuery{
			Start: offset,
			Count: s.cfg.BackfillBatchSize,
		})
		if err != nil {
			s.observe(ctx, run, err)
			return backfilled, err
		}
		if len(ids) == 0 {
			log.Printf("[Backfill] %s: remote history exhausted at offset %d", shortPUUID(run.req.PUUID), offset)
			return backfilled, nil
		}
		offset += s.cfg.BackfillBatchSize

		unknown, err := s.known.Unknown(ctx, ids)
		if err != nil {
			return backfilled, err
		}
		if len(unknown) == 0 {
			continue
		}
		backfilled += s.fetchAndPersist(ctx, run, unknown)
	}

	log.Printf("[Backfill] %s: stopped after %d iterations", shortPUUID(run.req.PUUID), s.cfg.MaxBackfillIterations)
	return backfilled, nil
}

// fetchAndPersist fetches and stores ids in order, pausing after each fetch
func (s *Syncer) fetchAndPersist(ctx context.Context, run *syncRun, ids []string) int {
	stored := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		m, raw, err := run.remote.GetMatch(ctx, run.routing, id)
		if err != nil {
			log.Printf("[Sync] Failed to fetch match %s: %v", id, err)
			s.observe(ctx, run, err)
		} else if run.persister.Persist(ctx, run.req.Platform, m, raw) {
			stored++
		}

		if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
			break
		}
	}
	return stored
}
