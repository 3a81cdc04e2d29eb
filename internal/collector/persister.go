package collector

import (
	"context"
	"errors"
	"log"
	"time"

	"matchsync/internal/db"
	"matchsync/internal/ranks"
	"matchsync/internal/riot"
)

// Persister writes fetched matches and the rank snapshots of their participants
type Persister struct {
	store    Store
	known    *KnownMatches
	resolver *ranks.Resolver
	delay    time.Duration
}

// NewPersister creates a persister. known and resolver may be nil; without a
// resolver no rank snapshots are written.
func NewPersister(store Store, known *KnownMatches, resolver *ranks.Resolver, delay time.Duration) *Persister {
	return &Persister{store: store, known: known, resolver: resolver, delay: delay}
}

// Persist stores the match and all its participants in one transaction, then
// records a rank snapshot for each participant. It reports true only when the
// match and participants were committed; rank failures are logged.
func (p *Persister) Persist(ctx context.Context, platform string, m *riot.MatchResponse, raw []byte) bool {
	match := mapMatch(m, raw)
	participants := make([]db.Participant, len(m.Info.Participants))
	for i := range m.Info.Participants {
		participants[i] = mapParticipant(match.MatchID, i, &m.Info.Participants[i])
	}

	err := p.store.SaveMatch(ctx, match, participants)
	if errors.Is(err, db.ErrMatchExists) {
		log.Printf("[Persist] Match %s already stored", match.MatchID)
		p.markKnown(match.MatchID)
		return false
	}
	if err != nil {
		log.Printf("[Persist] Failed to save match %s: %v", match.MatchID, err)
		return false
	}
	p.markKnown(match.MatchID)

	p.saveRanks(ctx, platform, match.MatchID, participants)
	return true
}

func (p *Persister) markKnown(id string) {
	if p.known != nil {
		p.known.Add(id)
	}
}

func (p *Persister) saveRanks(ctx context.Context, platform, matchID string, participants []db.Participant) {
	if p.resolver == nil {
		return
	}

	saved := 0
	for i := range participants {
		if ctx.Err() != nil {
			return
		}
		part := &participants[i]
		if part.PUUID == riot.BotPUUID || part.PUUID == "" {
			continue
		}

		rank, remote, err := p.resolver.Resolve(ctx, part.PUUID, platform)
		if remote {
			if err := sleepCtx(ctx, p.delay); err != nil {
				return
			}
		}
		if err != nil {
			log.Printf("[Persist] Rank lookup failed for %s in %s: %v", shortPUUID(part.PUUID), matchID, err)
			continue
		}
		if rank == nil {
			continue
		}

		if err := p.store.SaveRankSnapshot(ctx, mapRank(matchID, part, rank)); err != nil {
			log.Printf("[Persist] Failed to save rank for %s in %s: %v", shortPUUID(part.PUUID), matchID, err)
			continue
		}
		saved++
	}
	log.Printf("[Persist] Match %s: %d participants, %d ranks", matchID, len(participants), saved)
}

// sleepCtx waits d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func shortPUUID(puuid string) string {
	if len(puuid) > 16 {
		return puuid[:16]
	}
	return puuid
}
