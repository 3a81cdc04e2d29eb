package collector

import (
	"context"
	"log"

	"matchsync/internal/riot"
)

// Remote is the part of the Riot API the sync engine calls. *riot.Client
// satisfies it.
type Remote interface {
	ListMatchIDs(ctx context.Context, routing, puuid string, q riot.MatchIDQuery) ([]string, error)
	GetMatch(ctx context.Context, routing, matchID string) (*riot.MatchResponse, []byte, error)
	GetSoloQueueRank(ctx context.Context, platform, puuid string) (*riot.LeagueEntryResponse, error)
}

// RemoteFunc returns the remote API authenticated with apiKey
type RemoteFunc func(apiKey string) Remote

// ClientRemote binds each key to a copy of client sharing its rate limiters.
// An empty key uses the client's own key.
func ClientRemote(client *riot.Client) RemoteFunc {
	return func(apiKey string) Remote {
		return client.WithAPIKey(apiKey)
	}
}

// Lister pages through a player's match ids
type Lister struct {
	remote Remote
}

// NewLister creates a lister over remote
func NewLister(remote Remote) *Lister {
	return &Lister{remote: remote}
}

// ListMatchIDs returns one page of match ids, newest first. On a remote error
// the error is logged and an empty slice is returned with it, so callers that
// only look at ids see "no ids".
func (l *Lister) ListMatchIDs(ctx context.Context, puuid, routing string, q riot.MatchIDQuery) ([]string, error) {
	q.Count = riot.ClampCount(q.Count)
	ids, err := l.remote.ListMatchIDs(ctx, routing, puuid, q)
	if err != nil {
		log.Printf("[Lister] Failed to list matches for %s (start=%d count=%d): %v",
			shortPUUID(puuid), q.Start, q.Count, err)
		return []string{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
