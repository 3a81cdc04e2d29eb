package collector

import (
	"context"

	"matchsync/internal/db"
)

// Store is the persistence the sync engine needs. Both db.DB and db.SQLStore
// satisfy it.
type Store interface {
	SaveMatch(ctx context.Context, m *db.Match, participants []db.Participant) error
	SaveRankSnapshot(ctx context.Context, r *db.RankSnapshot) error
	ExistingMatchIDs(ctx context.Context, ids []string) (map[string]bool, error)
	EachMatchID(ctx context.Context, fn func(id string)) error
	LatestGameCreation(ctx context.Context, puuid string) (*int64, error)
	OldestGameCreation(ctx context.Context, puuid string) (*int64, error)
}
