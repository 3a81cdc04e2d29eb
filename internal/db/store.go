package db

import (
	"context"
	"log"
)

// Store is implemented by the Postgres DB and the database/sql SQLStore
type Store interface {
	CreateTables(ctx context.Context) error
	SaveMatch(ctx context.Context, m *Match, participants []Participant) error
	SaveRankSnapshot(ctx context.Context, r *RankSnapshot) error
	ExistingMatchIDs(ctx context.Context, ids []string) (map[string]bool, error)
	EachMatchID(ctx context.Context, fn func(id string)) error
	LatestGameCreation(ctx context.Context, puuid string) (*int64, error)
	OldestGameCreation(ctx context.Context, puuid string) (*int64, error)
	PlayerMatches(ctx context.Context, puuid string, q PlayerMatchesQuery) ([]PlayerMatch, error)
	GetMatchDetail(ctx context.Context, matchID string) (*MatchDetail, error)
	GetCounts(ctx context.Context) (Counts, error)
	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*SQLStore)(nil)
)

// Open connects to Postgres when databaseURL is set, otherwise opens driver
// (sqlite or libsql) at dsn. Tables are created if missing.
func Open(ctx context.Context, databaseURL, driver, dsn, authToken string) (Store, error) {
	if databaseURL != "" {
		pg, err := New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.CreateTables(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		log.Println("[DB] Using Postgres store")
		return pg, nil
	}

	s, err := OpenSQL(ctx, driver, dsn, authToken)
	if err != nil {
		return nil, err
	}
	log.Printf("[DB] Using %s store", driver)
	return s, nil
}
