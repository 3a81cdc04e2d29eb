package history

import (
	"context"
	"fmt"
	"math"

	"matchsync/internal/db"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Store is the read side of the match store
type Store interface {
	PlayerMatches(ctx context.Context, puuid string, q db.PlayerMatchesQuery) ([]db.PlayerMatch, error)
	GetMatchDetail(ctx context.Context, matchID string) (*db.MatchDetail, error)
}

// HistoryQuery selects a page of a player's history
type HistoryQuery struct {
	Limit    int    // default 20, max 100
	Cursor   *int64 // only matches with game_creation below this
	QueueIDs []int
}

// HistoryPage is one page of a player's history, newest first
type HistoryPage struct {
	Matches    []db.PlayerMatch `json:"matches"`
	HasMore    bool             `json:"hasMore"`
	NextCursor *int64           `json:"nextCursor"`
}

// StatsQuery selects the matches aggregated by GetPlayerStats
type StatsQuery struct {
	Limit    int // most recent matches, default 20
	QueueIDs []int
}

// PlayerStats is the recent form of a player
type PlayerStats struct {
	TotalGames int     `json:"totalGames"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	WinRate    int     `json:"winRate"` // percent
	AvgKDA     float64 `json:"avgKda"`
	AvgDamage  int     `json:"avgDamage"`
	AvgGold    int     `json:"avgGold"`
}

// Reader serves history and stats from the store
type Reader struct {
	store Store
}

// NewReader creates a reader over store
func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// GetMatchHistory returns up to q.Limit matches older than q.Cursor. One
// extra row is read to tell whether another page exists.
func (r *Reader) GetMatchHistory(ctx context.Context, puuid string, q HistoryQuery) (*HistoryPage, error) {
	limit := clampLimit(q.Limit)

	rows, err := r.store.PlayerMatches(ctx, puuid, db.PlayerMatchesQuery{
		Limit:    limit + 1,
		Before:   q.Cursor,
		QueueIDs: q.QueueIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read match history: %w", err)
	}

	page := &HistoryPage{Matches: rows}
	if len(rows) > limit {
		page.Matches = rows[:limit]
		page.HasMore = true
		next := page.Matches[limit-1].Match.GameCreation
		page.NextCursor = &next
	}
	if page.Matches == nil {
		page.Matches = []db.PlayerMatch{}
	}
	return page, nil
}

// GetPlayerStats aggregates the player's most recent matches. With no matches
// every field is zero.
func (r *Reader) GetPlayerStats(ctx context.Context, puuid string, q StatsQuery) (*PlayerStats, error) {
	rows, err := r.store.PlayerMatches(ctx, puuid, db.PlayerMatchesQuery{
		Limit:    clampLimit(q.Limit),
		QueueIDs: q.QueueIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read matches for stats: %w", err)
	}
	return aggregate(rows), nil
}

func aggregate(rows []db.PlayerMatch) *PlayerStats {
	stats := &PlayerStats{TotalGames: len(rows)}
	if len(rows) == 0 {
		return stats
	}

	var kda float64
	var damage, gold int
	for _, row := range rows {
		p := row.Participant
		if p.Win {
			stats.Wins++
		}
		kda += p.KDA
		damage += p.TotalDamageDealtToChampions
		gold += p.GoldEarned
	}

	n := float64(len(rows))
	stats.Losses = stats.TotalGames - stats.Wins
	stats.WinRate = int(math.Round(float64(stats.Wins) / n * 100))
	stats.AvgKDA = math.Round(kda/n*100) / 100
	stats.AvgDamage = int(math.Round(float64(damage) / n))
	stats.AvgGold = int(math.Round(float64(gold) / n))
	return stats
}

// GetMatchByID returns the match with all participants and their rank
// snapshots, or db.ErrNotFound
func (r *Reader) GetMatchByID(ctx context.Context, matchID string) (*db.MatchDetail, error) {
	return r.store.GetMatchDetail(ctx, matchID)
}
