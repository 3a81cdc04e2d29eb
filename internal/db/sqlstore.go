package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Drivers accepted by OpenSQL
const (
	DriverSQLite = "sqlite"
	DriverLibSQL = "libsql"
)

// SQLStore is the database/sql store used for local SQLite files and Turso (libSQL)
type SQLStore struct {
	db *sql.DB
}

// OpenSQL opens a SQLite file (driver "sqlite") or a Turso database (driver
// "libsql"), pings it and creates the tables
func OpenSQL(ctx context.Context, driver, dsn, authToken string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
	case DriverLibSQL:
		if authToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", dsn, authToken)
		}
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer at a time; also keeps ":memory:" databases on a single connection
		conn.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	s := &SQLStore{db: conn}
	if err := s.CreateTables(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CreateTables creates the required tables if they don't exist
func (s *SQLStore) CreateTables(ctx context.Context) error {
	for _, query := range sqlite.createStatements() {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// SaveMatch writes the match and all of its participants in one transaction.
// Returns ErrMatchExists if the match row is already present.
func (s *SQLStore) SaveMatch(ctx context.Context, m *Match, participants []Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, sqlite.insertMatchSQL(), matchValues(m, true)...)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMatchExists
	}

	if len(participants) > 0 {
		args := make([]interface{}, 0, len(participants)*len(participantColumns))
		for i := range participants {
			args = append(args, participantValues(&participants[i])...)
		}
		if _, err := tx.ExecContext(ctx, sqlite.insertParticipantsSQL(len(participants)), args...); err != nil {
			return fmt.Errorf("failed to insert participants of %s: %w", m.MatchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match %s: %w", m.MatchID, err)
	}
	return nil
}

// SaveRankSnapshot inserts a rank snapshot; an existing one is left untouched
func (s *SQLStore) SaveRankSnapshot(ctx context.Context, r *RankSnapshot) error {
	_, err := s.db.ExecContext(ctx, sqlite.insertRankSQL(), rankValues(r)...)
	return err
}

// ExistingMatchIDs returns which of ids are already stored
func (s *SQLStore) ExistingMatchIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, sqlite.existingMatchIDsSQL(len(ids)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// EachMatchID calls fn for every stored match id
func (s *SQLStore) EachMatchID(ctx context.Context, fn func(id string)) error {
	rows, err := s.db.QueryContext(ctx, `SELECT match_id FROM matches`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		fn(id)
	}
	return rows.Err()
}

// LatestGameCreation returns the newest game_creation stored for the player
func (s *SQLStore) LatestGameCreation(ctx context.Context, puuid string) (*int64, error) {
	return s.gameCreationBound(ctx, "MAX", puuid)
}

// OldestGameCreation returns the oldest game_creation stored for the player
func (s *SQLStore) OldestGameCreation(ctx context.Context, puuid string) (*int64, error) {
	return s.gameCreationBound(ctx, "MIN", puuid)
}

func (s *SQLStore) gameCreationBound(ctx context.Context, agg, puuid string) (*int64, error) {
	var bound sql.NullInt64
	if err := s.db.QueryRowContext(ctx, sqlite.gameCreationBoundSQL(agg), puuid).Scan(&bound); err != nil {
		return nil, err
	}
	if !bound.Valid {
		return nil, nil
	}
	return &bound.Int64, nil
}

// PlayerMatches returns a player's matches, newest first
func (s *SQLStore) PlayerMatches(ctx context.Context, puuid string, q PlayerMatchesQuery) ([]PlayerMatch, error) {
	query, args := sqlite.playerMatchesSQL(puuid, q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []PlayerMatch
	for rows.Next() {
		pm, err := scanPlayerMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, pm)
	}
	return matches, rows.Err()
}

// GetMatchDetail returns a match with all participants
func (s *SQLStore) GetMatchDetail(ctx context.Context, matchID string) (*MatchDetail, error) {
	var detail MatchDetail
	err := s.db.QueryRowContext(ctx, sqlite.matchSQL(), matchID).Scan(matchDest(&detail.Match)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, sqlite.matchParticipantsSQL(), matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		pd, err := scanParticipantDetail(rows)
		if err != nil {
			return nil, err
		}
		detail.Participants = append(detail.Participants, pd)
	}
	return &detail, rows.Err()
}

// GetCounts returns the row count of each table
func (s *SQLStore) GetCounts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, countsSQL).Scan(&c.Matches, &c.Participants, &c.Ranks)
	return c, err
}
