package db

import (
	"fmt"
	"strings"
)

// dialect captures the differences between Postgres and SQLite/libSQL that
// matter to the queries below
type dialect struct {
	placeholder func(n int) string // n is 1-based
	types       map[string]string
}

var postgres = dialect{
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	types: map[string]string{
		"text":   "TEXT",
		"int":    "INTEGER",
		"bigint": "BIGINT",
		"real":   "DOUBLE PRECISION",
		"bool":   "BOOLEAN",
		"json":   "JSON",
	},
}

var sqlite = dialect{
	placeholder: func(int) string { return "?" },
	types: map[string]string{
		"text":   "TEXT",
		"int":    "INTEGER",
		"bigint": "INTEGER",
		"real":   "REAL",
		"bool":   "INTEGER",
		"json":   "TEXT",
	},
}

type column struct {
	name string
	kind string
}

var matchColumns = []column{
	{"match_id", "text"},
	{"data_version", "text"},
	{"game_creation", "bigint"},
	{"game_duration", "int"},
	{"game_mode", "text"},
	{"queue_id", "int"},
	{"full_json", "json"},
}

// participantColumns, participantValues and participantDest must stay in the same order
var participantColumns = []column{
	{"match_id", "text"},
	{"participant_id", "int"},
	{"puuid", "text"},
	{"summoner_id", "text"},
	{"riot_id_game_name", "text"},
	{"riot_id_tagline", "text"},
	{"champion_id", "int"},
	{"champion_name", "text"},
	{"team_id", "int"},
	{"win", "bool"},
	{"kills", "int"},
	{"deaths", "int"},
	{"assists", "int"},
	{"kda", "real"},
	{"total_damage_dealt", "int"},
	{"total_damage_to_champions", "int"},
	{"gold_earned", "int"},
	{"vision_score", "int"},
	{"total_minions_killed", "int"},
	{"item0", "int"},
	{"item1", "int"},
	{"item2", "int"},
	{"item3", "int"},
	{"item4", "int"},
	{"item5", "int"},
	{"item6", "int"},
	{"summoner1_id", "int"},
	{"summoner2_id", "int"},
	{"perk_primary_style", "int"},
	{"perk_sub_style", "int"},
	{"lane", "text"},
	{"role", "text"},
	{"team_position", "text"},
	{"all_in_pings", "int"},
	{"assist_me_pings", "int"},
	{"basic_pings", "int"},
	{"command_pings", "int"},
	{"danger_pings", "int"},
	{"enemy_missing_pings", "int"},
	{"enemy_vision_pings", "int"},
	{"get_back_pings", "int"},
	{"hold_pings", "int"},
	{"need_vision_pings", "int"},
	{"on_my_way_pings", "int"},
	{"push_pings", "int"},
	{"vision_cleared_pings", "int"},
}

func participantValues(p *Participant) []interface{} {
	return []interface{}{
		p.MatchID, p.ParticipantID, p.PUUID, p.SummonerID, p.RiotIDGameName, p.RiotIDTagline,
		p.ChampionID, p.ChampionName, p.TeamID, p.Win,
		p.Kills, p.Deaths, p.Assists, p.KDA,
		p.TotalDamageDealt, p.TotalDamageDealtToChampions, p.GoldEarned, p.VisionScore, p.TotalMinionsKilled,
		p.Items[0], p.Items[1], p.Items[2], p.Items[3], p.Items[4], p.Items[5], p.Items[6],
		p.Summoner1ID, p.Summoner2ID, p.PerkPrimaryStyle, p.PerkSubStyle,
		p.Lane, p.Role, p.TeamPosition,
		p.Pings.AllIn, p.Pings.AssistMe, p.Pings.Basic, p.Pings.Command, p.Pings.Danger,
		p.Pings.EnemyMissing, p.Pings.EnemyVision, p.Pings.GetBack, p.Pings.Hold,
		p.Pings.NeedVision, p.Pings.OnMyWay, p.Pings.Push, p.Pings.VisionCleared,
	}
}

func participantDest(p *Participant) []interface{} {
	return []interface{}{
		&p.MatchID, &p.ParticipantID, &p.PUUID, &p.SummonerID, &p.RiotIDGameName, &p.RiotIDTagline,
		&p.ChampionID, &p.ChampionName, &p.TeamID, &p.Win,
		&p.Kills, &p.Deaths, &p.Assists, &p.KDA,
		&p.TotalDamageDealt, &p.TotalDamageDealtToChampions, &p.GoldEarned, &p.VisionScore, &p.TotalMinionsKilled,
		&p.Items[0], &p.Items[1], &p.Items[2], &p.Items[3], &p.Items[4], &p.Items[5], &p.Items[6],
		&p.Summoner1ID, &p.Summoner2ID, &p.PerkPrimaryStyle, &p.PerkSubStyle,
		&p.Lane, &p.Role, &p.TeamPosition,
		&p.Pings.AllIn, &p.Pings.AssistMe, &p.Pings.Basic, &p.Pings.Command, &p.Pings.Danger,
		&p.Pings.EnemyMissing, &p.Pings.EnemyVision, &p.Pings.GetBack, &p.Pings.Hold,
		&p.Pings.NeedVision, &p.Pings.OnMyWay, &p.Pings.Push, &p.Pings.VisionCleared,
	}
}

var rankColumns = []column{
	{"match_id", "text"},
	{"participant_id", "int"},
	{"puuid", "text"},
	{"summoner_id", "text"},
	{"queue_type", "text"},
	{"tier", "text"},
	{"rank", "text"},
	{"league_points", "int"},
	{"wins", "int"},
	{"losses", "int"},
}

func (d dialect) columnDefs(cols []column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s NOT NULL", c.name, d.types[c.kind])
	}
	return strings.Join(defs, ",\n\t\t\t")
}

// createStatements returns the idempotent DDL for the three tables
func (d dialect) createStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS matches (
			%s,
			PRIMARY KEY (match_id)
		)`, d.columnDefs(matchColumns)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS match_participants (
			%s,
			PRIMARY KEY (match_id, participant_id),
			FOREIGN KEY (match_id) REFERENCES matches(match_id)
		)`, d.columnDefs(participantColumns)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS match_participant_ranks (
			%s,
			PRIMARY KEY (match_id, participant_id),
			FOREIGN KEY (match_id) REFERENCES matches(match_id)
		)`, d.columnDefs(rankColumns)),
		`CREATE INDEX IF NOT EXISTS idx_matches_game_creation ON matches(game_creation)`,
		`CREATE INDEX IF NOT EXISTS idx_match_participants_puuid ON match_participants(puuid)`,
	}
}

func columnNames(cols []column, prefix string) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = prefix + c.name
	}
	return strings.Join(names, ", ")
}

// placeholders returns "(p1, p2, ...)" for n values starting at argument start
func (d dialect) placeholders(start, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.placeholder(start + i)
	}
	return "(" + strings.Join(ph, ", ") + ")"
}

func (d dialect) insertMatchSQL() string {
	return fmt.Sprintf(`INSERT INTO matches (%s) VALUES %s ON CONFLICT (match_id) DO NOTHING`,
		columnNames(matchColumns, ""), d.placeholders(1, len(matchColumns)))
}

// insertParticipantsSQL builds one multi-row insert for rows participants
func (d dialect) insertParticipantsSQL(rows int) string {
	values := make([]string, rows)
	for i := range values {
		values[i] = d.placeholders(i*len(participantColumns)+1, len(participantColumns))
	}
	return fmt.Sprintf(`INSERT INTO match_participants (%s) VALUES %s`,
		columnNames(participantColumns, ""), strings.Join(values, ", "))
}

func (d dialect) insertRankSQL() string {
	return fmt.Sprintf(`INSERT INTO match_participant_ranks (%s) VALUES %s ON CONFLICT (match_id, participant_id) DO NOTHING`,
		columnNames(rankColumns, ""), d.placeholders(1, len(rankColumns)))
}

func (d dialect) gameCreationBoundSQL(agg string) string {
	return fmt.Sprintf(`
		SELECT %s(m.game_creation)
		FROM match_participants p
		JOIN matches m ON m.match_id = p.match_id
		WHERE p.puuid = %s`, agg, d.placeholder(1))
}

func (d dialect) existingMatchIDsSQL(n int) string {
	return fmt.Sprintf(`SELECT match_id FROM matches WHERE match_id IN %s`, d.placeholders(1, n))
}

const historyMatchColumns = `m.match_id, m.data_version, m.game_creation, m.game_duration, m.game_mode, m.queue_id`

const historyRankColumns = `r.queue_type, r.tier, r.rank, r.league_points, r.wins, r.losses`

// playerMatchesSQL builds the history query and its arguments
func (d dialect) playerMatchesSQL(puuid string, q PlayerMatchesQuery) (string, []interface{}) {
	args := []interface{}{puuid}
	var where strings.Builder
	where.WriteString("p.puuid = " + d.placeholder(1))

	if q.Before != nil {
		args = append(args, *q.Before)
		where.WriteString(" AND m.game_creation < " + d.placeholder(len(args)))
	}
	if len(q.QueueIDs) > 0 {
		where.WriteString(" AND m.queue_id IN " + d.placeholders(len(args)+1, len(q.QueueIDs)))
		for _, id := range q.QueueIDs {
			args = append(args, id)
		}
	}
	args = append(args, q.Limit)

	query := fmt.Sprintf(`
		SELECT %s, %s, %s
		FROM match_participants p
		JOIN matches m ON m.match_id = p.match_id
		LEFT JOIN match_participant_ranks r ON r.match_id = p.match_id AND r.participant_id = p.participant_id
		WHERE %s
		ORDER BY m.game_creation DESC, m.match_id DESC
		LIMIT %s`,
		historyMatchColumns, columnNames(participantColumns, "p."), historyRankColumns,
		where.String(), d.placeholder(len(args)))
	return query, args
}

func (d dialect) matchSQL() string {
	return fmt.Sprintf(`SELECT %s FROM matches WHERE match_id = %s`,
		columnNames(matchColumns, ""), d.placeholder(1))
}

func (d dialect) matchParticipantsSQL() string {
	return fmt.Sprintf(`
		SELECT %s, %s
		FROM match_participants p
		LEFT JOIN match_participant_ranks r ON r.match_id = p.match_id AND r.participant_id = p.participant_id
		WHERE p.match_id = %s
		ORDER BY p.team_id,
			CASE p.team_position
				WHEN 'TOP' THEN 1
				WHEN 'JUNGLE' THEN 2
				WHEN 'MIDDLE' THEN 3
				WHEN 'BOTTOM' THEN 4
				WHEN 'UTILITY' THEN 5
				ELSE 6
			END,
			p.participant_id`,
		columnNames(participantColumns, "p."), historyRankColumns, d.placeholder(1))
}

const countsSQL = `SELECT
	(SELECT COUNT(*) FROM matches),
	(SELECT COUNT(*) FROM match_participants),
	(SELECT COUNT(*) FROM match_participant_ranks)`

// rankScan receives the nullable LEFT JOIN rank columns
type rankScan struct {
	queueType, tier, rank *string
	lp, wins, losses      *int
}

func (r *rankScan) dest() []interface{} {
	return []interface{}{&r.queueType, &r.tier, &r.rank, &r.lp, &r.wins, &r.losses}
}

func (r *rankScan) value() *Rank {
	if r.queueType == nil {
		return nil
	}
	out := &Rank{QueueType: *r.queueType}
	if r.tier != nil {
		out.Tier = *r.tier
	}
	if r.rank != nil {
		out.Rank = *r.rank
	}
	if r.lp != nil {
		out.LeaguePoints = *r.lp
	}
	if r.wins != nil {
		out.Wins = *r.wins
	}
	if r.losses != nil {
		out.Losses = *r.losses
	}
	return out
}

// scanner is satisfied by pgx rows and *sql.Rows / *sql.Row
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayerMatch(s scanner) (PlayerMatch, error) {
	var pm PlayerMatch
	var r rankScan
	dest := []interface{}{
		&pm.Match.MatchID, &pm.Match.DataVersion, &pm.Match.GameCreation,
		&pm.Match.GameDuration, &pm.Match.GameMode, &pm.Match.QueueID,
	}
	dest = append(dest, participantDest(&pm.Participant)...)
	dest = append(dest, r.dest()...)
	if err := s.Scan(dest...); err != nil {
		return PlayerMatch{}, err
	}
	pm.Rank = r.value()
	return pm, nil
}

func scanParticipantDetail(s scanner) (ParticipantDetail, error) {
	var pd ParticipantDetail
	var r rankScan
	dest := append(participantDest(&pd.Participant), r.dest()...)
	if err := s.Scan(dest...); err != nil {
		return ParticipantDetail{}, err
	}
	pd.Rank = r.value()
	return pd, nil
}

func matchDest(m *Match) []interface{} {
	return []interface{}{&m.MatchID, &m.DataVersion, &m.GameCreation, &m.GameDuration, &m.GameMode, &m.QueueID, &m.FullJSON}
}

func matchValues(m *Match, jsonAsText bool) []interface{} {
	var full interface{} = m.FullJSON
	if jsonAsText {
		full = string(m.FullJSON)
	}
	return []interface{}{m.MatchID, m.DataVersion, m.GameCreation, m.GameDuration, m.GameMode, m.QueueID, full}
}

func rankValues(r *RankSnapshot) []interface{} {
	return []interface{}{r.MatchID, r.ParticipantID, r.PUUID, r.SummonerID, r.QueueType, r.Tier, r.Rank.Rank, r.LeaguePoints, r.Wins, r.Losses}
}
