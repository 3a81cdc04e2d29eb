package db

import "errors"

var (
	// ErrMatchExists is returned by SaveMatch when the match row is already stored
	ErrMatchExists = errors.New("match already exists")
	// ErrNotFound is returned when a requested match is not stored
	ErrNotFound = errors.New("not found")
)

// Match represents a match record. Rows are written once and never updated.
type Match struct {
	MatchID      string `json:"matchId"`
	DataVersion  string `json:"dataVersion"`
	GameCreation int64  `json:"gameCreation"` // epoch ms
	GameDuration int    `json:"gameDuration"` // seconds
	GameMode     string `json:"gameMode"`
	QueueID      int    `json:"queueId"`
	FullJSON     []byte `json:"-"`
}

// Participant represents a player's performance in a match
type Participant struct {
	MatchID        string  `json:"matchId"`
	ParticipantID  int     `json:"participantId"` // 1..n within the match; bots share a puuid
	PUUID          string  `json:"puuid"`
	SummonerID     string  `json:"summonerId"`
	RiotIDGameName string  `json:"riotIdGameName"`
	RiotIDTagline  string  `json:"riotIdTagline"`
	ChampionID     int     `json:"championId"`
	ChampionName   string  `json:"championName"`
	TeamID         int     `json:"teamId"`
	Win            bool    `json:"win"`
	Kills          int     `json:"kills"`
	Deaths         int     `json:"deaths"`
	Assists        int     `json:"assists"`
	KDA            float64 `json:"kda"`

	TotalDamageDealt            int `json:"totalDamageDealt"`
	TotalDamageDealtToChampions int `json:"totalDamageDealtToChampions"`
	GoldEarned                  int `json:"goldEarned"`
	VisionScore                 int `json:"visionScore"`
	TotalMinionsKilled          int `json:"totalMinionsKilled"`

	Items       [7]int `json:"items"` // item0..item6, item6 is the trinket
	Summoner1ID int    `json:"summoner1Id"`
	Summoner2ID int    `json:"summoner2Id"`

	PerkPrimaryStyle int `json:"perkPrimaryStyle"`
	PerkSubStyle     int `json:"perkSubStyle"`

	Lane         string `json:"lane"`
	Role         string `json:"role"`
	TeamPosition string `json:"teamPosition"`

	Pings Pings `json:"pings"`
}

// Pings holds the per-participant ping usage counters
type Pings struct {
	AllIn         int `json:"allIn"`
	AssistMe      int `json:"assistMe"`
	Basic         int `json:"basic"`
	Command       int `json:"command"`
	Danger        int `json:"danger"`
	EnemyMissing  int `json:"enemyMissing"`
	EnemyVision   int `json:"enemyVision"`
	GetBack       int `json:"getBack"`
	Hold          int `json:"hold"`
	NeedVision    int `json:"needVision"`
	OnMyWay       int `json:"onMyWay"`
	Push          int `json:"push"`
	VisionCleared int `json:"visionCleared"`
}

// Rank is a ladder position in one queue
type Rank struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// RankSnapshot is the rank of a participant as resolved when the match was stored
type RankSnapshot struct {
	MatchID       string `json:"matchId"`
	ParticipantID int    `json:"participantId"`
	PUUID         string `json:"puuid"`
	SummonerID    string `json:"summonerId"`
	Rank
}

// ParticipantDetail is a participant with its rank snapshot, if one was stored
type ParticipantDetail struct {
	Participant
	Rank *Rank `json:"rank,omitempty"`
}

// MatchDetail contains match info with all participants
type MatchDetail struct {
	Match        Match               `json:"match"`
	Participants []ParticipantDetail `json:"participants"`
}

// PlayerMatch is one row of a player's history: the match, the player's
// participant row and the player's rank snapshot
type PlayerMatch struct {
	Match       Match       `json:"match"`
	Participant Participant `json:"participant"`
	Rank        *Rank       `json:"rank,omitempty"`
}

// PlayerMatchesQuery selects a player's matches ordered by game_creation desc
type PlayerMatchesQuery struct {
	Limit    int
	Before   *int64 // exclusive upper bound on game_creation
	QueueIDs []int
}

// Counts holds table row counts
type Counts struct {
	Matches      int `json:"matches"`
	Participants int `json:"participants"`
	Ranks        int `json:"ranks"`
}
