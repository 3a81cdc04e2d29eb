package riot

// AccountResponse represents the response from /riot/account/v1/accounts/by-riot-id
type AccountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// MatchResponse represents the response from /lol/match/v5/matches/{matchId}
type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	DataVersion  string   `json:"dataVersion"`
	Participants []string `json:"participants"` // PUUIDs
}

type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"` // epoch ms
	GameDuration int                `json:"gameDuration"` // seconds
	GameMode     string             `json:"gameMode"`
	GameVersion  string             `json:"gameVersion"`
	QueueID      int                `json:"queueId"`
	Participants []MatchParticipant `json:"participants"`
}

// BotPUUID is the puuid Riot reports for every bot in co-op vs AI games
const BotPUUID = "BOT"

type MatchParticipant struct {
	ParticipantID  int    `json:"participantId"`
	PUUID          string `json:"puuid"`
	SummonerID     string `json:"summonerId"`
	RiotIdGameName string `json:"riotIdGameName"`
	RiotIdTagline  string `json:"riotIdTagline"`
	ChampionID     int    `json:"championId"`
	ChampionName   string `json:"championName"`
	TeamID         int    `json:"teamId"`
	TeamPosition   string `json:"teamPosition"` // TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY
	Lane           string `json:"lane"`
	Role           string `json:"role"`
	Win            bool   `json:"win"`

	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`

	TotalDamageDealt            int `json:"totalDamageDealt"`
	TotalDamageDealtToChampions int `json:"totalDamageDealtToChampions"`
	GoldEarned                  int `json:"goldEarned"`
	VisionScore                 int `json:"visionScore"`
	TotalMinionsKilled          int `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int `json:"neutralMinionsKilled"`

	Item0 int `json:"item0"`
	Item1 int `json:"item1"`
	Item2 int `json:"item2"`
	Item3 int `json:"item3"`
	Item4 int `json:"item4"`
	Item5 int `json:"item5"`
	Item6 int `json:"item6"` // Trinket

	Summoner1ID int `json:"summoner1Id"`
	Summoner2ID int `json:"summoner2Id"`

	Perks Perks `json:"perks"`

	AllInPings         int `json:"allInPings"`
	AssistMePings      int `json:"assistMePings"`
	BasicPings         int `json:"basicPings"`
	CommandPings       int `json:"commandPings"`
	DangerPings        int `json:"dangerPings"`
	EnemyMissingPings  int `json:"enemyMissingPings"`
	EnemyVisionPings   int `json:"enemyVisionPings"`
	GetBackPings       int `json:"getBackPings"`
	HoldPings          int `json:"holdPings"`
	NeedVisionPings    int `json:"needVisionPings"`
	OnMyWayPings       int `json:"onMyWayPings"`
	PushPings          int `json:"pushPings"`
	VisionClearedPings int `json:"visionClearedPings"`
}

// Perks holds rune selections; Styles[0] is primary, Styles[1] secondary
type Perks struct {
	Styles []PerkStyle `json:"styles"`
}

type PerkStyle struct {
	Description string `json:"description"` // primaryStyle, subStyle
	Style       int    `json:"style"`
}

// PrimaryStyle returns the primary rune tree id, 0 when absent
func (p Perks) PrimaryStyle() int {
	return p.styleFor("primaryStyle", 0)
}

// SubStyle returns the secondary rune tree id, 0 when absent
func (p Perks) SubStyle() int {
	return p.styleFor("subStyle", 1)
}

func (p Perks) styleFor(description string, fallbackIdx int) int {
	for _, s := range p.Styles {
		if s.Description == description {
			return s.Style
		}
	}
	if fallbackIdx < len(p.Styles) {
		return p.Styles[fallbackIdx].Style
	}
	return 0
}

// LeagueEntryResponse represents a ranked league entry from /lol/league/v4/entries/by-puuid
type LeagueEntryResponse struct {
	LeagueID     string `json:"leagueId"`
	SummonerID   string `json:"summonerId"`
	PUUID        string `json:"puuid"`
	QueueType    string `json:"queueType"` // RANKED_SOLO_5x5, RANKED_FLEX_SR
	Tier         string `json:"tier"`      // IRON ... CHALLENGER
	Rank         string `json:"rank"`      // I, II, III, IV
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}
