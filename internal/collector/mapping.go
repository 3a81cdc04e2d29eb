package collector

import (
	"math"

	"matchsync/internal/db"
	"matchsync/internal/riot"
)

func mapMatch(m *riot.MatchResponse, raw []byte) *db.Match {
	return &db.Match{
		MatchID:      m.Metadata.MatchID,
		DataVersion:  m.Metadata.DataVersion,
		GameCreation: m.Info.GameCreation,
		GameDuration: m.Info.GameDuration,
		GameMode:     m.Info.GameMode,
		QueueID:      m.Info.QueueID,
		FullJSON:     raw,
	}
}

// mapParticipant maps the participant at index i. The participant id falls
// back to the position when the record has none.
func mapParticipant(matchID string, i int, p *riot.MatchParticipant) db.Participant {
	id := p.ParticipantID
	if id == 0 {
		id = i + 1
	}
	return db.Participant{
		MatchID:        matchID,
		ParticipantID:  id,
		PUUID:          p.PUUID,
		SummonerID:     p.SummonerID,
		RiotIDGameName: p.RiotIdGameName,
		RiotIDTagline:  p.RiotIdTagline,
		ChampionID:     p.ChampionID,
		ChampionName:   p.ChampionName,
		TeamID:         p.TeamID,
		Win:            p.Win,
		Kills:          p.Kills,
		Deaths:         p.Deaths,
		Assists:        p.Assists,
		KDA:            kda(p.Kills, p.Deaths, p.Assists),

		TotalDamageDealt:            p.TotalDamageDealt,
		TotalDamageDealtToChampions: p.TotalDamageDealtToChampions,
		GoldEarned:                  p.GoldEarned,
		VisionScore:                 p.VisionScore,
		TotalMinionsKilled:          p.TotalMinionsKilled,

		Items:       [7]int{p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5, p.Item6},
		Summoner1ID: p.Summoner1ID,
		Summoner2ID: p.Summoner2ID,

		PerkPrimaryStyle: p.Perks.PrimaryStyle(),
		PerkSubStyle:     p.Perks.SubStyle(),

		Lane:         p.Lane,
		Role:         p.Role,
		TeamPosition: p.TeamPosition,

		Pings: db.Pings{
			AllIn:         p.AllInPings,
			AssistMe:      p.AssistMePings,
			Basic:         p.BasicPings,
			Command:       p.CommandPings,
			Danger:        p.DangerPings,
			EnemyMissing:  p.EnemyMissingPings,
			EnemyVision:   p.EnemyVisionPings,
			GetBack:       p.GetBackPings,
			Hold:          p.HoldPings,
			NeedVision:    p.NeedVisionPings,
			OnMyWay:       p.OnMyWayPings,
			Push:          p.PushPings,
			VisionCleared: p.VisionClearedPings,
		},
	}
}

func mapRank(matchID string, p *db.Participant, rank *db.Rank) *db.RankSnapshot {
	return &db.RankSnapshot{
		MatchID:       matchID,
		ParticipantID: p.ParticipantID,
		PUUID:         p.PUUID,
		SummonerID:    p.SummonerID,
		Rank:          *rank,
	}
}

// kda is (kills + assists) / deaths, or kills + assists when deathless,
// rounded to two decimals
func kda(kills, deaths, assists int) float64 {
	ka := float64(kills + assists)
	if deaths == 0 {
		return ka
	}
	return math.Round(ka/float64(deaths)*100) / 100
}
