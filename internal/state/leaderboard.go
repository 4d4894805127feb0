package state

import "fmt"

const LeaderboardCapacity = 100

type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	Score       uint64 `json:"score"`
	Wins        uint32 `json:"wins"`
	GamesPlayed uint32 `json:"gamesPlayed"`
	Timestamp   int64  `json:"timestamp"`
}

// Leaderboard ranks one game type within one season. Entries[:EntryCount]
// are ordered by descending score.
type Leaderboard struct {
	GameType    uint8                                 `json:"gameType"`
	SeasonID    uint64                                `json:"seasonId"`
	Entries     [LeaderboardCapacity]LeaderboardEntry `json:"entries"`
	EntryCount  uint8                                 `json:"entryCount"`
	LastUpdated int64                                 `json:"lastUpdated"`
}

func LeaderboardKey(gameType uint8, seasonID uint64) string {
	return fmt.Sprintf("%d/%d", gameType, seasonID)
}

func NewLeaderboard(gameType uint8, seasonID uint64) *Leaderboard {
	return &Leaderboard{GameType: gameType, SeasonID: seasonID}
}

func (l *Leaderboard) Ranked() []LeaderboardEntry {
	return append([]LeaderboardEntry(nil), l.Entries[:l.EntryCount]...)
}
