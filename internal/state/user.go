package state

// UserAccount holds gameplay statistics for one external user id. Spendable
// balances live in the off-chain ledger; only aggregates are kept here.
type UserAccount struct {
	UserID string `json:"userId"`

	LastClaim          int64 `json:"lastClaim,omitempty"`
	SubscriptionExpiry int64 `json:"subscriptionExpiry,omitempty"`
	SubscriptionTier   uint8 `json:"subscriptionTier,omitempty"`

	LifetimeGPEarned uint64 `json:"lifetimeGpEarned"`
	GamesPlayed      uint32 `json:"gamesPlayed"`
	GamesWon         uint32 `json:"gamesWon"`
	WinStreak        uint32 `json:"winStreak"`
	CurrentTier      uint8  `json:"currentTier"`

	SeasonID         uint64 `json:"seasonId"`
	SeasonScore      uint64 `json:"seasonScore"`
	SeasonWins       uint32 `json:"seasonWins"`
	SeasonGames      uint32 `json:"seasonGames"`
	LeaderboardRank  uint16 `json:"leaderboardRank"`
	ActiveMultiplier uint8  `json:"activeMultiplier"`
}

const (
	SubscriptionFree    uint8 = 0
	SubscriptionPro     uint8 = 1
	SubscriptionProPlus uint8 = 2
)

func NewUserAccount(userID string) *UserAccount {
	return &UserAccount{UserID: userID, ActiveMultiplier: 1}
}

func (u *UserAccount) HasActiveSubscription(now int64) bool {
	return u.SubscriptionTier > SubscriptionFree && u.SubscriptionExpiry > now
}

// RollSeason resets season counters when seasonID moves past the stored one.
func (u *UserAccount) RollSeason(seasonID uint64) {
	if u.SeasonID == seasonID {
		return
	}
	u.SeasonID = seasonID
	u.SeasonScore = 0
	u.SeasonWins = 0
	u.SeasonGames = 0
	u.LeaderboardRank = 0
	u.ActiveMultiplier = 1
}

// TierForLifetimeGP maps lifetime gp onto Bronze(0) .. Master(5).
func TierForLifetimeGP(gp uint64) uint8 {
	switch {
	case gp < 1_000:
		return 0
	case gp < 5_000:
		return 1
	case gp < 20_000:
		return 2
	case gp < 50_000:
		return 3
	case gp < 100_000:
		return 4
	default:
		return 5
	}
}

// SeasonScore ranks by wins first, then by win rate in basis points.
func SeasonScore(wins, games uint32) uint64 {
	var rate uint64
	if games > 0 {
		rate = uint64(wins) * 10_000 / uint64(games)
	}
	return uint64(wins)*1_000_000 + rate
}

func MultiplierForRank(rank uint16) uint8 {
	switch {
	case rank == 0:
		return 1
	case rank <= 5:
		return 5
	case rank <= 10:
		return 4
	case rank <= 25:
		return 3
	case rank <= 50:
		return 2
	default:
		return 1
	}
}
