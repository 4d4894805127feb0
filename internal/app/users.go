package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/leaderboard"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// Deltas reported by the off-chain ledger arrive through coordinators.
func requireLedgerReporter(ctx *txContext) error {
	return requireRole(ctx, state.RoleCoordinator, state.RoleAuthority)
}

func loadUser(ctx *txContext, userID string) (*state.UserAccount, error) {
	if err := codec.ValidateIdentity("user id", userID); err != nil {
		return nil, types.ErrPayload.Wrap(err.Error())
	}
	u := ctx.st.User(userID)
	u.RollSeason(ctx.st.SeasonID(ctx.now))
	return u, nil
}

func userRecordResult(ctx *txContext, msg codec.UserRecordResultTx) (*abci.ExecTxResult, error) {
	if err := requireLedgerReporter(ctx); err != nil {
		return nil, err
	}
	u, err := loadUser(ctx, msg.UserID)
	if err != nil {
		return nil, err
	}

	played, err := types.IncUint32Checked(u.GamesPlayed, "games_played")
	if err != nil {
		return nil, err
	}
	seasonGames, err := types.IncUint32Checked(u.SeasonGames, "season_games")
	if err != nil {
		return nil, err
	}
	won, seasonWins, streak := u.GamesWon, u.SeasonWins, uint32(0)
	if msg.Won {
		if won, err = types.IncUint32Checked(u.GamesWon, "games_won"); err != nil {
			return nil, err
		}
		if seasonWins, err = types.IncUint32Checked(u.SeasonWins, "season_wins"); err != nil {
			return nil, err
		}
		if streak, err = types.IncUint32Checked(u.WinStreak, "win_streak"); err != nil {
			return nil, err
		}
	}
	lifetime, err := types.AddUint64Checked(u.LifetimeGPEarned, msg.GPEarned, "lifetime_gp_earned")
	if err != nil {
		return nil, err
	}

	u.GamesPlayed, u.SeasonGames = played, seasonGames
	u.GamesWon, u.SeasonWins, u.WinStreak = won, seasonWins, streak
	u.LifetimeGPEarned = lifetime
	u.CurrentTier = state.TierForLifetimeGP(lifetime)
	u.SeasonScore = state.SeasonScore(u.SeasonWins, u.SeasonGames)

	return okEvent("ResultRecorded", map[string]string{
		"userId":      u.UserID,
		"won":         fmt.Sprintf("%t", msg.Won),
		"gamesPlayed": fmt.Sprintf("%d", u.GamesPlayed),
		"seasonScore": fmt.Sprintf("%d", u.SeasonScore),
		"tier":        fmt.Sprintf("%d", u.CurrentTier),
	}), nil
}

func userDailyLogin(ctx *txContext, msg codec.UserDailyLoginTx) (*abci.ExecTxResult, error) {
	if err := requireLedgerReporter(ctx); err != nil {
		return nil, err
	}
	u, err := loadUser(ctx, msg.UserID)
	if err != nil {
		return nil, err
	}
	p := ctx.st.Params
	if u.LastClaim != 0 && ctx.now-u.LastClaim < p.DailyClaimCooldownSecs {
		return nil, types.ErrStateConflict.Wrapf("daily claim available in %ds", p.DailyClaimCooldownSecs-(ctx.now-u.LastClaim))
	}

	gp := p.DailyBaseGP
	if u.HasActiveSubscription(ctx.now) {
		if gp, err = types.MulUint64Checked(gp, uint64(p.ProGPMultiplier), "daily_gp"); err != nil {
			return nil, err
		}
	}
	mult := u.ActiveMultiplier
	if mult == 0 {
		mult = 1
	}
	if gp, err = types.MulUint64Checked(gp, uint64(mult), "daily_gp"); err != nil {
		return nil, err
	}
	lifetime, err := types.AddUint64Checked(u.LifetimeGPEarned, gp, "lifetime_gp_earned")
	if err != nil {
		return nil, err
	}

	u.LifetimeGPEarned = lifetime
	u.CurrentTier = state.TierForLifetimeGP(lifetime)
	u.LastClaim = ctx.now
	return okEvent("DailyLoginClaimed", map[string]string{
		"userId":     u.UserID,
		"gp":         fmt.Sprintf("%d", gp),
		"multiplier": fmt.Sprintf("%d", mult),
		"tier":       fmt.Sprintf("%d", u.CurrentTier),
	}), nil
}

func userRecordSubscription(ctx *txContext, msg codec.UserRecordSubscriptionTx) (*abci.ExecTxResult, error) {
	if err := requireLedgerReporter(ctx); err != nil {
		return nil, err
	}
	if msg.Tier > state.SubscriptionProPlus {
		return nil, types.ErrPayload.Wrapf("unknown subscription tier %d", msg.Tier)
	}
	if msg.Tier != state.SubscriptionFree && msg.Expiry <= ctx.now {
		return nil, types.ErrPayload.Wrapf("subscription expiry %d is not in the future", msg.Expiry)
	}
	u, err := loadUser(ctx, msg.UserID)
	if err != nil {
		return nil, err
	}
	u.SubscriptionTier = msg.Tier
	u.SubscriptionExpiry = msg.Expiry
	if msg.Tier == state.SubscriptionFree {
		u.SubscriptionExpiry = 0
	}
	return okEvent("SubscriptionRecorded", map[string]string{
		"userId": u.UserID,
		"tier":   fmt.Sprintf("%d", u.SubscriptionTier),
		"expiry": fmt.Sprintf("%d", u.SubscriptionExpiry),
	}), nil
}

// leaderboardUpdate ranks the user's current season counters on the board of
// gameType and refreshes the cached rank of everyone whose position moved.
func leaderboardUpdate(ctx *txContext, msg codec.LeaderboardUpdateTx) (*abci.ExecTxResult, error) {
	if err := requireLedgerReporter(ctx); err != nil {
		return nil, err
	}
	if _, err := ctx.st.ResolveGame(msg.GameType); err != nil {
		return nil, err
	}
	if ctx.st.Users[msg.UserID] == nil {
		return nil, types.ErrNotFound.Wrapf("user %q", msg.UserID)
	}
	u, err := loadUser(ctx, msg.UserID)
	if err != nil {
		return nil, err
	}

	season := ctx.st.SeasonID(ctx.now)
	board := ctx.st.Leaderboard(msg.GameType, season)
	rank, evicted, err := leaderboard.InsertOrUpdate(board, state.LeaderboardEntry{
		UserID:      u.UserID,
		Score:       u.SeasonScore,
		Wins:        u.SeasonWins,
		GamesPlayed: u.SeasonGames,
		Timestamp:   ctx.now,
	}, ctx.now)
	if err != nil {
		return nil, err
	}

	for i, e := range board.Ranked() {
		if other := ctx.st.Users[e.UserID]; other != nil && other.SeasonID == season {
			other.LeaderboardRank = uint16(i + 1)
			other.ActiveMultiplier = state.MultiplierForRank(other.LeaderboardRank)
		}
	}
	if evicted != "" {
		if other := ctx.st.Users[evicted]; other != nil && other.SeasonID == season {
			other.LeaderboardRank = 0
			other.ActiveMultiplier = state.MultiplierForRank(0)
		}
	}

	return okEvent("LeaderboardUpdated", map[string]string{
		"gameType": fmt.Sprintf("%d", msg.GameType),
		"seasonId": fmt.Sprintf("%d", season),
		"userId":   u.UserID,
		"score":    fmt.Sprintf("%d", u.SeasonScore),
		"rank":     fmt.Sprintf("%d", rank),
		"evicted":  evicted,
	}), nil
}
