package leaderboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

func entry(user string, score uint64) state.LeaderboardEntry {
	return state.LeaderboardEntry{UserID: user, Score: score}
}

func users(b *state.Leaderboard) []string {
	out := make([]string, 0, b.EntryCount)
	for _, e := range b.Ranked() {
		out = append(out, e.UserID)
	}
	return out
}

func TestInsertOrUpdate_OrdersAndTies(t *testing.T) {
	b := state.NewLeaderboard(state.GameClaim, 1)

	for _, e := range []state.LeaderboardEntry{entry("a", 50), entry("b", 80), entry("c", 50), entry("d", 10)} {
		_, _, err := InsertOrUpdate(b, e, 1)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"b", "a", "c", "d"}, users(b))
	require.Equal(t, uint16(3), RankOf(b, "c"))
	require.Equal(t, uint16(0), RankOf(b, "zed"))

	rank, evicted, err := InsertOrUpdate(b, entry("d", 90), 2)
	require.NoError(t, err)
	require.Equal(t, uint16(1), rank)
	require.Empty(t, evicted)
	require.Equal(t, []string{"d", "b", "a", "c"}, users(b))
	require.Equal(t, uint8(4), b.EntryCount)
	require.Equal(t, int64(2), b.LastUpdated)
}

func TestInsertOrUpdate_FullBoard(t *testing.T) {
	b := state.NewLeaderboard(state.GameClaim, 1)
	for i := 0; i < state.LeaderboardCapacity; i++ {
		_, _, err := InsertOrUpdate(b, entry(fmt.Sprintf("u%03d", i), uint64(1000-i)), 1)
		require.NoError(t, err)
	}
	lastScore := b.Entries[state.LeaderboardCapacity-1].Score

	_, _, err := InsertOrUpdate(b, entry("late", lastScore), 2)
	require.ErrorIs(t, err, types.ErrCapacity)

	rank, evicted, err := InsertOrUpdate(b, entry("late", lastScore+1), 2)
	require.NoError(t, err)
	require.Equal(t, "u099", evicted)
	require.Equal(t, uint16(state.LeaderboardCapacity), rank)
	require.Equal(t, uint8(state.LeaderboardCapacity), b.EntryCount)
	require.Equal(t, uint16(0), RankOf(b, "u099"))

	_, _, err = InsertOrUpdate(b, entry("", 5000), 3)
	require.ErrorIs(t, err, types.ErrPayload)
}

func TestInsertOrUpdate_LowestScoreEvicted(t *testing.T) {
	b := state.NewLeaderboard(state.GameClaim, 1)
	for score := 50; score < 50+state.LeaderboardCapacity; score++ {
		_, _, err := InsertOrUpdate(b, entry(fmt.Sprintf("s%d", score), uint64(score)), 1)
		require.NoError(t, err)
	}

	_, _, err := InsertOrUpdate(b, entry("low", 49), 2)
	require.ErrorIs(t, err, types.ErrCapacity)
	require.Equal(t, uint16(0), RankOf(b, "low"))

	rank, evicted, err := InsertOrUpdate(b, entry("mid", 51), 2)
	require.NoError(t, err)
	require.Equal(t, "s50", evicted)
	// Ties rank after the existing 51.
	require.Equal(t, uint16(state.LeaderboardCapacity), rank)
	require.Equal(t, uint64(51), b.Entries[state.LeaderboardCapacity-1].Score)
	require.Equal(t, "s51", b.Entries[state.LeaderboardCapacity-2].UserID)
}

func TestFindInsertionPoint(t *testing.T) {
	entries := []state.LeaderboardEntry{entry("a", 9), entry("b", 7), entry("c", 7), entry("d", 3)}
	require.Equal(t, 0, FindInsertionPoint(entries, 10))
	require.Equal(t, 1, FindInsertionPoint(entries, 9))
	require.Equal(t, 3, FindInsertionPoint(entries, 7))
	require.Equal(t, 4, FindInsertionPoint(entries, 0))
	require.Equal(t, 0, FindInsertionPoint(nil, 5))
}

func TestInsertOrUpdate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := state.NewLeaderboard(state.GameClaim, 1)
		pool := rapid.IntRange(1, 150).Draw(t, "pool")
		steps := rapid.IntRange(1, 300).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			u := fmt.Sprintf("user-%d", rapid.IntRange(0, pool-1).Draw(t, "user"))
			score := rapid.Uint64Range(0, 500).Draw(t, "score")

			wasFull := int(b.EntryCount) == state.LeaderboardCapacity
			var last uint64
			if b.EntryCount > 0 {
				last = b.Entries[b.EntryCount-1].Score
			}
			before := b.Ranked()

			rank, _, err := InsertOrUpdate(b, entry(u, score), int64(i))
			if wasFull && score <= last {
				if err == nil {
					t.Fatalf("accepted score %d on full board with last %d", score, last)
				}
				if got := b.Ranked(); len(got) != len(before) {
					t.Fatalf("rejected insert changed the board")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if b.Entries[rank-1].UserID != u || b.Entries[rank-1].Score != score {
					t.Fatalf("rank %d does not point at %s", rank, u)
				}
			}

			if int(b.EntryCount) > state.LeaderboardCapacity {
				t.Fatalf("entry count %d exceeds capacity", b.EntryCount)
			}
			seen := map[string]bool{}
			for j, e := range b.Ranked() {
				if seen[e.UserID] {
					t.Fatalf("duplicate user %s", e.UserID)
				}
				seen[e.UserID] = true
				if j > 0 && b.Entries[j-1].Score < e.Score {
					t.Fatalf("not descending at %d: %d < %d", j, b.Entries[j-1].Score, e.Score)
				}
				if RankOf(b, e.UserID) != uint16(j+1) {
					t.Fatalf("rank mismatch for %s", e.UserID)
				}
			}
			for j := int(b.EntryCount); j < state.LeaderboardCapacity; j++ {
				if b.Entries[j] != (state.LeaderboardEntry{}) {
					t.Fatalf("slot %d beyond count not zeroed", j)
				}
			}
		}
	})
}
