// Package leaderboard maintains the bounded, score-ordered ranking of one game
// type within one season.
package leaderboard

import (
	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// FindInsertionPoint returns the index at which score goes, after every entry
// whose score is >= score.
func FindInsertionPoint(entries []state.LeaderboardEntry, score uint64) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if entries[mid].Score >= score {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func indexOf(b *state.Leaderboard, userID string) int {
	for i := 0; i < int(b.EntryCount); i++ {
		if b.Entries[i].UserID == userID {
			return i
		}
	}
	return -1
}

// RankOf returns the 1-based rank of userID, or 0 when absent.
func RankOf(b *state.Leaderboard, userID string) uint16 {
	i := indexOf(b, userID)
	if i < 0 {
		return 0
	}
	return uint16(i + 1)
}

// InsertOrUpdate places e by score, replacing any previous entry for the same
// user. A full board rejects any score that does not beat its last entry,
// including updates for users already ranked. It returns the new 1-based
// rank and the user pushed off the board, if any.
func InsertOrUpdate(b *state.Leaderboard, e state.LeaderboardEntry, now int64) (rank uint16, evicted string, err error) {
	if err := codec.ValidateIdentity("user id", e.UserID); err != nil {
		return 0, "", types.ErrPayload.Wrap(err.Error())
	}

	if int(b.EntryCount) >= state.LeaderboardCapacity {
		last := b.Entries[b.EntryCount-1].Score
		if e.Score <= last {
			return 0, "", types.ErrCapacity.Wrapf("leaderboard full: score %d does not beat %d", e.Score, last)
		}
	}

	if existing := indexOf(b, e.UserID); existing >= 0 {
		n := int(b.EntryCount)
		copy(b.Entries[existing:n], b.Entries[existing+1:n])
		b.Entries[n-1] = state.LeaderboardEntry{}
		b.EntryCount--
	}

	n := int(b.EntryCount)
	pos := FindInsertionPoint(b.Entries[:n], e.Score)
	if n == state.LeaderboardCapacity {
		evicted = b.Entries[n-1].UserID
		n--
	}
	copy(b.Entries[pos+1:n+1], b.Entries[pos:n])
	b.Entries[pos] = e
	b.EntryCount = uint8(n + 1)
	b.LastUpdated = now
	return uint16(pos + 1), evicted, nil
}
