package rules

import (
	"github.com/ocentra/ocentra-games/internal/state"
)

const (
	scoreDeclareBase  int32 = 20
	scoreFirstBonus   int32 = 5
	scorePenaltyRound int32 = 2

	minScore int32 = -100
	maxScore int32 = 200
)

func clampScore(v int64) int32 {
	if v < int64(minScore) {
		return minScore
	}
	if v > int64(maxScore) {
		return maxScore
	}
	return int32(v)
}

// EstimateScores scores a match from its record alone. Declarers earn the
// base plus average moves per player, the lowest-index declarer earns the
// bonus, and everyone else loses two points per round (at least one round).
func EstimateScores(m *state.Match) [state.MaxPlayers]int32 {
	var scores [state.MaxPlayers]int32
	if m == nil || m.PlayerCount == 0 {
		return scores
	}
	rounds := int64(m.MoveCount) / int64(m.PlayerCount)

	declarations := 0
	for i := 0; i < int(m.PlayerCount); i++ {
		if m.HasDeclared(i) {
			declarations++
			s := int64(scoreDeclareBase) + rounds
			if declarations == 1 {
				s += int64(scoreFirstBonus)
			}
			scores[i] = clampScore(s)
			continue
		}
		r := rounds
		if r < 1 {
			r = 1
		}
		scores[i] = clampScore(-int64(scorePenaltyRound) * r)
	}
	return scores
}

// ReplayScores scores a match by walking its move log in order. Only moves by
// players on the roster count.
func ReplayScores(m *state.Match, moves []state.MoveRecord) [state.MaxPlayers]int32 {
	var scores [state.MaxPlayers]int32
	if m == nil {
		return scores
	}
	var (
		ownMoves [state.MaxPlayers]int64
		declared [state.MaxPlayers]bool
	)
	for _, mv := range moves {
		i, ok := m.PlayerIndex(mv.Actor)
		if !ok {
			continue
		}
		ownMoves[i]++
		if mv.Action == state.ActionDeclareIntent && len(mv.Payload) >= 1 && mv.Payload[0] < state.NumSuits {
			declared[i] = true
		}
	}

	for i := 0; i < int(m.PlayerCount); i++ {
		if !declared[i] {
			scores[i] = clampScore(-int64(scorePenaltyRound) * ownMoves[i])
			continue
		}
		s := int64(scoreDeclareBase) + ownMoves[i]
		first := true
		for j := 0; j < i; j++ {
			if declared[j] {
				first = false
				break
			}
		}
		if first {
			s += int64(scoreFirstBonus)
		}
		scores[i] = clampScore(s)
	}
	return scores
}
