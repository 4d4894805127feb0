package rules

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// MaxBatchMoves bounds one batched submission.
const MaxBatchMoves = 5

// Move is one player-submitted action.
type Move struct {
	Action  state.Action
	Payload []byte
	Nonce   uint64
}

// TripleResult carries what a rebuttal revealed.
type TripleResult struct {
	Cards          [3]Card
	Hash           codec.Hash
	HandCommitment codec.Hash
}

// Outcome describes an accepted move.
type Outcome struct {
	Record   state.MoveRecord
	Rebut    *TripleResult
	Ended    bool
	NextTurn uint8
}

// Limits are the submission checks that depend on chain params.
type Limits struct {
	// MaxMatchAgeSecs rejects moves once a match with recorded moves is older
	// than this. 0 disables the check.
	MaxMatchAgeSecs int64
}

func checkSubmission(m *state.Match, actor int, mv Move, now int64, lim Limits) error {
	if len(mv.Payload) > state.MaxPayloadLen {
		return types.ErrPayload.Wrapf("payload too long: %d > %d bytes", len(mv.Payload), state.MaxPayloadLen)
	}
	if mv.Action > state.MaxAction {
		return types.ErrPayload.Wrapf("unknown action %d", mv.Action)
	}
	if !m.HasMinimumPlayers() {
		return types.ErrPhase.Wrapf("match has %d players, needs %d", m.PlayerCount, m.MinPlayers)
	}
	if now < m.CreatedAt {
		return types.ErrPayload.Wrapf("move time %d precedes match creation %d", now, m.CreatedAt)
	}
	if lim.MaxMatchAgeSecs > 0 && m.MoveCount > 0 && now-m.CreatedAt > lim.MaxMatchAgeSecs {
		return types.ErrPayload.Wrapf("match expired: age %ds exceeds %ds", now-m.CreatedAt, lim.MaxMatchAgeSecs)
	}
	if mv.Nonce <= m.LastNonce[actor] {
		return types.ErrReplay.Wrapf("nonce %d must exceed %d", mv.Nonce, m.LastNonce[actor])
	}
	return nil
}

// Submit validates mv for the player at actor and applies it to m. On error m
// is unchanged.
func Submit(m *state.Match, actor int, mv Move, now int64, lim Limits) (Outcome, error) {
	if m == nil {
		return Outcome{}, types.ErrNotFound.Wrap("match is nil")
	}
	if actor < 0 || actor >= int(m.PlayerCount) {
		return Outcome{}, types.ErrAuthorization.Wrapf("player index %d not in match", actor)
	}
	if err := checkSubmission(m, actor, mv, now, lim); err != nil {
		return Outcome{}, err
	}
	rebut, err := validate(m, actor, mv.Action, mv.Payload)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Rebut: rebut}
	moveIndex := m.MoveCount
	moveCount, err := types.IncUint32Checked(m.MoveCount, "move_count")
	if err != nil {
		return Outcome{}, err
	}

	apply(m, actor, mv, now)
	m.LastNonce[actor] = mv.Nonce
	m.MoveCount = moveCount

	out.Record = state.MoveRecord{
		MatchID:   m.MatchID,
		Actor:     m.Players[actor],
		MoveIndex: moveIndex,
		Action:    mv.Action,
		Payload:   append([]byte(nil), mv.Payload...),
		Nonce:     mv.Nonce,
		Timestamp: now,
	}
	out.Ended = m.Phase == state.PhaseEnded
	out.NextTurn = m.CurrentPlayer
	return out, nil
}

// SubmitBatch applies up to MaxBatchMoves moves from one player in order. Turn
// checks see the match as left by the previous move. Either every move is
// applied or m is left untouched.
func SubmitBatch(m *state.Match, actor int, moves []Move, now int64, lim Limits) ([]Outcome, error) {
	if len(moves) == 0 || len(moves) > MaxBatchMoves {
		return nil, types.ErrPayload.Wrapf("batch must hold 1..%d moves, got %d", MaxBatchMoves, len(moves))
	}
	if m == nil {
		return nil, types.ErrNotFound.Wrap("match is nil")
	}
	staged := *m
	out := make([]Outcome, 0, len(moves))
	for i, mv := range moves {
		o, err := Submit(&staged, actor, mv, now, lim)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "batch move %d", i)
		}
		out = append(out, o)
	}
	*m = staged
	return out, nil
}

func apply(m *state.Match, actor int, mv Move, now int64) {
	switch mv.Action {
	case state.ActionPickUp:
		m.ClearFloor()
		m.HandSizes[actor]++
		m.AdvanceTurn(actor)
	case state.ActionDecline:
		m.ClearFlag(state.FlagFloorRevealed)
		m.AdvanceTurn(actor)
	case state.ActionDeclareIntent:
		m.SetDeclaredSuit(actor, state.Suit(mv.Payload[0]))
	case state.ActionCallShowdown:
		m.Phase = state.PhaseEnded
		m.EndedAt = now
	case state.ActionRebuttal:
		// Recorded only; ownership is checked during replay.
	}
}
