package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/rules"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

func moverIndex(ctx *txContext, matchID, player string) (*state.Match, int, error) {
	if err := requireSigner(ctx, "player", player); err != nil {
		return nil, 0, err
	}
	m, err := ctx.st.Match(matchID)
	if err != nil {
		return nil, 0, err
	}
	idx, ok := m.PlayerIndex(player)
	if !ok {
		return nil, 0, types.ErrAuthorization.Wrapf("player %q not in match", player)
	}
	return m, idx, nil
}

func toMove(in codec.MoveInput) rules.Move {
	return rules.Move{Action: state.Action(in.Action), Payload: in.Payload, Nonce: in.Nonce}
}

func limits(st *state.State) rules.Limits {
	return rules.Limits{MaxMatchAgeSecs: st.Params.MaxMatchAgeSecs}
}

func moveEvent(m *state.Match, o rules.Outcome) abci.Event {
	attrs := map[string]string{
		"matchId":       m.MatchID,
		"player":        o.Record.Actor,
		"action":        o.Record.Action.String(),
		"moveIndex":     fmt.Sprintf("%d", o.Record.MoveIndex),
		"nonce":         fmt.Sprintf("%d", o.Record.Nonce),
		"currentPlayer": fmt.Sprintf("%d", o.NextTurn),
		"phase":         m.Phase.String(),
	}
	if o.Rebut != nil {
		attrs["tripleHash"] = o.Rebut.Hash.String()
		attrs["handCommitment"] = o.Rebut.HandCommitment.String()
	}
	return event("MoveApplied", attrs)
}

func matchSubmitMove(ctx *txContext, msg codec.MatchSubmitMoveTx) (*abci.ExecTxResult, error) {
	m, idx, err := moverIndex(ctx, msg.MatchID, msg.Player)
	if err != nil {
		return nil, err
	}
	o, err := rules.Submit(m, idx, toMove(msg.MoveInput), ctx.now, limits(ctx.st))
	if err != nil {
		return nil, err
	}
	ctx.st.Moves[m.MatchID] = append(ctx.st.Moves[m.MatchID], o.Record)
	return &abci.ExecTxResult{Events: []abci.Event{moveEvent(m, o)}}, nil
}

func matchSubmitBatch(ctx *txContext, msg codec.MatchSubmitBatchTx) (*abci.ExecTxResult, error) {
	m, idx, err := moverIndex(ctx, msg.MatchID, msg.Player)
	if err != nil {
		return nil, err
	}
	moves := make([]rules.Move, len(msg.Moves))
	for i, in := range msg.Moves {
		moves[i] = toMove(in)
	}
	outs, err := rules.SubmitBatch(m, idx, moves, ctx.now, limits(ctx.st))
	if err != nil {
		return nil, err
	}
	res := &abci.ExecTxResult{Events: make([]abci.Event, 0, len(outs))}
	for _, o := range outs {
		ctx.st.Moves[m.MatchID] = append(ctx.st.Moves[m.MatchID], o.Record)
		res.Events = append(res.Events, moveEvent(m, o))
	}
	return res, nil
}
