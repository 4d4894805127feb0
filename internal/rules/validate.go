package rules

import (
	"bytes"

	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// Validate decides whether the player at actor may take action with payload.
// It never mutates m.
func Validate(m *state.Match, actor int, action state.Action, payload []byte) error {
	_, err := validate(m, actor, action, payload)
	return err
}

// validate also returns what a rebuttal revealed; it is nil for other actions.
func validate(m *state.Match, actor int, action state.Action, payload []byte) (*TripleResult, error) {
	if m == nil {
		return nil, types.ErrNotFound.Wrap("match is nil")
	}
	if actor < 0 || actor >= int(m.PlayerCount) {
		return nil, types.ErrAuthorization.Wrapf("player index %d not in match", actor)
	}
	if m.Phase != state.PhasePlaying {
		return nil, types.ErrPhase.Wrapf("%s requires phase playing, got %s", action, m.Phase)
	}

	switch action {
	case state.ActionPickUp:
		return nil, validatePickUp(m, actor, payload)
	case state.ActionDecline:
		return nil, validateDecline(m, actor)
	case state.ActionDeclareIntent:
		return nil, validateDeclareIntent(m, actor, payload)
	case state.ActionCallShowdown:
		return nil, validateCallShowdown(m, actor)
	case state.ActionRebuttal:
		tr, err := validateRebuttal(m, actor, payload)
		if err != nil {
			return nil, err
		}
		return &tr, nil
	default:
		return nil, types.ErrPayload.Wrapf("unknown action %d", action)
	}
}

func requireTurn(m *state.Match, actor int) error {
	if int(m.CurrentPlayer) != actor {
		return types.ErrTurnOrder.Wrapf("current player is %d, not %d", m.CurrentPlayer, actor)
	}
	return nil
}

func validatePickUp(m *state.Match, actor int, payload []byte) error {
	if err := requireTurn(m, actor); err != nil {
		return err
	}
	if !m.FloorRevealed() || m.FloorCardHash.IsZero() {
		return types.ErrPhase.Wrap("no floor card revealed")
	}
	if len(payload) < 32 {
		return types.ErrPayload.Wrapf("pick_up payload needs a 32-byte card hash, got %d bytes", len(payload))
	}
	if !bytes.Equal(payload[:32], m.FloorCardHash[:]) {
		return types.ErrPayload.Wrap("card hash does not match floor card")
	}
	if m.HandSizes[actor] >= state.ClaimMaxHand {
		return types.ErrCapacity.Wrapf("hand is full (%d)", state.ClaimMaxHand)
	}
	return nil
}

func validateDecline(m *state.Match, actor int) error {
	if err := requireTurn(m, actor); err != nil {
		return err
	}
	if !m.FloorRevealed() {
		return types.ErrPhase.Wrap("no floor card revealed")
	}
	return nil
}

func validateDeclareIntent(m *state.Match, actor int, payload []byte) error {
	if len(payload) < 1 {
		return types.ErrPayload.Wrap("declare_intent payload needs a suit")
	}
	suit := state.Suit(payload[0])
	if suit >= state.NumSuits {
		return types.ErrPayload.Wrapf("invalid suit %d", suit)
	}
	if m.HasDeclared(actor) {
		return types.ErrStateConflict.Wrapf("player %d already declared", actor)
	}
	if holder, ok := m.SuitClaimant(suit); ok {
		return types.ErrStateConflict.Wrapf("suit %d already claimed by player %d", suit, holder)
	}
	return nil
}

func validateCallShowdown(m *state.Match, actor int) error {
	if !m.HasDeclared(actor) {
		return types.ErrStateConflict.Wrapf("player %d has not declared a suit", actor)
	}
	return nil
}

// validateRebuttal returns the canonical hash of the revealed triple.
func validateRebuttal(m *state.Match, actor int, payload []byte) (TripleResult, error) {
	if m.HasDeclared(actor) {
		return TripleResult{}, types.ErrStateConflict.Wrapf("player %d already declared", actor)
	}
	cards, err := ParseTriple(payload)
	if err != nil {
		return TripleResult{}, types.ErrPayload.Wrap(err.Error())
	}
	if !IsValidRun(cards) {
		return TripleResult{}, types.ErrPayload.Wrap("cards do not form a same-suit run")
	}
	commit, ok := m.HandCommitment(actor)
	if !ok {
		return TripleResult{}, types.ErrPayload.Wrap("card hash mismatch: no hand commitment on file")
	}
	return TripleResult{Cards: cards, Hash: TripleHash(cards), HandCommitment: commit}, nil
}
