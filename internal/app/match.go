package app

import (
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/rules"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

func requireMatchAuthority(ctx *txContext, m *state.Match) error {
	if ctx.signer() != m.Authority {
		return types.ErrAuthorization.Wrapf("signer %q is not the match authority", ctx.signer())
	}
	return nil
}

func requirePhase(m *state.Match, want ...state.Phase) error {
	for _, p := range want {
		if m.Phase == p {
			return nil
		}
	}
	names := make([]string, len(want))
	for i, p := range want {
		names[i] = p.String()
	}
	return types.ErrPhase.Wrapf("match is %s, want %s", m.Phase, strings.Join(names, "|"))
}

func validateHotURL(url string) error {
	if len(url) > state.MaxHotURLLen {
		return types.ErrPayload.Wrapf("url too long: %d > %d bytes", len(url), state.MaxHotURLLen)
	}
	return nil
}

func matchCreate(ctx *txContext, msg codec.MatchCreateTx) (*abci.ExecTxResult, error) {
	if err := requireRole(ctx, state.RoleCoordinator, state.RoleAuthority); err != nil {
		return nil, err
	}
	if err := codec.ValidateMatchID(msg.MatchID); err != nil {
		return nil, types.ErrPayload.Wrap(err.Error())
	}
	if _, exists := ctx.st.Matches[msg.MatchID]; exists {
		return nil, types.ErrStateConflict.Wrapf("match %q already exists", msg.MatchID)
	}
	spec, err := ctx.st.ResolveGame(msg.GameType)
	if err != nil {
		return nil, err
	}

	m := state.NewMatch(msg.MatchID, msg.GameType, spec, msg.Seed, ctx.signer(), ctx.now)
	ctx.st.Matches[msg.MatchID] = m
	return okEvent("MatchCreated", map[string]string{
		"matchId":    m.MatchID,
		"gameType":   fmt.Sprintf("%d", m.GameType),
		"gameName":   m.GameName,
		"authority":  m.Authority,
		"minPlayers": fmt.Sprintf("%d", m.MinPlayers),
		"maxPlayers": fmt.Sprintf("%d", m.MaxPlayers),
	}), nil
}

func matchJoin(ctx *txContext, msg codec.MatchJoinTx) (*abci.ExecTxResult, error) {
	if err := requireSigner(ctx, "player", msg.Player); err != nil {
		return nil, err
	}
	m, err := ctx.st.Match(msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(m, state.PhaseDealing); err != nil {
		return nil, err
	}
	if err := m.AddPlayer(msg.Player); err != nil {
		return nil, err
	}
	return okEvent("PlayerJoined", map[string]string{
		"matchId":     m.MatchID,
		"player":      msg.Player,
		"playerCount": fmt.Sprintf("%d", m.PlayerCount),
		"allJoined":   strconv.FormatBool(m.HasFlag(state.FlagAllJoined)),
	}), nil
}

func matchCommitHand(ctx *txContext, msg codec.MatchCommitHandTx) (*abci.ExecTxResult, error) {
	if err := requireSigner(ctx, "player", msg.Player); err != nil {
		return nil, err
	}
	m, err := ctx.st.Match(msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(m, state.PhaseDealing); err != nil {
		return nil, err
	}
	idx, ok := m.PlayerIndex(msg.Player)
	if !ok {
		return nil, types.ErrAuthorization.Wrapf("player %q not in match", msg.Player)
	}
	if msg.HandHash.IsZero() {
		return nil, types.ErrPayload.Wrap("hand hash must be non-zero")
	}
	if msg.HandSize == 0 || msg.HandSize > state.MaxHandSize {
		return nil, types.ErrPayload.Wrapf("hand size must be 1..%d, got %d", state.MaxHandSize, msg.HandSize)
	}
	if _, set := m.HandCommitment(idx); set {
		return nil, types.ErrStateConflict.Wrapf("player %q already committed a hand", msg.Player)
	}
	m.HandCommits[idx] = msg.HandHash
	m.HandSizes[idx] = msg.HandSize
	return okEvent("HandCommitted", map[string]string{
		"matchId":  m.MatchID,
		"player":   msg.Player,
		"handHash": msg.HandHash.String(),
		"handSize": fmt.Sprintf("%d", msg.HandSize),
	}), nil
}

func matchStart(ctx *txContext, msg codec.MatchStartTx) (*abci.ExecTxResult, error) {
	m, err := ctx.st.Match(msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := requireMatchAuthority(ctx, m); err != nil {
		return nil, err
	}
	if err := requirePhase(m, state.PhaseDealing); err != nil {
		return nil, err
	}
	if m.PlayerCount < m.MinPlayers || m.PlayerCount > m.MaxPlayers {
		return nil, types.ErrPhase.Wrapf("need %d..%d players, have %d", m.MinPlayers, m.MaxPlayers, m.PlayerCount)
	}
	m.Phase = state.PhasePlaying
	m.CurrentPlayer = 0
	m.ClearFloor()
	return okEvent("MatchStarted", map[string]string{
		"matchId":       m.MatchID,
		"playerCount":   fmt.Sprintf("%d", m.PlayerCount),
		"currentPlayer": m.Players[0],
	}), nil
}

func matchRevealFloor(ctx *txContext, msg codec.MatchRevealFloorTx) (*abci.ExecTxResult, error) {
	m, err := ctx.st.Match(msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := requireMatchAuthority(ctx, m); err != nil {
		return nil, err
	}
	if err := requirePhase(m, state.PhasePlaying); err != nil {
		return nil, err
	}
	if msg.CardHash.IsZero() {
		return nil, types.ErrPayload.Wrap("card hash must be non-zero")
	}
	if m.FloorRevealed() {
		return nil, types.ErrStateConflict.Wrap("a floor card is already revealed")
	}
	m.RevealFloor(msg.CardHash)
	return okEvent("FloorRevealed", map[string]string{
		"matchId":  m.MatchID,
		"cardHash": msg.CardHash.String(),
	}), nil
}

// matchEnd finalizes scores on the first call. Later calls may only attach
// the match hash or url.
func matchEnd(ctx *txContext, msg codec.MatchEndTx) (*abci.ExecTxResult, error) {
	m, err := ctx.st.Match(msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := requireMatchAuthority(ctx, m); err != nil {
		return nil, err
	}
	if err := requirePhase(m, state.PhasePlaying, state.PhaseEnded); err != nil {
		return nil, err
	}
	if err := validateHotURL(msg.HotURL); err != nil {
		return nil, err
	}
	if msg.MatchHash != nil {
		if msg.MatchHash.IsZero() {
			return nil, types.ErrPayload.Wrap("match hash must be non-zero")
		}
		if !m.MatchHash.IsZero() && m.MatchHash != *msg.MatchHash {
			return nil, types.ErrStateConflict.Wrap("match hash already set")
		}
	}

	first := !m.HasFlag(state.FlagScoresFinal)
	if first {
		m.Scores = rules.EstimateScores(m)
		m.SetFlag(state.FlagScoresFinal)
	}
	if m.EndedAt == 0 {
		m.EndedAt = ctx.now
	}
	m.Phase = state.PhaseEnded
	if msg.MatchHash != nil {
		m.MatchHash = *msg.MatchHash
	}
	if msg.HotURL != "" {
		m.HotURL = msg.HotURL
	}

	attrs := map[string]string{
		"matchId": m.MatchID,
		"endedAt": fmt.Sprintf("%d", m.EndedAt),
		"first":   strconv.FormatBool(first),
	}
	if !m.MatchHash.IsZero() {
		attrs["matchHash"] = m.MatchHash.String()
	}
	for i := 0; i < int(m.PlayerCount); i++ {
		attrs["score."+m.Players[i]] = fmt.Sprintf("%d", m.Scores[i])
	}
	return okEvent("MatchEnded", attrs), nil
}

func matchAnchor(ctx *txContext, msg codec.MatchAnchorTx) (*abci.ExecTxResult, error) {
	m, err := ctx.st.Match(msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := requireMatchAuthority(ctx, m); err != nil {
		return nil, err
	}
	if err := requirePhase(m, state.PhaseEnded); err != nil {
		return nil, err
	}
	if msg.MatchHash.IsZero() {
		return nil, types.ErrPayload.Wrap("match hash must be non-zero")
	}
	if err := validateHotURL(msg.HotURL); err != nil {
		return nil, err
	}
	if !m.MatchHash.IsZero() {
		return nil, types.ErrStateConflict.Wrap("match hash already set")
	}
	m.MatchHash = msg.MatchHash
	if msg.HotURL != "" {
		m.HotURL = msg.HotURL
	}
	return okEvent("MatchAnchored", map[string]string{
		"matchId":   m.MatchID,
		"matchHash": m.MatchHash.String(),
		"hotUrl":    m.HotURL,
	}), nil
}

// matchClose drops an ended match and its move log from live state.
func matchClose(ctx *txContext, msg codec.MatchCloseTx) (*abci.ExecTxResult, error) {
	m, err := ctx.st.Match(msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := requireMatchAuthority(ctx, m); err != nil {
		return nil, err
	}
	if err := requirePhase(m, state.PhaseEnded); err != nil {
		return nil, err
	}
	moves := len(ctx.st.Moves[msg.MatchID])
	reclaimed := state.MatchRecordSize + moves*state.MoveRecordSize

	delete(ctx.st.Matches, msg.MatchID)
	delete(ctx.st.Moves, msg.MatchID)
	return okEvent("MatchClosed", map[string]string{
		"matchId":        msg.MatchID,
		"movesRemoved":   fmt.Sprintf("%d", moves),
		"reclaimedBytes": fmt.Sprintf("%d", reclaimed),
	}), nil
}

func anchorBatch(ctx *txContext, msg codec.AnchorBatchTx) (*abci.ExecTxResult, error) {
	if err := requireRole(ctx, state.RoleCoordinator, state.RoleAuthority); err != nil {
		return nil, err
	}
	if msg.BatchID == "" || len(msg.BatchID) > state.MaxBatchIDLen {
		return nil, types.ErrPayload.Wrapf("batch id must be 1..%d bytes", state.MaxBatchIDLen)
	}
	if msg.MerkleRoot.IsZero() {
		return nil, types.ErrPayload.Wrap("merkle root must be non-zero")
	}
	if msg.Count == 0 || msg.Count > uint64(^uint32(0)) {
		return nil, types.ErrPayload.Wrapf("invalid batch count %d", msg.Count)
	}
	for _, id := range []string{msg.FirstMatchID, msg.LastMatchID} {
		if err := codec.ValidateMatchID(id); err != nil {
			return nil, types.ErrPayload.Wrap(err.Error())
		}
	}
	if _, exists := ctx.st.Batches[msg.BatchID]; exists {
		return nil, types.ErrStateConflict.Wrapf("batch %q already anchored", msg.BatchID)
	}
	ctx.st.Batches[msg.BatchID] = &state.BatchAnchor{
		BatchID:      msg.BatchID,
		MerkleRoot:   msg.MerkleRoot,
		Count:        uint32(msg.Count),
		FirstMatchID: msg.FirstMatchID,
		LastMatchID:  msg.LastMatchID,
		Timestamp:    ctx.now,
		Authority:    ctx.signer(),
	}
	return okEvent("BatchAnchored", map[string]string{
		"batchId":    msg.BatchID,
		"merkleRoot": msg.MerkleRoot.String(),
		"count":      fmt.Sprintf("%d", msg.Count),
	}), nil
}
