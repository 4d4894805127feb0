package app

import (
	"context"
	"encoding/json"
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/rules"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// setupMatch creates testMatchID as root and joins players.
func setupMatch(t *testing.T, a *MatchApp, players ...string) {
	t.Helper()
	setupRegistry(t, a, players...)
	mustOk(t, deliver(t, a, "match/create", map[string]any{"matchId": testMatchID, "gameType": state.GameClaim, "seed": 7}, "root"))
	for _, p := range players {
		mustOk(t, deliver(t, a, "match/join", map[string]any{"matchId": testMatchID, "player": p}, p))
	}
}

func setupPlayingMatch(t *testing.T, a *MatchApp, players ...string) {
	t.Helper()
	setupMatch(t, a, players...)
	mustOk(t, deliver(t, a, "match/start", map[string]any{"matchId": testMatchID}, "root"))
}

// nextMoveNonce is one past the last nonce a has accepted from player.
func nextMoveNonce(t *testing.T, a *MatchApp, player string) uint64 {
	t.Helper()
	m := match(t, a)
	i, ok := m.PlayerIndex(player)
	if !ok {
		return 1
	}
	return m.LastNonce[i] + 1
}

func submit(t *testing.T, a *MatchApp, player string, action state.Action, payload []byte) *abci.ExecTxResult {
	t.Helper()
	return deliver(t, a, "match/submit_move", map[string]any{
		"matchId": testMatchID,
		"player":  player,
		"action":  action,
		"payload": payload,
		"nonce":   nextMoveNonce(t, a, player),
	}, player)
}

func match(t *testing.T, a *MatchApp) *state.Match {
	t.Helper()
	m, err := a.st.Match(testMatchID)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	return m
}

func TestCreate_Authorization(t *testing.T) {
	a := newTestApp(t)
	setupRegistry(t, a, "alice", "coord")

	mustErr(t, deliver(t, a, "match/create", map[string]any{"matchId": testMatchID, "gameType": 0}, "alice"), types.ErrAuthorization)

	mustOk(t, deliver(t, a, "registry/add_signer", map[string]any{"signer": "coord", "role": state.RoleCoordinator}, "root"))
	mustErr(t, deliver(t, a, "match/create", map[string]any{"matchId": "short", "gameType": 0}, "coord"), types.ErrPayload)
	mustErr(t, deliver(t, a, "match/create", map[string]any{"matchId": testMatchID, "gameType": 42}, "coord"), types.ErrPayload)

	res := mustOk(t, deliver(t, a, "match/create", map[string]any{"matchId": testMatchID, "gameType": state.GamePoker}, "coord"))
	ev := findEvent(res.Events, "MatchCreated")
	if attr(ev, "authority") != "coord" || attr(ev, "maxPlayers") != "10" {
		t.Fatalf("unexpected MatchCreated attrs: %+v", ev)
	}
	mustErr(t, deliver(t, a, "match/create", map[string]any{"matchId": testMatchID, "gameType": 0}, "coord"), types.ErrStateConflict)
}

func TestCreate_DisabledGameBlocks(t *testing.T) {
	a := newTestApp(t)
	setupRegistry(t, a)

	mustOk(t, deliver(t, a, "registry/add_game", map[string]any{"gameId": 0, "name": "CLAIM", "minPlayers": 2, "maxPlayers": 3}, "root"))
	mustOk(t, deliver(t, a, "registry/disable_game", map[string]any{"gameId": 0}, "root"))
	mustErr(t, deliver(t, a, "match/create", map[string]any{"matchId": testMatchID, "gameType": 0}, "root"), types.ErrPayload)

	mustOk(t, deliver(t, a, "registry/update_game", map[string]any{"gameId": 0, "enabled": true}, "root"))
	mustOk(t, deliver(t, a, "match/create", map[string]any{"matchId": testMatchID, "gameType": 0}, "root"))
	if got := match(t, a).MaxPlayers; got != 3 {
		t.Fatalf("registry bounds not applied: max=%d", got)
	}
}

func TestJoin_MembershipAndCapacity(t *testing.T) {
	a := newTestApp(t)
	setupMatch(t, a, "p1", "p2", "p3")
	registerTestAccount(t, a, "p4", "p5")

	mustErr(t, deliver(t, a, "match/join", map[string]any{"matchId": testMatchID, "player": "p1"}, "p1"), types.ErrStateConflict)
	mustErr(t, deliver(t, a, "match/join", map[string]any{"matchId": testMatchID, "player": "p4"}, "p5"), types.ErrAuthorization)

	res := mustOk(t, deliver(t, a, "match/join", map[string]any{"matchId": testMatchID, "player": "p4"}, "p4"))
	if attr(findEvent(res.Events, "PlayerJoined"), "allJoined") != "true" {
		t.Fatalf("expected allJoined once CLAIM reaches 4 players")
	}
	mustErr(t, deliver(t, a, "match/join", map[string]any{"matchId": testMatchID, "player": "p5"}, "p5"), types.ErrCapacity)

	m := match(t, a)
	if m.PlayerCount != 4 {
		t.Fatalf("player count = %d", m.PlayerCount)
	}
	seen := map[string]bool{}
	for _, p := range m.ActivePlayers() {
		if seen[p] {
			t.Fatalf("duplicate player %q", p)
		}
		seen[p] = true
	}
}

func TestStart_RequiresAuthorityAndPlayers(t *testing.T) {
	a := newTestApp(t)
	setupMatch(t, a, "alice")

	mustErr(t, deliver(t, a, "match/start", map[string]any{"matchId": testMatchID}, "alice"), types.ErrAuthorization)
	mustErr(t, deliver(t, a, "match/start", map[string]any{"matchId": testMatchID}, "root"), types.ErrPhase)

	registerTestAccount(t, a, "bob")
	mustOk(t, deliver(t, a, "match/join", map[string]any{"matchId": testMatchID, "player": "bob"}, "bob"))
	mustOk(t, deliver(t, a, "match/start", map[string]any{"matchId": testMatchID}, "root"))
	mustErr(t, deliver(t, a, "match/join", map[string]any{"matchId": testMatchID, "player": "root"}, "root"), types.ErrPhase)

	m := match(t, a)
	if m.Phase != state.PhasePlaying || m.CurrentPlayer != 0 {
		t.Fatalf("unexpected phase=%s current=%d", m.Phase, m.CurrentPlayer)
	}
}

func TestCommitHand(t *testing.T) {
	a := newTestApp(t)
	setupMatch(t, a, "alice", "bob")

	h := codec.Hash{0xaa}
	mustErr(t, deliver(t, a, "match/commit_hand", map[string]any{"matchId": testMatchID, "player": "alice", "handHash": codec.Hash{}, "handSize": 5}, "alice"), types.ErrPayload)
	mustErr(t, deliver(t, a, "match/commit_hand", map[string]any{"matchId": testMatchID, "player": "alice", "handHash": h, "handSize": 53}, "alice"), types.ErrPayload)
	mustOk(t, deliver(t, a, "match/commit_hand", map[string]any{"matchId": testMatchID, "player": "alice", "handHash": h, "handSize": 5}, "alice"))
	mustErr(t, deliver(t, a, "match/commit_hand", map[string]any{"matchId": testMatchID, "player": "alice", "handHash": codec.Hash{0xbb}, "handSize": 5}, "alice"), types.ErrStateConflict)

	mustOk(t, deliver(t, a, "match/start", map[string]any{"matchId": testMatchID}, "root"))
	if got, _ := match(t, a).HandCommitment(0); got != h {
		t.Fatalf("commitment lost on start: %s", got)
	}
	mustErr(t, deliver(t, a, "match/commit_hand", map[string]any{"matchId": testMatchID, "player": "bob", "handHash": h, "handSize": 5}, "bob"), types.ErrPhase)
}

func TestDeclareConflictShowdownAndEnd(t *testing.T) {
	a := newTestApp(t)
	setupPlayingMatch(t, a, "alice", "bob", "carol")

	mustOk(t, submit(t, a, "alice", state.ActionDeclareIntent, []byte{byte(state.SuitSpades)}))
	mustErr(t, submit(t, a, "bob", state.ActionDeclareIntent, []byte{byte(state.SuitSpades)}), types.ErrStateConflict)
	mustOk(t, submit(t, a, "bob", state.ActionDeclareIntent, []byte{byte(state.SuitHearts)}))
	mustErr(t, submit(t, a, "carol", state.ActionCallShowdown, nil), types.ErrStateConflict)

	res := mustOk(t, submit(t, a, "alice", state.ActionCallShowdown, nil))
	if attr(findEvent(res.Events, "MoveApplied"), "phase") != "ended" {
		t.Fatalf("showdown should end the match")
	}
	m := match(t, a)
	if m.Phase != state.PhaseEnded || m.EndedAt != testNow {
		t.Fatalf("phase=%s endedAt=%d", m.Phase, m.EndedAt)
	}
	mustErr(t, submit(t, a, "carol", state.ActionDeclareIntent, []byte{2}), types.ErrPhase)

	mustErr(t, deliver(t, a, "match/end", map[string]any{"matchId": testMatchID}, "alice"), types.ErrAuthorization)
	res = mustOk(t, deliver(t, a, "match/end", map[string]any{"matchId": testMatchID}, "root"))
	ev := findEvent(res.Events, "MatchEnded")
	// 3 moves / 3 players = 1 round.
	if attr(ev, "score.alice") != "26" || attr(ev, "score.bob") != "21" || attr(ev, "score.carol") != "-2" {
		t.Fatalf("unexpected scores: %+v", ev.Attributes)
	}
	scores := match(t, a).Scores

	final := codec.Hash{0x42}
	res = a.deliverTx(txBytesSigned(t, "match/end", map[string]any{"matchId": testMatchID, "matchHash": final}, "root"), testHeight, testNow+500)
	mustOk(t, res)
	m = match(t, a)
	if m.Scores != scores || m.EndedAt != testNow {
		t.Fatalf("second end changed scores or endedAt: %v %d", m.Scores, m.EndedAt)
	}
	if m.MatchHash != final {
		t.Fatalf("match hash not recorded")
	}
	mustErr(t, deliver(t, a, "match/end", map[string]any{"matchId": testMatchID, "matchHash": codec.Hash{0x43}}, "root"), types.ErrStateConflict)
	mustErr(t, deliver(t, a, "match/anchor", map[string]any{"matchId": testMatchID, "matchHash": codec.Hash{0x43}}, "root"), types.ErrStateConflict)
}

func TestSubmitMove_NonceReplayLeavesStateUntouched(t *testing.T) {
	a := newTestApp(t)
	setupPlayingMatch(t, a, "alice", "bob")

	mustOk(t, submit(t, a, "alice", state.ActionDeclareIntent, []byte{1}))
	before := *match(t, a)
	used := nextMoveNonce(t, a, "alice") - 1

	res := deliver(t, a, "match/submit_move", map[string]any{
		"matchId": testMatchID, "player": "alice", "action": state.ActionCallShowdown, "nonce": used,
	}, "alice")
	mustErr(t, res, types.ErrReplay)

	if *match(t, a) != before {
		t.Fatalf("rejected move mutated the match")
	}
	if n := len(a.st.Moves[testMatchID]); n != 1 {
		t.Fatalf("move log has %d entries, want 1", n)
	}
	if mv := a.st.Moves[testMatchID][0]; mv.MoveIndex != 0 || mv.Actor != "alice" || mv.Nonce != used {
		t.Fatalf("unexpected move record: %+v", mv)
	}
}

func TestSubmitMove_NoncesTrackEachApp(t *testing.T) {
	t.Parallel()
	a, b := newTestApp(t), newTestApp(t)
	setupPlayingMatch(t, a, "alice", "bob")
	setupPlayingMatch(t, b, "alice", "bob")

	mustOk(t, submit(t, a, "alice", state.ActionDeclareIntent, []byte{0}))
	mustOk(t, submit(t, a, "bob", state.ActionDeclareIntent, []byte{1}))
	mustOk(t, submit(t, b, "alice", state.ActionDeclareIntent, []byte{2}))

	if n := match(t, a).LastNonce[0]; n != 1 {
		t.Fatalf("alice nonce on a = %d, want 1", n)
	}
	if m := match(t, b); m.LastNonce[0] != 1 || m.LastNonce[1] != 0 {
		t.Fatalf("nonces on b = %v, want alice 1 and bob 0", m.LastNonce[:2])
	}
	if got := nextMoveNonce(t, b, "bob"); got != 1 {
		t.Fatalf("next bob nonce on b = %d, want 1", got)
	}
}

func TestFloorPickUpAndDecline(t *testing.T) {
	a := newTestApp(t)
	setupPlayingMatch(t, a, "alice", "bob")

	mustErr(t, submit(t, a, "alice", state.ActionDecline, nil), types.ErrPhase)

	floor := codec.Hash{0x10, 0x20}
	mustErr(t, deliver(t, a, "match/reveal_floor", map[string]any{"matchId": testMatchID, "cardHash": floor}, "alice"), types.ErrAuthorization)
	mustOk(t, deliver(t, a, "match/reveal_floor", map[string]any{"matchId": testMatchID, "cardHash": floor}, "root"))
	mustErr(t, deliver(t, a, "match/reveal_floor", map[string]any{"matchId": testMatchID, "cardHash": floor}, "root"), types.ErrStateConflict)

	mustErr(t, submit(t, a, "bob", state.ActionPickUp, floor[:]), types.ErrTurnOrder)
	mustErr(t, submit(t, a, "alice", state.ActionPickUp, []byte("short")), types.ErrPayload)
	mustOk(t, submit(t, a, "alice", state.ActionPickUp, floor[:]))

	m := match(t, a)
	if m.FloorRevealed() || !m.FloorCardHash.IsZero() || m.HandSizes[0] != 1 || m.CurrentPlayer != 1 {
		t.Fatalf("pick_up not applied: %+v", m)
	}

	mustOk(t, deliver(t, a, "match/reveal_floor", map[string]any{"matchId": testMatchID, "cardHash": floor}, "root"))
	mustOk(t, submit(t, a, "bob", state.ActionDecline, nil))
	if m := match(t, a); m.CurrentPlayer != 0 || m.FloorRevealed() {
		t.Fatalf("decline not applied: current=%d", m.CurrentPlayer)
	}
}

func TestRebuttal_EmitsTripleHash(t *testing.T) {
	a := newTestApp(t)
	setupMatch(t, a, "alice", "bob")
	commit := codec.Hash{0xcc}
	mustOk(t, deliver(t, a, "match/commit_hand", map[string]any{"matchId": testMatchID, "player": "bob", "handHash": commit, "handSize": 3}, "bob"))
	mustOk(t, deliver(t, a, "match/start", map[string]any{"matchId": testMatchID}, "root"))

	payload := []byte{1, 7, 1, 5, 1, 6}
	mustErr(t, submit(t, a, "alice", state.ActionRebuttal, payload), types.ErrPayload)
	mustErr(t, submit(t, a, "bob", state.ActionRebuttal, []byte{1, 5, 1, 6, 2, 7}), types.ErrPayload)

	res := mustOk(t, submit(t, a, "bob", state.ActionRebuttal, payload))
	cards, err := rules.ParseTriple(payload)
	if err != nil {
		t.Fatalf("ParseTriple: %v", err)
	}
	ev := findEvent(res.Events, "MoveApplied")
	if attr(ev, "tripleHash") != rules.TripleHash(cards).String() || attr(ev, "handCommitment") != commit.String() {
		t.Fatalf("unexpected rebuttal attrs: %+v", ev.Attributes)
	}
}

func TestSubmitBatch_AllOrNothing(t *testing.T) {
	a := newTestApp(t)
	setupPlayingMatch(t, a, "alice", "bob")
	floor := codec.Hash{0x33}
	mustOk(t, deliver(t, a, "match/reveal_floor", map[string]any{"matchId": testMatchID, "cardHash": floor}, "root"))

	// The second decline fails: the turn has passed to bob.
	bad := deliver(t, a, "match/submit_batch", map[string]any{
		"matchId": testMatchID,
		"player":  "alice",
		"moves": []map[string]any{
			{"action": state.ActionDeclareIntent, "payload": []byte{0}, "nonce": 10},
			{"action": state.ActionDecline, "nonce": 11},
			{"action": state.ActionDecline, "nonce": 12},
		},
	}, "alice")
	mustErr(t, bad, types.ErrTurnOrder)
	m := match(t, a)
	if m.MoveCount != 0 || m.HasDeclared(0) || m.LastNonce[0] != 0 || len(a.st.Moves[testMatchID]) != 0 {
		t.Fatalf("failed batch left partial state: %+v", m)
	}

	res := mustOk(t, deliver(t, a, "match/submit_batch", map[string]any{
		"matchId": testMatchID,
		"player":  "alice",
		"moves": []map[string]any{
			{"action": state.ActionDeclareIntent, "payload": []byte{0}, "nonce": 10},
			{"action": state.ActionDecline, "nonce": 11},
		},
	}, "alice"))
	if len(res.Events) != 2 {
		t.Fatalf("expected one event per move, got %d", len(res.Events))
	}
	m = match(t, a)
	if m.MoveCount != 2 || m.CurrentPlayer != 1 || m.LastNonce[0] != 11 {
		t.Fatalf("batch not applied: moves=%d current=%d nonce=%d", m.MoveCount, m.CurrentPlayer, m.LastNonce[0])
	}

	tooMany := make([]map[string]any, rules.MaxBatchMoves+1)
	for i := range tooMany {
		tooMany[i] = map[string]any{"action": state.ActionDeclareIntent, "payload": []byte{1}, "nonce": 100 + i}
	}
	mustErr(t, deliver(t, a, "match/submit_batch", map[string]any{"matchId": testMatchID, "player": "bob", "moves": tooMany}, "bob"), types.ErrPayload)
}

func TestMatchAge_RejectsStaleMoves(t *testing.T) {
	a := newTestApp(t)
	setupPlayingMatch(t, a, "alice", "bob")
	mustOk(t, submit(t, a, "alice", state.ActionDeclareIntent, []byte{0}))

	late := txBytesSigned(t, "match/submit_move", map[string]any{
		"matchId": testMatchID, "player": "bob", "action": state.ActionDeclareIntent, "payload": []byte{1}, "nonce": nextMoveNonce(t, a, "bob"),
	}, "bob")
	mustErr(t, a.deliverTx(late, testHeight, testNow+state.DefaultParams().MaxMatchAgeSecs+1), types.ErrPayload)
}

func TestCloseAndReplayScores(t *testing.T) {
	a := newTestApp(t)
	setupPlayingMatch(t, a, "alice", "bob")
	mustOk(t, submit(t, a, "bob", state.ActionDeclareIntent, []byte{3}))

	q, err := a.Query(context.Background(), &abci.QueryRequest{Path: "/match/" + testMatchID + "/replay_scores"})
	if err != nil || q.Code != 0 {
		t.Fatalf("replay_scores: code=%d log=%q", q.Code, q.Log)
	}
	var view replayScoresView
	if err := json.Unmarshal(q.Value, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// bob declared with one own move and no lower-index declarer.
	if len(view.Replay) != 2 || view.Replay[0] != 0 || view.Replay[1] != 26 {
		t.Fatalf("unexpected replay scores: %+v", view)
	}

	mustErr(t, deliver(t, a, "match/close", map[string]any{"matchId": testMatchID}, "root"), types.ErrPhase)
	mustOk(t, submit(t, a, "bob", state.ActionCallShowdown, nil))
	mustErr(t, deliver(t, a, "match/close", map[string]any{"matchId": testMatchID}, "alice"), types.ErrAuthorization)

	res := mustOk(t, deliver(t, a, "match/close", map[string]any{"matchId": testMatchID}, "root"))
	if got := attr(findEvent(res.Events, "MatchClosed"), "movesRemoved"); got != "2" {
		t.Fatalf("movesRemoved = %s", got)
	}
	if _, ok := a.st.Matches[testMatchID]; ok {
		t.Fatalf("match still present after close")
	}
	if _, ok := a.st.Moves[testMatchID]; ok {
		t.Fatalf("move log still present after close")
	}
}

func TestAnchorBatch(t *testing.T) {
	a := newTestApp(t)
	setupRegistry(t, a, "alice")

	req := map[string]any{
		"batchId":      "batch-001",
		"merkleRoot":   codec.Hash{9},
		"count":        2,
		"firstMatchId": testMatchID,
		"lastMatchId":  testMatchID,
	}
	mustErr(t, deliver(t, a, "anchor/batch", req, "alice"), types.ErrAuthorization)
	mustOk(t, deliver(t, a, "anchor/batch", req, "root"))
	mustErr(t, deliver(t, a, "anchor/batch", req, "root"), types.ErrStateConflict)

	req["batchId"] = "batch-002"
	req["merkleRoot"] = codec.Hash{}
	mustErr(t, deliver(t, a, "anchor/batch", req, "root"), types.ErrPayload)
}
