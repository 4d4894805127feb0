package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"

	"github.com/ocentra/ocentra-games/internal/types"
)

func TestAppHash_StableAcrossMapOrder(t *testing.T) {
	s1 := NewState()
	s1.Height = 7
	s1.NonceMax["bob"] = 2
	s1.NonceMax["alice"] = 1
	s1.Users["u2"] = NewUserAccount("u2")
	s1.Users["u1"] = NewUserAccount("u1")

	s2 := NewState()
	s2.Height = 7
	s2.Users["u1"] = NewUserAccount("u1")
	s2.Users["u2"] = NewUserAccount("u2")
	s2.NonceMax["alice"] = 1
	s2.NonceMax["bob"] = 2

	h1 := s1.AppHash()
	h2 := s2.AppHash()
	if !bytes.Equal(h1, h2) {
		t.Fatalf("expected stable app hash; h1=%x h2=%x", h1, h2)
	}

	s2.Users["u1"].GamesPlayed = 1
	if bytes.Equal(h1, s2.AppHash()) {
		t.Fatalf("expected hash to change after state mutation")
	}
}

func TestClone_IsDeepAndHashEqual(t *testing.T) {
	st := NewState()
	st.Matches["m"] = NewMatch("m", GameClaim, builtinGames[GameClaim], 1, "auth", 100)
	st.Moves["m"] = []MoveRecord{{MatchID: "m", Actor: "p1", Payload: []byte{1, 2}}}
	st.Validators["v"] = NewValidatorReputation("v", 10, 100)
	st.Disputes[DisputeKey("m", "p1")] = &Dispute{MatchID: "m", Flagger: "p1"}

	cl, err := st.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if !bytes.Equal(st.AppHash(), cl.AppHash()) {
		t.Fatalf("clone hash differs")
	}

	cl.Matches["m"].MoveCount = 9
	cl.Moves["m"][0].Payload[0] = 7
	if st.Matches["m"].MoveCount != 0 || st.Moves["m"][0].Payload[0] != 1 {
		t.Fatalf("clone shares memory with original")
	}
}

func TestDispute_HashSurvivesSnapshotReload(t *testing.T) {
	st := NewState()
	st.Height = 2
	st.Disputes[DisputeKey("m", "open")] = &Dispute{MatchID: "m", Flagger: "open", StakeAmount: 5}
	voted := &Dispute{MatchID: "m", Flagger: "voted", VoteCount: 1, Resolution: ResolutionFavorFlagger, ResolvedAt: 9}
	voted.Votes[0] = DisputeVote{Validator: "v1", Resolution: ResolutionFavorFlagger, Weight: sdkmath.LegacyMustNewDecFromStr("0.5"), Timestamp: 9}
	st.Disputes[DisputeKey("m", "voted")] = voted

	snap, err := st.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	reloaded, err := Decode(snap)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(st.AppHash(), reloaded.AppHash()) {
		t.Fatalf("app hash differs after snapshot reload")
	}
	cl, err := reloaded.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if !bytes.Equal(st.AppHash(), cl.AppHash()) {
		t.Fatalf("app hash differs after clone of reloaded state")
	}

	got := reloaded.Disputes[DisputeKey("m", "voted")]
	if got.VoteCount != 1 || got.Votes[0].Validator != "v1" || !got.Votes[0].Weight.Equal(sdkmath.LegacyMustNewDecFromStr("0.5")) {
		t.Fatalf("cast vote not restored: %+v", got.Votes[0])
	}
	if !got.Votes[1].Weight.IsNil() {
		t.Fatalf("empty vote slot should stay zero-valued")
	}

	var wire struct {
		Votes []json.RawMessage `json:"votes"`
	}
	raw, err := json.Marshal(st.Disputes[DisputeKey("m", "open")])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := json.Unmarshal(raw, &wire); err != nil || wire.Votes == nil || len(wire.Votes) != 0 {
		t.Fatalf("open dispute should encode an empty vote list: %s", raw)
	}

	bad := []byte(`{"matchId":"m","flagger":"x","voteCount":2,"votes":[]}`)
	if err := json.Unmarshal(bad, &Dispute{}); err == nil {
		t.Fatalf("expected vote count mismatch to be rejected")
	}
}

func TestEncodeDecode_RestoresMaps(t *testing.T) {
	b, err := (&State{Height: 3, Params: DefaultParams()}).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	st, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Height != 3 || st.Matches == nil || st.Users == nil || st.NonceMax == nil {
		t.Fatalf("unexpected decoded state: %+v", st)
	}
}

func TestResolveGame(t *testing.T) {
	st := NewState()

	spec, err := st.ResolveGame(GameClaim)
	if err != nil || spec.MinPlayers != 2 || spec.MaxPlayers != 4 {
		t.Fatalf("builtin claim: spec=%+v err=%v", spec, err)
	}
	if _, err := st.ResolveGame(200); !errors.Is(err, types.ErrPayload) {
		t.Fatalf("expected payload error for unknown game, got %v", err)
	}

	if err := st.Games.Add(RegisteredGame{GameID: GameClaim, Name: "CLAIM6", MinPlayers: 3, MaxPlayers: 6, Enabled: true}); err != nil {
		t.Fatalf("add game: %v", err)
	}
	spec, err = st.ResolveGame(GameClaim)
	if err != nil || spec.Name != "CLAIM6" || spec.MaxPlayers != 6 {
		t.Fatalf("registry override: spec=%+v err=%v", spec, err)
	}

	st.Games.Get(GameClaim).Enabled = false
	if _, err := st.ResolveGame(GameClaim); err == nil {
		t.Fatalf("expected disabled game to be rejected")
	}
}

func TestMatch_AddPlayerAndTurns(t *testing.T) {
	m := NewMatch("m", GameClaim, GameSpec{Name: "CLAIM", MinPlayers: 2, MaxPlayers: 3}, 0, "auth", 1)
	for _, p := range []string{"a", "b"} {
		if err := m.AddPlayer(p); err != nil {
			t.Fatalf("add %s: %v", p, err)
		}
	}
	if err := m.AddPlayer("a"); !errors.Is(err, types.ErrStateConflict) {
		t.Fatalf("expected duplicate join to conflict, got %v", err)
	}
	if m.HasFlag(FlagAllJoined) {
		t.Fatalf("all-joined set too early")
	}
	if err := m.AddPlayer("c"); err != nil {
		t.Fatalf("add c: %v", err)
	}
	if !m.HasFlag(FlagAllJoined) {
		t.Fatalf("expected all-joined flag at max players")
	}
	if err := m.AddPlayer("d"); !errors.Is(err, types.ErrCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}

	m.AdvanceTurn(2)
	if m.CurrentPlayer != 0 {
		t.Fatalf("expected wrap to 0, got %d", m.CurrentPlayer)
	}
}

func TestMatch_SuitClaims(t *testing.T) {
	m := NewMatch("m", GameClaim, builtinGames[GameClaim], 0, "auth", 1)
	_ = m.AddPlayer("a")
	_ = m.AddPlayer("b")

	if _, ok := m.SuitClaimant(SuitSpades); ok {
		t.Fatalf("expected no claimant")
	}
	m.SetDeclaredSuit(1, SuitSpades)
	if i, ok := m.SuitClaimant(SuitSpades); !ok || i != 1 {
		t.Fatalf("claimant=%d ok=%v", i, ok)
	}
	if s, ok := m.DeclaredSuit(1); !ok || s != SuitSpades {
		t.Fatalf("declared=%d ok=%v", s, ok)
	}
	if m.HasDeclared(0) {
		t.Fatalf("player 0 should be undeclared")
	}
}

func TestSignerRegistry(t *testing.T) {
	var r SignerRegistry
	r.Authority = "root"

	if !r.HasRole("root", RoleCoordinator) {
		t.Fatalf("authority should hold every role")
	}
	if err := r.Add("coord", RoleCoordinator); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add("val", RoleValidator); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add("coord", RoleValidator); !errors.Is(err, types.ErrStateConflict) {
		t.Fatalf("expected duplicate signer conflict, got %v", err)
	}
	if !r.HasRole("coord", RoleCoordinator, RoleAuthority) || r.HasRole("coord", RoleValidator) {
		t.Fatalf("unexpected role resolution for coord")
	}

	if err := r.Remove("coord"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := r.List(); len(got) != 1 || got[0].Signer != "val" {
		t.Fatalf("expected compaction, got %+v", got)
	}
	if err := r.Remove("coord"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	for i := int(r.Count); i < MaxSigners; i++ {
		if err := r.Add(string(rune('A'+i%26))+string(rune('a'+i/26)), RoleCoordinator); err != nil {
			t.Fatalf("fill %d: %v", i, err)
		}
	}
	if err := r.Add("overflow", RoleCoordinator); !errors.Is(err, types.ErrCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestUserHelpers(t *testing.T) {
	if TierForLifetimeGP(999) != 0 || TierForLifetimeGP(1000) != 1 || TierForLifetimeGP(100_000) != 5 {
		t.Fatalf("tier thresholds")
	}
	if SeasonScore(3, 4) != 3_007_500 {
		t.Fatalf("season score = %d", SeasonScore(3, 4))
	}
	if SeasonScore(0, 0) != 0 {
		t.Fatalf("season score with no games")
	}
	cases := map[uint16]uint8{0: 1, 1: 5, 5: 5, 6: 4, 10: 4, 11: 3, 25: 3, 26: 2, 50: 2, 51: 1}
	for rank, want := range cases {
		if got := MultiplierForRank(rank); got != want {
			t.Fatalf("rank %d: got %d want %d", rank, got, want)
		}
	}

	u := NewUserAccount("u")
	u.SeasonID = 1
	u.SeasonWins = 4
	u.LeaderboardRank = 3
	u.RollSeason(2)
	if u.SeasonWins != 0 || u.LeaderboardRank != 0 || u.ActiveMultiplier != 1 || u.SeasonID != 2 {
		t.Fatalf("season not reset: %+v", u)
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	p := DefaultParams()
	p.SeasonDurationSecs = 0
	if err := p.Validate(); err == nil {
		t.Fatalf("expected zero season duration to fail")
	}
	p = DefaultParams()
	p.ProGPMultiplier = 0
	if err := p.Validate(); err == nil {
		t.Fatalf("expected zero multiplier to fail")
	}
	if DefaultParams().SeasonAt(604800*3+5) != 3 {
		t.Fatalf("season index")
	}
}
