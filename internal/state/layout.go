package state

import (
	"fmt"
	"math/big"
	"sort"

	sdkmath "cosmossdk.io/math"

	"github.com/ocentra/ocentra-games/internal/codec"
)

// layoutVersion prefixes every fixed record.
const layoutVersion uint8 = 1

const (
	idLen  = codec.MaxIdentityLen
	hashSz = codec.HashSize

	MatchRecordSize = 1 + codec.MatchIDLen + 1 + MaxGameNameLen + 1 + 1 + 8 + idLen +
		1 + 1 + MaxPlayers*idLen + 1 + 4 + 8 + 8 + hashSz + MaxHotURLLen + 1 + hashSz +
		MaxPlayers/2 + MaxPlayers + MaxPlayers*hashSz + MaxPlayers*8 + MaxPlayers*4

	MoveRecordSize = 1 + codec.MatchIDLen + idLen + 4 + 1 + 1 + MaxPayloadLen + 8 + 8

	disputeVoteSize   = idLen + 1 + 8 + 8
	DisputeRecordSize = 1 + codec.MatchIDLen + idLen + 1 + hashSz + 8 + 1 + 8 + 8 + 1 +
		MaxDisputeVotes*disputeVoteSize + 1

	ValidatorRecordSize = 1 + idLen + 8 + 8 + 4 + 4 + 8 + 8

	leaderboardEntrySize  = idLen + 8 + 4 + 4 + 8
	LeaderboardRecordSize = 1 + 1 + 8 + LeaderboardCapacity*leaderboardEntrySize + 1 + 8

	UserRecordSize = 1 + idLen + 8 + 8 + 1 + 8 + 4 + 4 + 4 + 1 + 8 + 8 + 4 + 4 + 2 + 1

	BatchAnchorRecordSize = 1 + MaxBatchIDLen + hashSz + 4 + codec.MatchIDLen + codec.MatchIDLen + 8 + idLen

	SignerRegistryRecordSize = 1 + idLen + MaxSigners*(idLen+1) + 1

	registeredGameSize     = 1 + MaxGameNameLen + 1 + 1 + MaxRuleEngineURLLen + 4 + 1 + 8 + 8
	GameRegistryRecordSize = 1 + MaxRegisteredGames*registeredGameSize + 1
)

// Storage ceilings per record kind. Layout sizes must never exceed them.
const (
	MatchRecordCeiling          = 1536
	MoveRecordCeiling           = 256
	DisputeRecordCeiling        = 1024
	ValidatorRecordCeiling      = 128
	LeaderboardRecordCeiling    = 9216
	UserRecordCeiling           = 192
	BatchAnchorRecordCeiling    = 256
	SignerRegistryRecordCeiling = 6656
	GameRegistryRecordCeiling   = 5120
)

func writeVersion(w *codec.FixedWriter) { w.U8("version", layoutVersion) }

func readVersion(r *codec.FixedReader) error {
	if v := r.U8("version"); r.Err() == nil && v != layoutVersion {
		return fmt.Errorf("unsupported layout version %d", v)
	}
	return r.Err()
}

// decToAtto stores a decimal in [0, 2^64) atto units (18 decimal places).
func decToAtto(d sdkmath.LegacyDec) (uint64, error) {
	if d.IsNil() {
		return 0, nil
	}
	bi := d.BigInt()
	if bi.Sign() < 0 || !bi.IsUint64() {
		return 0, fmt.Errorf("decimal %s out of fixed range", d)
	}
	return bi.Uint64(), nil
}

func attoToDec(v uint64) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecFromBigIntWithPrec(new(big.Int).SetUint64(v), sdkmath.LegacyPrecision)
}

// ---- Match ----

func (m *Match) MarshalFixed() ([]byte, error) {
	w := codec.NewFixedWriter(MatchRecordSize)
	writeVersion(w)
	w.String("match_id", m.MatchID, codec.MatchIDLen)
	w.U8("game_type", m.GameType)
	w.String("game_name", m.GameName, MaxGameNameLen)
	w.U8("min_players", m.MinPlayers)
	w.U8("max_players", m.MaxPlayers)
	w.U64("seed", m.Seed)
	w.String("authority", m.Authority, idLen)
	w.U8("phase", uint8(m.Phase))
	w.U8("current_player", m.CurrentPlayer)
	for i := range m.Players {
		w.String("players", m.Players[i], idLen)
	}
	w.U8("player_count", m.PlayerCount)
	w.U32("move_count", m.MoveCount)
	w.I64("created_at", m.CreatedAt)
	w.I64("ended_at", m.EndedAt)
	w.Bytes("match_hash", m.MatchHash[:], hashSz)
	w.String("hot_url", m.HotURL, MaxHotURLLen)
	w.U8("flags", uint8(m.Flags))
	w.Bytes("floor_card_hash", m.FloorCardHash[:], hashSz)
	declared, err := codec.PackNibbles(m.Declared[:])
	if err != nil {
		return nil, fmt.Errorf("declared: %w", err)
	}
	w.Bytes("declared", declared, MaxPlayers/2)
	w.Bytes("hand_sizes", m.HandSizes[:], MaxPlayers)
	for i := range m.HandCommits {
		w.Bytes("hand_commits", m.HandCommits[i][:], hashSz)
	}
	for _, n := range m.LastNonce {
		w.U64("last_nonce", n)
	}
	for _, s := range m.Scores {
		w.I32("scores", s)
	}
	return w.Finish()
}

func (m *Match) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, MatchRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out Match
	out.MatchID = r.String("match_id", codec.MatchIDLen)
	out.GameType = r.U8("game_type")
	out.GameName = r.String("game_name", MaxGameNameLen)
	out.MinPlayers = r.U8("min_players")
	out.MaxPlayers = r.U8("max_players")
	out.Seed = r.U64("seed")
	out.Authority = r.String("authority", idLen)
	out.Phase = Phase(r.U8("phase"))
	out.CurrentPlayer = r.U8("current_player")
	for i := range out.Players {
		out.Players[i] = r.String("players", idLen)
	}
	out.PlayerCount = r.U8("player_count")
	out.MoveCount = r.U32("move_count")
	out.CreatedAt = r.I64("created_at")
	out.EndedAt = r.I64("ended_at")
	copy(out.MatchHash[:], r.Bytes("match_hash", hashSz))
	out.HotURL = r.String("hot_url", MaxHotURLLen)
	out.Flags = MatchFlags(r.U8("flags"))
	copy(out.FloorCardHash[:], r.Bytes("floor_card_hash", hashSz))
	copy(out.Declared[:], codec.UnpackNibbles(r.Bytes("declared", MaxPlayers/2), MaxPlayers))
	copy(out.HandSizes[:], r.Bytes("hand_sizes", MaxPlayers))
	for i := range out.HandCommits {
		copy(out.HandCommits[i][:], r.Bytes("hand_commits", hashSz))
	}
	for i := range out.LastNonce {
		out.LastNonce[i] = r.U64("last_nonce")
	}
	for i := range out.Scores {
		out.Scores[i] = r.I32("scores")
	}
	if err := r.Err(); err != nil {
		return err
	}
	if out.Phase > PhaseEnded {
		return fmt.Errorf("invalid phase %d", out.Phase)
	}
	if out.PlayerCount > MaxPlayers {
		return fmt.Errorf("invalid player count %d", out.PlayerCount)
	}
	for i, d := range out.Declared {
		if d > NumSuits {
			return fmt.Errorf("invalid declared suit %d for player %d", d, i)
		}
	}
	*m = out
	return nil
}

// ---- Move ----

func (mv *MoveRecord) MarshalFixed() ([]byte, error) {
	if len(mv.Payload) > MaxPayloadLen {
		return nil, fmt.Errorf("payload too long: %d > %d bytes", len(mv.Payload), MaxPayloadLen)
	}
	w := codec.NewFixedWriter(MoveRecordSize)
	writeVersion(w)
	w.String("match_id", mv.MatchID, codec.MatchIDLen)
	w.String("actor", mv.Actor, idLen)
	w.U32("move_index", mv.MoveIndex)
	w.U8("action", uint8(mv.Action))
	w.U8("payload_len", uint8(len(mv.Payload)))
	w.Bytes("payload", mv.Payload, MaxPayloadLen)
	w.U64("nonce", mv.Nonce)
	w.I64("timestamp", mv.Timestamp)
	return w.Finish()
}

func (mv *MoveRecord) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, MoveRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out MoveRecord
	out.MatchID = r.String("match_id", codec.MatchIDLen)
	out.Actor = r.String("actor", idLen)
	out.MoveIndex = r.U32("move_index")
	out.Action = Action(r.U8("action"))
	n := int(r.U8("payload_len"))
	payload := r.Bytes("payload", MaxPayloadLen)
	out.Nonce = r.U64("nonce")
	out.Timestamp = r.I64("timestamp")
	if err := r.Err(); err != nil {
		return err
	}
	if n > MaxPayloadLen {
		return fmt.Errorf("invalid payload length %d", n)
	}
	if n > 0 {
		out.Payload = payload[:n]
	}
	*mv = out
	return nil
}

// ---- Dispute ----

func (d *Dispute) MarshalFixed() ([]byte, error) {
	w := codec.NewFixedWriter(DisputeRecordSize)
	writeVersion(w)
	w.String("match_id", d.MatchID, codec.MatchIDLen)
	w.String("flagger", d.Flagger, idLen)
	w.U8("reason", uint8(d.Reason))
	w.Bytes("evidence_hash", d.EvidenceHash[:], hashSz)
	w.U64("stake_amount", d.StakeAmount)
	w.Bool("stake_refunded", d.StakeRefunded)
	w.I64("created_at", d.CreatedAt)
	w.I64("resolved_at", d.ResolvedAt)
	w.U8("resolution", uint8(d.Resolution))
	for i := range d.Votes {
		v := &d.Votes[i]
		weight, err := decToAtto(v.Weight)
		if err != nil {
			return nil, fmt.Errorf("vote %d weight: %w", i, err)
		}
		w.String("vote.validator", v.Validator, idLen)
		w.U8("vote.resolution", uint8(v.Resolution))
		w.U64("vote.weight", weight)
		w.I64("vote.timestamp", v.Timestamp)
	}
	w.U8("vote_count", d.VoteCount)
	return w.Finish()
}

func (d *Dispute) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, DisputeRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out Dispute
	out.MatchID = r.String("match_id", codec.MatchIDLen)
	out.Flagger = r.String("flagger", idLen)
	out.Reason = DisputeReason(r.U8("reason"))
	copy(out.EvidenceHash[:], r.Bytes("evidence_hash", hashSz))
	out.StakeAmount = r.U64("stake_amount")
	out.StakeRefunded = r.Bool("stake_refunded")
	out.CreatedAt = r.I64("created_at")
	out.ResolvedAt = r.I64("resolved_at")
	out.Resolution = Resolution(r.U8("resolution"))
	for i := range out.Votes {
		v := &out.Votes[i]
		v.Validator = r.String("vote.validator", idLen)
		v.Resolution = Resolution(r.U8("vote.resolution"))
		weight := r.U64("vote.weight")
		v.Timestamp = r.I64("vote.timestamp")
		if v.Validator != "" {
			v.Weight = attoToDec(weight)
		}
	}
	out.VoteCount = r.U8("vote_count")
	if err := r.Err(); err != nil {
		return err
	}
	if out.VoteCount > MaxDisputeVotes {
		return fmt.Errorf("invalid vote count %d", out.VoteCount)
	}
	*d = out
	return nil
}

// ---- Validator ----

func (v *ValidatorReputation) MarshalFixed() ([]byte, error) {
	rep, err := decToAtto(v.Reputation)
	if err != nil {
		return nil, fmt.Errorf("reputation: %w", err)
	}
	w := codec.NewFixedWriter(ValidatorRecordSize)
	writeVersion(w)
	w.String("validator", v.Validator, idLen)
	w.U64("stake", v.Stake)
	w.U64("reputation", rep)
	w.U32("total_resolutions", v.TotalResolutions)
	w.U32("correct_resolutions", v.CorrectResolutions)
	w.I64("created_at", v.CreatedAt)
	w.I64("last_active", v.LastActive)
	return w.Finish()
}

func (v *ValidatorReputation) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, ValidatorRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out ValidatorReputation
	out.Validator = r.String("validator", idLen)
	out.Stake = r.U64("stake")
	out.Reputation = attoToDec(r.U64("reputation"))
	out.TotalResolutions = r.U32("total_resolutions")
	out.CorrectResolutions = r.U32("correct_resolutions")
	out.CreatedAt = r.I64("created_at")
	out.LastActive = r.I64("last_active")
	if err := r.Err(); err != nil {
		return err
	}
	*v = out
	return nil
}

// ---- Leaderboard ----

func (l *Leaderboard) MarshalFixed() ([]byte, error) {
	w := codec.NewFixedWriter(LeaderboardRecordSize)
	writeVersion(w)
	w.U8("game_type", l.GameType)
	w.U64("season_id", l.SeasonID)
	for i := range l.Entries {
		e := &l.Entries[i]
		w.String("entry.user_id", e.UserID, idLen)
		w.U64("entry.score", e.Score)
		w.U32("entry.wins", e.Wins)
		w.U32("entry.games_played", e.GamesPlayed)
		w.I64("entry.timestamp", e.Timestamp)
	}
	w.U8("entry_count", l.EntryCount)
	w.I64("last_updated", l.LastUpdated)
	return w.Finish()
}

func (l *Leaderboard) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, LeaderboardRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out Leaderboard
	out.GameType = r.U8("game_type")
	out.SeasonID = r.U64("season_id")
	for i := range out.Entries {
		e := &out.Entries[i]
		e.UserID = r.String("entry.user_id", idLen)
		e.Score = r.U64("entry.score")
		e.Wins = r.U32("entry.wins")
		e.GamesPlayed = r.U32("entry.games_played")
		e.Timestamp = r.I64("entry.timestamp")
	}
	out.EntryCount = r.U8("entry_count")
	out.LastUpdated = r.I64("last_updated")
	if err := r.Err(); err != nil {
		return err
	}
	if out.EntryCount > LeaderboardCapacity {
		return fmt.Errorf("invalid entry count %d", out.EntryCount)
	}
	*l = out
	return nil
}

// ---- User ----

func (u *UserAccount) MarshalFixed() ([]byte, error) {
	w := codec.NewFixedWriter(UserRecordSize)
	writeVersion(w)
	w.String("user_id", u.UserID, idLen)
	w.I64("last_claim", u.LastClaim)
	w.I64("subscription_expiry", u.SubscriptionExpiry)
	w.U8("subscription_tier", u.SubscriptionTier)
	w.U64("lifetime_gp_earned", u.LifetimeGPEarned)
	w.U32("games_played", u.GamesPlayed)
	w.U32("games_won", u.GamesWon)
	w.U32("win_streak", u.WinStreak)
	w.U8("current_tier", u.CurrentTier)
	w.U64("season_id", u.SeasonID)
	w.U64("season_score", u.SeasonScore)
	w.U32("season_wins", u.SeasonWins)
	w.U32("season_games", u.SeasonGames)
	w.U16("leaderboard_rank", u.LeaderboardRank)
	w.U8("active_multiplier", u.ActiveMultiplier)
	return w.Finish()
}

func (u *UserAccount) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, UserRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out UserAccount
	out.UserID = r.String("user_id", idLen)
	out.LastClaim = r.I64("last_claim")
	out.SubscriptionExpiry = r.I64("subscription_expiry")
	out.SubscriptionTier = r.U8("subscription_tier")
	out.LifetimeGPEarned = r.U64("lifetime_gp_earned")
	out.GamesPlayed = r.U32("games_played")
	out.GamesWon = r.U32("games_won")
	out.WinStreak = r.U32("win_streak")
	out.CurrentTier = r.U8("current_tier")
	out.SeasonID = r.U64("season_id")
	out.SeasonScore = r.U64("season_score")
	out.SeasonWins = r.U32("season_wins")
	out.SeasonGames = r.U32("season_games")
	out.LeaderboardRank = r.U16("leaderboard_rank")
	out.ActiveMultiplier = r.U8("active_multiplier")
	if err := r.Err(); err != nil {
		return err
	}
	*u = out
	return nil
}

// ---- Batch anchor ----

func (a *BatchAnchor) MarshalFixed() ([]byte, error) {
	w := codec.NewFixedWriter(BatchAnchorRecordSize)
	writeVersion(w)
	w.String("batch_id", a.BatchID, MaxBatchIDLen)
	w.Bytes("merkle_root", a.MerkleRoot[:], hashSz)
	w.U32("count", a.Count)
	w.String("first_match_id", a.FirstMatchID, codec.MatchIDLen)
	w.String("last_match_id", a.LastMatchID, codec.MatchIDLen)
	w.I64("timestamp", a.Timestamp)
	w.String("authority", a.Authority, idLen)
	return w.Finish()
}

func (a *BatchAnchor) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, BatchAnchorRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out BatchAnchor
	out.BatchID = r.String("batch_id", MaxBatchIDLen)
	copy(out.MerkleRoot[:], r.Bytes("merkle_root", hashSz))
	out.Count = r.U32("count")
	out.FirstMatchID = r.String("first_match_id", codec.MatchIDLen)
	out.LastMatchID = r.String("last_match_id", codec.MatchIDLen)
	out.Timestamp = r.I64("timestamp")
	out.Authority = r.String("authority", idLen)
	if err := r.Err(); err != nil {
		return err
	}
	*a = out
	return nil
}

// ---- Registries ----

func (reg *SignerRegistry) MarshalFixed() ([]byte, error) {
	w := codec.NewFixedWriter(SignerRegistryRecordSize)
	writeVersion(w)
	w.String("authority", reg.Authority, idLen)
	for i := range reg.Signers {
		w.String("signer", reg.Signers[i].Signer, idLen)
		w.U8("role", uint8(reg.Signers[i].Role))
	}
	w.U8("count", reg.Count)
	return w.Finish()
}

func (reg *SignerRegistry) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, SignerRegistryRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out SignerRegistry
	out.Authority = r.String("authority", idLen)
	for i := range out.Signers {
		out.Signers[i].Signer = r.String("signer", idLen)
		out.Signers[i].Role = SignerRole(r.U8("role"))
	}
	out.Count = r.U8("count")
	if err := r.Err(); err != nil {
		return err
	}
	if out.Count > MaxSigners {
		return fmt.Errorf("invalid signer count %d", out.Count)
	}
	*reg = out
	return nil
}

func (reg *GameRegistry) MarshalFixed() ([]byte, error) {
	w := codec.NewFixedWriter(GameRegistryRecordSize)
	writeVersion(w)
	for i := range reg.Games {
		g := &reg.Games[i]
		w.U8("game.id", g.GameID)
		w.String("game.name", g.Name, MaxGameNameLen)
		w.U8("game.min_players", g.MinPlayers)
		w.U8("game.max_players", g.MaxPlayers)
		w.String("game.rule_engine_url", g.RuleEngineURL, MaxRuleEngineURLLen)
		w.U32("game.version", g.Version)
		w.Bool("game.enabled", g.Enabled)
		w.I64("game.created_at", g.CreatedAt)
		w.I64("game.updated_at", g.UpdatedAt)
	}
	w.U8("count", reg.Count)
	return w.Finish()
}

func (reg *GameRegistry) UnmarshalFixed(b []byte) error {
	r := codec.NewFixedReader(b, GameRegistryRecordSize)
	if err := readVersion(r); err != nil {
		return err
	}
	var out GameRegistry
	for i := range out.Games {
		g := &out.Games[i]
		g.GameID = r.U8("game.id")
		g.Name = r.String("game.name", MaxGameNameLen)
		g.MinPlayers = r.U8("game.min_players")
		g.MaxPlayers = r.U8("game.max_players")
		g.RuleEngineURL = r.String("game.rule_engine_url", MaxRuleEngineURLLen)
		g.Version = r.U32("game.version")
		g.Enabled = r.Bool("game.enabled")
		g.CreatedAt = r.I64("game.created_at")
		g.UpdatedAt = r.I64("game.updated_at")
	}
	out.Count = r.U8("count")
	if err := r.Err(); err != nil {
		return err
	}
	if out.Count > MaxRegisteredGames {
		return fmt.Errorf("invalid game count %d", out.Count)
	}
	*reg = out
	return nil
}

// ---- Record index ----

type fixedMarshaler interface {
	MarshalFixed() ([]byte, error)
}

// Record key prefixes, one per kind.
const (
	KindMatch       = "match"
	KindMove        = "move"
	KindDispute     = "dispute"
	KindValidator   = "validator"
	KindLeaderboard = "leaderboard"
	KindUser        = "user"
	KindBatch       = "batch"
	KindRegistry    = "registry"
)

// MoveKey orders moves of one match lexically by index.
func MoveKey(matchID string, idx uint32) string {
	return fmt.Sprintf("%s/%010d", matchID, idx)
}

// FixedRecords encodes every live record, keyed "<kind>/<key>".
func (s *State) FixedRecords() (map[string][]byte, error) {
	out := map[string][]byte{}
	put := func(kind, key string, rec fixedMarshaler) error {
		b, err := rec.MarshalFixed()
		if err != nil {
			return fmt.Errorf("%s/%s: %w", kind, key, err)
		}
		out[kind+"/"+key] = b
		return nil
	}

	if err := put(KindRegistry, "signers", &s.Signers); err != nil {
		return nil, err
	}
	if err := put(KindRegistry, "games", &s.Games); err != nil {
		return nil, err
	}
	for id, m := range s.Matches {
		if err := put(KindMatch, id, m); err != nil {
			return nil, err
		}
	}
	for id, moves := range s.Moves {
		for i := range moves {
			if err := put(KindMove, MoveKey(id, moves[i].MoveIndex), &moves[i]); err != nil {
				return nil, err
			}
		}
	}
	for k, d := range s.Disputes {
		if err := put(KindDispute, k, d); err != nil {
			return nil, err
		}
	}
	for k, v := range s.Validators {
		if err := put(KindValidator, k, v); err != nil {
			return nil, err
		}
	}
	for k, l := range s.Leaderboards {
		if err := put(KindLeaderboard, k, l); err != nil {
			return nil, err
		}
	}
	for k, u := range s.Users {
		if err := put(KindUser, k, u); err != nil {
			return nil, err
		}
	}
	for k, a := range s.Batches {
		if err := put(KindBatch, k, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SortedRecordKeys returns the keys of recs in byte order.
func SortedRecordKeys(recs map[string][]byte) []string {
	keys := make([]string, 0, len(recs))
	for k := range recs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
