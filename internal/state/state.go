package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ocentra/ocentra-games/internal/types"
)

type State struct {
	Height int64  `json:"height"`
	Params Params `json:"params"`

	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // account -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce

	Signers SignerRegistry `json:"signers"`
	Games   GameRegistry   `json:"games"`

	Matches      map[string]*Match               `json:"matches"`
	Moves        map[string][]MoveRecord         `json:"moves"` // matchID -> moves in index order
	Disputes     map[string]*Dispute             `json:"disputes"`
	Validators   map[string]*ValidatorReputation `json:"validators"`
	Leaderboards map[string]*Leaderboard         `json:"leaderboards"`
	Users        map[string]*UserAccount         `json:"users"`
	Batches      map[string]*BatchAnchor         `json:"batches"`
}

func NewState() *State {
	st := &State{Params: DefaultParams()}
	st.ensureMaps()
	return st
}

func (s *State) ensureMaps() {
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Matches == nil {
		s.Matches = map[string]*Match{}
	}
	if s.Moves == nil {
		s.Moves = map[string][]MoveRecord{}
	}
	if s.Disputes == nil {
		s.Disputes = map[string]*Dispute{}
	}
	if s.Validators == nil {
		s.Validators = map[string]*ValidatorReputation{}
	}
	if s.Leaderboards == nil {
		s.Leaderboards = map[string]*Leaderboard{}
	}
	if s.Users == nil {
		s.Users = map[string]*UserAccount{}
	}
	if s.Batches == nil {
		s.Batches = map[string]*BatchAnchor{}
	}
}

// Encode returns the JSON snapshot persisted alongside the fixed records.
func (s *State) Encode() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

func Decode(b []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.ensureMaps()
	return &st, nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.ensureMaps()
	return &out, nil
}

type kv[V any] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

func sortedKV[V any](m map[string]V) []kv[V] {
	out := make([]kv[V], 0, len(m))
	for k, v := range m {
		out = append(out, kv[V]{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *State) AppHash() []byte {
	// encoding/json map ordering is an implementation detail; hash a view
	// where every map is flattened into a key-sorted slice.
	normalized := struct {
		Height       int64                      `json:"height"`
		Params       Params                     `json:"params"`
		AccountKeys  []kv[[]byte]               `json:"accountKeys"`
		NonceMax     []kv[uint64]               `json:"nonceMax"`
		Signers      SignerRegistry             `json:"signers"`
		Games        GameRegistry               `json:"games"`
		Matches      []kv[*Match]               `json:"matches"`
		Moves        []kv[[]MoveRecord]         `json:"moves"`
		Disputes     []kv[*Dispute]             `json:"disputes"`
		Validators   []kv[*ValidatorReputation] `json:"validators"`
		Leaderboards []kv[*Leaderboard]         `json:"leaderboards"`
		Users        []kv[*UserAccount]         `json:"users"`
		Batches      []kv[*BatchAnchor]         `json:"batches"`
	}{
		Height:       s.Height,
		Params:       s.Params,
		AccountKeys:  sortedKV(s.AccountKeys),
		NonceMax:     sortedKV(s.NonceMax),
		Signers:      s.Signers,
		Games:        s.Games,
		Matches:      sortedKV(s.Matches),
		Moves:        sortedKV(s.Moves),
		Disputes:     sortedKV(s.Disputes),
		Validators:   sortedKV(s.Validators),
		Leaderboards: sortedKV(s.Leaderboards),
		Users:        sortedKV(s.Users),
		Batches:      sortedKV(s.Batches),
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Lookups ----

func (s *State) Match(matchID string) (*Match, error) {
	m := s.Matches[matchID]
	if m == nil {
		return nil, types.ErrNotFound.Wrapf("match %q", matchID)
	}
	return m, nil
}

func (s *State) Validator(validator string) (*ValidatorReputation, error) {
	v := s.Validators[validator]
	if v == nil {
		return nil, types.ErrNotFound.Wrapf("validator %q", validator)
	}
	return v, nil
}

func (s *State) User(userID string) *UserAccount {
	u := s.Users[userID]
	if u == nil {
		u = NewUserAccount(userID)
		s.Users[userID] = u
	}
	return u
}

func (s *State) Leaderboard(gameType uint8, seasonID uint64) *Leaderboard {
	key := LeaderboardKey(gameType, seasonID)
	lb := s.Leaderboards[key]
	if lb == nil {
		lb = NewLeaderboard(gameType, seasonID)
		s.Leaderboards[key] = lb
	}
	return lb
}

// ResolveGame returns the player bounds for gameType. A registry entry takes
// precedence over the builtin table.
func (s *State) ResolveGame(gameType uint8) (GameSpec, error) {
	if g := s.Games.Get(gameType); g != nil {
		if !g.Enabled {
			return GameSpec{}, types.ErrPayload.Wrapf("game %d is disabled", gameType)
		}
		return GameSpec{Name: g.Name, MinPlayers: g.MinPlayers, MaxPlayers: g.MaxPlayers}, nil
	}
	spec, ok := BuiltinGame(gameType)
	if !ok {
		return GameSpec{}, types.ErrPayload.Wrapf("unknown game type %d", gameType)
	}
	return spec, nil
}

func (s *State) SeasonID(now int64) uint64 {
	return s.Params.SeasonAt(now)
}
