package state

import (
	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/types"
)

const (
	MaxPlayers    = 10
	MaxHandSize   = 52
	MaxPayloadLen = 128
	MaxHotURLLen  = 200

	// ClaimMaxHand is the hand limit enforced for pick_up.
	ClaimMaxHand = 13
)

type Phase uint8

const (
	PhaseDealing Phase = 0
	PhasePlaying Phase = 1
	PhaseEnded   Phase = 2
)

func (p Phase) String() string {
	switch p {
	case PhaseDealing:
		return "dealing"
	case PhasePlaying:
		return "playing"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type Suit uint8

const (
	SuitSpades   Suit = 0
	SuitHearts   Suit = 1
	SuitDiamonds Suit = 2
	SuitClubs    Suit = 3

	NumSuits = 4
)

// MatchFlags is a small bitset of per-match booleans.
type MatchFlags uint8

const (
	FlagFloorRevealed MatchFlags = 1 << 0
	FlagAllJoined     MatchFlags = 1 << 1
	FlagScoresFinal   MatchFlags = 1 << 2
)

type GameSpec struct {
	Name       string `json:"name"`
	MinPlayers uint8  `json:"minPlayers"`
	MaxPlayers uint8  `json:"maxPlayers"`
}

var builtinGames = [...]GameSpec{
	{Name: "CLAIM", MinPlayers: 2, MaxPlayers: 4},
	{Name: "THREECARDBRAG", MinPlayers: 2, MaxPlayers: 6},
	{Name: "POKER", MinPlayers: 2, MaxPlayers: 10},
	{Name: "BRIDGE", MinPlayers: 4, MaxPlayers: 4},
	{Name: "RUMMY", MinPlayers: 2, MaxPlayers: 6},
	{Name: "SCRABBLE", MinPlayers: 2, MaxPlayers: 4},
	{Name: "WORDSEARCH", MinPlayers: 1, MaxPlayers: 10},
	{Name: "CROSSWORDS", MinPlayers: 1, MaxPlayers: 10},
}

const (
	GameClaim uint8 = iota
	GameThreeCardBrag
	GamePoker
	GameBridge
	GameRummy
	GameScrabble
	GameWordSearch
	GameCrosswords
)

func BuiltinGame(gameType uint8) (GameSpec, bool) {
	if int(gameType) >= len(builtinGames) {
		return GameSpec{}, false
	}
	return builtinGames[gameType], true
}

// Match is the per-match record. Per-player fields are indexed by join order.
type Match struct {
	MatchID    string `json:"matchId"`
	GameType   uint8  `json:"gameType"`
	GameName   string `json:"gameName"`
	MinPlayers uint8  `json:"minPlayers"`
	MaxPlayers uint8  `json:"maxPlayers"`
	Seed       uint64 `json:"seed"`
	Authority  string `json:"authority"`

	Phase         Phase                  `json:"phase"`
	CurrentPlayer uint8                  `json:"currentPlayer"`
	Players       [MaxPlayers]string     `json:"players"`
	PlayerCount   uint8                  `json:"playerCount"`
	MoveCount     uint32                 `json:"moveCount"`
	CreatedAt     int64                  `json:"createdAt"`
	EndedAt       int64                  `json:"endedAt,omitempty"`
	MatchHash     codec.Hash             `json:"matchHash"`
	HotURL        string                 `json:"hotUrl,omitempty"`
	Flags         MatchFlags             `json:"flags"`
	FloorCardHash codec.Hash             `json:"floorCardHash"`
	Declared      [MaxPlayers]uint8      `json:"declared"` // 0 = none, else suit+1
	HandSizes     [MaxPlayers]uint8      `json:"handSizes"`
	HandCommits   [MaxPlayers]codec.Hash `json:"handCommits"`
	LastNonce     [MaxPlayers]uint64     `json:"lastNonce"`
	Scores        [MaxPlayers]int32      `json:"scores"`
}

func NewMatch(matchID string, gameType uint8, spec GameSpec, seed uint64, authority string, now int64) *Match {
	return &Match{
		MatchID:    matchID,
		GameType:   gameType,
		GameName:   spec.Name,
		MinPlayers: spec.MinPlayers,
		MaxPlayers: spec.MaxPlayers,
		Seed:       seed,
		Authority:  authority,
		Phase:      PhaseDealing,
		CreatedAt:  now,
	}
}

func (m *Match) PlayerIndex(id string) (int, bool) {
	for i := 0; i < int(m.PlayerCount); i++ {
		if m.Players[i] == id {
			return i, true
		}
	}
	return -1, false
}

func (m *Match) HasPlayer(id string) bool {
	_, ok := m.PlayerIndex(id)
	return ok
}

func (m *Match) IsFull() bool {
	return m.PlayerCount >= m.MaxPlayers || m.PlayerCount >= MaxPlayers
}

func (m *Match) HasMinimumPlayers() bool {
	return m.PlayerCount >= m.MinPlayers
}

// AddPlayer appends id to the roster. Phase is checked by the caller.
func (m *Match) AddPlayer(id string) error {
	if m.HasFlag(FlagAllJoined) || m.IsFull() {
		return types.ErrCapacity.Wrapf("match is full: %d/%d", m.PlayerCount, m.MaxPlayers)
	}
	if m.HasPlayer(id) {
		return types.ErrStateConflict.Wrapf("player %q already joined", id)
	}
	m.Players[m.PlayerCount] = id
	m.PlayerCount++
	if m.PlayerCount >= m.MaxPlayers {
		m.SetFlag(FlagAllJoined)
	}
	return nil
}

func (m *Match) HasFlag(f MatchFlags) bool { return m.Flags&f != 0 }
func (m *Match) SetFlag(f MatchFlags) { m.Flags |= f }
func (m *Match) ClearFlag(f MatchFlags) { m.Flags &^= f }

func (m *Match) FloorRevealed() bool {
	return m.HasFlag(FlagFloorRevealed)
}

func (m *Match) RevealFloor(h codec.Hash) {
	m.FloorCardHash = h
	m.SetFlag(FlagFloorRevealed)
}

func (m *Match) ClearFloor() {
	m.FloorCardHash = codec.Hash{}
	m.ClearFlag(FlagFloorRevealed)
}

func (m *Match) DeclaredSuit(i int) (Suit, bool) {
	if i < 0 || i >= MaxPlayers || m.Declared[i] == 0 {
		return 0, false
	}
	return Suit(m.Declared[i] - 1), true
}

func (m *Match) HasDeclared(i int) bool {
	_, ok := m.DeclaredSuit(i)
	return ok
}

func (m *Match) SetDeclaredSuit(i int, s Suit) {
	m.Declared[i] = uint8(s) + 1
}

// SuitClaimant returns the index of the player holding suit s.
func (m *Match) SuitClaimant(s Suit) (int, bool) {
	for i := 0; i < int(m.PlayerCount); i++ {
		if got, ok := m.DeclaredSuit(i); ok && got == s {
			return i, true
		}
	}
	return -1, false
}

func (m *Match) HandCommitment(i int) (codec.Hash, bool) {
	if i < 0 || i >= MaxPlayers || m.HandCommits[i].IsZero() {
		return codec.Hash{}, false
	}
	return m.HandCommits[i], true
}

// AdvanceTurn hands the turn to the player after index from.
func (m *Match) AdvanceTurn(from int) {
	if m.PlayerCount == 0 {
		m.CurrentPlayer = 0
		return
	}
	m.CurrentPlayer = uint8((from + 1) % int(m.PlayerCount))
}

func (m *Match) ActivePlayers() []string {
	return append([]string(nil), m.Players[:m.PlayerCount]...)
}
