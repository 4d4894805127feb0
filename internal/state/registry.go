package state

import (
	"github.com/ocentra/ocentra-games/internal/types"
)

const (
	MaxSigners          = 100
	MaxRegisteredGames  = 20
	MaxGameNameLen      = 20
	MaxRuleEngineURLLen = 200
)

type SignerRole uint8

const (
	RoleCoordinator SignerRole = 0
	RoleValidator   SignerRole = 1
	RoleAuthority   SignerRole = 2
)

func (r SignerRole) Valid() bool { return r <= RoleAuthority }

func (r SignerRole) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	case RoleValidator:
		return "validator"
	case RoleAuthority:
		return "authority"
	default:
		return "unknown"
	}
}

type RegisteredSigner struct {
	Signer string     `json:"signer"`
	Role   SignerRole `json:"role"`
}

// SignerRegistry is the bounded list of identities allowed to act in
// privileged roles. Authority == "" means the registry is uninitialized.
type SignerRegistry struct {
	Authority string                       `json:"authority"`
	Signers   [MaxSigners]RegisteredSigner `json:"signers"`
	Count     uint8                        `json:"count"`
}

func (r *SignerRegistry) Initialized() bool { return r.Authority != "" }

func (r *SignerRegistry) find(signer string) int {
	for i := 0; i < int(r.Count); i++ {
		if r.Signers[i].Signer == signer {
			return i
		}
	}
	return -1
}

func (r *SignerRegistry) Role(signer string) (SignerRole, bool) {
	i := r.find(signer)
	if i < 0 {
		return 0, false
	}
	return r.Signers[i].Role, true
}

// HasRole reports whether signer holds any of roles. The registry authority
// holds every role.
func (r *SignerRegistry) HasRole(signer string, roles ...SignerRole) bool {
	if signer == "" {
		return false
	}
	if r.Initialized() && signer == r.Authority {
		return true
	}
	got, ok := r.Role(signer)
	if !ok {
		return false
	}
	for _, want := range roles {
		if got == want {
			return true
		}
	}
	return false
}

func (r *SignerRegistry) Add(signer string, role SignerRole) error {
	if r.find(signer) >= 0 {
		return types.ErrStateConflict.Wrapf("signer %q already registered", signer)
	}
	if int(r.Count) >= MaxSigners {
		return types.ErrCapacity.Wrapf("signer registry is full (%d)", MaxSigners)
	}
	r.Signers[r.Count] = RegisteredSigner{Signer: signer, Role: role}
	r.Count++
	return nil
}

// Remove deletes signer and compacts the list, preserving order.
func (r *SignerRegistry) Remove(signer string) error {
	i := r.find(signer)
	if i < 0 {
		return types.ErrNotFound.Wrapf("signer %q", signer)
	}
	copy(r.Signers[i:r.Count], r.Signers[i+1:r.Count])
	r.Count--
	r.Signers[r.Count] = RegisteredSigner{}
	return nil
}

func (r *SignerRegistry) List() []RegisteredSigner {
	return append([]RegisteredSigner(nil), r.Signers[:r.Count]...)
}

type RegisteredGame struct {
	GameID        uint8  `json:"gameId"`
	Name          string `json:"name"`
	MinPlayers    uint8  `json:"minPlayers"`
	MaxPlayers    uint8  `json:"maxPlayers"`
	RuleEngineURL string `json:"ruleEngineUrl,omitempty"`
	Version       uint32 `json:"version"`
	Enabled       bool   `json:"enabled"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

func (g RegisteredGame) Validate() error {
	if g.Name == "" || len(g.Name) > MaxGameNameLen {
		return types.ErrPayload.Wrapf("game name must be 1..%d bytes", MaxGameNameLen)
	}
	if g.MinPlayers == 0 || g.MinPlayers > g.MaxPlayers || g.MaxPlayers > MaxPlayers {
		return types.ErrPayload.Wrapf("invalid player range %d..%d", g.MinPlayers, g.MaxPlayers)
	}
	if len(g.RuleEngineURL) > MaxRuleEngineURLLen {
		return types.ErrPayload.Wrapf("rule engine url too long: %d > %d", len(g.RuleEngineURL), MaxRuleEngineURLLen)
	}
	return nil
}

type GameRegistry struct {
	Games [MaxRegisteredGames]RegisteredGame `json:"games"`
	Count uint8                              `json:"count"`
}

func (r *GameRegistry) Get(gameID uint8) *RegisteredGame {
	for i := 0; i < int(r.Count); i++ {
		if r.Games[i].GameID == gameID {
			return &r.Games[i]
		}
	}
	return nil
}

func (r *GameRegistry) Add(g RegisteredGame) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if r.Get(g.GameID) != nil {
		return types.ErrStateConflict.Wrapf("game %d already registered", g.GameID)
	}
	if int(r.Count) >= MaxRegisteredGames {
		return types.ErrCapacity.Wrapf("game registry is full (%d)", MaxRegisteredGames)
	}
	r.Games[r.Count] = g
	r.Count++
	return nil
}

func (r *GameRegistry) List() []RegisteredGame {
	return append([]RegisteredGame(nil), r.Games[:r.Count]...)
}
