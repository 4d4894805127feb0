package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; ours are JSON-encoded envelopes.
type TxEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Auth:
	// - Nonce: decimal u64, must increase per signer.
	// - Signer: registered account id.
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Auth ----

type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Registry ----

type RegistryInitTx struct {
	Authority string `json:"authority"`
}

type RegistryAddSignerTx struct {
	Signer string `json:"signer"`
	Role   uint8  `json:"role"` // 0=coordinator 1=validator 2=authority
}

type RegistryRemoveSignerTx struct {
	Signer string `json:"signer"`
}

type RegistryAddGameTx struct {
	GameID        uint8  `json:"gameId"`
	Name          string `json:"name"`
	MinPlayers    uint8  `json:"minPlayers"`
	MaxPlayers    uint8  `json:"maxPlayers"`
	RuleEngineURL string `json:"ruleEngineUrl,omitempty"`
	Version       uint32 `json:"version,omitempty"`
}

// RegistryUpdateGameTx leaves fields that are nil untouched.
type RegistryUpdateGameTx struct {
	GameID        uint8   `json:"gameId"`
	Name          *string `json:"name,omitempty"`
	MinPlayers    *uint8  `json:"minPlayers,omitempty"`
	MaxPlayers    *uint8  `json:"maxPlayers,omitempty"`
	RuleEngineURL *string `json:"ruleEngineUrl,omitempty"`
	Version       *uint32 `json:"version,omitempty"`
	Enabled       *bool   `json:"enabled,omitempty"`
}

type RegistryDisableGameTx struct {
	GameID uint8 `json:"gameId"`
}

type ConfigUpdateParamsTx struct {
	Params json.RawMessage `json:"params"`
}

// ---- Match ----

type MatchCreateTx struct {
	MatchID  string `json:"matchId"`
	GameType uint8  `json:"gameType"`
	Seed     uint64 `json:"seed"`
}

type MatchJoinTx struct {
	MatchID string `json:"matchId"`
	Player  string `json:"player"`
}

type MatchCommitHandTx struct {
	MatchID  string `json:"matchId"`
	Player   string `json:"player"`
	HandHash Hash   `json:"handHash"`
	HandSize uint8  `json:"handSize"`
}

type MatchStartTx struct {
	MatchID string `json:"matchId"`
}

type MatchRevealFloorTx struct {
	MatchID  string `json:"matchId"`
	CardHash Hash   `json:"cardHash"`
}

type MoveInput struct {
	Action  uint8  `json:"action"`            // 0=pick_up 1=decline 2=declare_intent 3=call_showdown 4=rebuttal
	Payload []byte `json:"payload,omitempty"` // base64 in JSON
	Nonce   uint64 `json:"nonce"`
}

type MatchSubmitMoveTx struct {
	MatchID string `json:"matchId"`
	Player  string `json:"player"`
	MoveInput
}

type MatchSubmitBatchTx struct {
	MatchID string      `json:"matchId"`
	Player  string      `json:"player"`
	Moves   []MoveInput `json:"moves"`
}

type MatchEndTx struct {
	MatchID   string `json:"matchId"`
	MatchHash *Hash  `json:"matchHash,omitempty"`
	HotURL    string `json:"hotUrl,omitempty"`
}

type MatchAnchorTx struct {
	MatchID   string `json:"matchId"`
	MatchHash Hash   `json:"matchHash"`
	HotURL    string `json:"hotUrl,omitempty"`
}

type MatchCloseTx struct {
	MatchID string `json:"matchId"`
}

type AnchorBatchTx struct {
	BatchID      string `json:"batchId"`
	MerkleRoot   Hash   `json:"merkleRoot"`
	Count        uint64 `json:"count"`
	FirstMatchID string `json:"firstMatchId"`
	LastMatchID  string `json:"lastMatchId"`
}

// ---- Dispute ----

type DisputeFlagTx struct {
	MatchID      string `json:"matchId"`
	Flagger      string `json:"flagger"`
	Reason       uint8  `json:"reason"`
	EvidenceHash Hash   `json:"evidenceHash"`
	Stake        uint64 `json:"stake"`
}

type DisputeResolveTx struct {
	MatchID    string `json:"matchId"`
	Flagger    string `json:"flagger"`
	Validator  string `json:"validator"`
	Resolution uint8  `json:"resolution"` // 1=favor flagger 2=favor defendant 3=match voided 4=partial refund
}

// ---- Validators ----

type ValidatorRegisterTx struct {
	Validator string `json:"validator"`
	Stake     uint64 `json:"stake"`
}

type ValidatorBondTx struct {
	Validator string `json:"validator"`
	Amount    uint64 `json:"amount"`
}

type ValidatorSlashTx struct {
	Validator string `json:"validator"`
	Amount    uint64 `json:"amount"`
	Reason    uint8  `json:"reason"` // 0=malicious 1=negligent 2=inactive
}

type ValidatorRecordOutcomeTx struct {
	Validator string `json:"validator"`
	Correct   bool   `json:"correct"`
}

// ---- Users / leaderboard ----

type UserRecordResultTx struct {
	UserID   string `json:"userId"`
	Won      bool   `json:"won"`
	GPEarned uint64 `json:"gpEarned,omitempty"`
}

type UserDailyLoginTx struct {
	UserID string `json:"userId"`
}

type UserRecordSubscriptionTx struct {
	UserID string `json:"userId"`
	Tier   uint8  `json:"tier"`   // 0=free 1=pro 2=pro plus
	Expiry int64  `json:"expiry"` // unix seconds
}

type LeaderboardUpdateTx struct {
	GameType uint8  `json:"gameType"`
	UserID   string `json:"userId"`
}
