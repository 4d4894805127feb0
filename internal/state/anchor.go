package state

import "github.com/ocentra/ocentra-games/internal/codec"

const MaxBatchIDLen = 50

// BatchAnchor commits a merkle root over a contiguous run of finished matches.
type BatchAnchor struct {
	BatchID      string     `json:"batchId"`
	MerkleRoot   codec.Hash `json:"merkleRoot"`
	Count        uint32     `json:"count"`
	FirstMatchID string     `json:"firstMatchId"`
	LastMatchID  string     `json:"lastMatchId"`
	Timestamp    int64      `json:"timestamp"`
	Authority    string     `json:"authority"`
}
