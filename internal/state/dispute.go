package state

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/ocentra/ocentra-games/internal/codec"
)

const MaxDisputeVotes = 10

type DisputeReason uint8

const (
	ReasonInvalidMove       DisputeReason = 0
	ReasonPlayerTimeout     DisputeReason = 1
	ReasonSuspectedCheating DisputeReason = 2
	ReasonScoreError        DisputeReason = 3
	ReasonOther             DisputeReason = 4

	MaxDisputeReason = ReasonOther
)

// Resolution 0 is reserved for "unresolved".
type Resolution uint8

const (
	ResolutionNone           Resolution = 0
	ResolutionFavorFlagger   Resolution = 1
	ResolutionFavorDefendant Resolution = 2
	ResolutionMatchVoided    Resolution = 3
	ResolutionPartialRefund  Resolution = 4
)

func (r Resolution) Valid() bool {
	return r >= ResolutionFavorFlagger && r <= ResolutionPartialRefund
}

func (r Resolution) String() string {
	switch r {
	case ResolutionNone:
		return "none"
	case ResolutionFavorFlagger:
		return "favor_flagger"
	case ResolutionFavorDefendant:
		return "favor_defendant"
	case ResolutionMatchVoided:
		return "match_voided"
	case ResolutionPartialRefund:
		return "partial_refund"
	default:
		return "unknown"
	}
}

type DisputeVote struct {
	Validator  string     `json:"validator"`
	Resolution Resolution `json:"resolution"`
	// Weight is the validator's reputation when the vote was cast.
	Weight    sdkmath.LegacyDec `json:"weight"`
	Timestamp int64             `json:"timestamp"`
}

type Dispute struct {
	MatchID       string                       `json:"matchId"`
	Flagger       string                       `json:"flagger"`
	Reason        DisputeReason                `json:"reason"`
	EvidenceHash  codec.Hash                   `json:"evidenceHash"`
	StakeAmount   uint64                       `json:"stakeAmount"`
	StakeRefunded bool                         `json:"stakeRefunded"`
	CreatedAt     int64                        `json:"createdAt"`
	ResolvedAt    int64                        `json:"resolvedAt,omitempty"`
	Resolution    Resolution                   `json:"resolution"`
	Votes         [MaxDisputeVotes]DisputeVote `json:"votes"`
	VoteCount     uint8                        `json:"voteCount"`
}

// DisputeKey identifies the dispute a flagger opened against a match.
func DisputeKey(matchID, flagger string) string {
	return matchID + "/" + flagger
}

func (d *Dispute) IsResolved() bool {
	return d.Resolution != ResolutionNone && d.ResolvedAt != 0
}

func (d *Dispute) HasVoteFrom(validator string) bool {
	for i := 0; i < int(d.VoteCount); i++ {
		if d.Votes[i].Validator == validator {
			return true
		}
	}
	return false
}

func (d *Dispute) CastVotes() []DisputeVote {
	return append([]DisputeVote(nil), d.Votes[:d.VoteCount]...)
}

type disputeAlias Dispute

// MarshalJSON writes only the cast votes. Empty slots carry a nil weight whose
// encoding would not survive a decode, so they must stay out of the app hash.
func (d Dispute) MarshalJSON() ([]byte, error) {
	votes := d.CastVotes()
	if votes == nil {
		votes = []DisputeVote{}
	}
	return json.Marshal(struct {
		disputeAlias
		Votes []DisputeVote `json:"votes"`
	}{disputeAlias(d), votes})
}

func (d *Dispute) UnmarshalJSON(b []byte) error {
	var w struct {
		*disputeAlias
		Votes []DisputeVote `json:"votes"`
	}
	*d = Dispute{}
	w.disputeAlias = (*disputeAlias)(d)
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if len(w.Votes) > MaxDisputeVotes || len(w.Votes) != int(d.VoteCount) {
		return fmt.Errorf("dispute %s: %d votes for vote count %d", DisputeKey(d.MatchID, d.Flagger), len(w.Votes), d.VoteCount)
	}
	copy(d.Votes[:], w.Votes)
	return nil
}
