// Package dispute implements flagging and resolution of contested matches and
// the reputation bookkeeping of the validators who resolve them.
package dispute

import (
	sdkmath "cosmossdk.io/math"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// FlagRequest opens a dispute.
type FlagRequest struct {
	MatchID      string
	Flagger      string
	Reason       state.DisputeReason
	EvidenceHash codec.Hash
	Stake        uint64
}

// Flag builds a new unresolved dispute. The stake starts as forfeited and is
// only marked refunded by a favor-flagger resolution.
func Flag(req FlagRequest, minStake uint64, now int64) (*state.Dispute, error) {
	if err := codec.ValidateMatchID(req.MatchID); err != nil {
		return nil, types.ErrPayload.Wrap(err.Error())
	}
	if err := codec.ValidateIdentity("flagger", req.Flagger); err != nil {
		return nil, types.ErrPayload.Wrap(err.Error())
	}
	if req.Reason > state.MaxDisputeReason {
		return nil, types.ErrPayload.Wrapf("invalid dispute reason %d", req.Reason)
	}
	if req.EvidenceHash.IsZero() {
		return nil, types.ErrPayload.Wrap("missing evidence hash")
	}
	if req.Stake < minStake {
		return nil, types.ErrPayload.Wrapf("stake %d below required deposit %d", req.Stake, minStake)
	}
	return &state.Dispute{
		MatchID:      req.MatchID,
		Flagger:      req.Flagger,
		Reason:       req.Reason,
		EvidenceHash: req.EvidenceHash,
		StakeAmount:  req.Stake,
		CreatedAt:    now,
	}, nil
}

// Vote records validator's resolution on d. The first vote decides the
// outcome; later votes are kept as attestations and never change it.
// It reports whether this vote resolved the dispute.
func Vote(d *state.Dispute, v *state.ValidatorReputation, resolution state.Resolution, now int64) (bool, error) {
	if d == nil {
		return false, types.ErrNotFound.Wrap("dispute")
	}
	if v == nil {
		return false, types.ErrAuthorization.Wrap("validator has no reputation record")
	}
	if v.Stake == 0 {
		return false, types.ErrAuthorization.Wrapf("validator %q has no stake", v.Validator)
	}
	if !resolution.Valid() {
		return false, types.ErrPayload.Wrapf("invalid resolution %d", resolution)
	}
	if d.HasVoteFrom(v.Validator) {
		return false, types.ErrStateConflict.Wrapf("validator %q already voted", v.Validator)
	}
	if int(d.VoteCount) >= state.MaxDisputeVotes {
		return false, types.ErrCapacity.Wrapf("dispute already has %d votes", state.MaxDisputeVotes)
	}

	weight := v.Reputation
	if weight.IsNil() {
		weight = sdkmath.LegacyZeroDec()
	}
	d.Votes[d.VoteCount] = state.DisputeVote{
		Validator:  v.Validator,
		Resolution: resolution,
		Weight:     weight,
		Timestamp:  now,
	}
	d.VoteCount++

	resolved := false
	if !d.IsResolved() {
		d.Resolution = resolution
		d.ResolvedAt = now
		d.StakeRefunded = resolution == state.ResolutionFavorFlagger
		resolved = true
	}
	v.LastActive = now
	return resolved, nil
}

// TallyWeight sums vote weights per resolution.
func TallyWeight(d *state.Dispute) map[state.Resolution]sdkmath.LegacyDec {
	out := map[state.Resolution]sdkmath.LegacyDec{}
	for _, vote := range d.CastVotes() {
		w := vote.Weight
		if w.IsNil() {
			continue
		}
		if cur, ok := out[vote.Resolution]; ok {
			out[vote.Resolution] = cur.Add(w)
		} else {
			out[vote.Resolution] = w
		}
	}
	return out
}
