package state

import (
	sdkmath "cosmossdk.io/math"
)

// ValidatorReputation tracks a dispute validator's bond and track record.
// Reputation is an exact decimal in [0,1].
type ValidatorReputation struct {
	Validator          string            `json:"validator"`
	Stake              uint64            `json:"stake"`
	Reputation         sdkmath.LegacyDec `json:"reputation"`
	TotalResolutions   uint32            `json:"totalResolutions"`
	CorrectResolutions uint32            `json:"correctResolutions"`
	CreatedAt          int64             `json:"createdAt"`
	LastActive         int64             `json:"lastActive"`
}

// DefaultReputation is the score of a validator with no history.
func DefaultReputation() sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecWithPrec(5, 1)
}

func NewValidatorReputation(validator string, stake uint64, now int64) *ValidatorReputation {
	return &ValidatorReputation{
		Validator:  validator,
		Stake:      stake,
		Reputation: DefaultReputation(),
		CreatedAt:  now,
		LastActive: now,
	}
}
