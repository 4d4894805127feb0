package dispute

import (
	sdkmath "cosmossdk.io/math"

	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// SlashReason orders penalties by severity.
type SlashReason uint8

const (
	SlashMalicious SlashReason = 0
	SlashNegligent SlashReason = 1
	SlashInactive  SlashReason = 2
)

func (r SlashReason) String() string {
	switch r {
	case SlashMalicious:
		return "malicious"
	case SlashNegligent:
		return "negligent"
	case SlashInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Penalty is the fraction of reputation removed for r.
func (r SlashReason) Penalty() (sdkmath.LegacyDec, bool) {
	switch r {
	case SlashMalicious:
		return sdkmath.LegacyNewDecWithPrec(5, 1), true
	case SlashNegligent:
		return sdkmath.LegacyNewDecWithPrec(2, 1), true
	case SlashInactive:
		return sdkmath.LegacyNewDecWithPrec(1, 1), true
	default:
		return sdkmath.LegacyDec{}, false
	}
}

var (
	reputationKeep = sdkmath.LegacyNewDecWithPrec(7, 1)
	accuracyWeight = sdkmath.LegacyNewDecWithPrec(3, 1)
)

// Register creates a reputation record for a newly bonded validator.
func Register(validator string, stake, minStake uint64, now int64) (*state.ValidatorReputation, error) {
	if stake == 0 || stake < minStake {
		return nil, types.ErrPayload.Wrapf("stake %d below minimum %d", stake, minStake)
	}
	return state.NewValidatorReputation(validator, stake, now), nil
}

// Bond adds amount to the validator's stake.
func Bond(v *state.ValidatorReputation, amount uint64, now int64) error {
	if amount == 0 {
		return types.ErrPayload.Wrap("bond amount must be > 0")
	}
	stake, err := types.AddUint64Checked(v.Stake, amount, "validator stake")
	if err != nil {
		return err
	}
	v.Stake = stake
	v.LastActive = now
	return nil
}

// Slash deducts amount from the stake and scales reputation down by the
// reason's penalty, never below zero.
func Slash(v *state.ValidatorReputation, amount uint64, reason SlashReason) error {
	if amount == 0 {
		return types.ErrPayload.Wrap("slash amount must be > 0")
	}
	penalty, ok := reason.Penalty()
	if !ok {
		return types.ErrPayload.Wrapf("invalid slash reason %d", reason)
	}
	if v.Stake < amount {
		return types.ErrPayload.Wrapf("insufficient stake: have %d, slash %d", v.Stake, amount)
	}
	v.Stake -= amount

	rep := currentReputation(v).Mul(sdkmath.LegacyOneDec().Sub(penalty))
	v.Reputation = clampUnit(rep)
	return nil
}

// Accuracy is correct/total, or 0.5 with no history.
func Accuracy(v *state.ValidatorReputation) sdkmath.LegacyDec {
	if v.TotalResolutions == 0 {
		return state.DefaultReputation()
	}
	return sdkmath.LegacyNewDec(int64(v.CorrectResolutions)).QuoInt64(int64(v.TotalResolutions))
}

// UpdateReputation records one graded resolution and moves reputation 30% of
// the way toward the validator's accuracy.
func UpdateReputation(v *state.ValidatorReputation, wasCorrect bool, now int64) error {
	total, err := types.IncUint32Checked(v.TotalResolutions, "total_resolutions")
	if err != nil {
		return err
	}
	correct := v.CorrectResolutions
	if wasCorrect {
		if correct, err = types.IncUint32Checked(correct, "correct_resolutions"); err != nil {
			return err
		}
	}
	v.TotalResolutions = total
	v.CorrectResolutions = correct

	rep := currentReputation(v).Mul(reputationKeep).Add(Accuracy(v).Mul(accuracyWeight))
	v.Reputation = clampUnit(rep)
	v.LastActive = now
	return nil
}

func currentReputation(v *state.ValidatorReputation) sdkmath.LegacyDec {
	if v.Reputation.IsNil() {
		return state.DefaultReputation()
	}
	return v.Reputation
}

func clampUnit(d sdkmath.LegacyDec) sdkmath.LegacyDec {
	if d.IsNegative() {
		return sdkmath.LegacyZeroDec()
	}
	if d.GT(sdkmath.LegacyOneDec()) {
		return sdkmath.LegacyOneDec()
	}
	return d
}
