package state

import "fmt"

const (
	// maxSeasonSeconds bounds governance mistakes (one year).
	maxSeasonSeconds int64 = 365 * 24 * 60 * 60
	maxMultiplier    uint8 = 10
)

// Params are the chain-wide knobs, seeded at genesis.
type Params struct {
	DisputeDeposit         uint64 `json:"disputeDeposit"`
	SeasonDurationSecs     int64  `json:"seasonDurationSecs"`
	DailyBaseGP            uint64 `json:"dailyBaseGp"`
	ProGPMultiplier        uint8  `json:"proGpMultiplier"`
	DailyClaimCooldownSecs int64  `json:"dailyClaimCooldownSecs"`
	// MaxMatchAgeSecs rejects moves on matches older than this once play has
	// begun. 0 disables the check.
	MaxMatchAgeSecs   int64  `json:"maxMatchAgeSecs"`
	MinValidatorStake uint64 `json:"minValidatorStake"`
}

func DefaultParams() Params {
	return Params{
		DisputeDeposit:         100,
		SeasonDurationSecs:     7 * 24 * 60 * 60,
		DailyBaseGP:            1000,
		ProGPMultiplier:        2,
		DailyClaimCooldownSecs: 24 * 60 * 60,
		MaxMatchAgeSecs:        50 * 60,
		MinValidatorStake:      1,
	}
}

func (p Params) Validate() error {
	if p.SeasonDurationSecs <= 0 || p.SeasonDurationSecs > maxSeasonSeconds {
		return fmt.Errorf("seasonDurationSecs must be in 1..%d", maxSeasonSeconds)
	}
	if p.ProGPMultiplier == 0 || p.ProGPMultiplier > maxMultiplier {
		return fmt.Errorf("proGpMultiplier must be in 1..%d", maxMultiplier)
	}
	if p.DailyClaimCooldownSecs < 0 {
		return fmt.Errorf("dailyClaimCooldownSecs must be >= 0")
	}
	if p.MaxMatchAgeSecs < 0 {
		return fmt.Errorf("maxMatchAgeSecs must be >= 0")
	}
	return nil
}

// SeasonAt returns the season index containing unix time now.
func (p Params) SeasonAt(now int64) uint64 {
	if now <= 0 || p.SeasonDurationSecs <= 0 {
		return 0
	}
	return uint64(now / p.SeasonDurationSecs)
}
