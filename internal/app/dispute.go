package app

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/dispute"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

func disputeFlag(ctx *txContext, msg codec.DisputeFlagTx) (*abci.ExecTxResult, error) {
	if err := requireSigner(ctx, "flagger", msg.Flagger); err != nil {
		return nil, err
	}
	d, err := dispute.Flag(dispute.FlagRequest{
		MatchID:      msg.MatchID,
		Flagger:      msg.Flagger,
		Reason:       state.DisputeReason(msg.Reason),
		EvidenceHash: msg.EvidenceHash,
		Stake:        msg.Stake,
	}, ctx.st.Params.DisputeDeposit, ctx.now)
	if err != nil {
		return nil, err
	}
	key := state.DisputeKey(msg.MatchID, msg.Flagger)
	if _, exists := ctx.st.Disputes[key]; exists {
		return nil, types.ErrStateConflict.Wrapf("dispute by %q on match %q already exists", msg.Flagger, msg.MatchID)
	}
	ctx.st.Disputes[key] = d
	return okEvent("DisputeFlagged", map[string]string{
		"matchId":      d.MatchID,
		"flagger":      d.Flagger,
		"reason":       fmt.Sprintf("%d", d.Reason),
		"stake":        fmt.Sprintf("%d", d.StakeAmount),
		"evidenceHash": d.EvidenceHash.String(),
	}), nil
}

func disputeResolve(ctx *txContext, msg codec.DisputeResolveTx) (*abci.ExecTxResult, error) {
	if err := requireSigner(ctx, "validator", msg.Validator); err != nil {
		return nil, err
	}
	if err := requireRole(ctx, state.RoleValidator); err != nil {
		return nil, err
	}
	d := ctx.st.Disputes[state.DisputeKey(msg.MatchID, msg.Flagger)]
	if d == nil {
		return nil, types.ErrNotFound.Wrapf("dispute by %q on match %q", msg.Flagger, msg.MatchID)
	}
	decided, err := dispute.Vote(d, ctx.st.Validators[msg.Validator], state.Resolution(msg.Resolution), ctx.now)
	if err != nil {
		return nil, err
	}
	vote := d.Votes[d.VoteCount-1]
	return okEvent("DisputeVoteRecorded", map[string]string{
		"matchId":       d.MatchID,
		"flagger":       d.Flagger,
		"validator":     vote.Validator,
		"vote":          vote.Resolution.String(),
		"weight":        vote.Weight.String(),
		"decided":       strconv.FormatBool(decided),
		"resolution":    d.Resolution.String(),
		"stakeRefunded": strconv.FormatBool(d.StakeRefunded),
	}), nil
}

func validatorRegister(ctx *txContext, msg codec.ValidatorRegisterTx) (*abci.ExecTxResult, error) {
	if err := requireSigner(ctx, "validator", msg.Validator); err != nil {
		return nil, err
	}
	if err := requireRole(ctx, state.RoleValidator); err != nil {
		return nil, err
	}
	if _, exists := ctx.st.Validators[msg.Validator]; exists {
		return nil, types.ErrStateConflict.Wrapf("validator %q already registered", msg.Validator)
	}
	v, err := dispute.Register(msg.Validator, msg.Stake, ctx.st.Params.MinValidatorStake, ctx.now)
	if err != nil {
		return nil, err
	}
	ctx.st.Validators[msg.Validator] = v
	return okEvent("ValidatorRegistered", map[string]string{
		"validator":  v.Validator,
		"stake":      fmt.Sprintf("%d", v.Stake),
		"reputation": v.Reputation.String(),
	}), nil
}

func validatorBond(ctx *txContext, msg codec.ValidatorBondTx) (*abci.ExecTxResult, error) {
	if err := requireSigner(ctx, "validator", msg.Validator); err != nil {
		return nil, err
	}
	if err := requireRole(ctx, state.RoleValidator); err != nil {
		return nil, err
	}
	v, err := ctx.st.Validator(msg.Validator)
	if err != nil {
		return nil, err
	}
	if err := dispute.Bond(v, msg.Amount, ctx.now); err != nil {
		return nil, err
	}
	return okEvent("ValidatorBonded", map[string]string{
		"validator": v.Validator,
		"amount":    fmt.Sprintf("%d", msg.Amount),
		"stake":     fmt.Sprintf("%d", v.Stake),
	}), nil
}

func validatorSlash(ctx *txContext, msg codec.ValidatorSlashTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	v, err := ctx.st.Validator(msg.Validator)
	if err != nil {
		return nil, err
	}
	reason := dispute.SlashReason(msg.Reason)
	if err := dispute.Slash(v, msg.Amount, reason); err != nil {
		return nil, err
	}
	return okEvent("ValidatorSlashed", map[string]string{
		"validator":  v.Validator,
		"amount":     fmt.Sprintf("%d", msg.Amount),
		"reason":     reason.String(),
		"stake":      fmt.Sprintf("%d", v.Stake),
		"reputation": v.Reputation.String(),
	}), nil
}

func validatorRecordOutcome(ctx *txContext, msg codec.ValidatorRecordOutcomeTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	v, err := ctx.st.Validator(msg.Validator)
	if err != nil {
		return nil, err
	}
	if err := dispute.UpdateReputation(v, msg.Correct, ctx.now); err != nil {
		return nil, err
	}
	return okEvent("ReputationUpdated", map[string]string{
		"validator":          v.Validator,
		"correct":            strconv.FormatBool(msg.Correct),
		"totalResolutions":   fmt.Sprintf("%d", v.TotalResolutions),
		"correctResolutions": fmt.Sprintf("%d", v.CorrectResolutions),
		"reputation":         v.Reputation.String(),
	}), nil
}
