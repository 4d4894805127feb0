package app

import (
	"encoding/json"
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

// registryInit claims the signer registry. Repeating it with the same
// authority is a no-op.
func registryInit(ctx *txContext, msg codec.RegistryInitTx) (*abci.ExecTxResult, error) {
	if err := requireSigner(ctx, "authority", msg.Authority); err != nil {
		return nil, err
	}
	reg := &ctx.st.Signers
	existing := reg.Initialized()
	if existing && reg.Authority != msg.Authority {
		return nil, types.ErrStateConflict.Wrapf("registry already owned by %q", reg.Authority)
	}
	reg.Authority = msg.Authority
	return okEvent("RegistryInitialized", map[string]string{
		"authority": msg.Authority,
		"existing":  strconv.FormatBool(existing),
	}), nil
}

func registryAddSigner(ctx *txContext, msg codec.RegistryAddSignerTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	if err := codec.ValidateIdentity("signer", msg.Signer); err != nil {
		return nil, types.ErrPayload.Wrap(err.Error())
	}
	role := state.SignerRole(msg.Role)
	if !role.Valid() {
		return nil, types.ErrPayload.Wrapf("invalid role %d", msg.Role)
	}
	if err := ctx.st.Signers.Add(msg.Signer, role); err != nil {
		return nil, err
	}
	return okEvent("SignerAdded", map[string]string{
		"signer": msg.Signer,
		"role":   role.String(),
		"count":  fmt.Sprintf("%d", ctx.st.Signers.Count),
	}), nil
}

func registryRemoveSigner(ctx *txContext, msg codec.RegistryRemoveSignerTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	if err := ctx.st.Signers.Remove(msg.Signer); err != nil {
		return nil, err
	}
	return okEvent("SignerRemoved", map[string]string{
		"signer": msg.Signer,
		"count":  fmt.Sprintf("%d", ctx.st.Signers.Count),
	}), nil
}

func registryAddGame(ctx *txContext, msg codec.RegistryAddGameTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	g := state.RegisteredGame{
		GameID:        msg.GameID,
		Name:          msg.Name,
		MinPlayers:    msg.MinPlayers,
		MaxPlayers:    msg.MaxPlayers,
		RuleEngineURL: msg.RuleEngineURL,
		Version:       msg.Version,
		Enabled:       true,
		CreatedAt:     ctx.now,
		UpdatedAt:     ctx.now,
	}
	if err := ctx.st.Games.Add(g); err != nil {
		return nil, err
	}
	return okEvent("GameRegistered", map[string]string{
		"gameId":     fmt.Sprintf("%d", g.GameID),
		"name":       g.Name,
		"minPlayers": fmt.Sprintf("%d", g.MinPlayers),
		"maxPlayers": fmt.Sprintf("%d", g.MaxPlayers),
	}), nil
}

func registryUpdateGame(ctx *txContext, msg codec.RegistryUpdateGameTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	cur := ctx.st.Games.Get(msg.GameID)
	if cur == nil {
		return nil, types.ErrNotFound.Wrapf("game %d", msg.GameID)
	}
	g := *cur
	if msg.Name != nil {
		g.Name = *msg.Name
	}
	if msg.MinPlayers != nil {
		g.MinPlayers = *msg.MinPlayers
	}
	if msg.MaxPlayers != nil {
		g.MaxPlayers = *msg.MaxPlayers
	}
	if msg.RuleEngineURL != nil {
		g.RuleEngineURL = *msg.RuleEngineURL
	}
	if msg.Version != nil {
		g.Version = *msg.Version
	}
	if msg.Enabled != nil {
		g.Enabled = *msg.Enabled
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.UpdatedAt = ctx.now
	*cur = g
	return okEvent("GameUpdated", map[string]string{
		"gameId":  fmt.Sprintf("%d", g.GameID),
		"version": fmt.Sprintf("%d", g.Version),
		"enabled": strconv.FormatBool(g.Enabled),
	}), nil
}

func registryDisableGame(ctx *txContext, msg codec.RegistryDisableGameTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	g := ctx.st.Games.Get(msg.GameID)
	if g == nil {
		return nil, types.ErrNotFound.Wrapf("game %d", msg.GameID)
	}
	g.Enabled = false
	g.UpdatedAt = ctx.now
	return okEvent("GameDisabled", map[string]string{
		"gameId": fmt.Sprintf("%d", g.GameID),
	}), nil
}

// configUpdateParams merges the given fields over the current params.
func configUpdateParams(ctx *txContext, msg codec.ConfigUpdateParamsTx) (*abci.ExecTxResult, error) {
	if err := requireRegistryAuthority(ctx); err != nil {
		return nil, err
	}
	if len(msg.Params) == 0 {
		return nil, types.ErrPayload.Wrap("missing params")
	}
	p := ctx.st.Params
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil, types.ErrPayload.Wrapf("bad params: %v", err)
	}
	if err := p.Validate(); err != nil {
		return nil, types.ErrPayload.Wrap(err.Error())
	}
	ctx.st.Params = p
	return okEvent("ParamsUpdated", map[string]string{
		"disputeDeposit":     fmt.Sprintf("%d", p.DisputeDeposit),
		"seasonDurationSecs": fmt.Sprintf("%d", p.SeasonDurationSecs),
		"maxMatchAgeSecs":    fmt.Sprintf("%d", p.MaxMatchAgeSecs),
	}), nil
}
