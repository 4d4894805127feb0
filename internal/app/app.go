package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/store"
	"github.com/ocentra/ocentra-games/internal/types"
)

const (
	AppVersion uint64 = 1
)

type MatchApp struct {
	*abci.BaseApplication

	logger cmtlog.Logger
	store  *store.Store

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

// New opens the database under dbDir and restores the last committed state.
func New(dbDir string, logger cmtlog.Logger) (*MatchApp, error) {
	if logger == nil {
		logger = cmtlog.NewNopLogger()
	}
	s, err := store.Open(dbDir, logger)
	if err != nil {
		return nil, err
	}
	a, err := NewWithStore(s, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return a, nil
}

func NewWithStore(s *store.Store, logger cmtlog.Logger) (*MatchApp, error) {
	if logger == nil {
		logger = cmtlog.NewNopLogger()
	}
	st, hash, err := s.LoadState()
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = state.NewState()
		hash = st.AppHash()
	}
	a := &MatchApp{
		BaseApplication: abci.NewBaseApplication(),
		logger:          logger.With("module", "app"),
		store:           s,
		st:              st,
		lastHash:        hash,
	}
	a.logger.Info("loaded state", "height", st.Height, "appHash", fmt.Sprintf("%X", hash))
	return a, nil
}

func (a *MatchApp) Close() error {
	return a.store.Close()
}

func (a *MatchApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "cardmatch (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *MatchApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	env, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		err = types.ErrPayload.Wrap(err.Error())
	} else {
		err = requireSignedEnvelope(env)
	}
	if err != nil {
		codespace, code, log := errorsmod.ABCIInfo(err, false)
		return &abci.CheckTxResponse{Codespace: codespace, Code: code, Log: log}, nil
	}
	// Stateful checks run in FinalizeBlock.
	return &abci.CheckTxResponse{Code: 0}, nil
}

// GenesisState is the app_state accepted by InitChain.
type GenesisState struct {
	// Authority initializes the signer registry.
	Authority string `json:"authority,omitempty"`
	// Accounts pre-binds ed25519 keys so the authority can sign from block 1.
	Accounts map[string][]byte `json:"accounts,omitempty"`
	// Params overrides DefaultParams field by field.
	Params json.RawMessage `json:"params,omitempty"`
}

func (a *MatchApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(req.AppStateBytes) > 0 {
		var gen GenesisState
		if err := json.Unmarshal(req.AppStateBytes, &gen); err != nil {
			return nil, fmt.Errorf("invalid app_state: %w", err)
		}
		if err := applyGenesis(a.st, gen); err != nil {
			return nil, err
		}
	}
	a.lastHash = a.st.AppHash()
	a.logger.Info("init chain", "chainId", req.ChainId, "authority", a.st.Signers.Authority)
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func applyGenesis(st *state.State, gen GenesisState) error {
	if len(gen.Params) > 0 {
		p := state.DefaultParams()
		if err := json.Unmarshal(gen.Params, &p); err != nil {
			return fmt.Errorf("invalid genesis params: %w", err)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid genesis params: %w", err)
		}
		st.Params = p
	}
	if gen.Authority != "" {
		if err := codec.ValidateIdentity("authority", gen.Authority); err != nil {
			return err
		}
		st.Signers.Authority = gen.Authority
	}
	for id, pub := range gen.Accounts {
		if err := codec.ValidateIdentity("account", id); err != nil {
			return err
		}
		if len(pub) != 32 {
			return fmt.Errorf("account %q: pubKey must be 32 bytes", id)
		}
		st.AccountKeys[id] = append([]byte(nil), pub...)
	}
	return nil
}

func (a *MatchApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	now := req.Time.Unix()

	failed := 0
	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height, now)
		if res.Code != 0 {
			failed++
		}
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()
	a.logger.Debug("finalized block", "height", req.Height, "txs", len(req.Txs), "failed", failed)

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *MatchApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.SaveState(a.st, a.lastHash); err != nil {
		// Returning the error halts the node instead of diverging silently.
		return nil, err
	}
	a.logger.Info("committed state", "height", a.st.Height, "appHash", fmt.Sprintf("%X", a.lastHash))
	return &abci.CommitResponse{}, nil
}

// txContext is what a handler sees: the staged state and the envelope.
type txContext struct {
	st     *state.State
	env    codec.TxEnvelope
	height int64
	now    int64
}

func (c *txContext) signer() string { return c.env.Signer }

// deliverTx executes one tx against a copy of the state and swaps the copy in
// only on success.
func (a *MatchApp) deliverTx(txBytes []byte, height int64, now int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return errResult(types.ErrPayload.Wrap(err.Error()))
	}

	staged, err := a.st.Clone()
	if err != nil {
		return errResult(err)
	}
	ctx := &txContext{st: staged, env: env, height: height, now: now}

	res, err := execute(ctx)
	if err != nil {
		a.logger.Debug("tx rejected", "type", env.Type, "signer", env.Signer, "err", err)
		return errResult(err)
	}
	a.st = staged
	return res
}

func execute(ctx *txContext) (*abci.ExecTxResult, error) {
	if ctx.env.Type == "auth/register_account" {
		return route(ctx, authRegisterAccount)
	}
	if err := requireAccountAuth(ctx.st, ctx.env); err != nil {
		return nil, err
	}
	if err := consumeNonce(ctx.st, ctx.env); err != nil {
		return nil, err
	}

	switch ctx.env.Type {
	case "registry/init":
		return route(ctx, registryInit)
	case "registry/add_signer":
		return route(ctx, registryAddSigner)
	case "registry/remove_signer":
		return route(ctx, registryRemoveSigner)
	case "registry/add_game":
		return route(ctx, registryAddGame)
	case "registry/update_game":
		return route(ctx, registryUpdateGame)
	case "registry/disable_game":
		return route(ctx, registryDisableGame)
	case "config/update_params":
		return route(ctx, configUpdateParams)

	case "match/create":
		return route(ctx, matchCreate)
	case "match/join":
		return route(ctx, matchJoin)
	case "match/commit_hand":
		return route(ctx, matchCommitHand)
	case "match/start":
		return route(ctx, matchStart)
	case "match/reveal_floor":
		return route(ctx, matchRevealFloor)
	case "match/submit_move":
		return route(ctx, matchSubmitMove)
	case "match/submit_batch":
		return route(ctx, matchSubmitBatch)
	case "match/end":
		return route(ctx, matchEnd)
	case "match/anchor":
		return route(ctx, matchAnchor)
	case "match/close":
		return route(ctx, matchClose)
	case "anchor/batch":
		return route(ctx, anchorBatch)

	case "dispute/flag":
		return route(ctx, disputeFlag)
	case "dispute/resolve":
		return route(ctx, disputeResolve)
	case "validator/register":
		return route(ctx, validatorRegister)
	case "validator/bond":
		return route(ctx, validatorBond)
	case "validator/slash":
		return route(ctx, validatorSlash)
	case "validator/record_outcome":
		return route(ctx, validatorRecordOutcome)

	case "user/record_result":
		return route(ctx, userRecordResult)
	case "user/daily_login":
		return route(ctx, userDailyLogin)
	case "user/record_subscription":
		return route(ctx, userRecordSubscription)
	case "leaderboard/update":
		return route(ctx, leaderboardUpdate)

	default:
		return nil, types.ErrPayload.Wrapf("unknown tx type: %s", ctx.env.Type)
	}
}

// route decodes the envelope value into T and calls fn.
func route[T any](ctx *txContext, fn func(*txContext, T) (*abci.ExecTxResult, error)) (*abci.ExecTxResult, error) {
	var msg T
	if err := json.Unmarshal(ctx.env.Value, &msg); err != nil {
		return nil, types.ErrPayload.Wrapf("bad %s value: %v", ctx.env.Type, err)
	}
	return fn(ctx, msg)
}

func errResult(err error) *abci.ExecTxResult {
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Codespace: codespace, Code: code, Log: log}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{event(typ, attrs)},
	}
}

func event(typ string, attrs map[string]string) abci.Event {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return ev
}
