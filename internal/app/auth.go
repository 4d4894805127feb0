package app

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

const txAuthDomainV0 = "cardmatch/tx/v0"

func txAuthSignBytesV0(typ string, value []byte, nonce string, signer string) []byte {
	// signBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomainV0)+1+len(typ)+1+len(nonce)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomainV0)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return types.ErrAuthorization.Wrap("missing tx.nonce")
	}
	if env.Signer == "" {
		return types.ErrAuthorization.Wrap("missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return types.ErrAuthorization.Wrap("missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return types.ErrAuthorization.Wrapf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

func verifyEnvelope(pub []byte, env codec.TxEnvelope) error {
	msg := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return types.ErrAuthorization.Wrap("invalid signature")
	}
	return nil
}

// requireAccountAuth checks that env is signed by the key bound to env.Signer.
func requireAccountAuth(st *state.State, env codec.TxEnvelope) error {
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	pub := st.AccountKeys[env.Signer]
	if len(pub) != ed25519.PublicKeySize {
		return types.ErrAuthorization.Wrapf("account %q missing pubKey (auth/register_account required)", env.Signer)
	}
	return verifyEnvelope(pub, env)
}

func requireRegisterAccountAuth(env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if err := codec.ValidateIdentity("account", msg.Account); err != nil {
		return types.ErrPayload.Wrap(err.Error())
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return types.ErrPayload.Wrapf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return types.ErrAuthorization.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	return verifyEnvelope(msg.PubKey, env)
}

// consumeNonce enforces a strictly increasing envelope nonce per signer.
func consumeNonce(st *state.State, env codec.TxEnvelope) error {
	n, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return types.ErrReplay.Wrapf("invalid tx.nonce %q", env.Nonce)
	}
	if last, ok := st.NonceMax[env.Signer]; ok && n <= last {
		return types.ErrReplay.Wrapf("replayed tx.nonce %d (last %d)", n, last)
	}
	st.NonceMax[env.Signer] = n
	return nil
}

func authRegisterAccount(ctx *txContext, msg codec.AuthRegisterAccountTx) (*abci.ExecTxResult, error) {
	if err := requireRegisterAccountAuth(ctx.env, msg); err != nil {
		return nil, err
	}
	existing := ctx.st.AccountKeys[msg.Account]
	if len(existing) != 0 && !bytes.Equal(existing, msg.PubKey) {
		return nil, types.ErrStateConflict.Wrapf("account %q already bound to a different key", msg.Account)
	}
	if err := consumeNonce(ctx.st, ctx.env); err != nil {
		return nil, err
	}
	ctx.st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
	return okEvent("AccountRegistered", map[string]string{
		"account":  msg.Account,
		"existing": strconv.FormatBool(len(existing) != 0),
	}), nil
}

// ---- Signer checks used by handlers ----

func requireSigner(ctx *txContext, field, want string) error {
	if err := codec.ValidateIdentity(field, want); err != nil {
		return types.ErrPayload.Wrap(err.Error())
	}
	if ctx.env.Signer != want {
		return types.ErrAuthorization.Wrapf("tx signer mismatch: signer=%q %s=%q", ctx.env.Signer, field, want)
	}
	return nil
}

func requireRegistryAuthority(ctx *txContext) error {
	reg := &ctx.st.Signers
	if !reg.Initialized() {
		return types.ErrAuthorization.Wrap("signer registry is not initialized")
	}
	if ctx.env.Signer != reg.Authority {
		return types.ErrAuthorization.Wrapf("signer %q is not the registry authority", ctx.env.Signer)
	}
	return nil
}

func requireRole(ctx *txContext, roles ...state.SignerRole) error {
	if !ctx.st.Signers.HasRole(ctx.env.Signer, roles...) {
		return types.ErrAuthorization.Wrapf("signer %q lacks role %v", ctx.env.Signer, roles)
	}
	return nil
}
