package types

import errorsmod "cosmossdk.io/errors"

// ModuleName is the codespace for every error the match state machine returns.
const ModuleName = "match"

// Sentinel errors, one per failure class. Call sites wrap them with context.
var (
	ErrAuthorization = errorsmod.Register(ModuleName, 2, "unauthorized")
	ErrPhase         = errorsmod.Register(ModuleName, 3, "invalid phase")
	ErrTurnOrder     = errorsmod.Register(ModuleName, 4, "not player's turn")
	ErrPayload       = errorsmod.Register(ModuleName, 5, "invalid payload")
	ErrReplay        = errorsmod.Register(ModuleName, 6, "replayed nonce")
	ErrCapacity      = errorsmod.Register(ModuleName, 7, "capacity exceeded")
	ErrStateConflict = errorsmod.Register(ModuleName, 8, "state conflict")
	ErrArithmetic    = errorsmod.Register(ModuleName, 9, "arithmetic overflow")
	ErrNotFound      = errorsmod.Register(ModuleName, 10, "not found")
)
