package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const (
	HashSize = sha256.Size

	// MatchIDLen is the canonical 8-4-4-4-12 UUID text length.
	MatchIDLen = 36
	// MaxIdentityLen bounds player, validator, signer and user identities.
	MaxIdentityLen = 64
)

// Hash is a 32-byte digest. The zero value means "unset".
type Hash [HashSize]byte

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h[:])), nil
}

func (h *Hash) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*h = Hash{}
		return nil
	}
	raw, err := hex.DecodeString(string(b))
	if err != nil {
		return fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(raw) != HashSize {
		return fmt.Errorf("invalid hash length: got %d want %d", len(raw), HashSize)
	}
	copy(h[:], raw)
	return nil
}

func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("invalid hash length: got %d want %d", len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

// ValidateMatchID requires the 36-character hyphenated UUID form.
func ValidateMatchID(id string) error {
	if len(id) != MatchIDLen {
		return fmt.Errorf("matchId must be %d characters, got %d", MatchIDLen, len(id))
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("matchId is not a uuid: %w", err)
	}
	return nil
}

// NewMatchID returns a random UUID v4 in canonical form.
func NewMatchID() string {
	return uuid.NewString()
}

func ValidateIdentity(field, id string) error {
	if id == "" {
		return fmt.Errorf("missing %s", field)
	}
	if len(id) > MaxIdentityLen {
		return fmt.Errorf("%s too long: %d > %d bytes", field, len(id), MaxIdentityLen)
	}
	return nil
}
