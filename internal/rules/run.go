package rules

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/state"
)

const (
	minCardValue = 2
	maxCardValue = 14 // ace high

	// TriplePayloadLen is the rebuttal payload prefix: three (suit, value) pairs.
	TriplePayloadLen = 6
)

// Card is a revealed (suit, value) pair. Values run 2..14.
type Card struct {
	Suit  state.Suit
	Value uint8
}

func (c Card) String() string {
	return fmt.Sprintf("%d:%d", c.Suit, c.Value)
}

// ParseTriple reads three cards from the first six payload bytes.
func ParseTriple(payload []byte) ([3]Card, error) {
	var out [3]Card
	if len(payload) < TriplePayloadLen {
		return out, fmt.Errorf("rebuttal payload needs %d bytes, got %d", TriplePayloadLen, len(payload))
	}
	for i := 0; i < 3; i++ {
		s, v := payload[2*i], payload[2*i+1]
		if s >= state.NumSuits {
			return out, fmt.Errorf("card %d has invalid suit %d", i, s)
		}
		if v < minCardValue || v > maxCardValue {
			return out, fmt.Errorf("card %d has invalid value %d", i, v)
		}
		out[i] = Card{Suit: state.Suit(s), Value: v}
	}
	return out, nil
}

// IsValidRun reports whether the cards share a suit and form three consecutive
// values. The wraparound run 2-K-A counts as consecutive.
func IsValidRun(cards [3]Card) bool {
	if cards[0].Suit != cards[1].Suit || cards[1].Suit != cards[2].Suit {
		return false
	}
	v := []uint8{cards[0].Value, cards[1].Value, cards[2].Value}
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })

	if v[1] == v[0]+1 && v[2] == v[1]+1 {
		return true
	}
	return v[0] == 2 && v[1] == 13 && v[2] == 14
}

// TripleHash is sha256 over the cards sorted by (suit, value), two bytes each.
// Off-chain replay checks it against the committed hand.
func TripleHash(cards [3]Card) codec.Hash {
	sorted := cards
	sort.Slice(sorted[:], func(i, j int) bool {
		if sorted[i].Suit != sorted[j].Suit {
			return sorted[i].Suit < sorted[j].Suit
		}
		return sorted[i].Value < sorted[j].Value
	})
	var buf [TriplePayloadLen]byte
	for i, c := range sorted {
		buf[2*i] = uint8(c.Suit)
		buf[2*i+1] = c.Value
	}
	return codec.Hash(sha256.Sum256(buf[:]))
}
