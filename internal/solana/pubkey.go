package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PubkeyLength is the size of a decoded Solana public key.
const PubkeyLength = 32

// ErrInvalidPubkey is returned when a string is not a base58 encoded 32-byte key.
var ErrInvalidPubkey = errors.New("invalid public key")

// ParsePubkey decodes a base58 public key and checks its length.
func ParsePubkey(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPubkey)
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPubkey, err)
	}
	if len(decoded) != PubkeyLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidPubkey, len(decoded))
	}
	return decoded, nil
}

// IsOnCurve reports whether a 32-byte key is a valid ed25519 point.
func IsOnCurve(key []byte) bool {
	if len(key) != PubkeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(key)
	return err == nil
}

// IsProgramDerived reports whether the address is a program-derived address (off curve).
// Unparseable addresses are not PDAs.
func IsProgramDerived(address string) bool {
	key, err := ParsePubkey(address)
	if err != nil {
		return false
	}
	return !IsOnCurve(key)
}
