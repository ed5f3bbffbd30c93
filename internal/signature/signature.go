// Package signature recovers an Ethereum-style 20-byte address from a
// 65-byte recoverable secp256k1 signature over a message, and signs
// messages with a private key for use by test fixtures and the CLI smoke
// harness.
package signature

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// Errors returned by Recover, matching the taxonomy of spec.md §4.C.
var (
	ErrBadSignatureLength = errors.New("signature: must be exactly 65 bytes")
	ErrUnrecoverable      = errors.New("signature: could not recover public key")
	ErrBadPublicKey       = errors.New("signature: recovered public key is invalid")
)

// Address is a 20-byte identity derived from a 33-byte compressed secp256k1
// public key, per spec.md §3.
type Address [20]byte

// String renders the address as a lowercase 0x-prefixed hex string.
func (a Address) String() string {
	return fmt.Sprintf("0x%x", [20]byte(a))
}

// ParseAddress parses a String-formatted (with or without 0x prefix)
// 20-byte address, used to load allow/deny gate configuration.
func ParseAddress(s string) (Address, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != 20 {
		return Address{}, ErrBadPublicKey
	}
	var addr Address
	copy(addr[:], raw)
	return addr, nil
}

// SignupMessage is the fixed byte string signed to prove key possession
// during publisher signup (spec.md §4.C).
var SignupMessage = []byte(".ipfs-registry")

// Keccak256 hashes data with the legacy (pre-NIST) Keccak-256 permutation,
// matching Ethereum's hash function rather than the standardized SHA3-256.
func Keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// AddressFromCompressedPubKey derives an Address from a 33-byte compressed
// secp256k1 public key: the last 20 bytes of its Keccak-256 digest.
func AddressFromCompressedPubKey(pub []byte) (Address, error) {
	if len(pub) != 33 {
		return Address{}, ErrBadPublicKey
	}
	digest := Keccak256(pub)
	var addr Address
	copy(addr[:], digest[12:])
	return addr, nil
}

// Recover recovers the Address of the signer of message given a 65-byte
// recoverable signature laid out as {r(32), s(32), recovery_id(1)}.
func Recover(sig [65]byte, message []byte) (Address, error) {
	r := sig[0:32]
	s := sig[32:64]
	recID := sig[64]
	if recID > 3 {
		return Address{}, ErrBadSignatureLength
	}

	// decred's compact-signature format places a recovery code first,
	// encoding both the recovery id and whether the recovered key should be
	// serialized compressed: 27 + recID (+4 for compressed).
	compact := make([]byte, 65)
	compact[0] = 27 + recID + 4
	copy(compact[1:33], r)
	copy(compact[33:65], s)

	hash := Keccak256(message)
	pub, wasCompressed, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return Address{}, ErrUnrecoverable
	}
	if !wasCompressed {
		return Address{}, ErrBadPublicKey
	}

	return AddressFromCompressedPubKey(pub.SerializeCompressed())
}

// SignRecoverable signs message with priv and returns the 65-byte
// recoverable signature {r(32), s(32), recovery_id(1)}. It exists for test
// fixtures and the CLI smoke harness (spec.md's real keystore/signing
// pipeline is out of scope; this is a minimal in-process signer only).
func SignRecoverable(priv *secp256k1.PrivateKey, message []byte) ([65]byte, error) {
	hash := Keccak256(message)
	compact := ecdsa.SignCompact(priv, hash[:], true)
	if len(compact) != 65 {
		return [65]byte{}, ErrUnrecoverable
	}

	var out [65]byte
	copy(out[0:32], compact[1:33])
	copy(out[32:64], compact[33:65])
	out[64] = (compact[0] - 27) &^ 4
	return out, nil
}
