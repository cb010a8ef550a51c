package crypto

import (
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// PublicKeySize is the length of a compressed public key.
const PublicKeySize = 33

// Signer signs messages with a private key using Schnorr/secp256k1.
type Signer interface {
	// Sign produces a Schnorr signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// Verifier verifies Schnorr/secp256k1 signatures.
type Verifier interface {
	// Verify checks a Schnorr signature against a hash and compressed public key.
	Verify(hash, signature, publicKey []byte) bool
}

// PrivateKey wraps a secp256k1 private key for Schnorr signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// Sign produces a Schnorr signature over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := schnorr.Sign(pk.key, hash)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// Synthetic returns the synthetic private key for the given hidden puzzle
// hash: sk + offset, where offset = sha256(pk || hidden) mod n. The public
// half matches SyntheticPublicKey(pk, hidden).
func (pk *PrivateKey) Synthetic(hiddenPuzzleHash types.Hash) *PrivateKey {
	offset := syntheticOffset(pk.PublicKey(), hiddenPuzzleHash)
	var sum secp256k1.ModNScalar
	sum.Set(&pk.key.Key).Add(&offset)
	return &PrivateKey{key: secp256k1.NewPrivateKey(&sum)}
}

// SyntheticPublicKey derives the synthetic public key that the standard
// ownership puzzle is curried with: pk + offset*G.
func SyntheticPublicKey(publicKey []byte, hiddenPuzzleHash types.Hash) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	offset := syntheticOffset(publicKey, hiddenPuzzleHash)

	var base, tweak, sum secp256k1.JacobianPoint
	pub.AsJacobian(&base)
	secp256k1.ScalarBaseMultNonConst(&offset, &tweak)
	secp256k1.AddNonConst(&base, &tweak, &sum)
	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil, fmt.Errorf("synthetic key is the point at infinity")
	}
	sum.ToAffine()
	return secp256k1.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed(), nil
}

// ValidatePublicKey checks that b is a valid compressed secp256k1 point.
func ValidatePublicKey(b []byte) error {
	if len(b) != PublicKeySize {
		return fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(b))
	}
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	return nil
}

func syntheticOffset(publicKey []byte, hiddenPuzzleHash types.Hash) secp256k1.ModNScalar {
	digest := Sha256(publicKey, hiddenPuzzleHash[:])
	var offset secp256k1.ModNScalar
	offset.SetByteSlice(digest[:])
	return offset
}

// VerifySignature checks a Schnorr signature against a 32-byte hash
// and a compressed public key. Returns false on any error.
func VerifySignature(hash, signature, publicKey []byte) bool {
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}

// SchnorrVerifier implements the Verifier interface.
type SchnorrVerifier struct{}

// Verify checks a Schnorr signature against a hash and compressed public key.
func (v SchnorrVerifier) Verify(hash, signature, publicKey []byte) bool {
	return VerifySignature(hash, signature, publicKey)
}
