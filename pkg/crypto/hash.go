// Package crypto provides the hash functions and key primitives used by
// the coin drivers.
//
// Two hash functions are in play. Sha256 is the protocol hash: puzzle tree
// hashes, coin ids and namespace hints must match other implementations
// bit for bit. Hash (BLAKE3) is local to this module and digests signing
// messages down to the 32 bytes a Schnorr signature covers.
package crypto

import (
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// Sha256 computes the SHA-256 hash of the concatenation of parts.
func Sha256(parts ...[]byte) types.Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}
