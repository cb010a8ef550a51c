package program

import (
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Tree hash prefixes.
const (
	atomPrefix = 0x01
	pairPrefix = 0x02
)

// HashAtom returns the tree hash of an atom: sha256(0x01 || atom).
func HashAtom(atom []byte) types.Hash {
	return crypto.Sha256([]byte{atomPrefix}, atom)
}

// HashPair returns the tree hash of a pair: sha256(0x02 || left || right).
func HashPair(left, right types.Hash) types.Hash {
	return crypto.Sha256([]byte{pairPrefix}, left[:], right[:])
}

// HashList returns the tree hash of a proper list whose elements have
// the given tree hashes.
func HashList(items ...types.Hash) types.Hash {
	out := HashAtom(nil)
	for i := len(items) - 1; i >= 0; i-- {
		out = HashPair(items[i], out)
	}
	return out
}
