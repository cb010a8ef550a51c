// Package morph derives the namespace hints that collateral and mirror
// coins are discoverable under.
package morph

import (
	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/holiman/uint256"
)

// ForCollateral returns sha256(collateral_tag || store_id).
func ForCollateral(p config.ProtocolConfig, storeID types.Hash) types.Hash {
	return crypto.Sha256(p.CollateralTag, storeID[:])
}

// ForMirror returns sha256(mirror_tag || store_id || epoch), with the
// epoch in canonical integer atom encoding. A nil epoch is zero.
func ForMirror(p config.ProtocolConfig, storeID types.Hash, epoch *uint256.Int) types.Hash {
	return crypto.Sha256(p.MirrorTag, storeID[:], program.BigIntBytes(epoch))
}
