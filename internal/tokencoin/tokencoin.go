// Package tokencoin recognizes coins of the protocol's restricted token by
// checking the spend that created them.
package tokencoin

import (
	"context"
	"errors"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/internal/log"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Recognition errors.
var (
	ErrUnknownCoin        = driver.ErrUnknownCoin
	ErrPuzzleHashMismatch = driver.ErrPuzzleHashMismatch
	ErrAssetMismatch      = driver.ErrAssetMismatch
)

// TokenCoin is a proven coin of the protocol asset.
type TokenCoin struct {
	Coin            types.Coin         `json:"coin"`
	LineageProof    types.LineageProof `json:"lineage_proof"`
	InnerPuzzleHash types.Hash         `json:"inner_puzzle_hash"`
	AssetID         types.Hash         `json:"asset_id"`
}

// PuzzleHashFor returns the puzzle hash of a token coin owned by
// innerPuzzleHash.
func PuzzleHashFor(p config.ProtocolConfig, innerPuzzleHash types.Hash) types.Hash {
	return driver.TokenPuzzleHash(p, innerPuzzleHash)
}

// Prover proves coins against the ledger.
type Prover struct {
	protocol config.ProtocolConfig
	peer     ledger.Lookup
}

// NewProver returns a Prover for the given protocol and peer.
func NewProver(p config.ProtocolConfig, peer ledger.Lookup) *Prover {
	return &Prover{protocol: p, peer: peer}
}

// ProveFromCoinState proves that cs is a coin of the protocol asset. The
// parent must be a token-layer coin of the same asset whose reveal
// matches its puzzle hash and whose spend created exactly this coin.
func (pr *Prover) ProveFromCoinState(ctx context.Context, cs types.CoinState) (*TokenCoin, error) {
	parent, err := ParentSpend(ctx, pr.protocol, pr.peer, cs.Coin)
	if err != nil {
		return nil, err
	}
	if parent.AssetID != pr.protocol.AssetID {
		return nil, fmt.Errorf("%w: parent asset %s", ErrAssetMismatch, parent.AssetID)
	}
	created, ok := parent.FindCreateCoin(pr.protocol, cs.Coin)
	if !ok {
		return nil, fmt.Errorf("%w: parent did not create %s", ErrPuzzleHashMismatch, cs.Coin.ID())
	}

	return &TokenCoin{
		Coin:            cs.Coin,
		LineageProof:    parent.LineageProof(),
		InnerPuzzleHash: created.PuzzleHash,
		AssetID:         parent.AssetID,
	}, nil
}

// FetchOwned returns the unspent token coins hinted to an owner's inner
// puzzle hash. Coins that fail to prove are skipped.
func (pr *Prover) FetchOwned(ctx context.Context, innerPuzzleHash types.Hash) ([]*TokenCoin, error) {
	states, err := pr.peer.CoinStatesByHint(ctx, innerPuzzleHash)
	if err != nil {
		return nil, fmt.Errorf("lookup by hint: %w", err)
	}
	var out []*TokenCoin
	for _, cs := range states {
		if cs.IsSpent() {
			continue
		}
		tc, err := pr.ProveFromCoinState(ctx, cs)
		if err != nil {
			if IsRecognitionError(err) {
				log.Token.Debug().Err(err).Str("coin", cs.Coin.ID().String()).Msg("Skipping unproven coin")
				continue
			}
			return nil, err
		}
		if tc.InnerPuzzleHash != innerPuzzleHash {
			continue
		}
		out = append(out, tc)
	}
	return out, nil
}

// Parent is the parsed token-layer spend that created a coin.
type Parent struct {
	*driver.ParsedTokenSpend
	Coin types.Coin
}

// LineageProof returns the lineage proof that children of this parent
// carry.
func (p *Parent) LineageProof() types.LineageProof {
	return types.LineageProof{
		ParentParentCoinInfo:  p.Coin.ParentCoinInfo,
		ParentInnerPuzzleHash: p.InnerPuzzleHash(),
		ParentAmount:          p.Coin.Amount,
	}
}

// ParentSpend looks up and parses the token-layer spend that created
// child. A parent that cannot be found, or has not been spent, is
// ErrUnknownCoin; a reveal that does not match the parent's puzzle hash,
// or a parent outside the token layer, is ErrPuzzleHashMismatch.
func ParentSpend(ctx context.Context, p config.ProtocolConfig, peer ledger.Lookup, child types.Coin) (*Parent, error) {
	parentID := child.ParentCoinInfo
	state, err := peer.CoinStateByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, ledger.ErrCoinNotFound) {
			return nil, fmt.Errorf("%w: parent %s", ErrUnknownCoin, parentID)
		}
		return nil, fmt.Errorf("lookup parent: %w", err)
	}
	cs, err := peer.PuzzleAndSolution(ctx, parentID)
	if err != nil {
		if errors.Is(err, ledger.ErrCoinNotFound) || errors.Is(err, ledger.ErrCoinUnspent) {
			return nil, fmt.Errorf("%w: parent spend %s: %v", ErrUnknownCoin, parentID, err)
		}
		return nil, fmt.Errorf("lookup parent spend: %w", err)
	}
	// Recognition trusts the peer's coin state, not the reveal's coin.
	reveal := spend.CoinSpend{Coin: state.Coin, PuzzleReveal: cs.PuzzleReveal, Solution: cs.Solution}

	parsed, err := driver.ParseTokenSpend(p, reveal)
	if err != nil {
		if errors.Is(err, driver.ErrUnknownPuzzle) || errors.Is(err, driver.ErrBadSolution) {
			return nil, fmt.Errorf("%w: parent is not a token spend: %v", ErrPuzzleHashMismatch, err)
		}
		return nil, err
	}
	return &Parent{ParsedTokenSpend: parsed, Coin: state.Coin}, nil
}

// IsRecognitionError reports whether err says a coin is not what it was
// checked for, as opposed to a network failure.
func IsRecognitionError(err error) bool {
	return errors.Is(err, driver.ErrUnknownCoin) ||
		errors.Is(err, driver.ErrPuzzleHashMismatch) ||
		errors.Is(err, driver.ErrAssetMismatch) ||
		errors.Is(err, driver.ErrCoinIsAlreadySpent) ||
		errors.Is(err, driver.ErrMalformedMemo)
}
