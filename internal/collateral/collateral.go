// Package collateral recognizes and builds collateral and mirror coins:
// token coins locked under a store's namespace hint and spendable only by
// the owner that created them.
package collateral

import (
	"context"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/internal/log"
	"github.com/DIG-Network/dig-collateral-coin/internal/morph"
	"github.com/DIG-Network/dig-collateral-coin/internal/tokencoin"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// Errors returned by recognition and spend construction.
var (
	ErrUnknownCoin        = driver.ErrUnknownCoin
	ErrPuzzleHashMismatch = driver.ErrPuzzleHashMismatch
	ErrAssetMismatch      = driver.ErrAssetMismatch
	ErrCoinIsAlreadySpent = driver.ErrCoinIsAlreadySpent
	ErrMalformedMemo      = driver.ErrMalformedMemo
	ErrInsufficientFunds  = driver.ErrInsufficientFunds
	ErrNotOwner           = driver.ErrNotOwner
)

// LockedCoin is a recognized collateral or mirror coin.
type LockedCoin struct {
	Coin       types.Coin         `json:"coin"`
	Proof      types.LineageProof `json:"proof"`
	StoreID    types.Hash         `json:"store_id"`
	Epoch      *uint256.Int       `json:"epoch,omitempty"`
	MirrorURLs []string           `json:"mirror_urls,omitempty"`
}

// IsMirror reports whether the coin is a mirror coin.
func (c *LockedCoin) IsMirror() bool {
	return c.Epoch != nil
}

// Hint returns the namespace hint the coin is locked under.
func (c *LockedCoin) Hint(p config.ProtocolConfig) types.Hash {
	if c.IsMirror() {
		return morph.ForMirror(p, c.StoreID, c.Epoch)
	}
	return morph.ForCollateral(p, c.StoreID)
}

// Manager recognizes and builds the locked coins of one store.
type Manager struct {
	storeID  types.Hash
	protocol config.ProtocolConfig
	peer     ledger.Lookup
	logger   zerolog.Logger
}

// NewManager returns a Manager for storeID. peer is only used by
// recognition; spend construction never touches the network.
func NewManager(storeID types.Hash, p config.ProtocolConfig, peer ledger.Lookup) *Manager {
	return &Manager{
		storeID:  storeID,
		protocol: p,
		peer:     peer,
		logger:   log.WithStoreID(log.Collateral, storeID.String()),
	}
}

// StoreID returns the store the manager is bound to.
func (m *Manager) StoreID() types.Hash {
	return m.storeID
}

// LockingPuzzleHash returns the puzzle hash a coin locked under hint by
// ownerInnerPuzzleHash has.
func LockingPuzzleHash(p config.ProtocolConfig, hint, ownerInnerPuzzleHash types.Hash) types.Hash {
	return driver.LockingPuzzleHash(p, hint, ownerInnerPuzzleHash)
}

// ProveFromCoinState checks that cs is an unspent collateral or mirror
// coin of the manager's store and extracts its metadata.
//
// The coin's creating CREATE_COIN carries the memos. Mirror coins carry
// their epoch in the second memo; it is decoded before the hint is
// checked so that any epoch can be recognized.
func (m *Manager) ProveFromCoinState(ctx context.Context, cs types.CoinState) (*LockedCoin, error) {
	p := m.protocol
	if cs.IsSpent() {
		return nil, fmt.Errorf("%w: %s", ErrCoinIsAlreadySpent, cs.Coin.ID())
	}

	parent, err := tokencoin.ParentSpend(ctx, p, m.peer, cs.Coin)
	if err != nil {
		return nil, err
	}
	if parent.AssetID != p.AssetID {
		return nil, fmt.Errorf("%w: parent asset %s", ErrAssetMismatch, parent.AssetID)
	}
	created, ok := parent.FindCreateCoin(p, cs.Coin)
	if !ok {
		return nil, fmt.Errorf("%w: parent did not create %s", ErrPuzzleHashMismatch, cs.Coin.ID())
	}

	memos, err := DecodeMemos(created.Memos)
	if err != nil {
		return nil, err
	}
	var hint types.Hash
	if memos.Epoch == nil {
		hint = morph.ForCollateral(p, m.storeID)
	} else {
		hint = morph.ForMirror(p, m.storeID, memos.Epoch)
	}
	if memos.Hint != hint {
		return nil, fmt.Errorf("%w: hint %s is not derived from store %s", ErrPuzzleHashMismatch, memos.Hint, m.storeID)
	}

	owner := parent.InnerPuzzleHash()
	if want := driver.LockingPuzzleHash(p, hint, owner); want != cs.Coin.PuzzleHash {
		return nil, fmt.Errorf("%w: coin %s, expected %s", ErrPuzzleHashMismatch, cs.Coin.PuzzleHash, want)
	}

	return &LockedCoin{
		Coin:       cs.Coin,
		Proof:      parent.LineageProof(),
		StoreID:    m.storeID,
		Epoch:      memos.Epoch,
		MirrorURLs: memos.URLs,
	}, nil
}

// FetchCollateral returns the store's unspent collateral coins.
func (m *Manager) FetchCollateral(ctx context.Context) ([]*LockedCoin, error) {
	return m.fetch(ctx, morph.ForCollateral(m.protocol, m.storeID))
}

// FetchMirrors returns the store's unspent mirror coins for epoch.
func (m *Manager) FetchMirrors(ctx context.Context, epoch *uint256.Int) ([]*LockedCoin, error) {
	return m.fetch(ctx, morph.ForMirror(m.protocol, m.storeID, epoch))
}

func (m *Manager) fetch(ctx context.Context, hint types.Hash) ([]*LockedCoin, error) {
	states, err := m.peer.CoinStatesByHint(ctx, hint)
	if err != nil {
		return nil, fmt.Errorf("lookup by hint: %w", err)
	}
	var out []*LockedCoin
	for _, cs := range states {
		if cs.IsSpent() {
			continue
		}
		lc, err := m.ProveFromCoinState(ctx, cs)
		if err != nil {
			if tokencoin.IsRecognitionError(err) {
				m.logger.Debug().
					Err(err).
					Str("coin", cs.Coin.ID().String()).
					Msg("Skipping unrecognized coin")
				continue
			}
			return nil, err
		}
		out = append(out, lc)
	}
	return out, nil
}
