// Package ledger defines what the wallet core needs from the network: coin
// lookups, parent spend retrieval, fee estimation and broadcast.
package ledger

import (
	"context"
	"errors"

	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Peer errors.
var (
	ErrCoinNotFound = errors.New("coin not found")
	ErrCoinUnspent  = errors.New("coin has not been spent")
	ErrRejected     = errors.New("spend bundle rejected")
)

// Lookup is the read side of a peer.
type Lookup interface {
	// CoinStateByID returns the state of a coin, or ErrCoinNotFound.
	CoinStateByID(ctx context.Context, id types.Hash) (*types.CoinState, error)

	// CoinStatesByHint returns every coin created with the given hint as
	// its first memo. Spent coins are included.
	CoinStatesByHint(ctx context.Context, hint types.Hash) ([]types.CoinState, error)

	// PuzzleAndSolution returns the spend that consumed a coin. It
	// returns ErrCoinNotFound for unknown coins and ErrCoinUnspent for
	// coins that are still unspent.
	PuzzleAndSolution(ctx context.Context, coinID types.Hash) (*spend.CoinSpend, error)
}

// Peer is a full network peer.
type Peer interface {
	Lookup

	// EstimateFee returns the fee expected to get a transaction included
	// within targetSeconds.
	EstimateFee(ctx context.Context, targetSeconds uint64) (uint64, error)

	// Broadcast submits a signed bundle and returns its id.
	Broadcast(ctx context.Context, bundle *spend.SpendBundle) (types.Hash, error)
}
