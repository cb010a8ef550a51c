// Package recognize classifies a coin as a locked coin of a store, a
// token coin, or neither.
package recognize

import (
	"context"

	"github.com/DIG-Network/dig-collateral-coin/internal/collateral"
	"github.com/DIG-Network/dig-collateral-coin/internal/tokencoin"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Kind is the outcome of classification.
type Kind int

// Classification outcomes.
const (
	KindUnrecognized Kind = iota
	KindLockedCoin
	KindTokenCoin
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLockedCoin:
		return "locked"
	case KindTokenCoin:
		return "token"
	default:
		return "unrecognized"
	}
}

// Result is a closed variant: exactly one of LockedCoin and TokenCoin is
// set for the matching Kind, and Reason is set for KindUnrecognized.
type Result struct {
	Kind       Kind
	LockedCoin *collateral.LockedCoin
	TokenCoin  *tokencoin.TokenCoin
	Reason     error
}

// Classifier tries each recognizer in priority order.
type Classifier struct {
	manager *collateral.Manager
	prover  *tokencoin.Prover
}

// New returns a Classifier. Either recognizer may be nil to skip it.
func New(manager *collateral.Manager, prover *tokencoin.Prover) *Classifier {
	return &Classifier{manager: manager, prover: prover}
}

// Classify tries the locked-coin recognizer, then the token recognizer.
// A coin that neither accepts is KindUnrecognized with the last
// rejection as reason. Network failures are returned as errors.
func (c *Classifier) Classify(ctx context.Context, cs types.CoinState) (Result, error) {
	var reason error
	if c.manager != nil {
		lc, err := c.manager.ProveFromCoinState(ctx, cs)
		if err == nil {
			return Result{Kind: KindLockedCoin, LockedCoin: lc}, nil
		}
		if !tokencoin.IsRecognitionError(err) {
			return Result{}, err
		}
		reason = err
	}
	if c.prover != nil {
		tc, err := c.prover.ProveFromCoinState(ctx, cs)
		if err == nil {
			return Result{Kind: KindTokenCoin, TokenCoin: tc}, nil
		}
		if !tokencoin.IsRecognitionError(err) {
			return Result{}, err
		}
		reason = err
	}
	return Result{Kind: KindUnrecognized, Reason: reason}, nil
}
