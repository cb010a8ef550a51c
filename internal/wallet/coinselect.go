package wallet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/tokencoin"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = driver.ErrInsufficientFunds
	ErrNoCoins           = errors.New("no coins available")
)

// Selection holds the result of coin selection.
type Selection[T any] struct {
	Inputs []T    // Selected coins to spend.
	Total  uint64 // Sum of selected input amounts.
	Change uint64 // Change = Total - target.
}

// SelectCoins chooses native coins to cover target, for fee inputs.
func SelectCoins(coins []types.Coin, target uint64) (*Selection[types.Coin], error) {
	return selectBy(coins, func(c types.Coin) uint64 { return c.Amount }, target)
}

// SelectTokens chooses token coins to cover target, for lock inputs.
func SelectTokens(tokens []*tokencoin.TokenCoin, target uint64) (*Selection[*tokencoin.TokenCoin], error) {
	return selectBy(tokens, func(t *tokencoin.TokenCoin) uint64 { return t.Coin.Amount }, target)
}

// selectBy tries two strategies:
//  1. Single coin: finds the smallest single coin that covers the target (minimizes inputs).
//  2. Largest-first accumulation: greedily adds the largest coins until the target is met.
//
// Returns the strategy that produces the least change (waste).
func selectBy[T any](items []T, amount func(T) uint64, target uint64) (*Selection[T], error) {
	if len(items) == 0 {
		return nil, ErrNoCoins
	}
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	// Filter out zero-amount coins and sort by amount ascending.
	candidates := make([]T, 0, len(items))
	for _, it := range items {
		if amount(it) > 0 {
			candidates = append(candidates, it)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoCoins
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return amount(candidates[i]) < amount(candidates[j])
	})

	// Strategy 1: Single coin, the smallest one that covers the target.
	var single *Selection[T]
	for _, c := range candidates {
		if v := amount(c); v >= target {
			single = &Selection[T]{
				Inputs: []T{c},
				Total:  v,
				Change: v - target,
			}
			break // Already sorted ascending, first match is smallest.
		}
	}

	// Strategy 2: Largest-first accumulation.
	var accum *Selection[T]
	var selected []T
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		v := amount(candidates[i])
		if total+v < total {
			break
		}
		selected = append(selected, candidates[i])
		total += v
		if total >= target {
			accum = &Selection[T]{
				Inputs: selected,
				Total:  total,
				Change: total - target,
			}
			break
		}
	}

	// Pick the best result.
	switch {
	case single != nil && accum != nil:
		// Prefer whichever produces less change (less waste).
		if single.Change <= accum.Change {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, target)
	}
}
