package types

import (
	"fmt"

	"github.com/minio/sha256-simd"
)

// Coin is an immutable ledger output. A spend consumes it and creates new
// coins; coins are never mutated.
type Coin struct {
	ParentCoinInfo Hash   `json:"parent_coin_info"`
	PuzzleHash     Hash   `json:"puzzle_hash"`
	Amount         uint64 `json:"amount"`
}

// ID returns the coin identifier:
// sha256(parent_coin_info || puzzle_hash || atom(amount)).
func (c Coin) ID() Hash {
	h := sha256.New()
	h.Write(c.ParentCoinInfo[:])
	h.Write(c.PuzzleHash[:])
	h.Write(UintBytes(c.Amount))
	var id Hash
	copy(id[:], h.Sum(nil))
	return id
}

// String returns a short human-readable description of the coin.
func (c Coin) String() string {
	return fmt.Sprintf("coin(%s amount=%d)", c.ID(), c.Amount)
}

// CoinState is a coin as reported by the network: the coin itself plus
// the heights it was created and spent at. A nil SpentHeight means the
// coin is unspent.
type CoinState struct {
	Coin          Coin    `json:"coin"`
	CreatedHeight *uint32 `json:"created_height,omitempty"`
	SpentHeight   *uint32 `json:"spent_height,omitempty"`
}

// IsSpent reports whether the coin has been spent.
func (s CoinState) IsSpent() bool {
	return s.SpentHeight != nil
}

// LineageProof links a coin to its parent's structure without replaying
// chain history: the parent's own parent id, the parent's inner puzzle
// hash and the parent's amount.
type LineageProof struct {
	ParentParentCoinInfo  Hash   `json:"parent_parent_coin_info"`
	ParentInnerPuzzleHash Hash   `json:"parent_inner_puzzle_hash"`
	ParentAmount          uint64 `json:"parent_amount"`
}

// SumAmounts returns the total amount of coins, or an error on overflow.
func SumAmounts(coins []Coin) (uint64, error) {
	var total uint64
	for _, c := range coins {
		if total+c.Amount < total {
			return 0, fmt.Errorf("coin amount overflow")
		}
		total += c.Amount
	}
	return total, nil
}
