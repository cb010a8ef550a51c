package driver

import (
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Conditions returns the conditions a coin spend outputs as the ledger
// sees them. The puzzle reveal must hash to the coin's puzzle hash.
func Conditions(p config.ProtocolConfig, cs spend.CoinSpend) ([]spend.Condition, error) {
	if cs.PuzzleReveal.TreeHash() != cs.Coin.PuzzleHash {
		return nil, fmt.Errorf("%w: puzzle reveal of %s", ErrPuzzleHashMismatch, cs.Coin.ID())
	}
	if assetID, inner, ok := ParseToken(p, cs.PuzzleReveal); ok {
		return tokenConditions(p, cs.Coin, assetID, inner, cs.Solution)
	}
	return InnerConditions(p, cs.PuzzleReveal, cs.Solution)
}

// InnerConditions returns the conditions of a standard or parent-lock
// puzzle, as seen by the layer wrapping it.
func InnerConditions(p config.ProtocolConfig, puzzle, solution *program.Program) ([]spend.Condition, error) {
	return innerConditions(p, puzzle, solution)
}

func innerConditions(p config.ProtocolConfig, puzzle, solution *program.Program) ([]spend.Condition, error) {
	if key, ok := ParseStandard(p, puzzle); ok {
		return standardConditions(key, solution)
	}
	if _, owner, ok := ParseParentLock(p, puzzle); ok {
		return parentLockConditions(p, owner, solution)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPuzzle, puzzle.TreeHash())
}

// Addition is a coin created by a spend together with the memos attached
// to its CREATE_COIN.
type Addition struct {
	Coin  types.Coin
	Memos [][]byte
}

// Hint returns the first memo when it is a 32-byte value.
func (a Addition) Hint() (types.Hash, bool) {
	if len(a.Memos) == 0 {
		return types.Hash{}, false
	}
	h, err := types.BytesToHash(a.Memos[0])
	return h, err == nil
}

// Additions returns the coins created by a coin spend.
func Additions(p config.ProtocolConfig, cs spend.CoinSpend) ([]Addition, error) {
	conds, err := Conditions(p, cs)
	if err != nil {
		return nil, err
	}
	parent := cs.Coin.ID()
	var out []Addition
	for _, c := range conds {
		if c.Opcode != spend.CreateCoin {
			continue
		}
		cc, err := c.AsCreateCoin()
		if err != nil {
			return nil, err
		}
		out = append(out, Addition{
			Coin:  types.Coin{ParentCoinInfo: parent, PuzzleHash: cc.PuzzleHash, Amount: cc.Amount},
			Memos: cc.Memos,
		})
	}
	return out, nil
}

// ParsedTokenSpend is a token-layer coin spend taken apart.
type ParsedTokenSpend struct {
	AssetID         types.Hash
	InnerPuzzle     *program.Program
	Solution        TokenSolution
	InnerConditions []spend.Condition // unwrapped, as output by the inner puzzle
}

// InnerPuzzleHash returns the tree hash of the inner puzzle.
func (s *ParsedTokenSpend) InnerPuzzleHash() types.Hash {
	return s.InnerPuzzle.TreeHash()
}

// ParseTokenSpend takes apart a token-layer coin spend. It returns
// ErrPuzzleHashMismatch if the reveal does not match the coin and
// ErrUnknownPuzzle if the outer layer is not the token layer.
func ParseTokenSpend(p config.ProtocolConfig, cs spend.CoinSpend) (*ParsedTokenSpend, error) {
	if cs.PuzzleReveal.TreeHash() != cs.Coin.PuzzleHash {
		return nil, fmt.Errorf("%w: puzzle reveal of %s", ErrPuzzleHashMismatch, cs.Coin.ID())
	}
	assetID, inner, ok := ParseToken(p, cs.PuzzleReveal)
	if !ok {
		return nil, fmt.Errorf("%w: not a token-layer puzzle", ErrUnknownPuzzle)
	}
	sol, err := ParseTokenSolution(cs.Solution)
	if err != nil {
		return nil, err
	}
	conds, err := innerConditions(p, inner, sol.InnerSolution)
	if err != nil {
		return nil, err
	}
	return &ParsedTokenSpend{
		AssetID:         assetID,
		InnerPuzzle:     inner,
		Solution:        sol,
		InnerConditions: conds,
	}, nil
}

// FindCreateCoin returns the inner CREATE_COIN of a token spend that
// created child: its wrapped puzzle hash and amount must match.
func (s *ParsedTokenSpend) FindCreateCoin(p config.ProtocolConfig, child types.Coin) (spend.CreateCoinArgs, bool) {
	for _, c := range s.InnerConditions {
		if c.Opcode != spend.CreateCoin {
			continue
		}
		cc, err := c.AsCreateCoin()
		if err != nil {
			continue
		}
		if cc.Amount == child.Amount && TokenPuzzleHashForAsset(p, s.AssetID, cc.PuzzleHash) == child.PuzzleHash {
			return cc, true
		}
	}
	return spend.CreateCoinArgs{}, false
}
