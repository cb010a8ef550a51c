package driver

import (
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// TokenPuzzleHash returns the outer puzzle hash of a token coin of the
// protocol asset whose inner puzzle hashes to innerPuzzleHash.
func TokenPuzzleHash(p config.ProtocolConfig, innerPuzzleHash types.Hash) types.Hash {
	return TokenPuzzleHashForAsset(p, p.AssetID, innerPuzzleHash)
}

// TokenPuzzleHashForAsset is TokenPuzzleHash for an arbitrary asset id.
func TokenPuzzleHashForAsset(p config.ProtocolConfig, assetID, innerPuzzleHash types.Hash) types.Hash {
	return program.CurryTreeHash(p.TokenMod.Hash,
		program.HashAtom(p.TokenMod.Hash[:]),
		program.HashAtom(assetID[:]),
		innerPuzzleHash)
}

// TokenPuzzle wraps inner in the token layer for the protocol asset.
func TokenPuzzle(p config.ProtocolConfig, inner *program.Program) (*program.Program, error) {
	if !p.TokenMod.HasProgram() {
		return nil, fmt.Errorf("token mod: %w", ErrModUnavailable)
	}
	return program.Curry(p.TokenMod.Program,
		program.Bytes32(p.TokenMod.Hash),
		program.Bytes32(p.AssetID),
		inner), nil
}

// ParseToken returns the asset id and inner puzzle of a token-layer
// puzzle. The asset id is returned as found; callers compare it with the
// protocol asset themselves.
func ParseToken(p config.ProtocolConfig, puzzle *program.Program) (assetID types.Hash, inner *program.Program, ok bool) {
	mod, args, ok := program.Uncurry(puzzle)
	if !ok || len(args) != 3 || mod.TreeHash() != p.TokenMod.Hash {
		return types.Hash{}, nil, false
	}
	if !args[0].AtomEquals(p.TokenMod.Hash[:]) {
		return types.Hash{}, nil, false
	}
	assetID, err := args[1].AsHash()
	if err != nil {
		return types.Hash{}, nil, false
	}
	return assetID, args[2], true
}

// TokenSolution is the decoded token-layer solution.
type TokenSolution struct {
	InnerSolution *program.Program
	LineageProof  types.LineageProof
	PrevCoinID    types.Hash
	ThisCoin      types.Coin
	NextCoin      types.Coin // ParentCoinInfo, inner puzzle hash, amount of the next coin in the ring
	PrevSubtotal  int64
	ExtraDelta    int64
}

// Program encodes the solution as
// (inner_solution lineage_proof prev_coin_id this_coin_info next_coin_proof prev_subtotal extra_delta).
func (s TokenSolution) Program() *program.Program {
	return program.List(
		s.InnerSolution,
		lineageProgram(s.LineageProof),
		program.Bytes32(s.PrevCoinID),
		coinProgram(s.ThisCoin),
		coinProgram(s.NextCoin),
		program.SignedInt(s.PrevSubtotal),
		program.SignedInt(s.ExtraDelta),
	)
}

// ParseTokenSolution decodes a token-layer solution.
func ParseTokenSolution(solution *program.Program) (TokenSolution, error) {
	items, err := solution.Items()
	if err != nil || len(items) != 7 {
		return TokenSolution{}, fmt.Errorf("%w: token solution is not a 7-item list", ErrBadSolution)
	}
	s := TokenSolution{InnerSolution: items[0]}
	if s.LineageProof, err = parseLineage(items[1]); err != nil {
		return TokenSolution{}, err
	}
	if s.PrevCoinID, err = items[2].AsHash(); err != nil {
		return TokenSolution{}, fmt.Errorf("%w: prev coin id: %v", ErrBadSolution, err)
	}
	if s.ThisCoin, err = parseCoin(items[3]); err != nil {
		return TokenSolution{}, err
	}
	if s.NextCoin, err = parseCoin(items[4]); err != nil {
		return TokenSolution{}, err
	}
	if s.PrevSubtotal, err = items[5].AsInt64(); err != nil {
		return TokenSolution{}, fmt.Errorf("%w: prev subtotal: %v", ErrBadSolution, err)
	}
	if s.ExtraDelta, err = items[6].AsInt64(); err != nil {
		return TokenSolution{}, fmt.Errorf("%w: extra delta: %v", ErrBadSolution, err)
	}
	return s, nil
}

// TokenSpend is one coin of a token ring before the ring is linked.
type TokenSpend struct {
	Coin          types.Coin
	LineageProof  types.LineageProof
	InnerPuzzle   *program.Program
	InnerSolution *program.Program
}

// SpendTokens links token spends into a ring and returns their coin
// spends in input order. Every coin announces the running subtotal of
// (input - output) before it; the ring must balance to zero.
func SpendTokens(p config.ProtocolConfig, spends []TokenSpend) ([]spend.CoinSpend, error) {
	if len(spends) == 0 {
		return nil, fmt.Errorf("%w: no token spends", ErrBadSolution)
	}

	deltas := make([]int64, len(spends))
	var total int64
	for i, s := range spends {
		if s.Coin.PuzzleHash != TokenPuzzleHash(p, s.InnerPuzzle.TreeHash()) {
			return nil, fmt.Errorf("token input %d: %w", i, ErrPuzzleHashMismatch)
		}
		conds, err := innerConditions(p, s.InnerPuzzle, s.InnerSolution)
		if err != nil {
			return nil, fmt.Errorf("token input %d: %w", i, err)
		}
		out, err := createdAmount(conds)
		if err != nil {
			return nil, fmt.Errorf("token input %d: %w", i, err)
		}
		deltas[i] = int64(s.Coin.Amount) - int64(out)
		total += deltas[i]
	}
	if total != 0 {
		return nil, fmt.Errorf("%w: net delta %d", ErrUnbalanced, total)
	}

	out := make([]spend.CoinSpend, len(spends))
	var subtotal int64
	for i, s := range spends {
		prev := spends[(i+len(spends)-1)%len(spends)]
		next := spends[(i+1)%len(spends)]
		puzzle, err := TokenPuzzle(p, s.InnerPuzzle)
		if err != nil {
			return nil, err
		}
		sol := TokenSolution{
			InnerSolution: s.InnerSolution,
			LineageProof:  s.LineageProof,
			PrevCoinID:    prev.Coin.ID(),
			ThisCoin:      s.Coin,
			NextCoin: types.Coin{
				ParentCoinInfo: next.Coin.ParentCoinInfo,
				PuzzleHash:     next.InnerPuzzle.TreeHash(),
				Amount:         next.Coin.Amount,
			},
			PrevSubtotal: subtotal,
		}
		out[i] = spend.CoinSpend{Coin: s.Coin, PuzzleReveal: puzzle, Solution: sol.Program()}
		subtotal += deltas[i]
	}
	return out, nil
}

// tokenConditions returns the conditions of a token-layer spend: the
// lineage assertion, then the inner conditions with every created puzzle
// hash wrapped in the token layer of the same asset.
func tokenConditions(p config.ProtocolConfig, coin types.Coin, assetID types.Hash, inner, solution *program.Program) ([]spend.Condition, error) {
	sol, err := ParseTokenSolution(solution)
	if err != nil {
		return nil, err
	}
	if sol.ThisCoin != coin {
		return nil, fmt.Errorf("%w: this_coin_info does not match the spent coin", ErrBadSolution)
	}
	conds, err := innerConditions(p, inner, sol.InnerSolution)
	if err != nil {
		return nil, err
	}

	parent := types.Coin{
		ParentCoinInfo: sol.LineageProof.ParentParentCoinInfo,
		PuzzleHash:     TokenPuzzleHashForAsset(p, assetID, sol.LineageProof.ParentInnerPuzzleHash),
		Amount:         sol.LineageProof.ParentAmount,
	}
	out := make([]spend.Condition, 0, len(conds)+1)
	out = append(out, spend.NewAssertMyParentID(parent.ID()))
	for _, c := range conds {
		if c.Opcode == spend.CreateCoin {
			cc, err := c.AsCreateCoin()
			if err != nil {
				return nil, err
			}
			c = c.WithPuzzleHash(TokenPuzzleHashForAsset(p, assetID, cc.PuzzleHash))
		}
		out = append(out, c)
	}
	return out, nil
}

// TokenDelta returns input minus output of a token spend, computed from
// its decoded inner conditions.
func TokenDelta(coin types.Coin, innerConds []spend.Condition) (int64, error) {
	out, err := createdAmount(innerConds)
	if err != nil {
		return 0, err
	}
	return int64(coin.Amount) - int64(out), nil
}

func createdAmount(conds []spend.Condition) (uint64, error) {
	var total uint64
	for _, c := range conds {
		if c.Opcode != spend.CreateCoin {
			continue
		}
		cc, err := c.AsCreateCoin()
		if err != nil {
			return 0, err
		}
		if total+cc.Amount < total {
			return 0, fmt.Errorf("%w: output amount overflow", ErrBadSolution)
		}
		total += cc.Amount
	}
	return total, nil
}

func lineageProgram(lp types.LineageProof) *program.Program {
	return program.List(
		program.Bytes32(lp.ParentParentCoinInfo),
		program.Bytes32(lp.ParentInnerPuzzleHash),
		program.Int(lp.ParentAmount),
	)
}

func parseLineage(p *program.Program) (types.LineageProof, error) {
	items, err := p.Items()
	if err != nil || len(items) != 3 {
		return types.LineageProof{}, fmt.Errorf("%w: lineage proof is not a 3-item list", ErrBadSolution)
	}
	var lp types.LineageProof
	if lp.ParentParentCoinInfo, err = items[0].AsHash(); err != nil {
		return types.LineageProof{}, fmt.Errorf("%w: lineage parent id: %v", ErrBadSolution, err)
	}
	if lp.ParentInnerPuzzleHash, err = items[1].AsHash(); err != nil {
		return types.LineageProof{}, fmt.Errorf("%w: lineage inner puzzle hash: %v", ErrBadSolution, err)
	}
	if lp.ParentAmount, err = items[2].AsUint64(); err != nil {
		return types.LineageProof{}, fmt.Errorf("%w: lineage amount: %v", ErrBadSolution, err)
	}
	return lp, nil
}

func coinProgram(c types.Coin) *program.Program {
	return program.List(program.Bytes32(c.ParentCoinInfo), program.Bytes32(c.PuzzleHash), program.Int(c.Amount))
}

func parseCoin(p *program.Program) (types.Coin, error) {
	items, err := p.Items()
	if err != nil || len(items) != 3 {
		return types.Coin{}, fmt.Errorf("%w: coin info is not a 3-item list", ErrBadSolution)
	}
	var c types.Coin
	if c.ParentCoinInfo, err = items[0].AsHash(); err != nil {
		return types.Coin{}, fmt.Errorf("%w: coin parent: %v", ErrBadSolution, err)
	}
	if c.PuzzleHash, err = items[1].AsHash(); err != nil {
		return types.Coin{}, fmt.Errorf("%w: coin puzzle hash: %v", ErrBadSolution, err)
	}
	if c.Amount, err = items[2].AsUint64(); err != nil {
		return types.Coin{}, fmt.Errorf("%w: coin amount: %v", ErrBadSolution, err)
	}
	return c, nil
}
