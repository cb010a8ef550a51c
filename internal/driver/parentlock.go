package driver

import (
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// ParentLockPuzzleHash returns the inner puzzle hash of a coin locked to
// a namespace hint and spendable only by the owner inner puzzle.
func ParentLockPuzzleHash(p config.ProtocolConfig, hint, ownerInnerPuzzleHash types.Hash) types.Hash {
	return program.CurryTreeHash(p.ParentLockMod.Hash,
		program.HashAtom(hint[:]),
		program.HashAtom(ownerInnerPuzzleHash[:]))
}

// LockingPuzzleHash returns the full puzzle hash of a collateral or mirror
// coin: the parent-lock layer wrapped in the token layer.
func LockingPuzzleHash(p config.ProtocolConfig, hint, ownerInnerPuzzleHash types.Hash) types.Hash {
	return TokenPuzzleHash(p, ParentLockPuzzleHash(p, hint, ownerInnerPuzzleHash))
}

// ParentLockPuzzle returns the parent-lock puzzle for hint and owner.
func ParentLockPuzzle(p config.ProtocolConfig, hint, ownerInnerPuzzleHash types.Hash) (*program.Program, error) {
	if !p.ParentLockMod.HasProgram() {
		return nil, fmt.Errorf("parent lock mod: %w", ErrModUnavailable)
	}
	return program.Curry(p.ParentLockMod.Program,
		program.Bytes32(hint),
		program.Bytes32(ownerInnerPuzzleHash)), nil
}

// ParentLockSolution returns
// (parent_parent_id parent_amount owner_inner_puzzle owner_inner_solution).
// The parent fields come from the locked coin's lineage proof.
func ParentLockSolution(proof types.LineageProof, ownerPuzzle, ownerSolution *program.Program) *program.Program {
	return program.List(
		program.Bytes32(proof.ParentParentCoinInfo),
		program.Int(proof.ParentAmount),
		ownerPuzzle,
		ownerSolution,
	)
}

// ParseParentLock returns the hint and owner inner puzzle hash curried
// into a parent-lock puzzle.
func ParseParentLock(p config.ProtocolConfig, puzzle *program.Program) (hint, owner types.Hash, ok bool) {
	mod, args, ok := program.Uncurry(puzzle)
	if !ok || len(args) != 2 || mod.TreeHash() != p.ParentLockMod.Hash {
		return types.Hash{}, types.Hash{}, false
	}
	var err error
	if hint, err = args[0].AsHash(); err != nil {
		return types.Hash{}, types.Hash{}, false
	}
	if owner, err = args[1].AsHash(); err != nil {
		return types.Hash{}, types.Hash{}, false
	}
	return hint, owner, true
}

// parentLockConditions checks the revealed owner puzzle against the
// curried owner hash, asserts the coin's parent was a token coin owned
// by that owner, and passes the owner's conditions through.
func parentLockConditions(p config.ProtocolConfig, owner types.Hash, solution *program.Program) ([]spend.Condition, error) {
	items, err := solution.Items()
	if err != nil || len(items) != 4 {
		return nil, fmt.Errorf("%w: parent lock solution is not a 4-item list", ErrBadSolution)
	}
	parentParent, err := items[0].AsHash()
	if err != nil {
		return nil, fmt.Errorf("%w: parent parent id: %v", ErrBadSolution, err)
	}
	parentAmount, err := items[1].AsUint64()
	if err != nil {
		return nil, fmt.Errorf("%w: parent amount: %v", ErrBadSolution, err)
	}
	ownerPuzzle, ownerSolution := items[2], items[3]
	if ownerPuzzle.TreeHash() != owner {
		return nil, fmt.Errorf("%w: owner puzzle does not match locked owner", ErrPuzzleHashMismatch)
	}

	conds, err := innerConditions(p, ownerPuzzle, ownerSolution)
	if err != nil {
		return nil, err
	}
	parent := types.Coin{
		ParentCoinInfo: parentParent,
		PuzzleHash:     TokenPuzzleHash(p, owner),
		Amount:         parentAmount,
	}
	return append([]spend.Condition{spend.NewAssertMyParentID(parent.ID())}, conds...), nil
}
