package driver

import (
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// StandardPuzzleHash returns the owner puzzle hash for a synthetic public
// key. This is the "inner puzzle hash" that identifies an owner.
func StandardPuzzleHash(p config.ProtocolConfig, syntheticKey []byte) types.Hash {
	return program.CurryTreeHash(p.StandardMod.Hash, program.HashAtom(syntheticKey))
}

// StandardPuzzle returns the owner puzzle for a synthetic public key.
func StandardPuzzle(p config.ProtocolConfig, syntheticKey []byte) (*program.Program, error) {
	if !p.StandardMod.HasProgram() {
		return nil, fmt.Errorf("standard mod: %w", ErrModUnavailable)
	}
	return program.Curry(p.StandardMod.Program, program.Atom(syntheticKey)), nil
}

// StandardSolution returns the solution that makes the standard puzzle
// output conds: (() (q . conds) ()).
func StandardSolution(conds []spend.Condition) *program.Program {
	return program.List(program.Nil(), program.Quote(spend.ConditionsProgram(conds)), program.Nil())
}

// ParseStandard returns the synthetic key curried into a standard puzzle.
func ParseStandard(p config.ProtocolConfig, puzzle *program.Program) ([]byte, bool) {
	mod, args, ok := program.Uncurry(puzzle)
	if !ok || len(args) != 1 || mod.TreeHash() != p.StandardMod.Hash {
		return nil, false
	}
	key, err := args[0].AtomBytes()
	if err != nil || len(key) != crypto.PublicKeySize {
		return nil, false
	}
	return key, true
}

// standardConditions returns the conditions a standard puzzle outputs for
// a solution: AGG_SIG_ME over the delegated puzzle hash, followed by the
// delegated conditions.
func standardConditions(key []byte, solution *program.Program) ([]spend.Condition, error) {
	items, err := solution.Items()
	if err != nil || len(items) != 3 {
		return nil, fmt.Errorf("%w: standard solution is not a 3-item list", ErrBadSolution)
	}
	delegated := items[1]
	quote, err := delegated.First()
	if err != nil || !quote.AtomEquals([]byte{0x01}) {
		return nil, fmt.Errorf("%w: delegated puzzle is not quoted conditions", ErrBadSolution)
	}
	body, _ := delegated.Rest()
	conds, err := spend.ParseConditions(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSolution, err)
	}
	msg := delegated.TreeHash()
	out := make([]spend.Condition, 0, len(conds)+1)
	out = append(out, spend.NewAggSigMe(key, msg[:]))
	return append(out, conds...), nil
}
