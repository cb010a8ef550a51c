package program

import "github.com/DIG-Network/dig-collateral-coin/pkg/types"

// Operator atoms used by curried puzzles.
var (
	opQuote = &Program{atom: []byte{0x01}}
	opApply = &Program{atom: []byte{0x02}}
	opCons  = &Program{atom: []byte{0x04}}
	envRoot = &Program{atom: []byte{0x01}}
)

// Curry binds args to mod, producing (a (q . mod) (c (q . arg0) (c (q . arg1) ... 1))).
func Curry(mod *Program, args ...*Program) *Program {
	env := envRoot
	for i := len(args) - 1; i >= 0; i-- {
		env = List(opCons, Quote(args[i]), env)
	}
	return List(opApply, Quote(mod), env)
}

// Uncurry splits a curried program into its mod and arguments. It returns
// ok=false when p does not have the curried shape.
func Uncurry(p *Program) (mod *Program, args []*Program, ok bool) {
	items, err := p.Items()
	if err != nil || len(items) != 3 || !items[0].AtomEquals(opApply.atom) {
		return nil, nil, false
	}
	quoted := items[1]
	if !quoted.IsPair() || !quoted.left.AtomEquals(opQuote.atom) {
		return nil, nil, false
	}
	mod = quoted.right

	env := items[2]
	for env.IsPair() {
		parts, err := env.Items()
		if err != nil || len(parts) != 3 || !parts[0].AtomEquals(opCons.atom) {
			return nil, nil, false
		}
		q := parts[1]
		if !q.IsPair() || !q.left.AtomEquals(opQuote.atom) {
			return nil, nil, false
		}
		args = append(args, q.right)
		env = parts[2]
	}
	if !env.AtomEquals(envRoot.atom) {
		return nil, nil, false
	}
	return mod, args, true
}

// CurryTreeHash computes the tree hash of Curry(mod, args...) from the
// mod's tree hash and the arguments' tree hashes, without building the
// program.
func CurryTreeHash(modHash types.Hash, argHashes ...types.Hash) types.Hash {
	quoteHash := HashAtom(opQuote.atom)
	consHash := HashAtom(opCons.atom)
	nilHash := HashAtom(nil)

	quoted := func(h types.Hash) types.Hash {
		return HashPair(quoteHash, h)
	}

	env := HashAtom(envRoot.atom)
	for i := len(argHashes) - 1; i >= 0; i-- {
		env = HashPair(consHash, HashPair(quoted(argHashes[i]), HashPair(env, nilHash)))
	}
	return HashPair(HashAtom(opApply.atom), HashPair(quoted(modHash), HashPair(env, nilHash)))
}
