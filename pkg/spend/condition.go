// Package spend defines conditions, coin spends, unsigned spend sets and
// signed spend bundles.
package spend

import (
	"errors"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Opcode identifies a condition.
type Opcode uint8

// Condition opcodes understood by the drivers.
const (
	AssertMyParentID      Opcode = 47
	AggSigMe              Opcode = 50
	CreateCoin            Opcode = 51
	ReserveFee            Opcode = 52
	AssertConcurrentSpend Opcode = 64
)

// String returns the condition name.
func (o Opcode) String() string {
	switch o {
	case AssertMyParentID:
		return "ASSERT_MY_PARENT_ID"
	case AggSigMe:
		return "AGG_SIG_ME"
	case CreateCoin:
		return "CREATE_COIN"
	case ReserveFee:
		return "RESERVE_FEE"
	case AssertConcurrentSpend:
		return "ASSERT_CONCURRENT_SPEND"
	default:
		return fmt.Sprintf("OPCODE_%d", uint8(o))
	}
}

// ErrBadCondition is returned when a condition cannot be parsed.
var ErrBadCondition = errors.New("bad condition")

// Condition is one output condition of a spend: an opcode and its
// arguments. Unknown opcodes are carried through untouched.
type Condition struct {
	Opcode Opcode
	Args   []*program.Program
}

// NewCreateCoin returns CREATE_COIN(puzzleHash, amount, memos). The memo
// list is omitted when empty.
func NewCreateCoin(puzzleHash types.Hash, amount uint64, memos [][]byte) Condition {
	args := []*program.Program{program.Bytes32(puzzleHash), program.Int(amount)}
	if len(memos) > 0 {
		items := make([]*program.Program, len(memos))
		for i, m := range memos {
			items[i] = program.Atom(m)
		}
		args = append(args, program.List(items...))
	}
	return Condition{Opcode: CreateCoin, Args: args}
}

// NewReserveFee returns RESERVE_FEE(amount).
func NewReserveFee(amount uint64) Condition {
	return Condition{Opcode: ReserveFee, Args: []*program.Program{program.Int(amount)}}
}

// NewAssertConcurrentSpend returns ASSERT_CONCURRENT_SPEND(coinID).
func NewAssertConcurrentSpend(coinID types.Hash) Condition {
	return Condition{Opcode: AssertConcurrentSpend, Args: []*program.Program{program.Bytes32(coinID)}}
}

// NewAssertMyParentID returns ASSERT_MY_PARENT_ID(parentID).
func NewAssertMyParentID(parentID types.Hash) Condition {
	return Condition{Opcode: AssertMyParentID, Args: []*program.Program{program.Bytes32(parentID)}}
}

// NewAggSigMe returns AGG_SIG_ME(publicKey, message).
func NewAggSigMe(publicKey, message []byte) Condition {
	return Condition{Opcode: AggSigMe, Args: []*program.Program{program.Atom(publicKey), program.Atom(message)}}
}

// Program encodes the condition as (opcode args...).
func (c Condition) Program() *program.Program {
	items := make([]*program.Program, 0, len(c.Args)+1)
	items = append(items, program.Int(uint64(c.Opcode)))
	items = append(items, c.Args...)
	return program.List(items...)
}

// ParseCondition decodes a condition from (opcode args...).
func ParseCondition(p *program.Program) (Condition, error) {
	items, err := p.Items()
	if err != nil || len(items) == 0 {
		return Condition{}, fmt.Errorf("%w: not a non-empty list", ErrBadCondition)
	}
	op, err := items[0].AsUint64()
	if err != nil || op > 0xff {
		return Condition{}, fmt.Errorf("%w: bad opcode", ErrBadCondition)
	}
	return Condition{Opcode: Opcode(op), Args: items[1:]}, nil
}

// ConditionsProgram encodes a condition list.
func ConditionsProgram(conds []Condition) *program.Program {
	items := make([]*program.Program, len(conds))
	for i, c := range conds {
		items[i] = c.Program()
	}
	return program.List(items...)
}

// ParseConditions decodes a condition list.
func ParseConditions(p *program.Program) ([]Condition, error) {
	items, err := p.Items()
	if err != nil {
		return nil, fmt.Errorf("%w: conditions are not a list", ErrBadCondition)
	}
	out := make([]Condition, 0, len(items))
	for i, it := range items {
		c, err := ParseCondition(it)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// CreateCoinArgs is the decoded form of a CREATE_COIN condition.
type CreateCoinArgs struct {
	PuzzleHash types.Hash
	Amount     uint64
	Memos      [][]byte
}

// AsCreateCoin decodes a CREATE_COIN condition.
func (c Condition) AsCreateCoin() (CreateCoinArgs, error) {
	if c.Opcode != CreateCoin || len(c.Args) < 2 {
		return CreateCoinArgs{}, fmt.Errorf("%w: not a CREATE_COIN", ErrBadCondition)
	}
	ph, err := c.Args[0].AsHash()
	if err != nil {
		return CreateCoinArgs{}, fmt.Errorf("%w: puzzle hash: %v", ErrBadCondition, err)
	}
	amount, err := c.Args[1].AsUint64()
	if err != nil {
		return CreateCoinArgs{}, fmt.Errorf("%w: amount: %v", ErrBadCondition, err)
	}
	out := CreateCoinArgs{PuzzleHash: ph, Amount: amount}
	if len(c.Args) > 2 && c.Args[2].IsPair() {
		items, err := c.Args[2].Items()
		if err != nil {
			return CreateCoinArgs{}, fmt.Errorf("%w: memos: %v", ErrBadCondition, err)
		}
		for _, it := range items {
			b, err := it.AtomBytes()
			if err != nil {
				return CreateCoinArgs{}, fmt.Errorf("%w: memo is not an atom", ErrBadCondition)
			}
			out.Memos = append(out.Memos, b)
		}
	}
	return out, nil
}

// WithPuzzleHash returns a copy of a CREATE_COIN condition with its puzzle
// hash replaced. Memos and amount are preserved.
func (c Condition) WithPuzzleHash(ph types.Hash) Condition {
	args := make([]*program.Program, len(c.Args))
	copy(args, c.Args)
	if len(args) > 0 {
		args[0] = program.Bytes32(ph)
	}
	return Condition{Opcode: c.Opcode, Args: args}
}

// Uint64Arg decodes argument i as an unsigned integer.
func (c Condition) Uint64Arg(i int) (uint64, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("%w: %s missing argument %d", ErrBadCondition, c.Opcode, i)
	}
	return c.Args[i].AsUint64()
}

// HashArg decodes argument i as a 32-byte hash.
func (c Condition) HashArg(i int) (types.Hash, error) {
	if i >= len(c.Args) {
		return types.Hash{}, fmt.Errorf("%w: %s missing argument %d", ErrBadCondition, c.Opcode, i)
	}
	return c.Args[i].AsHash()
}

// BytesArg returns argument i as raw atom bytes.
func (c Condition) BytesArg(i int) ([]byte, error) {
	if i >= len(c.Args) {
		return nil, fmt.Errorf("%w: %s missing argument %d", ErrBadCondition, c.Opcode, i)
	}
	return c.Args[i].AtomBytes()
}
