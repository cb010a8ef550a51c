// Package program implements the puzzle program tree: atoms and pairs,
// their canonical serialization, the sha256 tree hash, and currying.
//
// Nothing here evaluates programs. The drivers only build and take apart
// puzzle reveals and solutions structurally, so a tree plus its hash is
// all that is needed.
package program

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Program errors.
var (
	ErrNotAtom = errors.New("program is not an atom")
	ErrNotPair = errors.New("program is not a pair")
	ErrNotList = errors.New("program is not a proper list")
)

// Program is an immutable node in a program tree: either an atom (a byte
// string, possibly empty) or a pair of two programs.
type Program struct {
	atom  []byte
	left  *Program
	right *Program
}

var nilProgram = &Program{atom: []byte{}}

// Nil returns the empty atom, which also terminates lists.
func Nil() *Program {
	return nilProgram
}

// Atom returns an atom holding a copy of b.
func Atom(b []byte) *Program {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Program{atom: cp}
}

// Bytes32 returns an atom holding a hash.
func Bytes32(h types.Hash) *Program {
	return &Program{atom: h.Bytes()}
}

// String returns an atom holding the UTF-8 bytes of s.
func String(s string) *Program {
	return &Program{atom: []byte(s)}
}

// Cons returns the pair (left . right).
func Cons(left, right *Program) *Program {
	return &Program{left: left, right: right}
}

// List returns the proper list (items[0] items[1] ...).
func List(items ...*Program) *Program {
	out := Nil()
	for i := len(items) - 1; i >= 0; i-- {
		out = Cons(items[i], out)
	}
	return out
}

// Quote returns (q . p).
func Quote(p *Program) *Program {
	return Cons(opQuote, p)
}

// IsAtom reports whether p is an atom.
func (p *Program) IsAtom() bool {
	return p.left == nil
}

// IsPair reports whether p is a pair.
func (p *Program) IsPair() bool {
	return p.left != nil
}

// IsNil reports whether p is the empty atom.
func (p *Program) IsNil() bool {
	return p.IsAtom() && len(p.atom) == 0
}

// AtomBytes returns a copy of the atom's bytes.
func (p *Program) AtomBytes() ([]byte, error) {
	if !p.IsAtom() {
		return nil, ErrNotAtom
	}
	cp := make([]byte, len(p.atom))
	copy(cp, p.atom)
	return cp, nil
}

// AtomEquals reports whether p is an atom equal to b.
func (p *Program) AtomEquals(b []byte) bool {
	return p.IsAtom() && bytes.Equal(p.atom, b)
}

// AsHash returns the atom as a 32-byte hash.
func (p *Program) AsHash() (types.Hash, error) {
	if !p.IsAtom() {
		return types.Hash{}, ErrNotAtom
	}
	return types.BytesToHash(p.atom)
}

// First returns the left element of a pair.
func (p *Program) First() (*Program, error) {
	if !p.IsPair() {
		return nil, ErrNotPair
	}
	return p.left, nil
}

// Rest returns the right element of a pair.
func (p *Program) Rest() (*Program, error) {
	if !p.IsPair() {
		return nil, ErrNotPair
	}
	return p.right, nil
}

// Items returns the elements of a proper list.
func (p *Program) Items() ([]*Program, error) {
	var items []*Program
	cur := p
	for cur.IsPair() {
		items = append(items, cur.left)
		cur = cur.right
	}
	if !cur.IsNil() {
		return nil, ErrNotList
	}
	return items, nil
}

// Equal reports whether two programs have identical structure and atoms.
func (p *Program) Equal(o *Program) bool {
	if p.IsAtom() || o.IsAtom() {
		return p.IsAtom() && o.IsAtom() && bytes.Equal(p.atom, o.atom)
	}
	return p.left.Equal(o.left) && p.right.Equal(o.right)
}

// TreeHash returns the sha256 tree hash of the program.
func (p *Program) TreeHash() types.Hash {
	if p.IsAtom() {
		return HashAtom(p.atom)
	}
	return HashPair(p.left.TreeHash(), p.right.TreeHash())
}

// GoString renders the program in a compact s-expression form for
// debugging output.
func (p *Program) GoString() string {
	var buf bytes.Buffer
	p.render(&buf)
	return buf.String()
}

func (p *Program) render(buf *bytes.Buffer) {
	if p.IsAtom() {
		if len(p.atom) == 0 {
			buf.WriteString("()")
			return
		}
		fmt.Fprintf(buf, "0x%x", p.atom)
		return
	}
	buf.WriteByte('(')
	cur := p
	first := true
	for cur.IsPair() {
		if !first {
			buf.WriteByte(' ')
		}
		cur.left.render(buf)
		first = false
		cur = cur.right
	}
	if !cur.IsNil() {
		buf.WriteString(" . ")
		cur.render(buf)
	}
	buf.WriteByte(')')
}
