package program

import (
	"errors"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/holiman/uint256"
)

// ErrBadInteger is returned when an atom is not a canonical non-negative
// integer.
var ErrBadInteger = errors.New("bad integer atom")

// Int returns the canonical integer atom for v.
func Int(v uint64) *Program {
	return &Program{atom: types.UintBytes(v)}
}

// BigInt returns the canonical integer atom for v. A nil v encodes zero.
func BigInt(v *uint256.Int) *Program {
	return &Program{atom: BigIntBytes(v)}
}

// BigIntBytes returns the canonical atom encoding of v: minimal
// big-endian, with a 0x00 prefix when the leading bit is set.
func BigIntBytes(v *uint256.Int) []byte {
	if v == nil || v.IsZero() {
		return []byte{}
	}
	b := v.Bytes()
	if b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	return b
}

// ParseBigInt decodes a canonical non-negative integer atom. Negative
// values, non-minimal encodings and values wider than 256 bits are
// rejected.
func ParseBigInt(b []byte) (*uint256.Int, error) {
	if len(b) == 0 {
		return new(uint256.Int), nil
	}
	if b[0]&0x80 != 0 {
		return nil, fmt.Errorf("%w: negative value", ErrBadInteger)
	}
	if b[0] == 0 && (len(b) == 1 || b[1]&0x80 == 0) {
		return nil, fmt.Errorf("%w: non-minimal encoding", ErrBadInteger)
	}
	if b[0] == 0 {
		b = b[1:]
	}
	if len(b) > 32 {
		return nil, fmt.Errorf("%w: exceeds 256 bits", ErrBadInteger)
	}
	return new(uint256.Int).SetBytes(b), nil
}

// AsUint64 decodes the atom as a canonical non-negative integer that fits
// in 64 bits.
func (p *Program) AsUint64() (uint64, error) {
	if !p.IsAtom() {
		return 0, ErrNotAtom
	}
	v, err := ParseBigInt(p.atom)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: exceeds 64 bits", ErrBadInteger)
	}
	return v.Uint64(), nil
}

// SignedInt returns the canonical integer atom for a possibly negative v.
func SignedInt(v int64) *Program {
	if v >= 0 {
		return Int(uint64(v))
	}
	var buf [8]byte
	u := uint64(v)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
	}
	i := 0
	for i < 7 && buf[i] == 0xff && buf[i+1]&0x80 != 0 {
		i++
	}
	return Atom(buf[i:])
}

// AsInt64 decodes the atom as a two's complement integer of at most 8
// bytes.
func (p *Program) AsInt64() (int64, error) {
	if !p.IsAtom() {
		return 0, ErrNotAtom
	}
	b := p.atom
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > 8 {
		return 0, fmt.Errorf("%w: exceeds 64 bits", ErrBadInteger)
	}
	var v int64
	if b[0]&0x80 != 0 {
		v = -1
	}
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v, nil
}
