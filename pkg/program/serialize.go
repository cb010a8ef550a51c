package program

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Serialization markers.
const (
	consBox      = 0xff
	nilMarker    = 0x80
	maxAtomBytes = 1 << 34
)

// ErrBadEncoding is returned when program bytes cannot be decoded.
var ErrBadEncoding = errors.New("bad program encoding")

// Serialize returns the canonical byte encoding of the program.
func (p *Program) Serialize() []byte {
	var buf bytes.Buffer
	p.serialize(&buf)
	return buf.Bytes()
}

// Hex returns the hex-encoded serialization.
func (p *Program) Hex() string {
	return hex.EncodeToString(p.Serialize())
}

func (p *Program) serialize(buf *bytes.Buffer) {
	if p.IsPair() {
		buf.WriteByte(consBox)
		p.left.serialize(buf)
		p.right.serialize(buf)
		return
	}
	a := p.atom
	switch {
	case len(a) == 0:
		buf.WriteByte(nilMarker)
		return
	case len(a) == 1 && a[0] < 0x80:
		buf.WriteByte(a[0])
		return
	}
	n := len(a)
	switch {
	case n < 0x40:
		buf.WriteByte(0x80 | byte(n))
	case n < 0x2000:
		buf.Write([]byte{0xc0 | byte(n>>8), byte(n)})
	case n < 0x100000:
		buf.Write([]byte{0xe0 | byte(n>>16), byte(n >> 8), byte(n)})
	case n < 0x8000000:
		buf.Write([]byte{0xf0 | byte(n>>24), byte(n >> 16), byte(n >> 8), byte(n)})
	default:
		buf.Write([]byte{0xf8 | byte(n>>32), byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	}
	buf.Write(a)
}

// Deserialize decodes a program from its canonical encoding. The whole
// input must be consumed.
func Deserialize(data []byte) (*Program, error) {
	p, n, err := decode(data, 0)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadEncoding, len(data)-n)
	}
	return p, nil
}

// FromHex decodes a hex-encoded serialized program.
func FromHex(s string) (*Program, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return Deserialize(b)
}

func decode(data []byte, off int) (*Program, int, error) {
	if off >= len(data) {
		return nil, 0, fmt.Errorf("%w: unexpected end of input", ErrBadEncoding)
	}
	b := data[off]
	switch {
	case b == consBox:
		left, next, err := decode(data, off+1)
		if err != nil {
			return nil, 0, err
		}
		right, end, err := decode(data, next)
		if err != nil {
			return nil, 0, err
		}
		return Cons(left, right), end, nil
	case b == nilMarker:
		return Nil(), off + 1, nil
	case b < 0x80:
		return &Program{atom: []byte{b}}, off + 1, nil
	}

	size, header, err := atomSize(data[off:])
	if err != nil {
		return nil, 0, err
	}
	start := off + header
	if uint64(len(data)-start) < size {
		return nil, 0, fmt.Errorf("%w: atom of %d bytes exceeds input", ErrBadEncoding, size)
	}
	end := start + int(size)
	return Atom(data[start:end]), end, nil
}

// atomSize decodes a length prefix, returning the atom size and the
// number of header bytes.
func atomSize(data []byte) (uint64, int, error) {
	first := data[0]
	mask := byte(0x80)
	header := 0
	for first&mask != 0 {
		header++
		first &^= mask
		mask >>= 1
	}
	if header > 5 {
		return 0, 0, fmt.Errorf("%w: invalid length prefix %#x", ErrBadEncoding, data[0])
	}
	if len(data) < header {
		return 0, 0, fmt.Errorf("%w: truncated length prefix", ErrBadEncoding)
	}
	size := uint64(first)
	for i := 1; i < header; i++ {
		size = size<<8 | uint64(data[i])
	}
	if size >= maxAtomBytes {
		return 0, 0, fmt.Errorf("%w: atom too large", ErrBadEncoding)
	}
	return size, header, nil
}
