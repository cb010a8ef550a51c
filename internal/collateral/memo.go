package collateral

import (
	"fmt"
	"unicode/utf8"

	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/holiman/uint256"
)

// Memos is the decoded memo list of a locked coin's CREATE_COIN.
//
//	collateral: [hint]
//	mirror:     [hint, epoch, url...]
type Memos struct {
	Hint  types.Hash
	Epoch *uint256.Int // nil for collateral
	URLs  []string
}

// Encode returns the memo list. A nil Epoch encodes a collateral coin.
func (m Memos) Encode() [][]byte {
	out := [][]byte{m.Hint.Bytes()}
	if m.Epoch == nil {
		return out
	}
	out = append(out, program.BigIntBytes(m.Epoch))
	for _, u := range m.URLs {
		out = append(out, []byte(u))
	}
	return out
}

// DecodeMemos parses a locked coin's memos. The epoch is read from the
// second memo when present, so a mirror's hint can be recomputed without
// knowing its epoch in advance.
func DecodeMemos(memos [][]byte) (Memos, error) {
	if len(memos) == 0 {
		return Memos{}, fmt.Errorf("%w: no memos", ErrMalformedMemo)
	}
	hint, err := types.BytesToHash(memos[0])
	if err != nil {
		return Memos{}, fmt.Errorf("%w: hint: %v", ErrMalformedMemo, err)
	}
	m := Memos{Hint: hint}
	if len(memos) == 1 {
		return m, nil
	}

	if m.Epoch, err = program.ParseBigInt(memos[1]); err != nil {
		return Memos{}, fmt.Errorf("%w: epoch: %v", ErrMalformedMemo, err)
	}
	for i, raw := range memos[2:] {
		if !utf8.Valid(raw) {
			return Memos{}, fmt.Errorf("%w: url %d is not valid UTF-8", ErrMalformedMemo, i)
		}
		m.URLs = append(m.URLs, string(raw))
	}
	return m, nil
}
