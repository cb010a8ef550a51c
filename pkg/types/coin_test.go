package types

import (
	"bytes"
	"crypto/sha256"
	"math"
	"testing"
)

func TestUintBytes(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x00, 0x80}},
		{255, []byte{0x00, 0xff}},
		{256, []byte{0x01, 0x00}},
		{1_000_000, []byte{0x0f, 0x42, 0x40}},
		{math.MaxUint64, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		got := UintBytes(tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("UintBytes(%d) = %x, want %x", tt.v, got, tt.want)
		}
	}
}

func TestCoin_ID(t *testing.T) {
	c := Coin{
		ParentCoinInfo: Hash{0x01},
		PuzzleHash:     Hash{0x02},
		Amount:         1_000_000,
	}

	var buf []byte
	buf = append(buf, c.ParentCoinInfo[:]...)
	buf = append(buf, c.PuzzleHash[:]...)
	buf = append(buf, 0x0f, 0x42, 0x40)
	want := Hash(sha256.Sum256(buf))

	if got := c.ID(); got != want {
		t.Errorf("ID() = %s, want %s", got, want)
	}
}

func TestCoin_ID_ChangesWithFields(t *testing.T) {
	base := Coin{ParentCoinInfo: Hash{0x01}, PuzzleHash: Hash{0x02}, Amount: 5}
	variants := []Coin{
		{ParentCoinInfo: Hash{0x03}, PuzzleHash: Hash{0x02}, Amount: 5},
		{ParentCoinInfo: Hash{0x01}, PuzzleHash: Hash{0x04}, Amount: 5},
		{ParentCoinInfo: Hash{0x01}, PuzzleHash: Hash{0x02}, Amount: 6},
	}
	for i, v := range variants {
		if v.ID() == base.ID() {
			t.Errorf("variant %d has the same id as base", i)
		}
	}
}

func TestCoinState_IsSpent(t *testing.T) {
	var s CoinState
	if s.IsSpent() {
		t.Error("state without spent height should be unspent")
	}
	h := uint32(10)
	s.SpentHeight = &h
	if !s.IsSpent() {
		t.Error("state with spent height should be spent")
	}
}

func TestSumAmounts(t *testing.T) {
	total, err := SumAmounts([]Coin{{Amount: 1}, {Amount: 2}, {Amount: 3}})
	if err != nil {
		t.Fatalf("SumAmounts: %v", err)
	}
	if total != 6 {
		t.Errorf("total = %d, want 6", total)
	}

	if _, err := SumAmounts([]Coin{{Amount: math.MaxUint64}, {Amount: 1}}); err == nil {
		t.Error("expected overflow error")
	}
}
