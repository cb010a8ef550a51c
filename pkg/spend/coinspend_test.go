package spend

import (
	"encoding/json"
	"testing"

	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

func sampleSpend() CoinSpend {
	return CoinSpend{
		Coin:         types.Coin{ParentCoinInfo: types.Hash{0x01}, PuzzleHash: types.Hash{0x02}, Amount: 77},
		PuzzleReveal: program.Curry(program.String("mod"), program.Int(3)),
		Solution:     program.List(program.Nil(), program.Int(1)),
	}
}

func TestCoinSpend_JSON_RoundTrip(t *testing.T) {
	cs := sampleSpend()
	data, err := json.Marshal(cs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded CoinSpend
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Coin != cs.Coin {
		t.Errorf("coin = %+v, want %+v", decoded.Coin, cs.Coin)
	}
	if !decoded.PuzzleReveal.Equal(cs.PuzzleReveal) || !decoded.Solution.Equal(cs.Solution) {
		t.Error("programs changed across JSON roundtrip")
	}
}

func TestCoinSpend_UnmarshalJSON_BadHex(t *testing.T) {
	var cs CoinSpend
	err := json.Unmarshal([]byte(`{"coin":{},"puzzle_reveal":"zz","solution":"80"}`), &cs)
	if err == nil {
		t.Error("expected error for bad puzzle hex")
	}
}

func TestSpendSet_Removals(t *testing.T) {
	a := sampleSpend()
	b := sampleSpend()
	b.Coin.Amount = 78
	set := &SpendSet{CoinSpends: []CoinSpend{a, b}}

	got := set.Removals()
	if len(got) != 2 || got[0] != a.Coin || got[1] != b.Coin {
		t.Errorf("Removals() = %+v", got)
	}
}

func TestSpendBundle_ID(t *testing.T) {
	b1 := &SpendBundle{CoinSpends: []CoinSpend{sampleSpend()}}
	b2 := &SpendBundle{CoinSpends: []CoinSpend{sampleSpend()}}
	if b1.ID() != b2.ID() {
		t.Error("equal bundles should have equal ids")
	}

	b2.Signatures = []Signature{{PublicKey: []byte{0x02}, Message: []byte{0x01}, Signature: []byte{0x03}}}
	if b1.ID() == b2.ID() {
		t.Error("signatures should change the bundle id")
	}
}

func TestSignature_JSON_RoundTrip(t *testing.T) {
	s := Signature{PublicKey: []byte{0x02, 0xaa}, Message: []byte("m"), Signature: []byte{0x01}}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var got Signature
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if string(got.PublicKey) != string(s.PublicKey) || string(got.Message) != "m" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}
