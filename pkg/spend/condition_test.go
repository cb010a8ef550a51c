package spend

import (
	"bytes"
	"errors"
	"testing"

	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

func TestCreateCoin_RoundTrip(t *testing.T) {
	ph := types.Hash{0xaa}
	memos := [][]byte{{0x01, 0x02}, []byte("https://a.example")}

	cond := NewCreateCoin(ph, 1_000_000, memos)
	parsed, err := ParseCondition(cond.Program())
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if parsed.Opcode != CreateCoin {
		t.Fatalf("opcode = %s, want CREATE_COIN", parsed.Opcode)
	}

	cc, err := parsed.AsCreateCoin()
	if err != nil {
		t.Fatalf("AsCreateCoin: %v", err)
	}
	if cc.PuzzleHash != ph {
		t.Errorf("puzzle hash = %s, want %s", cc.PuzzleHash, ph)
	}
	if cc.Amount != 1_000_000 {
		t.Errorf("amount = %d, want 1000000", cc.Amount)
	}
	if len(cc.Memos) != 2 || !bytes.Equal(cc.Memos[1], memos[1]) {
		t.Errorf("memos = %q", cc.Memos)
	}
}

func TestCreateCoin_NoMemos(t *testing.T) {
	cond := NewCreateCoin(types.Hash{0x01}, 5, nil)
	if len(cond.Args) != 2 {
		t.Fatalf("args = %d, want 2", len(cond.Args))
	}
	cc, err := cond.AsCreateCoin()
	if err != nil {
		t.Fatalf("AsCreateCoin: %v", err)
	}
	if cc.Memos != nil {
		t.Errorf("memos = %q, want nil", cc.Memos)
	}
}

func TestWithPuzzleHash(t *testing.T) {
	orig := NewCreateCoin(types.Hash{0x01}, 9, [][]byte{{0x07}})
	wrapped := orig.WithPuzzleHash(types.Hash{0x02})

	cc, err := wrapped.AsCreateCoin()
	if err != nil {
		t.Fatal(err)
	}
	if cc.PuzzleHash != (types.Hash{0x02}) || cc.Amount != 9 || len(cc.Memos) != 1 {
		t.Errorf("unexpected wrapped condition %+v", cc)
	}
	origCC, _ := orig.AsCreateCoin()
	if origCC.PuzzleHash != (types.Hash{0x01}) {
		t.Error("WithPuzzleHash must not mutate the original")
	}
}

func TestConditions_RoundTrip(t *testing.T) {
	conds := []Condition{
		NewReserveFee(1000),
		NewAssertConcurrentSpend(types.Hash{0x0c}),
		NewAggSigMe([]byte{0x02, 0x03}, []byte("msg")),
	}
	parsed, err := ParseConditions(ConditionsProgram(conds))
	if err != nil {
		t.Fatalf("ParseConditions: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("len = %d, want 3", len(parsed))
	}

	fee, err := parsed[0].Uint64Arg(0)
	if err != nil || fee != 1000 {
		t.Errorf("reserve fee = %d, %v", fee, err)
	}
	id, err := parsed[1].HashArg(0)
	if err != nil || id != (types.Hash{0x0c}) {
		t.Errorf("concurrent spend id = %s, %v", id, err)
	}
	msg, err := parsed[2].BytesArg(1)
	if err != nil || string(msg) != "msg" {
		t.Errorf("agg sig message = %q, %v", msg, err)
	}
	if _, err := parsed[0].Uint64Arg(3); err == nil {
		t.Error("missing argument should fail")
	}
}

func TestParseCondition_Errors(t *testing.T) {
	tests := []struct {
		name string
		prog *program.Program
	}{
		{"atom", program.Int(51)},
		{"empty list", program.Nil()},
		{"opcode is pair", program.List(program.Cons(program.Nil(), program.Nil()))},
		{"opcode too large", program.List(program.Int(300))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCondition(tt.prog); !errors.Is(err, ErrBadCondition) {
				t.Errorf("err = %v, want ErrBadCondition", err)
			}
		})
	}
}

func TestAsCreateCoin_Errors(t *testing.T) {
	if _, err := NewReserveFee(1).AsCreateCoin(); err == nil {
		t.Error("RESERVE_FEE is not a CREATE_COIN")
	}
	bad := Condition{Opcode: CreateCoin, Args: []*program.Program{program.Int(1), program.Int(1)}}
	if _, err := bad.AsCreateCoin(); err == nil {
		t.Error("short puzzle hash should fail")
	}
}

func TestOpcode_String(t *testing.T) {
	if CreateCoin.String() != "CREATE_COIN" {
		t.Errorf("CreateCoin.String() = %s", CreateCoin)
	}
	if Opcode(99).String() != "OPCODE_99" {
		t.Errorf("Opcode(99).String() = %s", Opcode(99))
	}
}
