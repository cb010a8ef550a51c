package tokencoin

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/internal/simulator"
	"github.com/DIG-Network/dig-collateral-coin/internal/storage"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

func setup(t *testing.T) (config.ProtocolConfig, *simulator.Simulator, *program.Program) {
	t.Helper()
	p := config.DevnetProtocol()
	key, err := crypto.PrivateKeyFromBytes(bytes.Repeat([]byte{3}, 32))
	if err != nil {
		t.Fatal(err)
	}
	inner, err := driver.StandardPuzzle(p, key.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	return p, simulator.New(p, storage.NewMemory()), inner
}

func stateOf(t *testing.T, sim *simulator.Simulator, c types.Coin) types.CoinState {
	t.Helper()
	cs, err := sim.CoinStateByID(context.Background(), c.ID())
	if err != nil {
		t.Fatalf("CoinStateByID: %v", err)
	}
	return *cs
}

func TestPuzzleHashFor(t *testing.T) {
	p, _, inner := setup(t)
	outer, err := driver.TokenPuzzle(p, inner)
	if err != nil {
		t.Fatal(err)
	}
	if got := PuzzleHashFor(p, inner.TreeHash()); got != outer.TreeHash() {
		t.Errorf("PuzzleHashFor = %s, want %s", got, outer.TreeHash())
	}
}

func TestProveFromCoinState(t *testing.T) {
	p, sim, inner := setup(t)
	coin, err := sim.MintToken(inner, 1234)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	tc, err := NewProver(p, sim).ProveFromCoinState(context.Background(), stateOf(t, sim, coin))
	if err != nil {
		t.Fatalf("ProveFromCoinState: %v", err)
	}
	if tc.Coin != coin {
		t.Errorf("coin = %v, want %v", tc.Coin, coin)
	}
	if tc.InnerPuzzleHash != inner.TreeHash() {
		t.Errorf("inner puzzle hash = %s", tc.InnerPuzzleHash)
	}
	if tc.AssetID != p.AssetID {
		t.Errorf("asset = %s", tc.AssetID)
	}
	if tc.LineageProof.ParentInnerPuzzleHash != inner.TreeHash() || tc.LineageProof.ParentAmount != 1234 {
		t.Errorf("lineage proof = %+v", tc.LineageProof)
	}
	parent := types.Coin{
		ParentCoinInfo: tc.LineageProof.ParentParentCoinInfo,
		PuzzleHash:     PuzzleHashFor(p, tc.LineageProof.ParentInnerPuzzleHash),
		Amount:         tc.LineageProof.ParentAmount,
	}
	if parent.ID() != coin.ParentCoinInfo {
		t.Error("lineage proof does not rebuild the parent id")
	}
}

func TestProveFromCoinState_UnknownParent(t *testing.T) {
	p, sim, _ := setup(t)
	cs := types.CoinState{Coin: types.Coin{ParentCoinInfo: types.Hash{1}, PuzzleHash: types.Hash{2}, Amount: 3}}
	_, err := NewProver(p, sim).ProveFromCoinState(context.Background(), cs)
	if !errors.Is(err, ErrUnknownCoin) {
		t.Errorf("err = %v, want ErrUnknownCoin", err)
	}
}

func TestProveFromCoinState_UnspentParent(t *testing.T) {
	p, sim, inner := setup(t)
	parent, err := sim.MintToken(inner, 10)
	if err != nil {
		t.Fatal(err)
	}
	child := types.Coin{ParentCoinInfo: parent.ID(), PuzzleHash: parent.PuzzleHash, Amount: 10}
	_, err = NewProver(p, sim).ProveFromCoinState(context.Background(), types.CoinState{Coin: child})
	if !errors.Is(err, ErrUnknownCoin) {
		t.Errorf("err = %v, want ErrUnknownCoin", err)
	}
}

func TestProveFromCoinState_WrongChild(t *testing.T) {
	p, sim, inner := setup(t)
	coin, _ := sim.MintToken(inner, 10)

	tests := map[string]types.Coin{
		"amount":      {ParentCoinInfo: coin.ParentCoinInfo, PuzzleHash: coin.PuzzleHash, Amount: 11},
		"puzzle hash": {ParentCoinInfo: coin.ParentCoinInfo, PuzzleHash: types.Hash{9}, Amount: 10},
	}
	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewProver(p, sim).ProveFromCoinState(context.Background(), types.CoinState{Coin: c})
			if !errors.Is(err, ErrPuzzleHashMismatch) {
				t.Errorf("err = %v, want ErrPuzzleHashMismatch", err)
			}
		})
	}
}

func TestProveFromCoinState_OtherAsset(t *testing.T) {
	p, sim, inner := setup(t)
	coin, _ := sim.MintToken(inner, 10)

	q := p
	q.AssetID = types.Hash{0x77}
	_, err := NewProver(q, sim).ProveFromCoinState(context.Background(), stateOf(t, sim, coin))
	if !errors.Is(err, ErrAssetMismatch) {
		t.Errorf("err = %v, want ErrAssetMismatch", err)
	}
}

func TestProveFromCoinState_NativeParent(t *testing.T) {
	p, sim, inner := setup(t)
	native, err := sim.Fund(inner.TreeHash(), 50)
	if err != nil {
		t.Fatal(err)
	}
	key, _ := crypto.PrivateKeyFromBytes(bytes.Repeat([]byte{3}, 32))
	set := &spend.SpendSet{CoinSpends: []spend.CoinSpend{{
		Coin:         native,
		PuzzleReveal: inner,
		Solution:     driver.StandardSolution([]spend.Condition{spend.NewCreateCoin(PuzzleHashFor(p, inner.TreeHash()), 50, nil)}),
	}}}
	bundle := signBundle(t, p, set, key)
	if _, err := sim.Broadcast(context.Background(), bundle); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	forged := types.Coin{ParentCoinInfo: native.ID(), PuzzleHash: PuzzleHashFor(p, inner.TreeHash()), Amount: 50}
	_, err = NewProver(p, sim).ProveFromCoinState(context.Background(), stateOf(t, sim, forged))
	if !errors.Is(err, ErrPuzzleHashMismatch) {
		t.Errorf("err = %v, want ErrPuzzleHashMismatch", err)
	}
}

func TestFetchOwned(t *testing.T) {
	p, sim, inner := setup(t)
	for _, amt := range []uint64{5, 7} {
		if _, err := sim.MintToken(inner, amt); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := sim.Fund(inner.TreeHash(), 100); err != nil {
		t.Fatal(err)
	}

	coins, err := NewProver(p, sim).FetchOwned(context.Background(), inner.TreeHash())
	if err != nil {
		t.Fatalf("FetchOwned: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("FetchOwned returned %d coins, want 2", len(coins))
	}
	if coins[0].Coin.Amount+coins[1].Coin.Amount != 12 {
		t.Errorf("amounts = %d, %d", coins[0].Coin.Amount, coins[1].Coin.Amount)
	}
}

// failingLookup returns a network error for every call.
type failingLookup struct{ err error }

func (f failingLookup) CoinStateByID(context.Context, types.Hash) (*types.CoinState, error) {
	return nil, f.err
}

func (f failingLookup) CoinStatesByHint(context.Context, types.Hash) ([]types.CoinState, error) {
	return nil, f.err
}

func (f failingLookup) PuzzleAndSolution(context.Context, types.Hash) (*spend.CoinSpend, error) {
	return nil, f.err
}

var _ ledger.Lookup = failingLookup{}

func TestProveFromCoinState_NetworkErrorPassesThrough(t *testing.T) {
	p := config.DevnetProtocol()
	netErr := errors.New("connection refused")
	_, err := NewProver(p, failingLookup{err: netErr}).ProveFromCoinState(context.Background(), types.CoinState{})
	if !errors.Is(err, netErr) {
		t.Errorf("err = %v, want wrapped network error", err)
	}
	if IsRecognitionError(err) {
		t.Error("network error must not be a recognition error")
	}

	_, err = NewProver(p, failingLookup{err: netErr}).FetchOwned(context.Background(), types.Hash{})
	if !errors.Is(err, netErr) {
		t.Errorf("FetchOwned err = %v", err)
	}
}
