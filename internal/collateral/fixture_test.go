package collateral

import (
	"bytes"
	"context"
	"testing"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/signer"
	"github.com/DIG-Network/dig-collateral-coin/internal/simulator"
	"github.com/DIG-Network/dig-collateral-coin/internal/storage"
	"github.com/DIG-Network/dig-collateral-coin/internal/tokencoin"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/stretchr/testify/require"
)

var testStoreID = func() types.Hash {
	var h types.Hash
	for i := range h {
		h[i] = 0x11
	}
	return h
}()

// wallet is one owner: a synthetic key and its standard puzzle.
type wallet struct {
	key       *crypto.PrivateKey
	pub       []byte
	puzzle    *program.Program
	innerHash types.Hash
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	p      config.ProtocolConfig
	sim    *simulator.Simulator
	prover *tokencoin.Prover
	mgr    *Manager
	owner  *wallet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := config.DevnetProtocol()
	sim := simulator.New(p, storage.NewMemory())
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		p:      p,
		sim:    sim,
		prover: tokencoin.NewProver(p, sim),
		mgr:    NewManager(testStoreID, p, sim),
	}
	f.owner = f.newWallet(7)
	return f
}

func (f *fixture) newWallet(seed byte) *wallet {
	f.t.Helper()
	master, err := crypto.PrivateKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	require.NoError(f.t, err)
	synthetic := master.Synthetic(f.p.HiddenPuzzleHash)
	puzzle, err := driver.StandardPuzzle(f.p, synthetic.PublicKey())
	require.NoError(f.t, err)
	return &wallet{
		key:       synthetic,
		pub:       synthetic.PublicKey(),
		puzzle:    puzzle,
		innerHash: puzzle.TreeHash(),
	}
}

// mint issues a proven token coin to w.
func (f *fixture) mint(w *wallet, amount uint64) *tokencoin.TokenCoin {
	f.t.Helper()
	coin, err := f.sim.MintToken(w.puzzle, amount)
	require.NoError(f.t, err)
	return f.proveToken(coin)
}

func (f *fixture) proveToken(coin types.Coin) *tokencoin.TokenCoin {
	f.t.Helper()
	tc, err := f.prover.ProveFromCoinState(f.ctx, f.state(coin))
	require.NoError(f.t, err)
	return tc
}

// fund creates a native coin owned by w.
func (f *fixture) fund(w *wallet, amount uint64) types.Coin {
	f.t.Helper()
	coin, err := f.sim.Fund(w.innerHash, amount)
	require.NoError(f.t, err)
	return coin
}

func (f *fixture) state(coin types.Coin) types.CoinState {
	f.t.Helper()
	cs, err := f.sim.CoinStateByID(f.ctx, coin.ID())
	require.NoError(f.t, err)
	return *cs
}

func (f *fixture) sign(set *spend.SpendSet, keys ...*crypto.PrivateKey) *spend.SpendBundle {
	f.t.Helper()
	bundle, err := signer.New(f.p).Sign(set, keys, f.p.UseAltSignatureDomain)
	require.NoError(f.t, err)
	return bundle
}

// submit signs set with the owner key and applies it.
func (f *fixture) submit(set *spend.SpendSet) {
	f.t.Helper()
	_, err := f.sim.Broadcast(f.ctx, f.sign(set, f.owner.key))
	require.NoError(f.t, err)
}

// additions returns the coins created by the spend at index i.
func (f *fixture) additions(set *spend.SpendSet, i int) []driver.Addition {
	f.t.Helper()
	out, err := driver.Additions(f.p, set.CoinSpends[i])
	require.NoError(f.t, err)
	return out
}

// lockCollateral creates and confirms a collateral coin of amount.
func (f *fixture) lockCollateral(amount uint64) *LockedCoin {
	f.t.Helper()
	set, err := f.mgr.CreateCollateral(
		[]*tokencoin.TokenCoin{f.mint(f.owner, amount)}, amount, f.owner.pub,
		[]types.Coin{f.fund(f.owner, 100)}, 10)
	require.NoError(f.t, err)
	f.submit(set)

	coins, err := f.mgr.FetchCollateral(f.ctx)
	require.NoError(f.t, err)
	require.Len(f.t, coins, 1)
	return coins[0]
}
