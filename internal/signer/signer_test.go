package signer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

func testKey(t *testing.T, seed byte) *crypto.PrivateKey {
	t.Helper()
	k, err := crypto.PrivateKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return k
}

// standardSpend builds a spend of a native coin owned by key that creates
// one coin.
func standardSpend(t *testing.T, p config.ProtocolConfig, key *crypto.PrivateKey, amount uint64) spend.CoinSpend {
	t.Helper()
	puzzle, err := driver.StandardPuzzle(p, key.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	return spend.CoinSpend{
		Coin:         types.Coin{ParentCoinInfo: types.Hash{byte(amount)}, PuzzleHash: puzzle.TreeHash(), Amount: amount},
		PuzzleReveal: puzzle,
		Solution: driver.StandardSolution([]spend.Condition{
			spend.NewCreateCoin(types.Hash{0xaa}, amount, nil),
		}),
	}
}

func TestMessage(t *testing.T) {
	p := config.DevnetProtocol()
	cs := standardSpend(t, p, testKey(t, 1), 5)
	id := cs.Coin.ID()

	msg := Message(p, []byte("m"), cs, false)
	want := append(append([]byte("m"), id[:]...), p.GenesisChallenge[:]...)
	if !bytes.Equal(msg, want) {
		t.Errorf("Message = %x, want %x", msg, want)
	}

	alt := Message(p, []byte("m"), cs, true)
	if bytes.Equal(msg, alt) {
		t.Error("alternate domain produced the same message")
	}
}

func TestSign(t *testing.T) {
	p := config.DevnetProtocol()
	k1, k2 := testKey(t, 1), testKey(t, 2)
	set := &spend.SpendSet{CoinSpends: []spend.CoinSpend{
		standardSpend(t, p, k1, 5),
		standardSpend(t, p, k2, 6),
	}}

	bundle, err := New(p).Sign(set, []*crypto.PrivateKey{k2, k1}, false)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(bundle.CoinSpends) != 2 || len(bundle.Signatures) != 2 {
		t.Fatalf("bundle has %d spends, %d signatures", len(bundle.CoinSpends), len(bundle.Signatures))
	}
	for i, sig := range bundle.Signatures {
		want := []*crypto.PrivateKey{k1, k2}[i].PublicKey()
		if !bytes.Equal(sig.PublicKey, want) {
			t.Errorf("signature %d: wrong public key", i)
		}
		digest := crypto.Hash(sig.Message)
		if !crypto.VerifySignature(digest[:], sig.Signature, sig.PublicKey) {
			t.Errorf("signature %d does not verify", i)
		}
	}
}

func TestSign_MissingKey(t *testing.T) {
	p := config.DevnetProtocol()
	set := &spend.SpendSet{CoinSpends: []spend.CoinSpend{standardSpend(t, p, testKey(t, 1), 5)}}

	_, err := New(p).Sign(set, []*crypto.PrivateKey{testKey(t, 2)}, false)
	if !errors.Is(err, ErrMissingKey) {
		t.Errorf("err = %v, want ErrMissingKey", err)
	}
}

func TestSign_DoesNotModifySet(t *testing.T) {
	p := config.DevnetProtocol()
	k := testKey(t, 1)
	set := &spend.SpendSet{CoinSpends: []spend.CoinSpend{standardSpend(t, p, k, 5)}}

	bundle, err := New(p).Sign(set, []*crypto.PrivateKey{k}, false)
	if err != nil {
		t.Fatal(err)
	}
	bundle.CoinSpends[0].Coin.Amount = 99
	if set.CoinSpends[0].Coin.Amount != 5 {
		t.Error("Sign shares the spend slice with the set")
	}
}

func TestSign_BadReveal(t *testing.T) {
	p := config.DevnetProtocol()
	k := testKey(t, 1)
	cs := standardSpend(t, p, k, 5)
	cs.Coin.PuzzleHash = types.Hash{0x01}

	_, err := New(p).Sign(&spend.SpendSet{CoinSpends: []spend.CoinSpend{cs}}, []*crypto.PrivateKey{k}, false)
	if !errors.Is(err, driver.ErrPuzzleHashMismatch) {
		t.Errorf("err = %v, want ErrPuzzleHashMismatch", err)
	}
}
