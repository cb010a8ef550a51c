// Package simulator is an in-process ledger for tests and offline use. It
// applies spend bundles with the checks a full node makes on the puzzle
// layers this client uses, and answers the same queries as a network
// peer.
package simulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/internal/log"
	"github.com/DIG-Network/dig-collateral-coin/internal/signer"
	"github.com/DIG-Network/dig-collateral-coin/internal/storage"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Validation errors. All of them wrap ledger.ErrRejected.
var (
	ErrDoubleSpend       = fmt.Errorf("%w: coin already spent", ledger.ErrRejected)
	ErrMissingCoin       = fmt.Errorf("%w: coin does not exist", ledger.ErrRejected)
	ErrBadSignature      = fmt.Errorf("%w: missing or invalid signature", ledger.ErrRejected)
	ErrAssertionFailed   = fmt.Errorf("%w: assertion failed", ledger.ErrRejected)
	ErrConservation      = fmt.Errorf("%w: value not conserved", ledger.ErrRejected)
	ErrInvalidSpend      = fmt.Errorf("%w: invalid spend", ledger.ErrRejected)
	ErrDuplicateAddition = fmt.Errorf("%w: duplicate coin", ledger.ErrRejected)
)

// Simulator implements ledger.Peer on top of a storage.DB.
type Simulator struct {
	mu       sync.Mutex
	protocol config.ProtocolConfig
	store    store
	fee      uint64
}

var _ ledger.Peer = (*Simulator)(nil)

// New returns a simulator for protocol p backed by db.
func New(p config.ProtocolConfig, db storage.DB) *Simulator {
	return &Simulator{protocol: p, store: store{db: db}}
}

// SetFeeEstimate sets the value EstimateFee returns.
func (s *Simulator) SetFeeEstimate(fee uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fee = fee
}

// Height returns the number of bundles applied so far.
func (s *Simulator) Height() (uint32, error) {
	return s.store.counter(keyHeight)
}

// CoinStateByID implements ledger.Lookup.
func (s *Simulator) CoinStateByID(_ context.Context, id types.Hash) (*types.CoinState, error) {
	r, err := s.store.coin(id)
	if err != nil {
		return nil, err
	}
	st := r.state()
	return &st, nil
}

// CoinStatesByHint implements ledger.Lookup.
func (s *Simulator) CoinStatesByHint(_ context.Context, hint types.Hash) ([]types.CoinState, error) {
	records, err := s.store.byHint(hint)
	if err != nil {
		return nil, err
	}
	out := make([]types.CoinState, len(records))
	for i, r := range records {
		out[i] = r.state()
	}
	return out, nil
}

// PuzzleAndSolution implements ledger.Lookup.
func (s *Simulator) PuzzleAndSolution(_ context.Context, coinID types.Hash) (*spend.CoinSpend, error) {
	if _, err := s.store.coin(coinID); err != nil {
		return nil, err
	}
	return s.store.spend(coinID)
}

// EstimateFee implements ledger.Peer.
func (s *Simulator) EstimateFee(_ context.Context, _ uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fee, nil
}

// Broadcast implements ledger.Peer by applying the bundle.
func (s *Simulator) Broadcast(_ context.Context, bundle *spend.SpendBundle) (types.Hash, error) {
	if err := s.Apply(bundle); err != nil {
		return types.Hash{}, err
	}
	return bundle.ID(), nil
}

// Fund creates a native coin with the given puzzle hash out of thin air.
// The coin is indexed under its own puzzle hash as hint.
func (s *Simulator) Fund(puzzleHash types.Hash, amount uint64) (types.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, err := s.nextOrigin("fund")
	if err != nil {
		return types.Coin{}, err
	}
	coin := types.Coin{ParentCoinInfo: parent, PuzzleHash: puzzleHash, Amount: amount}
	b := storage.NewBatch(s.store.db)
	height, err := s.store.counter(keyHeight)
	if err != nil {
		return types.Coin{}, err
	}
	if err := putCoin(b, &coinRecord{Coin: coin, CreatedHeight: height}, &puzzleHash); err != nil {
		return types.Coin{}, err
	}
	return coin, b.Commit()
}

// MintToken issues amount of the protocol asset to a standard inner
// puzzle. It records a spent issuance coin as the parent, so the new coin
// proves like any other token coin. The coin is hinted to the inner
// puzzle hash.
func (s *Simulator) MintToken(inner *program.Program, amount uint64) (types.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.protocol
	innerHash := inner.TreeHash()
	puzzle, err := driver.TokenPuzzle(p, inner)
	if err != nil {
		return types.Coin{}, err
	}
	origin, err := s.nextOrigin("mint")
	if err != nil {
		return types.Coin{}, err
	}
	issuance := types.Coin{ParentCoinInfo: origin, PuzzleHash: puzzle.TreeHash(), Amount: amount}
	sol := driver.TokenSolution{
		InnerSolution: driver.StandardSolution([]spend.Condition{
			spend.NewCreateCoin(innerHash, amount, [][]byte{innerHash.Bytes()}),
		}),
		PrevCoinID: issuance.ID(),
		ThisCoin:   issuance,
		NextCoin:   types.Coin{ParentCoinInfo: origin, PuzzleHash: innerHash, Amount: amount},
	}
	cs := spend.CoinSpend{Coin: issuance, PuzzleReveal: puzzle, Solution: sol.Program()}
	additions, err := driver.Additions(p, cs)
	if err != nil {
		return types.Coin{}, fmt.Errorf("mint: %w", err)
	}

	height, err := s.store.counter(keyHeight)
	if err != nil {
		return types.Coin{}, err
	}
	b := storage.NewBatch(s.store.db)
	spent := height
	if err := putSpend(b, &coinRecord{Coin: issuance, CreatedHeight: height, SpentHeight: &spent}, cs); err != nil {
		return types.Coin{}, err
	}
	child := additions[0].Coin
	if err := putCoin(b, &coinRecord{Coin: child, CreatedHeight: height}, &innerHash); err != nil {
		return types.Coin{}, err
	}
	return child, b.Commit()
}

// nextOrigin returns a fresh parent id for coins created from nothing.
// Caller holds s.mu.
func (s *Simulator) nextOrigin(kind string) (types.Hash, error) {
	n, err := s.store.counter(keyNonce)
	if err != nil {
		return types.Hash{}, err
	}
	if err := s.store.db.Put(keyNonce, counterValue(n+1)); err != nil {
		return types.Hash{}, err
	}
	return crypto.Sha256([]byte("dig/simulator/"+kind), counterValue(n)), nil
}

// Apply validates a bundle and, if every check passes, spends its coins
// and creates their additions in one batch.
func (s *Simulator) Apply(bundle *spend.SpendBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer log.Benchmark("simulator.apply")()

	if len(bundle.CoinSpends) == 0 {
		return fmt.Errorf("%w: empty bundle", ErrInvalidSpend)
	}
	height, err := s.store.counter(keyHeight)
	if err != nil {
		return err
	}
	next := height + 1

	removals := make(map[types.Hash]*coinRecord, len(bundle.CoinSpends))
	for _, cs := range bundle.CoinSpends {
		id := cs.Coin.ID()
		if _, dup := removals[id]; dup {
			return fmt.Errorf("%w: %s spent twice in bundle", ErrDoubleSpend, id)
		}
		r, err := s.store.coin(id)
		if errors.Is(err, ledger.ErrCoinNotFound) {
			return fmt.Errorf("%w: %s", ErrMissingCoin, id)
		}
		if err != nil {
			return err
		}
		if r.SpentHeight != nil {
			return fmt.Errorf("%w: %s", ErrDoubleSpend, id)
		}
		removals[id] = r
	}

	v := validation{protocol: s.protocol, removals: removals}
	for _, cs := range bundle.CoinSpends {
		if err := v.addSpend(cs); err != nil {
			return err
		}
	}
	if err := v.finish(bundle.Signatures); err != nil {
		return err
	}

	b := storage.NewBatch(s.store.db)
	for _, cs := range bundle.CoinSpends {
		r := removals[cs.Coin.ID()]
		r.SpentHeight = &next
		if err := putSpend(b, r, cs); err != nil {
			return err
		}
	}
	seen := make(map[types.Hash]bool, len(v.additions))
	for _, a := range v.additions {
		if seen[a.Coin.ID()] {
			return fmt.Errorf("%w: %s created twice", ErrDuplicateAddition, a.Coin.ID())
		}
		seen[a.Coin.ID()] = true
		if _, err := s.store.coin(a.Coin.ID()); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateAddition, a.Coin.ID())
		}
		var hint *types.Hash
		if h, ok := a.Hint(); ok {
			hint = &h
		}
		if err := putCoin(b, &coinRecord{Coin: a.Coin, CreatedHeight: next}, hint); err != nil {
			return err
		}
	}
	if err := b.Put(keyHeight, counterValue(next)); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("commit bundle: %w", err)
	}

	log.Ledger.Debug().
		Str("bundle", bundle.ID().String()).
		Int("removals", len(removals)).
		Int("additions", len(v.additions)).
		Uint32("height", next).
		Msg("Bundle applied")
	return nil
}

// sigRequirement is one AGG_SIG_ME the bundle's signatures must cover.
type sigRequirement struct {
	publicKey []byte
	message   []byte // AGG_SIG_ME message || coin id || domain
}

// validation accumulates the checks of one bundle.
type validation struct {
	protocol config.ProtocolConfig
	removals map[types.Hash]*coinRecord

	additions  []driver.Addition
	sigs       []sigRequirement
	reserved   uint64
	nativeIn   uint64
	nativeOut  uint64
	tokenIn    map[types.Hash]uint64
	tokenOut   map[types.Hash]uint64
	subtotals  map[types.Hash]int64
	concurrent []types.Hash
}

func (v *validation) addSpend(cs spend.CoinSpend) error {
	p := v.protocol
	id := cs.Coin.ID()
	conds, err := driver.Conditions(p, cs)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSpend, id, err)
	}

	var created uint64
	for _, c := range conds {
		switch c.Opcode {
		case spend.AggSigMe:
			pk, err1 := c.BytesArg(0)
			msg, err2 := c.BytesArg(1)
			if err1 != nil || err2 != nil {
				return fmt.Errorf("%w: %s: bad AGG_SIG_ME", ErrInvalidSpend, id)
			}
			full := signer.Message(p, msg, cs, p.UseAltSignatureDomain)
			v.sigs = append(v.sigs, sigRequirement{publicKey: pk, message: full})
		case spend.CreateCoin:
			cc, err := c.AsCreateCoin()
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidSpend, id, err)
			}
			created += cc.Amount
			v.additions = append(v.additions, driver.Addition{
				Coin:  types.Coin{ParentCoinInfo: id, PuzzleHash: cc.PuzzleHash, Amount: cc.Amount},
				Memos: cc.Memos,
			})
		case spend.ReserveFee:
			amount, err := c.Uint64Arg(0)
			if err != nil {
				return fmt.Errorf("%w: %s: bad RESERVE_FEE", ErrInvalidSpend, id)
			}
			v.reserved += amount
		case spend.AssertConcurrentSpend:
			other, err := c.HashArg(0)
			if err != nil {
				return fmt.Errorf("%w: %s: bad ASSERT_CONCURRENT_SPEND", ErrInvalidSpend, id)
			}
			v.concurrent = append(v.concurrent, other)
		case spend.AssertMyParentID:
			parent, err := c.HashArg(0)
			if err != nil || parent != cs.Coin.ParentCoinInfo {
				return fmt.Errorf("%w: %s: ASSERT_MY_PARENT_ID", ErrAssertionFailed, id)
			}
		}
	}

	assetID, _, isToken := driver.ParseToken(p, cs.PuzzleReveal)
	if !isToken {
		v.nativeIn += cs.Coin.Amount
		v.nativeOut += created
		return nil
	}

	sol, err := driver.ParseTokenSolution(cs.Solution)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSpend, id, err)
	}
	if v.tokenIn == nil {
		v.tokenIn = make(map[types.Hash]uint64)
		v.tokenOut = make(map[types.Hash]uint64)
		v.subtotals = make(map[types.Hash]int64)
	}
	if sol.PrevSubtotal != v.subtotals[assetID] {
		return fmt.Errorf("%w: %s: token subtotal %d, want %d", ErrConservation, id, sol.PrevSubtotal, v.subtotals[assetID])
	}
	v.subtotals[assetID] += int64(cs.Coin.Amount) - int64(created)
	v.tokenIn[assetID] += cs.Coin.Amount
	v.tokenOut[assetID] += created
	return nil
}

func (v *validation) finish(signatures []spend.Signature) error {
	for _, other := range v.concurrent {
		if _, ok := v.removals[other]; !ok {
			return fmt.Errorf("%w: concurrent spend of %s not in bundle", ErrAssertionFailed, other)
		}
	}
	for asset, in := range v.tokenIn {
		if out := v.tokenOut[asset]; in != out {
			return fmt.Errorf("%w: asset %s in %d out %d", ErrConservation, asset, in, out)
		}
	}
	if v.nativeOut > v.nativeIn || v.nativeIn-v.nativeOut < v.reserved {
		return fmt.Errorf("%w: native in %d out %d reserved fee %d", ErrConservation, v.nativeIn, v.nativeOut, v.reserved)
	}

	for _, req := range v.sigs {
		if !hasSignature(signatures, req) {
			return fmt.Errorf("%w: key %x", ErrBadSignature, req.publicKey)
		}
	}
	return nil
}

func hasSignature(signatures []spend.Signature, req sigRequirement) bool {
	digest := crypto.Hash(req.message)
	for _, sig := range signatures {
		if !bytes.Equal(sig.PublicKey, req.publicKey) || !bytes.Equal(sig.Message, req.message) {
			continue
		}
		if crypto.VerifySignature(digest[:], sig.Signature, sig.PublicKey) {
			return true
		}
	}
	return false
}
