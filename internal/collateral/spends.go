package collateral

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/morph"
	"github.com/DIG-Network/dig-collateral-coin/internal/tokencoin"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/holiman/uint256"
)

// Argument errors returned by spend construction.
var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrDuplicateInput = errors.New("coin supplied twice")
)

// owner is the standard puzzle of a synthetic key.
type owner struct {
	key        []byte
	puzzle     *program.Program
	puzzleHash types.Hash
}

func (m *Manager) owner(syntheticKey []byte) (*owner, error) {
	if err := crypto.ValidatePublicKey(syntheticKey); err != nil {
		return nil, fmt.Errorf("owner key: %w", err)
	}
	puzzle, err := driver.StandardPuzzle(m.protocol, syntheticKey)
	if err != nil {
		return nil, err
	}
	return &owner{key: syntheticKey, puzzle: puzzle, puzzleHash: puzzle.TreeHash()}, nil
}

// hintMemo is the memo list that makes a coin discoverable by its owner.
func (o *owner) hintMemo() [][]byte {
	return [][]byte{o.puzzleHash.Bytes()}
}

// CreateCollateral builds the spends that lock amount of the token under
// the store's collateral hint. Token inputs must all be owned by
// syntheticKey; change goes back to it. When fee inputs are given they
// pay fee in a spend coupled to the token spend.
func (m *Manager) CreateCollateral(tokenInputs []*tokencoin.TokenCoin, amount uint64, syntheticKey []byte, feeInputs []types.Coin, fee uint64) (*spend.SpendSet, error) {
	hint := morph.ForCollateral(m.protocol, m.storeID)
	return m.lock(tokenInputs, amount, Memos{Hint: hint}, syntheticKey, feeInputs, fee)
}

// CreateMirror is CreateCollateral for a mirror coin of the given epoch.
// The coin's memos are the mirror hint, the epoch and the URLs in order.
func (m *Manager) CreateMirror(tokenInputs []*tokencoin.TokenCoin, amount uint64, urls []string, epoch *uint256.Int, syntheticKey []byte, feeInputs []types.Coin, fee uint64) (*spend.SpendSet, error) {
	for i, u := range urls {
		if !utf8.ValidString(u) {
			return nil, fmt.Errorf("%w: url %d is not valid UTF-8", ErrMalformedMemo, i)
		}
	}
	if epoch == nil {
		epoch = new(uint256.Int)
	}
	memos := Memos{
		Hint:  morph.ForMirror(m.protocol, m.storeID, epoch),
		Epoch: epoch,
		URLs:  append([]string(nil), urls...),
	}
	return m.lock(tokenInputs, amount, memos, syntheticKey, feeInputs, fee)
}

func (m *Manager) lock(tokenInputs []*tokencoin.TokenCoin, amount uint64, memos Memos, syntheticKey []byte, feeInputs []types.Coin, fee uint64) (*spend.SpendSet, error) {
	p := m.protocol
	o, err := m.owner(syntheticKey)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	// Every precondition is checked before any spend is built.
	coins := make([]types.Coin, len(tokenInputs))
	for i, in := range tokenInputs {
		if in.AssetID != p.AssetID {
			return nil, fmt.Errorf("%w: token input %s", ErrAssetMismatch, in.Coin.ID())
		}
		if in.InnerPuzzleHash != o.puzzleHash {
			return nil, fmt.Errorf("%w: token input %s", ErrNotOwner, in.Coin.ID())
		}
		coins[i] = in.Coin
	}
	if err := checkDistinct(coins, feeInputs); err != nil {
		return nil, err
	}
	total, err := types.SumAmounts(coins)
	if err != nil {
		return nil, err
	}
	if len(tokenInputs) == 0 || total < amount {
		return nil, fmt.Errorf("%w: token inputs %d, need %d", ErrInsufficientFunds, total, amount)
	}
	if err := checkFeeInputs(o, feeInputs, fee); err != nil {
		return nil, err
	}

	lead := tokenInputs[0].Coin.ID()
	leadConds := []spend.Condition{
		spend.NewCreateCoin(driver.ParentLockPuzzleHash(p, memos.Hint, o.puzzleHash), amount, memos.Encode()),
	}
	if change := total - amount; change > 0 {
		leadConds = append(leadConds, spend.NewCreateCoin(o.puzzleHash, change, o.hintMemo()))
	}
	if len(feeInputs) > 0 {
		leadConds = append(leadConds, spend.NewAssertConcurrentSpend(feeInputs[0].ID()))
	}

	ring := make([]driver.TokenSpend, len(tokenInputs))
	for i, in := range tokenInputs {
		conds := leadConds
		if i > 0 {
			conds = []spend.Condition{spend.NewAssertConcurrentSpend(lead)}
		}
		ring[i] = driver.TokenSpend{
			Coin:          in.Coin,
			LineageProof:  in.LineageProof,
			InnerPuzzle:   o.puzzle,
			InnerSolution: driver.StandardSolution(conds),
		}
	}
	primary, err := driver.SpendTokens(p, ring)
	if err != nil {
		return nil, err
	}

	set, err := m.withFee(primary, o, feeInputs, fee)
	if err != nil {
		return nil, err
	}
	m.logger.Debug().
		Bool("mirror", memos.Epoch != nil).
		Uint64("amount", amount).
		Uint64("fee", fee).
		Int("spends", len(set.CoinSpends)).
		Msg("Built lock spend set")
	return set, nil
}

// Reclaim builds the spends that return a locked coin's full amount to
// its owner as a plain token coin. syntheticKey must be the owner
// recorded in the coin's lineage proof.
func (m *Manager) Reclaim(locked *LockedCoin, syntheticKey []byte, feeInputs []types.Coin, fee uint64) (*spend.SpendSet, error) {
	p := m.protocol
	o, err := m.owner(syntheticKey)
	if err != nil {
		return nil, err
	}
	if locked.Proof.ParentInnerPuzzleHash != o.puzzleHash {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, locked.Coin.ID())
	}
	if locked.StoreID != m.storeID {
		return nil, fmt.Errorf("%w: coin belongs to store %s", ErrPuzzleHashMismatch, locked.StoreID)
	}
	lockPuzzle, err := driver.ParentLockPuzzle(p, locked.Hint(p), o.puzzleHash)
	if err != nil {
		return nil, err
	}
	if driver.TokenPuzzleHash(p, lockPuzzle.TreeHash()) != locked.Coin.PuzzleHash {
		return nil, fmt.Errorf("%w: locked coin %s", ErrPuzzleHashMismatch, locked.Coin.ID())
	}
	if err := checkDistinct([]types.Coin{locked.Coin}, feeInputs); err != nil {
		return nil, err
	}
	if err := checkFeeInputs(o, feeInputs, fee); err != nil {
		return nil, err
	}

	ownerConds := []spend.Condition{spend.NewCreateCoin(o.puzzleHash, locked.Coin.Amount, o.hintMemo())}
	if len(feeInputs) > 0 {
		ownerConds = append(ownerConds, spend.NewAssertConcurrentSpend(feeInputs[0].ID()))
	}
	primary, err := driver.SpendTokens(p, []driver.TokenSpend{{
		Coin:          locked.Coin,
		LineageProof:  locked.Proof,
		InnerPuzzle:   lockPuzzle,
		InnerSolution: driver.ParentLockSolution(locked.Proof, o.puzzle, driver.StandardSolution(ownerConds)),
	}})
	if err != nil {
		return nil, err
	}

	set, err := m.withFee(primary, o, feeInputs, fee)
	if err != nil {
		return nil, err
	}
	m.logger.Debug().
		Str("coin", locked.Coin.ID().String()).
		Uint64("fee", fee).
		Int("spends", len(set.CoinSpends)).
		Msg("Built reclaim spend set")
	return set, nil
}

// withFee appends the fee spends after the primary spends and couples the
// two lead coins. The fee lead reserves the fee and returns change; the
// other fee inputs only assert the fee lead.
func (m *Manager) withFee(primary []spend.CoinSpend, o *owner, feeInputs []types.Coin, fee uint64) (*spend.SpendSet, error) {
	set := &spend.SpendSet{CoinSpends: primary}
	if len(feeInputs) == 0 {
		return set, nil
	}

	total, err := types.SumAmounts(feeInputs)
	if err != nil {
		return nil, err
	}
	primaryLead := primary[0].Coin.ID()
	feeLead := feeInputs[0].ID()

	var leadConds []spend.Condition
	if fee > 0 {
		leadConds = append(leadConds, spend.NewReserveFee(fee))
	}
	if change := total - fee; change > 0 {
		leadConds = append(leadConds, spend.NewCreateCoin(o.puzzleHash, change, o.hintMemo()))
	}
	leadConds = append(leadConds, spend.NewAssertConcurrentSpend(primaryLead))

	for i, c := range feeInputs {
		conds := leadConds
		if i > 0 {
			conds = []spend.Condition{spend.NewAssertConcurrentSpend(feeLead)}
		}
		set.CoinSpends = append(set.CoinSpends, spend.CoinSpend{
			Coin:         c,
			PuzzleReveal: o.puzzle,
			Solution:     driver.StandardSolution(conds),
		})
	}
	set.Coupling = &spend.Coupling{PrimaryCoinID: primaryLead, FeeCoinID: feeLead}
	return set, nil
}

// checkFeeInputs checks that the fee inputs are plain coins of the owner
// and cover fee.
func checkFeeInputs(o *owner, feeInputs []types.Coin, fee uint64) error {
	for _, c := range feeInputs {
		if c.PuzzleHash != o.puzzleHash {
			return fmt.Errorf("%w: fee input %s", ErrNotOwner, c.ID())
		}
	}
	total, err := types.SumAmounts(feeInputs)
	if err != nil {
		return err
	}
	if total < fee {
		return fmt.Errorf("%w: fee inputs %d, need %d", ErrInsufficientFunds, total, fee)
	}
	return nil
}

func checkDistinct(groups ...[]types.Coin) error {
	seen := make(map[types.Hash]bool)
	for _, g := range groups {
		for _, c := range g {
			id := c.ID()
			if seen[id] {
				return fmt.Errorf("%w: %s", ErrDuplicateInput, id)
			}
			seen[id] = true
		}
	}
	return nil
}
