package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/DIG-Network/dig-collateral-coin/internal/collateral"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/log"
	"github.com/DIG-Network/dig-collateral-coin/internal/morph"
	"github.com/DIG-Network/dig-collateral-coin/internal/recognize"
	"github.com/DIG-Network/dig-collateral-coin/internal/rpcclient"
	"github.com/DIG-Network/dig-collateral-coin/internal/signer"
	"github.com/DIG-Network/dig-collateral-coin/internal/tokencoin"
	"github.com/DIG-Network/dig-collateral-coin/internal/wallet"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
	"github.com/holiman/uint256"
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func parseStoreID(s string) (types.Hash, error) {
	if s == "" {
		return types.Hash{}, errors.New("--store is required")
	}
	id, err := types.HexToHash(s)
	if err != nil {
		return types.Hash{}, fmt.Errorf("invalid store id: %w", err)
	}
	return id, nil
}

func parseEpoch(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, errors.New("--epoch is required")
	}
	epoch, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid epoch: %w", err)
	}
	return epoch, nil
}

// ── info ────────────────────────────────────────────────────────────────

func (a *app) cmdInfo(ctx context.Context) error {
	if client, ok := a.peer.(*rpcclient.Client); ok {
		info, err := client.Info(ctx)
		if err != nil {
			return fmt.Errorf("chain_getInfo: %w", err)
		}
		if info.Network != string(a.protocol.Network) || info.AssetID != a.protocol.AssetID.String() {
			log.Ledger.Warn().
				Str("peer_network", info.Network).
				Str("peer_asset", info.AssetID).
				Msg("Peer protocol differs from local protocol")
		}
		fmt.Printf("Peer:     %s\n", a.cfg.RPC.Endpoint)
		fmt.Printf("Network:  %s\n", info.Network)
		fmt.Printf("Asset:    %s\n", info.AssetID)
		fmt.Printf("Height:   %d\n", info.Height)
		return nil
	}

	height, err := a.sim.Height()
	if err != nil {
		return err
	}
	fmt.Printf("Simulator: %s\n", a.cfg.SimulatorDir())
	fmt.Printf("Network:   %s\n", a.protocol.Network)
	fmt.Printf("Asset:     %s\n", a.protocol.AssetID)
	fmt.Printf("Height:    %d\n", height)
	return nil
}

// ── hint ────────────────────────────────────────────────────────────────

func (a *app) cmdHint(args []string) error {
	fs := flag.NewFlagSet("hint", flag.ExitOnError)
	storeStr := fs.String("store", "", "Store id (hex)")
	epochStr := fs.String("epoch", "", "Mirror epoch (omit for the collateral hint)")
	fs.Parse(args)

	storeID, err := parseStoreID(*storeStr)
	if err != nil {
		return err
	}
	if *epochStr == "" {
		fmt.Println(morph.ForCollateral(a.protocol, storeID))
		return nil
	}
	epoch, err := parseEpoch(*epochStr)
	if err != nil {
		return err
	}
	fmt.Println(morph.ForMirror(a.protocol, storeID, epoch))
	return nil
}

// ── balance ─────────────────────────────────────────────────────────────

func (a *app) cmdBalance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	ks := addKeyFlags(fs)
	fs.Parse(args)

	o, err := a.owner(ks)
	if err != nil {
		return err
	}
	defer o.Key.Zero()

	tokens, err := tokencoin.NewProver(a.protocol, a.peer).FetchOwned(ctx, o.PuzzleHash)
	if err != nil {
		return fmt.Errorf("fetch tokens: %w", err)
	}
	var tokenTotal uint64
	for _, t := range tokens {
		tokenTotal += t.Coin.Amount
	}
	native, err := a.nativeCoins(ctx, o)
	if err != nil {
		return err
	}
	nativeTotal, err := types.SumAmounts(native)
	if err != nil {
		return err
	}

	fmt.Printf("Puzzle hash:  %s\n", o.PuzzleHash)
	fmt.Printf("Tokens:       %s (%d coins)\n", formatAmount(tokenTotal, tokenDecimals), len(tokens))
	fmt.Printf("Native:       %s (%d coins)\n", formatAmount(nativeTotal, nativeDecimals), len(native))
	return nil
}

// nativeCoins returns the unspent plain coins of the owner.
func (a *app) nativeCoins(ctx context.Context, o *wallet.Owner) ([]types.Coin, error) {
	states, err := a.peer.CoinStatesByHint(ctx, o.PuzzleHash)
	if err != nil {
		return nil, fmt.Errorf("fetch native coins: %w", err)
	}
	var out []types.Coin
	for _, cs := range states {
		if cs.IsSpent() || cs.Coin.PuzzleHash != o.PuzzleHash {
			continue
		}
		out = append(out, cs.Coin)
	}
	return out, nil
}

// ── Spend helpers ───────────────────────────────────────────────────────

// spendFlags are the flags shared by every spending command.
type spendFlags struct {
	keys   keySelector
	fee    *string
	dryRun *bool
}

func addSpendFlags(fs *flag.FlagSet) spendFlags {
	return spendFlags{
		keys:   addKeyFlags(fs),
		fee:    fs.String("fee", "", "Fee (default: estimated by the peer)"),
		dryRun: fs.Bool("dry-run", false, "Build and sign but do not broadcast"),
	}
}

// fee returns the explicit fee, or the peer's estimate.
func (a *app) fee(ctx context.Context, s string) (uint64, error) {
	if s != "" {
		return parseAmount(s, nativeDecimals)
	}
	fee, err := a.peer.EstimateFee(ctx, a.cfg.Fee.TargetSeconds)
	if err != nil {
		return 0, fmt.Errorf("estimate fee: %w", err)
	}
	return fee, nil
}

// feeInputs selects the owner's native coins that pay fee.
func (a *app) feeInputs(ctx context.Context, o *wallet.Owner, fee uint64) ([]types.Coin, error) {
	if fee == 0 {
		return nil, nil
	}
	coins, err := a.nativeCoins(ctx, o)
	if err != nil {
		return nil, err
	}
	sel, err := wallet.SelectCoins(coins, fee)
	if err != nil {
		return nil, fmt.Errorf("select fee coins: %w", err)
	}
	return sel.Inputs, nil
}

// submit signs a spend set with the owner key and broadcasts it.
func (a *app) submit(ctx context.Context, set *spend.SpendSet, o *wallet.Owner, dryRun bool) error {
	bundle, err := signer.New(a.protocol).Sign(set, []*crypto.PrivateKey{o.Key}, a.protocol.UseAltSignatureDomain)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	log.Collateral.Debug().
		Int("spends", len(set.CoinSpends)).
		Bool("coupled", set.Coupling != nil).
		Msg("Signed spend bundle")

	if dryRun {
		fmt.Printf("Bundle:   %s (not broadcast)\n", bundle.ID())
		return nil
	}
	id, err := a.peer.Broadcast(ctx, bundle)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	fmt.Printf("Submitted: %s\n", id)
	return nil
}

// lockedAddition returns the coin a lock spend set creates under hint.
func (a *app) lockedAddition(set *spend.SpendSet, hint types.Hash, o *wallet.Owner) (types.Coin, bool) {
	want := collateral.LockingPuzzleHash(a.protocol, hint, o.PuzzleHash)
	for _, cs := range set.CoinSpends {
		additions, err := driver.Additions(a.protocol, cs)
		if err != nil {
			continue
		}
		for _, add := range additions {
			if add.Coin.PuzzleHash == want {
				return add.Coin, true
			}
		}
	}
	return types.Coin{}, false
}

// lockInputs gathers what a lock needs: token inputs covering amount,
// the fee and the fee inputs.
func (a *app) lockInputs(ctx context.Context, o *wallet.Owner, amount uint64, feeStr string) ([]*tokencoin.TokenCoin, []types.Coin, uint64, error) {
	tokens, err := tokencoin.NewProver(a.protocol, a.peer).FetchOwned(ctx, o.PuzzleHash)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("fetch tokens: %w", err)
	}
	sel, err := wallet.SelectTokens(tokens, amount)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("select tokens: %w", err)
	}
	fee, err := a.fee(ctx, feeStr)
	if err != nil {
		return nil, nil, 0, err
	}
	feeInputs, err := a.feeInputs(ctx, o, fee)
	if err != nil {
		return nil, nil, 0, err
	}
	return sel.Inputs, feeInputs, fee, nil
}

// ── collateral ──────────────────────────────────────────────────────────

func (a *app) cmdCollateral(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: digcoin-cli collateral <create|list> [flags]")
	}
	switch args[0] {
	case "create":
		return a.cmdCollateralCreate(ctx, args[1:])
	case "list":
		return a.cmdCollateralList(ctx, args[1:])
	default:
		return fmt.Errorf("unknown collateral command: %s", args[0])
	}
}

func (a *app) cmdCollateralCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("collateral create", flag.ExitOnError)
	storeStr := fs.String("store", "", "Store id (hex)")
	amountStr := fs.String("amount", "", "Token amount to lock")
	sf := addSpendFlags(fs)
	fs.Parse(args)

	storeID, err := parseStoreID(*storeStr)
	if err != nil {
		return err
	}
	amount, err := parseAmount(*amountStr, tokenDecimals)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	o, err := a.owner(sf.keys)
	if err != nil {
		return err
	}
	defer o.Key.Zero()

	tokens, feeInputs, fee, err := a.lockInputs(ctx, o, amount, *sf.fee)
	if err != nil {
		return err
	}
	m := collateral.NewManager(storeID, a.protocol, a.peer)
	set, err := m.CreateCollateral(tokens, amount, o.PublicKey, feeInputs, fee)
	if err != nil {
		return err
	}
	if coin, ok := a.lockedAddition(set, morph.ForCollateral(a.protocol, storeID), o); ok {
		fmt.Printf("Collateral: %s (%s)\n", coin.ID(), formatAmount(coin.Amount, tokenDecimals))
	}
	fmt.Printf("Fee:        %s\n", formatAmount(fee, nativeDecimals))
	return a.submit(ctx, set, o, *sf.dryRun)
}

func (a *app) cmdCollateralList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("collateral list", flag.ExitOnError)
	storeStr := fs.String("store", "", "Store id (hex)")
	fs.Parse(args)

	storeID, err := parseStoreID(*storeStr)
	if err != nil {
		return err
	}
	coins, err := collateral.NewManager(storeID, a.protocol, a.peer).FetchCollateral(ctx)
	if err != nil {
		return err
	}
	printLocked(coins)
	return nil
}

// ── mirror ──────────────────────────────────────────────────────────────

func (a *app) cmdMirror(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: digcoin-cli mirror <create|list> [flags]")
	}
	switch args[0] {
	case "create":
		return a.cmdMirrorCreate(ctx, args[1:])
	case "list":
		return a.cmdMirrorList(ctx, args[1:])
	default:
		return fmt.Errorf("unknown mirror command: %s", args[0])
	}
}

func (a *app) cmdMirrorCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mirror create", flag.ExitOnError)
	storeStr := fs.String("store", "", "Store id (hex)")
	amountStr := fs.String("amount", "", "Token amount to lock")
	epochStr := fs.String("epoch", "", "Mirror epoch")
	var urls stringList
	fs.Var(&urls, "url", "Mirror URL (repeatable)")
	sf := addSpendFlags(fs)
	fs.Parse(args)

	storeID, err := parseStoreID(*storeStr)
	if err != nil {
		return err
	}
	epoch, err := parseEpoch(*epochStr)
	if err != nil {
		return err
	}
	amount, err := parseAmount(*amountStr, tokenDecimals)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	o, err := a.owner(sf.keys)
	if err != nil {
		return err
	}
	defer o.Key.Zero()

	tokens, feeInputs, fee, err := a.lockInputs(ctx, o, amount, *sf.fee)
	if err != nil {
		return err
	}
	m := collateral.NewManager(storeID, a.protocol, a.peer)
	set, err := m.CreateMirror(tokens, amount, urls, epoch, o.PublicKey, feeInputs, fee)
	if err != nil {
		return err
	}
	if coin, ok := a.lockedAddition(set, morph.ForMirror(a.protocol, storeID, epoch), o); ok {
		fmt.Printf("Mirror:   %s (%s)\n", coin.ID(), formatAmount(coin.Amount, tokenDecimals))
	}
	fmt.Printf("Fee:      %s\n", formatAmount(fee, nativeDecimals))
	return a.submit(ctx, set, o, *sf.dryRun)
}

func (a *app) cmdMirrorList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mirror list", flag.ExitOnError)
	storeStr := fs.String("store", "", "Store id (hex)")
	epochStr := fs.String("epoch", "", "Mirror epoch")
	fs.Parse(args)

	storeID, err := parseStoreID(*storeStr)
	if err != nil {
		return err
	}
	epoch, err := parseEpoch(*epochStr)
	if err != nil {
		return err
	}
	coins, err := collateral.NewManager(storeID, a.protocol, a.peer).FetchMirrors(ctx, epoch)
	if err != nil {
		return err
	}
	printLocked(coins)
	return nil
}

func printLocked(coins []*collateral.LockedCoin) {
	if len(coins) == 0 {
		fmt.Println("No coins found.")
		return
	}
	for _, c := range coins {
		fmt.Printf("%s  %s", c.Coin.ID(), formatAmount(c.Coin.Amount, tokenDecimals))
		if c.IsMirror() {
			fmt.Printf("  epoch=%s", c.Epoch.Dec())
			for _, u := range c.MirrorURLs {
				fmt.Printf("  %s", u)
			}
		}
		fmt.Println()
	}
}

// ── reclaim ─────────────────────────────────────────────────────────────

func (a *app) cmdReclaim(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reclaim", flag.ExitOnError)
	storeStr := fs.String("store", "", "Store id (hex)")
	coinStr := fs.String("coin", "", "Locked coin id (hex)")
	sf := addSpendFlags(fs)
	fs.Parse(args)

	storeID, err := parseStoreID(*storeStr)
	if err != nil {
		return err
	}
	coinID, err := types.HexToHash(*coinStr)
	if err != nil {
		return fmt.Errorf("invalid coin id: %w", err)
	}
	o, err := a.owner(sf.keys)
	if err != nil {
		return err
	}
	defer o.Key.Zero()

	state, err := a.peer.CoinStateByID(ctx, coinID)
	if err != nil {
		return fmt.Errorf("coin %s: %w", coinID, err)
	}
	m := collateral.NewManager(storeID, a.protocol, a.peer)
	locked, err := m.ProveFromCoinState(ctx, *state)
	if err != nil {
		return fmt.Errorf("coin %s: %w", coinID, err)
	}
	fee, err := a.fee(ctx, *sf.fee)
	if err != nil {
		return err
	}
	feeInputs, err := a.feeInputs(ctx, o, fee)
	if err != nil {
		return err
	}
	set, err := m.Reclaim(locked, o.PublicKey, feeInputs, fee)
	if err != nil {
		return err
	}
	fmt.Printf("Reclaim:  %s (%s)\n", coinID, formatAmount(locked.Coin.Amount, tokenDecimals))
	fmt.Printf("Fee:      %s\n", formatAmount(fee, nativeDecimals))
	return a.submit(ctx, set, o, *sf.dryRun)
}

// ── classify ────────────────────────────────────────────────────────────

func (a *app) cmdClassify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	storeStr := fs.String("store", "", "Store id (hex)")
	coinStr := fs.String("coin", "", "Coin id (hex)")
	fs.Parse(args)

	storeID, err := parseStoreID(*storeStr)
	if err != nil {
		return err
	}
	coinID, err := types.HexToHash(*coinStr)
	if err != nil {
		return fmt.Errorf("invalid coin id: %w", err)
	}
	state, err := a.peer.CoinStateByID(ctx, coinID)
	if err != nil {
		return fmt.Errorf("coin %s: %w", coinID, err)
	}

	c := recognize.New(
		collateral.NewManager(storeID, a.protocol, a.peer),
		tokencoin.NewProver(a.protocol, a.peer),
	)
	res, err := c.Classify(ctx, *state)
	if err != nil {
		return err
	}
	fmt.Printf("Kind:     %s\n", res.Kind)
	switch res.Kind {
	case recognize.KindLockedCoin:
		printLocked([]*collateral.LockedCoin{res.LockedCoin})
	case recognize.KindTokenCoin:
		fmt.Printf("Owner:    %s\n", res.TokenCoin.InnerPuzzleHash)
		fmt.Printf("Amount:   %s\n", formatAmount(res.TokenCoin.Coin.Amount, tokenDecimals))
	default:
		fmt.Printf("Reason:   %v\n", res.Reason)
	}
	return nil
}
