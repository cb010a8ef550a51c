package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/internal/rpc"
)

func (a *app) cmdSimulator(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: digcoin-cli simulator <serve|fund|mint> [flags]")
	}
	switch args[0] {
	case "serve":
		return a.cmdSimulatorServe(ctx, args[1:])
	case "fund":
		return a.cmdSimulatorFund(args[1:])
	case "mint":
		return a.cmdSimulatorMint(args[1:])
	default:
		return fmt.Errorf("unknown simulator command: %s", args[0])
	}
}

func (a *app) cmdSimulatorServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulator serve", flag.ExitOnError)
	addr := fs.String("addr", a.cfg.Serve.Addr, "Listen address")
	feeStr := fs.String("fee", "0", "Fee returned by fee_estimate")
	fs.Bool("memory", false, "Keep the ledger in memory only")
	fs.Parse(args)

	fee, err := parseAmount(*feeStr, nativeDecimals)
	if err != nil {
		return fmt.Errorf("invalid fee: %w", err)
	}
	a.sim.SetFeeEstimate(fee)

	srv := rpc.New(*addr, a.protocol, a.sim, a.cfg.Serve)
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Printf("Serving %s simulator on http://%s\n", a.protocol.Network, srv.Addr())

	<-ctx.Done()
	return srv.Stop()
}

func (a *app) cmdSimulatorFund(args []string) error {
	fs := flag.NewFlagSet("simulator fund", flag.ExitOnError)
	amountStr := fs.String("amount", "", "Native amount")
	ks := addKeyFlags(fs)
	fs.Parse(args)

	amount, err := parseAmount(*amountStr, nativeDecimals)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	o, err := a.owner(ks)
	if err != nil {
		return err
	}
	defer o.Key.Zero()

	coin, err := a.sim.Fund(o.PuzzleHash, amount)
	if err != nil {
		return err
	}
	fmt.Printf("Funded:   %s (%s)\n", coin.ID(), formatAmount(coin.Amount, nativeDecimals))
	return nil
}

func (a *app) cmdSimulatorMint(args []string) error {
	fs := flag.NewFlagSet("simulator mint", flag.ExitOnError)
	amountStr := fs.String("amount", "", "Token amount")
	ks := addKeyFlags(fs)
	fs.Parse(args)

	amount, err := parseAmount(*amountStr, tokenDecimals)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	o, err := a.owner(ks)
	if err != nil {
		return err
	}
	defer o.Key.Zero()

	inner, err := driver.StandardPuzzle(a.protocol, o.PublicKey)
	if err != nil {
		return err
	}
	coin, err := a.sim.MintToken(inner, amount)
	if err != nil {
		return err
	}
	fmt.Printf("Minted:   %s (%s)\n", coin.ID(), formatAmount(coin.Amount, tokenDecimals))
	return nil
}
