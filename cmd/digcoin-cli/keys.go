package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/tokencoin"
	"github.com/DIG-Network/dig-collateral-coin/internal/wallet"
	"golang.org/x/term"
)

// mnemonicEnv names the environment variable holding the owner mnemonic.
const mnemonicEnv = "DIGCOIN_MNEMONIC"

// Token and native amounts are entered and shown in whole units.
const (
	tokenDecimals  = 3
	nativeDecimals = 12
)

// keySelector picks the owner key out of the mnemonic.
type keySelector struct {
	account *uint
	index   *uint
}

func addKeyFlags(fs *flag.FlagSet) keySelector {
	return keySelector{
		account: fs.Uint("account", 0, "HD account of the owner key"),
		index:   fs.Uint("index", 0, "HD key index of the owner key"),
	}
}

// owner reads the mnemonic and derives the selected owner key.
func (a *app) owner(ks keySelector) (*wallet.Owner, error) {
	mnemonic, err := readMnemonic()
	if err != nil {
		return nil, err
	}
	return deriveOwner(a.protocol, mnemonic, uint32(*ks.account), uint32(*ks.index))
}

func deriveOwner(p config.ProtocolConfig, mnemonic string, account, index uint32) (*wallet.Owner, error) {
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	key, err := master.DeriveOwner(account, index)
	if err != nil {
		return nil, fmt.Errorf("derive owner key: %w", err)
	}
	return key.Owner(p)
}

// readMnemonic returns the mnemonic from the environment, or prompts for
// it without echo.
func readMnemonic() (string, error) {
	mnemonic := os.Getenv(mnemonicEnv)
	if mnemonic == "" {
		b, err := readPassword("Enter mnemonic: ")
		if err != nil {
			return "", fmt.Errorf("read mnemonic: %w", err)
		}
		mnemonic = string(b)
	}
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !wallet.ValidateMnemonic(mnemonic) {
		return "", errors.New("invalid mnemonic")
	}
	return mnemonic, nil
}

// ── init ────────────────────────────────────────────────────────────────

func cmdInit(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	fs.Parse(args)

	path := cfg.ConfigFile()
	if _, err := os.Stat(path); err == nil && !*force {
		fatal("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		fatal("create data dir: %v", err)
	}
	if err := config.WriteDefaultConfig(path, cfg.Network); err != nil {
		fatal("write config: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// ── keys ────────────────────────────────────────────────────────────────

func cmdKeysNew() {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n", mnemonic)
	fmt.Printf("\nUse \"digcoin-cli keys show\" with the target network to see its owner key.\n")
}

func (a *app) cmdKeys(args []string) error {
	if len(args) < 1 || args[0] != "show" {
		return errors.New("usage: digcoin-cli keys <new|show> [flags]")
	}
	fs := flag.NewFlagSet("keys show", flag.ExitOnError)
	ks := addKeyFlags(fs)
	fs.Parse(args[1:])

	o, err := a.owner(ks)
	if err != nil {
		return err
	}
	defer o.Key.Zero()

	fmt.Printf("Network:            %s\n", a.protocol.Network)
	fmt.Printf("Path:               m/44'/8444'/%d'/0/%d\n", *ks.account, *ks.index)
	fmt.Printf("Synthetic key:      %x\n", o.PublicKey)
	fmt.Printf("Puzzle hash:        %s\n", o.PuzzleHash)
	fmt.Printf("Token puzzle hash:  %s\n", tokencoin.PuzzleHashFor(a.protocol, o.PuzzleHash))
	return nil
}

// ── Amount helpers ──────────────────────────────────────────────────────

// formatAmount renders raw units with the given number of decimals.
func formatAmount(units uint64, decimals int) string {
	if decimals == 0 {
		return strconv.FormatUint(units, 10)
	}
	unit := pow10(decimals)
	return fmt.Sprintf("%d.%0*d", units/unit, decimals, units%unit)
}

// parseAmount converts a decimal string to raw units.
func parseAmount(s string, decimals int) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	parts := strings.SplitN(s, ".", 2)

	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > decimals {
			return 0, fmt.Errorf("too many decimal places (max %d)", decimals)
		}
		// Pad to decimals digits.
		fracStr = fracStr + strings.Repeat("0", decimals-len(fracStr))
		if fracStr != "" {
			frac, err = strconv.ParseUint(fracStr, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid fractional part: %w", err)
			}
		}
	}

	// Check overflow.
	unit := pow10(decimals)
	if whole > math.MaxUint64/unit {
		return 0, fmt.Errorf("amount too large")
	}
	result := whole * unit
	if result > math.MaxUint64-frac {
		return 0, fmt.Errorf("amount too large")
	}

	return result + frac, nil
}

func pow10(n int) uint64 {
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}
