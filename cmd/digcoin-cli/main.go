// digcoin-cli builds, signs and broadcasts DIG collateral and mirror coin
// spends, either against a peer over JSON-RPC or against the local ledger
// simulator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/internal/log"
	"github.com/DIG-Network/dig-collateral-coin/internal/rpcclient"
	"github.com/DIG-Network/dig-collateral-coin/internal/simulator"
	"github.com/DIG-Network/dig-collateral-coin/internal/storage"
)

const version = "0.1.0"

// simulatorPrefix namespaces simulator keys inside its database.
var simulatorPrefix = []byte("sim/")

// app is the state shared by every subcommand.
type app struct {
	cfg      *config.Config
	protocol config.ProtocolConfig

	peer ledger.Peer
	sim  *simulator.Simulator // Set when running against the simulator.
	db   storage.DB
}

func main() {
	f, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		usage()
		return
	}
	if err != nil {
		fatal("%v", err)
	}
	if f.Version {
		fmt.Printf("digcoin-cli %s\n", version)
		return
	}
	if len(f.Args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fatal("%v", err)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	cmd, args := f.Args[0], f.Args[1:]

	// Commands that need no protocol or peer.
	switch cmd {
	case "init":
		cmdInit(cfg, args)
		return
	case "keys":
		if len(args) > 0 && args[0] == "new" {
			cmdKeysNew()
			return
		}
	}

	p, err := loadProtocol(cfg)
	if err != nil {
		fatal("%v", err)
	}
	a := &app{cfg: cfg, protocol: p}
	if err := a.connect(cmd, args); err != nil {
		fatal("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = a.run(ctx, cmd, args)
	stop()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fatal("%v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: digcoin-cli [global flags] <command> [flags]

Global flags:
  --network <net>       mainnet (default), testnet or devnet
  --datadir <path>      Data directory (default: %s)
  --config <path>       Config file (default: <datadir>/dig-collateral.conf)
  --protocol <path>     Protocol constants (default: <datadir>/<network>/protocol.conf)
  --rpc <url>           Peer JSON-RPC endpoint
  --rpc-timeout <dur>   Peer request timeout
  --simulator           Use the local ledger simulator
  --simulator-path <p>  Simulator database directory
  --fee-target <secs>   Fee estimation confirmation target
  --log-level <lvl>     debug, info, warn or error
  --log-json            Log as JSON

Commands:
  init                                  Write a default config file
  info                                  Show network, asset and height
  keys new                              Generate a mnemonic and show its owner key
  keys show [--account n] [--index n]   Show the owner key of a mnemonic
  hint --store <id> [--epoch n]         Show the collateral (or mirror) hint of a store
  balance                               Show token and native balances of the owner

  collateral create --store <id> --amount <amt> [--fee <amt>]
                                        Lock tokens as collateral for a store
  collateral list --store <id>          List collateral coins of a store
  mirror create --store <id> --amount <amt> --epoch <n> --url <u>... [--fee <amt>]
                                        Lock tokens as a mirror coin
  mirror list --store <id> --epoch <n>  List mirror coins of a store and epoch
  reclaim --store <id> --coin <id> [--fee <amt>]
                                        Spend a locked coin back to its owner
  classify --store <id> --coin <id>     Classify a coin as locked, token or neither

  simulator serve [--addr <host:port>] [--fee <amt>] [--memory]
                                        Serve the simulator over JSON-RPC
  simulator fund --amount <amt>         Create a native coin for the owner
  simulator mint --amount <amt>         Issue tokens to the owner

The owner mnemonic is read from $%s, or prompted for.
`, config.DefaultDataDir(), mnemonicEnv)
}

// loadConfig layers defaults, the config file and the flags.
func loadConfig(f *config.Flags) (*config.Config, error) {
	network := config.Mainnet
	if f.Network != "" {
		network = config.NetworkType(f.Network)
	}
	cfg := config.Default(network)
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	path := f.Config
	if path == "" {
		path = cfg.ConfigFile()
	}
	values, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}
	config.ApplyFlags(cfg, f)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadProtocol selects the protocol constants of the configured network.
func loadProtocol(cfg *config.Config) (config.ProtocolConfig, error) {
	if cfg.Network == config.Devnet {
		return config.DevnetProtocol(), nil
	}
	values, err := config.LoadFile(cfg.ProtocolFilePath())
	if err != nil {
		return config.ProtocolConfig{}, fmt.Errorf("load protocol %s: %w", cfg.ProtocolFilePath(), err)
	}
	p, err := config.LoadProtocol(cfg.Network, values)
	if err != nil {
		return config.ProtocolConfig{}, fmt.Errorf("protocol %s: %w", cfg.ProtocolFilePath(), err)
	}
	return p, nil
}

// connect opens the simulator or the peer client.
func (a *app) connect(cmd string, args []string) error {
	useSim := a.cfg.Simulator.Enabled || cmd == "simulator"
	if !useSim {
		a.peer = rpcclient.NewWithTimeout(a.cfg.RPC.Endpoint, a.cfg.RPC.Timeout)
		return nil
	}

	var db storage.DB
	if cmd == "simulator" && hasFlag(args, "memory") {
		db = storage.NewMemory()
	} else {
		dir := a.cfg.SimulatorDir()
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create simulator dir: %w", err)
		}
		bdb, err := storage.NewBadger(dir)
		if err != nil {
			return err
		}
		db = bdb
	}
	a.db = db
	a.sim = simulator.New(a.protocol, storage.NewPrefixDB(db, simulatorPrefix))
	a.peer = a.sim
	log.Ledger.Debug().Str("network", string(a.cfg.Network)).Msg("Using local simulator")
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "info":
		return a.cmdInfo(ctx)
	case "keys":
		return a.cmdKeys(args)
	case "hint":
		return a.cmdHint(args)
	case "balance":
		return a.cmdBalance(ctx, args)
	case "collateral":
		return a.cmdCollateral(ctx, args)
	case "mirror":
		return a.cmdMirror(ctx, args)
	case "reclaim":
		return a.cmdReclaim(ctx, args)
	case "classify":
		return a.cmdClassify(ctx, args)
	case "simulator":
		return a.cmdSimulator(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// hasFlag reports whether a boolean flag appears in args.
func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == "-"+name || arg == "--"+name || arg == "--"+name+"=true" {
			return true
		}
	}
	return false
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
