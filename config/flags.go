package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"
)

// ErrHelp is returned by ParseFlags when -h or --help was requested.
var ErrHelp = errors.New("help requested")

// Flags holds parsed global command-line flags.
type Flags struct {
	// Commands
	Version bool

	// Core
	Network      string
	DataDir      string
	Config       string
	ProtocolFile string

	// Peer
	RPC        string
	RPCTimeout time.Duration

	// Simulator
	Simulator     bool
	SimulatorPath string

	// Fees
	FeeTarget uint64

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args (subcommand and its arguments)
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetSimulator bool
	SetLogJSON   bool
}

// ParseFlags parses the global flags that precede a subcommand.
func ParseFlags(args []string, output io.Writer) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("digcoin-cli", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {} // Callers print their own usage on ErrHelp.

	// Commands
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet, testnet or devnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")
	fs.StringVar(&f.ProtocolFile, "protocol", "", "Protocol constants file path")

	// Peer
	fs.StringVar(&f.RPC, "rpc", "", "Peer JSON-RPC endpoint URL")
	fs.DurationVar(&f.RPCTimeout, "rpc-timeout", 0, "Peer request timeout")

	// Simulator
	fs.BoolVar(&f.Simulator, "simulator", false, "Use the local ledger simulator instead of a peer")
	fs.StringVar(&f.SimulatorPath, "simulator-path", "", "Simulator database directory (default: <datadir>/<network>/simulator)")

	// Fees
	fs.Uint64Var(&f.FeeTarget, "fee-target", 0, "Fee estimation confirmation target in seconds")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	f.SetSimulator = isFlagSet(fs, "simulator")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.ProtocolFile != "" {
		cfg.ProtocolFile = f.ProtocolFile
	}

	// Peer
	if f.RPC != "" {
		cfg.RPC.Endpoint = f.RPC
	}
	if f.RPCTimeout != 0 {
		cfg.RPC.Timeout = f.RPCTimeout
	}

	// Simulator
	if f.SetSimulator {
		cfg.Simulator.Enabled = f.Simulator
	}
	if f.SimulatorPath != "" {
		cfg.Simulator.Path = f.SimulatorPath
	}

	// Fees
	if f.FeeTarget != 0 {
		cfg.Fee.TargetSeconds = f.FeeTarget
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
