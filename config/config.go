// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol constants: asset id, namespace tags, puzzle mods and the
//     signature domain. Immutable, must match every other implementation
//     of the protocol, selected once at start for the target network.
//   - Client settings: where the peer is, where the simulator keeps its
//     data, logging. These can vary per installation.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies the target network.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	Devnet  NetworkType = "devnet"
)

// =============================================================================
// Client Configuration (runtime settings)
// =============================================================================

// Config holds client runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// ProtocolFile holds the protocol constants for mainnet/testnet.
	// Empty means <datadir>/<network>/protocol.conf.
	ProtocolFile string `conf:"protocol.file"`

	// Peer (JSON-RPC endpoint of a full node or wallet service)
	RPC RPCConfig

	// Local ledger simulator (devnet/offline use)
	Simulator SimulatorConfig

	// JSON-RPC server in front of the simulator
	Serve ServeConfig

	// Fees
	Fee FeeConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds peer client settings.
type RPCConfig struct {
	Endpoint string        `conf:"rpc.endpoint"`
	Timeout  time.Duration `conf:"rpc.timeout"`
}

// SimulatorConfig holds settings for the in-process ledger.
type SimulatorConfig struct {
	Enabled bool   `conf:"simulator.enabled"`
	Path    string `conf:"simulator.path"` // Empty = <datadir>/<network>/simulator.
}

// ServeConfig holds settings for serving the simulator over JSON-RPC.
type ServeConfig struct {
	Addr        string   `conf:"serve.addr"`
	AllowedIPs  []string `conf:"serve.allowed_ips"`  // Empty = allow all.
	CORSOrigins []string `conf:"serve.cors_origins"` // Empty = no CORS headers.
}

// FeeConfig holds fee estimation settings.
type FeeConfig struct {
	TargetSeconds uint64 `conf:"fee.target"` // Confirmation target passed to estimateFee.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.dig-collateral
//	macOS:   ~/Library/Application Support/DigCollateral
//	Windows: %APPDATA%\DigCollateral
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dig-collateral"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "DigCollateral")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "DigCollateral")
		}
		return filepath.Join(home, "AppData", "Roaming", "DigCollateral")
	default:
		return filepath.Join(home, ".dig-collateral")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// SimulatorDir returns the simulator database directory.
func (c *Config) SimulatorDir() string {
	if c.Simulator.Path != "" {
		return c.Simulator.Path
	}
	return filepath.Join(c.NetworkDataDir(), "simulator")
}

// ProtocolFilePath returns the protocol constants file path.
func (c *Config) ProtocolFilePath() string {
	if c.ProtocolFile != "" {
		return c.ProtocolFile
	}
	return filepath.Join(c.NetworkDataDir(), "protocol.conf")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "dig-collateral.conf")
}
