package config

import "time"

// DefaultMainnet returns the default client configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Endpoint: "http://127.0.0.1:9256",
			Timeout:  10 * time.Second,
		},
		Simulator: SimulatorConfig{
			Enabled: false,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:9258",
		},
		Fee: FeeConfig{
			TargetSeconds: 300,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default client configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.RPC.Endpoint = "http://127.0.0.1:9257"
	return cfg
}

// DefaultDevnet returns the default client configuration for the local
// simulator network.
func DefaultDevnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Devnet
	cfg.RPC.Endpoint = ""
	cfg.Simulator.Enabled = true
	return cfg
}

// Default returns the default client configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Devnet:
		return DefaultDevnet()
	default:
		return DefaultMainnet()
	}
}
