package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	// Serialized puzzle mods can be long single lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
// Protocol keys are left to ApplyProtocolValues.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a client config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value
	case "protocol.file":
		cfg.ProtocolFile = value

	// Peer
	case "rpc.endpoint", "rpc":
		cfg.RPC.Endpoint = value
	case "rpc.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.RPC.Timeout = d

	// Simulator
	case "simulator.enabled", "simulator":
		cfg.Simulator.Enabled = parseBool(value)
	case "simulator.path":
		cfg.Simulator.Path = value

	// Serve
	case "serve.addr":
		cfg.Serve.Addr = value
	case "serve.allowed_ips":
		cfg.Serve.AllowedIPs = splitList(value)
	case "serve.cors_origins":
		cfg.Serve.CORSOrigins = splitList(value)

	// Fees
	case "fee.target":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Fee.TargetSeconds = n

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// WriteDefaultConfig writes a default client configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# DIG collateral coin client configuration
#
# This file contains CLIENT settings only.
# Protocol constants (asset id, namespace tags, puzzle mods) live in the
# protocol file and must match the live network.

# Network: mainnet, testnet or devnet
network = ` + string(network) + `

# Data directory (default: ~/.dig-collateral)
# datadir = ~/.dig-collateral

# Protocol constants file (default: <datadir>/<network>/protocol.conf)
# protocol.file =

# ============================================================================
# Peer
# ============================================================================

rpc.endpoint = ` + cfg.RPC.Endpoint + `
rpc.timeout = 10s

# ============================================================================
# Local simulator (devnet / offline testing)
# ============================================================================

simulator.enabled = ` + strconv.FormatBool(cfg.Simulator.Enabled) + `
# simulator.path =

# Address for "digcoin-cli simulator serve"
serve.addr = ` + cfg.Serve.Addr + `
# serve.allowed_ips = 127.0.0.1, 10.0.0.0/8
# serve.cors_origins =

# ============================================================================
# Fees
# ============================================================================

# Confirmation target in seconds used for fee estimation
fee.target = 300

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
