package config

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
)

// Validate checks client config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Mainnet, Testnet, Devnet:
	default:
		return fmt.Errorf("network must be %q, %q or %q", Mainnet, Testnet, Devnet)
	}
	if !cfg.Simulator.Enabled {
		if cfg.RPC.Endpoint == "" {
			return fmt.Errorf("rpc.endpoint is required unless simulator.enabled is set")
		}
		u, err := url.Parse(cfg.RPC.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("rpc.endpoint must be an http(s) URL")
		}
	}
	if cfg.RPC.Timeout < 0 {
		return fmt.Errorf("rpc.timeout must not be negative")
	}
	if cfg.Serve.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Serve.Addr); err != nil {
			return fmt.Errorf("serve.addr must be host:port: %w", err)
		}
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}

// ValidateProtocol checks that every protocol constant is present. It
// does not (and cannot) check that the values match the live protocol.
func ValidateProtocol(p ProtocolConfig) error {
	if p.AssetID.IsZero() {
		return fmt.Errorf("protocol.asset_id is required")
	}
	if len(p.CollateralTag) == 0 {
		return fmt.Errorf("protocol.collateral_tag is required")
	}
	if len(p.MirrorTag) == 0 {
		return fmt.Errorf("protocol.mirror_tag is required")
	}
	if bytes.Equal(p.CollateralTag, p.MirrorTag) {
		return fmt.Errorf("protocol.collateral_tag and protocol.mirror_tag must differ")
	}
	if p.StandardMod.Hash.IsZero() {
		return fmt.Errorf("protocol.standard_mod is required")
	}
	if p.TokenMod.Hash.IsZero() {
		return fmt.Errorf("protocol.token_mod is required")
	}
	if p.ParentLockMod.Hash.IsZero() {
		return fmt.Errorf("protocol.parent_lock_mod is required")
	}
	if p.HiddenPuzzleHash.IsZero() {
		return fmt.Errorf("protocol.hidden_puzzle_hash is required")
	}
	if p.GenesisChallenge.IsZero() {
		return fmt.Errorf("protocol.genesis_challenge is required")
	}
	if p.UseAltSignatureDomain && p.AltGenesisChallenge.IsZero() {
		return fmt.Errorf("protocol.alt_genesis_challenge is required when the alternate signature domain is used")
	}
	return nil
}
