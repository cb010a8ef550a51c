package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// =============================================================================
// Protocol Constants (immutable, shared with every implementation)
// These MUST match the live protocol or coins will not be found and
// spends will be rejected.
// =============================================================================

// Mod is a puzzle module: its tree hash and, when available, the program
// itself. The hash alone is enough to derive puzzle hashes and recognize
// coins; building spends needs the program for the puzzle reveal.
type Mod struct {
	Hash    types.Hash
	Program *program.Program
}

// NewMod returns a Mod for a known program.
func NewMod(p *program.Program) Mod {
	return Mod{Hash: p.TreeHash(), Program: p}
}

// HasProgram reports whether the mod's program is available.
func (m Mod) HasProgram() bool {
	return m.Program != nil
}

// ProtocolConfig holds the protocol constants. It is a value: select one
// at start for the target network and pass it to every entry point.
type ProtocolConfig struct {
	Network NetworkType

	// AssetID is the token-layer asset identifier of the restricted token.
	AssetID types.Hash

	// Domain separation tags for namespace morphing.
	CollateralTag []byte
	MirrorTag     []byte

	// Puzzle modules.
	StandardMod   Mod // Owner layer, curried with a synthetic public key.
	TokenMod      Mod // Token layer, curried with (mod hash, asset id, inner).
	ParentLockMod Mod // Parent-lock layer, curried with (hint, owner inner puzzle hash).

	// HiddenPuzzleHash is the hidden puzzle used for synthetic keys.
	HiddenPuzzleHash types.Hash

	// Signature domains appended to every AGG_SIG_ME message.
	GenesisChallenge    types.Hash
	AltGenesisChallenge types.Hash

	// UseAltSignatureDomain selects AltGenesisChallenge by default.
	UseAltSignatureDomain bool
}

// SignatureDomain returns the additional data appended to AGG_SIG_ME
// messages for the chosen domain.
func (p ProtocolConfig) SignatureDomain(alt bool) types.Hash {
	if alt {
		return p.AltGenesisChallenge
	}
	return p.GenesisChallenge
}

// DevnetProtocol returns the constants for the local simulator network.
// The puzzle mods are placeholder programs: they give the simulator and
// the tests a self-consistent protocol, and must never be used against a
// live network.
func DevnetProtocol() ProtocolConfig {
	return ProtocolConfig{
		Network:               Devnet,
		AssetID:               crypto.Sha256([]byte("dig/devnet/asset")),
		CollateralTag:         []byte("DIG_COLLATERAL"),
		MirrorTag:             []byte("DIG_MIRROR"),
		StandardMod:           NewMod(program.List(program.String("dig/devnet/p2_standard"))),
		TokenMod:              NewMod(program.List(program.String("dig/devnet/token_layer"))),
		ParentLockMod:         NewMod(program.List(program.String("dig/devnet/p2_parent"))),
		HiddenPuzzleHash:      program.List(program.Int(8)).TreeHash(),
		GenesisChallenge:      crypto.Sha256([]byte("dig/devnet/genesis")),
		AltGenesisChallenge:   crypto.Sha256([]byte("dig/devnet/genesis/alt")),
		UseAltSignatureDomain: false,
	}
}

// LoadProtocol returns the protocol constants for a network. Devnet uses
// the built-in placeholder constants; mainnet and testnet take every
// constant from the given key/value set (see ApplyProtocolValues) and are
// validated before being returned.
func LoadProtocol(network NetworkType, values map[string]string) (ProtocolConfig, error) {
	var p ProtocolConfig
	switch network {
	case Devnet:
		p = DevnetProtocol()
	case Mainnet:
		p = ProtocolConfig{Network: Mainnet}
	case Testnet:
		p = ProtocolConfig{Network: Testnet, UseAltSignatureDomain: true}
	default:
		return ProtocolConfig{}, fmt.Errorf("unknown network %q", network)
	}
	if err := ApplyProtocolValues(&p, values); err != nil {
		return ProtocolConfig{}, err
	}
	if err := ValidateProtocol(p); err != nil {
		return ProtocolConfig{}, err
	}
	return p, nil
}

// ApplyProtocolValues sets protocol constants from "protocol.*" keys.
// Other keys are ignored. Mods accept either a serialized program
// ("protocol.token_mod") or just its tree hash ("protocol.token_mod_hash").
func ApplyProtocolValues(p *ProtocolConfig, values map[string]string) error {
	for key, value := range values {
		if !strings.HasPrefix(key, "protocol.") {
			continue
		}
		if err := setProtocolValue(p, key, value); err != nil {
			return fmt.Errorf("protocol key %q: %w", key, err)
		}
	}
	return nil
}

func setProtocolValue(p *ProtocolConfig, key, value string) error {
	var err error
	switch key {
	case "protocol.asset_id":
		p.AssetID, err = types.HexToHash(value)
	case "protocol.collateral_tag":
		p.CollateralTag, err = parseTag(value)
	case "protocol.mirror_tag":
		p.MirrorTag, err = parseTag(value)
	case "protocol.standard_mod":
		p.StandardMod, err = parseMod(value)
	case "protocol.standard_mod_hash":
		p.StandardMod, err = parseModHash(value)
	case "protocol.token_mod":
		p.TokenMod, err = parseMod(value)
	case "protocol.token_mod_hash":
		p.TokenMod, err = parseModHash(value)
	case "protocol.parent_lock_mod":
		p.ParentLockMod, err = parseMod(value)
	case "protocol.parent_lock_mod_hash":
		p.ParentLockMod, err = parseModHash(value)
	case "protocol.hidden_puzzle_hash":
		p.HiddenPuzzleHash, err = types.HexToHash(value)
	case "protocol.genesis_challenge":
		p.GenesisChallenge, err = types.HexToHash(value)
	case "protocol.alt_genesis_challenge":
		p.AltGenesisChallenge, err = types.HexToHash(value)
	case "protocol.alt_signature_domain":
		p.UseAltSignatureDomain = parseBool(value)
	default:
		// Unknown keys are ignored
	}
	return err
}

// parseTag accepts "hex:<bytes>" or a plain UTF-8 string.
func parseTag(value string) ([]byte, error) {
	if strings.HasPrefix(value, "hex:") {
		b, err := hex.DecodeString(value[len("hex:"):])
		if err != nil {
			return nil, fmt.Errorf("invalid hex tag: %w", err)
		}
		return b, nil
	}
	return []byte(value), nil
}

func parseMod(value string) (Mod, error) {
	p, err := program.FromHex(value)
	if err != nil {
		return Mod{}, err
	}
	return NewMod(p), nil
}

func parseModHash(value string) (Mod, error) {
	h, err := types.HexToHash(value)
	if err != nil {
		return Mod{}, err
	}
	return Mod{Hash: h}, nil
}
