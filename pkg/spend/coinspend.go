package spend

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// CoinSpend reveals a coin's puzzle and supplies its solution.
type CoinSpend struct {
	Coin         types.Coin
	PuzzleReveal *program.Program
	Solution     *program.Program
}

// coinSpendJSON is the JSON representation of CoinSpend with hex-encoded programs.
type coinSpendJSON struct {
	Coin         types.Coin `json:"coin"`
	PuzzleReveal string     `json:"puzzle_reveal"`
	Solution     string     `json:"solution"`
}

// MarshalJSON encodes the spend with hex-serialized programs.
func (cs CoinSpend) MarshalJSON() ([]byte, error) {
	return json.Marshal(coinSpendJSON{
		Coin:         cs.Coin,
		PuzzleReveal: cs.PuzzleReveal.Hex(),
		Solution:     cs.Solution.Hex(),
	})
}

// UnmarshalJSON decodes a spend with hex-serialized programs.
func (cs *CoinSpend) UnmarshalJSON(data []byte) error {
	var j coinSpendJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	puzzle, err := program.FromHex(j.PuzzleReveal)
	if err != nil {
		return fmt.Errorf("puzzle reveal: %w", err)
	}
	solution, err := program.FromHex(j.Solution)
	if err != nil {
		return fmt.Errorf("solution: %w", err)
	}
	cs.Coin = j.Coin
	cs.PuzzleReveal = puzzle
	cs.Solution = solution
	return nil
}

// Coupling records that two otherwise independent spends assert each
// other with ASSERT_CONCURRENT_SPEND, so neither is valid on chain unless
// both are in the same transaction.
type Coupling struct {
	PrimaryCoinID types.Hash `json:"primary_coin_id"`
	FeeCoinID     types.Hash `json:"fee_coin_id"`
}

// SpendSet is an unsigned, ordered list of coin spends: primary spends
// first, fee spends last. Coupling is nil when no fee spend is present.
type SpendSet struct {
	CoinSpends []CoinSpend `json:"coin_spends"`
	Coupling   *Coupling   `json:"coupling,omitempty"`
}

// Removals returns the coins consumed by the set, in spend order.
func (s *SpendSet) Removals() []types.Coin {
	out := make([]types.Coin, len(s.CoinSpends))
	for i, cs := range s.CoinSpends {
		out[i] = cs.Coin
	}
	return out
}

// Signature is one Schnorr signature over an AGG_SIG_ME requirement.
type Signature struct {
	PublicKey []byte `json:"public_key"`
	Message   []byte `json:"message"`
	Signature []byte `json:"signature"`
}

// signatureJSON is the JSON representation of Signature with hex-encoded bytes.
type signatureJSON struct {
	PublicKey string `json:"public_key"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// MarshalJSON encodes the signature fields as hex strings.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureJSON{
		PublicKey: hex.EncodeToString(s.PublicKey),
		Message:   hex.EncodeToString(s.Message),
		Signature: hex.EncodeToString(s.Signature),
	})
}

// UnmarshalJSON decodes hex-encoded signature fields.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var j signatureJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var err error
	if s.PublicKey, err = hex.DecodeString(j.PublicKey); err != nil {
		return fmt.Errorf("public key: %w", err)
	}
	if s.Message, err = hex.DecodeString(j.Message); err != nil {
		return fmt.Errorf("message: %w", err)
	}
	if s.Signature, err = hex.DecodeString(j.Signature); err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	return nil
}

// SpendBundle is a signed spend set, submitted as one transaction.
type SpendBundle struct {
	CoinSpends []CoinSpend `json:"coin_spends"`
	Signatures []Signature `json:"signatures"`
}

// ID returns the BLAKE3 hash of the bundle's canonical bytes.
func (b *SpendBundle) ID() types.Hash {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.CoinSpends)))
	for _, cs := range b.CoinSpends {
		id := cs.Coin.ID()
		buf = append(buf, id[:]...)
		buf = appendBytes(buf, cs.PuzzleReveal.Serialize())
		buf = appendBytes(buf, cs.Solution.Serialize())
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Signatures)))
	for _, s := range b.Signatures {
		buf = appendBytes(buf, s.PublicKey)
		buf = appendBytes(buf, s.Message)
		buf = appendBytes(buf, s.Signature)
	}
	return crypto.Hash(buf)
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}
