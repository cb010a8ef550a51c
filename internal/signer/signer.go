// Package signer turns an unsigned spend set into a signed spend bundle.
package signer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
)

// ErrMissingKey is returned when no supplied key matches an AGG_SIG_ME.
var ErrMissingKey = errors.New("no key for required signature")

// Signer signs spend sets for one protocol.
type Signer struct {
	protocol config.ProtocolConfig
}

// New returns a Signer for protocol p.
func New(p config.ProtocolConfig) *Signer {
	return &Signer{protocol: p}
}

// Message returns the bytes an AGG_SIG_ME signs: the condition's message,
// the spent coin id and the signature domain.
func Message(p config.ProtocolConfig, msg []byte, cs spend.CoinSpend, useAltSignatureDomain bool) []byte {
	id := cs.Coin.ID()
	domain := p.SignatureDomain(useAltSignatureDomain)
	out := make([]byte, 0, len(msg)+len(id)+len(domain))
	out = append(out, msg...)
	out = append(out, id[:]...)
	return append(out, domain[:]...)
}

// Sign signs every AGG_SIG_ME the set's spends output, in spend order,
// with the key whose public key the condition names. Keys are synthetic
// private keys. The set is not modified.
func (s *Signer) Sign(set *spend.SpendSet, keys []*crypto.PrivateKey, useAltSignatureDomain bool) (*spend.SpendBundle, error) {
	bundle := &spend.SpendBundle{CoinSpends: append([]spend.CoinSpend(nil), set.CoinSpends...)}

	for _, cs := range set.CoinSpends {
		conds, err := driver.Conditions(s.protocol, cs)
		if err != nil {
			return nil, fmt.Errorf("conditions of %s: %w", cs.Coin.ID(), err)
		}
		for _, c := range conds {
			if c.Opcode != spend.AggSigMe {
				continue
			}
			pk, err := c.BytesArg(0)
			if err != nil {
				return nil, fmt.Errorf("AGG_SIG_ME public key: %w", err)
			}
			msg, err := c.BytesArg(1)
			if err != nil {
				return nil, fmt.Errorf("AGG_SIG_ME message: %w", err)
			}
			key := findKey(keys, pk)
			if key == nil {
				return nil, fmt.Errorf("%w: %x", ErrMissingKey, pk)
			}
			full := Message(s.protocol, msg, cs, useAltSignatureDomain)
			digest := crypto.Hash(full)
			sig, err := key.Sign(digest[:])
			if err != nil {
				return nil, err
			}
			bundle.Signatures = append(bundle.Signatures, spend.Signature{
				PublicKey: pk,
				Message:   full,
				Signature: sig,
			})
		}
	}
	return bundle, nil
}

func findKey(keys []*crypto.PrivateKey, pk []byte) *crypto.PrivateKey {
	for _, k := range keys {
		if bytes.Equal(k.PublicKey(), pk) {
			return k
		}
	}
	return nil
}
