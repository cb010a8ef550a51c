package simulator

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/internal/storage"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// Key prefixes for the coin store.
var (
	prefixCoin  = []byte("c/") // c/<coin id> -> coin record JSON
	prefixSpend = []byte("s/") // s/<coin id> -> coin spend JSON
	prefixHint  = []byte("h/") // h/<hint><coin id> -> empty (hint index)
	keyHeight   = []byte("m/height")
	keyNonce    = []byte("m/nonce")
)

// coinRecord is the stored form of a coin state.
type coinRecord struct {
	Coin          types.Coin `json:"coin"`
	CreatedHeight uint32     `json:"created_height"`
	SpentHeight   *uint32    `json:"spent_height,omitempty"`
}

func (r *coinRecord) state() types.CoinState {
	created := r.CreatedHeight
	return types.CoinState{Coin: r.Coin, CreatedHeight: &created, SpentHeight: r.SpentHeight}
}

func coinKey(id types.Hash) []byte {
	return append(append([]byte{}, prefixCoin...), id[:]...)
}

func spendKey(id types.Hash) []byte {
	return append(append([]byte{}, prefixSpend...), id[:]...)
}

// hintKey builds a hint index key: "h/" + hint(32) + coin id(32).
func hintKey(hint, id types.Hash) []byte {
	key := make([]byte, len(prefixHint)+2*types.HashSize)
	copy(key, prefixHint)
	copy(key[len(prefixHint):], hint[:])
	copy(key[len(prefixHint)+types.HashSize:], id[:])
	return key
}

// store reads and writes simulator state in a storage.DB.
type store struct {
	db storage.DB
}

func (s *store) coin(id types.Hash) (*coinRecord, error) {
	data, err := s.db.Get(coinKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrCoinNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("coin get: %w", err)
	}
	var r coinRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("coin unmarshal: %w", err)
	}
	return &r, nil
}

func (s *store) spend(id types.Hash) (*spend.CoinSpend, error) {
	data, err := s.db.Get(spendKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrCoinUnspent, id)
	}
	if err != nil {
		return nil, fmt.Errorf("spend get: %w", err)
	}
	var cs spend.CoinSpend
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("spend unmarshal: %w", err)
	}
	return &cs, nil
}

// byHint returns the records indexed under hint, oldest first.
func (s *store) byHint(hint types.Hash) ([]*coinRecord, error) {
	prefix := append(append([]byte{}, prefixHint...), hint[:]...)
	var ids []types.Hash
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		id, err := types.BytesToHash(key[len(prefix):])
		if err != nil {
			return fmt.Errorf("bad hint key: %w", err)
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*coinRecord, 0, len(ids))
	for _, id := range ids {
		r, err := s.coin(id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedHeight != out[j].CreatedHeight {
			return out[i].CreatedHeight < out[j].CreatedHeight
		}
		a, b := out[i].Coin.ID(), out[j].Coin.ID()
		return string(a[:]) < string(b[:])
	})
	return out, nil
}

func (s *store) counter(key []byte) (uint32, error) {
	data, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("bad counter %q", key)
	}
	return binary.BigEndian.Uint32(data), nil
}

func counterValue(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// putCoin queues a new coin and its hint index entry.
func putCoin(b storage.Batch, r *coinRecord, hint *types.Hash) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("coin marshal: %w", err)
	}
	id := r.Coin.ID()
	if err := b.Put(coinKey(id), data); err != nil {
		return err
	}
	if hint != nil {
		return b.Put(hintKey(*hint, id), []byte{})
	}
	return nil
}

// putSpend queues a spent coin record and the spend that consumed it.
func putSpend(b storage.Batch, r *coinRecord, cs spend.CoinSpend) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("coin marshal: %w", err)
	}
	id := r.Coin.ID()
	if err := b.Put(coinKey(id), data); err != nil {
		return err
	}
	sdata, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("spend marshal: %w", err)
	}
	return b.Put(spendKey(id), sdata)
}
