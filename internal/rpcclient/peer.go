package rpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/internal/rpc"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

var _ ledger.Peer = (*Client)(nil)

// Unwrap maps peer error codes onto the ledger error kinds, so callers
// can match them with errors.Is and still see the peer's message.
func (e *RPCError) Unwrap() error {
	switch e.Code {
	case rpc.CodeNotFound:
		return ledger.ErrCoinNotFound
	case rpc.CodeCoinUnspent:
		return ledger.ErrCoinUnspent
	case rpc.CodeRejected:
		return ledger.ErrRejected
	default:
		return nil
	}
}

// Info returns the peer's network, asset id and height.
func (c *Client) Info(ctx context.Context) (*rpc.InfoResult, error) {
	var res rpc.InfoResult
	if err := c.CallContext(ctx, rpc.MethodGetInfo, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CoinStateByID implements ledger.Lookup.
func (c *Client) CoinStateByID(ctx context.Context, id types.Hash) (*types.CoinState, error) {
	var cs types.CoinState
	if err := c.CallContext(ctx, rpc.MethodGetCoinState, rpc.HashParam{Hash: id.String()}, &cs); err != nil {
		return nil, err
	}
	if cs.Coin.ID() != id {
		return nil, fmt.Errorf("peer returned coin %s for %s", cs.Coin.ID(), id)
	}
	return &cs, nil
}

// CoinStatesByHint implements ledger.Lookup.
func (c *Client) CoinStatesByHint(ctx context.Context, hint types.Hash) ([]types.CoinState, error) {
	var states []types.CoinState
	if err := c.CallContext(ctx, rpc.MethodGetCoinsByHint, rpc.HashParam{Hash: hint.String()}, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// PuzzleAndSolution implements ledger.Lookup.
func (c *Client) PuzzleAndSolution(ctx context.Context, coinID types.Hash) (*spend.CoinSpend, error) {
	var cs spend.CoinSpend
	if err := c.CallContext(ctx, rpc.MethodGetPuzzleAndSolution, rpc.HashParam{Hash: coinID.String()}, &cs); err != nil {
		return nil, err
	}
	if cs.PuzzleReveal == nil || cs.Solution == nil {
		return nil, errors.New("peer returned an incomplete coin spend")
	}
	return &cs, nil
}

// EstimateFee implements ledger.Peer.
func (c *Client) EstimateFee(ctx context.Context, targetSeconds uint64) (uint64, error) {
	var res rpc.FeeResult
	if err := c.CallContext(ctx, rpc.MethodEstimateFee, rpc.FeeParam{TargetSeconds: targetSeconds}, &res); err != nil {
		return 0, err
	}
	return res.Fee, nil
}

// Broadcast implements ledger.Peer.
func (c *Client) Broadcast(ctx context.Context, bundle *spend.SpendBundle) (types.Hash, error) {
	var res rpc.PushResult
	if err := c.CallContext(ctx, rpc.MethodPushBundle, rpc.BundleParam{Bundle: bundle}, &res); err != nil {
		return types.Hash{}, err
	}
	id, err := types.HexToHash(res.BundleID)
	if err != nil {
		return types.Hash{}, fmt.Errorf("bundle id: %w", err)
	}
	return id, nil
}
