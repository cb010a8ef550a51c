package rpc

import (
	"context"
	"errors"

	"github.com/DIG-Network/dig-collateral-coin/internal/ledger"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// heightSource is implemented by ledgers that can report their height.
type heightSource interface {
	Height() (uint32, error)
}

func (s *Server) handleGetInfo(_ context.Context, _ *Request) (interface{}, *Error) {
	res := InfoResult{
		Network: string(s.protocol.Network),
		AssetID: s.protocol.AssetID.String(),
	}
	if hs, ok := s.peer.(heightSource); ok {
		h, err := hs.Height()
		if err != nil {
			return nil, ledgerError(err)
		}
		res.Height = h
	}
	return res, nil
}

func (s *Server) handleGetCoinState(ctx context.Context, req *Request) (interface{}, *Error) {
	id, rpcErr := hashParam(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	cs, err := s.peer.CoinStateByID(ctx, id)
	if err != nil {
		return nil, ledgerError(err)
	}
	return cs, nil
}

func (s *Server) handleGetCoinsByHint(ctx context.Context, req *Request) (interface{}, *Error) {
	hint, rpcErr := hashParam(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	states, err := s.peer.CoinStatesByHint(ctx, hint)
	if err != nil {
		return nil, ledgerError(err)
	}
	if states == nil {
		states = []types.CoinState{}
	}
	return states, nil
}

func (s *Server) handleGetPuzzleAndSolution(ctx context.Context, req *Request) (interface{}, *Error) {
	id, rpcErr := hashParam(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	cs, err := s.peer.PuzzleAndSolution(ctx, id)
	if err != nil {
		return nil, ledgerError(err)
	}
	return cs, nil
}

func (s *Server) handleEstimateFee(ctx context.Context, req *Request) (interface{}, *Error) {
	var p FeeParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	fee, err := s.peer.EstimateFee(ctx, p.TargetSeconds)
	if err != nil {
		return nil, ledgerError(err)
	}
	return FeeResult{Fee: fee}, nil
}

func (s *Server) handlePushBundle(ctx context.Context, req *Request) (interface{}, *Error) {
	var p BundleParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Bundle == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "bundle is required"}
	}
	id, err := s.peer.Broadcast(ctx, p.Bundle)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Bundle rejected")
		return nil, ledgerError(err)
	}
	s.logger.Info().Str("bundle", id.String()).Int("spends", len(p.Bundle.CoinSpends)).Msg("Bundle accepted")
	return PushResult{BundleID: id.String()}, nil
}

// hashParam parses a HashParam and its 32-byte hex hash.
func hashParam(req *Request) (types.Hash, *Error) {
	var p HashParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return types.Hash{}, rpcErr
	}
	h, err := types.HexToHash(p.Hash)
	if err != nil {
		return types.Hash{}, &Error{Code: CodeInvalidParams, Message: "invalid hash: must be 32-byte hex"}
	}
	return h, nil
}

// ledgerError maps ledger errors to JSON-RPC error codes.
func ledgerError(err error) *Error {
	switch {
	case errors.Is(err, ledger.ErrCoinNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, ledger.ErrCoinUnspent):
		return &Error{Code: CodeCoinUnspent, Message: err.Error()}
	case errors.Is(err, ledger.ErrRejected):
		return &Error{Code: CodeRejected, Message: err.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
}
