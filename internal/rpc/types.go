package rpc

import (
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeCoinUnspent    = -32001
	CodeRejected       = -32002
)

// Method names.
const (
	MethodGetInfo              = "chain_getInfo"
	MethodGetCoinState         = "coin_getState"
	MethodGetCoinsByHint       = "coin_getByHint"
	MethodGetPuzzleAndSolution = "coin_getPuzzleAndSolution"
	MethodEstimateFee          = "fee_estimate"
	MethodPushBundle           = "bundle_push"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// HashParam is used by endpoints that take a coin id or a hint.
type HashParam struct {
	Hash string `json:"hash"`
}

// FeeParam is used by fee_estimate.
type FeeParam struct {
	TargetSeconds uint64 `json:"target_seconds"`
}

// BundleParam is used by bundle_push.
type BundleParam struct {
	Bundle *spend.SpendBundle `json:"bundle"`
}

// ── Result types ────────────────────────────────────────────────────────

// InfoResult is returned by chain_getInfo.
type InfoResult struct {
	Network string `json:"network"`
	AssetID string `json:"asset_id"`
	Height  uint32 `json:"height"`
}

// FeeResult is returned by fee_estimate.
type FeeResult struct {
	Fee uint64 `json:"fee"`
}

// PushResult is returned by bundle_push.
type PushResult struct {
	BundleID string `json:"bundle_id"`
}
