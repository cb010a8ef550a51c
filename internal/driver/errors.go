// Package driver builds and parses the three puzzle layers used by DIG
// coins: the standard owner layer, the token layer and the parent-lock
// layer. It derives puzzle hashes from protocol constants and computes
// the conditions a spend outputs without running the puzzles.
package driver

import "errors"

// Recognition and spend construction errors. Callers match them with
// errors.Is; the wrapping message carries the detail.
var (
	ErrUnknownCoin        = errors.New("unknown coin")
	ErrPuzzleHashMismatch = errors.New("puzzle hash mismatch")
	ErrAssetMismatch      = errors.New("asset id mismatch")
	ErrCoinIsAlreadySpent = errors.New("coin is already spent")
	ErrMalformedMemo      = errors.New("malformed memo")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNotOwner           = errors.New("key does not own coin")
)

// Driver errors.
var (
	ErrModUnavailable = errors.New("puzzle mod program not configured")
	ErrUnknownPuzzle  = errors.New("unknown puzzle")
	ErrBadSolution    = errors.New("bad solution")
	ErrUnbalanced     = errors.New("token spends do not balance")
)
