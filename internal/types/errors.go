package types

import "errors"

// Domain error kinds. Every rejection leaves state exactly as it was before
// the call; callers can branch on these with errors.Is.
var (
	// ErrInvalidRequest rejects malformed trade request input
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound rejects an unknown request or received-entry id
	ErrNotFound = errors.New("not found")
	// ErrAlreadyDecided rejects a decision on a request that already left
	// PENDING; the caller lost a race and should re-read
	ErrAlreadyDecided = errors.New("request already decided")
	// ErrSelfDealing rejects a company deciding on its own request
	ErrSelfDealing = errors.New("cannot decide on own request")
	// ErrInsufficientFunds rejects a settlement that would drive a balance
	// negative
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnknownAccount means a company id did not resolve to a balance
	// account; this is a data-integrity fault, not a business rejection
	ErrUnknownAccount = errors.New("unknown account")
)
