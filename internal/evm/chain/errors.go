package chain

import "errors"

var (
	// ErrNodeUnavailable reports a transport or connection failure to the chain node.
	ErrNodeUnavailable = errors.New("node unavailable")
	// ErrNotYetAvailable signals that the requested height is above the node's tip.
	// It is expected while tailing and is not a failure.
	ErrNotYetAvailable = errors.New("block not yet available")
	// ErrMalformedResponse reports node data that could not be decoded or normalized.
	ErrMalformedResponse = errors.New("malformed node response")
	// ErrStorageUnavailable reports a read or write failure against the ledger store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
