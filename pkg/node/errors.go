package node

import "errors"

var (
	// ErrBusy indicates a send is already pending on the session.
	ErrBusy = errors.New("node: transmit busy")
)
