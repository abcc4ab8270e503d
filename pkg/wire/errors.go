package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress indicates the packet is addressed to neither this node
	// nor the broadcast group.
	ErrInvalidAddress = errors.New("wire: invalid address")
	// ErrInvalidLength indicates the declared payload length exceeds MaxPayloadSize.
	ErrInvalidLength = errors.New("wire: invalid length")
	// ErrChecksumMismatch indicates the received checksum doesn't match the content.
	ErrChecksumMismatch = errors.New("wire: checksum mismatch")

	// ErrInvalidPayload indicates a payload that is odd-sized or too large to send.
	ErrInvalidPayload = errors.New("wire: invalid payload")
	// ErrReservedWord indicates an address or payload word equal to the terminator.
	ErrReservedWord = errors.New("wire: terminator in packet data")
)

// RejectError reports why a received packet was dropped.
type RejectError struct {
	Reason error
	Detail string
}

// Error implements error.
func (e *RejectError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%v: %s", e.Reason, e.Detail)
}

// Unwrap returns the reason so errors.Is matches the sentinel errors.
func (e *RejectError) Unwrap() error {
	return e.Reason
}

func reject(reason error, format string, args ...interface{}) error {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
