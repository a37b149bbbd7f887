package core

import "errors"

// Frame is a raw serialized message.
type Frame []byte

var (
	ErrConnClosed   = errors.New("connection closed")
	ErrBackpressure = errors.New("backpressure")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks; it returns ErrConnClosed or ErrBackpressure.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

type Role string

const (
	RoleTV     Role = "tv"
	RoleMobile Role = "mobile"
)
