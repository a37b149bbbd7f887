package app

import (
	"errors"

	"github.com/dkeye/Karaoke/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what the broadcaster does with a socket whose send failed.
type Policy interface {
	OnSendFailure(role core.Role, err error) BackpressureAction
}

// SimplePolicy prunes every failing socket. Closed sockets are pruned by any policy.
type SimplePolicy struct{}

func (SimplePolicy) OnSendFailure(role core.Role, err error) BackpressureAction {
	return KickMember
}

// TolerantPolicy keeps slow sockets and only drops the frame.
type TolerantPolicy struct{}

func (TolerantPolicy) OnSendFailure(role core.Role, err error) BackpressureAction {
	if errors.Is(err, core.ErrBackpressure) {
		return DropFrame
	}
	return KickMember
}
