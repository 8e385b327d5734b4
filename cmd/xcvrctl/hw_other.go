//go:build !linux

package main

import (
	"errors"

	"xcvrswitch.dev/mgmt"
)

// newHWHandles stubs out --hw on non-Linux hosts: the real facade needs
// go-gpiocdev's character-device ioctls and a Linux eventfd, neither of
// which exist here.
func newHWHandles(busName string, muxAddr, xcvrAddr uint16, chipPath string, intrOffset int, onInterrupt func()) (facade any, sem mgmt.WakeSemaphore, closeFn func(), err error) {
	return nil, nil, nil, errors.New("xcvrctl: --hw requires linux (periph.io i2c bus + go-gpiocdev port interrupt)")
}
