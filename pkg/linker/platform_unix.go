//go:build !windows

package linker

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

const junctionsSupported = false

var errCrossDevice error = unix.EXDEV

func isCrossDevice(err error) bool {
	return errors.Is(err, errCrossDevice)
}

func isPrivilegeError(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

func createJunction(link, target string) error {
	return errors.New("junctions are not supported on this platform")
}
