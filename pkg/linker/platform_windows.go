//go:build windows

package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"golang.org/x/sys/windows"
)

const junctionsSupported = true

var errCrossDevice error = windows.ERROR_NOT_SAME_DEVICE

func isCrossDevice(err error) bool {
	return errors.Is(err, errCrossDevice)
}

func isPrivilegeError(err error) bool {
	return errors.Is(err, windows.ERROR_PRIVILEGE_NOT_HELD) || errors.Is(err, fs.ErrPermission)
}

// createJunction shells out to mklink, which needs no special privilege
// for directory junctions
func createJunction(link, target string) error {
	out, err := exec.Command("cmd", "/c", "mklink", "/J", link, target).CombinedOutput()
	if err != nil {
		return fmt.Errorf("mklink /J failed: %w: %s", err, out)
	}
	return nil
}
