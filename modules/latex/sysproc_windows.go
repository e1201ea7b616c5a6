//go:build windows

package latex

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// hideConsole keeps toolchain runs from flashing a console window.
func hideConsole(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true, CreationFlags: createNoWindow}
}
