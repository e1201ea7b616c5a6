//go:build !windows

package latex

import "os/exec"

func hideConsole(*exec.Cmd) {}
