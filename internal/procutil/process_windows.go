//go:build windows

package procutil

import (
	"os"
	"os/exec"
	"syscall"
)

// SetProcessGroup configures cmd to start in its own process group so the
// whole tree can be terminated together.
func SetProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}

// KillGroup terminates the process identified by pid. Windows has no
// process-group kill via signals; direct children are terminated with the
// process handle.
func KillGroup(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Kill()
}

// GracefulTerminate terminates the process. Windows has no SIGTERM
// equivalent for arbitrary processes.
func GracefulTerminate(p *os.Process) error {
	return p.Kill()
}

// IsProcessAlive checks whether a process with the given pid is still running.
func IsProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
