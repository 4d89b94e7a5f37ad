package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"github.com/trapdoor-ai/trapdoor/internal/access"
	"github.com/trapdoor-ai/trapdoor/internal/apierr"
	"github.com/trapdoor-ai/trapdoor/internal/pathresolve"
	"github.com/trapdoor-ai/trapdoor/internal/procutil"
)

// Exec runs caller-supplied commands, gated on the exec capability. The
// command is a literal argument vector: no shell is involved at any point,
// so shell metacharacters have no effect.
type Exec struct {
	level access.Level
}

// NewExec builds an execution gateway enforcing the given access level.
func NewExec(level access.Level) *Exec {
	return &Exec{level: level}
}

// ExecRequest describes one command invocation. Requests are independent:
// no process or session state survives between calls.
type ExecRequest struct {
	Cmd     []string // argv, Cmd[0] is the program
	Cwd     string   // working directory
	Timeout time.Duration
}

// ExecResult is the captured outcome of a command that ran to completion.
// A nonzero ExitCode is an ordinary result, not an error: "ran and failed"
// is distinct from "could not be run".
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run spawns the command directly (no shell), captures stdout/stderr fully
// in memory, and enforces the timeout by killing the whole process group.
// Output size is unbounded; the operator's tier choice is the only brake.
func (g *Exec) Run(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	if !g.level.Allows(access.CapExec) {
		return nil, apierr.New(apierr.KindForbidden, "Exec disabled. Start with --full to enable")
	}
	if len(req.Cmd) == 0 || req.Cmd[0] == "" {
		return nil, apierr.New(apierr.KindInvalidOperation, "cmd must not be empty")
	}

	cwd := req.Cwd
	if cwd != "" {
		resolved, err := pathresolve.Resolve(cwd)
		if err == nil {
			cwd = resolved
		}
	}

	cmd := exec.Command(req.Cmd[0], req.Cmd[1:]...)
	cmd.Dir = cwd
	procutil.SetProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		// A missing program and a missing working directory both surface
		// as ErrNotExist from Start.
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, apierr.New(apierr.KindCommandNotFound, "Command not found: %s", req.Cmd[0])
		}
		return nil, fmt.Errorf("start %s: %w", req.Cmd[0], err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(req.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return finish(cmd, stdout.Bytes(), stderr.Bytes(), err)
	case <-timer.C:
		killAndReap(cmd, done)
		return nil, apierr.New(apierr.KindTimeout, "Command timed out after %ds", int(req.Timeout.Seconds()))
	case <-ctx.Done():
		killAndReap(cmd, done)
		return nil, fmt.Errorf("exec %s: %w", req.Cmd[0], ctx.Err())
	}
}

// killAndReap terminates the process group and waits for the child to be
// reaped so no zombie survives the request.
func killAndReap(cmd *exec.Cmd, done <-chan error) {
	if cmd.Process != nil {
		_ = procutil.KillGroup(cmd.Process.Pid)
	}
	<-done
}

func finish(cmd *exec.Cmd, stdout, stderr []byte, err error) (*ExecResult, error) {
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("wait %s: %w", cmd.Path, err)
		}
	}
	return &ExecResult{
		Stdout:   string(stdout),
		Stderr:   string(stderr),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}
