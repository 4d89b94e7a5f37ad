//go:build !windows

package procutil

import (
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestIsProcessAlive(t *testing.T) {
	if !IsProcessAlive(os.Getpid()) {
		t.Error("current process reported dead")
	}
}

func TestKillGroupTerminatesChildren(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skipf("sleep not available: %v", err)
	}

	cmd := exec.Command("sleep", "30")
	SetProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := KillGroup(cmd.Process.Pid); err != nil {
		t.Fatalf("KillGroup: %v", err)
	}
	_ = cmd.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for IsProcessAlive(cmd.Process.Pid) {
		if time.Now().After(deadline) {
			t.Fatal("process still alive after KillGroup")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestGracefulTerminate(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skipf("sleep not available: %v", err)
	}

	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := GracefulTerminate(cmd.Process); err != nil {
		t.Fatalf("GracefulTerminate: %v", err)
	}
	if err := cmd.Wait(); err == nil {
		t.Error("expected non-nil wait error after SIGTERM")
	}
}
