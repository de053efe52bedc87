//go:build unix

// Package spawn executes a verified login script under a target identity
// and classifies its outcome into an authorization decision.
package spawn

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// WaitResult is the classified termination state of a script child.
type WaitResult struct {
	ExitStatus int
	Signaled   bool
	Signal     string
}

// Spawner launches argv[0]'s program image with the given argv and an
// optional credential to drop to, waits for the child, and reports how
// it terminated. A non-nil error means the child never ran to completion
// (spawn failed, credential drop failed, or the wait itself failed).
//
// Tests substitute a spy implementation; the gate never spawns when the
// trust check fails, and the spy is how that property is observed.
type Spawner interface {
	Run(argv []string, cred *syscall.Credential) (WaitResult, error)
}

// ExecSpawner runs children through os/exec.
//
// Credential handling is kernel-ordered by the runtime: supplementary
// groups are cleared, then the gid is set, then the uid, and any failure
// aborts the start entirely, so the script can never run with stale
// privileges. Descriptors above the standard streams are close-on-exec
// per descriptor by construction of os/exec, which avoids racing any
// event-notification descriptors opened concurrently in this process.
type ExecSpawner struct{}

// Run starts argv and waits for it synchronously. The environment is
// emptied and only the standard streams are inherited.
func (ExecSpawner) Run(argv []string, cred *syscall.Credential) (WaitResult, error) {
	if len(argv) == 0 {
		return WaitResult{}, fmt.Errorf("spawn: empty argv")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = []string{}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if cred != nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{Credential: cred}
	}

	err := cmd.Run()
	if err == nil {
		return WaitResult{ExitStatus: 0}, nil
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		// Spawn or wait failure: the program image was never replaced or
		// the child was lost. Treated as host software error territory.
		return WaitResult{}, fmt.Errorf("spawn %s: %w", argv[0], err)
	}

	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return WaitResult{}, fmt.Errorf("spawn %s: unexpected wait status %T", argv[0], exitErr.Sys())
	}
	if status.Signaled() {
		return WaitResult{Signaled: true, Signal: status.Signal().String()}, nil
	}
	return WaitResult{ExitStatus: status.ExitStatus()}, nil
}
