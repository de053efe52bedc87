//go:build unix

package spawn

import (
	"strconv"
	"syscall"

	"github.com/inconshreveable/log15"

	"github.com/polofsson/logingate/host"
	"github.com/polofsson/logingate/internal/trust"
)

// Outcome describes what happened to one Run for auditing. Executed is
// false when the trust check rejected the script and nothing spawned.
type Outcome struct {
	Executed   bool
	ExitStatus int
	Reason     string
}

// Runner is the privileged executor: verify the script's chain of
// trust, spawn it under the target identity, and map its exit status to
// a decision. Fields are fixed after construction, so a single Runner is
// safe for concurrent use by mechanisms on distinct goroutines.
type Runner struct {
	Verifier *trust.Verifier
	Spawner  Spawner

	// Default is the named fail-open policy: the decision used whenever
	// the script cannot produce one. Only exit status 77 overrides it.
	Default host.Decision

	Log log15.Logger
}

// New returns a Runner with the fail-open default and a real spawner.
func New(v *trust.Verifier, log log15.Logger) *Runner {
	return &Runner{
		Verifier: v,
		Spawner:  ExecSpawner{},
		Default:  host.DefaultDecision,
		Log:      log,
	}
}

// Run executes the script at path as uid/gid and returns the decision.
// An untrusted or missing script means there is nothing to enforce: the
// default decision stands and no process is spawned. The credential drop
// is skipped only for the administrative identity.
func (r *Runner) Run(path string, uid, gid uint32) (host.Decision, Outcome) {
	if err := r.Verifier.Verify(path); err != nil {
		r.Log.Warn("not executing script", "path", path, "reason", err)
		return r.Default, Outcome{Reason: "untrusted: " + err.Error()}
	}

	r.Log.Info("executing script", "path", path, "uid", uid)

	var cred *syscall.Credential
	if uid != 0 || gid != 0 {
		cred = &syscall.Credential{Uid: uid, Gid: gid, Groups: []uint32{}}
	}

	// The execve resolves the path again, a window after the check
	// above. Acceptable: the chain is root-owned, so only root can
	// swap a component inside the window.
	argv := []string{path, strconv.FormatUint(uint64(uid), 10)}
	res, err := r.Spawner.Run(argv, cred)
	if err != nil {
		r.Log.Warn("script failed to run", "path", path, "err", err)
		return r.Default, Outcome{Reason: "spawn failed: " + err.Error()}
	}
	if res.Signaled {
		r.Log.Warn("script died from signal", "path", path, "signal", res.Signal)
		return r.Default, Outcome{Executed: true, Reason: "killed by " + res.Signal}
	}

	r.Log.Info("script exited", "path", path, "status", res.ExitStatus)
	out := Outcome{Executed: true, ExitStatus: res.ExitStatus, Reason: "exit status " + strconv.Itoa(res.ExitStatus)}
	if res.ExitStatus == host.StatusNoPerm {
		r.Log.Info("script denied authorization", "path", path)
		return host.Deny, out
	}
	return r.Default, out
}
