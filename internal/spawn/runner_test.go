//go:build unix

package spawn

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/inconshreveable/log15"

	"github.com/polofsson/logingate/host"
	"github.com/polofsson/logingate/internal/trust"
)

func testLogger() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}

// spySpawner records whether and how it was invoked.
type spySpawner struct {
	called bool
	argv   []string
	cred   *syscall.Credential
	result WaitResult
	err    error
}

func (s *spySpawner) Run(argv []string, cred *syscall.Credential) (WaitResult, error) {
	s.called = true
	s.argv = argv
	s.cred = cred
	return s.result, s.err
}

// trustedScript writes an owner-executable script into a tree the
// returned verifier trusts.
func trustedScript(t *testing.T, body string) (*trust.Verifier, string) {
	t.Helper()
	root := t.TempDir()
	script := filepath.Join(root, "postmount-user")
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	v := &trust.Verifier{
		Root:       root,
		TrustedUID: uint32(os.Getuid()),
		TrustedGID: uint32(os.Getgid()),
		Log:        testLogger(),
	}
	return v, script
}

func newTestRunner(v *trust.Verifier, spy Spawner) *Runner {
	r := New(v, testLogger())
	r.Spawner = spy
	return r
}

func TestRunDeniesOnNoPermStatus(t *testing.T) {
	v, script := trustedScript(t, "#!/bin/sh\n")
	spy := &spySpawner{result: WaitResult{ExitStatus: host.StatusNoPerm}}
	r := newTestRunner(v, spy)

	d, out := r.Run(script, 501, 20)
	if d != host.Deny {
		t.Fatalf("expected deny for status 77, got %v", d)
	}
	if !out.Executed || out.ExitStatus != host.StatusNoPerm {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestRunAllowsOnOtherStatuses(t *testing.T) {
	for _, status := range []int{0, 1, host.StatusSoftware, 255} {
		v, script := trustedScript(t, "#!/bin/sh\n")
		spy := &spySpawner{result: WaitResult{ExitStatus: status}}
		r := newTestRunner(v, spy)

		if d, _ := r.Run(script, 501, 20); d != host.Allow {
			t.Fatalf("status %d: expected allow, got %v", status, d)
		}
	}
}

func TestRunAllowsOnSignalDeath(t *testing.T) {
	v, script := trustedScript(t, "#!/bin/sh\n")
	spy := &spySpawner{result: WaitResult{Signaled: true, Signal: "killed"}}
	r := newTestRunner(v, spy)

	if d, _ := r.Run(script, 501, 20); d != host.Allow {
		t.Fatalf("expected allow for signal death, got %v", d)
	}
}

func TestRunAllowsOnSpawnFailure(t *testing.T) {
	v, script := trustedScript(t, "#!/bin/sh\n")
	spy := &spySpawner{err: errors.New("resource limit")}
	r := newTestRunner(v, spy)

	d, out := r.Run(script, 501, 20)
	if d != host.Allow {
		t.Fatalf("expected allow for spawn failure, got %v", d)
	}
	if out.Executed {
		t.Fatalf("outcome should not count as executed: %+v", out)
	}
}

func TestRunSkipsUntrustedScript(t *testing.T) {
	v, script := trustedScript(t, "#!/bin/sh\n")
	if err := os.Chmod(script, 0o777); err != nil {
		t.Fatal(err)
	}
	spy := &spySpawner{}
	r := newTestRunner(v, spy)

	d, out := r.Run(script, 501, 20)
	if d != host.Allow {
		t.Fatalf("expected allow for untrusted script, got %v", d)
	}
	if spy.called {
		t.Fatal("spawner must not be invoked for an untrusted script")
	}
	if out.Executed {
		t.Fatalf("outcome should not count as executed: %+v", out)
	}
}

func TestRunArgvCarriesDecimalUID(t *testing.T) {
	v, script := trustedScript(t, "#!/bin/sh\n")
	spy := &spySpawner{}
	r := newTestRunner(v, spy)

	r.Run(script, 501, 20)
	want := []string{script, "501"}
	if len(spy.argv) != 2 || spy.argv[0] != want[0] || spy.argv[1] != want[1] {
		t.Fatalf("argv = %v, want %v", spy.argv, want)
	}
	if spy.cred == nil || spy.cred.Uid != 501 || spy.cred.Gid != 20 {
		t.Fatalf("credential = %+v, want uid 501 gid 20", spy.cred)
	}
	if spy.cred.Groups == nil || len(spy.cred.Groups) != 0 {
		t.Fatalf("supplementary groups must be cleared, got %v", spy.cred.Groups)
	}
}

func TestRunSkipsCredentialDropForAdministrativeIdentity(t *testing.T) {
	v, script := trustedScript(t, "#!/bin/sh\n")
	spy := &spySpawner{}
	r := newTestRunner(v, spy)

	r.Run(script, 0, 0)
	if spy.cred != nil {
		t.Fatalf("expected no credential drop for uid 0 gid 0, got %+v", spy.cred)
	}
	if spy.argv[1] != "0" {
		t.Fatalf("argv[1] = %q, want \"0\"", spy.argv[1])
	}
}

func TestRunConfiguredDefaultDecision(t *testing.T) {
	v, script := trustedScript(t, "#!/bin/sh\n")
	if err := os.Chmod(script, 0o666); err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(v, &spySpawner{})
	r.Default = host.Deny

	if d, _ := r.Run(script, 501, 20); d != host.Deny {
		t.Fatalf("expected configured default decision, got %v", d)
	}
}

func TestExecSpawnerRealExit(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "exit77")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 77\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := ExecSpawner{}.Run([]string{script, "0"}, nil)
	if err != nil {
		t.Fatalf("unexpected spawn error: %v", err)
	}
	if res.Signaled || res.ExitStatus != 77 {
		t.Fatalf("result = %+v, want exit status 77", res)
	}
}

func TestExecSpawnerMissingProgram(t *testing.T) {
	_, err := ExecSpawner{}.Run([]string{filepath.Join(t.TempDir(), "absent"), "0"}, nil)
	if err == nil {
		t.Fatal("expected error for missing program")
	}
}
