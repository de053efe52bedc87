//go:build unix

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inconshreveable/log15"

	"github.com/polofsson/logingate/internal/trust"
)

func testLogger() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}

func testSetup(t *testing.T) (*Watcher, string, chan [2]int) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	v := &trust.Verifier{
		Root:       dir,
		TrustedUID: uint32(os.Getuid()),
		TrustedGID: uint32(os.Getgid()),
		Log:        testLogger(),
	}
	w := New(dir, v, testLogger())
	w.debounce = 20 * time.Millisecond

	sweeps := make(chan [2]int, 16)
	w.onSweep = func(present, trusted int) {
		sweeps <- [2]int{present, trusted}
	}
	return w, dir, sweeps
}

func waitSweep(t *testing.T, sweeps chan [2]int) [2]int {
	t.Helper()
	select {
	case s := <-sweeps:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a trust sweep")
		return [2]int{}
	}
}

func TestSweepCountsTrustedScripts(t *testing.T) {
	w, dir, _ := testSetup(t)
	if err := os.WriteFile(filepath.Join(dir, "premount-root"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "postmount-user"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(dir, "postmount-user"), 0o777); err != nil {
		t.Fatal(err)
	}

	var present, trusted int
	w.onSweep = func(p, tr int) { present, trusted = p, tr }
	w.sweep()

	if present != 2 || trusted != 1 {
		t.Fatalf("sweep = %d present %d trusted, want 2/1", present, trusted)
	}
}

func TestRunReverifiesOnChange(t *testing.T) {
	w, dir, sweeps := testSetup(t)
	script := filepath.Join(dir, "premount-root")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Startup sweep sees one trusted script.
	if s := waitSweep(t, sweeps); s != [2]int{1, 1} {
		t.Fatalf("startup sweep = %v, want {1 1}", s)
	}

	// A permission flip must trigger a sweep that flags the script.
	if err := os.Chmod(script, 0o777); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-sweeps:
			if s == [2]int{1, 0} {
				cancel()
				if err := <-done; err != nil {
					t.Fatal(err)
				}
				return
			}
		case <-deadline:
			t.Fatal("never saw a sweep flagging the untrusted script")
		}
	}
}
