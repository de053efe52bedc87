//go:build unix

// Package watch keeps an eye on the script directory and re-verifies
// the trust chain of every login script whenever something in the
// directory changes. Purely diagnostic: the gate always verifies again
// at invocation time; the watcher exists so an administrator learns
// about a trust regression before the next login does.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/inconshreveable/log15"

	"github.com/polofsson/logingate/internal/trust"
)

// debounceDefault coalesces bursts of filesystem events (an rsync of
// the script dir fires dozens) into one re-verification sweep.
const debounceDefault = 200 * time.Millisecond

// ScriptNames are the four script files with meaning to the gate.
var ScriptNames = []string{
	"premount-root",
	"premount-user",
	"postmount-root",
	"postmount-user",
}

// Watcher re-verifies script trust on directory changes.
type Watcher struct {
	dir      string
	verifier *trust.Verifier
	log      log15.Logger
	debounce time.Duration

	// onSweep, when set, is called after each verification sweep with
	// the number of scripts present and trusted. Tests hook this.
	onSweep func(present, trusted int)
}

// New creates a watcher for the given script directory.
func New(dir string, v *trust.Verifier, log log15.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		verifier: v,
		log:      log,
		debounce: debounceDefault,
	}
}

// Run sweeps once at startup, then watches the directory until ctx is
// cancelled. Events are debounced by a single timer; no per-event
// goroutines are created.
func (w *Watcher) Run(ctx context.Context) error {
	w.sweep()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	var mu sync.Mutex
	dirty := false

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			mu.Lock()
			run := dirty
			dirty = false
			mu.Unlock()
			if run {
				w.sweep()
			}

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("script directory changed", "op", event.Op.String(), "name", event.Name)

			mu.Lock()
			dirty = true
			mu.Unlock()

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

// relevant filters to events that can change a trust verdict: content,
// permission or ownership changes, new files, removals, renames. Any
// such event in the directory triggers a sweep; scripts are few and a
// sweep is cheap, so there is no point second-guessing which name
// changed (a rename can affect a script without naming it).
func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Chmod) || event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename)
}

// sweep verifies every present script and logs the verdicts.
func (w *Watcher) sweep() {
	present, trusted := 0, 0
	for _, name := range ScriptNames {
		path := filepath.Join(w.dir, name)
		if _, err := os.Lstat(path); err != nil {
			if !os.IsNotExist(err) {
				w.log.Warn("cannot inspect script", "path", path, "err", err)
			}
			continue
		}
		present++
		if err := w.verifier.Verify(path); err != nil {
			w.log.Warn("script no longer trusted", "path", path, "reason", err)
			continue
		}
		trusted++
		w.log.Debug("script trusted", "path", path)
	}
	w.log.Info("script trust sweep", "present", present, "trusted", trusted)
	if w.onSweep != nil {
		w.onSweep(present, trusted)
	}
}
