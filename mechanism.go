package logingate

import (
	"errors"
	"path/filepath"

	"github.com/polofsson/logingate/host"
	"github.com/polofsson/logingate/internal/spawn"
)

// State tracks a mechanism through its lifecycle.
type State int

const (
	StateCreated State = iota
	StateInvoked
	StateDeactivated
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInvoked:
		return "invoked"
	case StateDeactivated:
		return "deactivated"
	default:
		return "destroyed"
	}
}

// ErrDestroyed is returned when a destroyed mechanism is used.
var ErrDestroyed = errors.New("mechanism already destroyed")

// Mechanism is one instance of the gate, bound to a single login-flow
// step by its mode. The host drives each instance sequentially; distinct
// instances may run on distinct goroutines concurrently, sharing only
// the plugin's logger, executor and audit sink, which are safe for that.
type Mechanism struct {
	plugin *Plugin
	mode   Mode
	state  State
}

// Create parses a mode-selector string and allocates a mechanism in
// state created. An unrecognized selector is an unrecoverable
// configuration error: no mechanism is returned.
func (p *Plugin) Create(modeID string) (*Mechanism, error) {
	mode, err := ParseMode(modeID)
	if err != nil {
		p.log.Error("mechanism creation failed", "mode", modeID, "err", err)
		return nil, err
	}
	p.log.Debug("mechanism created", "mode", mode)
	return &Mechanism{plugin: p, mode: mode}, nil
}

// Mode returns the mechanism's parsed mode.
func (m *Mechanism) Mode() Mode { return m.mode }

// State returns the mechanism's lifecycle state.
func (m *Mechanism) State() State { return m.state }

// Invoke runs one full gate invocation: resolve the target identity,
// build the script path, verify and execute, and report the decision to
// the host. Exactly one decision is reported per call, even on internal
// failure; a failed identity lookup aborts the run and reports the
// default decision without executing anything. Reporting failures are
// logged and do not change the computed decision.
func (m *Mechanism) Invoke() (host.Decision, error) {
	if m.state == StateDestroyed {
		return "", ErrDestroyed
	}
	p := m.plugin
	p.log.Debug("invoke", "mode", m.mode, "state", m.state)

	decision := p.runner.Default
	var outcome spawn.Outcome
	script := filepath.Join(p.cfg.ScriptDir, m.mode.ScriptName())

	uid, gid, err := p.resolver.Resolve(m.mode.Context == RunAsRoot)
	if err != nil {
		p.log.Warn("cannot execute script as user, identity lookup failed",
			"phase", m.mode.Phase, "err", err)
		outcome = spawn.Outcome{Reason: "identity resolution failed: " + err.Error()}
	} else {
		decision, outcome = p.runner.Run(script, uid, gid)
	}

	m.state = StateInvoked
	p.recordDecision(m.mode, script, uid, gid, decision, outcome)

	if err := p.cb.SetResult(decision); err != nil {
		p.log.Error("setting authorization result failed", "err", err)
	}
	p.log.Debug("invoke finished", "mode", m.mode, "decision", decision)
	return decision, nil
}

// Deactivate acknowledges deactivation immediately; the gate has no UI
// to tear down.
func (m *Mechanism) Deactivate() error {
	if m.state == StateDestroyed {
		return ErrDestroyed
	}
	m.plugin.log.Debug("mechanism deactivated", "mode", m.mode)
	m.state = StateDeactivated
	return m.plugin.cb.DidDeactivate()
}

// Destroy releases the mechanism. No script execution may be in flight;
// that is the host's contract, not enforced here.
func (m *Mechanism) Destroy() error {
	if m.state == StateDestroyed {
		return ErrDestroyed
	}
	m.plugin.log.Debug("mechanism destroyed", "mode", m.mode)
	m.state = StateDestroyed
	return nil
}
