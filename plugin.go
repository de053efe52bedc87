package logingate

import (
	"fmt"

	"github.com/inconshreveable/log15"

	"github.com/polofsson/logingate/host"
	"github.com/polofsson/logingate/internal/audit"
	"github.com/polofsson/logingate/internal/config"
	"github.com/polofsson/logingate/internal/identity"
	"github.com/polofsson/logingate/internal/spawn"
	"github.com/polofsson/logingate/internal/trust"
)

// Options configures a Plugin. The zero value uses built-in defaults.
type Options struct {
	// Config overrides the gate configuration; nil loads defaults.
	Config *config.Config

	// ConfigHash is recorded in audit entries when set.
	ConfigHash string

	// Logger receives all gate logging; nil uses the log15 root logger.
	// The handler must be safe for concurrent use, since distinct
	// mechanisms may log from distinct goroutines.
	Logger log15.Logger

	// Audit, when non-nil, records every decision.
	Audit *audit.Log

	// Spawner overrides the process spawner. Tests use a spy here.
	Spawner spawn.Spawner
}

// Plugin is one activation of the gate by the host engine. It holds the
// shared resources all mechanisms of this activation use: the callback
// table, logger, configuration, executor and resolver. Immutable after
// creation.
type Plugin struct {
	cb       host.Callbacks
	cfg      *config.Config
	cfgHash  string
	log      log15.Logger
	auditLog *audit.Log
	resolver *identity.Resolver
	runner   *spawn.Runner
}

// New validates the callback table and assembles a Plugin. A table
// below host.CallbacksVersion or with missing callbacks is a
// configuration error: no plugin is returned.
func New(cb host.Callbacks, opts Options) (*Plugin, error) {
	if !cb.Valid() {
		return nil, fmt.Errorf("incompatible callback table (version %d, need at least %d with all callbacks set)",
			cb.Version, host.CallbacksVersion)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	def, err := cfg.Decision()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log15.New("plugin", "logingate")
	}

	runner := spawn.New(trust.New(logger), logger)
	runner.Default = def
	if opts.Spawner != nil {
		runner.Spawner = opts.Spawner
	}

	p := &Plugin{
		cb:       cb,
		cfg:      cfg,
		cfgHash:  opts.ConfigHash,
		log:      logger,
		auditLog: opts.Audit,
		resolver: &identity.Resolver{Get: cb.GetContextValue, Log: logger},
		runner:   runner,
	}
	p.log.Debug("plugin created", "callbacks_version", cb.Version, "script_dir", cfg.ScriptDir)
	return p, nil
}

// Runner exposes the plugin's executor so operational tooling can tune
// the verifier it runs behind (chain root, trusted identity).
func (p *Plugin) Runner() *spawn.Runner { return p.runner }

// Destroy tears the plugin down. All mechanisms should have been
// destroyed by this time.
func (p *Plugin) Destroy() error {
	p.log.Debug("plugin destroyed")
	if p.auditLog != nil {
		return p.auditLog.Close()
	}
	return nil
}

func (p *Plugin) recordDecision(m Mode, script string, uid, gid uint32, d host.Decision, out spawn.Outcome) {
	if p.auditLog == nil {
		return
	}
	err := p.auditLog.Record(audit.Entry{
		Mechanism:  m.String(),
		Script:     script,
		RunAsUID:   uid,
		RunAsGID:   gid,
		Executed:   out.Executed,
		ExitStatus: out.ExitStatus,
		Decision:   string(d),
		Reason:     out.Reason,
		ConfigHash: p.cfgHash,
	})
	if err != nil {
		p.log.Error("recording decision failed", "err", err)
	}
}
