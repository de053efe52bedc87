package cli

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polofsson/logingate"
	"github.com/polofsson/logingate/host"
	"github.com/polofsson/logingate/internal/audit"
)

var (
	runUID int64
	runGID int64
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int64Var(&runUID, "uid", -1, "Target user uid for user-context modes")
	runCmd.Flags().Int64Var(&runGID, "gid", -1, "Target user gid for user-context modes")
}

var runCmd = &cobra.Command{
	Use:   "run <mode>",
	Short: "Run one gate invocation standalone",
	Long: "Drives a single invocation of the given mode (premount-root, premount-user,\n" +
		"postmount-root or postmount-user) outside any host engine. For user-context\n" +
		"modes the target identity comes from --uid and --gid.\n" +
		"Exits 77 when the script denies the login.",
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, hash, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	var auditLog *audit.Log
	if cfg.AuditLog != "" {
		auditLog, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
	}

	var decision host.Decision
	cb := host.Callbacks{
		Version:         host.CallbacksVersion,
		GetContextValue: contextValue,
		SetResult: func(d host.Decision) error {
			decision = d
			return nil
		},
		DidDeactivate: func() error { return nil },
	}

	plugin, err := logingate.New(cb, logingate.Options{
		Config:     cfg,
		ConfigHash: hash,
		Logger:     log,
		Audit:      auditLog,
	})
	if err != nil {
		return err
	}
	defer plugin.Destroy()

	mech, err := plugin.Create(args[0])
	if err != nil {
		return err
	}
	if _, err := mech.Invoke(); err != nil {
		return err
	}
	if err := mech.Deactivate(); err != nil {
		return err
	}
	if err := mech.Destroy(); err != nil {
		return err
	}

	fmt.Println(decision)
	if decision == host.Deny {
		os.Exit(host.StatusNoPerm)
	}
	return nil
}

// contextValue serves uid/gid lookups from the --uid and --gid flags,
// encoded the way a host engine hands them over. Unset flags report no
// value, which exercises the same fail-open path a real engine without
// session attributes would.
func contextValue(name string) ([]byte, error) {
	var v int64
	switch name {
	case host.AttrUID:
		v = runUID
	case host.AttrGID:
		v = runGID
	default:
		return nil, host.ErrNoValue
	}
	if v < 0 {
		return nil, host.ErrNoValue
	}
	buf := make([]byte, 4)
	binary.NativeEndian.PutUint32(buf, uint32(v))
	return buf, nil
}
