package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"github.com/polofsson/logingate/internal/audit"
	"github.com/polofsson/logingate/internal/config"
	"github.com/polofsson/logingate/internal/trust"
	"github.com/polofsson/logingate/internal/watch"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check deployment readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Binary location and version.
	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "logingate binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "logingate binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	// 2. Config file.
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, _, err := loadConfig()
	switch {
	case err != nil:
		checks = append(checks, checkResult{
			label:  "config file",
			ok:     false,
			detail: err.Error(),
			fix:    "fix " + cfgPath,
		})
		cfg = config.Default()
	default:
		detail := cfgPath
		if _, statErr := os.Stat(cfgPath); statErr != nil {
			detail = "not present, using defaults"
		}
		checks = append(checks, checkResult{
			label:  "config file",
			ok:     true,
			detail: detail,
		})
	}

	// Verification failures surface as check details, not log output.
	log := log15.New()
	log.SetHandler(log15.DiscardHandler())
	v := trust.New(log)

	// 3. Script directory trust chain.
	if err := v.Verify(cfg.ScriptDir); err != nil {
		checks = append(checks, checkResult{
			label:  "script directory",
			ok:     false,
			detail: err.Error(),
			fix:    fmt.Sprintf("sudo install -d -o root -m 0755 %s", cfg.ScriptDir),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "script directory",
			ok:     true,
			detail: cfg.ScriptDir,
		})
	}

	// 4. The four scripts. Absence is fine, an untrusted script is not.
	for _, name := range watch.ScriptNames {
		path := filepath.Join(cfg.ScriptDir, name)
		if _, err := os.Lstat(path); err != nil {
			checks = append(checks, checkResult{
				label:  name,
				ok:     true,
				detail: "not installed (mode is a no-op)",
			})
			continue
		}
		if err := v.Verify(path); err != nil {
			checks = append(checks, checkResult{
				label:  name,
				ok:     false,
				detail: err.Error(),
				fix:    fmt.Sprintf("sudo chown root %s && sudo chmod 0755 %s", path, path),
			})
			continue
		}
		checks = append(checks, checkResult{
			label:  name,
			ok:     true,
			detail: "trusted",
		})
	}

	// 5. Audit log chain, when configured.
	if cfg.AuditLog != "" {
		if _, err := os.Stat(cfg.AuditLog); err != nil {
			checks = append(checks, checkResult{
				label:  "audit log",
				ok:     true,
				detail: "not created yet",
			})
		} else if result := audit.Verify(cfg.AuditLog); result.Valid {
			checks = append(checks, checkResult{
				label:  "audit log",
				ok:     true,
				detail: fmt.Sprintf("%d entries, chain intact", result.Lines),
			})
		} else {
			checks = append(checks, checkResult{
				label:  "audit log",
				ok:     false,
				detail: fmt.Sprintf("chain broken at line %d: %s", result.ErrorLine, result.Error),
				fix:    "investigate tampering, then rotate the log",
			})
		}
	}

	// Print results.
	hasFailures := false
	for _, c := range checks {
		mark := "✓" // ✓
		if !c.ok {
			mark = "✗" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}

	if hasFailures {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}
