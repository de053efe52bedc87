package cli

import (
	"fmt"
	"os"

	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"github.com/polofsson/logingate/internal/config"
	"github.com/polofsson/logingate/internal/integrity"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "logingate",
	Short: "Trust-gated login script execution",
	Long:  "Runs administrator-installed login scripts at session setup, but only after\nverifying every path component is root-owned and tamper-proof. Untrusted\nscripts are skipped, never executed.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := integrity.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default "+config.DefaultPath+")")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the gate configuration from --config or the default
// location.
func loadConfig() (*config.Config, string, error) {
	cfg, hash, err := config.LoadWithHash(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, hash, nil
}

// newLogger builds the CLI logger at the configured level, writing to
// stderr so command output stays clean on stdout.
func newLogger(cfg *config.Config) log15.Logger {
	lvl, err := log15.LvlFromString(cfg.LogLevel)
	if err != nil {
		lvl = log15.LvlInfo
	}
	log := log15.New()
	log.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))
	return log
}
