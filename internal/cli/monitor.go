package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polofsson/logingate/internal/trust"
	"github.com/polofsson/logingate/internal/watch"
)

func init() {
	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the script directory and re-verify trust on change",
	Long:  "Watches the configured script directory for writes, renames and permission\nchanges, and re-runs trust verification on every change. A script that loses\ntrust is reported immediately instead of at the next login.",
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	w := watch.New(cfg.ScriptDir, trust.New(log), log)
	return w.Run(ctx)
}
