package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polofsson/logingate/internal/trust"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <path>...",
	Short: "Check whether paths pass the trust chain",
	Long:  "Runs the same verification the gate applies before executing a script:\nevery component from the filesystem root down must be root-owned, free of\nsymlinks and not writable by untrusted parties. Exits 1 if any path fails.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	v := trust.New(newLogger(cfg))

	failed := false
	for _, path := range args {
		if err := v.Verify(path); err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("OK   %s\n", path)
	}
	if failed {
		os.Exit(1)
	}
	return nil
}
